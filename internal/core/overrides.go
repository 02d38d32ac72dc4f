package core

import (
	"math"
	"strconv"
	"strings"

	"occucalc/pkg/domain"
)

// DefaultAddedFactor is assigned to types created through AddType.
const DefaultAddedFactor = 10.0

// Overrides holds user factor edits keyed by code set id.
type Overrides map[string]domain.FactorTable

// Clone deep-copies the override map.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for id, ft := range o {
		out[id] = ft.Clone()
	}
	return out
}

// Resolve merges the base table for codeID with its overrides. Base keys keep
// their position; override-only keys follow in insertion order.
func (r *Registry) Resolve(codeID string, o Overrides) domain.FactorTable {
	merged := r.Base(codeID)
	for _, e := range o[codeID].Entries() {
		merged.Set(e.Type, e.Value)
	}
	return merged
}

// TypeList enumerates the types of a resolved table in order.
func TypeList(ft domain.FactorTable) []string {
	return ft.Keys()
}

// ValidFactor reports whether v may be stored as a factor.
func ValidFactor(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ParseFactor parses user text into a factor. The bool is false when the
// text is not a usable factor.
func ParseFactor(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !ValidFactor(v) {
		return 0, false
	}
	return v, true
}

// SetFactor upserts typ for codeID. Invalid values are ignored.
func (o Overrides) SetFactor(codeID, typ string, value float64) bool {
	if typ == "" || !ValidFactor(value) {
		return false
	}
	ft := o[codeID]
	ft.Set(typ, value)
	o[codeID] = ft
	return true
}

// SetFactorText is SetFactor for values typed as text.
func (o Overrides) SetFactorText(codeID, typ, value string) bool {
	v, ok := ParseFactor(value)
	if !ok {
		return false
	}
	return o.SetFactor(codeID, typ, v)
}

// AddType registers a new type with DefaultAddedFactor. Blank names and
// names already in the merged list are ignored.
func (o Overrides) AddType(r *Registry, codeID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || r.Resolve(codeID, o).Has(name) {
		return false
	}
	return o.SetFactor(codeID, name, DefaultAddedFactor)
}

// DeleteType removes an override-only type. Base types are protected.
func (o Overrides) DeleteType(r *Registry, codeID, typ string) bool {
	if r.Base(codeID).Has(typ) {
		return false
	}
	ft, ok := o[codeID]
	if !ok || !ft.Delete(typ) {
		return false
	}
	o[codeID] = ft
	return true
}

// Reset drops every override for codeID.
func (o Overrides) Reset(codeID string) bool {
	if _, ok := o[codeID]; !ok {
		return false
	}
	delete(o, codeID)
	return true
}
