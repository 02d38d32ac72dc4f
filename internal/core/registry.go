// Package core implements the occupancy engine: code-set resolution, load
// derivation, row collections, view projection and the workspace that owns them.
package core

import "occucalc/pkg/domain"

// Built-in code set identifiers.
const (
	CodeIBC2024     = "IBC_2024"
	CodeNFPA1012024 = "NFPA_101_2024"
	CodeUKADB2023   = "UK_ADB_2023"
	CodeGeneric     = "GENERIC"

	// DefaultCodeID is active until the user picks another code set.
	DefaultCodeID = CodeIBC2024
	// FallbackCodeID resolves any identifier the registry does not know.
	FallbackCodeID = CodeGeneric
)

type f = domain.Factor

// Starter factors in m² per person. They are convenience defaults, not a
// substitute for the code adopted in a project's jurisdiction.
var builtinCodeSets = []domain.CodeSet{
	{
		ID:    CodeIBC2024,
		Label: "IBC 2024 (Table 1004.5) – starter",
		Factors: domain.NewFactorTable(
			f{Type: "Assembly – fixed seats", Value: 1},
			f{Type: "Assembly – standing", Value: 0.65},
			f{Type: "Assembly – tables & chairs", Value: 1.4},
			f{Type: "Classroom", Value: 1.9},
			f{Type: "Laboratory", Value: 4.6},
			f{Type: "Library – reading", Value: 4.6},
			f{Type: "Library – stack area", Value: 9.3},
			f{Type: "Business/Office", Value: 9.3},
			f{Type: "Retail / Mercantile – sales floor", Value: 2.8},
			f{Type: "Retail – storage/back of house", Value: 28},
			f{Type: "Residential – dwelling unit", Value: 18.6},
			f{Type: "Residential – hotel/motel", Value: 18.6},
			f{Type: "Residential – dormitory", Value: 9.3},
			f{Type: "Industrial – shop/plant", Value: 9.3},
			f{Type: "Educational – day care", Value: 3.7},
			f{Type: "Educational – K-12", Value: 1.9},
			f{Type: "Medical – in-patient", Value: 22.3},
			f{Type: "Medical – out-patient", Value: 9.3},
			f{Type: "Storage – general", Value: 46.5},
			f{Type: "Parking garage", Value: 46.5},
			f{Type: "Mechanical / Electrical", Value: 28},
			f{Type: "Corridor", Value: 0.5},
			f{Type: "Stair", Value: 0.25},
		),
	},
	{
		ID:    CodeNFPA1012024,
		Label: "NFPA 101 (2024) – starter",
		Factors: domain.NewFactorTable(
			f{Type: "Assembly – standing", Value: 0.65},
			f{Type: "Assembly – tables & chairs", Value: 1.4},
			f{Type: "Classroom", Value: 1.9},
			f{Type: "Laboratory", Value: 4.6},
			f{Type: "Business/Office", Value: 9.3},
			f{Type: "Retail / Mercantile – sales floor", Value: 2.8},
			f{Type: "Residential – hotel/motel", Value: 18.6},
			f{Type: "Residential – dormitory", Value: 9.3},
			f{Type: "Industrial – shop/plant", Value: 9.3},
			f{Type: "Medical – out-patient", Value: 9.3},
			f{Type: "Storage – general", Value: 46.5},
			f{Type: "Mechanical / Electrical", Value: 28},
		),
	},
	{
		ID:    CodeUKADB2023,
		Label: "UK Approved Document B (2023) – starter",
		Factors: domain.NewFactorTable(
			f{Type: "Assembly – standing", Value: 0.5},
			f{Type: "Assembly – tables & chairs", Value: 1},
			f{Type: "Office", Value: 10},
			f{Type: "Retail", Value: 2.5},
			f{Type: "Schools – general", Value: 2},
			f{Type: "Residential – hotel", Value: 18},
			f{Type: "Residential – dwelling", Value: 18},
			f{Type: "Industrial", Value: 10},
			f{Type: "Storage", Value: 50},
		),
	},
	{
		ID:    CodeGeneric,
		Label: "Generic (edit as needed)",
		Factors: domain.NewFactorTable(
			f{Type: "Retail", Value: 2.8},
			f{Type: "Restaurant", Value: 1.4},
			f{Type: "Administrative", Value: 9.3},
			f{Type: "Mechanical", Value: 28},
		),
	},
}

// Registry is the fixed set of code presets available to a process.
type Registry struct {
	order []string
	sets  map[string]domain.CodeSet
}

// NewRegistry builds a registry from presets. The fallback id must be among them.
func NewRegistry(sets ...domain.CodeSet) *Registry {
	r := &Registry{sets: make(map[string]domain.CodeSet, len(sets))}
	for _, cs := range sets {
		if _, dup := r.sets[cs.ID]; !dup {
			r.order = append(r.order, cs.ID)
		}
		cs.Factors = cs.Factors.Clone()
		r.sets[cs.ID] = cs
	}
	return r
}

// DefaultRegistry returns the built-in presets.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinCodeSets...)
}

// CodeSets lists presets in registration order.
func (r *Registry) CodeSets() []domain.CodeSet {
	out := make([]domain.CodeSet, 0, len(r.order))
	for _, id := range r.order {
		cs := r.sets[id]
		cs.Factors = cs.Factors.Clone()
		out = append(out, cs)
	}
	return out
}

// Lookup returns the preset for id.
func (r *Registry) Lookup(id string) (domain.CodeSet, bool) {
	cs, ok := r.sets[id]
	if !ok {
		return domain.CodeSet{}, false
	}
	cs.Factors = cs.Factors.Clone()
	return cs, true
}

// Has reports whether id is a registered preset.
func (r *Registry) Has(id string) bool {
	_, ok := r.sets[id]
	return ok
}

// Base returns the base factor table for id, falling back to the generic set.
func (r *Registry) Base(id string) domain.FactorTable {
	if cs, ok := r.sets[id]; ok {
		return cs.Factors.Clone()
	}
	return r.sets[FallbackCodeID].Factors.Clone()
}

// Label returns the human label for id, or id itself when unknown.
func (r *Registry) Label(id string) string {
	if cs, ok := r.sets[id]; ok {
		return cs.Label
	}
	return id
}
