package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Factor is one occupancy type with its area-per-person value (m² per person).
type Factor struct {
	Type  string  `json:"type" yaml:"type"`
	Value float64 `json:"value" yaml:"value"`
}

// FactorTable maps occupancy types to factors and remembers insertion order.
// The order is the type list order: base entries first, then user-added ones.
// The zero value is an empty, usable table.
type FactorTable struct {
	keys   []string
	values map[string]float64
}

// NewFactorTable builds a table from ordered entries. Later duplicates
// overwrite the value but keep the first position.
func NewFactorTable(entries ...Factor) FactorTable {
	var t FactorTable
	for _, e := range entries {
		t.Set(e.Type, e.Value)
	}
	return t
}

// Len returns the number of types.
func (t FactorTable) Len() int { return len(t.keys) }

// Keys returns the ordered type list.
func (t FactorTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns the factor for a type.
func (t FactorTable) Get(typ string) (float64, bool) {
	v, ok := t.values[typ]
	return v, ok
}

// Has reports whether typ is present.
func (t FactorTable) Has(typ string) bool {
	_, ok := t.values[typ]
	return ok
}

// Set inserts or overwrites a factor. New types append to the order.
func (t *FactorTable) Set(typ string, value float64) {
	if t.values == nil {
		t.values = make(map[string]float64)
	}
	if _, exists := t.values[typ]; !exists {
		t.keys = append(t.keys, typ)
	}
	t.values[typ] = value
}

// Delete removes a type, returning true if it existed.
func (t *FactorTable) Delete(typ string) bool {
	if _, ok := t.values[typ]; !ok {
		return false
	}
	delete(t.values, typ)
	for i, k := range t.keys {
		if k == typ {
			t.keys = append(t.keys[:i:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns an independent copy.
func (t FactorTable) Clone() FactorTable {
	out := FactorTable{keys: t.Keys()}
	if t.values != nil {
		out.values = make(map[string]float64, len(t.values))
		for k, v := range t.values {
			out.values[k] = v
		}
	}
	return out
}

// Entries returns the ordered (type, factor) pairs.
func (t FactorTable) Entries() []Factor {
	out := make([]Factor, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, Factor{Type: k, Value: t.values[k]})
	}
	return out
}

// MarshalJSON encodes the table as a JSON object in insertion order.
func (t FactorTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping document order.
func (t *FactorTable) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = FactorTable{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("factor table: expected object, got %v", tok)
	}
	var out FactorTable
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("factor table: expected key, got %v", kt)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("factor %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}
