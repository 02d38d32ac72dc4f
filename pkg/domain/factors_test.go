package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorTableKeepsInsertionOrder(t *testing.T) {
	ft := NewFactorTable(Factor{"Retail", 2.8}, Factor{"Restaurant", 1.4})
	ft.Set("Kiosk", 10)
	ft.Set("Retail", 3)

	assert.Equal(t, []string{"Retail", "Restaurant", "Kiosk"}, ft.Keys())
	v, ok := ft.Get("Retail")
	require.True(t, ok)
	assert.InDelta(t, 3.0, v, 1e-9)
}

func TestFactorTableJSONRoundTripPreservesOrder(t *testing.T) {
	ft := NewFactorTable(Factor{"Zeta", 1}, Factor{"Alpha", 2.5}, Factor{"Mid", 0.65})
	b, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Zeta":1,"Alpha":2.5,"Mid":0.65}`, string(b))

	var back FactorTable
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, back.Keys())
	assert.Equal(t, ft.Entries(), back.Entries())
}

func TestFactorTableUnmarshalNullAndGarbage(t *testing.T) {
	var ft FactorTable
	require.NoError(t, json.Unmarshal([]byte(`null`), &ft))
	assert.Equal(t, 0, ft.Len())

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &ft))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &ft))
}

func TestFactorTableDeleteDoesNotAliasClones(t *testing.T) {
	ft := NewFactorTable(Factor{"A", 1}, Factor{"B", 2}, Factor{"C", 3})
	clone := ft.Clone()

	assert.True(t, ft.Delete("B"))
	assert.False(t, ft.Delete("B"))
	assert.Equal(t, []string{"A", "C"}, ft.Keys())
	assert.Equal(t, []string{"A", "B", "C"}, clone.Keys())
	assert.True(t, clone.Has("B"))
}

func TestZeroFactorTableIsUsable(t *testing.T) {
	var ft FactorTable
	assert.False(t, ft.Has("x"))
	b, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
	ft.Set("x", 1)
	assert.Equal(t, 1, ft.Len())
}

func TestParseHelpers(t *testing.T) {
	m, ok := ParseMode(" Upload ")
	assert.True(t, ok)
	assert.Equal(t, ModeUpload, m)
	_, ok = ParseMode("grid")
	assert.False(t, ok)

	f, ok := ParseField("Room #")
	assert.True(t, ok)
	assert.Equal(t, FieldNumber, f)
	f, ok = ParseField("Occupancy Type")
	assert.True(t, ok)
	assert.Equal(t, FieldType, f)
	_, ok = ParseField("load")
	assert.False(t, ok)

	k, ok := ParseSortKey("LOAD")
	assert.True(t, ok)
	assert.True(t, k.Numeric())
	assert.False(t, SortName.Numeric())
}
