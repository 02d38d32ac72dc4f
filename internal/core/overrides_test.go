package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	reg := DefaultRegistry()
	sets := reg.CodeSets()
	require.Len(t, sets, 4)
	assert.Equal(t, []string{CodeIBC2024, CodeNFPA1012024, CodeUKADB2023, CodeGeneric},
		[]string{sets[0].ID, sets[1].ID, sets[2].ID, sets[3].ID})
	assert.Equal(t, 23, sets[0].Factors.Len())
	assert.Equal(t, 12, sets[1].Factors.Len())
	assert.Equal(t, 9, sets[2].Factors.Len())
	assert.Equal(t, []string{"Retail", "Restaurant", "Administrative", "Mechanical"}, sets[3].Factors.Keys())

	v, ok := reg.Base(CodeIBC2024).Get("Business/Office")
	require.True(t, ok)
	assert.InDelta(t, 9.3, v, 1e-9)

	assert.Equal(t, sets[3].Factors.Keys(), reg.Base("NOPE").Keys())
	assert.Equal(t, "NOPE", reg.Label("NOPE"))
	assert.Equal(t, "Generic (edit as needed)", reg.Label(CodeGeneric))
}

func TestRegistryReturnsCopies(t *testing.T) {
	reg := DefaultRegistry()
	base := reg.Base(CodeGeneric)
	base.Set("Retail", 99)
	base.Set("Kiosk", 1)

	again := reg.Base(CodeGeneric)
	v, _ := again.Get("Retail")
	assert.InDelta(t, 2.8, v, 1e-9)
	assert.False(t, again.Has("Kiosk"))
}

func TestResolveMergesOverridesAfterBase(t *testing.T) {
	reg := DefaultRegistry()
	o := Overrides{}
	require.True(t, o.SetFactor(CodeGeneric, "Retail", 5))
	require.True(t, o.AddType(reg, CodeGeneric, "  Kiosk "))

	ft := reg.Resolve(CodeGeneric, o)
	assert.Equal(t, []string{"Retail", "Restaurant", "Administrative", "Mechanical", "Kiosk"}, TypeList(ft))
	v, _ := ft.Get("Retail")
	assert.InDelta(t, 5, v, 1e-9)
	v, _ = ft.Get("Kiosk")
	assert.InDelta(t, DefaultAddedFactor, v, 1e-9)

	other := reg.Resolve(CodeIBC2024, o)
	assert.False(t, other.Has("Kiosk"))
}

func TestFactorEditsRejectInvalidInput(t *testing.T) {
	reg := DefaultRegistry()
	o := Overrides{}
	assert.False(t, o.SetFactorText(CodeGeneric, "Retail", "0"))
	assert.False(t, o.SetFactorText(CodeGeneric, "Retail", "-1"))
	assert.False(t, o.SetFactorText(CodeGeneric, "Retail", "abc"))
	assert.False(t, o.SetFactorText(CodeGeneric, "Retail", "Inf"))
	assert.True(t, o.SetFactorText(CodeGeneric, "Retail", " 3.5 "))

	assert.False(t, o.AddType(reg, CodeGeneric, "   "))
	assert.False(t, o.AddType(reg, CodeGeneric, "Restaurant"))
	assert.Len(t, o, 1)
}

func TestDeleteTypeProtectsBase(t *testing.T) {
	reg := DefaultRegistry()
	o := Overrides{}
	require.True(t, o.SetFactor(CodeGeneric, "Retail", 4))
	require.True(t, o.AddType(reg, CodeGeneric, "Kiosk"))

	assert.False(t, o.DeleteType(reg, CodeGeneric, "Retail"))
	assert.True(t, reg.Resolve(CodeGeneric, o).Has("Retail"))

	assert.True(t, o.DeleteType(reg, CodeGeneric, "Kiosk"))
	assert.False(t, reg.Resolve(CodeGeneric, o).Has("Kiosk"))
	assert.False(t, o.DeleteType(reg, CodeGeneric, "Kiosk"))
}

func TestResetDropsCodeOverrides(t *testing.T) {
	reg := DefaultRegistry()
	o := Overrides{}
	o.SetFactor(CodeGeneric, "Retail", 4)
	o.SetFactor(CodeIBC2024, "Stair", 1)

	assert.True(t, o.Reset(CodeGeneric))
	assert.False(t, o.Reset(CodeGeneric))
	v, _ := reg.Resolve(CodeGeneric, o).Get("Retail")
	assert.InDelta(t, 2.8, v, 1e-9)
	v, _ = reg.Resolve(CodeIBC2024, o).Get("Stair")
	assert.InDelta(t, 1, v, 1e-9)
}
