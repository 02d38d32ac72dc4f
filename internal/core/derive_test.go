package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"occucalc/pkg/domain"
)

func TestOccupantLoad(t *testing.T) {
	cases := []struct {
		area   string
		factor float64
		want   int
	}{
		{"186", 9.3, 20},
		{"140", 2.8, 50},
		{"56", 4.6, 13},
		{" 10 ", 3, 4},
		{"9.3", 9.3, 1},
		{"0", 9.3, 0},
		{"-5", 9.3, 0},
		{"", 9.3, 0},
		{"abc", 9.3, 0},
		{"NaN", 9.3, 0},
		{"Inf", 9.3, 0},
		{"1", 0, 100},
		{"1", -4, 100},
		{"1", math.NaN(), 100},
		{"1", math.Inf(1), 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OccupantLoad(tc.area, tc.factor), "area=%q factor=%v", tc.area, tc.factor)
	}
}

func TestOccupantLoadMatchesCeilDivision(t *testing.T) {
	for _, area := range []float64{0.5, 1, 7.25, 100, 1234.5} {
		for _, factor := range []float64{0.25, 0.65, 1.4, 9.3, 46.5} {
			want := int(math.Ceil(area / factor))
			got := OccupantLoad(formatFloat(area), factor)
			assert.Equal(t, want, got, "area=%v factor=%v", area, factor)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	types := []string{"Retail", "Restaurant"}
	assert.Equal(t, "Restaurant", NormalizeType(" Restaurant ", types))
	assert.Equal(t, "Retail", NormalizeType("Unknown", types))
	assert.Equal(t, "Retail", NormalizeType("", types))
	assert.Equal(t, "x", NormalizeType(" x ", nil))
}

func TestReconcileDoesNotModifyInput(t *testing.T) {
	ft := domain.NewFactorTable(domain.Factor{Type: "A", Value: 2}, domain.Factor{Type: "B", Value: 5})
	in := []domain.Row{{ID: 7, Number: "7", Name: "x", Area: "10", Type: "Z", Selected: true}}
	out := Reconcile(in, ft)

	assert.Equal(t, "Z", in[0].Type)
	assert.Equal(t, domain.Row{ID: 7, Number: "7", Name: "x", Area: "10", Type: "A", Selected: true, Load: 5}, out[0])
}

func TestComputeTotalsFirstAppearanceOrder(t *testing.T) {
	ft := domain.NewFactorTable(domain.Factor{Type: "A", Value: 1}, domain.Factor{Type: "B", Value: 2})
	rows := []domain.Row{
		{ID: 1, Area: "4", Type: "B"},
		{ID: 2, Area: "3", Type: "A"},
		{ID: 3, Area: "4", Type: "B"},
		{ID: 4, Area: "", Type: "A"},
	}
	totals := ComputeTotals(rows, ft)
	assert.Equal(t, []domain.TypeTotal{{Type: "B", Load: 4}, {Type: "A", Load: 3}}, totals.ByType)
	assert.Equal(t, 7, totals.GrandTotal)

	empty := ComputeTotals(nil, ft)
	assert.NotNil(t, empty.ByType)
	assert.Zero(t, empty.GrandTotal)
}
