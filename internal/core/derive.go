package core

import (
	"math"
	"strconv"
	"strings"

	"occucalc/pkg/domain"
)

// FactorEpsilon replaces factors that are not positive finite numbers. It is
// also the smallest step the factor editor offers.
const FactorEpsilon = 0.01

// ParseArea converts typed area text into a number. Blank or unparseable text
// and non-finite values yield 0.
func ParseArea(area string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(area), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// OccupantLoad returns ceil(area / factor), or 0 when area is not positive.
func OccupantLoad(area string, factor float64) int {
	a := ParseArea(area)
	if a <= 0 {
		return 0
	}
	if !ValidFactor(factor) {
		factor = FactorEpsilon
	}
	return int(math.Ceil(a / factor))
}

// NormalizeType trims typ and returns it when it is in types, else the first
// entry. An empty list yields the trimmed input.
func NormalizeType(typ string, types []string) string {
	t := strings.TrimSpace(typ)
	for _, k := range types {
		if k == t {
			return t
		}
	}
	if len(types) == 0 {
		return t
	}
	return types[0]
}

// derive normalizes the row type and refreshes its cached load.
func derive(row domain.Row, ft domain.FactorTable, types []string) domain.Row {
	row.Type = NormalizeType(row.Type, types)
	factor, _ := ft.Get(row.Type)
	row.Load = OccupantLoad(row.Area, factor)
	return row
}

// Reconcile returns rows with every type normalized against ft and every load
// recomputed. Ids and other fields are preserved. The input is not modified.
func Reconcile(rows []domain.Row, ft domain.FactorTable) []domain.Row {
	types := TypeList(ft)
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		out[i] = derive(row, ft, types)
	}
	return out
}

// ComputeTotals groups recomputed loads by type in first-appearance order.
func ComputeTotals(rows []domain.Row, ft domain.FactorTable) domain.Totals {
	totals := domain.Totals{ByType: []domain.TypeTotal{}}
	index := make(map[string]int)
	for _, row := range Reconcile(rows, ft) {
		i, ok := index[row.Type]
		if !ok {
			i = len(totals.ByType)
			index[row.Type] = i
			totals.ByType = append(totals.ByType, domain.TypeTotal{Type: row.Type})
		}
		totals.ByType[i].Load += row.Load
		totals.GrandTotal += row.Load
	}
	return totals
}
