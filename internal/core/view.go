package core

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"occucalc/pkg/domain"
)

// Sorter tracks the active sort column and direction.
type Sorter struct {
	Key domain.SortKey       `json:"key"`
	Dir domain.SortDirection `json:"dir"`
}

// DefaultSorter orders by room number ascending.
func DefaultSorter() Sorter {
	return Sorter{Key: domain.SortNumber, Dir: domain.SortAsc}
}

// Toggle flips the direction when key is already active, otherwise selects
// key ascending.
func (s *Sorter) Toggle(key domain.SortKey) {
	if s.Key != key {
		s.Key = key
		s.Dir = domain.SortAsc
		return
	}
	if s.Dir == domain.SortAsc {
		s.Dir = domain.SortDesc
	} else {
		s.Dir = domain.SortAsc
	}
}

// ViewQuery carries every input of a projection besides the rows.
type ViewQuery struct {
	FilterType string
	Search     string
	Sort       Sorter
}

// View derives the displayed sequence: recompute, type filter, search on
// number and name, then a stable sort. The input rows are not modified.
func View(rows []domain.Row, ft domain.FactorTable, q ViewQuery) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	fold := cases.Fold()
	needle := ""
	if strings.TrimSpace(q.Search) != "" {
		needle = fold.String(q.Search)
	}
	for _, r := range Reconcile(rows, ft) {
		if q.FilterType != "" && q.FilterType != domain.FilterAll && r.Type != q.FilterType {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(r.Number), needle) &&
			!strings.Contains(fold.String(r.Name), needle) {
			continue
		}
		out = append(out, r)
	}

	key := q.Sort.Key
	if _, ok := domain.ParseSortKey(string(key)); !ok {
		key = domain.SortNumber
	}
	desc := q.Sort.Dir == domain.SortDesc
	slices.SortStableFunc(out, func(a, b domain.Row) int {
		c := compareRows(a, b, key)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compareRows(a, b domain.Row, key domain.SortKey) int {
	switch key {
	case domain.SortName:
		return strings.Compare(a.Name, b.Name)
	case domain.SortType:
		return strings.Compare(a.Type, b.Type)
	case domain.SortArea:
		return cmp.Compare(ParseArea(a.Area), ParseArea(b.Area))
	case domain.SortLoad:
		return cmp.Compare(a.Load, b.Load)
	default:
		return strings.Compare(a.Number, b.Number)
	}
}
