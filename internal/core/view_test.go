package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"occucalc/pkg/domain"
)

func viewRows() []domain.Row {
	return []domain.Row{
		{ID: 1, Number: "3", Name: "Café Ärger", Area: "10", Type: "Retail"},
		{ID: 2, Number: "1", Name: "Kitchen", Area: "100", Type: "Restaurant"},
		{ID: 3, Number: "2", Name: "Store", Area: "9", Type: "Retail"},
		{ID: 4, Number: "10", Name: "Plant", Area: "x", Type: "Mechanical"},
	}
}

func ids(rows []domain.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestViewFilterThenSearch(t *testing.T) {
	ft := genericTable()
	rows := viewRows()

	q := ViewQuery{FilterType: "Retail", Sort: DefaultSorter()}
	assert.Equal(t, []int{3, 1}, ids(View(rows, ft, q)))

	q.Search = "kitchen"
	assert.Empty(t, View(rows, ft, q))

	q = ViewQuery{Sort: DefaultSorter()}
	assert.Equal(t, []int{2, 4, 3, 1}, ids(View(rows, ft, q)))
	q.FilterType = domain.FilterAll
	assert.Len(t, View(rows, ft, q), 4)
}

func TestViewSearchFoldsCase(t *testing.T) {
	ft := genericTable()
	q := ViewQuery{Search: "ÄRGER", Sort: DefaultSorter()}
	assert.Equal(t, []int{1}, ids(View(viewRows(), ft, q)))

	q.Search = "1"
	assert.Equal(t, []int{2, 4}, ids(View(viewRows(), ft, q)))

	q.Search = "   "
	assert.Len(t, View(viewRows(), ft, q), 4)
}

func TestViewNumericSortTreatsGarbageAsZero(t *testing.T) {
	ft := genericTable()
	q := ViewQuery{Sort: Sorter{Key: domain.SortArea, Dir: domain.SortAsc}}
	assert.Equal(t, []int{4, 3, 1, 2}, ids(View(viewRows(), ft, q)))

	q.Sort.Dir = domain.SortDesc
	assert.Equal(t, []int{2, 1, 3, 4}, ids(View(viewRows(), ft, q)))

	q.Sort = Sorter{Key: domain.SortLoad, Dir: domain.SortDesc}
	got := View(viewRows(), ft, q)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 72, got[0].Load)
}

func TestViewSortIsStable(t *testing.T) {
	ft := genericTable()
	q := ViewQuery{Sort: Sorter{Key: domain.SortType, Dir: domain.SortAsc}}
	assert.Equal(t, []int{4, 1, 3, 2}, ids(View(viewRows(), ft, q)))
	q.Sort.Dir = domain.SortDesc
	assert.Equal(t, []int{2, 1, 3, 4}, ids(View(viewRows(), ft, q)))
}

func TestSorterToggle(t *testing.T) {
	s := DefaultSorter()
	s.Toggle(domain.SortNumber)
	assert.Equal(t, domain.SortDesc, s.Dir)
	s.Toggle(domain.SortNumber)
	assert.Equal(t, Sorter{Key: domain.SortNumber, Dir: domain.SortAsc}, s)

	s.Toggle(domain.SortNumber)
	s.Toggle(domain.SortLoad)
	assert.Equal(t, Sorter{Key: domain.SortLoad, Dir: domain.SortAsc}, s)
}

func TestViewDoesNotMutateInput(t *testing.T) {
	rows := viewRows()
	View(rows, genericTable(), ViewQuery{Sort: Sorter{Key: domain.SortName, Dir: domain.SortDesc}})
	assert.Equal(t, viewRows(), rows)
}
