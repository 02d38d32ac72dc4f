package core

import (
	"strconv"

	"occucalc/pkg/domain"
)

// Collection is one mode's row set. Every mutation takes the resolved factor
// table so the rows it touches leave with a normalized type and a fresh load.
type Collection struct {
	mode domain.Mode
	rows []domain.Row
}

// NewCollection wraps rows for mode. A nil slice starts the mode's default.
func NewCollection(mode domain.Mode, rows []domain.Row, ft domain.FactorTable) *Collection {
	c := &Collection{mode: mode}
	if rows == nil {
		c.rows = defaultRows(mode, ft)
	} else {
		c.rows = Reconcile(rows, ft)
	}
	return c
}

func defaultRows(mode domain.Mode, ft domain.FactorTable) []domain.Row {
	if mode != domain.ModeManual {
		return []domain.Row{}
	}
	seed := domain.Row{ID: 1, Number: "1", Name: "Space 1", Type: "Retail"}
	return Reconcile([]domain.Row{seed}, ft)
}

// Mode returns the collection's input mode.
func (c *Collection) Mode() domain.Mode { return c.mode }

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.rows) }

// Rows returns a copy of the rows in stored order.
func (c *Collection) Rows() []domain.Row {
	out := make([]domain.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Row returns the row with id.
func (c *Collection) Row(id int) (domain.Row, bool) {
	if i := c.index(id); i >= 0 {
		return c.rows[i], true
	}
	return domain.Row{}, false
}

// SelectedCount counts rows with the selection flag set.
func (c *Collection) SelectedCount() int {
	n := 0
	for _, r := range c.rows {
		if r.Selected {
			n++
		}
	}
	return n
}

func (c *Collection) index(id int) int {
	for i, r := range c.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) nextID() int {
	maxID := 0
	for _, r := range c.rows {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// Reconcile re-derives every row against ft.
func (c *Collection) Reconcile(ft domain.FactorTable) {
	c.rows = Reconcile(c.rows, ft)
}

// Replace swaps in a new row set, deriving it against ft.
func (c *Collection) Replace(rows []domain.Row, ft domain.FactorTable) {
	c.rows = Reconcile(rows, ft)
}

// AddRows appends n blank rows of the first type.
func (c *Collection) AddRows(n int, ft domain.FactorTable) bool {
	if n < 1 {
		return false
	}
	types := TypeList(ft)
	first := ""
	if len(types) > 0 {
		first = types[0]
	}
	id := c.nextID()
	for i := 0; i < n; i++ {
		row := domain.Row{ID: id, Number: strconv.Itoa(id), Name: "Space " + strconv.Itoa(id), Type: first}
		c.rows = append(c.rows, derive(row, ft, types))
		id++
	}
	return true
}

// AddOnePerType appends one row for each type, named after it.
func (c *Collection) AddOnePerType(ft domain.FactorTable) bool {
	types := TypeList(ft)
	if len(types) == 0 {
		return false
	}
	id := c.nextID()
	for _, typ := range types {
		row := domain.Row{ID: id, Number: strconv.Itoa(id), Name: typ, Type: typ}
		c.rows = append(c.rows, derive(row, ft, types))
		id++
	}
	return true
}

// UpdateField sets one attribute of the row with id.
func (c *Collection) UpdateField(id int, field domain.Field, value string, ft domain.FactorTable) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	row := c.rows[i]
	switch field {
	case domain.FieldNumber:
		row.Number = value
	case domain.FieldName:
		row.Name = value
	case domain.FieldArea:
		row.Area = value
	case domain.FieldType:
		row.Type = value
	default:
		return false
	}
	c.rows[i] = derive(row, ft, TypeList(ft))
	return true
}

// RemoveRow deletes the row with id.
func (c *Collection) RemoveRow(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.rows = append(c.rows[:i:i], c.rows[i+1:]...)
	return true
}

// Clear restores the mode default: one seed row for manual, none for upload.
func (c *Collection) Clear(ft domain.FactorTable) {
	c.rows = defaultRows(c.mode, ft)
}

// SetSelected sets the selection flag of one row.
func (c *Collection) SetSelected(id int, selected bool) bool {
	i := c.index(id)
	if i < 0 || c.rows[i].Selected == selected {
		return false
	}
	c.rows[i].Selected = selected
	return true
}

// SetSelectionAll sets the selection flag on every row.
func (c *Collection) SetSelectionAll(selected bool) bool {
	changed := false
	for i := range c.rows {
		if c.rows[i].Selected != selected {
			c.rows[i].Selected = selected
			changed = true
		}
	}
	return changed
}

// ApplyTypeToSelected assigns the normalized type to every selected row.
func (c *Collection) ApplyTypeToSelected(typ string, ft domain.FactorTable) bool {
	if typ == "" {
		return false
	}
	types := TypeList(ft)
	typ = NormalizeType(typ, types)
	changed := false
	for i, r := range c.rows {
		if !r.Selected {
			continue
		}
		r.Type = typ
		c.rows[i] = derive(r, ft, types)
		changed = true
	}
	return changed
}

// DuplicateSelected appends an unselected copy of every selected row with a
// fresh id. Manual copies take the new id as their number.
func (c *Collection) DuplicateSelected() bool {
	id := c.nextID()
	var dups []domain.Row
	for _, r := range c.rows {
		if !r.Selected {
			continue
		}
		r.ID = id
		r.Selected = false
		if c.mode == domain.ModeManual {
			r.Number = strconv.Itoa(id)
		}
		dups = append(dups, r)
		id++
	}
	if len(dups) == 0 {
		return false
	}
	c.rows = append(c.rows, dups...)
	return true
}

// DeleteSelected removes every selected row.
func (c *Collection) DeleteSelected() bool {
	kept := make([]domain.Row, 0, len(c.rows))
	for _, r := range c.rows {
		if !r.Selected {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(c.rows) {
		return false
	}
	c.rows = kept
	return true
}
