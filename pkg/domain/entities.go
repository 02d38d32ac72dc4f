// Package domain defines the value types shared by the occupancy engine,
// its persistence backends and its adapters.
package domain

import "strings"

// Mode identifies which row collection is active.
type Mode string

// Supported input modes.
const (
	// ModeManual is the hand-typed collection.
	ModeManual Mode = "manual"
	// ModeUpload is the spreadsheet-imported collection.
	ModeUpload Mode = "upload"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	return m == ModeManual || m == ModeUpload
}

// ParseMode converts free text into a Mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// FilterAll is the type filter sentinel that passes every row.
const FilterAll = "All"

// CodeSet is an immutable building-code preset.
type CodeSet struct {
	ID      string      `json:"id"`
	Label   string      `json:"label"`
	Factors FactorTable `json:"factors"`
}

// Row is one occupiable space. Area is kept as typed so blank or partially
// entered values survive editing; Load is a cache recomputed from the active
// factor table and is never read back as a source of truth.
type Row struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	Type     string `json:"type"`
	Selected bool   `json:"sel"`
	Load     int    `json:"load"`
}

// Field names an editable Row attribute.
type Field string

// Editable row fields.
const (
	FieldNumber Field = "number"
	FieldName   Field = "name"
	FieldArea   Field = "area"
	FieldType   Field = "type"
)

// ParseField accepts canonical field names and the spreadsheet column headers.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "room #", "room number":
		return FieldNumber, true
	case "name", "room name":
		return FieldName, true
	case "area", "area (m²)":
		return FieldArea, true
	case "type", "occupancy type":
		return FieldType, true
	default:
		return "", false
	}
}

// SortKey selects the column a view is ordered by.
type SortKey string

// Sortable columns.
const (
	SortNumber SortKey = "number"
	SortName   SortKey = "name"
	SortArea   SortKey = "area"
	SortType   SortKey = "type"
	SortLoad   SortKey = "load"
)

// ParseSortKey validates a sort key.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case SortNumber, SortName, SortArea, SortType, SortLoad:
		return k, true
	}
	return "", false
}

// Numeric reports whether the column compares numerically.
func (k SortKey) Numeric() bool {
	return k == SortArea || k == SortLoad
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Preferences is the small UI record kept for session continuity.
type Preferences struct {
	Mode       Mode   `json:"mode"`
	CodeID     string `json:"codeId"`
	FilterType string `json:"filterType"`
}

// TypeTotal is the occupant load summed for one occupancy type.
type TypeTotal struct {
	Type string `json:"type"`
	Load int    `json:"load"`
}

// Totals groups occupant load by type in first-appearance order.
type Totals struct {
	ByType     []TypeTotal `json:"by_type"`
	GrandTotal int         `json:"grand_total"`
}
