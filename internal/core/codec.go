package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"occucalc/pkg/domain"
)

// Persisted state keys.
const (
	KeyOverrides  = "occuCalc.codeOverrides.v1"
	KeyManualRows = "occuCalc.data.manual.v1"
	KeyUploadRows = "occuCalc.data.upload.v1"
	KeyPrefs      = "occuCalc.ui.prefs.v1"
)

// RowsKey returns the state key holding mode's rows.
func RowsKey(mode domain.Mode) string {
	if mode == domain.ModeUpload {
		return KeyUploadRows
	}
	return KeyManualRows
}

// text decodes a JSON string, number, bool or null into its textual form.
// Spreadsheet imports store numeric cells as numbers.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*t = text(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected scalar, got %s", b)
		}
		*t = text(n.String())
	}
	return nil
}

type manualRow struct {
	ID       int  `json:"id"`
	Selected bool `json:"sel"`
	Number   text `json:"number"`
	Name     text `json:"name"`
	Area     text `json:"area"`
	Type     text `json:"type"`
}

type uploadRow struct {
	ID       int  `json:"id"`
	Selected bool `json:"sel"`
	Number   text `json:"Room #"`
	Name     text `json:"Room Name"`
	Area     text `json:"Area (m²)"`
	Type     text `json:"Occupancy Type"`
	Load     int  `json:"Occupant Load"`
}

// EncodeRows serializes rows in the shape persisted for mode.
func EncodeRows(mode domain.Mode, rows []domain.Row) ([]byte, error) {
	if mode == domain.ModeUpload {
		out := make([]uploadRow, len(rows))
		for i, r := range rows {
			out[i] = uploadRow{ID: r.ID, Selected: r.Selected, Number: text(r.Number), Name: text(r.Name), Area: text(r.Area), Type: text(r.Type), Load: r.Load}
		}
		return json.Marshal(out)
	}
	out := make([]manualRow, len(rows))
	for i, r := range rows {
		out[i] = manualRow{ID: r.ID, Selected: r.Selected, Number: text(r.Number), Name: text(r.Name), Area: text(r.Area), Type: text(r.Type)}
	}
	return json.Marshal(out)
}

// DecodeRows parses a persisted row array for mode. Missing or duplicate ids
// are reassigned after the largest valid one.
func DecodeRows(mode domain.Mode, data []byte) ([]domain.Row, error) {
	var rows []domain.Row
	if mode == domain.ModeUpload {
		var in []uploadRow
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s rows: %w", mode, err)
		}
		rows = make([]domain.Row, len(in))
		for i, r := range in {
			rows[i] = domain.Row{ID: r.ID, Selected: r.Selected, Number: string(r.Number), Name: string(r.Name), Area: string(r.Area), Type: string(r.Type), Load: r.Load}
		}
	} else {
		var in []manualRow
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode %s rows: %w", mode, err)
		}
		rows = make([]domain.Row, len(in))
		for i, r := range in {
			rows[i] = domain.Row{ID: r.ID, Selected: r.Selected, Number: string(r.Number), Name: string(r.Name), Area: string(r.Area), Type: string(r.Type)}
		}
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	return fixIDs(rows), nil
}

func fixIDs(rows []domain.Row) []domain.Row {
	seen := make(map[int]bool, len(rows))
	maxID := 0
	for _, r := range rows {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	for i := range rows {
		if rows[i].ID <= 0 || seen[rows[i].ID] {
			maxID++
			rows[i].ID = maxID
		}
		seen[rows[i].ID] = true
	}
	return rows
}

// EncodeOverrides serializes the override map.
func EncodeOverrides(o Overrides) ([]byte, error) {
	if o == nil {
		o = Overrides{}
	}
	return json.Marshal(map[string]domain.FactorTable(o))
}

// DecodeOverrides parses a persisted override map.
func DecodeOverrides(data []byte) (Overrides, error) {
	var m map[string]domain.FactorTable
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	if m == nil {
		m = map[string]domain.FactorTable{}
	}
	return Overrides(m), nil
}

// EncodePrefs serializes preferences.
func EncodePrefs(p domain.Preferences) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePrefs parses persisted preferences. Empty fields keep the values of
// def, matching a partially written record.
func DecodePrefs(data []byte, def domain.Preferences) (domain.Preferences, error) {
	var in domain.Preferences
	if err := json.Unmarshal(data, &in); err != nil {
		return def, fmt.Errorf("decode prefs: %w", err)
	}
	out := def
	if in.Mode.Valid() {
		out.Mode = in.Mode
	}
	if in.CodeID != "" {
		out.CodeID = in.CodeID
	}
	if in.FilterType != "" {
		out.FilterType = in.FilterType
	}
	return out, nil
}
