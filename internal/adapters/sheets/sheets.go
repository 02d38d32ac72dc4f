// Package sheets converts row collections to and from spreadsheet files.
package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

// Output file names.
const (
	FileXLSX     = "occupancy_data.xlsx"
	FileCSV      = "occupancy_data.csv"
	FileTemplate = "OccuCalc_template.xlsx"
)

// Sheet names.
const (
	SheetOccupancy = "Occupancy"
	SheetTemplate  = "Template"
)

// Column headers, in export order.
const (
	HeaderNumber = "Room #"
	HeaderName   = "Room Name"
	HeaderArea   = "Area (m²)"
	HeaderType   = "Occupancy Type"
	HeaderLoad   = "Occupant Load"
)

// Format identifies a spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ContentTypeXLSX is the MIME type of xlsx output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxXLSRows bounds legacy workbook reads.
const maxXLSRows = 100000

var aliases = map[string]domain.Field{
	"room #":         domain.FieldNumber,
	"room number":    domain.FieldNumber,
	"room name":      domain.FieldName,
	"name":           domain.FieldName,
	"area (m²)":      domain.FieldArea,
	"area":           domain.FieldArea,
	"occupancy type": domain.FieldType,
	"type":           domain.FieldType,
}

// precedence lists the header that wins when a file carries both aliases.
var precedence = map[string]int{"room #": 0, "room number": 1, "room name": 0, "name": 1, "area (m²)": 0, "area": 1, "occupancy type": 0, "type": 1}

// DetectFormat picks the container from the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Import parses the first worksheet of a spreadsheet into upload rows. Types
// are normalized against ft and loads computed. Ids run 1..n.
func Import(r io.Reader, filename string, ft domain.FactorTable) ([]domain.Row, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImport, err)
	}
	table, err := ReadTable(r, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImport, err)
	}
	rows, err := ParseTable(table, ft)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImport, err)
	}
	return rows, nil
}

// ReadTable returns the cell text of the first worksheet.
func ReadTable(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer func() { _ = f.Close() }()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		return f.GetRows(sheet, excelize.Options{RawCellValue: true})
	case FormatXLS:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// readXLS reads the first sheet of a legacy workbook. The decoder panics on
// some corrupt files; those are reported as errors.
func readXLS(data []byte) (table [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("open xls: corrupt workbook: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}
	for i := 0; i <= int(sheet.MaxRow) && i < maxXLSRows; i++ {
		row := sheet.Row(i)
		if row == nil {
			table = append(table, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		table = append(table, cells)
	}
	return table, nil
}

// ParseTable maps a header row plus data rows onto rows. The header is the
// first non-blank row; names are matched trimmed and case-insensitively.
// A field whose column is absent gets its default; fully blank rows are skipped.
func ParseTable(table [][]string, ft domain.FactorTable) ([]domain.Row, error) {
	start := 0
	for start < len(table) && blank(table[start]) {
		start++
	}
	if start == len(table) {
		return nil, fmt.Errorf("missing header row")
	}
	columns := map[domain.Field]int{}
	rank := map[domain.Field]int{}
	for i, h := range table[start] {
		key := strings.ToLower(strings.TrimSpace(h))
		field, ok := aliases[key]
		if !ok {
			continue
		}
		if prev, seen := rank[field]; seen && prev <= precedence[key] {
			continue
		}
		columns[field] = i
		rank[field] = precedence[key]
	}

	types := core.TypeList(ft)
	rows := []domain.Row{}
	for _, cells := range table[start+1:] {
		if blank(cells) {
			continue
		}
		n := len(rows) + 1
		row := domain.Row{
			ID:     n,
			Number: valueOr(cells, columns, domain.FieldNumber, strconv.Itoa(n)),
			Name:   valueOr(cells, columns, domain.FieldName, fmt.Sprintf("Space %d", n)),
			Area:   valueOr(cells, columns, domain.FieldArea, ""),
			Type:   valueOr(cells, columns, domain.FieldType, ""),
		}
		row.Type = core.NormalizeType(row.Type, types)
		factor, _ := ft.Get(row.Type)
		row.Load = core.OccupantLoad(row.Area, factor)
		rows = append(rows, row)
	}
	return rows, nil
}

func valueOr(cells []string, columns map[domain.Field]int, f domain.Field, def string) string {
	i, ok := columns[f]
	if !ok {
		return def
	}
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes rows to a single `Occupancy` sheet with loads recomputed
// under ft. An area is stored as a number only when the number prints back
// as the same text.
func WriteXLSX(w io.Writer, rows []domain.Row, ft domain.FactorTable) error {
	table := [][]any{{HeaderNumber, HeaderName, HeaderArea, HeaderType, HeaderLoad}}
	for _, r := range core.Reconcile(rows, ft) {
		table = append(table, []any{r.Number, r.Name, areaCell(r.Area), r.Type, r.Load})
	}
	return writeBook(w, SheetOccupancy, table)
}

// WriteTemplate writes the example import workbook.
func WriteTemplate(w io.Writer) error {
	table := [][]any{
		{HeaderNumber, HeaderName, HeaderArea, HeaderType},
		{"101", "Open Office", 186, "Business/Office"},
		{"102", "Sales Floor", 140, "Retail / Mercantile – sales floor"},
		{"103", "Lab 1", 56, "Laboratory"},
	}
	return writeBook(w, SheetTemplate, table)
}

// WriteCSV writes the same five columns as WriteXLSX.
func WriteCSV(w io.Writer, rows []domain.Row, ft domain.FactorTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{HeaderNumber, HeaderName, HeaderArea, HeaderType, HeaderLoad}); err != nil {
		return err
	}
	for _, r := range core.Reconcile(rows, ft) {
		if err := cw.Write([]string{r.Number, r.Name, r.Area, r.Type, strconv.Itoa(r.Load)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeBook(w io.Writer, sheet string, table [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func areaCell(area string) any {
	v, err := strconv.ParseFloat(area, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || strconv.FormatFloat(v, 'f', -1, 64) != area {
		return area
	}
	return v
}
