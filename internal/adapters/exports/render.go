// Package exports renders row snapshots into downloadable artifacts, either
// synchronously or on a background worker that stores them in a blob store.
package exports

import (
	"fmt"
	"io"
	"strings"

	"occucalc/internal/adapters/reports"
	"occucalc/internal/adapters/sheets"
	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

// Format names an artifact kind.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatSummary  Format = "summary"
	FormatDetailed Format = "detailed"
	FormatChart    Format = "chart"
	FormatTemplate Format = "template"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatXLSX, FormatCSV, FormatSummary, FormatDetailed, FormatChart, FormatTemplate}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: export %q", domain.ErrUnsupportedFormat, s)
}

// FileName returns the default file name of f.
func (f Format) FileName() string {
	switch f {
	case FormatXLSX:
		return sheets.FileXLSX
	case FormatCSV:
		return sheets.FileCSV
	case FormatSummary:
		return reports.FileSummary
	case FormatDetailed:
		return reports.FileDetailed
	case FormatChart:
		return reports.FileChart
	case FormatTemplate:
		return sheets.FileTemplate
	}
	return string(f)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX, FormatTemplate:
		return sheets.ContentTypeXLSX
	case FormatCSV:
		return "text/csv"
	case FormatSummary, FormatDetailed:
		return reports.ContentTypePDF
	case FormatChart:
		return reports.ContentTypePNG
	}
	return "application/octet-stream"
}

// Data is the snapshot an export renders.
type Data = core.Contents

// Render writes format f of d to w.
func Render(w io.Writer, f Format, d Data) error {
	switch f {
	case FormatXLSX:
		return sheets.WriteXLSX(w, d.Rows, d.Factors)
	case FormatCSV:
		return sheets.WriteCSV(w, d.Rows, d.Factors)
	case FormatSummary:
		return reports.WriteSummary(w, d.Label, d.Rows, d.Factors)
	case FormatDetailed:
		return reports.WriteDetailed(w, d.Label, d.Rows, d.Factors)
	case FormatChart:
		return reports.WriteChart(w, d.Label, core.ComputeTotals(d.Rows, d.Factors))
	case FormatTemplate:
		return sheets.WriteTemplate(w)
	default:
		return fmt.Errorf("%w: export %q", domain.ErrUnsupportedFormat, f)
	}
}
