// Package reports renders occupancy totals as PDF reports and a PNG chart.
package reports

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

// Output file names.
const (
	FileSummary  = "occupancy_summary.pdf"
	FileDetailed = "occupancy_detailed.pdf"
	FileChart    = "occupancy_chart.png"
)

// Content types.
const (
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"
)

// Page layout in points on A4.
const (
	marginX     = 40.0
	top         = 64.0
	pageBreakY  = 760.0
	ruleEndX    = 520.0
	titleSize   = 18.0
	titleStep   = 24.0
	summaryStep = 16.0
	detailStep  = 14.0
	headerStep  = 12.0
)

var detailColumns = []struct {
	title string
	x     float64
}{
	{"Room #", 40},
	{"Room Name", 110},
	{"Area (m²)", 280},
	{"Type", 360},
	{"Load", 460},
}

type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument() *document {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) text(size, x, y float64, s string) {
	d.pdf.SetFont("Helvetica", "", size)
	d.pdf.Text(x, y, d.tr(s))
}

func (d *document) write(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WriteSummary renders one line per occupancy type and a grand total.
func WriteSummary(w io.Writer, label string, rows []domain.Row, ft domain.FactorTable) error {
	totals := core.ComputeTotals(rows, ft)
	d := newDocument()
	y := top
	d.text(titleSize, marginX, y, "Occupancy Summary – "+label)
	y += titleStep
	for _, t := range totals.ByType {
		d.text(12, marginX, y, fmt.Sprintf("%s: %d occupants", t.Type, t.Load))
		y += summaryStep
	}
	y += 10
	d.text(14, marginX, y, fmt.Sprintf("Grand Total: %d occupants", totals.GrandTotal))
	return d.write(w)
}

// WriteDetailed renders a row-per-room table, starting a new page once the
// cursor passes the bottom margin.
func WriteDetailed(w io.Writer, label string, rows []domain.Row, ft domain.FactorTable) error {
	rows = core.Reconcile(rows, ft)
	d := newDocument()
	y := top
	d.text(titleSize, marginX, y, "Occupancy Detailed Report – "+label)
	y += titleStep
	for _, c := range detailColumns {
		d.text(10, c.x, y, c.title)
	}
	y += headerStep
	d.pdf.Line(marginX, y, ruleEndX, y)
	y += headerStep

	grand := 0
	for _, r := range rows {
		if y > pageBreakY {
			d.pdf.AddPage()
			y = top
		}
		cells := []string{r.Number, r.Name, r.Area, r.Type, strconv.Itoa(r.Load)}
		for i, c := range detailColumns {
			d.text(10, c.x, y, cells[i])
		}
		grand += r.Load
		y += detailStep
	}
	y += headerStep
	d.text(12, marginX, y, fmt.Sprintf("Grand Total: %d occupants", grand))
	return d.write(w)
}
