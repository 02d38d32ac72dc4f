package reports

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"occucalc/pkg/domain"
)

const (
	chartWidth  = 800
	chartBar    = 28
	chartGap    = 12
	chartHeader = 60
	chartLabelW = 300
)

var (
	chartBackground = color.White
	chartInk        = color.RGBA{R: 33, G: 33, B: 33, A: 255}
	chartFill       = color.RGBA{R: 0, G: 102, B: 204, A: 255}
)

// WriteChart draws a horizontal bar per occupancy type scaled to the largest
// load and encodes it as PNG.
func WriteChart(w io.Writer, label string, totals domain.Totals) error {
	n := len(totals.ByType)
	height := chartHeader + n*(chartBar+chartGap) + chartGap
	dc := gg.NewContext(chartWidth, height)
	dc.SetColor(chartBackground)
	dc.Clear()

	dc.SetColor(chartInk)
	dc.DrawString("Occupancy by type: "+label, 20, 24)
	dc.DrawString(fmt.Sprintf("Grand Total: %d occupants", totals.GrandTotal), 20, 44)

	maxLoad := 0
	for _, t := range totals.ByType {
		if t.Load > maxLoad {
			maxLoad = t.Load
		}
	}
	span := float64(chartWidth - chartLabelW - 80)
	for i, t := range totals.ByType {
		y := float64(chartHeader + i*(chartBar+chartGap))
		dc.SetColor(chartInk)
		dc.DrawStringAnchored(t.Type, chartLabelW-10, y+chartBar/2, 1, 0.5)
		length := 0.0
		if maxLoad > 0 {
			length = span * float64(t.Load) / float64(maxLoad)
		}
		dc.SetColor(chartFill)
		dc.DrawRectangle(chartLabelW, y, length, chartBar)
		dc.Fill()
		dc.SetColor(chartInk)
		dc.DrawStringAnchored(fmt.Sprintf("%d", t.Load), chartLabelW+length+8, y+chartBar/2, 0, 0.5)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
