package reports

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

func generic() domain.FactorTable { return core.DefaultRegistry().Base(core.CodeGeneric) }

func plainText(t *testing.T, data []byte) (string, int) {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	plain, err := r.GetPlainText()
	require.NoError(t, err)
	b, err := io.ReadAll(plain)
	require.NoError(t, err)
	return string(b), r.NumPage()
}

func sampleRows() []domain.Row {
	return []domain.Row{
		{ID: 1, Number: "101", Name: "Shop", Area: "28", Type: "Retail"},
		{ID: 2, Number: "102", Name: "Cafe", Area: "14", Type: "Restaurant"},
		{ID: 3, Number: "103", Name: "Shop 2", Area: "2.8", Type: "Retail"},
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, "Generic (edit as needed)", sampleRows(), generic()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	text, pages := plainText(t, buf.Bytes())
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Generic (edit as needed)")
	assert.Contains(t, text, "Retail: 11 occupants")
	assert.Contains(t, text, "Restaurant: 10 occupants")
	assert.Contains(t, text, "Grand Total: 21 occupants")
}

func TestWriteDetailedPaginates(t *testing.T) {
	rows := make([]domain.Row, 0, 60)
	for i := 1; i <= 60; i++ {
		rows = append(rows, domain.Row{ID: i, Number: fmt.Sprint(i), Name: fmt.Sprintf("Room %d", i), Area: "28", Type: "Mechanical"})
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, "Generic (edit as needed)", rows, generic()))

	text, pages := plainText(t, buf.Bytes())
	assert.Equal(t, 2, pages)
	assert.Contains(t, text, "Room Name")
	assert.Contains(t, text, "Room 60")
	assert.Contains(t, text, "Grand Total: 60 occupants")
}

func TestWriteDetailedEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, "x", nil, generic()))
	text, pages := plainText(t, buf.Bytes())
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Grand Total: 0 occupants")
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	totals := core.ComputeTotals(sampleRows(), generic())
	require.NoError(t, WriteChart(&buf, "Generic", totals))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
	assert.Equal(t, chartHeader+2*(chartBar+chartGap)+chartGap, img.Bounds().Dy())
}
