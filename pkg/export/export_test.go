package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recap() Dataset {
	return Dataset{
		Title:   "Attendance 10 IPA 1",
		Headers: []string{"Name", "Sick", "Permission", "Alpha", "Late"},
		Rows: [][]string{
			{"Ani", "1", "0", "0", "2"},
			{"Budi, Jr.", "0", "1", "0", "0"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(recap())
	require.NoError(t, err)
	assert.Equal(t, "Name,Sick,Permission,Alpha,Late\nAni,1,0,0,2\n\"Budi, Jr.\",0,1,0,0\n", string(out))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := recap()
	data.Rows = append(data.Rows, []string{"Citra"})
	for _, f := range []Format{FormatCSV, FormatXLSX, FormatPDF} {
		_, err := NewRenderer(f).Render(data)
		assert.Error(t, err, string(f))
	}
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(recap())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRoundTrip(t *testing.T) {
	out, err := NewXLSXExporter().Render(recap())
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(out))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Sick", "Permission", "Alpha", "Late"}, rows[0])
	assert.Equal(t, "Budi, Jr.", rows[2][0])
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	_, err := ReadRows(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "attendance_10_IPA_1.csv", Filename(FormatCSV, "attendance", "10", "IPA", "1"))
	assert.Equal(t, "recap-ab.xlsx", Filename(FormatXLSX, "recap a/b"))
	assert.Equal(t, "export.pdf", Filename(FormatPDF))
}
