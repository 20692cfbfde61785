package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"title", "status"},
		Rows: []map[string]string{
			{"title": "Quiz, week 1", "status": "Pending"},
			{"title": "Essay"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "assessments.pdf", f.Filename("assessments"))

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "title,status\n\"Quiz, week 1\",Pending\nEssay,\n", string(out))
}

func TestRendererRejectsEmptyHeaders(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(FormatCSV, Dataset{}, "")
	assert.Error(t, err)
	_, err = r.Render(FormatPDF, Dataset{}, "")
	assert.Error(t, err)
}

func TestRendererPDF(t *testing.T) {
	out, err := NewRenderer().Render(FormatPDF, sampleDataset(), "Assessments")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
