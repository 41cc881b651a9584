package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers:    []string{"Coach", "Amount (paise)"},
		Rows:       []map[string]string{{"Coach": "coach-1", "Amount (paise)": "1000"}},
		RightAlign: []string{"Amount (paise)"},
	}
}

func TestPDFRenderAlignedAmountColumn(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Withholding Q1")
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}

func TestCSVRenderKeepsColumnOrder(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Coach,Amount (paise)", lines[0])
	assert.Equal(t, "coach-1,1000", lines[1])
}
