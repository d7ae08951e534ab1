package xlsxexport_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"orderparse/internal/domain"
	"orderparse/internal/xlsxexport"
)

func TestWriteSummary(t *testing.T) {
	summary := &domain.BatchSummary{
		RunID: "run",
		Entries: []domain.BatchEntry{
			{
				File:              "order_01.txt",
				OutputFile:        "order_01.json",
				Path:              domain.PathLLMFallback,
				OrderID:           "WW-881",
				Customer:          "Widget Works",
				LineItemCount:     3,
				OverallConfidence: 0.88,
				ProcessingTime:    2 * time.Second,
			},
		},
	}
	var buf bytes.Buffer

	require.NoError(t, xlsxexport.WriteSummary(&buf, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsxexport.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, "order_01.txt", rows[1][0])
	assert.Equal(t, "llm-fallback", rows[1][2])
	assert.Equal(t, "WW-881", rows[1][3])
	assert.Equal(t, "3", rows[1][5])
	assert.Equal(t, "2000", rows[1][7])
}
