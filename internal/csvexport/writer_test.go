package csvexport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, len(Columns))
	assert.Equal(t, "File", row[0])
	assert.Equal(t, "Error", row[len(row)-1])
}

func TestEntryRow(t *testing.T) {
	e := domain.BatchEntry{
		File:              "order_01.txt",
		OutputFile:        "order_01.json",
		Path:              domain.PathRegexNER,
		OrderID:           "PO-12345",
		Customer:          "Acme, Inc",
		LineItemCount:     2,
		OverallConfidence: 0.81234,
		ProcessingTime:    1500 * time.Millisecond,
	}

	row := EntryRow(&e)

	assert.Equal(t, []string{
		"order_01.txt", "order_01.json", "regex+ner", "PO-12345", "Acme, Inc", "2", "0.812", "1500", "",
	}, row)
}

func TestWriteSummary(t *testing.T) {
	summary := &domain.BatchSummary{
		RunID: "01J0000000000000000000000",
		Entries: []domain.BatchEntry{
			{File: "a.txt", Path: domain.PathRegex, OrderID: "PO-1", LineItemCount: 1, OverallConfidence: 0.9},
			{File: "b.bin", Error: "unsupported content type application/octet-stream"},
		},
	}
	var buf bytes.Buffer

	require.NoError(t, WriteSummary(&buf, summary))

	require.True(t, bytes.HasPrefix(buf.Bytes(), BOM))
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "PO-1", rows[1][3])
	assert.True(t, strings.HasPrefix(rows[2][8], "unsupported"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"with spaces/and:colons", "with_spaces_and_colons"},
		{"__trim__", "trim"},
		{"a!!!b", "a_b"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "batch_01HZX.csv", BuildFilename("01HZX", "csv"))
	assert.Equal(t, "batch_run_1.xlsx", BuildFilename("run 1", "xlsx"))
}
