package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"orderparse/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns is the batch summary header row, shared with the XLSX export.
var Columns = []string{
	"File",
	"Output File",
	"Parser Used",
	"Order ID",
	"Customer",
	"Line Item Count",
	"Confidence",
	"Processing Time (ms)",
	"Error",
}

// Writer wraps csv.Writer for exporting batch summaries as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteEntries converts batch entries to CSV rows and writes them.
func (w *Writer) WriteEntries(entries []domain.BatchEntry) error {
	for i := range entries {
		if err := w.csv.Write(EntryRow(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteSummary writes the BOM, the header and every entry of summary to out.
func WriteSummary(out io.Writer, summary *domain.BatchSummary) error {
	if _, err := out.Write(BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteEntries(summary.Entries); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// EntryRow converts a single entry to a row aligned with Columns.
func EntryRow(e *domain.BatchEntry) []string {
	row := make([]string, len(Columns))
	row[0] = e.File
	row[1] = e.OutputFile
	row[2] = string(e.Path)
	row[3] = e.OrderID
	row[4] = e.Customer
	row[5] = strconv.Itoa(e.LineItemCount)
	row[6] = FormatConfidence(e.OverallConfidence)
	row[7] = strconv.FormatInt(e.ProcessingTime.Milliseconds(), 10)
	row[8] = e.Error
	return row
}

// FormatConfidence renders a confidence with three decimals.
func FormatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the summary file name for a run: batch_{run_id}.{ext}.
func BuildFilename(runID, ext string) string {
	return fmt.Sprintf("batch_%s.%s", SanitizeFilename(runID), ext)
}
