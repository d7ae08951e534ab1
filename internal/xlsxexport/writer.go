// Package xlsxexport writes batch summaries as Excel workbooks.
package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"orderparse/internal/csvexport"
	"orderparse/internal/domain"
)

// SheetName is the worksheet holding the batch rows.
const SheetName = "Batch"

// WriteSummary writes summary as a single-sheet workbook to out.
func WriteSummary(out io.Writer, summary *domain.BatchSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range csvexport.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for r, e := range summary.Entries {
		values := []any{
			e.File,
			e.OutputFile,
			string(e.Path),
			e.OrderID,
			e.Customer,
			e.LineItemCount,
			e.OverallConfidence,
			e.ProcessingTime.Milliseconds(),
			e.Error,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", r+2, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 28)
	_ = f.SetColWidth(SheetName, "E", "E", 30)
	_ = f.SetColWidth(SheetName, "I", "I", 40)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
