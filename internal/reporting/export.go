package reporting

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Calls"

var exportHeader = []any{
	"Timestamp", "Caller", "Duration (s)", "Minutes Billed", "Cost (USD)", "Label", "Call ID",
}

// ExportXLSX writes the account's call log for the range as a spreadsheet.
// Rows come back newest-first, matching the dashboard list.
func (s *Service) ExportXLSX(ctx context.Context, w io.Writer, req SummaryRequest) error {
	rows, err := s.list(ctx, req)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("reporting: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("reporting: write header: %w", err)
	}

	for i, c := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("reporting: row %d: %w", i, err)
		}
		var ts string
		if !c.Timestamp.IsZero() {
			ts = c.Timestamp.UTC().Format(time.RFC3339)
		}
		row := []any{
			ts,
			c.CallerNumber,
			c.DurationSeconds,
			c.MinutesBilled,
			c.Cost,
			string(c.Label),
			c.VendorCallID,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("reporting: write row %d: %w", i, err)
		}
	}

	// Widen the timestamp and id columns so exports open readable.
	_ = f.SetColWidth(exportSheet, "A", "A", 22)
	_ = f.SetColWidth(exportSheet, "B", "B", 16)
	_ = f.SetColWidth(exportSheet, "G", "G", 38)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("reporting: write workbook: %w", err)
	}
	return nil
}
