package export

import (
	"fmt"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"

	"github.com/xuri/excelize/v2"
)

// File is a generated spreadsheet ready to stream to the client.
type File struct {
	Name    string
	Content []byte
}

// XLSXContentType is the MIME type for generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BuildWorkbook serializes a row set into a single-sheet workbook, preserving
// column and row order. Date and time values render as YYYY-MM-DD text. The
// builder is a pure serializer; filtering happens upstream.
func BuildWorkbook(sheetName string, rowSet domain.RowSet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(rowSet.Columns))
	for i, col := range rowSet.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for rowIdx, row := range rowSet.Rows {
		cells := make([]any, len(row))
		for i, value := range row {
			cells[i] = renderValue(value)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", rowIdx+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns the deterministic attachment name embedding the source
// table and a timestamp.
func FileName(table string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", table, now.UTC().Format("20060102-150405"))
}

func renderValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(domain.ReportDateLayout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(domain.ReportDateLayout)
	default:
		return value
	}
}
