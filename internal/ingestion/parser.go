package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ccsdpt/hisweb/internal/domain"

	"github.com/xuri/excelize/v2"
)

// RawRow is one data row read from the tally sheet before normalization.
type RawRow struct {
	Description string
	Value       string
	Version     string
}

// ParseTallySheet reads the uploaded workbook with the fixed sheet/column
// contract: the named sheet, first row skipped, columns B, C and D carrying
// description, value and version.
func ParseTallySheet(payload []byte, sheetName string) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, domain.Validationf("could not open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	index, err := f.GetSheetIndex(sheetName)
	if err != nil || index < 0 {
		return nil, domain.Validationf("workbook has no sheet named %q", sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}
	if len(rows) <= 1 {
		return nil, domain.Validationf("no data found in sheet %q", sheetName)
	}

	var parsed []RawRow
	for _, row := range rows[1:] {
		raw := RawRow{
			Description: cellAt(row, 1),
			Value:       cellAt(row, 2),
			Version:     cellAt(row, 3),
		}
		if raw.Description == "" && raw.Value == "" && raw.Version == "" {
			continue
		}
		parsed = append(parsed, raw)
	}
	if len(parsed) == 0 {
		return nil, domain.Validationf("no data found in sheet %q", sheetName)
	}

	return parsed, nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
