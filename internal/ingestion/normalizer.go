package ingestion

import (
	"strconv"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"
)

// Normalize coerces raw rows into report rows and attaches the validated
// shelter and report date. Rows missing description, value or version after
// coercion are dropped and counted, not treated as errors; an empty surviving
// set fails the whole request.
func Normalize(raw []RawRow, shelter string, dateOfRpt time.Time) ([]domain.ReportRow, int, error) {
	records := make([]domain.ReportRow, 0, len(raw))
	skipped := 0

	for _, row := range raw {
		value, valueOK := parseNumeric(row.Value)
		version, versionOK := parseNumeric(row.Version)
		if row.Description == "" || !valueOK || !versionOK {
			skipped++
			continue
		}
		records = append(records, domain.ReportRow{
			Description: row.Description,
			Value:       value,
			Version:     version,
			Shelter:     shelter,
			DateOfRpt:   dateOfRpt,
		})
	}

	if len(records) == 0 {
		return nil, skipped, domain.Validationf("all rows are invalid or missing required data")
	}

	return records, skipped, nil
}

// parseNumeric treats unparseable entries as missing rather than errors.
func parseNumeric(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
