package domain

import (
	"errors"
	"strings"
	"time"
)

// ReportColumns is the canonical column order for persisted tally rows. Inserts
// and archived workbook copies both follow this order.
var ReportColumns = []string{"Description", "Value", "Version", "Shelter", "DateOfRpt"}

// ReportDateLayout is the textual form report dates take in requests, archived
// workbooks and generated exports.
const ReportDateLayout = "2006-01-02"

var reportDateLayouts = []string{
	ReportDateLayout,
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// ReportRow is one normalized tally row ready for persistence. All five fields
// are populated; rows that fail normalization never become a ReportRow.
type ReportRow struct {
	Description string
	Value       float64
	Version     float64
	Shelter     string
	DateOfRpt   time.Time
}

// ExportFilter selects rows by shelter and calendar report date. Both axes are
// required and combined with AND.
type ExportFilter struct {
	Shelters []string
	Dates    []time.Time
}

// RowSet is a generic tabular result. Export sources are not fixed to the five
// upload columns, so values stay untyped.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// Append concatenates another row set with the same column layout.
func (rs *RowSet) Append(other RowSet) {
	rs.Rows = append(rs.Rows, other.Rows...)
}

// ParseReportDate parses a report date string, trying the canonical layout
// first. Time of day is discarded.
func ParseReportDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("date is empty")
	}
	for _, layout := range reportDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format, expected YYYY-MM-DD")
}

// SameReportDate compares two timestamps by calendar date only.
func SameReportDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
