package repository

import (
	"context"

	"github.com/ccsdpt/hisweb/internal/domain"
)

// ReportRepository defines the interface for tally row persistence
type ReportRepository interface {
	// Insert writes records into table in the canonical five-column order,
	// all in one transaction. Returns the number of rows written.
	Insert(ctx context.Context, table string, records []domain.ReportRow) (int64, error)

	// Select returns all columns of table for rows matching the filter. Both
	// filter axes are combined with AND; each axis is an IN-style membership
	// test.
	Select(ctx context.Context, table string, filter domain.ExportFilter) (domain.RowSet, error)
}
