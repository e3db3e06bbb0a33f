package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ccsdpt/hisweb/internal/db"
	"github.com/ccsdpt/hisweb/internal/domain"

	"github.com/jackc/pgx/v5"
)

// uploadColumns is the fixed insert order for tally rows.
var uploadColumns = []string{"description", "value", "version", "shelter", "dateofrpt"}

// identPattern restricts table and column names that get interpolated into
// SQL text. Filter values themselves are always bound parameters.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type reportRepository struct {
	conn          *db.Connection
	shelterColumn string
	dateColumn    string
}

// NewReportRepository wires a repository backed by the shared connection pool.
// shelterColumn and dateColumn name the filter columns of the download table.
func NewReportRepository(conn *db.Connection, shelterColumn, dateColumn string) ReportRepository {
	return &reportRepository{
		conn:          conn,
		shelterColumn: shelterColumn,
		dateColumn:    dateColumn,
	}
}

func (r *reportRepository) Insert(ctx context.Context, table string, records []domain.ReportRow) (int64, error) {
	if r.conn == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		count, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{table},
			uploadColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				rec := records[i]
				return []any{rec.Description, rec.Value, rec.Version, rec.Shelter, rec.DateOfRpt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy rows into %s: %w", table, err)
		}
		inserted = count
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert report rows: %w", err)
	}

	return inserted, nil
}

func (r *reportRepository) Select(ctx context.Context, table string, filter domain.ExportFilter) (domain.RowSet, error) {
	if r.conn == nil {
		return domain.RowSet{}, domain.ErrStoreNotConfigured
	}

	query, args, err := buildSelectQuery(table, r.shelterColumn, r.dateColumn, filter)
	if err != nil {
		return domain.RowSet{}, err
	}

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return domain.RowSet{}, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := domain.RowSet{Columns: make([]string, len(fields))}
	for i, field := range fields {
		result.Columns[i] = field.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return domain.RowSet{}, fmt.Errorf("failed to read row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return domain.RowSet{}, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return result, nil
}

// buildSelectQuery assembles the filtered select. An empty axis omits its
// clause entirely; the caller enforces whatever request policy applies.
func buildSelectQuery(table, shelterColumn, dateColumn string, filter domain.ExportFilter) (string, []any, error) {
	for _, ident := range []string{table, shelterColumn, dateColumn} {
		if err := validateIdentifier(ident); err != nil {
			return "", nil, err
		}
	}

	var (
		clauses []string
		args    []any
	)
	if len(filter.Shelters) > 0 {
		args = append(args, filter.Shelters)
		clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", shelterColumn, len(args)))
	}
	if len(filter.Dates) > 0 {
		dates := make([]string, len(filter.Dates))
		for i, d := range filter.Dates {
			dates[i] = d.Format(domain.ReportDateLayout)
		}
		args = append(args, dates)
		clauses = append(clauses, fmt.Sprintf("%s::date = ANY($%d::date[])", dateColumn, len(args)))
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s, %s", shelterColumn, dateColumn)

	return query, args, nil
}

func validateIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// FormatDates renders filter dates for logging.
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(domain.ReportDateLayout)
	}
	return out
}
