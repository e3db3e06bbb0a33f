package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Store keeps archived upload workbooks under a fixed directory. Reading
// never mutates the files; new archives are written only by the upload flow.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the storage location.
func (s *Store) Dir() string {
	return s.dir
}

// Archive writes one upload copy under a new name and returns its path.
func (s *Store) Archive(name string, content []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive %s: %w", path, err)
	}
	s.logger.Info("archived upload copy", zap.String("path", path))
	return path, nil
}

// LoadAll reads every archived workbook and concatenates them into one row
// set with the canonical columns. A file missing required columns fails the
// whole load; partial data never masks a broken archive. Returns the merged
// set and the number of files read.
func (s *Store) LoadAll() (domain.RowSet, int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return domain.RowSet{}, 0, fmt.Errorf("failed to read upload directory %s: %w", s.dir, err)
	}

	merged := domain.RowSet{Columns: domain.ReportColumns}
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xlsx") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		rowSet, err := readArchive(path)
		if err != nil {
			return domain.RowSet{}, 0, err
		}
		merged.Append(rowSet)
		files++
	}

	return merged, files, nil
}

// Filter applies the export filter in memory. Dates compare by calendar date
// only.
func Filter(rowSet domain.RowSet, filter domain.ExportFilter) domain.RowSet {
	shelterIdx := columnIndex(rowSet.Columns, "Shelter")
	dateIdx := columnIndex(rowSet.Columns, "DateOfRpt")

	result := domain.RowSet{Columns: rowSet.Columns}
	for _, row := range rowSet.Rows {
		if len(filter.Shelters) > 0 && !matchShelter(row, shelterIdx, filter.Shelters) {
			continue
		}
		if len(filter.Dates) > 0 && !matchDate(row, dateIdx, filter.Dates) {
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

func readArchive(path string) (domain.RowSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RowSet{}, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RowSet{}, fmt.Errorf("archive %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.RowSet{}, fmt.Errorf("failed to read archive %s: %w", path, err)
	}
	if len(rows) == 0 {
		return domain.RowSet{}, fmt.Errorf("archive %s is empty", path)
	}

	// Map required columns by header so column order in the file is free.
	indexes := make([]int, len(domain.ReportColumns))
	for i, required := range domain.ReportColumns {
		idx := -1
		for col, header := range rows[0] {
			if strings.EqualFold(strings.TrimSpace(header), required) {
				idx = col
				break
			}
		}
		if idx < 0 {
			return domain.RowSet{}, fmt.Errorf("archive %s is missing required column %s", path, required)
		}
		indexes[i] = idx
	}

	result := domain.RowSet{Columns: domain.ReportColumns}
	for rowNum, row := range rows[1:] {
		values := make([]any, len(indexes))
		for i, idx := range indexes {
			cell := ""
			if idx < len(row) {
				cell = strings.TrimSpace(row[idx])
			}
			value, err := coerceArchiveValue(domain.ReportColumns[i], cell)
			if err != nil {
				return domain.RowSet{}, fmt.Errorf("archive %s row %d: %w", path, rowNum+2, err)
			}
			values[i] = value
		}
		result.Rows = append(result.Rows, values)
	}

	return result, nil
}

func coerceArchiveValue(column, cell string) (any, error) {
	switch column {
	case "Value", "Version":
		parsed, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", column, cell)
		}
		return parsed, nil
	case "DateOfRpt":
		parsed, err := domain.ParseReportDate(cell)
		if err != nil {
			return nil, fmt.Errorf("invalid DateOfRpt %q", cell)
		}
		return parsed, nil
	default:
		return cell, nil
	}
}

func columnIndex(columns []string, name string) int {
	for i, col := range columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

func matchShelter(row []any, idx int, shelters []string) bool {
	if idx < 0 || idx >= len(row) {
		return false
	}
	value, ok := row[idx].(string)
	if !ok {
		return false
	}
	for _, shelter := range shelters {
		if strings.EqualFold(strings.TrimSpace(value), shelter) {
			return true
		}
	}
	return false
}

func matchDate(row []any, idx int, dates []time.Time) bool {
	if idx < 0 || idx >= len(row) {
		return false
	}
	value, ok := row[idx].(time.Time)
	if !ok {
		return false
	}
	for _, date := range dates {
		if domain.SameReportDate(value, date) {
			return true
		}
	}
	return false
}
