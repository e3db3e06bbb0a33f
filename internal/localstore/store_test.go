package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeWorkbook(t *testing.T, path string, headers []string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadAllMergesArchives(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	writeWorkbook(t, filepath.Join(dir, "a.xlsx"), domain.ReportColumns,
		[][]any{{"Beds", 12.0, 1.0, "North", "2025-01-10"}})
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"), domain.ReportColumns,
		[][]any{{"Cots", 7.0, 1.0, "South", "2025-01-11"}})

	merged, files, err := store.LoadAll()
	require.NoError(t, err)
	require.Equal(t, 2, files)
	require.Len(t, merged.Rows, 2)
	require.Equal(t, domain.ReportColumns, merged.Columns)
}

func TestLoadAllEmptyDirectory(t *testing.T) {
	store, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	merged, files, err := store.LoadAll()
	require.NoError(t, err)
	require.Zero(t, files)
	require.Empty(t, merged.Rows)
}

func TestLoadAllFailsOnIncompatibleFile(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	writeWorkbook(t, filepath.Join(dir, "good.xlsx"), domain.ReportColumns,
		[][]any{{"Beds", 12.0, 1.0, "North", "2025-01-10"}})
	// Missing the Version column entirely.
	writeWorkbook(t, filepath.Join(dir, "bad.xlsx"),
		[]string{"Description", "Value", "Shelter", "DateOfRpt"},
		[][]any{{"Beds", 12.0, "North", "2025-01-10"}})

	_, _, err = store.LoadAll()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Version")
}

func TestLoadAllColumnOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	writeWorkbook(t, filepath.Join(dir, "shuffled.xlsx"),
		[]string{"Shelter", "DateOfRpt", "Description", "Value", "Version"},
		[][]any{{"North", "2025-01-10", "Beds", 12.0, 1.0}})

	merged, files, err := store.LoadAll()
	require.NoError(t, err)
	require.Equal(t, 1, files)
	require.Len(t, merged.Rows, 1)
	require.Equal(t, "Beds", merged.Rows[0][0])
	require.Equal(t, 12.0, merged.Rows[0][1])
	require.Equal(t, "North", merged.Rows[0][3])
}

func TestFilterByShelterAndDate(t *testing.T) {
	jan10 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	jan11 := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	rowSet := domain.RowSet{
		Columns: domain.ReportColumns,
		Rows: [][]any{
			{"Beds", 12.0, 1.0, "North", jan10},
			{"Cots", 7.0, 1.0, "North", jan11},
			{"Beds", 3.0, 1.0, "South", jan10},
		},
	}

	filtered := Filter(rowSet, domain.ExportFilter{
		Shelters: []string{"North"},
		Dates:    []time.Time{jan10},
	})
	require.Len(t, filtered.Rows, 1)
	require.Equal(t, "Beds", filtered.Rows[0][0])
	require.Equal(t, "North", filtered.Rows[0][3])
}

func TestFilterComparesCalendarDateOnly(t *testing.T) {
	late := time.Date(2025, 1, 10, 23, 45, 0, 0, time.UTC)
	rowSet := domain.RowSet{
		Columns: domain.ReportColumns,
		Rows:    [][]any{{"Beds", 12.0, 1.0, "North", late}},
	}

	filtered := Filter(rowSet, domain.ExportFilter{
		Shelters: []string{"North"},
		Dates:    []time.Time{time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
	})
	require.Len(t, filtered.Rows, 1)
}

func TestArchiveStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	path, err := store.Archive("../escape.xlsx", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "escape.xlsx"), path)
}
