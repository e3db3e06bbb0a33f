package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"
	"github.com/ccsdpt/hisweb/internal/localstore"
	"github.com/ccsdpt/hisweb/internal/repository"

	"go.uber.org/zap"
)

// Service answers filtered export requests from the relational store, or from
// archived uploads when no store is configured.
type Service struct {
	repo   repository.ReportRepository
	store  *localstore.Store
	table  string
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new export service. repo may be nil when no relational
// store is configured; the local fallback store then serves exports.
func NewService(repo repository.ReportRepository, store *localstore.Store, table string, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		table:  table,
		logger: logger,
		now:    time.Now,
	}
}

// Request carries the download filter as received from the client.
type Request struct {
	Shelters []string `json:"shelters"`
	Dates    []string `json:"dates"`
}

// Export validates the filter, fetches matching rows and serializes them.
// Both filter axes are required; an empty result is a not-found error.
func (s *Service) Export(ctx context.Context, req Request) (File, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return File{}, err
	}

	rowSet, err := s.fetch(ctx, filter)
	if err != nil {
		return File{}, err
	}
	if len(rowSet.Rows) == 0 {
		return File{}, domain.NotFoundf("no data found for the selected filters")
	}

	content, err := BuildWorkbook(s.table, rowSet)
	if err != nil {
		return File{}, err
	}

	s.logger.Info("export built",
		zap.Strings("shelters", filter.Shelters),
		zap.Strings("dates", repository.FormatDates(filter.Dates)),
		zap.Int("rows", len(rowSet.Rows)))

	return File{
		Name:    FileName(s.table, s.now()),
		Content: content,
	}, nil
}

func (s *Service) fetch(ctx context.Context, filter domain.ExportFilter) (domain.RowSet, error) {
	if s.repo != nil {
		rowSet, err := s.repo.Select(ctx, s.table, filter)
		if err != nil {
			return domain.RowSet{}, fmt.Errorf("failed to query store: %w", err)
		}
		return rowSet, nil
	}

	all, files, err := s.store.LoadAll()
	if err != nil {
		return domain.RowSet{}, err
	}
	if files == 0 {
		return domain.RowSet{}, domain.NotFoundf("no archived uploads available and no store is configured")
	}
	return localstore.Filter(all, filter), nil
}

// buildFilter applies the strict policy: both axes must be non-empty.
func buildFilter(req Request) (domain.ExportFilter, error) {
	shelters := make([]string, 0, len(req.Shelters))
	for _, shelter := range req.Shelters {
		if trimmed := strings.TrimSpace(shelter); trimmed != "" {
			shelters = append(shelters, trimmed)
		}
	}
	if len(shelters) == 0 {
		return domain.ExportFilter{}, domain.Validationf("shelters and dates are required")
	}
	if len(req.Dates) == 0 {
		return domain.ExportFilter{}, domain.Validationf("shelters and dates are required")
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		parsed, err := domain.ParseReportDate(raw)
		if err != nil {
			return domain.ExportFilter{}, domain.Validationf("invalid date %q: %v", raw, err)
		}
		dates = append(dates, parsed)
	}

	return domain.ExportFilter{Shelters: shelters, Dates: dates}, nil
}
