package ingestion

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ccsdpt/hisweb/internal/domain"
	"github.com/ccsdpt/hisweb/internal/export"
	"github.com/ccsdpt/hisweb/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// previewLimit caps how many surviving rows the upload response echoes back.
const previewLimit = 10

var fileComponentPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Archiver persists a copy of the normalized upload so the local fallback
// store can serve it later.
type Archiver interface {
	Archive(name string, content []byte) (string, error)
}

// Service handles the upload flow: parse, normalize, insert, archive.
type Service struct {
	repo      repository.ReportRepository
	archiver  Archiver
	table     string
	sheetName string
	logger    *zap.Logger
}

// NewService creates a new upload service. repo may be nil when no relational
// store is configured; archived copies then act as the dataset.
func NewService(repo repository.ReportRepository, archiver Archiver, table, sheetName string, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		archiver:  archiver,
		table:     table,
		sheetName: sheetName,
		logger:    logger,
	}
}

// Request describes one upload.
type Request struct {
	Shelter   string
	DateOfRpt string
	FileName  string
	Data      io.Reader
}

// PreviewRow echoes a normalized row back to the client.
type PreviewRow struct {
	Description string  `json:"Description"`
	Value       float64 `json:"Value"`
	Version     float64 `json:"Version"`
	Shelter     string  `json:"Shelter"`
	DateOfRpt   string  `json:"DateOfRpt"`
}

// Summary is the upload response body.
type Summary struct {
	Message     string       `json:"message"`
	SkippedRows int          `json:"skipped_rows"`
	Preview     []PreviewRow `json:"preview"`
}

// Upload runs the whole flow for one request. The insert happens before the
// local copy is archived, so a failed insert leaves no file behind.
func (s *Service) Upload(ctx context.Context, req Request) (Summary, error) {
	shelter := strings.TrimSpace(req.Shelter)
	if shelter == "" || strings.TrimSpace(req.DateOfRpt) == "" {
		return Summary{}, domain.Validationf("shelter and date of report are required")
	}

	dateOfRpt, err := domain.ParseReportDate(req.DateOfRpt)
	if err != nil {
		return Summary{}, domain.Validationf("invalid dateOfRpt: %v", err)
	}

	if req.Data == nil {
		return Summary{}, domain.Validationf("file is required")
	}
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return Summary{}, domain.Validationf("file is empty")
	}

	raw, err := ParseTallySheet(payload, s.sheetName)
	if err != nil {
		return Summary{}, err
	}

	records, skipped, err := Normalize(raw, shelter, dateOfRpt)
	if err != nil {
		return Summary{}, err
	}

	inserted := int64(len(records))
	if s.repo != nil {
		inserted, err = s.repo.Insert(ctx, s.table, records)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to store rows: %w", err)
		}
	}

	if err := s.archive(records, shelter, dateOfRpt); err != nil {
		if s.repo == nil {
			// Archiving is the only persistence without a store.
			return Summary{}, err
		}
		// Rows are already committed; losing the local copy is not fatal.
		s.logger.Warn("failed to archive upload copy", zap.Error(err))
	}

	if skipped > 0 {
		s.logger.Info("skipped rows with missing or invalid data",
			zap.Int("skipped", skipped), zap.String("shelter", shelter))
	}
	s.logger.Info("upload processed",
		zap.String("shelter", shelter),
		zap.String("dateOfRpt", dateOfRpt.Format(domain.ReportDateLayout)),
		zap.Int64("inserted", inserted),
		zap.Int("skipped", skipped))

	return Summary{
		Message: fmt.Sprintf("Successfully uploaded %d rows for shelter %s on %s.",
			inserted, shelter, dateOfRpt.Format(domain.ReportDateLayout)),
		SkippedRows: skipped,
		Preview:     buildPreview(records),
	}, nil
}

// archive writes a normalized five-column workbook copy, named from
// shelter, date and timestamp.
func (s *Service) archive(records []domain.ReportRow, shelter string, dateOfRpt time.Time) error {
	if s.archiver == nil {
		return nil
	}

	rowSet := domain.RowSet{Columns: domain.ReportColumns}
	for _, rec := range records {
		rowSet.Rows = append(rowSet.Rows, []any{
			rec.Description, rec.Value, rec.Version, rec.Shelter, rec.DateOfRpt,
		})
	}

	content, err := export.BuildWorkbook(s.table, rowSet)
	if err != nil {
		return fmt.Errorf("failed to build archive workbook: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_%s.xlsx",
		sanitizeFileComponent(shelter),
		dateOfRpt.Format(domain.ReportDateLayout),
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8],
	)
	if _, err := s.archiver.Archive(name, content); err != nil {
		return fmt.Errorf("failed to archive upload: %w", err)
	}
	return nil
}

func buildPreview(records []domain.ReportRow) []PreviewRow {
	limit := len(records)
	if limit > previewLimit {
		limit = previewLimit
	}
	preview := make([]PreviewRow, 0, limit)
	for _, rec := range records[:limit] {
		preview = append(preview, PreviewRow{
			Description: rec.Description,
			Value:       rec.Value,
			Version:     rec.Version,
			Shelter:     rec.Shelter,
			DateOfRpt:   rec.DateOfRpt.Format(domain.ReportDateLayout),
		})
	}
	return preview
}

func sanitizeFileComponent(value string) string {
	cleaned := fileComponentPattern.ReplaceAllString(strings.TrimSpace(value), "-")
	cleaned = strings.Trim(cleaned, "-._")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
