package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/floorreports/apiserver/internal/artifacts"
	"github.com/floorreports/apiserver/types"
)

//go:embed templates/weekly.html
var weeklyTemplateFS embed.FS

const weeklyWindow = 7 * 24 * time.Hour

// WeeklyReportService renders the trailing-week KPI report and stores the
// HTML artifact in object storage.
type WeeklyReportService struct {
	reports ReportRepository
	store   *artifacts.Store
	tmpl    *template.Template
	logger  *slog.Logger
}

func NewWeeklyReportService(reports ReportRepository, store *artifacts.Store, logger *slog.Logger) (*WeeklyReportService, error) {
	tmpl, err := template.ParseFS(weeklyTemplateFS, "templates/weekly.html")
	if err != nil {
		return nil, fmt.Errorf("parsing weekly template: %w", err)
	}

	return &WeeklyReportService{
		reports: reports,
		store:   store,
		tmpl:    tmpl,
		logger:  logger,
	}, nil
}

type weeklyReportData struct {
	StartDate  string
	EndDate    string
	KPI        types.KPISummary
	TopDefects []types.DefectTally
}

// Generate renders the report for the 7 days ending at now and uploads it.
// It returns the artifact key.
func (s *WeeklyReportService) Generate(ctx context.Context, now time.Time) (string, error) {
	since := now.Add(-weeklyWindow)

	kpi, err := s.reports.KPISummary(ctx)
	if err != nil {
		return "", fmt.Errorf("computing kpi summary: %w", err)
	}

	topDefects, err := s.reports.TopDefects(ctx, since, 10)
	if err != nil {
		return "", fmt.Errorf("computing top defects: %w", err)
	}

	data := weeklyReportData{
		StartDate:  since.UTC().Format("2006-01-02"),
		EndDate:    now.UTC().Format("2006-01-02"),
		KPI:        kpi,
		TopDefects: topDefects,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering weekly report: %w", err)
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("preparing report storage: %w", err)
	}

	key := fmt.Sprintf("reports/weekly_%s.html", data.EndDate)
	if err := s.store.Put(ctx, key, &buf, int64(buf.Len()), "text/html; charset=utf-8"); err != nil {
		return "", fmt.Errorf("storing weekly report: %w", err)
	}

	s.logger.Info("weekly report generated", "key", key, "bucket", s.store.Bucket())
	return key, nil
}

// Open returns a reader for a previously generated report artifact.
func (s *WeeklyReportService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Get(ctx, key)
}
