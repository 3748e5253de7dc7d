package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/floorreports/apiserver/internal/artifacts"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticReportRepo struct {
	kpi     types.KPISummary
	tallies []types.DefectTally
}

func (r *staticReportRepo) Create(ctx context.Context, req store.NewReport) (types.AOIReport, error) {
	return types.AOIReport{}, nil
}

func (r *staticReportRepo) GetDetails(ctx context.Context, id string) (types.ReportDetails, error) {
	return types.ReportDetails{}, store.ErrNotFound
}

func (r *staticReportRepo) KPISummary(ctx context.Context) (types.KPISummary, error) {
	return r.kpi, nil
}

func (r *staticReportRepo) TopDefects(ctx context.Context, since time.Time, limit int) ([]types.DefectTally, error) {
	return r.tallies, nil
}

func TestWeeklyReportGenerate(t *testing.T) {
	repo := &staticReportRepo{
		kpi: types.KPISummary{TotalJobs: 3, TotalBoards: 1500, TotalNG: 4, SitePPM: 2666.7},
		tallies: []types.DefectTally{
			{Code: "BRG", Name: "Bridging", Count: 7},
			{Code: "MIS", Name: "Missing component", Count: 2},
		},
	}
	artifactStore := artifacts.NewStore(artifacts.NewLocalStore(t.TempDir()))

	svc, err := NewWeeklyReportService(repo, artifactStore, testLogger())
	require.NoError(t, err)

	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	key, err := svc.Generate(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "reports/weekly_2026-08-21.html", key)

	rc, err := svc.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "2026-08-14 to 2026-08-21")
	assert.Contains(t, html, "Bridging")
	assert.Contains(t, html, "1500")
}

func TestWeeklyReportGenerateWithoutDefects(t *testing.T) {
	repo := &staticReportRepo{}
	artifactStore := artifacts.NewStore(artifacts.NewLocalStore(t.TempDir()))

	svc, err := NewWeeklyReportService(repo, artifactStore, testLogger())
	require.NoError(t, err)

	key, err := svc.Generate(context.Background(), time.Now())
	require.NoError(t, err)

	rc, err := svc.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No defects recorded")
}
