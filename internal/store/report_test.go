package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/floorreports/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryKPISummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"jobs", "boards", "ng"}).AddRow(4, 2000, 6))

	repo := NewReportRepository(db)
	summary, err := repo.KPISummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalJobs)
	assert.Equal(t, 2000, summary.TotalBoards)
	assert.Equal(t, 6, summary.TotalNG)
	assert.InDelta(t, 3000.0, summary.SitePPM, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryKPISummaryNoBoards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"jobs", "boards", "ng"}).AddRow(0, 0, 0))

	repo := NewReportRepository(db)
	summary, err := repo.KPISummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.SitePPM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTopDefects(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	since := time.Now().Add(-7 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"defect_code", "name", "sum"}).
		AddRow("BRG", "Bridging", 12).
		AddRow("MIS", "Missing component", 5)

	mock.ExpectQuery("SELECT d.defect_code, dc.name").
		WithArgs(since, 10).
		WillReturnRows(rows)

	repo := NewReportRepository(db)
	tallies, err := repo.TopDefects(context.Background(), since, 10)
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	assert.Equal(t, "BRG", tallies[0].Code)
	assert.Equal(t, 12, tallies[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateRejectsUnknownDefectCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM assemblies").
		WithArgs("ASM-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectQuery("SELECT id FROM jobs").
		WithArgs("JOB-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("j-1"))
	mock.ExpectQuery("SELECT id FROM operations").
		WithArgs("SMT AOI").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("op-1"))
	mock.ExpectQuery("SELECT id FROM lines").
		WithArgs("Line 1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("l-1"))
	mock.ExpectExec("INSERT INTO aoi_reports").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("XXX").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	repo := NewReportRepository(db)
	_, err = repo.Create(context.Background(), NewReport{
		JobNumber:       "JOB-1",
		AssemblyNumber:  "ASM-1",
		OperationName:   "SMT AOI",
		LineName:        "Line 1",
		BoardsInspected: 10,
		BoardsNG:        1,
		Defects:         []types.ReportDefect{{DefectCode: "XXX", Count: 1}},
	})
	assert.ErrorIs(t, err, ErrUnknownDefectCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
