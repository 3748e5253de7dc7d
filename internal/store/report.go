package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/floorreports/apiserver/types"
	"github.com/google/uuid"
)

// ReportRepository persists AOI reports together with the reference data
// they point at. Assemblies, revisions, jobs, operations, lines and
// operators are created on first use inside the same transaction as the
// report itself.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// NewReport captures everything needed to persist one AOI report.
type NewReport struct {
	JobNumber       string
	AssemblyNumber  string
	RevisionCode    string
	OperationName   string
	LineName        string
	OperatorBadge   string
	BoardsInspected int
	BoardsNG        int
	Notes           string
	Defects         []types.ReportDefect
}

func (r *ReportRepository) Create(ctx context.Context, req NewReport) (types.AOIReport, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.AOIReport{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	assemblyID, err := getOrCreateAssembly(ctx, tx, req.AssemblyNumber)
	if err != nil {
		return types.AOIReport{}, err
	}

	var revisionID string
	if req.RevisionCode != "" {
		revisionID, err = getOrCreateRevision(ctx, tx, assemblyID, req.RevisionCode)
		if err != nil {
			return types.AOIReport{}, err
		}
	}

	jobID, err := getOrCreateJob(ctx, tx, req.JobNumber, assemblyID, revisionID)
	if err != nil {
		return types.AOIReport{}, err
	}

	operationID, err := getOrCreateNamed(ctx, tx, "operations", req.OperationName)
	if err != nil {
		return types.AOIReport{}, err
	}

	lineID, err := getOrCreateNamed(ctx, tx, "lines", req.LineName)
	if err != nil {
		return types.AOIReport{}, err
	}

	var operatorID string
	if req.OperatorBadge != "" {
		operatorID, err = getOrCreateOperator(ctx, tx, req.OperatorBadge)
		if err != nil {
			return types.AOIReport{}, err
		}
	}

	report := types.AOIReport{
		ID:              uuid.NewString(),
		JobID:           jobID,
		OperationID:     operationID,
		LineID:          lineID,
		OperatorID:      operatorID,
		ReportTS:        time.Now(),
		BoardsInspected: req.BoardsInspected,
		BoardsNG:        req.BoardsNG,
		Notes:           req.Notes,
	}

	const insertReport = `
		INSERT INTO aoi_reports (id, job_id, operation_id, line_id, operator_id,
			report_ts, boards_inspected, boards_ng, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(
		ctx,
		insertReport,
		report.ID,
		report.JobID,
		report.OperationID,
		nullIfEmpty(report.LineID),
		nullIfEmpty(report.OperatorID),
		report.ReportTS,
		report.BoardsInspected,
		report.BoardsNG,
		report.Notes,
	); err != nil {
		return types.AOIReport{}, err
	}

	const insertDefect = `
		INSERT INTO aoi_report_defects (id, aoi_report_id, defect_code, count)
		VALUES ($1, $2, $3, $4)`
	const codeExists = `SELECT EXISTS (SELECT 1 FROM defect_codes WHERE code = $1)`

	for _, defect := range req.Defects {
		var known bool
		if err := tx.QueryRowContext(ctx, codeExists, defect.DefectCode).Scan(&known); err != nil {
			return types.AOIReport{}, err
		}
		if !known {
			return types.AOIReport{}, ErrUnknownDefectCode
		}

		item := types.ReportDefect{
			ID:         uuid.NewString(),
			ReportID:   report.ID,
			DefectCode: defect.DefectCode,
			Count:      defect.Count,
		}
		if _, err := tx.ExecContext(
			ctx,
			insertDefect,
			item.ID,
			item.ReportID,
			item.DefectCode,
			item.Count,
		); err != nil {
			return types.AOIReport{}, err
		}
		report.Defects = append(report.Defects, item)
	}

	if err := tx.Commit(); err != nil {
		return types.AOIReport{}, err
	}
	return report, nil
}

func (r *ReportRepository) GetDetails(ctx context.Context, id string) (types.ReportDetails, error) {
	const query = `
		SELECT rep.id, rep.job_id, rep.operation_id,
			COALESCE(rep.line_id::text, ''), COALESCE(rep.operator_id::text, ''),
			rep.report_ts, rep.boards_inspected, rep.boards_ng, rep.notes,
			j.job_number, a.number,
			COALESCE(rv.rev_code, ''), op.name,
			COALESCE(l.name, ''), COALESCE(o.badge, '')
		FROM aoi_reports rep
		JOIN jobs j ON j.id = rep.job_id
		JOIN assemblies a ON a.id = j.assembly_id
		LEFT JOIN revisions rv ON rv.id = j.revision_id
		JOIN operations op ON op.id = rep.operation_id
		LEFT JOIN lines l ON l.id = rep.line_id
		LEFT JOIN operators o ON o.id = rep.operator_id
		WHERE rep.id = $1`

	var details types.ReportDetails
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&details.Report.ID,
		&details.Report.JobID,
		&details.Report.OperationID,
		&details.Report.LineID,
		&details.Report.OperatorID,
		&details.Report.ReportTS,
		&details.Report.BoardsInspected,
		&details.Report.BoardsNG,
		&details.Report.Notes,
		&details.JobNumber,
		&details.AssemblyNumber,
		&details.RevisionCode,
		&details.OperationName,
		&details.LineName,
		&details.OperatorBadge,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ReportDetails{}, ErrNotFound
		}
		return types.ReportDetails{}, err
	}

	const defectsQuery = `
		SELECT d.id, d.aoi_report_id, d.defect_code, dc.name, d.count
		FROM aoi_report_defects d
		JOIN defect_codes dc ON dc.code = d.defect_code
		WHERE d.aoi_report_id = $1
		ORDER BY d.defect_code`
	rows, err := r.db.QueryContext(ctx, defectsQuery, id)
	if err != nil {
		return types.ReportDetails{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var defect types.ReportDefect
		if err := rows.Scan(
			&defect.ID,
			&defect.ReportID,
			&defect.DefectCode,
			&defect.DefectName,
			&defect.Count,
		); err != nil {
			return types.ReportDetails{}, err
		}
		details.Report.Defects = append(details.Report.Defects, defect)
	}
	return details, rows.Err()
}

func (r *ReportRepository) KPISummary(ctx context.Context) (types.KPISummary, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM jobs),
			COALESCE(SUM(boards_inspected), 0),
			COALESCE(SUM(boards_ng), 0)
		FROM aoi_reports`

	var summary types.KPISummary
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&summary.TotalJobs,
		&summary.TotalBoards,
		&summary.TotalNG,
	); err != nil {
		return types.KPISummary{}, err
	}

	if summary.TotalBoards > 0 {
		summary.SitePPM = float64(summary.TotalNG) / float64(summary.TotalBoards) * 1_000_000
	}
	return summary, nil
}

// TopDefects returns the highest-count defect codes reported since the
// given time.
func (r *ReportRepository) TopDefects(ctx context.Context, since time.Time, limit int) ([]types.DefectTally, error) {
	const query = `
		SELECT d.defect_code, dc.name, SUM(d.count)
		FROM aoi_report_defects d
		JOIN defect_codes dc ON dc.code = d.defect_code
		JOIN aoi_reports rep ON rep.id = d.aoi_report_id
		WHERE rep.report_ts >= $1
		GROUP BY d.defect_code, dc.name
		ORDER BY SUM(d.count) DESC, d.defect_code
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []types.DefectTally
	for rows.Next() {
		var tally types.DefectTally
		if err := rows.Scan(&tally.Code, &tally.Name, &tally.Count); err != nil {
			return nil, err
		}
		tallies = append(tallies, tally)
	}
	return tallies, rows.Err()
}

func getOrCreateAssembly(ctx context.Context, tx *sql.Tx, number string) (string, error) {
	const query = `SELECT id FROM assemblies WHERE number = $1`
	var id string
	err := tx.QueryRowContext(ctx, query, number).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	const insert = `INSERT INTO assemblies (id, number, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insert, id, number, time.Now()); err != nil {
		return "", err
	}
	return id, nil
}

func getOrCreateRevision(ctx context.Context, tx *sql.Tx, assemblyID, revCode string) (string, error) {
	const query = `SELECT id FROM revisions WHERE assembly_id = $1 AND rev_code = $2`
	var id string
	err := tx.QueryRowContext(ctx, query, assemblyID, revCode).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	const insert = `INSERT INTO revisions (id, assembly_id, rev_code) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insert, id, assemblyID, revCode); err != nil {
		return "", err
	}
	return id, nil
}

func getOrCreateJob(ctx context.Context, tx *sql.Tx, jobNumber, assemblyID, revisionID string) (string, error) {
	const query = `SELECT id FROM jobs WHERE job_number = $1`
	var id string
	err := tx.QueryRowContext(ctx, query, jobNumber).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	const insert = `
		INSERT INTO jobs (id, job_number, assembly_id, revision_id, start_ts)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insert, id, jobNumber, assemblyID, nullIfEmpty(revisionID), time.Now()); err != nil {
		return "", err
	}
	return id, nil
}

// getOrCreateNamed serves the operations and lines tables, which share the
// same (id, name) shape. The table name is always a compile-time constant.
func getOrCreateNamed(ctx context.Context, tx *sql.Tx, table, name string) (string, error) {
	query := `SELECT id FROM ` + table + ` WHERE name = $1`
	var id string
	err := tx.QueryRowContext(ctx, query, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	insert := `INSERT INTO ` + table + ` (id, name) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insert, id, name); err != nil {
		return "", err
	}
	return id, nil
}

func getOrCreateOperator(ctx context.Context, tx *sql.Tx, badge string) (string, error) {
	const query = `SELECT id FROM operators WHERE badge = $1`
	var id string
	err := tx.QueryRowContext(ctx, query, badge).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	const insert = `INSERT INTO operators (id, badge) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insert, id, badge); err != nil {
		return "", err
	}
	return id, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
