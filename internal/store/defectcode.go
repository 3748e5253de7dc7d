package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/floorreports/apiserver/types"
	"github.com/lib/pq"
)

// DefectCodeRepository handles persistence for the defect code cache.
type DefectCodeRepository struct {
	db *sql.DB
}

func NewDefectCodeRepository(db *sql.DB) *DefectCodeRepository {
	return &DefectCodeRepository{db: db}
}

func (r *DefectCodeRepository) List(ctx context.Context) ([]types.DefectCode, error) {
	const query = `
		SELECT code, name, description, default_operation, component_class, category
		FROM defect_codes
		ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []types.DefectCode
	for rows.Next() {
		var code types.DefectCode
		if err := rows.Scan(
			&code.Code,
			&code.Name,
			&code.Description,
			&code.DefaultOperation,
			&code.ComponentClass,
			&code.Category,
		); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *DefectCodeRepository) Get(ctx context.Context, code string) (types.DefectCode, error) {
	const query = `
		SELECT code, name, description, default_operation, component_class, category
		FROM defect_codes
		WHERE code = $1`
	var dc types.DefectCode
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&dc.Code,
		&dc.Name,
		&dc.Description,
		&dc.DefaultOperation,
		&dc.ComponentClass,
		&dc.Category,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DefectCode{}, ErrNotFound
		}
		return types.DefectCode{}, err
	}
	return dc, nil
}

func (r *DefectCodeRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM defect_codes`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceAll overwrites the cache with the given set in a single
// transaction: fetched rows are upserted and rows absent from the set are
// removed. On any error the transaction rolls back and the cache keeps its
// previous contents.
func (r *DefectCodeRepository) ReplaceAll(ctx context.Context, codes []types.DefectCode) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsert = `
		INSERT INTO defect_codes (code, name, description, default_operation, component_class, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			default_operation = EXCLUDED.default_operation,
			component_class = EXCLUDED.component_class,
			category = EXCLUDED.category`

	keep := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, err := tx.ExecContext(
			ctx,
			upsert,
			code.Code,
			code.Name,
			code.Description,
			code.DefaultOperation,
			code.ComponentClass,
			code.Category,
		); err != nil {
			return err
		}
		keep = append(keep, code.Code)
	}

	const prune = `DELETE FROM defect_codes WHERE code <> ALL ($1)`
	if _, err := tx.ExecContext(ctx, prune, pq.Array(keep)); err != nil {
		return err
	}

	return tx.Commit()
}
