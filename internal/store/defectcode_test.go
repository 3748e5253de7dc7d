package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/floorreports/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefectCodeRepositoryReplaceAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	codes := []types.DefectCode{
		{Code: "BRG", Name: "Bridging", DefaultOperation: types.OperationSMTAOI, Category: "solder"},
		{Code: "MIS", Name: "Missing component", DefaultOperation: types.OperationEither, Category: "placement"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO defect_codes").
		WithArgs("BRG", "Bridging", "", types.OperationSMTAOI, "", "solder").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO defect_codes").
		WithArgs("MIS", "Missing component", "", types.OperationEither, "", "placement").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM defect_codes").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewDefectCodeRepository(db)
	err = repo.ReplaceAll(context.Background(), codes)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefectCodeRepositoryReplaceAllRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO defect_codes").
		WithArgs("BRG", "Bridging", "", types.OperationSMTAOI, "", "solder").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewDefectCodeRepository(db)
	err = repo.ReplaceAll(context.Background(), []types.DefectCode{
		{Code: "BRG", Name: "Bridging", DefaultOperation: types.OperationSMTAOI, Category: "solder"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefectCodeRepositoryReplaceAllEmptySet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM defect_codes").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	repo := NewDefectCodeRepository(db)
	err = repo.ReplaceAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefectCodeRepositoryGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT code, name, description, default_operation, component_class, category").
		WithArgs("XXX").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "description", "default_operation", "component_class", "category"}))

	repo := NewDefectCodeRepository(db)
	_, err = repo.Get(context.Background(), "XXX")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefectCodeRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"code", "name", "description", "default_operation", "component_class", "category"}).
		AddRow("BRG", "Bridging", "", types.OperationSMTAOI, "", "solder").
		AddRow("MIS", "Missing component", "", types.OperationEither, "", "placement")

	mock.ExpectQuery("SELECT code, name, description, default_operation, component_class, category").
		WillReturnRows(rows)

	repo := NewDefectCodeRepository(db)
	codes, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "BRG", codes[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
