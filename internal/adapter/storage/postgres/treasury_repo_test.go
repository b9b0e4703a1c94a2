package postgres

import (
	"context"
	"testing"

	"yieldback-ledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreasuryRepo_GetControllerForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTreasuryRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT controller FROM treasury_state WHERE id = 1 FOR UPDATE").
		WillReturnRows(pgxmock.NewRows([]string{"controller"}).AddRow(string(domain.ModuleOperator)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	controller, err := repo.GetControllerForUpdate(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleOperator, controller)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTreasuryRepo_SetController(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTreasuryRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE treasury_state SET controller").
		WithArgs(domain.ModuleSettlement).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetController(context.Background(), tx, domain.ModuleSettlement)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
