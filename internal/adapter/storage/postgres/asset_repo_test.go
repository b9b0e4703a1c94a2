package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetRepo_BalanceOf(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAssetRepo(mock)
	holder := uuid.New()

	mock.ExpectQuery("SELECT balance FROM asset_balances WHERE holder").
		WithArgs(holder).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(1_000_000)))

	balance, err := repo.BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepo_BalanceOf_MissingRowReadsZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAssetRepo(mock)

	mock.ExpectQuery("SELECT balance FROM asset_balances WHERE holder").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))

	balance, err := repo.BalanceOf(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepo_BalanceOfForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAssetRepo(mock)
	holder := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM asset_balances WHERE holder = \\$1 FOR UPDATE").
		WithArgs(holder).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(500)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	balance, err := repo.BalanceOfForUpdate(context.Background(), tx, holder)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepo_SetBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAssetRepo(mock)
	holder := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO asset_balances").
		WithArgs(holder, int64(42)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.SetBalance(context.Background(), tx, holder, 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
