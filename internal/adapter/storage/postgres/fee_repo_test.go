package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeRepo_GetForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFeeRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT accrued FROM platform_fees WHERE id = 1 FOR UPDATE").
		WillReturnRows(pgxmock.NewRows([]string{"accrued"}).AddRow(int64(250_000)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	amount, err := repo.GetForUpdate(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepo_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFeeRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE platform_fees SET accrued").
		WithArgs(int64(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Set(context.Background(), tx, 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
