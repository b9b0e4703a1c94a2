package postgres

import (
	"context"
	"testing"
	"time"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMerchant() *domain.Merchant {
	return &domain.Merchant{
		AccountID:        uuid.New(),
		Name:             "Test Shop",
		Description:      "sells things for yield",
		WebhookURL:       strPtr("https://example.com/webhook"),
		WebhookSecretEnc: "encrypted_webhook_secret",
		TotalSales:       0,
		PendingPayment:   0,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func strPtr(s string) *string { return &s }

func merchantColumns() []string {
	return []string{"account_id", "name", "description", "webhook_url", "webhook_secret_enc", "total_sales", "pending_payment", "created_at", "updated_at"}
}

func merchantRow(m *domain.Merchant) *pgxmock.Rows {
	return pgxmock.NewRows(merchantColumns()).AddRow(
		m.AccountID, m.Name, m.Description, m.WebhookURL, m.WebhookSecretEnc,
		m.TotalSales, m.PendingPayment, m.CreatedAt, m.UpdatedAt,
	)
}

func TestMerchantRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO merchants").
		WithArgs(m.AccountID, m.Name, m.Description, m.WebhookURL, m.WebhookSecretEnc,
			m.TotalSales, m.PendingPayment, m.CreatedAt, m.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant()

	mock.ExpectQuery("SELECT .+ FROM merchants WHERE account_id").
		WithArgs(m.AccountID).
		WillReturnRows(merchantRow(m))

	result, err := repo.GetByID(context.Background(), m.AccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, m.AccountID, result.AccountID)
	assert.Equal(t, m.Name, result.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM merchants WHERE account_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(merchantColumns()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM merchants WHERE account_id = \\$1 FOR UPDATE").
		WithArgs(m.AccountID).
		WillReturnRows(merchantRow(m))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, m.AccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, m.AccountID, result.AccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant()
	m.TotalSales = 10_000_000

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs(m.Name, m.Description, m.WebhookURL, m.WebhookSecretEnc,
			m.TotalSales, m.PendingPayment, m.AccountID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
