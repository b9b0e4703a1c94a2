package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository. Merchant records are
// keyed by the owning account's UUID.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant record within a transaction.
func (r *MerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	query := `INSERT INTO merchants (account_id, name, description, webhook_url, webhook_secret_enc, total_sales, pending_payment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		m.AccountID, m.Name, m.Description, m.WebhookURL, m.WebhookSecretEnc,
		m.TotalSales, m.PendingPayment, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by account UUID without locking.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT account_id, name, description, webhook_url, webhook_secret_enc, total_sales, pending_payment, created_at, updated_at
		FROM merchants WHERE account_id = $1`

	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.AccountID, &m.Name, &m.Description, &m.WebhookURL, &m.WebhookSecretEnc,
		&m.TotalSales, &m.PendingPayment, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}
	return m, nil
}

// GetByIDForUpdate fetches a merchant by account UUID with pessimistic
// locking. This MUST be called within a transaction.
func (r *MerchantRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT account_id, name, description, webhook_url, webhook_secret_enc, total_sales, pending_payment, created_at, updated_at
		FROM merchants WHERE account_id = $1 FOR UPDATE`

	m := &domain.Merchant{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&m.AccountID, &m.Name, &m.Description, &m.WebhookURL, &m.WebhookSecretEnc,
		&m.TotalSales, &m.PendingPayment, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant for update: %w", err)
	}
	return m, nil
}

// Update writes a merchant record within a transaction.
func (r *MerchantRepo) Update(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	query := `UPDATE merchants
		SET name = $1, description = $2, webhook_url = $3, webhook_secret_enc = $4, total_sales = $5, pending_payment = $6, updated_at = NOW()
		WHERE account_id = $7`

	tag, err := tx.Exec(ctx, query,
		m.Name, m.Description, m.WebhookURL, m.WebhookSecretEnc,
		m.TotalSales, m.PendingPayment, m.AccountID,
	)
	if err != nil {
		return fmt.Errorf("update merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", m.AccountID)
	}
	return nil
}

// Count returns the number of registered merchants.
func (r *MerchantRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM merchants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count merchants: %w", err)
	}
	return count, nil
}
