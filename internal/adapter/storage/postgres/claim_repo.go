package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClaimRepo implements ports.ClaimRepository. Both claim kinds share one
// table keyed by (kind, holder); a missing row reads as a zero balance.
type ClaimRepo struct {
	pool Pool
}

// NewClaimRepo creates a new ClaimRepo.
func NewClaimRepo(pool Pool) *ClaimRepo {
	return &ClaimRepo{pool: pool}
}

// BalanceOf fetches a claim balance without locking.
func (r *ClaimRepo) BalanceOf(ctx context.Context, kind domain.ClaimKind, holder uuid.UUID) (int64, error) {
	query := `SELECT balance FROM claim_balances WHERE kind = $1 AND holder = $2`

	var balance int64
	err := r.pool.QueryRow(ctx, query, kind, holder).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get claim balance: %w", err)
	}
	return balance, nil
}

// BalanceOfForUpdate fetches a claim balance with pessimistic locking.
// This MUST be called within a transaction.
func (r *ClaimRepo) BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID) (int64, error) {
	query := `SELECT balance FROM claim_balances WHERE kind = $1 AND holder = $2 FOR UPDATE`

	var balance int64
	err := tx.QueryRow(ctx, query, kind, holder).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get claim balance for update: %w", err)
	}
	return balance, nil
}

// SetBalance upserts a claim balance within a transaction.
func (r *ClaimRepo) SetBalance(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID, balance int64) error {
	query := `INSERT INTO claim_balances (kind, holder, balance, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (kind, holder) DO UPDATE SET balance = $3, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, kind, holder, balance)
	if err != nil {
		return fmt.Errorf("set claim balance: %w", err)
	}
	return nil
}
