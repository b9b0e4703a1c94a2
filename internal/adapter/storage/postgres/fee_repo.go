package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FeeRepo implements ports.FeeRepository. The accumulator is a singleton row
// seeded by migration; collection resets it to zero.
type FeeRepo struct {
	pool Pool
}

// NewFeeRepo creates a new FeeRepo.
func NewFeeRepo(pool Pool) *FeeRepo {
	return &FeeRepo{pool: pool}
}

// Get fetches the accrued fee total without locking.
func (r *FeeRepo) Get(ctx context.Context) (int64, error) {
	var amount int64
	if err := r.pool.QueryRow(ctx, `SELECT accrued FROM platform_fees WHERE id = 1`).Scan(&amount); err != nil {
		return 0, fmt.Errorf("get platform fees: %w", err)
	}
	return amount, nil
}

// GetForUpdate fetches the accrued fee total with pessimistic locking.
// This MUST be called within a transaction.
func (r *FeeRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (int64, error) {
	var amount int64
	if err := tx.QueryRow(ctx, `SELECT accrued FROM platform_fees WHERE id = 1 FOR UPDATE`).Scan(&amount); err != nil {
		return 0, fmt.Errorf("get platform fees for update: %w", err)
	}
	return amount, nil
}

// Set writes the accrued fee total within a transaction.
func (r *FeeRepo) Set(ctx context.Context, tx pgx.Tx, amount int64) error {
	tag, err := tx.Exec(ctx, `UPDATE platform_fees SET accrued = $1, updated_at = NOW() WHERE id = 1`, amount)
	if err != nil {
		return fmt.Errorf("set platform fees: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("platform fee row missing")
	}
	return nil
}
