package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AssetRepo implements ports.AssetRepository. Balances live in a single
// holder-keyed table; a missing row reads as a zero balance.
type AssetRepo struct {
	pool Pool
}

// NewAssetRepo creates a new AssetRepo.
func NewAssetRepo(pool Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

// BalanceOf fetches a holder's balance without locking.
func (r *AssetRepo) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	query := `SELECT balance FROM asset_balances WHERE holder = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, holder).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get asset balance: %w", err)
	}
	return balance, nil
}

// BalanceOfForUpdate fetches a holder's balance with pessimistic locking.
// This MUST be called within a transaction.
func (r *AssetRepo) BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (int64, error) {
	query := `SELECT balance FROM asset_balances WHERE holder = $1 FOR UPDATE`

	var balance int64
	err := tx.QueryRow(ctx, query, holder).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get asset balance for update: %w", err)
	}
	return balance, nil
}

// SetBalance upserts a holder's balance within a transaction.
func (r *AssetRepo) SetBalance(ctx context.Context, tx pgx.Tx, holder uuid.UUID, balance int64) error {
	query := `INSERT INTO asset_balances (holder, balance, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (holder) DO UPDATE SET balance = $2, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, holder, balance)
	if err != nil {
		return fmt.Errorf("set asset balance: %w", err)
	}
	return nil
}
