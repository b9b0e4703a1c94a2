package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VaultRepo implements ports.VaultRepository. Deposit records are one row per
// user (the vault keeps a single slot); pool state is a singleton row.
type VaultRepo struct {
	pool Pool
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

// GetDeposit fetches a user's deposit record without locking.
func (r *VaultRepo) GetDeposit(ctx context.Context, user uuid.UUID) (*domain.UserDeposit, error) {
	query := `SELECT user_id, principal, deposit_time, has_withdrawn, updated_at
		FROM vault_deposits WHERE user_id = $1`

	d := &domain.UserDeposit{}
	err := r.pool.QueryRow(ctx, query, user).Scan(
		&d.UserID, &d.Principal, &d.DepositTime, &d.HasWithdrawn, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	return d, nil
}

// GetDepositForUpdate fetches a user's deposit record with pessimistic locking.
// This MUST be called within a transaction.
func (r *VaultRepo) GetDepositForUpdate(ctx context.Context, tx pgx.Tx, user uuid.UUID) (*domain.UserDeposit, error) {
	query := `SELECT user_id, principal, deposit_time, has_withdrawn, updated_at
		FROM vault_deposits WHERE user_id = $1 FOR UPDATE`

	d := &domain.UserDeposit{}
	err := tx.QueryRow(ctx, query, user).Scan(
		&d.UserID, &d.Principal, &d.DepositTime, &d.HasWithdrawn, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deposit for update: %w", err)
	}
	return d, nil
}

// UpsertDeposit writes a user's deposit record within a transaction.
func (r *VaultRepo) UpsertDeposit(ctx context.Context, tx pgx.Tx, dep *domain.UserDeposit) error {
	query := `INSERT INTO vault_deposits (user_id, principal, deposit_time, has_withdrawn, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET principal = $2, deposit_time = $3, has_withdrawn = $4, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, dep.UserID, dep.Principal, dep.DepositTime, dep.HasWithdrawn)
	if err != nil {
		return fmt.Errorf("upsert deposit: %w", err)
	}
	return nil
}

// GetPoolState fetches the pool state without locking.
func (r *VaultRepo) GetPoolState(ctx context.Context) (*domain.PoolState, error) {
	query := `SELECT total_pooled, last_deployment_at FROM vault_pool WHERE id = 1`

	s := &domain.PoolState{}
	err := r.pool.QueryRow(ctx, query).Scan(&s.TotalPooled, &s.LastDeploymentAt)
	if err != nil {
		return nil, fmt.Errorf("get pool state: %w", err)
	}
	return s, nil
}

// GetPoolStateForUpdate fetches the pool state with pessimistic locking.
// The singleton row is seeded by migration; a missing row is an error.
func (r *VaultRepo) GetPoolStateForUpdate(ctx context.Context, tx pgx.Tx) (*domain.PoolState, error) {
	query := `SELECT total_pooled, last_deployment_at FROM vault_pool WHERE id = 1 FOR UPDATE`

	s := &domain.PoolState{}
	err := tx.QueryRow(ctx, query).Scan(&s.TotalPooled, &s.LastDeploymentAt)
	if err != nil {
		return nil, fmt.Errorf("get pool state for update: %w", err)
	}
	return s, nil
}

// SetPoolState writes the pool state within a transaction.
func (r *VaultRepo) SetPoolState(ctx context.Context, tx pgx.Tx, state *domain.PoolState) error {
	query := `UPDATE vault_pool SET total_pooled = $1, last_deployment_at = $2, updated_at = NOW() WHERE id = 1`

	tag, err := tx.Exec(ctx, query, state.TotalPooled, state.LastDeploymentAt)
	if err != nil {
		return fmt.Errorf("set pool state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pool state row missing")
	}
	return nil
}
