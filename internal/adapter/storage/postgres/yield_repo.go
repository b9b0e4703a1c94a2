package postgres

import (
	"context"
	"errors"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// YieldPositionRepo implements ports.YieldPositionRepository.
type YieldPositionRepo struct {
	pool Pool
}

// NewYieldPositionRepo creates a new YieldPositionRepo.
func NewYieldPositionRepo(pool Pool) *YieldPositionRepo {
	return &YieldPositionRepo{pool: pool}
}

// Get fetches a holder's position without locking.
func (r *YieldPositionRepo) Get(ctx context.Context, holder uuid.UUID) (*domain.YieldPosition, error) {
	query := `SELECT holder, principal, deposited_at FROM yield_positions WHERE holder = $1`

	p := &domain.YieldPosition{}
	err := r.pool.QueryRow(ctx, query, holder).Scan(&p.Holder, &p.Principal, &p.DepositedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get yield position: %w", err)
	}
	return p, nil
}

// GetForUpdate fetches a holder's position with pessimistic locking.
// This MUST be called within a transaction.
func (r *YieldPositionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (*domain.YieldPosition, error) {
	query := `SELECT holder, principal, deposited_at FROM yield_positions WHERE holder = $1 FOR UPDATE`

	p := &domain.YieldPosition{}
	err := tx.QueryRow(ctx, query, holder).Scan(&p.Holder, &p.Principal, &p.DepositedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get yield position for update: %w", err)
	}
	return p, nil
}

// Upsert writes a holder's position within a transaction.
func (r *YieldPositionRepo) Upsert(ctx context.Context, tx pgx.Tx, pos *domain.YieldPosition) error {
	query := `INSERT INTO yield_positions (holder, principal, deposited_at, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (holder) DO UPDATE SET principal = $2, deposited_at = $3, updated_at = NOW()`

	_, err := tx.Exec(ctx, query, pos.Holder, pos.Principal, pos.DepositedAt)
	if err != nil {
		return fmt.Errorf("upsert yield position: %w", err)
	}
	return nil
}
