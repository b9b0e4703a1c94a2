package postgres

import (
	"context"
	"fmt"

	"yieldback-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TreasuryRepo implements ports.TreasuryRepository. The controller
// designation is a singleton row seeded by migration.
type TreasuryRepo struct {
	pool Pool
}

// NewTreasuryRepo creates a new TreasuryRepo.
func NewTreasuryRepo(pool Pool) *TreasuryRepo {
	return &TreasuryRepo{pool: pool}
}

// GetController fetches the current controller without locking.
func (r *TreasuryRepo) GetController(ctx context.Context) (domain.Module, error) {
	query := `SELECT controller FROM treasury_state WHERE id = 1`

	var controller domain.Module
	if err := r.pool.QueryRow(ctx, query).Scan(&controller); err != nil {
		return "", fmt.Errorf("get treasury controller: %w", err)
	}
	return controller, nil
}

// GetControllerForUpdate fetches the current controller with pessimistic
// locking. This MUST be called within a transaction.
func (r *TreasuryRepo) GetControllerForUpdate(ctx context.Context, tx pgx.Tx) (domain.Module, error) {
	query := `SELECT controller FROM treasury_state WHERE id = 1 FOR UPDATE`

	var controller domain.Module
	if err := tx.QueryRow(ctx, query).Scan(&controller); err != nil {
		return "", fmt.Errorf("get treasury controller for update: %w", err)
	}
	return controller, nil
}

// SetController writes the controller designation within a transaction.
func (r *TreasuryRepo) SetController(ctx context.Context, tx pgx.Tx, controller domain.Module) error {
	query := `UPDATE treasury_state SET controller = $1, updated_at = NOW() WHERE id = 1`

	tag, err := tx.Exec(ctx, query, controller)
	if err != nil {
		return fmt.Errorf("set treasury controller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("treasury state row missing")
	}
	return nil
}
