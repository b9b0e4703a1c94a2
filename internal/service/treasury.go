package service

import (
	"context"
	"fmt"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TreasuryImpl implements ports.Treasury. The treasury holds fees and
// harvested yield in a dedicated system account and disburses only on
// instruction from its current controller.
type TreasuryImpl struct {
	assets     ports.AssetRepository
	state      ports.TreasuryRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewTreasury creates a new TreasuryImpl.
func NewTreasury(assets ports.AssetRepository, state ports.TreasuryRepository, transactor ports.DBTransactor, log zerolog.Logger) *TreasuryImpl {
	return &TreasuryImpl{assets: assets, state: state, transactor: transactor, log: log}
}

// Receive moves stable asset from a holder into the treasury account.
func (t *TreasuryImpl) Receive(ctx context.Context, tx pgx.Tx, from uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	fromBalance, err := t.assets.BalanceOfForUpdate(ctx, tx, from)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock source balance: %w", err))
	}
	if fromBalance < amount {
		return apperror.ErrInsufficientBalance()
	}
	treasuryBalance, err := t.assets.BalanceOfForUpdate(ctx, tx, domain.TreasuryAccount)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock treasury balance: %w", err))
	}

	if err := t.assets.SetBalance(ctx, tx, from, fromBalance-amount); err != nil {
		return apperror.InternalError(fmt.Errorf("debit source: %w", err))
	}
	if err := t.assets.SetBalance(ctx, tx, domain.TreasuryAccount, treasuryBalance+amount); err != nil {
		return apperror.InternalError(fmt.Errorf("credit treasury: %w", err))
	}

	t.log.Debug().Str("from", from.String()).Int64("amount", amount).Msg("treasury received")
	return nil
}

// Pay moves stable asset out of the treasury. Only the current controller
// may instruct a payment.
func (t *TreasuryImpl) Pay(ctx context.Context, tx pgx.Tx, caller domain.Module, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	controller, err := t.state.GetControllerForUpdate(ctx, tx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("read treasury controller: %w", err))
	}
	if caller != controller {
		return apperror.ErrUnauthorized()
	}

	treasuryBalance, err := t.assets.BalanceOfForUpdate(ctx, tx, domain.TreasuryAccount)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock treasury balance: %w", err))
	}
	if treasuryBalance < amount {
		return apperror.ErrInsufficientBalance()
	}
	toBalance, err := t.assets.BalanceOfForUpdate(ctx, tx, to)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock recipient balance: %w", err))
	}

	if err := t.assets.SetBalance(ctx, tx, domain.TreasuryAccount, treasuryBalance-amount); err != nil {
		return apperror.InternalError(fmt.Errorf("debit treasury: %w", err))
	}
	if err := t.assets.SetBalance(ctx, tx, to, toBalance+amount); err != nil {
		return apperror.InternalError(fmt.Errorf("credit recipient: %w", err))
	}

	t.log.Debug().Str("to", to.String()).Int64("amount", amount).Msg("treasury paid")
	return nil
}

// Balance returns the treasury's current stable-asset balance.
func (t *TreasuryImpl) Balance(ctx context.Context) (int64, error) {
	balance, err := t.assets.BalanceOf(ctx, domain.TreasuryAccount)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("treasury balance: %w", err))
	}
	return balance, nil
}

// Controller returns the treasury's current controller.
func (t *TreasuryImpl) Controller(ctx context.Context) (domain.Module, error) {
	controller, err := t.state.GetController(ctx)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("treasury controller: %w", err))
	}
	return controller, nil
}

// TransferControl hands the controller role to a new module. Only the current
// controller may transfer control; the handoff from operator to settlement
// must happen before any purchase can settle.
func (t *TreasuryImpl) TransferControl(ctx context.Context, caller domain.Module, newController domain.Module) error {
	dbTx, err := t.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	controller, err := t.state.GetControllerForUpdate(ctx, dbTx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("read treasury controller: %w", err))
	}
	if caller != controller {
		return apperror.ErrUnauthorized()
	}

	if err := t.state.SetController(ctx, dbTx, newController); err != nil {
		return apperror.InternalError(fmt.Errorf("set treasury controller: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	t.log.Info().
		Str("from", string(controller)).
		Str("to", string(newController)).
		Msg("treasury control transferred")
	return nil
}
