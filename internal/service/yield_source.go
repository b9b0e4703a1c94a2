package service

import (
	"context"
	"fmt"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// YieldSourceImpl implements ports.YieldSource as a simulated venue: deposits
// are tracked per holder, and accrued yield is credited out of thin air at
// claim time (the venue "generates" it). Asset custody moves between the
// vault and yield-source system accounts so balances always reconcile.
type YieldSourceImpl struct {
	positions ports.YieldPositionRepository
	assets    ports.AssetRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewYieldSource creates a new YieldSourceImpl.
func NewYieldSource(positions ports.YieldPositionRepository, assets ports.AssetRepository, log zerolog.Logger) *YieldSourceImpl {
	return &YieldSourceImpl{
		positions: positions,
		assets:    assets,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *YieldSourceImpl) WithClock(now func() time.Time) *YieldSourceImpl {
	s.now = now
	return s
}

// Deposit records vault funds at the venue and moves custody from the vault
// account to the yield-source account. A repeat deposit accumulates principal
// and restarts the accrual clock.
func (s *YieldSourceImpl) Deposit(ctx context.Context, tx pgx.Tx, caller domain.Module, amount int64) error {
	if caller != domain.ModuleVault {
		return apperror.ErrUnauthorized()
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	pos, err := s.positions.GetForUpdate(ctx, tx, domain.VaultAccount)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock yield position: %w", err))
	}
	if pos == nil {
		pos = &domain.YieldPosition{Holder: domain.VaultAccount}
	}
	pos.Principal += amount
	pos.DepositedAt = s.now()
	if err := s.positions.Upsert(ctx, tx, pos); err != nil {
		return apperror.InternalError(fmt.Errorf("save yield position: %w", err))
	}

	if err := s.moveAsset(ctx, tx, domain.VaultAccount, domain.YieldSourceAccount, amount); err != nil {
		return err
	}

	s.log.Info().Int64("amount", amount).Int64("principal", pos.Principal).Msg("pool deployed to yield source")
	return nil
}

// Withdraw pulls principal back into vault custody.
func (s *YieldSourceImpl) Withdraw(ctx context.Context, tx pgx.Tx, caller domain.Module, amount int64) error {
	if caller != domain.ModuleVault {
		return apperror.ErrUnauthorized()
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	pos, err := s.positions.GetForUpdate(ctx, tx, domain.VaultAccount)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock yield position: %w", err))
	}
	if pos == nil || pos.Principal < amount {
		return apperror.ErrInsufficientBalance()
	}
	pos.Principal -= amount
	if err := s.positions.Upsert(ctx, tx, pos); err != nil {
		return apperror.InternalError(fmt.Errorf("save yield position: %w", err))
	}

	if err := s.moveAsset(ctx, tx, domain.YieldSourceAccount, domain.VaultAccount, amount); err != nil {
		return err
	}

	s.log.Info().Int64("amount", amount).Msg("principal withdrawn from yield source")
	return nil
}

// CalculateYield returns the yield accrued so far for a holder. View only.
func (s *YieldSourceImpl) CalculateYield(ctx context.Context, holder uuid.UUID) (int64, error) {
	pos, err := s.positions.Get(ctx, holder)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("read yield position: %w", err))
	}
	if pos == nil {
		return 0, nil
	}
	return pos.AccruedYield(s.now()), nil
}

// ClaimYield pays accrued yield to the vault account and restarts the accrual
// clock. Principal is untouched so interest never compounds.
func (s *YieldSourceImpl) ClaimYield(ctx context.Context, tx pgx.Tx, caller domain.Module) (int64, error) {
	if caller != domain.ModuleVault {
		return 0, apperror.ErrUnauthorized()
	}
	return s.payAccrued(ctx, tx, domain.VaultAccount)
}

// DistributeYield is the operator-triggered push variant, paying accrued
// yield to an arbitrary depositor's account.
func (s *YieldSourceImpl) DistributeYield(ctx context.Context, tx pgx.Tx, caller domain.Module, to uuid.UUID) (int64, error) {
	if caller != domain.ModuleOperator {
		return 0, apperror.ErrUnauthorized()
	}
	return s.payAccrued(ctx, tx, to)
}

func (s *YieldSourceImpl) payAccrued(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (int64, error) {
	pos, err := s.positions.GetForUpdate(ctx, tx, holder)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock yield position: %w", err))
	}
	if pos == nil {
		return 0, apperror.ErrNoYieldAccrued()
	}

	now := s.now()
	yield := pos.AccruedYield(now)
	if yield <= 0 {
		return 0, apperror.ErrNoYieldAccrued()
	}

	pos.DepositedAt = now
	if err := s.positions.Upsert(ctx, tx, pos); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("save yield position: %w", err))
	}

	// The simulated venue mints the interest it owes.
	balance, err := s.assets.BalanceOfForUpdate(ctx, tx, holder)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock holder balance: %w", err))
	}
	if err := s.assets.SetBalance(ctx, tx, holder, balance+yield); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("credit yield: %w", err))
	}

	s.log.Info().Str("holder", holder.String()).Int64("yield", yield).Msg("yield paid out")
	return yield, nil
}

func (s *YieldSourceImpl) moveAsset(ctx context.Context, tx pgx.Tx, from, to uuid.UUID, amount int64) error {
	fromBalance, err := s.assets.BalanceOfForUpdate(ctx, tx, from)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock source balance: %w", err))
	}
	if fromBalance < amount {
		return apperror.ErrInsufficientBalance()
	}
	toBalance, err := s.assets.BalanceOfForUpdate(ctx, tx, to)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock destination balance: %w", err))
	}
	if err := s.assets.SetBalance(ctx, tx, from, fromBalance-amount); err != nil {
		return apperror.InternalError(fmt.Errorf("debit source: %w", err))
	}
	if err := s.assets.SetBalance(ctx, tx, to, toBalance+amount); err != nil {
		return apperror.InternalError(fmt.Errorf("credit destination: %w", err))
	}
	return nil
}
