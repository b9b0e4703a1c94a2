package service

import (
	"context"
	"fmt"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FaucetServiceImpl implements ports.FaucetService: a dev/test money tap that
// credits a fixed grant per claim with a per-account cooldown enforced in
// Redis.
type FaucetServiceImpl struct {
	assetRepo  ports.AssetRepository
	transactor ports.DBTransactor
	cooldown   ports.CooldownStore
	audit      ports.AuditService
	grant      int64
	window     time.Duration
	log        zerolog.Logger
}

// NewFaucetService creates a new FaucetServiceImpl.
func NewFaucetService(
	assetRepo ports.AssetRepository,
	transactor ports.DBTransactor,
	cooldown ports.CooldownStore,
	audit ports.AuditService,
	grant int64,
	window time.Duration,
	log zerolog.Logger,
) *FaucetServiceImpl {
	return &FaucetServiceImpl{
		assetRepo:  assetRepo,
		transactor: transactor,
		cooldown:   cooldown,
		audit:      audit,
		grant:      grant,
		window:     window,
		log:        log,
	}
}

// Claim credits the fixed grant to the caller's asset balance. At most one
// claim per account per cooldown window.
func (s *FaucetServiceImpl) Claim(ctx context.Context, user uuid.UUID) (int64, error) {
	allowed, err := s.cooldown.CheckAndSet(ctx, user.String(), s.window)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("check cooldown: %w", err))
	}
	if !allowed {
		return 0, apperror.ErrClaimTooSoon()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	balance, err := s.assetRepo.BalanceOfForUpdate(ctx, tx, user)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock balance: %w", err))
	}
	if err := s.assetRepo.SetBalance(ctx, tx, user, balance+s.grant); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("credit grant: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("user", user.String()).Int64("grant", s.grant).Msg("faucet claim granted")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &user,
		Action:    domain.AuditActionFaucetClaim,
		Details:   fmt.Sprintf("grant=%d", s.grant),
	})
	return s.grant, nil
}
