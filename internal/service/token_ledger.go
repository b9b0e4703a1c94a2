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

// TokenLedgerImpl implements ports.TokenLedger on top of the claim balance
// table. Mint and burn run inside the caller's transaction so claim movements
// commit or roll back together with the operation that caused them.
type TokenLedgerImpl struct {
	claims  ports.ClaimRepository
	minters map[domain.ClaimKind]map[domain.Module]bool
	burners map[domain.ClaimKind]map[domain.Module]bool
	log     zerolog.Logger
}

// NewTokenLedger creates a TokenLedgerImpl with the protocol's fixed access
// allowlist: the vault mints and burns principal claims and mints yield
// claims; yield claims are burned by the vault and the settlement module.
func NewTokenLedger(claims ports.ClaimRepository, log zerolog.Logger) *TokenLedgerImpl {
	return &TokenLedgerImpl{
		claims: claims,
		minters: map[domain.ClaimKind]map[domain.Module]bool{
			domain.ClaimPrincipal: {domain.ModuleVault: true},
			domain.ClaimYield:     {domain.ModuleVault: true},
		},
		burners: map[domain.ClaimKind]map[domain.Module]bool{
			domain.ClaimPrincipal: {domain.ModuleVault: true},
			domain.ClaimYield:     {domain.ModuleVault: true, domain.ModuleSettlement: true},
		},
		log: log,
	}
}

// Mint credits a claim balance. Restricted to the kind's minter allowlist.
func (l *TokenLedgerImpl) Mint(ctx context.Context, tx pgx.Tx, caller domain.Module, kind domain.ClaimKind, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if !l.minters[kind][caller] {
		return apperror.ErrUnauthorized()
	}

	balance, err := l.claims.BalanceOfForUpdate(ctx, tx, kind, to)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock claim balance: %w", err))
	}
	if err := l.claims.SetBalance(ctx, tx, kind, to, balance+amount); err != nil {
		return apperror.InternalError(fmt.Errorf("mint claim: %w", err))
	}

	l.log.Debug().
		Str("kind", string(kind)).
		Str("to", to.String()).
		Int64("amount", amount).
		Msg("claim minted")
	return nil
}

// Burn debits a claim balance. Restricted to the kind's burner allowlist.
func (l *TokenLedgerImpl) Burn(ctx context.Context, tx pgx.Tx, caller domain.Module, kind domain.ClaimKind, from uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if !l.burners[kind][caller] {
		return apperror.ErrUnauthorized()
	}

	balance, err := l.claims.BalanceOfForUpdate(ctx, tx, kind, from)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock claim balance: %w", err))
	}
	if balance < amount {
		return apperror.ErrInsufficientBalance()
	}
	if err := l.claims.SetBalance(ctx, tx, kind, from, balance-amount); err != nil {
		return apperror.InternalError(fmt.Errorf("burn claim: %w", err))
	}

	l.log.Debug().
		Str("kind", string(kind)).
		Str("from", from.String()).
		Int64("amount", amount).
		Msg("claim burned")
	return nil
}

// BalanceOf returns a holder's claim balance (non-locking read).
func (l *TokenLedgerImpl) BalanceOf(ctx context.Context, kind domain.ClaimKind, holder uuid.UUID) (int64, error) {
	balance, err := l.claims.BalanceOf(ctx, kind, holder)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("claim balance: %w", err))
	}
	return balance, nil
}
