package service

import (
	"context"
	"testing"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupTokenLedger(t *testing.T) (*TokenLedgerImpl, *mocks.MockClaimRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	claims := mocks.NewMockClaimRepository(ctrl)
	return NewTokenLedger(claims, zerolog.Nop()), claims, ctrl
}

func TestTokenLedger_Mint_Success(t *testing.T) {
	ledger, claims, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()
	tx := &mockTx{}

	claims.EXPECT().BalanceOfForUpdate(ctx, tx, domain.ClaimPrincipal, user).Return(int64(100), nil)
	claims.EXPECT().SetBalance(ctx, tx, domain.ClaimPrincipal, user, int64(150)).Return(nil)

	err := ledger.Mint(ctx, tx, domain.ModuleVault, domain.ClaimPrincipal, user, 50)
	require.NoError(t, err)
}

func TestTokenLedger_Mint_UnauthorizedModule(t *testing.T) {
	ledger, _, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	// Settlement may burn yield claims but never mint them
	err := ledger.Mint(context.Background(), &mockTx{}, domain.ModuleSettlement, domain.ClaimYield, uuid.New(), 50)
	assertAppError(t, err, "LED_005")
}

func TestTokenLedger_Burn_Success(t *testing.T) {
	ledger, claims, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()
	tx := &mockTx{}

	claims.EXPECT().BalanceOfForUpdate(ctx, tx, domain.ClaimYield, user).Return(int64(70), nil)
	claims.EXPECT().SetBalance(ctx, tx, domain.ClaimYield, user, int64(0)).Return(nil)

	err := ledger.Burn(ctx, tx, domain.ModuleSettlement, domain.ClaimYield, user, 70)
	require.NoError(t, err)
}

func TestTokenLedger_Burn_InsufficientBalance(t *testing.T) {
	ledger, claims, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()
	tx := &mockTx{}

	claims.EXPECT().BalanceOfForUpdate(ctx, tx, domain.ClaimPrincipal, user).Return(int64(10), nil)

	err := ledger.Burn(ctx, tx, domain.ModuleVault, domain.ClaimPrincipal, user, 20)
	assertAppError(t, err, "LED_002")
}

func TestTokenLedger_Burn_PrincipalBySettlementRejected(t *testing.T) {
	ledger, _, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	err := ledger.Burn(context.Background(), &mockTx{}, domain.ModuleSettlement, domain.ClaimPrincipal, uuid.New(), 5)
	assertAppError(t, err, "LED_005")
}

func TestTokenLedger_Mint_ZeroAmount(t *testing.T) {
	ledger, _, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	err := ledger.Mint(context.Background(), &mockTx{}, domain.ModuleVault, domain.ClaimPrincipal, uuid.New(), 0)
	assertAppError(t, err, "LED_001")
}

func TestTokenLedger_BalanceOf(t *testing.T) {
	ledger, claims, ctrl := setupTokenLedger(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()
	claims.EXPECT().BalanceOf(ctx, domain.ClaimYield, user).Return(int64(33), nil)

	balance, err := ledger.BalanceOf(ctx, domain.ClaimYield, user)
	require.NoError(t, err)
	assert.Equal(t, int64(33), balance)
}
