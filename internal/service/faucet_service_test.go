package service

import (
	"context"
	"testing"
	"time"

	"yieldback-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testFaucetGrant  = int64(1_000_000_000) // 1000 units at 6 decimals
	testFaucetWindow = 24 * time.Hour
)

type faucetTestDeps struct {
	svc        *FaucetServiceImpl
	assetRepo  *mocks.MockAssetRepository
	transactor *mocks.MockDBTransactor
	cooldown   *mocks.MockCooldownStore
	ctrl       *gomock.Controller
}

func setupFaucetService(t *testing.T) *faucetTestDeps {
	ctrl := gomock.NewController(t)
	d := &faucetTestDeps{
		assetRepo:  mocks.NewMockAssetRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		cooldown:   mocks.NewMockCooldownStore(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewFaucetService(
		d.assetRepo, d.transactor, d.cooldown,
		NewAuditService(nil, zerolog.Nop()),
		testFaucetGrant, testFaucetWindow, zerolog.Nop(),
	)
	return d
}

func TestFaucetService_Claim_Success(t *testing.T) {
	d := setupFaucetService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()
	tx := &mockTx{}

	d.cooldown.EXPECT().CheckAndSet(ctx, user.String(), testFaucetWindow).Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.assetRepo.EXPECT().BalanceOfForUpdate(ctx, tx, user).Return(int64(5), nil)
	d.assetRepo.EXPECT().SetBalance(ctx, tx, user, testFaucetGrant+5).Return(nil)

	granted, err := d.svc.Claim(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, testFaucetGrant, granted)
}

func TestFaucetService_Claim_TooSoon(t *testing.T) {
	d := setupFaucetService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := uuid.New()

	d.cooldown.EXPECT().CheckAndSet(ctx, user.String(), testFaucetWindow).Return(false, nil)

	granted, err := d.svc.Claim(ctx, user)
	assert.Zero(t, granted)
	assertAppError(t, err, "LED_015")
}
