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

type treasuryTestDeps struct {
	svc        *TreasuryImpl
	assets     *mocks.MockAssetRepository
	state      *mocks.MockTreasuryRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupTreasury(t *testing.T) *treasuryTestDeps {
	ctrl := gomock.NewController(t)
	d := &treasuryTestDeps{
		assets:     mocks.NewMockAssetRepository(ctrl),
		state:      mocks.NewMockTreasuryRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewTreasury(d.assets, d.state, d.transactor, zerolog.Nop())
	return d
}

func TestTreasury_Receive_Success(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	from := uuid.New()

	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, from).Return(int64(1000), nil)
	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, domain.TreasuryAccount).Return(int64(200), nil)
	d.assets.EXPECT().SetBalance(ctx, tx, from, int64(700)).Return(nil)
	d.assets.EXPECT().SetBalance(ctx, tx, domain.TreasuryAccount, int64(500)).Return(nil)

	err := d.svc.Receive(ctx, tx, from, 300)
	require.NoError(t, err)
}

func TestTreasury_Receive_InsufficientSource(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	from := uuid.New()

	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, from).Return(int64(10), nil)

	err := d.svc.Receive(ctx, tx, from, 300)
	assertAppError(t, err, "LED_002")
}

func TestTreasury_Pay_ByController(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	to := uuid.New()

	d.state.EXPECT().GetControllerForUpdate(ctx, tx).Return(domain.ModuleSettlement, nil)
	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, domain.TreasuryAccount).Return(int64(1000), nil)
	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, to).Return(int64(0), nil)
	d.assets.EXPECT().SetBalance(ctx, tx, domain.TreasuryAccount, int64(400)).Return(nil)
	d.assets.EXPECT().SetBalance(ctx, tx, to, int64(600)).Return(nil)

	err := d.svc.Pay(ctx, tx, domain.ModuleSettlement, to, 600)
	require.NoError(t, err)
}

func TestTreasury_Pay_NotController(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.state.EXPECT().GetControllerForUpdate(ctx, tx).Return(domain.ModuleOperator, nil)

	err := d.svc.Pay(ctx, tx, domain.ModuleSettlement, uuid.New(), 600)
	assertAppError(t, err, "LED_005")
}

func TestTreasury_Pay_InsufficientFunds(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.state.EXPECT().GetControllerForUpdate(ctx, tx).Return(domain.ModuleSettlement, nil)
	d.assets.EXPECT().BalanceOfForUpdate(ctx, tx, domain.TreasuryAccount).Return(int64(100), nil)

	err := d.svc.Pay(ctx, tx, domain.ModuleSettlement, uuid.New(), 600)
	assertAppError(t, err, "LED_002")
}

func TestTreasury_TransferControl_Handoff(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.state.EXPECT().GetControllerForUpdate(ctx, tx).Return(domain.ModuleOperator, nil)
	d.state.EXPECT().SetController(ctx, tx, domain.ModuleSettlement).Return(nil)

	err := d.svc.TransferControl(ctx, domain.ModuleOperator, domain.ModuleSettlement)
	require.NoError(t, err)
}

func TestTreasury_TransferControl_NotController(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.state.EXPECT().GetControllerForUpdate(ctx, tx).Return(domain.ModuleSettlement, nil)

	err := d.svc.TransferControl(ctx, domain.ModuleOperator, domain.ModuleFaucet)
	assertAppError(t, err, "LED_005")
}

func TestTreasury_Balance(t *testing.T) {
	d := setupTreasury(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.assets.EXPECT().BalanceOf(ctx, domain.TreasuryAccount).Return(int64(12345), nil)

	balance, err := d.svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), balance)
}
