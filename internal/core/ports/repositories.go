package ports

import (
	"context"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for ledger identities.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// AssetRepository persists stable-asset balances (6-decimal int64 units).
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; every balance a mutating operation touches must be locked first.
type AssetRepository interface {
	BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error)
	// BalanceOfForUpdate locks the holder's row. Missing rows read as zero.
	BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (int64, error)
	// SetBalance upserts the holder's balance.
	SetBalance(ctx context.Context, tx pgx.Tx, holder uuid.UUID, balance int64) error
}

// ClaimRepository persists the two claim-token balance tables.
type ClaimRepository interface {
	BalanceOf(ctx context.Context, kind domain.ClaimKind, holder uuid.UUID) (int64, error)
	BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID) (int64, error)
	SetBalance(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID, balance int64) error
}

// VaultRepository persists per-user deposit records and the pooled balance.
type VaultRepository interface {
	GetDeposit(ctx context.Context, user uuid.UUID) (*domain.UserDeposit, error)
	GetDepositForUpdate(ctx context.Context, tx pgx.Tx, user uuid.UUID) (*domain.UserDeposit, error)
	UpsertDeposit(ctx context.Context, tx pgx.Tx, dep *domain.UserDeposit) error
	GetPoolState(ctx context.Context) (*domain.PoolState, error)
	GetPoolStateForUpdate(ctx context.Context, tx pgx.Tx) (*domain.PoolState, error)
	SetPoolState(ctx context.Context, tx pgx.Tx, state *domain.PoolState) error
}

// YieldPositionRepository persists the yield source's per-depositor ledger.
type YieldPositionRepository interface {
	Get(ctx context.Context, holder uuid.UUID) (*domain.YieldPosition, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (*domain.YieldPosition, error)
	Upsert(ctx context.Context, tx pgx.Tx, pos *domain.YieldPosition) error
}

// TreasuryRepository persists the treasury controller designation.
type TreasuryRepository interface {
	GetController(ctx context.Context) (domain.Module, error)
	GetControllerForUpdate(ctx context.Context, tx pgx.Tx) (domain.Module, error)
	SetController(ctx context.Context, tx pgx.Tx, controller domain.Module) error
}

// MerchantRepository defines persistence operations for merchant records.
type MerchantRepository interface {
	Create(ctx context.Context, tx pgx.Tx, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Merchant, error)
	Update(ctx context.Context, tx pgx.Tx, merchant *domain.Merchant) error
	Count(ctx context.Context) (int64, error)
}

// ItemRepository defines persistence operations for the item catalog.
type ItemRepository interface {
	// Create inserts the item and returns its sequence-assigned id (first id is 1).
	Create(ctx context.Context, tx pgx.Tx, item *domain.Item) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Item, error)
	Update(ctx context.Context, tx pgx.Tx, item *domain.Item) error
	Count(ctx context.Context) (int64, error)
}

// PurchaseRepository defines persistence operations for settlement records.
type PurchaseRepository interface {
	// Create inserts the purchase and returns its sequence-assigned id.
	Create(ctx context.Context, tx pgx.Tx, purchase *domain.Purchase) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)
	// MarkPaidByMerchant flips historical unpaid purchases to paid (legacy
	// deferred-settlement path). Returns the number of rows updated.
	MarkPaidByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error)
}

// FeeRepository persists the platform fee accumulator (singleton row).
type FeeRepository interface {
	Get(ctx context.Context) (int64, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (int64, error)
	Set(ctx context.Context, tx pgx.Tx, amount int64) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
