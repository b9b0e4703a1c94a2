package ports

import (
	"context"
	"time"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Ledger collaborator ports ---
//
// TokenLedger, Treasury and YieldSource mirror the fixed-address collaborators
// of the settlement core. They participate in the caller's database
// transaction so every public operation stays all-or-nothing.

// TokenLedger tracks the two claim-token balance tables. Mint and burn are
// restricted to a module allowlist wired at construction.
type TokenLedger interface {
	Mint(ctx context.Context, tx pgx.Tx, caller domain.Module, kind domain.ClaimKind, to uuid.UUID, amount int64) error
	Burn(ctx context.Context, tx pgx.Tx, caller domain.Module, kind domain.ClaimKind, from uuid.UUID, amount int64) error
	BalanceOf(ctx context.Context, kind domain.ClaimKind, holder uuid.UUID) (int64, error)
}

// Treasury is the fee-and-payment escrow. Pay is restricted to the current
// controller; control is handed from the operator to the settlement module
// exactly once before purchases can settle.
type Treasury interface {
	// Receive moves stable asset from a holder into the treasury account.
	Receive(ctx context.Context, tx pgx.Tx, from uuid.UUID, amount int64) error
	// Pay moves stable asset from the treasury to a recipient. Caller must
	// be the current controller.
	Pay(ctx context.Context, tx pgx.Tx, caller domain.Module, to uuid.UUID, amount int64) error
	Balance(ctx context.Context) (int64, error)
	Controller(ctx context.Context) (domain.Module, error)
	// TransferControl performs the one-time controller handoff. Only the
	// current controller may transfer control. Runs its own transaction.
	TransferControl(ctx context.Context, caller domain.Module, newController domain.Module) error
}

// YieldSource is the deposit/withdraw/accrue abstraction standing in for an
// external yield venue. Accrual is simple 8% APY interest by elapsed time.
type YieldSource interface {
	// Deposit records vault funds at the venue (vault-only).
	Deposit(ctx context.Context, tx pgx.Tx, caller domain.Module, amount int64) error
	// Withdraw pulls principal back to the vault (vault-only). Rejects
	// amounts exceeding the recorded principal.
	Withdraw(ctx context.Context, tx pgx.Tx, caller domain.Module, amount int64) error
	// CalculateYield is a view of the accrued yield for a holder.
	CalculateYield(ctx context.Context, holder uuid.UUID) (int64, error)
	// ClaimYield pays accrued yield back to the vault and restarts the
	// accrual clock without touching principal. Zero yield is an error.
	ClaimYield(ctx context.Context, tx pgx.Tx, caller domain.Module) (int64, error)
	// DistributeYield is the operator-triggered push variant with identical
	// accrual math, targeting an arbitrary depositor.
	DistributeYield(ctx context.Context, tx pgx.Tx, caller domain.Module, to uuid.UUID) (int64, error)
}

// --- Service ports (business logic) ---

// VaultService owns deposits, withdrawal fees, pooling and harvesting.
type VaultService interface {
	Deposit(ctx context.Context, user uuid.UUID, amount int64) (*DepositResult, error)
	Withdraw(ctx context.Context, user uuid.UUID, amount int64) (*WithdrawResult, error)
	DeployPool(ctx context.Context, caller domain.Role) (*DeployResult, error)
	HarvestYield(ctx context.Context, caller domain.Role) (int64, error)
	DistributeYield(ctx context.Context, caller domain.Role, to uuid.UUID) (int64, error)
	EstimateYield(ctx context.Context, holder uuid.UUID) (int64, error)
	PooledAmount(ctx context.Context) (int64, error)
	NextDeploymentTime(ctx context.Context) (time.Time, error)
	Balances(ctx context.Context, user uuid.UUID) (*BalanceSummary, error)
}

// DepositResult reports the effects of a vault deposit.
type DepositResult struct {
	User             uuid.UUID
	Amount           int64
	PrincipalMinted  int64
	YieldClaimMinted int64
	DepositTime      time.Time
	AutoDeployed     bool
	DeployedAmount   int64
}

// WithdrawResult reports the effects of a vault withdrawal.
type WithdrawResult struct {
	User           uuid.UUID
	Amount         int64
	Fee            int64
	AmountAfterFee int64
}

// DeployResult reports a pool deployment.
type DeployResult struct {
	Amount     int64
	DeployedAt time.Time
}

// BalanceSummary aggregates a user's asset and claim balances.
type BalanceSummary struct {
	Asset          int64 `json:"asset"`
	PrincipalClaim int64 `json:"principal_claim"`
	YieldClaim     int64 `json:"yield_claim"`
}

// SettlementService owns the merchant registry, item catalog and purchase
// settlement, including the legacy deferred-payment shim.
type SettlementService interface {
	RegisterMerchant(ctx context.Context, account uuid.UUID, req RegisterMerchantRequest) (*domain.Merchant, error)
	UpdateMerchant(ctx context.Context, account uuid.UUID, req UpdateMerchantRequest) (*domain.Merchant, error)
	ListItem(ctx context.Context, merchant uuid.UUID, req ListItemRequest) (*domain.Item, error)
	UpdateItem(ctx context.Context, merchant uuid.UUID, itemID int64, req UpdateItemRequest) (*domain.Item, error)
	PurchaseItem(ctx context.Context, buyer uuid.UUID, itemID int64) (*PurchaseResult, error)
	CollectPlatformFees(ctx context.Context, caller domain.Role) (int64, error)
	// PayMerchant is the legacy deferred-settlement path.
	PayMerchant(ctx context.Context, caller domain.Role, merchantID uuid.UUID) (*PayMerchantResult, error)
	MerchantInfo(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	ItemInfo(ctx context.Context, id int64) (*domain.Item, error)
	PurchaseInfo(ctx context.Context, id int64) (*domain.Purchase, error)
	IsEligibleForPurchase(ctx context.Context, buyer uuid.UUID, itemID int64) (bool, error)
	MerchantCount(ctx context.Context) (int64, error)
	PlatformFees(ctx context.Context) (int64, error)
}

// RegisterMerchantRequest holds validated input for merchant registration.
type RegisterMerchantRequest struct {
	Name        string
	Description string
	WebhookURL  *string
}

// UpdateMerchantRequest holds validated input for merchant profile updates.
type UpdateMerchantRequest struct {
	Name        string
	Description string
	WebhookURL  *string
}

// ListItemRequest holds validated input for listing a catalog item.
type ListItemRequest struct {
	Name               string
	Description        string
	Price              int64
	RequiredYieldClaim int64
}

// UpdateItemRequest holds validated input for item updates.
type UpdateItemRequest struct {
	Name               string
	Description        string
	Price              int64
	RequiredYieldClaim int64
	Active             bool
}

// PurchaseResult reports a settled purchase.
type PurchaseResult struct {
	Purchase        *domain.Purchase
	PlatformFee     int64
	MerchantPayment int64
	YieldClaimBurnt int64
}

// PayMerchantResult reports a legacy deferred payout.
type PayMerchantResult struct {
	MerchantID    uuid.UUID
	Amount        int64
	PurchasesPaid int64
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// FaucetService grants dev/test stable asset with a per-account cooldown.
type FaucetService interface {
	Claim(ctx context.Context, user uuid.UUID) (int64, error)
}

// --- Ambient service ports ---

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification for
// merchant webhook payloads.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Role      domain.Role
}

// CooldownStore manages per-account cooldown windows (faucet claims).
type CooldownStore interface {
	// CheckAndSet atomically starts a cooldown window if none is active.
	// Returns true if the window was started (claim allowed), false if a
	// window is still running.
	CheckAndSet(ctx context.Context, account string, ttl time.Duration) (bool, error)
}

// WebhookNotifier delivers settlement notices to merchant webhooks.
type WebhookNotifier interface {
	EnqueueSettlementNotice(ctx context.Context, purchase *domain.Purchase, merchantPayment int64) error
}

// AuditService records audit log entries (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
