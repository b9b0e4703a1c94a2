package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest is the request body for a vault deposit.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// DepositResponse reports the effects of a vault deposit.
type DepositResponse struct {
	Amount           int64  `json:"amount"`
	PrincipalMinted  int64  `json:"principal_minted"`
	YieldClaimMinted int64  `json:"yield_claim_minted"`
	DepositTime      string `json:"deposit_time"`
	AutoDeployed     bool   `json:"auto_deployed"`
	DeployedAmount   int64  `json:"deployed_amount,omitempty"`
}

// WithdrawRequest is the request body for a vault withdrawal.
type WithdrawRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// WithdrawResponse reports the effects of a vault withdrawal.
type WithdrawResponse struct {
	Amount         int64 `json:"amount"`
	Fee            int64 `json:"fee"`
	AmountAfterFee int64 `json:"amount_after_fee"`
}

// BalancesResponse aggregates a user's asset and claim balances.
type BalancesResponse struct {
	Asset          int64 `json:"asset"`
	PrincipalClaim int64 `json:"principal_claim"`
	YieldClaim     int64 `json:"yield_claim"`
}

// PoolStatusResponse reports the vault's undeployed pool.
type PoolStatusResponse struct {
	Pooled           int64  `json:"pooled"`
	NextDeploymentAt string `json:"next_deployment_at"`
}

// YieldEstimateResponse reports accrued-but-unharvested yield for a holder.
type YieldEstimateResponse struct {
	Holder string `json:"holder"`
	Yield  int64  `json:"yield"`
}

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=500"`
	WebhookURL  *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url"`
}

// UpdateMerchantRequest is the request body for merchant profile updates.
type UpdateMerchantRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=500"`
	WebhookURL  *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url"`
}

// MerchantResponse is the public view of a merchant record.
type MerchantResponse struct {
	AccountID      string  `json:"account_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	WebhookURL     *string `json:"webhook_url,omitempty"`
	TotalSales     int64   `json:"total_sales"`
	PendingPayment int64   `json:"pending_payment"`
	CreatedAt      string  `json:"created_at"`
}

// ListItemRequest is the request body for listing a catalog item.
type ListItemRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=100"`
	Description        string `json:"description" binding:"max=500"`
	Price              int64  `json:"price" binding:"required,gt=0"`
	RequiredYieldClaim int64  `json:"required_yield_claim" binding:"gte=0"`
}

// UpdateItemRequest is the request body for item updates.
type UpdateItemRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=100"`
	Description        string `json:"description" binding:"max=500"`
	Price              int64  `json:"price" binding:"required,gt=0"`
	RequiredYieldClaim int64  `json:"required_yield_claim" binding:"gte=0"`
	Active             bool   `json:"active"`
}

// ItemResponse is the public view of a catalog item.
type ItemResponse struct {
	ID                 int64  `json:"id"`
	MerchantID         string `json:"merchant_id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Price              int64  `json:"price"`
	RequiredYieldClaim int64  `json:"required_yield_claim"`
	Active             bool   `json:"active"`
	CreatedAt          string `json:"created_at"`
}

// EligibilityResponse reports whether a buyer can afford an item's threshold.
type EligibilityResponse struct {
	ItemID   int64 `json:"item_id"`
	Eligible bool  `json:"eligible"`
}

// PurchaseResponse reports a settled purchase.
type PurchaseResponse struct {
	PurchaseID      int64  `json:"purchase_id"`
	ItemID          int64  `json:"item_id"`
	MerchantID      string `json:"merchant_id"`
	Price           int64  `json:"price"`
	PlatformFee     int64  `json:"platform_fee"`
	MerchantPayment int64  `json:"merchant_payment"`
	YieldClaimBurnt int64  `json:"yield_claim_burnt"`
	Paid            bool   `json:"paid"`
	CreatedAt       string `json:"created_at"`
}

// PurchaseInfoResponse is the public view of a purchase record.
type PurchaseInfoResponse struct {
	ID         int64  `json:"id"`
	Buyer      string `json:"buyer"`
	MerchantID string `json:"merchant_id"`
	ItemID     int64  `json:"item_id"`
	Price      int64  `json:"price"`
	Paid       bool   `json:"paid"`
	CreatedAt  string `json:"created_at"`
}

// FaucetResponse reports a faucet grant.
type FaucetResponse struct {
	Granted int64 `json:"granted"`
}

// DeployPoolResponse reports an operator-triggered pool deployment.
type DeployPoolResponse struct {
	Amount     int64  `json:"amount"`
	DeployedAt string `json:"deployed_at"`
}

// HarvestResponse reports harvested yield moved into the treasury.
type HarvestResponse struct {
	Yield int64 `json:"yield"`
}

// DistributeYieldRequest targets a yield-source depositor for a push payout.
type DistributeYieldRequest struct {
	To string `json:"to" binding:"required,uuid"`
}

// CollectFeesResponse reports a platform fee collection.
type CollectFeesResponse struct {
	Collected int64 `json:"collected"`
}

// PayMerchantRequest is the legacy deferred-settlement payout request.
type PayMerchantRequest struct {
	MerchantID string `json:"merchant_id" binding:"required,uuid"`
}

// PayMerchantResponse reports a legacy deferred payout.
type PayMerchantResponse struct {
	MerchantID    string `json:"merchant_id"`
	Amount        int64  `json:"amount"`
	PurchasesPaid int64  `json:"purchases_paid"`
}

// TransferControlRequest hands treasury control to another module.
type TransferControlRequest struct {
	NewController string `json:"new_controller" binding:"required,oneof=VAULT SETTLEMENT FAUCET OPERATOR"`
}

// TreasuryStatusResponse reports treasury holdings and its controller.
type TreasuryStatusResponse struct {
	Balance    int64  `json:"balance"`
	Controller string `json:"controller"`
}

// StatsResponse reports registry counters.
type StatsResponse struct {
	Merchants    int64 `json:"merchants"`
	PlatformFees int64 `json:"platform_fees"`
}
