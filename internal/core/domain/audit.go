package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionDeposit      AuditAction = "DEPOSIT"
	AuditActionWithdraw     AuditAction = "WITHDRAW"
	AuditActionDeployPool   AuditAction = "DEPLOY_POOL"
	AuditActionHarvest      AuditAction = "HARVEST_YIELD"
	AuditActionPurchase     AuditAction = "PURCHASE"
	AuditActionCollectFees  AuditAction = "COLLECT_FEES"
	AuditActionPayMerchant  AuditAction = "PAY_MERCHANT"
	AuditActionRegister     AuditAction = "REGISTER"
	AuditActionLogin        AuditAction = "LOGIN"
	AuditActionFaucetClaim  AuditAction = "FAUCET_CLAIM"
	AuditActionListItem     AuditAction = "LIST_ITEM"
	AuditActionUpdateItem   AuditAction = "UPDATE_ITEM"
	AuditActionRegMerchant  AuditAction = "REGISTER_MERCHANT"
	AuditActionUpdMerchant  AuditAction = "UPDATE_MERCHANT"
	AuditActionTreasuryCtrl AuditAction = "TREASURY_HANDOFF"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	AccountID    *uuid.UUID  `json:"account_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
