package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserDeposit is the vault's per-user deposit record. The vault keeps a single
// slot per user: a repeat deposit overwrites Principal and DepositTime rather
// than accumulating. This reproduces the reference behavior and is a known
// limitation; claim balances DO accumulate across deposits.
type UserDeposit struct {
	UserID       uuid.UUID `json:"user_id"`
	Principal    int64     `json:"principal"`
	DepositTime  time.Time `json:"deposit_time"`
	HasWithdrawn bool      `json:"has_withdrawn"` // recorded, never gates anything
	UpdatedAt    time.Time `json:"updated_at"`
}

// PoolState is the vault-wide pooled balance awaiting deployment.
// TotalPooled only increases on deposit and resets to zero exactly when the
// pool is deployed to the yield source.
type PoolState struct {
	TotalPooled      int64     `json:"total_pooled"`
	LastDeploymentAt time.Time `json:"last_deployment_at"`
}

// DeploymentDue reports whether the auto-deployment cadence has elapsed.
func (p *PoolState) DeploymentDue(now time.Time) bool {
	return !now.Before(p.LastDeploymentAt.Add(PoolDeploymentInterval))
}
