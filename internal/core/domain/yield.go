package domain

import (
	"time"

	"github.com/google/uuid"
)

// YieldPosition is the yield source's per-depositor ledger entry. Claiming
// yield resets DepositedAt (the accrual clock) but never Principal, so
// interest does not compound.
type YieldPosition struct {
	Holder      uuid.UUID `json:"holder"`
	Principal   int64     `json:"principal"`
	DepositedAt time.Time `json:"deposited_at"`
}

// AccruedYield computes simple interest at the fixed APY for the elapsed
// time since the accrual clock started. Truncating integer division.
func (p *YieldPosition) AccruedYield(now time.Time) int64 {
	if p.Principal <= 0 || !now.After(p.DepositedAt) {
		return 0
	}
	elapsed := int64(now.Sub(p.DepositedAt) / time.Second)
	return p.Principal * YieldSourceAPYPercent * elapsed / (100 * SecondsPerYear)
}
