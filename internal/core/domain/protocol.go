package domain

import "time"

// Protocol constants. These are fixed for this version of the ledger and are
// deliberately not runtime-configurable.
const (
	// LockPeriod is the window after a deposit during which withdrawal
	// incurs the early-withdrawal fee.
	LockPeriod = 30 * 24 * time.Hour

	// PoolDeploymentInterval is the minimum time between pool deployments
	// to the yield source.
	PoolDeploymentInterval = 24 * time.Hour

	// YieldRatioPercent is the fraction of each deposit minted as yield claim.
	YieldRatioPercent = 7

	// EarlyWithdrawalFeePercent is charged on withdrawals inside the lock period.
	EarlyWithdrawalFeePercent = 5

	// PlatformFeePercent is taken from every merchant settlement.
	PlatformFeePercent = 2

	// YieldSourceAPYPercent is the simple (non-compounding) annual rate of
	// the yield source.
	YieldSourceAPYPercent = 8

	// SecondsPerYear is the accrual denominator used by the yield source.
	SecondsPerYear = 365 * 24 * 60 * 60

	// AssetDecimals is the fixed precision of the stable asset. All amounts
	// in the system are int64 values at this precision.
	AssetDecimals = 6
)

// YieldClaimFor returns the yield-claim amount minted for a deposit.
// Integer division truncates toward zero.
func YieldClaimFor(depositAmount int64) int64 {
	return depositAmount * YieldRatioPercent / 100
}

// EarlyWithdrawalFee returns the fee charged when withdrawing before the lock
// period has elapsed. Callers decide whether the lock applies.
func EarlyWithdrawalFee(amount int64) int64 {
	return amount * EarlyWithdrawalFeePercent / 100
}

// PlatformFee returns the platform's cut of a settlement at the given price.
func PlatformFee(price int64) int64 {
	return price * PlatformFeePercent / 100
}

// WithinLockPeriod reports whether a withdrawal at now is still inside the
// lock window of a deposit made at depositTime. The boundary is inclusive:
// withdrawing exactly at depositTime + LockPeriod is fee-free.
func WithinLockPeriod(depositTime, now time.Time) bool {
	return now.Before(depositTime.Add(LockPeriod))
}
