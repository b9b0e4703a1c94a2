package domain

import "github.com/google/uuid"

// ClaimKind distinguishes the two claim-token balance tables.
type ClaimKind string

const (
	// ClaimPrincipal entitles the holder to withdraw deposited principal 1:1.
	ClaimPrincipal ClaimKind = "PRINCIPAL"
	// ClaimYield is a fixed reward entitlement (7% of each deposit),
	// redeemable at merchants and decoupled from actual yield performance.
	ClaimYield ClaimKind = "YIELD"
)

// Module identifies an internal caller for ledger access control. Mint and
// burn are restricted to an allowlist of modules wired at construction time.
type Module string

const (
	ModuleVault      Module = "VAULT"
	ModuleSettlement Module = "SETTLEMENT"
	ModuleFaucet     Module = "FAUCET"
	// ModuleOperator stands for a privileged human operator. It is the
	// treasury's initial controller until control is handed to settlement.
	ModuleOperator Module = "OPERATOR"
)

// System accounts holding stable asset on behalf of the protocol. Fixed UUIDs
// so that balances survive restarts and migrations reference stable keys.
var (
	// VaultAccount holds pooled and not-yet-deployed deposits.
	VaultAccount = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	// TreasuryAccount holds fees and harvested yield, and pays merchants.
	TreasuryAccount = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	// YieldSourceAccount stands in for the external yield venue.
	YieldSourceAccount = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)
