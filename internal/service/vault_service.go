package service

import (
	"context"
	"fmt"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VaultServiceImpl implements ports.VaultService. Every mutating operation
// runs in a single database transaction with row locks taken up front, so a
// failure at any step rolls back all of it.
type VaultServiceImpl struct {
	vaultRepo   ports.VaultRepository
	assetRepo   ports.AssetRepository
	ledger      ports.TokenLedger
	treasury    ports.Treasury
	yieldSource ports.YieldSource
	transactor  ports.DBTransactor
	audit       ports.AuditService
	log         zerolog.Logger
	now         func() time.Time
}

// NewVaultService creates a new VaultServiceImpl.
func NewVaultService(
	vaultRepo ports.VaultRepository,
	assetRepo ports.AssetRepository,
	ledger ports.TokenLedger,
	treasury ports.Treasury,
	yieldSource ports.YieldSource,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *VaultServiceImpl {
	return &VaultServiceImpl{
		vaultRepo:   vaultRepo,
		assetRepo:   assetRepo,
		ledger:      ledger,
		treasury:    treasury,
		yieldSource: yieldSource,
		transactor:  transactor,
		audit:       audit,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *VaultServiceImpl) WithClock(now func() time.Time) *VaultServiceImpl {
	s.now = now
	return s
}

// Deposit takes custody of the user's stable asset, mints a 1:1 principal
// claim plus the fixed-ratio yield claim, and adds the amount to the pool.
// A repeat deposit overwrites the user's deposit record (principal and lock
// clock) while claim balances accumulate. If the deployment cadence has
// elapsed, the pooled balance is pushed to the yield source in the same
// transaction.
func (s *VaultServiceImpl) Deposit(ctx context.Context, user uuid.UUID, amount int64) (*ports.DepositResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Cheap rejection before any row lock; the balance is re-read under lock
	// at debit time.
	userBalance, err := s.assetRepo.BalanceOf(ctx, user)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read user balance: %w", err))
	}
	if userBalance < amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := s.now()

	// Row locks follow the same order as Withdraw: deposit record, pool
	// state, vault custody, claim rows, then remaining balances.
	dep := &domain.UserDeposit{
		UserID:      user,
		Principal:   amount,
		DepositTime: now,
	}
	if err := s.vaultRepo.UpsertDeposit(ctx, tx, dep); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save deposit: %w", err))
	}

	pool, err := s.vaultRepo.GetPoolStateForUpdate(ctx, tx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock pool state: %w", err))
	}
	pool.TotalPooled += amount

	deploying := pool.DeploymentDue(now) && pool.TotalPooled > 0
	deployAmount := pool.TotalPooled
	if deploying {
		pool.TotalPooled = 0
		pool.LastDeploymentAt = now
	}
	if err := s.vaultRepo.SetPoolState(ctx, tx, pool); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save pool state: %w", err))
	}

	vaultBalance, err := s.assetRepo.BalanceOfForUpdate(ctx, tx, domain.VaultAccount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault balance: %w", err))
	}

	if err := s.ledger.Mint(ctx, tx, domain.ModuleVault, domain.ClaimPrincipal, user, amount); err != nil {
		return nil, err
	}
	yieldClaim := domain.YieldClaimFor(amount)
	if yieldClaim > 0 {
		if err := s.ledger.Mint(ctx, tx, domain.ModuleVault, domain.ClaimYield, user, yieldClaim); err != nil {
			return nil, err
		}
	}

	result := &ports.DepositResult{
		User:             user,
		Amount:           amount,
		PrincipalMinted:  amount,
		YieldClaimMinted: yieldClaim,
		DepositTime:      now,
	}

	// Custody transfer comes after all internal bookkeeping.
	userBalance, err = s.assetRepo.BalanceOfForUpdate(ctx, tx, user)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user balance: %w", err))
	}
	if userBalance < amount {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.assetRepo.SetBalance(ctx, tx, user, userBalance-amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit user: %w", err))
	}
	if err := s.assetRepo.SetBalance(ctx, tx, domain.VaultAccount, vaultBalance+amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit vault: %w", err))
	}

	if deploying {
		if err := s.yieldSource.Deposit(ctx, tx, domain.ModuleVault, deployAmount); err != nil {
			return nil, err
		}
		result.AutoDeployed = true
		result.DeployedAmount = deployAmount
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user", user.String()).
		Int64("amount", amount).
		Int64("yield_claim", yieldClaim).
		Bool("auto_deployed", result.AutoDeployed).
		Msg("deposit accepted")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &user,
		Action:    domain.AuditActionDeposit,
		Details:   fmt.Sprintf("amount=%d yield_claim=%d", amount, yieldClaim),
	})
	return result, nil
}

// Withdraw redeems principal claims for stable asset. Inside the lock period
// the early-withdrawal fee is diverted to the treasury; at or past the
// boundary the withdrawal is fee-free. Claims are burned and records updated
// before any asset leaves vault custody.
func (s *VaultServiceImpl) Withdraw(ctx context.Context, user uuid.UUID, amount int64) (*ports.WithdrawResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Burn re-checks under lock; this early read gives the cheap rejection.
	principal, err := s.ledger.BalanceOf(ctx, domain.ClaimPrincipal, user)
	if err != nil {
		return nil, err
	}
	if principal < amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	// Row locks follow the same order as Deposit: deposit record, pool
	// state, vault custody, claim rows, then remaining balances.
	dep, err := s.vaultRepo.GetDepositForUpdate(ctx, tx, user)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock deposit: %w", err))
	}
	if dep == nil {
		return nil, apperror.ErrNotFound("deposit")
	}
	if dep.Principal < amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	pool, err := s.vaultRepo.GetPoolStateForUpdate(ctx, tx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock pool state: %w", err))
	}

	// Withdrawals are served from un-deployed custody only. Funds already at
	// the yield source are not recalled automatically.
	vaultBalance, err := s.assetRepo.BalanceOfForUpdate(ctx, tx, domain.VaultAccount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault balance: %w", err))
	}
	if vaultBalance < amount {
		return nil, apperror.ErrLiquidityShortfall()
	}

	now := s.now()
	var fee int64
	if domain.WithinLockPeriod(dep.DepositTime, now) {
		fee = domain.EarlyWithdrawalFee(amount)
	}

	pool.TotalPooled -= amount
	if pool.TotalPooled < 0 {
		// Withdrawal exceeds the un-deployed residue; the counter floors at zero.
		pool.TotalPooled = 0
	}
	if err := s.vaultRepo.SetPoolState(ctx, tx, pool); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save pool state: %w", err))
	}

	dep.Principal -= amount
	dep.HasWithdrawn = true
	if err := s.vaultRepo.UpsertDeposit(ctx, tx, dep); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save deposit: %w", err))
	}

	if err := s.ledger.Burn(ctx, tx, domain.ModuleVault, domain.ClaimPrincipal, user, amount); err != nil {
		return nil, err
	}

	// Asset moves last: fee to treasury, remainder to the user.
	if fee > 0 {
		if err := s.treasury.Receive(ctx, tx, domain.VaultAccount, fee); err != nil {
			return nil, err
		}
	}
	payout := amount - fee
	vaultBalance, err = s.assetRepo.BalanceOfForUpdate(ctx, tx, domain.VaultAccount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault balance: %w", err))
	}
	userBalance, err := s.assetRepo.BalanceOfForUpdate(ctx, tx, user)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user balance: %w", err))
	}
	if err := s.assetRepo.SetBalance(ctx, tx, domain.VaultAccount, vaultBalance-payout); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit vault: %w", err))
	}
	if err := s.assetRepo.SetBalance(ctx, tx, user, userBalance+payout); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit user: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user", user.String()).
		Int64("amount", amount).
		Int64("fee", fee).
		Msg("withdrawal settled")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &user,
		Action:    domain.AuditActionWithdraw,
		Details:   fmt.Sprintf("amount=%d fee=%d", amount, fee),
	})
	return &ports.WithdrawResult{
		User:           user,
		Amount:         amount,
		Fee:            fee,
		AmountAfterFee: payout,
	}, nil
}

// DeployPool pushes the entire pooled balance to the yield source. Operator
// only. The pooled counter resets and the cadence clock restarts even when
// called ahead of schedule.
func (s *VaultServiceImpl) DeployPool(ctx context.Context, caller domain.Role) (*ports.DeployResult, error) {
	if caller != domain.RoleOperator {
		return nil, apperror.ErrUnauthorized()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	pool, err := s.vaultRepo.GetPoolStateForUpdate(ctx, tx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock pool state: %w", err))
	}
	if pool.TotalPooled <= 0 {
		return nil, apperror.ErrNothingToDeploy()
	}

	now := s.now()
	amount := pool.TotalPooled
	pool.TotalPooled = 0
	pool.LastDeploymentAt = now
	if err := s.vaultRepo.SetPoolState(ctx, tx, pool); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save pool state: %w", err))
	}

	if err := s.yieldSource.Deposit(ctx, tx, domain.ModuleVault, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Int64("amount", amount).Msg("pool deployment executed")
	s.audit.Log(ctx, &domain.AuditLog{
		Action:  domain.AuditActionDeployPool,
		Details: fmt.Sprintf("amount=%d", amount),
	})
	return &ports.DeployResult{Amount: amount, DeployedAt: now}, nil
}

// HarvestYield claims accrued yield from the yield source and forwards it to
// the treasury. Operator only. Zero accrual is an error, not a no-op.
func (s *VaultServiceImpl) HarvestYield(ctx context.Context, caller domain.Role) (int64, error) {
	if caller != domain.RoleOperator {
		return 0, apperror.ErrUnauthorized()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	yield, err := s.yieldSource.ClaimYield(ctx, tx, domain.ModuleVault)
	if err != nil {
		return 0, err
	}
	if err := s.treasury.Receive(ctx, tx, domain.VaultAccount, yield); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Int64("yield", yield).Msg("yield harvested to treasury")
	s.audit.Log(ctx, &domain.AuditLog{
		Action:  domain.AuditActionHarvest,
		Details: fmt.Sprintf("yield=%d", yield),
	})
	return yield, nil
}

// DistributeYield pays accrued yield directly to a depositor. Operator only.
func (s *VaultServiceImpl) DistributeYield(ctx context.Context, caller domain.Role, to uuid.UUID) (int64, error) {
	if caller != domain.RoleOperator {
		return 0, apperror.ErrUnauthorized()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	yield, err := s.yieldSource.DistributeYield(ctx, tx, domain.ModuleOperator, to)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("to", to.String()).Int64("yield", yield).Msg("yield distributed")
	return yield, nil
}

// EstimateYield returns the yield a holder's position has accrued so far.
func (s *VaultServiceImpl) EstimateYield(ctx context.Context, holder uuid.UUID) (int64, error) {
	return s.yieldSource.CalculateYield(ctx, holder)
}

// PooledAmount returns the balance awaiting the next deployment.
func (s *VaultServiceImpl) PooledAmount(ctx context.Context) (int64, error) {
	pool, err := s.vaultRepo.GetPoolState(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("read pool state: %w", err))
	}
	return pool.TotalPooled, nil
}

// NextDeploymentTime returns when the auto-deployment cadence next elapses.
func (s *VaultServiceImpl) NextDeploymentTime(ctx context.Context) (time.Time, error) {
	pool, err := s.vaultRepo.GetPoolState(ctx)
	if err != nil {
		return time.Time{}, apperror.InternalError(fmt.Errorf("read pool state: %w", err))
	}
	return pool.LastDeploymentAt.Add(domain.PoolDeploymentInterval), nil
}

// Balances aggregates a user's asset balance and both claim balances.
func (s *VaultServiceImpl) Balances(ctx context.Context, user uuid.UUID) (*ports.BalanceSummary, error) {
	asset, err := s.assetRepo.BalanceOf(ctx, user)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("asset balance: %w", err))
	}
	principal, err := s.ledger.BalanceOf(ctx, domain.ClaimPrincipal, user)
	if err != nil {
		return nil, err
	}
	yield, err := s.ledger.BalanceOf(ctx, domain.ClaimYield, user)
	if err != nil {
		return nil, err
	}
	return &ports.BalanceSummary{Asset: asset, PrincipalClaim: principal, YieldClaim: yield}, nil
}
