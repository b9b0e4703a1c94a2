package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yieldback-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory repository implementations backing the integration stack. They
// ignore the pgx.Tx handle (the no-op transactor below produces it) and rely
// on a mutex per repo, which is enough serialization for these tests.

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Asset Repo ---

type inMemoryAssetRepo struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]int64
}

func newInMemoryAssetRepo() *inMemoryAssetRepo {
	return &inMemoryAssetRepo{balances: make(map[uuid.UUID]int64)}
}

func (r *inMemoryAssetRepo) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[holder], nil
}

func (r *inMemoryAssetRepo) BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (int64, error) {
	return r.BalanceOf(ctx, holder)
}

func (r *inMemoryAssetRepo) SetBalance(ctx context.Context, tx pgx.Tx, holder uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[holder] = balance
	return nil
}

// --- In-Memory Claim Repo ---

type claimKey struct {
	kind   domain.ClaimKind
	holder uuid.UUID
}

type inMemoryClaimRepo struct {
	mu       sync.RWMutex
	balances map[claimKey]int64
}

func newInMemoryClaimRepo() *inMemoryClaimRepo {
	return &inMemoryClaimRepo{balances: make(map[claimKey]int64)}
}

func (r *inMemoryClaimRepo) BalanceOf(ctx context.Context, kind domain.ClaimKind, holder uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[claimKey{kind, holder}], nil
}

func (r *inMemoryClaimRepo) BalanceOfForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID) (int64, error) {
	return r.BalanceOf(ctx, kind, holder)
}

func (r *inMemoryClaimRepo) SetBalance(ctx context.Context, tx pgx.Tx, kind domain.ClaimKind, holder uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[claimKey{kind, holder}] = balance
	return nil
}

// --- In-Memory Vault Repo ---

type inMemoryVaultRepo struct {
	mu       sync.RWMutex
	deposits map[uuid.UUID]*domain.UserDeposit
	pool     domain.PoolState
}

func newInMemoryVaultRepo(start time.Time) *inMemoryVaultRepo {
	return &inMemoryVaultRepo{
		deposits: make(map[uuid.UUID]*domain.UserDeposit),
		pool:     domain.PoolState{TotalPooled: 0, LastDeploymentAt: start},
	}
}

func (r *inMemoryVaultRepo) GetDeposit(ctx context.Context, user uuid.UUID) (*domain.UserDeposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deposits[user]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *inMemoryVaultRepo) GetDepositForUpdate(ctx context.Context, tx pgx.Tx, user uuid.UUID) (*domain.UserDeposit, error) {
	return r.GetDeposit(ctx, user)
}

func (r *inMemoryVaultRepo) UpsertDeposit(ctx context.Context, tx pgx.Tx, dep *domain.UserDeposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dep
	r.deposits[dep.UserID] = &cp
	return nil
}

func (r *inMemoryVaultRepo) GetPoolState(ctx context.Context) (*domain.PoolState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := r.pool
	return &cp, nil
}

func (r *inMemoryVaultRepo) GetPoolStateForUpdate(ctx context.Context, tx pgx.Tx) (*domain.PoolState, error) {
	return r.GetPoolState(ctx)
}

func (r *inMemoryVaultRepo) SetPoolState(ctx context.Context, tx pgx.Tx, state *domain.PoolState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = *state
	return nil
}

// --- In-Memory Yield Position Repo ---

type inMemoryYieldRepo struct {
	mu        sync.RWMutex
	positions map[uuid.UUID]*domain.YieldPosition
}

func newInMemoryYieldRepo() *inMemoryYieldRepo {
	return &inMemoryYieldRepo{positions: make(map[uuid.UUID]*domain.YieldPosition)}
}

func (r *inMemoryYieldRepo) Get(ctx context.Context, holder uuid.UUID) (*domain.YieldPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.positions[holder]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryYieldRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, holder uuid.UUID) (*domain.YieldPosition, error) {
	return r.Get(ctx, holder)
}

func (r *inMemoryYieldRepo) Upsert(ctx context.Context, tx pgx.Tx, pos *domain.YieldPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pos
	r.positions[pos.Holder] = &cp
	return nil
}

// --- In-Memory Treasury Repo ---

type inMemoryTreasuryRepo struct {
	mu         sync.RWMutex
	controller domain.Module
}

func newInMemoryTreasuryRepo() *inMemoryTreasuryRepo {
	return &inMemoryTreasuryRepo{controller: domain.ModuleOperator}
}

func (r *inMemoryTreasuryRepo) GetController(ctx context.Context) (domain.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controller, nil
}

func (r *inMemoryTreasuryRepo) GetControllerForUpdate(ctx context.Context, tx pgx.Tx) (domain.Module, error) {
	return r.GetController(ctx)
}

func (r *inMemoryTreasuryRepo) SetController(ctx context.Context, tx pgx.Tx, controller domain.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controller = controller
	return nil
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.AccountID]; ok {
		return fmt.Errorf("merchant already exists")
	}
	cp := *m
	r.merchants[m.AccountID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Merchant, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryMerchantRepo) Update(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.AccountID]; !ok {
		return fmt.Errorf("merchant not found")
	}
	cp := *m
	r.merchants[m.AccountID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.merchants)), nil
}

// --- In-Memory Item Repo ---

type inMemoryItemRepo struct {
	mu     sync.RWMutex
	items  map[int64]*domain.Item
	nextID int64
}

func newInMemoryItemRepo() *inMemoryItemRepo {
	return &inMemoryItemRepo{items: make(map[int64]*domain.Item), nextID: 1}
}

func (r *inMemoryItemRepo) Create(ctx context.Context, tx pgx.Tx, item *domain.Item) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	cp := *item
	cp.ID = id
	r.items[id] = &cp
	return id, nil
}

func (r *inMemoryItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *inMemoryItemRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryItemRepo) Update(ctx context.Context, tx pgx.Tx, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("item not found")
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *inMemoryItemRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

// --- In-Memory Purchase Repo ---

type inMemoryPurchaseRepo struct {
	mu        sync.RWMutex
	purchases map[int64]*domain.Purchase
	nextID    int64
}

func newInMemoryPurchaseRepo() *inMemoryPurchaseRepo {
	return &inMemoryPurchaseRepo{purchases: make(map[int64]*domain.Purchase), nextID: 1}
}

func (r *inMemoryPurchaseRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Purchase) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	cp := *p
	cp.ID = id
	r.purchases[id] = &cp
	return id, nil
}

func (r *inMemoryPurchaseRepo) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPurchaseRepo) MarkPaidByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.purchases {
		if p.MerchantID == merchantID && !p.Paid {
			p.Paid = true
			n++
		}
	}
	return n, nil
}

// --- In-Memory Fee Repo ---

type inMemoryFeeRepo struct {
	mu      sync.RWMutex
	accrued int64
}

func newInMemoryFeeRepo() *inMemoryFeeRepo {
	return &inMemoryFeeRepo{}
}

func (r *inMemoryFeeRepo) Get(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accrued, nil
}

func (r *inMemoryFeeRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (int64, error) {
	return r.Get(ctx)
}

func (r *inMemoryFeeRepo) Set(ctx context.Context, tx pgx.Tx, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accrued = amount
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, standing in
// for the row locks SELECT FOR UPDATE takes in production. Commit or Rollback
// releases the lock; the usual commit-then-deferred-rollback sequence releases
// it once.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &noopTx{release: func() { t.mu.Unlock() }}, nil
}

// noopTx is a pgx.Tx implementation that only tracks lock release.
type noopTx struct {
	once    sync.Once
	release func()
}

func (t *noopTx) done() {
	if t.release != nil {
		t.once.Do(t.release)
	}
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
