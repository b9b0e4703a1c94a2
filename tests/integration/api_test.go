package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	httpHandler "yieldback-ledger/internal/adapter/http/handler"
	redisStorage "yieldback-ledger/internal/adapter/storage/redis"
	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/service"
	"yieldback-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers and services, with in-memory postgres repos and miniredis behind
// the Redis stores. Time is driven by a controllable clock shared by the
// vault service and the yield source.

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	clock  *testClock

	accounts *inMemoryAccountRepo
	assets   *inMemoryAssetRepo
	tokenSvc *service.JWTTokenService
}

const (
	testFaucetGrant = int64(1000_000000) // 1000 units
	testJWTSecret   = "test-jwt-secret-key-32bytes!!"
)

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	log := logger.New("debug", false)

	// In-memory repos
	accountRepo := newInMemoryAccountRepo()
	assetRepo := newInMemoryAssetRepo()
	claimRepo := newInMemoryClaimRepo()
	vaultRepo := newInMemoryVaultRepo(clock.Now())
	yieldRepo := newInMemoryYieldRepo()
	treasuryRepo := newInMemoryTreasuryRepo()
	merchantRepo := newInMemoryMerchantRepo()
	itemRepo := newInMemoryItemRepo()
	purchaseRepo := newInMemoryPurchaseRepo()
	feeRepo := newInMemoryFeeRepo()
	auditRepo := newInMemoryAuditRepo()
	transactor := newInMemoryTransactor()

	// Core services
	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(testJWTSecret, 24*time.Hour, "test-issuer")
	auditSvc := service.NewAuditService(auditRepo, log)

	// Ledger services
	ledger := service.NewTokenLedger(claimRepo, log)
	treasury := service.NewTreasury(assetRepo, treasuryRepo, transactor, log)
	yieldSource := service.NewYieldSource(yieldRepo, assetRepo, log).WithClock(clock.Now)

	// Business services
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc, auditSvc, log)
	vaultSvc := service.NewVaultService(vaultRepo, assetRepo, ledger, treasury, yieldSource, transactor, auditSvc, log).
		WithClock(clock.Now)
	notifier := service.NewWebhookNotifier(merchantRepo, encSvc, sigSvc, &http.Client{Timeout: time.Second}, log)
	settlementSvc := service.NewSettlementService(
		merchantRepo, itemRepo, purchaseRepo, feeRepo,
		ledger, treasury, transactor, encSvc, notifier, auditSvc, log,
	)
	faucetSvc := service.NewFaucetService(
		assetRepo, transactor, redisStorage.NewCooldownStore(rdb), auditSvc,
		testFaucetGrant, 24*time.Hour, log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:       authSvc,
		VaultSvc:      vaultSvc,
		SettlementSvc: settlementSvc,
		FaucetSvc:     faucetSvc,
		Treasury:      treasury,
		TokenSvc:      tokenSvc,
		Logger:        log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:   server,
		redis:    mr,
		clock:    clock,
		accounts: accountRepo,
		assets:   assetRepo,
		tokenSvc: tokenSvc,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Helpers ---

type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	status, env, err := a.tryDo(method, path, token, body)
	require.NoError(t, err)
	return status, env
}

// tryDo is the non-failing variant of do, safe to call from spawned
// goroutines where require must not be used.
func (a *testApp) tryDo(method, path, token string, body any) (int, envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, envelope{}, err
	}
	return resp.StatusCode, env, nil
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// registerAndLogin creates a user account through the API and returns its
// bearer token and account id.
func (a *testApp) registerAndLogin(t *testing.T, username string) (string, string) {
	t.Helper()

	status, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusCreated, status)
	reg := decodeData[map[string]string](t, env)

	status, env = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	login := decodeData[map[string]any](t, env)

	return login["token"].(string), reg["account_id"]
}

// operatorToken mints a token for a privileged operator. Operator accounts
// are provisioned out of band, so the test reaches for the token service
// directly.
func (a *testApp) operatorToken(t *testing.T) string {
	t.Helper()
	token, _, err := a.tokenSvc.Generate(uuid.New(), domain.RoleOperator)
	require.NoError(t, err)
	return token
}

// claimFaucet funds a user via the faucet endpoint.
func (a *testApp) claimFaucet(t *testing.T, token string) int64 {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/faucet/claim", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := decodeData[map[string]int64](t, env)
	return data["granted"]
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusCreated, status)
	reg := decodeData[map[string]string](t, env)
	assert.NotEmpty(t, reg["account_id"])
	assert.Equal(t, "alice", reg["username"])
	assert.Equal(t, "USER", reg["role"])

	status, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusOK, status)
	login := decodeData[map[string]any](t, env)
	assert.NotEmpty(t, login["token"])
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body := map[string]string{"username": "alice", "password": "StrongPass123!"}
	status, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, status)

	status, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AUTH_002", env.ErrorCode)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, env := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_001", env.ErrorCode)
}

func TestIntegration_FaucetAndCooldown(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")

	granted := app.claimFaucet(t, token)
	assert.Equal(t, testFaucetGrant, granted)

	status, env := app.do(t, http.MethodGet, "/api/v1/vault/balances", token, nil)
	require.Equal(t, http.StatusOK, status)
	balances := decodeData[map[string]int64](t, env)
	assert.Equal(t, testFaucetGrant, balances["asset"])

	// Second claim inside the window is rejected.
	status, env = app.do(t, http.MethodPost, "/api/v1/faucet/claim", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "LED_015", env.ErrorCode)

	// After the cooldown expires in Redis, claiming works again.
	app.redis.FastForward(25 * time.Hour)
	granted = app.claimFaucet(t, token)
	assert.Equal(t, testFaucetGrant, granted)
}

func TestIntegration_DepositMintsClaims(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")
	app.claimFaucet(t, token)

	status, env := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	dep := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(500_000000), dep["principal_minted"])
	assert.Equal(t, float64(35_000000), dep["yield_claim_minted"]) // 7% of deposit
	assert.Equal(t, false, dep["auto_deployed"])

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", token, nil)
	require.Equal(t, http.StatusOK, status)
	balances := decodeData[map[string]int64](t, env)
	assert.Equal(t, testFaucetGrant-500_000000, balances["asset"])
	assert.Equal(t, int64(500_000000), balances["principal_claim"])
	assert.Equal(t, int64(35_000000), balances["yield_claim"])

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/pool", token, nil)
	require.Equal(t, http.StatusOK, status)
	pool := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(500_000000), pool["pooled"])
}

func TestIntegration_DepositInsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")

	status, env := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 1_000000,
	})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "LED_002", env.ErrorCode)
}

func TestIntegration_EarlyWithdrawalFee(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")
	app.claimFaucet(t, token)

	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)

	// Withdrawing inside the 30-day lock costs 5%.
	status, env := app.do(t, http.MethodPost, "/api/v1/vault/withdraw", token, map[string]int64{
		"amount": 200_000000,
	})
	require.Equal(t, http.StatusOK, status)
	wd := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(10_000000), wd["fee"])
	assert.Equal(t, int64(190_000000), wd["amount_after_fee"])

	// The fee sits in the treasury.
	status, env = app.do(t, http.MethodGet, "/api/v1/ops/treasury", app.operatorToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	treasury := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(10_000000), treasury["balance"])
	assert.Equal(t, "OPERATOR", treasury["controller"])
}

func TestIntegration_WithdrawalFeeFreeAtBoundary(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")
	app.claimFaucet(t, token)

	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)

	// Exactly at deposit_time + 30d the withdrawal is fee-free.
	app.clock.Advance(30 * 24 * time.Hour)

	status, env := app.do(t, http.MethodPost, "/api/v1/vault/withdraw", token, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusOK, status)
	wd := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(0), wd["fee"])
	assert.Equal(t, int64(500_000000), wd["amount_after_fee"])
}

func TestIntegration_DeployHarvestLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken, _ := app.registerAndLogin(t, "alice")
	opToken := app.operatorToken(t)
	app.claimFaucet(t, userToken)

	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", userToken, map[string]int64{
		"amount": 100_000000,
	})
	require.Equal(t, http.StatusCreated, status)

	// Operator deploys the pool ahead of schedule.
	status, env := app.do(t, http.MethodPost, "/api/v1/ops/deploy-pool", opToken, nil)
	require.Equal(t, http.StatusOK, status)
	deploy := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(100_000000), deploy["amount"])

	// Nothing left to deploy.
	status, env = app.do(t, http.MethodPost, "/api/v1/ops/deploy-pool", opToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "LED_013", env.ErrorCode)

	// Withdrawals now hit the liquidity shortfall: custody is at the venue.
	status, env = app.do(t, http.MethodPost, "/api/v1/vault/withdraw", userToken, map[string]int64{
		"amount": 100_000000,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "LED_016", env.ErrorCode)

	// One year of simple interest at 8% APY.
	app.clock.Advance(365 * 24 * time.Hour)

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/yield", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	estimate := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(8_000000), estimate["yield"])

	status, env = app.do(t, http.MethodPost, "/api/v1/ops/harvest", opToken, nil)
	require.Equal(t, http.StatusOK, status)
	harvest := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(8_000000), harvest["yield"])

	// The accrual clock restarted: an immediate second harvest finds nothing.
	status, env = app.do(t, http.MethodPost, "/api/v1/ops/harvest", opToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "LED_014", env.ErrorCode)

	// Harvested yield lands in the treasury.
	status, env = app.do(t, http.MethodGet, "/api/v1/ops/treasury", opToken, nil)
	require.Equal(t, http.StatusOK, status)
	treasury := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(8_000000), treasury["balance"])
}

func TestIntegration_AutoDeployOnDeposit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")
	app.claimFaucet(t, token)

	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 100_000000,
	})
	require.Equal(t, http.StatusCreated, status)

	// Once the 24h cadence elapses, the next deposit sweeps the whole pool.
	app.clock.Advance(25 * time.Hour)

	status, env := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 50_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	dep := decodeData[map[string]any](t, env)
	assert.Equal(t, true, dep["auto_deployed"])
	assert.Equal(t, float64(150_000000), dep["deployed_amount"])

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/pool", token, nil)
	require.Equal(t, http.StatusOK, status)
	pool := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(0), pool["pooled"])
}

func TestIntegration_PurchaseSettlement(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	opToken := app.operatorToken(t)
	buyerToken, _ := app.registerAndLogin(t, "buyer")
	merchToken, merchID := app.registerAndLogin(t, "shop")

	// Fund the buyer, mint yield claims, and fund the treasury via an early
	// withdrawal fee.
	app.claimFaucet(t, buyerToken)
	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", buyerToken, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/vault/withdraw", buyerToken, map[string]int64{
		"amount": 400_000000, // 5% fee = 20_000000 into the treasury
	})
	require.Equal(t, http.StatusOK, status)

	// Merchant onboarding and listing.
	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants", merchToken, map[string]string{
		"name":        "Claim Shop",
		"description": "redeems yield claims",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]int64{
		"price":                10_000000,
		"required_yield_claim": 5_000000,
	})
	assert.Equal(t, http.StatusBadRequest, status) // name missing

	status, env = app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]any{
		"name":                 "Voucher",
		"price":                10_000000,
		"required_yield_claim": 5_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	item := decodeData[map[string]any](t, env)
	itemID := int64(item["id"].(float64))
	require.Equal(t, int64(1), itemID)

	itemPath := fmt.Sprintf("/api/v1/items/%d", itemID)

	// Buyer holds 35_000000 yield claim, threshold is 5_000000.
	status, env = app.do(t, http.MethodGet, itemPath+"/eligibility", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	elig := decodeData[map[string]any](t, env)
	assert.Equal(t, true, elig["eligible"])

	status, env = app.do(t, http.MethodPost, "/api/v1/ops/treasury/transfer-control", opToken, map[string]string{
		"new_controller": "SETTLEMENT",
	})
	require.Equal(t, http.StatusOK, status)
	treasury := decodeData[map[string]any](t, env)
	assert.Equal(t, "SETTLEMENT", treasury["controller"])

	// Purchase settles immediately: 2% fee accrues, merchant gets the rest.
	status, env = app.do(t, http.MethodPost, itemPath+"/purchase", buyerToken, nil)
	require.Equal(t, http.StatusCreated, status)
	purchase := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(200000), purchase["platform_fee"])
	assert.Equal(t, float64(9_800000), purchase["merchant_payment"])
	assert.Equal(t, float64(5_000000), purchase["yield_claim_burnt"])
	assert.Equal(t, true, purchase["paid"])

	// Merchant received price minus fee in stable asset.
	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", merchToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(9_800000), merchBalances["asset"])

	// Buyer's yield claim was burned by the threshold, not the price.
	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	buyerBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(30_000000), buyerBalances["yield_claim"])

	// Registry stats and merchant record reflect the sale.
	status, env = app.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(1), stats["merchants"])
	assert.Equal(t, int64(200000), stats["platform_fees"])

	status, env = app.do(t, http.MethodGet, "/api/v1/merchants/"+merchID, buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchant := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(10_000000), merchant["total_sales"])

	// Fee collection resets the accumulator; a second collect finds nothing.
	status, env = app.do(t, http.MethodPost, "/api/v1/ops/collect-fees", opToken, nil)
	require.Equal(t, http.StatusOK, status)
	collected := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(200000), collected["collected"])

	status, env = app.do(t, http.MethodPost, "/api/v1/ops/collect-fees", opToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "LED_011", env.ErrorCode)
}

func TestIntegration_PurchaseBlockedBeforeHandoff(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	buyerToken, _ := app.registerAndLogin(t, "buyer")
	merchToken, _ := app.registerAndLogin(t, "shop")

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", merchToken, map[string]string{
		"name": "Claim Shop",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]any{
		"name":                 "Freebie",
		"price":                1_000000,
		"required_yield_claim": 0,
	})
	require.Equal(t, http.StatusCreated, status)

	// The treasury controller is still the operator, so settlement cannot
	// pay the merchant and the purchase is rejected.
	status, env := app.do(t, http.MethodPost, "/api/v1/items/1/purchase", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "LED_005", env.ErrorCode)
}

func TestIntegration_PurchaseRequiresYieldClaim(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	opToken := app.operatorToken(t)
	buyerToken, _ := app.registerAndLogin(t, "broke")
	merchToken, _ := app.registerAndLogin(t, "shop")

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", merchToken, map[string]string{
		"name": "Claim Shop",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]any{
		"name":                 "Voucher",
		"price":                10_000000,
		"required_yield_claim": 5_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/ops/treasury/transfer-control", opToken, map[string]string{
		"new_controller": "SETTLEMENT",
	})
	require.Equal(t, http.StatusOK, status)

	// No deposits, no yield claim.
	status, env := app.do(t, http.MethodGet, "/api/v1/items/1/eligibility", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	elig := decodeData[map[string]any](t, env)
	assert.Equal(t, false, elig["eligible"])

	status, env = app.do(t, http.MethodPost, "/api/v1/items/1/purchase", buyerToken, nil)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "LED_003", env.ErrorCode)
}

// A zero-threshold item is purchasable by a buyer holding no yield claim at
// all; the settlement still takes its fee and pays the merchant.
func TestIntegration_ZeroThresholdPurchase(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	opToken := app.operatorToken(t)
	funderToken, _ := app.registerAndLogin(t, "funder")
	buyerToken, _ := app.registerAndLogin(t, "window_shopper")
	merchToken, merchID := app.registerAndLogin(t, "shop")

	// Fund the treasury via an early-withdrawal fee; the buyer stays empty.
	app.claimFaucet(t, funderToken)
	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", funderToken, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/vault/withdraw", funderToken, map[string]int64{
		"amount": 400_000000, // 5% fee = 20_000000 into the treasury
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants", merchToken, map[string]string{
		"name": "Claim Shop",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]any{
		"name":                 "Sticker",
		"price":                1_000000,
		"required_yield_claim": 0,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/ops/treasury/transfer-control", opToken, map[string]string{
		"new_controller": "SETTLEMENT",
	})
	require.Equal(t, http.StatusOK, status)

	// Zero claim balance meets a zero threshold.
	status, env := app.do(t, http.MethodGet, "/api/v1/items/1/eligibility", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	elig := decodeData[map[string]any](t, env)
	assert.Equal(t, true, elig["eligible"])

	status, env = app.do(t, http.MethodPost, "/api/v1/items/1/purchase", buyerToken, nil)
	require.Equal(t, http.StatusCreated, status)
	purchase := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(20000), purchase["platform_fee"])
	assert.Equal(t, float64(980000), purchase["merchant_payment"])
	assert.Equal(t, float64(0), purchase["yield_claim_burnt"])
	assert.Equal(t, true, purchase["paid"])

	// Nothing was burned from the buyer.
	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	buyerBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(0), buyerBalances["yield_claim"])

	// The merchant was paid and the sale counted.
	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", merchToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(980000), merchBalances["asset"])

	status, env = app.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(20000), stats["platform_fees"])

	status, env = app.do(t, http.MethodGet, "/api/v1/merchants/"+merchID, buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchant := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(1_000000), merchant["total_sales"])
}

func TestIntegration_OperatorRoutesRejectUsers(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "alice")

	status, env := app.do(t, http.MethodPost, "/api/v1/ops/deploy-pool", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "LED_005", env.ErrorCode)

	status, env = app.do(t, http.MethodPost, "/api/v1/ops/harvest", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "LED_005", env.ErrorCode)
}

func TestIntegration_AuthRequired(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, env := app.do(t, http.MethodGet, "/api/v1/vault/balances", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_003", env.ErrorCode)

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_003", env.ErrorCode)
}
