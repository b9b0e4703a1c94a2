package integration

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests fire concurrent requests at the full HTTP stack. The in-memory
// transactor serializes transactions the way row locks do in production, so
// balance invariants must hold exactly: no lost updates, no overdraw.

func TestConcurrentDeposits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "concurrent_user")
	app.claimFaucet(t, token)

	concurrency := 20
	depositAmount := int64(10_000000)

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _, err := app.tryDo(http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
				"amount": depositAmount,
			})
			if err == nil && status == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load(), "all deposits fit the balance and must succeed")

	total := depositAmount * int64(concurrency)
	status, env := app.do(t, http.MethodGet, "/api/v1/vault/balances", token, nil)
	require.Equal(t, http.StatusOK, status)
	balances := decodeData[map[string]int64](t, env)
	assert.Equal(t, testFaucetGrant-total, balances["asset"])
	assert.Equal(t, total, balances["principal_claim"])
	assert.Equal(t, total*7/100, balances["yield_claim"])

	status, env = app.do(t, http.MethodGet, "/api/v1/vault/pool", token, nil)
	require.Equal(t, http.StatusOK, status)
	pool := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(total), pool["pooled"])
}

func TestConcurrentWithdrawals_NoOverdraw(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, _ := app.registerAndLogin(t, "concurrent_user")
	app.claimFaucet(t, token)

	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", token, map[string]int64{
		"amount": 100_000000,
	})
	require.Equal(t, http.StatusCreated, status)

	// 20 concurrent withdrawals of 10_000000 against 100_000000 of principal:
	// exactly 10 can settle, the rest must be rejected.
	concurrency := 20
	withdrawAmount := int64(10_000000)

	var wg sync.WaitGroup
	var successCount, failCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, env, err := app.tryDo(http.MethodPost, "/api/v1/vault/withdraw", token, map[string]int64{
				"amount": withdrawAmount,
			})
			if err != nil {
				return
			}
			if status == http.StatusOK {
				successCount.Add(1)
			} else {
				assert.Equal(t, "LED_002", env.ErrorCode)
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()

	t.Logf("Concurrent withdrawals: %d succeeded, %d rejected (out of %d)", successCount.Load(), failCount.Load(), concurrency)
	require.Equal(t, int64(10), successCount.Load())
	require.Equal(t, int64(10), failCount.Load())

	// Each settled withdrawal inside the lock period pays out 95%.
	status, env := app.do(t, http.MethodGet, "/api/v1/vault/balances", token, nil)
	require.Equal(t, http.StatusOK, status)
	balances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(0), balances["principal_claim"])
	assert.Equal(t, testFaucetGrant-100_000000+10*9_500000, balances["asset"])

	// The ten 5% fees sit in the treasury.
	status, env = app.do(t, http.MethodGet, "/api/v1/ops/treasury", app.operatorToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	treasury := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(10*500000), treasury["balance"])
}

func TestConcurrentPurchases(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	opToken := app.operatorToken(t)
	buyerToken, _ := app.registerAndLogin(t, "buyer")
	merchToken, merchID := app.registerAndLogin(t, "shop")

	// Fund the buyer with 35_000000 of yield claim and the treasury with a
	// 20_000000 early-withdrawal fee.
	app.claimFaucet(t, buyerToken)
	status, _ := app.do(t, http.MethodPost, "/api/v1/vault/deposit", buyerToken, map[string]int64{
		"amount": 500_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/vault/withdraw", buyerToken, map[string]int64{
		"amount": 400_000000,
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants", merchToken, map[string]string{
		"name": "Claim Shop",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/items", merchToken, map[string]any{
		"name":                 "Voucher",
		"price":                1_000000,
		"required_yield_claim": 3_000000,
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/ops/treasury/transfer-control", opToken, map[string]string{
		"new_controller": "SETTLEMENT",
	})
	require.Equal(t, http.StatusOK, status)

	// 10 concurrent purchases burn 3_000000 each against a 35_000000 claim
	// balance; all fit and all must settle.
	concurrency := 10

	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _, err := app.tryDo(http.MethodPost, "/api/v1/items/1/purchase", buyerToken, nil)
			if err == nil && status == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load())

	// Claim balance burned exactly ten times.
	status, env := app.do(t, http.MethodGet, "/api/v1/vault/balances", buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	buyerBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(35_000000-10*3_000000), buyerBalances["yield_claim"])

	// Merchant was paid price minus the 2% fee per settlement.
	status, env = app.do(t, http.MethodGet, "/api/v1/vault/balances", merchToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchBalances := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(10*980000), merchBalances["asset"])

	// Fee accumulator and sales counters reconcile.
	status, env = app.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decodeData[map[string]int64](t, env)
	assert.Equal(t, int64(10*20000), stats["platform_fees"])

	status, env = app.do(t, http.MethodGet, "/api/v1/merchants/"+merchID, buyerToken, nil)
	require.Equal(t, http.StatusOK, status)
	merchant := decodeData[map[string]any](t, env)
	assert.Equal(t, float64(10*1_000000), merchant["total_sales"])
}
