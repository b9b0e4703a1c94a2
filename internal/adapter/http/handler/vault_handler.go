package handler

import (
	"time"

	"yieldback-ledger/internal/adapter/http/dto"
	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"
	"yieldback-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// VaultHandler handles deposit, withdrawal and vault view endpoints.
type VaultHandler struct {
	vaultSvc ports.VaultService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vaultSvc ports.VaultService) *VaultHandler {
	return &VaultHandler{vaultSvc: vaultSvc}
}

// Deposit handles POST /api/v1/vault/deposit.
func (h *VaultHandler) Deposit(c *gin.Context) {
	user, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.vaultSvc.Deposit(c.Request.Context(), user, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.DepositResponse{
		Amount:           result.Amount,
		PrincipalMinted:  result.PrincipalMinted,
		YieldClaimMinted: result.YieldClaimMinted,
		DepositTime:      result.DepositTime.UTC().Format(time.RFC3339),
		AutoDeployed:     result.AutoDeployed,
		DeployedAmount:   result.DeployedAmount,
	})
}

// Withdraw handles POST /api/v1/vault/withdraw.
func (h *VaultHandler) Withdraw(c *gin.Context) {
	user, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.vaultSvc.Withdraw(c.Request.Context(), user, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WithdrawResponse{
		Amount:         result.Amount,
		Fee:            result.Fee,
		AmountAfterFee: result.AmountAfterFee,
	})
}

// Balances handles GET /api/v1/vault/balances.
func (h *VaultHandler) Balances(c *gin.Context) {
	user, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	summary, err := h.vaultSvc.Balances(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalancesResponse{
		Asset:          summary.Asset,
		PrincipalClaim: summary.PrincipalClaim,
		YieldClaim:     summary.YieldClaim,
	})
}

// PoolStatus handles GET /api/v1/vault/pool.
func (h *VaultHandler) PoolStatus(c *gin.Context) {
	pooled, err := h.vaultSvc.PooledAmount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	next, err := h.vaultSvc.NextDeploymentTime(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PoolStatusResponse{
		Pooled:           pooled,
		NextDeploymentAt: next.UTC().Format(time.RFC3339),
	})
}

// EstimateYield handles GET /api/v1/vault/yield.
// Reports the vault-wide yield accrued at the source since the last harvest.
func (h *VaultHandler) EstimateYield(c *gin.Context) {
	yield, err := h.vaultSvc.EstimateYield(c.Request.Context(), domain.VaultAccount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.YieldEstimateResponse{
		Holder: domain.VaultAccount.String(),
		Yield:  yield,
	})
}
