package handler

import (
	"time"

	"yieldback-ledger/internal/adapter/http/dto"
	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"
	"yieldback-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OpsHandler handles operator-only protocol operations. All routes are
// behind the OperatorOnly middleware; handlers still pass the caller role
// down so the services enforce authorization themselves.
type OpsHandler struct {
	vaultSvc      ports.VaultService
	settlementSvc ports.SettlementService
	treasury      ports.Treasury
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(vaultSvc ports.VaultService, settlementSvc ports.SettlementService, treasury ports.Treasury) *OpsHandler {
	return &OpsHandler{vaultSvc: vaultSvc, settlementSvc: settlementSvc, treasury: treasury}
}

// DeployPool handles POST /api/v1/ops/deploy-pool.
func (h *OpsHandler) DeployPool(c *gin.Context) {
	result, err := h.vaultSvc.DeployPool(c.Request.Context(), accountRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DeployPoolResponse{
		Amount:     result.Amount,
		DeployedAt: result.DeployedAt.UTC().Format(time.RFC3339),
	})
}

// Harvest handles POST /api/v1/ops/harvest.
func (h *OpsHandler) Harvest(c *gin.Context) {
	yield, err := h.vaultSvc.HarvestYield(c.Request.Context(), accountRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.HarvestResponse{Yield: yield})
}

// DistributeYield handles POST /api/v1/ops/distribute-yield.
func (h *OpsHandler) DistributeYield(c *gin.Context) {
	var req dto.DistributeYieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	to, err := uuid.Parse(req.To)
	if err != nil {
		response.Error(c, apperror.Validation("invalid recipient"))
		return
	}

	yield, err := h.vaultSvc.DistributeYield(c.Request.Context(), accountRole(c), to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.HarvestResponse{Yield: yield})
}

// CollectFees handles POST /api/v1/ops/collect-fees.
func (h *OpsHandler) CollectFees(c *gin.Context) {
	collected, err := h.settlementSvc.CollectPlatformFees(c.Request.Context(), accountRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CollectFeesResponse{Collected: collected})
}

// PayMerchant handles POST /api/v1/ops/pay-merchant (legacy deferred settlement).
func (h *OpsHandler) PayMerchant(c *gin.Context) {
	var req dto.PayMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	result, err := h.settlementSvc.PayMerchant(c.Request.Context(), accountRole(c), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PayMerchantResponse{
		MerchantID:    result.MerchantID.String(),
		Amount:        result.Amount,
		PurchasesPaid: result.PurchasesPaid,
	})
}

// TransferControl handles POST /api/v1/ops/treasury/transfer-control.
// Hands treasury control from the operator to another module, typically
// SETTLEMENT. Without the handoff purchases cannot settle.
func (h *OpsHandler) TransferControl(c *gin.Context) {
	var req dto.TransferControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	err := h.treasury.TransferControl(c.Request.Context(), domain.ModuleOperator, domain.Module(req.NewController))
	if err != nil {
		response.Error(c, err)
		return
	}

	controller, err := h.treasury.Controller(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.treasury.Balance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TreasuryStatusResponse{
		Balance:    balance,
		Controller: string(controller),
	})
}

// TreasuryStatus handles GET /api/v1/ops/treasury.
func (h *OpsHandler) TreasuryStatus(c *gin.Context) {
	balance, err := h.treasury.Balance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	controller, err := h.treasury.Controller(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TreasuryStatusResponse{
		Balance:    balance,
		Controller: string(controller),
	})
}

// Stats handles GET /api/v1/stats (public registry counters).
func (h *OpsHandler) Stats(c *gin.Context) {
	merchants, err := h.settlementSvc.MerchantCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	fees, err := h.settlementSvc.PlatformFees(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatsResponse{
		Merchants:    merchants,
		PlatformFees: fees,
	})
}
