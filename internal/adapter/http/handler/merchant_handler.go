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

// MerchantHandler handles merchant registry endpoints.
type MerchantHandler struct {
	settlementSvc ports.SettlementService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(settlementSvc ports.SettlementService) *MerchantHandler {
	return &MerchantHandler{settlementSvc: settlementSvc}
}

// Register handles POST /api/v1/merchants.
func (h *MerchantHandler) Register(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.settlementSvc.RegisterMerchant(c.Request.Context(), account, ports.RegisterMerchantRequest{
		Name:        req.Name,
		Description: req.Description,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, merchantToDTO(merchant))
}

// Update handles PUT /api/v1/merchants/me.
func (h *MerchantHandler) Update(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.UpdateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.settlementSvc.UpdateMerchant(c.Request.Context(), account, ports.UpdateMerchantRequest{
		Name:        req.Name,
		Description: req.Description,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchantToDTO(merchant))
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	merchant, err := h.settlementSvc.MerchantInfo(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchantToDTO(merchant))
}

func merchantToDTO(m *domain.Merchant) dto.MerchantResponse {
	return dto.MerchantResponse{
		AccountID:      m.AccountID.String(),
		Name:           m.Name,
		Description:    m.Description,
		WebhookURL:     m.WebhookURL,
		TotalSales:     m.TotalSales,
		PendingPayment: m.PendingPayment,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
