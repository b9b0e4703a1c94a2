package handler

import (
	"strconv"
	"time"

	"yieldback-ledger/internal/adapter/http/dto"
	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"
	"yieldback-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ItemHandler handles catalog and purchase endpoints.
type ItemHandler struct {
	settlementSvc ports.SettlementService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(settlementSvc ports.SettlementService) *ItemHandler {
	return &ItemHandler{settlementSvc: settlementSvc}
}

// List handles POST /api/v1/items.
func (h *ItemHandler) List(c *gin.Context) {
	merchant, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	item, err := h.settlementSvc.ListItem(c.Request.Context(), merchant, ports.ListItemRequest{
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		RequiredYieldClaim: req.RequiredYieldClaim,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, itemToDTO(item))
}

// Update handles PUT /api/v1/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	merchant, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	item, err := h.settlementSvc.UpdateItem(c.Request.Context(), merchant, itemID, ports.UpdateItemRequest{
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		RequiredYieldClaim: req.RequiredYieldClaim,
		Active:             req.Active,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, itemToDTO(item))
}

// Get handles GET /api/v1/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.settlementSvc.ItemInfo(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, itemToDTO(item))
}

// Eligibility handles GET /api/v1/items/:id/eligibility.
func (h *ItemHandler) Eligibility(c *gin.Context) {
	buyer, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	eligible, err := h.settlementSvc.IsEligibleForPurchase(c.Request.Context(), buyer, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.EligibilityResponse{ItemID: itemID, Eligible: eligible})
}

// Purchase handles POST /api/v1/items/:id/purchase.
func (h *ItemHandler) Purchase(c *gin.Context) {
	buyer, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.settlementSvc.PurchaseItem(c.Request.Context(), buyer, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.PurchaseResponse{
		PurchaseID:      result.Purchase.ID,
		ItemID:          result.Purchase.ItemID,
		MerchantID:      result.Purchase.MerchantID.String(),
		Price:           result.Purchase.Price,
		PlatformFee:     result.PlatformFee,
		MerchantPayment: result.MerchantPayment,
		YieldClaimBurnt: result.YieldClaimBurnt,
		Paid:            result.Purchase.Paid,
		CreatedAt:       result.Purchase.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetPurchase handles GET /api/v1/purchases/:id.
func (h *ItemHandler) GetPurchase(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.ErrInvalidPurchaseID())
		return
	}

	p, err := h.settlementSvc.PurchaseInfo(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PurchaseInfoResponse{
		ID:         p.ID,
		Buyer:      p.Buyer.String(),
		MerchantID: p.MerchantID.String(),
		ItemID:     p.ItemID,
		Price:      p.Price,
		Paid:       p.Paid,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func parseItemID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ErrInvalidItemID()
	}
	return id, nil
}

func itemToDTO(i *domain.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                 i.ID,
		MerchantID:         i.MerchantID.String(),
		Name:               i.Name,
		Description:        i.Description,
		Price:              i.Price,
		RequiredYieldClaim: i.RequiredYieldClaim,
		Active:             i.Active,
		CreatedAt:          i.CreatedAt.UTC().Format(time.RFC3339),
	}
}
