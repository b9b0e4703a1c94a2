package handler

import (
	"yieldback-ledger/internal/adapter/http/dto"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"
	"yieldback-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// FaucetHandler handles the dev/test stable-asset faucet.
type FaucetHandler struct {
	faucetSvc ports.FaucetService
}

// NewFaucetHandler creates a new FaucetHandler.
func NewFaucetHandler(faucetSvc ports.FaucetService) *FaucetHandler {
	return &FaucetHandler{faucetSvc: faucetSvc}
}

// Claim handles POST /api/v1/faucet/claim.
func (h *FaucetHandler) Claim(c *gin.Context) {
	user, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	granted, err := h.faucetSvc.Claim(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FaucetResponse{Granted: granted})
}
