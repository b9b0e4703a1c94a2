package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var accountID *uuid.UUID
		if aid, exists := c.Get(CtxAccountID); exists {
			if id, ok := aid.(uuid.UUID); ok {
				accountID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			AccountID:    accountID,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/auth/register" && method == "POST":
		return domain.AuditActionRegister, "account"
	case path == "/api/v1/auth/login" && method == "POST":
		return domain.AuditActionLogin, "session"
	case path == "/api/v1/vault/deposit" && method == "POST":
		return domain.AuditActionDeposit, "deposit"
	case path == "/api/v1/vault/withdraw" && method == "POST":
		return domain.AuditActionWithdraw, "deposit"
	case path == "/api/v1/merchants" && method == "POST":
		return domain.AuditActionRegMerchant, "merchant"
	case path == "/api/v1/merchants/me" && method == "PUT":
		return domain.AuditActionUpdMerchant, "merchant"
	case path == "/api/v1/items" && method == "POST":
		return domain.AuditActionListItem, "item"
	case strings.HasPrefix(path, "/api/v1/items/") && method == "PUT":
		return domain.AuditActionUpdateItem, "item"
	case strings.HasPrefix(path, "/api/v1/items/") && strings.HasSuffix(path, "/purchase") && method == "POST":
		return domain.AuditActionPurchase, "purchase"
	case path == "/api/v1/faucet/claim" && method == "POST":
		return domain.AuditActionFaucetClaim, "asset"
	case path == "/api/v1/ops/deploy-pool" && method == "POST":
		return domain.AuditActionDeployPool, "pool"
	case path == "/api/v1/ops/harvest" && method == "POST":
		return domain.AuditActionHarvest, "yield"
	case path == "/api/v1/ops/collect-fees" && method == "POST":
		return domain.AuditActionCollectFees, "fees"
	case path == "/api/v1/ops/pay-merchant" && method == "POST":
		return domain.AuditActionPayMerchant, "merchant"
	case path == "/api/v1/ops/treasury/transfer-control" && method == "POST":
		return domain.AuditActionTreasuryCtrl, "treasury"
	}
	return "", ""
}
