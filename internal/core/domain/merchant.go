package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a registered partner that accepts yield claims for goods.
// PendingPayment is a legacy field: new purchases settle immediately, so it
// stays zero unless historical records are imported.
type Merchant struct {
	AccountID        uuid.UUID `json:"account_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	WebhookURL       *string   `json:"webhook_url,omitempty"`
	WebhookSecretEnc string    `json:"-"` // AES-256 encrypted, never expose
	TotalSales       int64     `json:"total_sales"`
	PendingPayment   int64     `json:"pending_payment"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
