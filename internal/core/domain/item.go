package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry listed by a merchant. IDs are assigned sequentially
// starting at 1 and are never reused. Items toggle between listed and delisted
// via Active; they are never deleted.
//
// RequiredYieldClaim is both the eligibility threshold AND the amount burned
// on purchase. It is decoupled from Price and may be zero for a priced item.
type Item struct {
	ID                 int64     `json:"id"`
	MerchantID         uuid.UUID `json:"merchant_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Price              int64     `json:"price"`
	RequiredYieldClaim int64     `json:"required_yield_claim"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
