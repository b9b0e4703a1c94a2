package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is an immutable settlement record. Paid is true for every purchase
// created under immediate settlement; it exists for legacy records settled
// through the deferred PayMerchant path.
type Purchase struct {
	ID         int64     `json:"id"`
	Buyer      uuid.UUID `json:"buyer"`
	MerchantID uuid.UUID `json:"merchant_id"`
	ItemID     int64     `json:"item_id"`
	Price      int64     `json:"price"`
	Paid       bool      `json:"paid"`
	CreatedAt  time.Time `json:"created_at"`
}
