package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role determines what an account may do beyond holding balances.
type Role string

const (
	RoleUser     Role = "USER"
	RoleOperator Role = "OPERATOR"
)

// Account is a ledger identity. The account ID is the key for asset balances,
// claim balances, deposits and merchant records.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Argon2id, never expose
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsOperator returns true for accounts allowed to run privileged operations.
func (a *Account) IsOperator() bool {
	return a.Role == RoleOperator
}
