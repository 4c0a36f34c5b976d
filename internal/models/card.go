package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus represents card status
type CardStatus string

const (
	CardStatusActive         CardStatus = "ACTIVE"
	CardStatusBlocked        CardStatus = "BLOCKED"
	CardStatusExpired        CardStatus = "EXPIRED"
	CardStatusPendingBlocked CardStatus = "PENDING_BLOCKED"
)

// Valid reports whether s is one of the known card statuses.
func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired, CardStatusPendingBlocked:
		return true
	}
	return false
}

// Card represents a tokenized bank card. The raw number is never stored:
// encrypted_number holds the reversible ciphertext and search_hash a
// deterministic HMAC token used for equality lookups.
type Card struct {
	ID              int64           `json:"id" db:"id"`
	EncryptedNumber string          `json:"-" db:"encrypted_number"`
	SearchHash      string          `json:"-" db:"search_hash"`
	First8          string          `json:"first8" db:"first8"`
	Last4           string          `json:"last4" db:"last4"`
	ValidityPeriod  time.Time       `json:"validity_period" db:"validity_period"`
	Status          CardStatus      `json:"status" db:"status_card"`
	Balance         decimal.Decimal `json:"balance" db:"balance"`
	UserID          int64           `json:"user_id" db:"user_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// CardSearchFilter is the admin card search. Nil fields are unconstrained;
// non-nil fields are combined with AND.
type CardSearchFilter struct {
	UserID       *int64           `json:"userId" validate:"omitempty,gt=0"`
	Status       *CardStatus      `json:"status"`
	FullNumber   *string          `json:"fullNumber" validate:"omitempty,len=16,numeric"`
	First8Number *string          `json:"first8Number" validate:"omitempty,min=1,max=8,numeric"`
	Last4Number  *string          `json:"last4Number" validate:"omitempty,min=1,max=4,numeric"`
	ValidFrom    *time.Time       `json:"validFrom"`
	ValidTo      *time.Time       `json:"validTo"`
	BalanceMin   *decimal.Decimal `json:"balanceMin"`
	BalanceMax   *decimal.Decimal `json:"balanceMax"`
}
