package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord is one completed transfer between two cards of the same
// owner. Rows are append-only: created exactly once inside the payment
// transaction and never updated.
type TransferRecord struct {
	ID         int64           `json:"id" db:"id"`
	Reference  string          `json:"reference" db:"reference"`
	FromCardID int64           `json:"from_card_id" db:"from_card_id"`
	ToCardID   int64           `json:"to_card_id" db:"to_card_id"`
	UserID     int64           `json:"user_id" db:"user_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Comment    string          `json:"comment" db:"comment"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
