package models

import "time"

// BlockRequestStatus represents block request status
type BlockRequestStatus string

const (
	BlockRequestPending  BlockRequestStatus = "PENDING"
	BlockRequestApproved BlockRequestStatus = "APPROVED"
	BlockRequestRejected BlockRequestStatus = "REJECTED"
)

// Decision reports whether s is a legal admin decision.
func (s BlockRequestStatus) Decision() bool {
	return s == BlockRequestApproved || s == BlockRequestRejected
}

// BlockRequest is a card owner's request to block a card, resolved by an
// admin. ProcessedBy and ProcessedAt are both nil until the request is
// processed, then both set in the same transaction as the card status change.
type BlockRequest struct {
	ID          int64              `json:"id" db:"id"`
	CardID      int64              `json:"card_id" db:"card_id"`
	RequesterID int64              `json:"requester_id" db:"user_id"`
	Reason      string             `json:"reason" db:"reason"`
	Status      BlockRequestStatus `json:"status" db:"block_request_status"`
	ProcessedBy *int64             `json:"processed_by" db:"processed_by"`
	ProcessedAt *time.Time         `json:"processed_at" db:"processed_at"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}

// BlockRequestFilter is the admin block-request search. Nil fields are
// unconstrained; non-nil fields are combined with AND.
type BlockRequestFilter struct {
	Status            *BlockRequestStatus `json:"status"`
	Processed         *bool               `json:"processed"`
	RequesterID       *int64              `json:"requesterId" validate:"omitempty,gt=0"`
	RequesterUsername *string             `json:"requesterUsername" validate:"omitempty,min=1,max=50"`
	ProcessedByID     *int64              `json:"processedById" validate:"omitempty,gt=0"`
	ReasonContains    *string             `json:"reasonContains" validate:"omitempty,min=1,max=255"`
	CreatedFrom       *time.Time          `json:"createdFrom"`
	CreatedTo         *time.Time          `json:"createdTo"`
	ProcessedFrom     *time.Time          `json:"processedFrom"`
	ProcessedTo       *time.Time          `json:"processedTo"`
}
