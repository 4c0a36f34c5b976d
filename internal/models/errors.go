package models

import "errors"

// Business error taxonomy. Services wrap these with %w and context; the HTTP
// layer maps them to stable machine-readable kinds with errors.Is. Anything
// not in this list is an infrastructure failure and surfaces as a 500 without
// internal detail.
var (
	ErrCardNotFound         = errors.New("card not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrBlockRequestNotFound = errors.New("block request not found")
	ErrCardDuplicate        = errors.New("card already exists")
	ErrCardBlocked          = errors.New("card is not available for operation")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrSameCardTransfer     = errors.New("transfer to the same card")
	ErrUserDuplicate        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)
