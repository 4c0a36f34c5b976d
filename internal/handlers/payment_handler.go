package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cardledger/backend/internal/middleware"
	"github.com/cardledger/backend/internal/models"
	"github.com/cardledger/backend/internal/services"
)

type PaymentHandler struct {
	payments  *services.PaymentService
	transfers *services.TransferService
	cards     *services.CardService
	validator *services.ValidationHelper
}

func NewPaymentHandler(payments *services.PaymentService, transfers *services.TransferService, cards *services.CardService) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		transfers: transfers,
		cards:     cards,
		validator: services.NewValidationHelper(),
	}
}

// maxTransferAmount caps transfers at 15 integer digits, matching the
// numeric(19,4) balance column.
var maxTransferAmount = decimal.New(1, 15)

func validTransferAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(4)) &&
		amount.LessThan(maxTransferAmount)
}

// Transfer moves money between two of the caller's cards.
func (h *PaymentHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		FromCardID int64           `json:"fromCardId" validate:"required,gt=0"`
		ToCardID   int64           `json:"toCardId" validate:"required,gt=0"`
		Amount     decimal.Decimal `json:"amount" validate:"required"`
		Comment    string          `json:"comment" validate:"omitempty,max=255"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !validTransferAmount(req.Amount) {
		services.SendKindErrorResponse(w, "Amount must be positive with at most 4 decimal places and 15 integer digits",
			"INVALID_AMOUNT", http.StatusBadRequest)
		return
	}

	fromCard, toCard, err := h.payments.Transfer(r.Context(), req.FromCardID, req.ToCardID, req.Amount, req.Comment, userID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fromCard": newCardResponse(fromCard),
		"toCard":   newCardResponse(toCard),
	})
}

// HistoryByUsername lists a user's transfer history. Admin only.
func (h *PaymentHandler) HistoryByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		services.SendErrorResponse(w, "Invalid username", http.StatusBadRequest, nil)
		return
	}

	limit, offset := pagination(r)
	records, total, err := h.transfers.ListByUsername(r.Context(), username, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(records, limit, offset, total))
}

// HistoryByCard lists transfers touching one card. Admins see any card's
// history, users only their own.
func (h *PaymentHandler) HistoryByCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	if role, _ := middleware.RoleFromContext(r.Context()); role != models.RoleAdmin {
		userID, _ := middleware.UserIDFromContext(r.Context())
		if _, err := h.cards.FindByOwnerAndID(r.Context(), cardID, userID); err != nil {
			sendServiceError(w, err)
			return
		}
	}

	limit, offset := pagination(r)
	records, total, err := h.transfers.ListByCard(r.Context(), cardID, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(records, limit, offset, total))
}
