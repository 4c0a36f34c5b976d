package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cardledger/backend/internal/crypto"
	"github.com/cardledger/backend/internal/middleware"
	"github.com/cardledger/backend/internal/models"
	"github.com/cardledger/backend/internal/services"
)

type CardHandler struct {
	cards     *services.CardService
	validator *services.ValidationHelper
}

func NewCardHandler(cards *services.CardService) *CardHandler {
	return &CardHandler{
		cards:     cards,
		validator: services.NewValidationHelper(),
	}
}

// cardResponse is the external card view. The number only ever leaves the
// service masked.
type cardResponse struct {
	ID             int64             `json:"id"`
	MaskedNumber   string            `json:"maskedNumber"`
	ValidityPeriod string            `json:"validityPeriod"`
	Status         models.CardStatus `json:"status"`
	Balance        decimal.Decimal   `json:"balance"`
	UserID         int64             `json:"userId"`
}

func newCardResponse(card *models.Card) cardResponse {
	return cardResponse{
		ID:             card.ID,
		MaskedNumber:   crypto.Mask(card.Last4),
		ValidityPeriod: card.ValidityPeriod.Format("2006-01-02"),
		Status:         card.Status,
		Balance:        card.Balance,
		UserID:         card.UserID,
	}
}

func newCardResponses(cards []models.Card) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for i := range cards {
		out = append(out, newCardResponse(&cards[i]))
	}
	return out
}

// Create issues a new card for a user. Admin only.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         int64  `json:"userId" validate:"required,gt=0"`
		Number         string `json:"number" validate:"required,len=16,numeric"`
		ValidityPeriod string `json:"validityPeriod" validate:"required"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	validity, err := time.Parse("2006-01-02", req.ValidityPeriod)
	if err != nil {
		services.SendErrorResponse(w, "validityPeriod must be YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}

	card, err := h.cards.Create(r.Context(), req.UserID, req.Number, validity)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCardResponse(card))
}

// Get returns a single card. Admins see any card, users only their own.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var (
		card *models.Card
		err  error
	)
	if role, _ := middleware.RoleFromContext(r.Context()); role == models.RoleAdmin {
		card, err = h.cards.FindByID(r.Context(), cardID)
	} else {
		userID, _ := middleware.UserIDFromContext(r.Context())
		card, err = h.cards.FindByOwnerAndID(r.Context(), cardID, userID)
	}
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCardResponse(card))
}

// ListMine returns the authenticated user's cards, paginated.
func (h *CardHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	limit, offset := pagination(r)

	cards, total, err := h.cards.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(newCardResponses(cards), limit, offset, total))
}

// ListByUsername returns the named user's cards, paginated. Admin only.
func (h *CardHandler) ListByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		services.SendErrorResponse(w, "Invalid username", http.StatusBadRequest, nil)
		return
	}

	limit, offset := pagination(r)
	cards, total, err := h.cards.ListByUsername(r.Context(), username, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(newCardResponses(cards), limit, offset, total))
}

// Search runs the admin card search. Admin only.
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var filter models.CardSearchFilter
	if !decodeJSON(w, r, &filter) {
		return
	}

	if err := h.validator.ValidateStruct(&filter); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if filter.Status != nil && !filter.Status.Valid() {
		services.SendErrorResponse(w, "Unknown card status", http.StatusBadRequest, nil)
		return
	}

	limit, offset := pagination(r)
	cards, total, err := h.cards.Search(r.Context(), filter, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(newCardResponses(cards), limit, offset, total))
}

// UpdateStatus sets a card status directly. Admin only.
func (h *CardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var req struct {
		Status models.CardStatus `json:"status" validate:"required"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if !req.Status.Valid() {
		services.SendErrorResponse(w, "Unknown card status", http.StatusBadRequest, nil)
		return
	}

	card, err := h.cards.UpdateStatus(r.Context(), cardID, req.Status)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCardResponse(card))
}

// Delete removes a card. Admin only.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.cards.Delete(r.Context(), cardID); err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Balance returns the balance of one of the caller's cards.
func (h *CardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	card, err := h.cards.FindByOwnerAndID(r.Context(), cardID, userID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cardId":  card.ID,
		"balance": card.Balance,
	})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid "+name, http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}
