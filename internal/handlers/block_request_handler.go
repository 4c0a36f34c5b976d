package handlers

import (
	"net/http"

	"github.com/cardledger/backend/internal/middleware"
	"github.com/cardledger/backend/internal/models"
	"github.com/cardledger/backend/internal/services"
)

type BlockRequestHandler struct {
	requests  *services.BlockRequestService
	validator *services.ValidationHelper
}

func NewBlockRequestHandler(requests *services.BlockRequestService) *BlockRequestHandler {
	return &BlockRequestHandler{
		requests:  requests,
		validator: services.NewValidationHelper(),
	}
}

// Create records a block request for one of the caller's cards and parks
// the card in PENDING_BLOCKED.
func (h *BlockRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		CardID int64  `json:"cardId" validate:"required,gt=0"`
		Reason string `json:"reason" validate:"required,min=1,max=255"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := h.requests.Create(r.Context(), req.CardID, req.Reason, userID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

// Process resolves a pending request. Admin only.
func (h *BlockRequestHandler) Process(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}

	adminID, okID := middleware.UserIDFromContext(r.Context())
	if !okID {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Decision models.BlockRequestStatus `json:"decision" validate:"required"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if !req.Decision.Decision() {
		services.SendErrorResponse(w, "Decision must be APPROVED or REJECTED", http.StatusBadRequest, nil)
		return
	}

	request, err := h.requests.Process(r.Context(), requestID, req.Decision, adminID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Get returns a single request by id. Admin only.
func (h *BlockRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}

	request, err := h.requests.FindByID(r.Context(), requestID)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// ListByProcessor returns requests resolved by the given admin. Admin only.
func (h *BlockRequestHandler) ListByProcessor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := pathID(w, r, "adminID")
	if !ok {
		return
	}

	limit, offset := pagination(r)
	requests, total, err := h.requests.ListByProcessor(r.Context(), adminID, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(requests, limit, offset, total))
}

// Search runs the admin block-request search. Admin only.
func (h *BlockRequestHandler) Search(w http.ResponseWriter, r *http.Request) {
	var filter models.BlockRequestFilter
	if !decodeJSON(w, r, &filter) {
		return
	}

	if err := h.validator.ValidateStruct(&filter); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if filter.Status != nil {
		switch *filter.Status {
		case models.BlockRequestPending, models.BlockRequestApproved, models.BlockRequestRejected:
		default:
			services.SendErrorResponse(w, "Unknown block request status", http.StatusBadRequest, nil)
			return
		}
	}

	limit, offset := pagination(r)
	requests, total, err := h.requests.Search(r.Context(), filter, limit, offset)
	if err != nil {
		sendServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPageResponse(requests, limit, offset, total))
}
