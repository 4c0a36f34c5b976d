package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cardledger/backend/internal/models"
	"github.com/cardledger/backend/internal/services"
)

const maxBodyBytes = 1_048_576

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// decodeJSON reads a single JSON object into dst, rejecting oversized
// bodies, unknown fields and trailing content.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// serviceErrorKinds maps each service sentinel to its stable error kind and
// HTTP status.
var serviceErrorKinds = []struct {
	target error
	kind   string
	status int
}{
	{models.ErrCardNotFound, "CARD_NOT_FOUND", http.StatusNotFound},
	{models.ErrUserNotFound, "USER_NOT_FOUND", http.StatusNotFound},
	{models.ErrBlockRequestNotFound, "BLOCK_REQUEST_NOT_FOUND", http.StatusNotFound},
	{models.ErrCardDuplicate, "CARD_DUPLICATE", http.StatusConflict},
	{models.ErrUserDuplicate, "USER_DUPLICATE", http.StatusConflict},
	{models.ErrCardBlocked, "CARD_BLOCKED", http.StatusConflict},
	{models.ErrInsufficientFunds, "INSUFFICIENT_FUNDS", http.StatusConflict},
	{models.ErrInvalidAmount, "INVALID_AMOUNT", http.StatusBadRequest},
	{models.ErrSameCardTransfer, "SAME_CARD_TRANSFER", http.StatusBadRequest},
	{models.ErrInvalidCredentials, "INVALID_CREDENTIALS", http.StatusUnauthorized},
}

// sendServiceError writes the error envelope for a service sentinel error.
// Unrecognized errors read as internal failures and keep their detail out of
// the response.
func sendServiceError(w http.ResponseWriter, err error) {
	for _, m := range serviceErrorKinds {
		if errors.Is(err, m.target) {
			services.SendKindErrorResponse(w, err.Error(), m.kind, m.status)
			return
		}
	}
	services.SendKindErrorResponse(w, "Internal server error", "INTERNAL", http.StatusInternalServerError)
}

// pagination reads page/size query params into a limit/offset pair.
func pagination(r *http.Request) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return size, page * size
}

type pageResponse struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
}

func newPageResponse(content any, limit, offset int, total int64) pageResponse {
	return pageResponse{
		Content:       content,
		Page:          offset / limit,
		Size:          limit,
		TotalElements: total,
	}
}
