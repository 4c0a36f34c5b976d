package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the JSON error envelope. Kind carries a stable
// machine-readable code so clients do not have to parse the message text.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationHelper wraps a shared validator instance for request DTOs.
type ValidationHelper struct {
	validate *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{validate: validator.New()}
}

// ValidateStruct runs the struct's validate tags and returns
// validator.ValidationErrors on failure.
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validate.Struct(s)
}

// SendErrorResponse writes the error envelope. A non-nil validationErr marks
// the response as a validation failure and fills Details per field.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	resp := ErrorResponse{Error: message}
	if validationErr != nil {
		resp.Kind = "VALIDATION_FAILED"
		resp.Details = make(map[string]string)
		for _, fieldErr := range validationErr.(validator.ValidationErrors) {
			resp.Details[fieldErr.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", fieldErr.Tag())
		}
	}
	writeErrorResponse(w, statusCode, resp)
}

// SendKindErrorResponse writes the envelope with an explicit error kind.
func SendKindErrorResponse(w http.ResponseWriter, message, kind string, statusCode int) {
	writeErrorResponse(w, statusCode, ErrorResponse{Error: message, Kind: kind})
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
