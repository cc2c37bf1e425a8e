package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/calendar"
	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodePastMonth            = "PAST_MONTH"
	CodePersistence          = "PERSISTENCE_ERROR"
	CodeDispatch             = "DISPATCH_ERROR"
	CodeInternalError        = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func writeErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// statusFor maps a service error onto its HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, CodeConfirmationRequired
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, calendar.ErrPastMonth):
		return http.StatusBadRequest, CodePastMonth
	case domain.IsValidation(err):
		return http.StatusBadRequest, CodeInvalidInput
	case domain.IsDispatch(err):
		return http.StatusBadGateway, CodeDispatch
	case domain.IsPersistence(err):
		return http.StatusInternalServerError, CodePersistence
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "code", code)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeErrorWithDetails(w, status, err.Error(), code, verr.Field)
		return
	}
	writeError(w, status, err.Error(), code)
}
