package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rail-service/bridge_service/internal/domain/errors"
)

// Error codes as constants for consistent error responses across handlers
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeInvalidChain       = "INVALID_CHAIN"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeInvalidSortOrder   = "INVALID_SORT_ORDER"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeCacheSweepFailed   = "CACHE_SWEEP_FAILED"
)

const (
	MsgInvalidRequest     = "Invalid request payload"
	MsgInternalError      = "Internal server error"
	MsgServiceUnavailable = "Service temporarily unavailable"
)

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// SendValidationError sends a validation error with field details
func SendValidationError(c *gin.Context, message string, fieldErrors map[string]string) {
	respondError(c, http.StatusBadRequest, ErrCodeValidationError, message, map[string]interface{}{
		"validation_errors": fieldErrors,
	})
}

// respondDomainError maps domain errors to HTTP statuses
func respondDomainError(c *gin.Context, err error) {
	code := apperrors.GetErrorCode(err)
	details := apperrors.GetErrorDetails(err)

	switch {
	case apperrors.IsInvalidInput(err), errors.Is(err, apperrors.ErrUnsupportedChain):
		respondError(c, http.StatusBadRequest, code, err.Error(), details)
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error(), details)
	case apperrors.IsServiceUnavailable(err):
		respondError(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, MsgServiceUnavailable, nil)
	default:
		respondInternalError(c, MsgInternalError)
	}
}
