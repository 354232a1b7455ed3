package bridgeapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse is a non-2xx answer from the bridge API
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("bridge API error [%d]: %s (code: %s)", e.StatusCode, e.Message, e.Code)
}

func (e *ErrorResponse) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *ErrorResponse) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable is true for server errors and rate limiting
func (e *ErrorResponse) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.IsRateLimited()
}

// ErrMalformedResponse indicates a 2xx body that is not the expected JSON shape
var ErrMalformedResponse = errors.New("malformed bridge API response")
