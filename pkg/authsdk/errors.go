package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeValidation           = "validation_error"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeConflict             = "conflict"
	ErrorCodeAuthenticationFailed = "authentication_failed"
	ErrorCodeUnauthorized         = "unauthorized"
	ErrorCodeForbidden            = "forbidden"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeDeliveryFailed       = "delivery_failed"
	ErrorCodeRateLimited          = "rate_limit_exceeded"
	ErrorCodeServerError          = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error shape of the service. It is used both by the server
// to write responses and by the client to report them.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned for bodies that are not valid JSON or
	// carry unknown fields.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "Invalid request body",
	}

	// ErrUnauthorized is returned when no valid session cookie was sent.
	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthorized,
		Message:    "You must be signed in",
	}

	// ErrForbidden is returned when the session user may not perform the action.
	ErrForbidden = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeForbidden,
		Message:    "You do not have permission to do that",
	}

	// ErrNotFound is returned for unknown resources.
	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "Not found",
	}

	// ErrServerError hides unexpected failures.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "Something went wrong. Please try again.",
	}
)

// NewAPIError creates an APIError with the given status code, code and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse converts a non-2xx response into an *APIError.
// Returns nil for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Message,
			Details:    errResp.Details,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
