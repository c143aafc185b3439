package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// writeError maps a service error onto the API error shape. Errors without
// a user-facing message are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		(&authsdk.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       authsdk.ErrorCodeValidation,
			Message:    "Invalid input",
			Details:    verr.Fields,
		}).WriteError(w)
		return
	}

	msg, ok := service.Message(err)
	if !ok {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
		return
	}

	status, code := statusFor(err)
	if status == http.StatusBadGateway {
		slogx.FromContext(r.Context()).Error("email delivery failed", slog.Any("error", err))
	}
	authsdk.NewAPIError(status, code, msg).WriteError(w)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, authsdk.ErrorCodeValidation
	case errors.Is(err, service.ErrNotFoundOrExpired):
		return http.StatusBadRequest, authsdk.ErrorCodeInvalidToken
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, authsdk.ErrorCodeConflict
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, authsdk.ErrorCodeForbidden
	case errors.Is(err, service.ErrDelivery):
		return http.StatusBadGateway, authsdk.ErrorCodeDeliveryFailed
	default:
		return http.StatusInternalServerError, authsdk.ErrorCodeServerError
	}
}
