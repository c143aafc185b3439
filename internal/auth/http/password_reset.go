package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
)

// PasswordResetHandler runs the emailed-code reset flow.
type PasswordResetHandler struct {
	Reset *service.PasswordResetService
}

// HandleRequest handles POST /v1/password-reset/request
//
//	@Summary		Request a reset code
//	@Description	Emails a 6-digit code valid for 10 minutes. The response does not reveal whether the account exists.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordResetRequest	true	"Account email"
//	@Success		202		{object}	authsdk.StatusResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid email"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Email could not be sent"
//	@Router			/v1/password-reset/request [post].
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordResetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Reset.RequestReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	accepted(w)
}

// HandleConfirm handles POST /v1/password-reset/confirm
//
//	@Summary		Reset password with a code
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.PasswordResetConfirmRequest	true	"Email, code and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Invalid or expired code"
//	@Router			/v1/password-reset/confirm [post].
func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordResetConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Reset.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
