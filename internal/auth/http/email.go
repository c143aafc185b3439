package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// EmailHandler consumes verification and change links. No session is
// needed since the link token identifies the user.
type EmailHandler struct {
	Email *service.EmailService
}

// ServeHTTP handles POST /v1/email/verify
//
//	@Summary		Use an email link
//	@Description	Consumes the token from a verification or change-email link.
//	@Tags			Email
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyEmailRequest	true	"Link token"
//	@Success		200		{object}	authsdk.VerifyEmailResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid or expired verification link"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email is already in use"
//	@Router			/v1/email/verify [post].
func (h *EmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyEmailRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Email.ConsumeEmailToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyEmailResponse{
		Operation: res.Operation,
		Email:     res.Email,
	})
}
