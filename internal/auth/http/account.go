package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// AccountHandler serves the signed-in user's own account under /v1/me.
// Every route is behind RequireSession.
type AccountHandler struct {
	Accounts    *service.AccountService
	Credentials *service.CredentialService
	Email       *service.EmailService
	Sessions    *SessionManager
}

// HandleGet handles GET /v1/me
//
//	@Summary		Get own profile
//	@Tags			Account
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not signed in"
//	@Router			/v1/me [get].
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := SessionFromContext(ctx)

	user, err := h.Accounts.GetUser(ctx, me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hasPassword, err := h.Credentials.HasPassword(ctx, me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
		UserResponse: userResponse(user),
		HasPassword:  hasPassword,
	})
}

// HandleUpdate handles PATCH /v1/me
//
//	@Summary		Update own profile
//	@Tags			Account
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdateProfileRequest	true	"New name"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Name is required"
//	@Router			/v1/me [patch].
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.Accounts.UpdateProfile(r.Context(), me.ID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

// HandleChangePassword handles POST /v1/me/password
//
//	@Summary		Change password
//	@Description	Replaces the password after checking the current one and reissues the session cookie.
//	@Tags			Account
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Password policy or no password set"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Current password is incorrect"
//	@Router			/v1/me/password [post].
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Credentials.ChangePassword(r.Context(), me.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.refresh(w, r, res)
}

// HandleCreatePassword handles PUT /v1/me/password
//
//	@Summary		Create password
//	@Description	Adds a password to an account that signed up through OAuth or a passkey.
//	@Tags			Account
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreatePasswordRequest	true	"New password"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		409		{object}	authsdk.ErrorResponse	"Password is already set"
//	@Router			/v1/me/password [put].
func (h *AccountHandler) HandleCreatePassword(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.CreatePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Credentials.CreatePassword(r.Context(), me.ID, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.refresh(w, r, res)
}

func (h *AccountHandler) refresh(w http.ResponseWriter, r *http.Request, res service.PasswordChangeResult) {
	if res.RefreshSession {
		if err := h.Sessions.Create(w, res.User); err != nil {
			slogx.FromContext(r.Context()).Error("failed to reissue session", slog.Any("error", err))
			authsdk.ErrServerError.WriteError(w)
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(res.User))
}

// HandleSendVerification handles POST /v1/me/email/verification
//
//	@Summary		Send verification email
//	@Tags			Email
//	@Security		SessionCookie
//	@Produce		json
//	@Success		202	{object}	authsdk.StatusResponse
//	@Failure		409	{object}	authsdk.ErrorResponse	"Email is already verified"
//	@Failure		502	{object}	authsdk.ErrorResponse	"Email could not be sent"
//	@Router			/v1/me/email/verification [post].
func (h *AccountHandler) HandleSendVerification(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	if err := h.Email.SendVerification(r.Context(), me.ID); err != nil {
		writeError(w, r, err)
		return
	}
	accepted(w)
}

// HandleRequestEmailChange handles POST /v1/me/email/change
//
//	@Summary		Change email
//	@Description	Mails a confirmation link to the new address. The email changes once the link is used.
//	@Tags			Email
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EmailChangeRequest	true	"New email"
//	@Success		202		{object}	authsdk.StatusResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid or unchanged email"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email is already in use"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Email could not be sent"
//	@Router			/v1/me/email/change [post].
func (h *AccountHandler) HandleRequestEmailChange(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.EmailChangeRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Email.RequestEmailChange(r.Context(), me.ID, req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	accepted(w)
}
