package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// PasskeyHandler exposes the WebAuthn ceremonies and passkey management.
type PasskeyHandler struct {
	Passkeys *service.PasskeyService
	Sessions *SessionManager
}

// HandleRegistrationOptions handles POST /v1/passkeys/registration/options
//
//	@Summary		Begin passkey registration
//	@Description	Returns options for navigator.credentials.create. Existing passkeys are excluded.
//	@Tags			Passkeys
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	object	"PublicKeyCredentialCreationOptions"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not signed in"
//	@Router			/v1/passkeys/registration/options [post].
func (h *PasskeyHandler) HandleRegistrationOptions(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	creation, err := h.Passkeys.BeginRegistration(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, creation)
}

// HandleRegistrationVerify handles POST /v1/passkeys/registration/verify
//
//	@Summary		Finish passkey registration
//	@Tags			Passkeys
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasskeyVerifyRequest	true	"Attestation response"
//	@Success		201		{object}	authsdk.PasskeyResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid or expired passkey challenge"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Passkey verification failed"
//	@Router			/v1/passkeys/registration/verify [post].
func (h *PasskeyHandler) HandleRegistrationVerify(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.PasskeyVerifyRequest
	if !decode(w, r, &req) {
		return
	}

	key, err := h.Passkeys.FinishRegistration(r.Context(), me.ID, req.Response)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, passkeyResponse(key))
}

// HandleAuthenticationOptions handles POST /v1/passkeys/authentication/options
//
//	@Summary		Begin passkey sign-in
//	@Tags			Passkeys
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasskeyAuthenticationOptionsRequest	true	"Account email"
//	@Success		200		{object}	object										"PublicKeyCredentialRequestOptions"
//	@Failure		400		{object}	authsdk.ErrorResponse						"No passkeys are registered for this account"
//	@Router			/v1/passkeys/authentication/options [post].
func (h *PasskeyHandler) HandleAuthenticationOptions(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasskeyAuthenticationOptionsRequest
	if !decode(w, r, &req) {
		return
	}

	assertion, err := h.Passkeys.BeginAuthentication(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, assertion)
}

// HandleAuthenticationVerify handles POST /v1/passkeys/authentication/verify
//
//	@Summary		Finish passkey sign-in
//	@Tags			Passkeys
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasskeyVerifyRequest	true	"Email and assertion response"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid or expired passkey challenge"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Passkey verification failed"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Passkey does not belong to this account"
//	@Router			/v1/passkeys/authentication/verify [post].
func (h *PasskeyHandler) HandleAuthenticationVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasskeyVerifyRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.Passkeys.FinishAuthentication(r.Context(), req.Email, req.Response)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.Create(w, u); err != nil {
		slogx.FromContext(r.Context()).Error("failed to create session", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(u))
}

// HandleList handles GET /v1/me/passkeys
//
//	@Summary		List passkeys
//	@Tags			Passkeys
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{array}	authsdk.PasskeyResponse
//	@Router			/v1/me/passkeys [get].
func (h *PasskeyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	keys, err := h.Passkeys.ListPasskeys(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]authsdk.PasskeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, passkeyResponse(k))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRename handles PATCH /v1/me/passkeys/{id}
//
//	@Summary		Rename a passkey
//	@Tags			Passkeys
//	@Security		SessionCookie
//	@Accept			json
//	@Param			id		path	string							true	"Passkey id"
//	@Param			request	body	authsdk.RenamePasskeyRequest	true	"Label, empty to clear"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Passkey not found"
//	@Router			/v1/me/passkeys/{id} [patch].
func (h *PasskeyHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	var req authsdk.RenamePasskeyRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Passkeys.RenamePasskey(r.Context(), me.ID, r.PathValue("id"), req.Label); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// HandleDelete handles DELETE /v1/me/passkeys/{id}
//
//	@Summary		Delete a passkey
//	@Tags			Passkeys
//	@Security		SessionCookie
//	@Param			id	path	string	true	"Passkey id"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Passkey not found"
//	@Router			/v1/me/passkeys/{id} [delete].
func (h *PasskeyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	if err := h.Passkeys.DeletePasskey(r.Context(), me.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
