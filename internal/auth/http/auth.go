package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// AuthHandler handles password sign-up, sign-in and the session itself.
type AuthHandler struct {
	Accounts *service.AccountService
	Sessions *SessionManager
}

// HandleSignUp handles POST /v1/auth/sign-up
//
//	@Summary		Create an account
//	@Description	Creates a user with a password, sends a verification email and signs the caller in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest	true	"Account details"
//	@Success		201		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid input"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already exists"
//	@Router			/v1/auth/sign-up [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignUpRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.Accounts.SignUp(r.Context(), service.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.signIn(w, r, u, http.StatusCreated)
}

// HandleSignIn handles POST /v1/auth/sign-in
//
//	@Summary		Sign in with a password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid input"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid email or password"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/sign-in [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.signIn(w, r, u, http.StatusOK)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, u domain.SessionUser, status int) {
	if err := h.Sessions.Create(w, u); err != nil {
		slogx.FromContext(r.Context()).Error("failed to create session", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, status, sessionResponse(u))
}

// HandleSignOut handles POST /v1/auth/sign-out
//
//	@Summary		Sign out
//	@Description	Clears the session cookie. The assertion itself stays valid until it expires.
//	@Tags			Auth
//	@Success		204
//	@Router			/v1/auth/sign-out [post].
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Remove(w)
	noContent(w)
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Current session
//	@Tags			Auth
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not signed in"
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse(u))
}
