package http

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/oauth"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"golang.org/x/oauth2"
)

const (
	oauthStateCookie    = "oauth-state"
	oauthVerifierCookie = "oauth-verifier"
	oauthCookieTTL      = 5 * time.Minute
	oauthCookiePath     = "/v1/oauth"

	signInPath    = "/sign-in"
	myAccountPath = "/my-account"
)

// OAuthHandler runs the provider redirect flow and manages linked accounts.
type OAuthHandler struct {
	OAuth     *service.OAuthService
	Providers *oauth.Registry
	Sessions  *SessionManager
	Secure    bool
}

// HandleStart handles GET /v1/oauth/{provider}
//
//	@Summary		Start provider sign-in
//	@Description	Sets short-lived state and PKCE cookies and redirects to the provider.
//	@Tags			OAuth
//	@Param			provider	path	string	true	"google, github or microsoft"
//	@Success		302
//	@Failure		400	{object}	authsdk.ErrorResponse	"Unsupported OAuth provider"
//	@Router			/v1/oauth/{provider} [get].
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	p, err := h.Providers.Get(domain.OAuthProvider(r.PathValue("provider")))
	if err != nil {
		writeError(w, r, service.ErrUnknownProvider)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate oauth state", slog.Any("error", err))
		writeError(w, r, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	h.setCookie(w, oauthStateCookie, state, oauthCookieTTL)
	h.setCookie(w, oauthVerifierCookie, verifier, oauthCookieTTL)

	httpx.NoCache(w)
	http.Redirect(w, r, p.AuthCodeURL(state, verifier), http.StatusFound)
}

// HandleCallback handles GET /v1/oauth/{provider}/callback
//
//	@Summary		Provider callback
//	@Description	Links the provider account and signs the caller in. Failures redirect to /sign-in?oauthError=<message>.
//	@Tags			OAuth
//	@Param			provider	path	string	true	"google, github or microsoft"
//	@Param			code		query	string	true	"Authorization code"
//	@Param			state		query	string	true	"State from the start redirect"
//	@Success		302
//	@Router			/v1/oauth/{provider}/callback [get].
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	state := h.takeCookie(w, r, oauthStateCookie)
	verifier := h.takeCookie(w, r, oauthVerifierCookie)

	p, err := h.Providers.Get(domain.OAuthProvider(r.PathValue("provider")))
	if err != nil {
		h.fail(w, r, service.ErrUnknownProvider)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Info("oauth provider returned an error", slog.String("error", e))
		h.fail(w, r, service.ErrOAuthFailed)
		return
	}
	code := q.Get("code")
	if code == "" || state == "" || verifier == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(q.Get("state"))) != 1 {
		log.Warn("oauth callback state mismatch")
		h.fail(w, r, service.ErrOAuthFailed)
		return
	}

	identity, err := p.FetchUser(ctx, code, verifier)
	if err != nil {
		log.Warn("oauth profile fetch failed", slog.String("provider", string(p.Name())), slog.Any("error", err))
		h.fail(w, r, service.ErrOAuthFailed)
		return
	}

	var current *string
	if me, ok := SessionFromContext(ctx); ok {
		current = &me.ID
	}

	u, err := h.OAuth.Link(ctx, identity, current)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Sessions.Create(w, u); err != nil {
		log.Error("failed to create session", slog.Any("error", err))
		h.fail(w, r, service.ErrOAuthFailed)
		return
	}

	next := "/"
	if current != nil {
		next = myAccountPath
	}
	httpx.NoCache(w)
	http.Redirect(w, r, next, http.StatusFound)
}

// fail redirects to the sign-in page. Only conflict messages are shown
// verbatim; everything else becomes the generic failure text.
func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	msg := service.ErrOAuthFailed.Message
	if m, ok := service.Message(err); ok && errors.Is(err, service.ErrConflict) {
		msg = m
	} else if !ok {
		slogx.FromContext(r.Context()).Error("oauth callback failed", slog.Any("error", err))
	}

	httpx.NoCache(w)
	http.Redirect(w, r, signInPath+"?oauthError="+url.QueryEscape(msg), http.StatusFound)
}

func (h *OAuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeCookie returns the cookie value and clears it.
func (h *OAuthHandler) takeCookie(w http.ResponseWriter, r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	h.setCookie(w, name, "", -time.Second)
	return ck.Value
}

// HandleList handles GET /v1/me/oauth
//
//	@Summary		List OAuth connections
//	@Tags			OAuth
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{array}		authsdk.OAuthConnection
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not signed in"
//	@Router			/v1/me/oauth [get].
func (h *OAuthHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	conns, err := h.OAuth.ListConnections(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, conns)
}

// HandleDisconnect handles DELETE /v1/me/oauth/{provider}
//
//	@Summary		Disconnect a provider
//	@Tags			OAuth
//	@Security		SessionCookie
//	@Param			provider	path	string	true	"google, github or microsoft"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"OAuth account is not linked"
//	@Failure		409	{object}	authsdk.ErrorResponse	"Cannot disconnect the only sign-in method"
//	@Router			/v1/me/oauth/{provider} [delete].
func (h *OAuthHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	me, _ := SessionFromContext(r.Context())

	err := h.OAuth.Disconnect(r.Context(), me.ID, domain.OAuthProvider(r.PathValue("provider")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
