package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/oauth"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"

	_ "github.com/aussiebroadwan/gatehouse/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	secure       bool

	store       store.Store
	Sessions    *SessionManager
	Permissions service.Permissions

	AccountService       *service.AccountService
	CredentialService    *service.CredentialService
	EmailService         *service.EmailService
	PasswordResetService *service.PasswordResetService
	OAuthService         *service.OAuthService
	OAuthProviders       *oauth.Registry
	PasskeyService       *service.PasskeyService
}

// NewRouter creates a router. secure enables Secure cookies and HSTS and is
// set in production.
func NewRouter(
	buildVersion string,
	st store.Store,
	sessions *SessionManager,
	secure bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		secure:       secure,
		store:        st,
		Sessions:     sessions,
		Permissions:  service.DefaultPermissions(),
	}

	// Metrics must stay last: it reads r.Pattern, which the mux sets on the
	// request it was handed.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecureHeaders(secure),
		sessions.RefreshMiddleware(),
		httpx.Metrics(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerEmail()
	r.registerPasswordReset()
	r.registerOAuth()
	r.registerPasskeys()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatehouse Authentication Service API
//	@version		0.1.0
//	@description	Session-cookie authentication: passwords, email verification, password reset codes, OAuth providers and passkeys.
//	@description
//	@description				The session is an HS256-signed assertion in the httpOnly "session-id" cookie, renewed on every request.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatehouse
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						session-id
//	@description				Signed session assertion set by sign-in.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session chains h behind RequireSession and a per-user limit.
func session(h http.Handler, limit httpx.RateLimitConfig, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{RequireSession(), httpx.RateLimitByUser(limit)}, mws...)
	return httpx.Chain(h, chain...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Accounts: r.AccountService, Sessions: r.Sessions}

	// Sign-up and sign-in - strict limits (account creation and brute force)
	r.Mux.Handle("POST /v1/auth/sign-up",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/sign-in",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/sign-out",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{
		Accounts:    r.AccountService,
		Credentials: r.CredentialService,
		Email:       r.EmailService,
		Sessions:    r.Sessions,
	}

	r.Mux.Handle("GET /v1/me", session(http.HandlerFunc(h.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/me", session(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))

	// Password changes verify the current password - strict
	r.Mux.Handle("POST /v1/me/password", session(http.HandlerFunc(h.HandleChangePassword), httpx.StrictLimit))
	r.Mux.Handle("PUT /v1/me/password", session(http.HandlerFunc(h.HandleCreatePassword), httpx.StrictLimit))

	// Each of these sends an email - moderate
	r.Mux.Handle("POST /v1/me/email/verification", session(http.HandlerFunc(h.HandleSendVerification), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/me/email/change", session(http.HandlerFunc(h.HandleRequestEmailChange), httpx.ModerateLimit))
}

func (r *Router) registerEmail() {
	// Link tokens are high entropy but the endpoint is public - strict by IP
	r.Mux.Handle("POST /v1/email/verify",
		httpx.Chain(&EmailHandler{Email: r.EmailService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{Reset: r.PasswordResetService}

	r.Mux.Handle("POST /v1/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Six digit codes - limit per IP and per target email
	r.Mux.Handle("POST /v1/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerOAuth() {
	h := &OAuthHandler{
		OAuth:     r.OAuthService,
		Providers: r.OAuthProviders,
		Sessions:  r.Sessions,
		Secure:    r.secure,
	}

	r.Mux.Handle("GET /v1/oauth/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/oauth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/me/oauth", session(http.HandlerFunc(h.HandleList), httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/me/oauth/{provider}", session(http.HandlerFunc(h.HandleDisconnect), httpx.ModerateLimit))
}

func (r *Router) registerPasskeys() {
	h := &PasskeyHandler{Passkeys: r.PasskeyService, Sessions: r.Sessions}

	r.Mux.Handle("POST /v1/passkeys/registration/options", session(http.HandlerFunc(h.HandleRegistrationOptions), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/passkeys/registration/verify", session(http.HandlerFunc(h.HandleRegistrationVerify), httpx.ModerateLimit))

	// Sign-in ceremonies - strict by IP
	r.Mux.Handle("POST /v1/passkeys/authentication/options",
		httpx.Chain(http.HandlerFunc(h.HandleAuthenticationOptions),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/passkeys/authentication/verify",
		httpx.Chain(http.HandlerFunc(h.HandleAuthenticationVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/me/passkeys", session(http.HandlerFunc(h.HandleList), httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/me/passkeys/{id}", session(http.HandlerFunc(h.HandleRename), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/me/passkeys/{id}", session(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Accounts: r.AccountService, Sessions: r.Sessions}

	r.Mux.Handle("GET /v1/users/{id}",
		session(http.HandlerFunc(h.HandleGet), httpx.LenientLimit,
			RequirePermission(r.Permissions, service.ResourceUsers, service.ActionView, userTarget),
		),
	)
	r.Mux.Handle("DELETE /v1/users/{id}",
		session(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit,
			RequirePermission(r.Permissions, service.ResourceUsers, service.ActionDelete, userTarget),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(httpx.MetricsHandler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
