package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/aussiebroadwan/gatehouse/internal/auth/oauth"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/sessionx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "gatehouse-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	code := m.Run()
	os.Remove(pepperPath)

	os.Exit(code)
}

const testPassword = "Secret1!"

// recordingMailer keeps every message; fail makes every send error.
type recordingMailer struct {
	mu           sync.Mutex
	fail         bool
	verification []mail.VerificationMessage
	reset        []mail.PasswordResetMessage
}

func (m *recordingMailer) SendVerification(_ context.Context, msg mail.VerificationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.verification = append(m.verification, msg)
	return nil
}

func (m *recordingMailer) SendEmailChange(context.Context, mail.EmailChangeMessage) error {
	return nil
}

func (m *recordingMailer) SendPasswordResetCode(_ context.Context, msg mail.PasswordResetMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.reset = append(m.reset, msg)
	return nil
}

func (m *recordingMailer) SendInvitation(context.Context, mail.InvitationMessage) error { return nil }

// fakeProvider stands in for GitHub.
type fakeProvider struct {
	identity     domain.OAuthIdentity
	lastVerifier string
}

func (p *fakeProvider) Name() domain.OAuthProvider { return domain.ProviderGitHub }
func (p *fakeProvider) DisplayName() string        { return "GitHub" }

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://github.test/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) FetchUser(_ context.Context, code, verifier string) (domain.OAuthIdentity, error) {
	p.lastVerifier = verifier
	if code != "good-code" {
		return domain.OAuthIdentity{}, errors.New("bad code")
	}
	return p.identity, nil
}

type testEnv struct {
	t        *testing.T
	handler  http.Handler
	store    store.Store
	codec    *sessionx.Codec
	mailer   *recordingMailer
	provider *fakeProvider
	ip       int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := sessionx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), 0)
	require.NoError(t, err)

	wa, err := service.NewWebAuthn(service.WebAuthnConfig{
		RPID:          "localhost",
		RPDisplayName: "Gatehouse",
		RPOrigins:     []string{"http://localhost:8080"},
	})
	require.NoError(t, err)

	e := &testEnv{
		t:      t,
		store:  st,
		codec:  codec,
		mailer: &recordingMailer{},
		provider: &fakeProvider{identity: domain.OAuthIdentity{
			Provider:  domain.ProviderGitHub,
			AccountID: "gh-42",
			Email:     "octo@example.com",
			Name:      "Octo Cat",
		}},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := &SessionManager{Codec: codec}
	registry := oauth.NewRegistry(e.provider)

	tokens := &service.TokenStore{Store: st}
	emails := &service.EmailService{Store: st, Tokens: tokens, Mailer: e.mailer, BaseURL: "http://localhost:8080"}

	r := NewRouter("test", st, sessions, false, logger)
	r.AccountService = &service.AccountService{Store: st, Email: emails}
	r.CredentialService = &service.CredentialService{Store: st}
	r.EmailService = emails
	r.PasswordResetService = &service.PasswordResetService{Store: st, Tokens: tokens, Mailer: e.mailer}
	r.OAuthService = &service.OAuthService{Store: st, Providers: registry}
	r.OAuthProviders = registry
	r.PasskeyService = &service.PasskeyService{Store: st, Tokens: tokens, WebAuthn: wa}
	r.ApplyRoutes()

	e.handler = r
	return e
}

// do sends a request from a fresh client IP unless one is pinned with
// X-Forwarded-For in headers.
func (e *testEnv) do(method, path string, body any, cookies []*http.Cookie, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(e.t, err)
			rd = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	e.ip++
	req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:40000", e.ip/250, e.ip%250+1)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) authsdk.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decodeBody[authsdk.ErrorResponse](t, rec)
	require.Equal(t, code, resp.Code)
	return resp
}

// signUp registers an account and returns its id and session cookie.
func (e *testEnv) signUp(email string) (string, *http.Cookie) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/v1/auth/sign-up", authsdk.SignUpRequest{
		Name: "Test User", Email: email, Password: testPassword,
	}, nil)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	ck := cookie(rec, SessionCookieName)
	require.NotNil(e.t, ck)
	return decodeBody[authsdk.SessionResponse](e.t, rec).User.ID, ck
}

func (e *testEnv) sessionFor(u domain.SessionUser) *http.Cookie {
	e.t.Helper()
	token, _, err := e.codec.Issue(sessionx.User{ID: u.ID, Role: string(u.Role)})
	require.NoError(e.t, err)
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

func TestSignUpSignInSignOut(t *testing.T) {
	e := newTestEnv(t)

	id, ck := e.signUp("Alice@Example.com")
	require.True(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	require.Equal(t, "/", ck.Path)
	require.True(t, ck.Expires.After(time.Now()))

	rec := e.do(http.MethodGet, "/v1/auth/session", nil, []*http.Cookie{ck})
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decodeBody[authsdk.SessionResponse](t, rec)
	require.Equal(t, id, sess.User.ID)
	require.Equal(t, "user", sess.User.Role)
	require.NotNil(t, cookie(rec, SessionCookieName), "session is refreshed on every request")

	rec = e.do(http.MethodPost, "/v1/auth/sign-up", authsdk.SignUpRequest{
		Name: "Again", Email: "alice@example.com", Password: testPassword,
	}, nil)
	requireError(t, rec, http.StatusConflict, authsdk.ErrorCodeConflict)

	rec = e.do(http.MethodPost, "/v1/auth/sign-in", authsdk.SignInRequest{Email: "alice@example.com", Password: "Wrong1!x"}, nil)
	resp := requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)
	require.Equal(t, "Invalid email or password", resp.Message)

	rec = e.do(http.MethodPost, "/v1/auth/sign-in", authsdk.SignInRequest{Email: "ALICE@example.com", Password: testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, id, decodeBody[authsdk.SessionResponse](t, rec).User.ID)
	signedIn := cookie(rec, SessionCookieName)
	require.NotNil(t, signedIn)

	rec = e.do(http.MethodPost, "/v1/auth/sign-out", nil, []*http.Cookie{signedIn})
	require.Equal(t, http.StatusNoContent, rec.Code)
	out := rec.Result().Cookies()
	require.NotEmpty(t, out)
	last := out[len(out)-1]
	require.Equal(t, SessionCookieName, last.Name)
	require.Empty(t, last.Value)
	require.Negative(t, last.MaxAge)
}

func TestSessionRequired(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/v1/me", nil, nil)
	requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)

	rec = e.do(http.MethodGet, "/v1/auth/session", nil, []*http.Cookie{{Name: SessionCookieName, Value: "not-a-session"}})
	requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)

	_, ck := e.signUp("bob@example.com")
	tampered := &http.Cookie{Name: SessionCookieName, Value: ck.Value + "x"}
	rec = e.do(http.MethodGet, "/v1/me", nil, []*http.Cookie{tampered})
	requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)
}

func TestInvalidInput(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, "/v1/auth/sign-up", `{"name":`, nil)
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)

	rec = e.do(http.MethodPost, "/v1/auth/sign-up", authsdk.SignUpRequest{
		Name: "Carol", Email: "not-an-email", Password: "short",
	}, nil)
	resp := requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeValidation)
	require.Contains(t, resp.Details, "email")
	require.Contains(t, resp.Details, "password")
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t)
	id, ck := e.signUp("dave@example.com")
	jar := []*http.Cookie{ck}

	rec := e.do(http.MethodGet, "/v1/me", nil, jar)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[authsdk.ProfileResponse](t, rec)
	require.Equal(t, id, me.ID)
	require.Equal(t, "dave@example.com", me.Email)
	require.True(t, me.HasPassword)
	require.False(t, me.EmailVerified)

	rec = e.do(http.MethodPatch, "/v1/me", authsdk.UpdateProfileRequest{Name: "  "}, jar)
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeValidation)

	rec = e.do(http.MethodPatch, "/v1/me", authsdk.UpdateProfileRequest{Name: "David"}, jar)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "David", decodeBody[authsdk.UserResponse](t, rec).Name)

	rec = e.do(http.MethodPost, "/v1/me/password", authsdk.ChangePasswordRequest{
		CurrentPassword: "Wrong1!x", NewPassword: "Another2@",
	}, jar)
	requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)

	rec = e.do(http.MethodPost, "/v1/me/password", authsdk.ChangePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "Another2@",
	}, jar)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPut, "/v1/me/password", authsdk.CreatePasswordRequest{NewPassword: "Third3#x"}, jar)
	requireError(t, rec, http.StatusConflict, authsdk.ErrorCodeConflict)

	rec = e.do(http.MethodPost, "/v1/auth/sign-in", authsdk.SignInRequest{Email: "dave@example.com", Password: "Another2@"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEmailVerification(t *testing.T) {
	e := newTestEnv(t)
	_, ck := e.signUp("erin@example.com")

	require.Len(t, e.mailer.verification, 1)
	link, err := url.Parse(e.mailer.verification[0].URL)
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	rec := e.do(http.MethodPost, "/v1/email/verify", authsdk.VerifyEmailRequest{Token: token}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[authsdk.VerifyEmailResponse](t, rec)
	require.Equal(t, domain.OpEmailVerify, res.Operation)
	require.Equal(t, "erin@example.com", res.Email)

	rec = e.do(http.MethodPost, "/v1/email/verify", authsdk.VerifyEmailRequest{Token: token}, nil)
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeInvalidToken)

	rec = e.do(http.MethodPost, "/v1/me/email/verification", nil, []*http.Cookie{ck})
	requireError(t, rec, http.StatusConflict, authsdk.ErrorCodeConflict)

	rec = e.do(http.MethodPost, "/v1/me/email/change", authsdk.EmailChangeRequest{Email: "erin@example.com"}, []*http.Cookie{ck})
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeValidation)

	rec = e.do(http.MethodPost, "/v1/me/email/change", authsdk.EmailChangeRequest{Email: "erin2@example.com"}, []*http.Cookie{ck})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestPasswordReset(t *testing.T) {
	e := newTestEnv(t)
	e.signUp("frank@example.com")

	rec := e.do(http.MethodPost, "/v1/password-reset/request", authsdk.PasswordResetRequest{Email: "nobody@example.com"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, e.mailer.reset)

	rec = e.do(http.MethodPost, "/v1/password-reset/request", authsdk.PasswordResetRequest{Email: "frank@example.com"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "accepted", decodeBody[authsdk.StatusResponse](t, rec).Status)
	require.Len(t, e.mailer.reset, 1)
	code := e.mailer.reset[0].Code
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = e.do(http.MethodPost, "/v1/password-reset/confirm", authsdk.PasswordResetConfirmRequest{
		Email: "frank@example.com", Code: wrong, NewPassword: "Reset4$x",
	}, nil)
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeInvalidToken)

	rec = e.do(http.MethodPost, "/v1/password-reset/confirm", authsdk.PasswordResetConfirmRequest{
		Email: "frank@example.com", Code: code, NewPassword: "Reset4$x",
	}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/v1/auth/sign-in", authsdk.SignInRequest{Email: "frank@example.com", Password: "Reset4$x"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	e.mailer.fail = true
	rec = e.do(http.MethodPost, "/v1/password-reset/request", authsdk.PasswordResetRequest{Email: "frank@example.com"}, nil)
	requireError(t, rec, http.StatusBadGateway, authsdk.ErrorCodeDeliveryFailed)
}

func TestUsersPermissions(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceCk := e.signUp("alice@example.com")
	bob, _ := e.signUp("bob@example.com")
	admin := e.sessionFor(domain.SessionUser{ID: alice, Role: domain.RoleAdmin})

	rec := e.do(http.MethodGet, "/v1/users/"+bob, nil, []*http.Cookie{aliceCk})
	requireError(t, rec, http.StatusForbidden, authsdk.ErrorCodeForbidden)

	rec = e.do(http.MethodGet, "/v1/users/"+alice, nil, []*http.Cookie{aliceCk})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice@example.com", decodeBody[authsdk.UserResponse](t, rec).Email)

	rec = e.do(http.MethodGet, "/v1/users/"+bob, nil, []*http.Cookie{admin})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/v1/users/01J0000000000000000000000", nil, []*http.Cookie{admin})
	requireError(t, rec, http.StatusNotFound, authsdk.ErrorCodeNotFound)

	rec = e.do(http.MethodDelete, "/v1/users/"+bob, nil, []*http.Cookie{aliceCk})
	requireError(t, rec, http.StatusForbidden, authsdk.ErrorCodeForbidden)

	rec = e.do(http.MethodDelete, "/v1/users/"+bob, nil, []*http.Cookie{admin})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodDelete, "/v1/users/"+alice, nil, []*http.Cookie{aliceCk})
	require.Equal(t, http.StatusNoContent, rec.Code)
	removed := rec.Result().Cookies()
	require.Equal(t, SessionCookieName, removed[len(removed)-1].Name)
	require.Negative(t, removed[len(removed)-1].MaxAge)

	_, err := e.store.Users().GetUserByID(context.Background(), alice)
	require.ErrorIs(t, err, store.ErrNotFound)
}

// oauthStart runs the start redirect and returns the state and the cookies
// the browser would carry back.
func (e *testEnv) oauthStart() (string, []*http.Cookie) {
	e.t.Helper()
	rec := e.do(http.MethodGet, "/v1/oauth/github", nil, nil)
	require.Equal(e.t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(e.t, err)
	require.Equal(e.t, "github.test", loc.Host)

	st := cookie(rec, oauthStateCookie)
	ver := cookie(rec, oauthVerifierCookie)
	require.NotNil(e.t, st)
	require.NotNil(e.t, ver)
	require.Equal(e.t, oauthCookiePath, st.Path)
	require.Equal(e.t, 300, st.MaxAge)
	require.Equal(e.t, loc.Query().Get("state"), st.Value)
	return st.Value, []*http.Cookie{st, ver}
}

func TestOAuthCallback(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/v1/oauth/myspace", nil, nil)
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeValidation)

	state, jar := e.oauthStart()
	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state="+url.QueryEscape(state), nil, jar)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, jar[1].Value, e.provider.lastVerifier)

	ck := cookie(rec, SessionCookieName)
	require.NotNil(t, ck)
	rec = e.do(http.MethodGet, "/v1/me/oauth", nil, []*http.Cookie{ck})
	require.Equal(t, http.StatusOK, rec.Code)
	conns := decodeBody[[]authsdk.OAuthConnection](t, rec)
	require.Len(t, conns, 1)
	require.Equal(t, "github", conns[0].Provider)
	require.True(t, conns[0].Connected)

	rec = e.do(http.MethodDelete, "/v1/me/oauth/github", nil, []*http.Cookie{ck})
	requireError(t, rec, http.StatusConflict, authsdk.ErrorCodeConflict)
}

func TestOAuthCallbackFailures(t *testing.T) {
	e := newTestEnv(t)
	generic := signInPath + "?oauthError=" + url.QueryEscape(service.ErrOAuthFailed.Message)

	_, jar := e.oauthStart()
	rec := e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state=forged", nil, jar)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, generic, rec.Header().Get("Location"))
	require.Nil(t, cookie(rec, SessionCookieName))

	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state=anything", nil, nil)
	require.Equal(t, generic, rec.Header().Get("Location"))

	state, jar := e.oauthStart()
	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?error=access_denied&state="+url.QueryEscape(state), nil, jar)
	require.Equal(t, generic, rec.Header().Get("Location"))

	state, jar = e.oauthStart()
	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?code=bad-code&state="+url.QueryEscape(state), nil, jar)
	require.Equal(t, generic, rec.Header().Get("Location"))

	// The provider account belongs to someone else once linked.
	state, jar = e.oauthStart()
	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state="+url.QueryEscape(state), nil, jar)
	require.Equal(t, "/", rec.Header().Get("Location"))

	_, other := e.signUp("someone@example.com")
	state, jar = e.oauthStart()
	rec = e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state="+url.QueryEscape(state), nil, append(jar, other))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, signInPath+"?oauthError="+url.QueryEscape(service.ErrOAuthLinkedElsewhere.Message), rec.Header().Get("Location"))
}

func TestOAuthLinkWhileSignedIn(t *testing.T) {
	e := newTestEnv(t)
	id, ck := e.signUp("linker@example.com")

	state, jar := e.oauthStart()
	rec := e.do(http.MethodGet, "/v1/oauth/github/callback?code=good-code&state="+url.QueryEscape(state), nil, append(jar, ck))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, myAccountPath, rec.Header().Get("Location"))

	links, err := e.store.OAuthAccounts().ListOAuthAccountsForUser(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, links, 1)

	rec = e.do(http.MethodDelete, "/v1/me/oauth/github", nil, []*http.Cookie{ck})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPasskeyCeremonyEndpoints(t *testing.T) {
	e := newTestEnv(t)
	_, ck := e.signUp("pat@example.com")

	rec := e.do(http.MethodPost, "/v1/passkeys/registration/options", nil, nil)
	requireError(t, rec, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)

	rec = e.do(http.MethodPost, "/v1/passkeys/registration/options", nil, []*http.Cookie{ck})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var creation struct {
		PublicKey struct {
			Challenge string `json:"challenge"`
			RP        struct {
				ID string `json:"id"`
			} `json:"rp"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &creation))
	require.NotEmpty(t, creation.PublicKey.Challenge)
	require.Equal(t, "localhost", creation.PublicKey.RP.ID)

	rec = e.do(http.MethodPost, "/v1/passkeys/registration/verify", authsdk.PasskeyVerifyRequest{
		Response: json.RawMessage(`{"id":"x"}`),
	}, []*http.Cookie{ck})
	require.GreaterOrEqual(t, rec.Code, 400)
	require.Less(t, rec.Code, 500)

	rec = e.do(http.MethodPost, "/v1/passkeys/authentication/options", authsdk.PasskeyAuthenticationOptionsRequest{Email: "pat@example.com"}, nil)
	resp := requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeInvalidToken)
	require.Equal(t, service.ErrNoPasskeys.Message, resp.Message)

	rec = e.do(http.MethodGet, "/v1/me/passkeys", nil, []*http.Cookie{ck})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[[]authsdk.PasskeyResponse](t, rec))

	rec = e.do(http.MethodDelete, "/v1/me/passkeys/missing", nil, []*http.Cookie{ck})
	requireError(t, rec, http.StatusBadRequest, authsdk.ErrorCodeInvalidToken)
}

func TestSignInRateLimit(t *testing.T) {
	e := newTestEnv(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = e.do(http.MethodPost, "/v1/auth/sign-in",
			authsdk.SignInRequest{Email: "victim@example.com", Password: "Guess1!x"}, nil,
			"X-Forwarded-For", "203.0.113.7",
		)
	}
	requireError(t, last, http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited)

	// Another client is unaffected.
	rec := e.do(http.MethodPost, "/v1/auth/sign-in",
		authsdk.SignInRequest{Email: "victim@example.com", Password: "Guess1!x"}, nil,
		"X-Forwarded-For", "203.0.113.8",
	)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthHeadersAndMetrics(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/livez", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = e.do(http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decodeBody[authsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "test", ready.Version)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)

	rec = e.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "gatehouse_http_request_duration_seconds")
}
