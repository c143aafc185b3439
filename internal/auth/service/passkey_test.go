package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/require"
)

// fakeWebAuthn stands in for the relying party. It checks challenges and
// credential ownership and reports the configured sign counter.
type fakeWebAuthn struct {
	n             int
	lastChallenge string
	lastExcluded  int
	signCount     uint32
	failVerify    bool
}

func (f *fakeWebAuthn) nextSession(user webauthn.User) *webauthn.SessionData {
	f.n++
	f.lastChallenge = fmt.Sprintf("challenge-%d", f.n)
	return &webauthn.SessionData{
		Challenge: f.lastChallenge,
		UserID:    user.WebAuthnID(),
		Expires:   time.Now().Add(time.Hour),
	}
}

func (f *fakeWebAuthn) BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	creation := &protocol.CredentialCreation{}
	for _, o := range opts {
		o(&creation.Response)
	}
	f.lastExcluded = len(creation.Response.CredentialExcludeList)
	return creation, f.nextSession(user), nil
}

func (f *fakeWebAuthn) CreateCredential(user webauthn.User, session webauthn.SessionData, parsed *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if session.Challenge != parsed.Response.CollectedClientData.Challenge || !bytes.Equal(session.UserID, user.WebAuthnID()) {
		return nil, errors.New("challenge mismatch")
	}
	if f.failVerify {
		return nil, errors.New("bad attestation")
	}
	return &webauthn.Credential{
		ID:              parsed.RawID,
		PublicKey:       []byte("public-key"),
		AttestationType: "none",
		Transport:       []protocol.AuthenticatorTransport{protocol.Internal},
		Flags:           webauthn.CredentialFlags{UserPresent: true, UserVerified: true, BackupEligible: true},
		Authenticator:   webauthn.Authenticator{AAGUID: make([]byte, 16), SignCount: 1},
	}, nil
}

func (f *fakeWebAuthn) BeginLogin(user webauthn.User, _ ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return &protocol.CredentialAssertion{}, f.nextSession(user), nil
}

func (f *fakeWebAuthn) ValidateLogin(user webauthn.User, session webauthn.SessionData, parsed *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	if session.Challenge != parsed.Response.CollectedClientData.Challenge {
		return nil, errors.New("challenge mismatch")
	}
	if f.failVerify {
		return nil, errors.New("bad signature")
	}
	for _, c := range user.WebAuthnCredentials() {
		if bytes.Equal(c.ID, parsed.RawID) {
			c.Authenticator.CloneWarning = f.signCount != 0 && f.signCount <= c.Authenticator.SignCount
			c.Authenticator.SignCount = f.signCount
			c.Flags.BackupState = true
			return &c, nil
		}
	}
	return nil, errors.New("credential not allowed")
}

// fakeParser decodes {"challenge","rawId"} bodies.
type fakeParser struct{}

type fakeResponse struct {
	Challenge string `json:"challenge"`
	RawID     string `json:"rawId"`
}

func (fakeParser) decode(data []byte) (fakeResponse, error) {
	var r fakeResponse
	if err := json.Unmarshal(data, &r); err != nil || r.Challenge == "" {
		return r, errors.New("malformed response")
	}
	return r, nil
}

func (p fakeParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	r, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	parsed := &protocol.ParsedCredentialCreationData{}
	parsed.RawID = []byte(r.RawID)
	parsed.Response.CollectedClientData.Challenge = r.Challenge
	return parsed, nil
}

func (p fakeParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	r, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	parsed := &protocol.ParsedCredentialAssertionData{}
	parsed.RawID = []byte(r.RawID)
	parsed.Response.CollectedClientData.Challenge = r.Challenge
	return parsed, nil
}

func body(t *testing.T, challenge, rawID string) []byte {
	t.Helper()
	b, err := json.Marshal(fakeResponse{Challenge: challenge, RawID: rawID})
	require.NoError(t, err)
	return b
}

func newPasskeyEnv(t *testing.T) (*env, *PasskeyService, *fakeWebAuthn) {
	t.Helper()
	e := newEnv(t)
	fw := &fakeWebAuthn{}
	svc := &PasskeyService{Store: e.store, Tokens: e.tokens, WebAuthn: fw, Parser: fakeParser{}, Clock: e.clock.Now}
	return e, svc, fw
}

func registerPasskey(t *testing.T, svc *PasskeyService, fw *fakeWebAuthn, userID, rawID string) domain.Passkey {
	t.Helper()
	ctx := context.Background()
	_, err := svc.BeginRegistration(ctx, userID)
	require.NoError(t, err)
	key, err := svc.FinishRegistration(ctx, userID, body(t, fw.lastChallenge, rawID))
	require.NoError(t, err)
	return key
}

func TestPasskeyRegistration(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	key := registerPasskey(t, svc, fw, u.ID, "cred-1")
	require.Equal(t, encodeB64([]byte("cred-1")), key.CredentialID)
	require.True(t, key.IsBackupEligible)
	require.True(t, key.IsUserVerified)
	require.Equal(t, []string{"internal"}, key.Transports)
	require.Nil(t, key.AAGUID)

	keys, err := svc.ListPasskeys(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	// Existing credentials are excluded from the next ceremony.
	_, err = svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fw.lastExcluded)
}

func TestPasskeyReRegistrationReplacesCredential(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	first := registerPasskey(t, svc, fw, u.ID, "cred-1")
	second := registerPasskey(t, svc, fw, u.ID, "cred-1")
	require.NotEqual(t, first.ID, second.ID)

	keys, err := svc.ListPasskeys(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, second.ID, keys[0].ID)
}

func TestPasskeyRegistrationForgedChallenge(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	_, err := svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)
	original := fw.lastChallenge

	_, err = svc.FinishRegistration(ctx, u.ID, body(t, "forged-challenge", "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)

	// The real challenge was revoked along with the forged attempt.
	_, err = svc.FinishRegistration(ctx, u.ID, body(t, original, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)

	keys, err := svc.ListPasskeys(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestPasskeyRegistrationVerificationFailureRevokes(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	_, err := svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)
	challenge := fw.lastChallenge

	fw.failVerify = true
	_, err = svc.FinishRegistration(ctx, u.ID, body(t, challenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyVerification)

	fw.failVerify = false
	_, err = svc.FinishRegistration(ctx, u.ID, body(t, challenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyRegistrationChallengeOfAnotherUser(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	a := e.seedUser(t, "a@x.com", "")
	b := e.seedUser(t, "b@x.com", "")

	_, err := svc.BeginRegistration(ctx, a.ID)
	require.NoError(t, err)

	_, err = svc.FinishRegistration(ctx, b.ID, body(t, fw.lastChallenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyRegistrationExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	_, err := svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)

	e.clock.Advance(PasskeyChallengeTTL)
	_, err = svc.FinishRegistration(ctx, u.ID, body(t, fw.lastChallenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyRegistrationMalformedBody(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	_, err := svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)
	challenge := fw.lastChallenge

	_, err = svc.FinishRegistration(ctx, u.ID, []byte("{not json"))
	require.ErrorIs(t, err, ErrPasskeyVerification)

	_, err = svc.FinishRegistration(ctx, u.ID, body(t, challenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyAuthentication(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")
	key := registerPasskey(t, svc, fw, u.ID, "cred-1")

	_, err := svc.BeginAuthentication(ctx, "A@x.com")
	require.NoError(t, err)

	fw.signCount = 5
	su, err := svc.FinishAuthentication(ctx, "a@x.com", body(t, fw.lastChallenge, "cred-1"))
	require.NoError(t, err)
	require.Equal(t, u.ID, su.ID)

	keys, err := svc.ListPasskeys(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, key.ID, keys[0].ID)
	require.EqualValues(t, 5, keys[0].SignCount)
	require.True(t, keys[0].IsBackupState)
	require.NotNil(t, keys[0].LastUsedAt)

	user, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, user.LastSignInAt)
}

func TestPasskeyAuthenticationCloneWarning(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")
	registerPasskey(t, svc, fw, u.ID, "cred-1")

	_, err := svc.BeginAuthentication(ctx, "a@x.com")
	require.NoError(t, err)
	fw.signCount = 5
	_, err = svc.FinishAuthentication(ctx, "a@x.com", body(t, fw.lastChallenge, "cred-1"))
	require.NoError(t, err)

	// A counter that goes backwards means a cloned authenticator.
	_, err = svc.BeginAuthentication(ctx, "a@x.com")
	require.NoError(t, err)
	challenge := fw.lastChallenge
	fw.signCount = 3
	_, err = svc.FinishAuthentication(ctx, "a@x.com", body(t, challenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyVerification)

	// The challenge is gone.
	fw.signCount = 9
	_, err = svc.FinishAuthentication(ctx, "a@x.com", body(t, challenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyAuthenticationErrors(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	a := e.seedUser(t, "a@x.com", "")
	b := e.seedUser(t, "b@x.com", "")
	e.seedUser(t, "none@x.com", "")
	registerPasskey(t, svc, fw, a.ID, "cred-a")
	registerPasskey(t, svc, fw, b.ID, "cred-b")

	_, err := svc.BeginAuthentication(ctx, "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.BeginAuthentication(ctx, "none@x.com")
	require.ErrorIs(t, err, ErrNoPasskeys)

	// b's credential presented against a's ceremony.
	_, err = svc.BeginAuthentication(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.FinishAuthentication(ctx, "a@x.com", body(t, fw.lastChallenge, "cred-b"))
	require.ErrorIs(t, err, ErrPasskeyNotOwned)
}

func TestPasskeyChallengeNotReusableAcrossOperations(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	u := e.seedUser(t, "a@x.com", "")
	registerPasskey(t, svc, fw, u.ID, "cred-1")

	_, err := svc.BeginRegistration(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.FinishAuthentication(ctx, "a@x.com", body(t, fw.lastChallenge, "cred-1"))
	require.ErrorIs(t, err, ErrPasskeyChallenge)
}

func TestPasskeyManagement(t *testing.T) {
	ctx := context.Background()
	e, svc, fw := newPasskeyEnv(t)
	a := e.seedUser(t, "a@x.com", "")
	b := e.seedUser(t, "b@x.com", "")
	key := registerPasskey(t, svc, fw, a.ID, "cred-1")

	require.NoError(t, svc.RenamePasskey(ctx, a.ID, key.ID, "  Laptop "))
	keys, err := svc.ListPasskeys(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Laptop", *keys[0].Label)

	require.ErrorIs(t, svc.RenamePasskey(ctx, b.ID, key.ID, "Mine"), ErrPasskeyNotFound)
	require.ErrorIs(t, svc.DeletePasskey(ctx, b.ID, key.ID), ErrPasskeyNotFound)

	require.NoError(t, svc.DeletePasskey(ctx, a.ID, key.ID))
	keys, err = svc.ListPasskeys(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestCredentialConversionRoundTrip(t *testing.T) {
	aaguid := []byte{0xad, 0xce, 0x00, 0x02, 0x35, 0xbc, 0xc6, 0x0a, 0x64, 0x8b, 0x0b, 0x25, 0xf1, 0xf0, 0x55, 0x03}
	in := webauthn.Credential{
		ID:              []byte{1, 2, 3},
		PublicKey:       []byte{4, 5, 6},
		AttestationType: "packed",
		Transport:       []protocol.AuthenticatorTransport{protocol.USB, protocol.NFC},
		Flags:           webauthn.CredentialFlags{UserPresent: true, BackupEligible: true, BackupState: true},
		Authenticator:   webauthn.Authenticator{AAGUID: aaguid, SignCount: 7},
	}

	key := fromCredential("user-1", in, time.Now())
	require.NotNil(t, key.AAGUID)
	require.Equal(t, "adce0002-35bc-c60a-648b-0b25f1f05503", *key.AAGUID)

	out, err := toCredential(key)
	require.NoError(t, err)
	require.Equal(t, in.ID, out.ID)
	require.Equal(t, in.PublicKey, out.PublicKey)
	require.Equal(t, in.Transport, out.Transport)
	require.Equal(t, in.Flags, out.Flags)
	require.Equal(t, in.Authenticator.AAGUID, out.Authenticator.AAGUID)
	require.EqualValues(t, 7, out.Authenticator.SignCount)
}
