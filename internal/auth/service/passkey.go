package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

const (
	PasskeyChallengeTTL = 10 * time.Minute
	maxPasskeyLabel     = 64
)

// PasskeyProvider is the subset of *webauthn.WebAuthn the ceremonies use.
type PasskeyProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// PasskeyParser decodes browser responses.
type PasskeyParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type DefaultPasskeyParser struct{}

func (DefaultPasskeyParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (DefaultPasskeyParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

type WebAuthnConfig struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
}

// NewWebAuthn builds the relying party used by PasskeyService.
func NewWebAuthn(c WebAuthnConfig) (*webauthn.WebAuthn, error) {
	w, err := webauthn.New(&webauthn.Config{
		RPID:          c.RPID,
		RPDisplayName: c.RPDisplayName,
		RPOrigins:     c.RPOrigins,
		Timeouts: webauthn.TimeoutsConfig{
			Login:        webauthn.TimeoutConfig{Enforce: true, Timeout: PasskeyChallengeTTL},
			Registration: webauthn.TimeoutConfig{Enforce: true, Timeout: PasskeyChallengeTTL},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return w, nil
}

// PasskeyService runs WebAuthn ceremonies. Each ceremony is one
// device_trust token whose hash is the fingerprint of the challenge.
type PasskeyService struct {
	Store    store.Store
	Tokens   *TokenStore
	WebAuthn PasskeyProvider
	Parser   PasskeyParser
	Clock    func() time.Time
}

type passkeyUser struct {
	user        domain.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte                         { return []byte(u.user.ID) }
func (u *passkeyUser) WebAuthnName() string                       { return u.user.Email }
func (u *passkeyUser) WebAuthnDisplayName() string                { return u.user.Name }
func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

func (s *PasskeyService) parser() PasskeyParser {
	if s.Parser == nil {
		return DefaultPasskeyParser{}
	}
	return s.Parser
}

func (s *PasskeyService) loadPasskeyUser(ctx context.Context, user domain.User) (*passkeyUser, []domain.Passkey, error) {
	keys, err := s.Store.Passkeys().ListPasskeysForUser(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list passkeys: %w", err)
	}
	creds := make([]webauthn.Credential, 0, len(keys))
	for _, k := range keys {
		c, err := toCredential(k)
		if err != nil {
			return nil, nil, err
		}
		creds = append(creds, c)
	}
	return &passkeyUser{user: user, credentials: creds}, keys, nil
}

// BeginRegistration returns creation options for a new passkey. Existing
// credentials are excluded so an authenticator cannot register twice.
func (s *PasskeyService) BeginRegistration(ctx context.Context, userID string) (*protocol.CredentialCreation, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	wu, _, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return nil, err
	}

	opts := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementPreferred),
	}
	if len(wu.credentials) > 0 {
		opts = append(opts, webauthn.WithExclusions(webauthn.Credentials(wu.credentials).CredentialDescriptors()))
	}

	creation, session, err := s.WebAuthn.BeginRegistration(wu, opts...)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	if err := s.issueChallenge(ctx, user.ID, domain.OpPasskeyRegister, session); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Debug("passkey registration started", slog.String("user_id", user.ID))
	return creation, nil
}

func (s *PasskeyService) issueChallenge(ctx context.Context, userID, op string, session *webauthn.SessionData) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode webauthn session: %w", err)
	}
	_, _, err = s.Tokens.Issue(ctx, IssueParams{
		UserID: &userID,
		Type:   domain.TokenTypeDeviceTrust,
		Metadata: domain.TokenMetadata{Passkey: &domain.PasskeyChallengeMetadata{
			Operation: op,
			Challenge: session.Challenge,
			Session:   raw,
		}},
		TTL: PasskeyChallengeTTL,
		Raw: session.Challenge,
	})
	return err
}

// challengeToken finds the ceremony token for challenge. Any mismatch
// revokes the user's pending ceremony so it cannot be retried.
func (s *PasskeyService) challengeToken(ctx context.Context, userID, op, challenge string) (domain.Token, webauthn.SessionData, error) {
	tok, err := s.Tokens.Lookup(ctx, challenge, domain.TokenTypeDeviceTrust)
	if err != nil || challenge == "" {
		s.revokePending(ctx, userID)
		if err != nil && !errors.Is(err, ErrTokenInvalid) {
			return domain.Token{}, webauthn.SessionData{}, err
		}
		return domain.Token{}, webauthn.SessionData{}, ErrPasskeyChallenge
	}

	meta := tok.Metadata.Passkey
	if meta == nil || meta.Operation != op || tok.UserID == nil || *tok.UserID != userID {
		s.revoke(ctx, tok.ID)
		s.revokePending(ctx, userID)
		return domain.Token{}, webauthn.SessionData{}, ErrPasskeyChallenge
	}

	var session webauthn.SessionData
	if err := json.Unmarshal(meta.Session, &session); err != nil {
		s.revoke(ctx, tok.ID)
		return domain.Token{}, webauthn.SessionData{}, fmt.Errorf("decode webauthn session: %w", err)
	}
	return tok, session, nil
}

func (s *PasskeyService) revoke(ctx context.Context, id string) {
	if err := s.Tokens.Revoke(ctx, id); err != nil {
		slogx.FromContext(ctx).Error("failed to revoke passkey challenge",
			slog.String("token_id", id),
			slog.Any("error", err),
		)
	}
}

func (s *PasskeyService) revokePending(ctx context.Context, userID string) {
	tok, err := s.Tokens.LatestForUser(ctx, userID, domain.TokenTypeDeviceTrust)
	if err != nil {
		return
	}
	s.revoke(ctx, tok.ID)
}

// FinishRegistration verifies the browser response and stores the passkey.
// A credential id seen before replaces the old row.
func (s *PasskeyService) FinishRegistration(ctx context.Context, userID string, body []byte) (domain.Passkey, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Passkey{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Passkey{}, fmt.Errorf("get user: %w", err)
	}

	// 1. Parse the response and find its ceremony.
	parsed, err := s.parser().ParseCredentialCreationResponseBytes(body)
	if err != nil {
		s.revokePending(ctx, user.ID)
		log.Info("passkey registration response rejected", slog.Any("error", err))
		recordEvent("passkey_register", err)
		return domain.Passkey{}, ErrPasskeyVerification
	}

	challenge := parsed.Response.CollectedClientData.Challenge
	tok, session, err := s.challengeToken(ctx, user.ID, domain.OpPasskeyRegister, challenge)
	if err != nil {
		recordEvent("passkey_register", err)
		return domain.Passkey{}, err
	}

	// 2. Verify attestation against the stored session.
	wu, _, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return domain.Passkey{}, err
	}
	cred, err := s.WebAuthn.CreateCredential(wu, session, parsed)
	if err != nil {
		s.revoke(ctx, tok.ID)
		log.Info("passkey registration verification failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		recordEvent("passkey_register", err)
		return domain.Passkey{}, ErrPasskeyVerification
	}

	// 3. Store the credential and consume the challenge together.
	now := nowFrom(s.Clock)
	key := fromCredential(user.ID, *cred, now)
	key.ID = idx.NewAt(now).String()

	_, err = s.Tokens.ConsumeWith(ctx, challenge, domain.TokenTypeDeviceTrust, func(tx store.Tx, _ domain.Token) error {
		if err := tx.Passkeys().DeletePasskeyByCredentialID(ctx, key.CredentialID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete previous passkey: %w", err)
		}
		if err := tx.Passkeys().CreatePasskey(ctx, key); err != nil {
			return fmt.Errorf("create passkey: %w", err)
		}
		return nil
	})
	recordEvent("passkey_register", err)
	if errors.Is(err, ErrTokenInvalid) {
		return domain.Passkey{}, ErrPasskeyChallenge
	}
	if err != nil {
		log.Error("failed to store passkey", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.Passkey{}, err
	}

	log.Info("passkey registered",
		slog.String("user_id", user.ID),
		slog.String("passkey_id", key.ID),
	)
	return key, nil
}

// BeginAuthentication returns assertion options for the account behind
// email. Accounts without passkeys are told so.
func (s *PasskeyService) BeginAuthentication(ctx context.Context, email string) (*protocol.CredentialAssertion, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	wu, _, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(wu.credentials) == 0 {
		return nil, ErrNoPasskeys
	}

	assertion, session, err := s.WebAuthn.BeginLogin(wu)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}
	if err := s.issueChallenge(ctx, user.ID, domain.OpPasskeyAuthenticate, session); err != nil {
		return nil, err
	}
	return assertion, nil
}

// FinishAuthentication verifies an assertion and returns the signed-in
// user. A clone warning from the sign counter fails the ceremony.
func (s *PasskeyService) FinishAuthentication(ctx context.Context, email string, body []byte) (domain.SessionUser, error) {
	log := slogx.FromContext(ctx)

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return domain.SessionUser{}, err
	}

	parsed, err := s.parser().ParseCredentialRequestResponseBytes(body)
	if err != nil {
		s.revokePending(ctx, user.ID)
		log.Info("passkey assertion rejected", slog.Any("error", err))
		recordEvent("passkey_authenticate", err)
		return domain.SessionUser{}, ErrPasskeyVerification
	}

	challenge := parsed.Response.CollectedClientData.Challenge
	tok, session, err := s.challengeToken(ctx, user.ID, domain.OpPasskeyAuthenticate, challenge)
	if err != nil {
		recordEvent("passkey_authenticate", err)
		return domain.SessionUser{}, err
	}

	// The credential must be one of this user's.
	stored, err := s.Store.Passkeys().GetPasskeyByCredentialID(ctx, encodeB64(parsed.RawID))
	if err != nil || stored.UserID != user.ID {
		s.revoke(ctx, tok.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.SessionUser{}, fmt.Errorf("get passkey: %w", err)
		}
		recordEvent("passkey_authenticate", ErrPasskeyNotOwned)
		return domain.SessionUser{}, ErrPasskeyNotOwned
	}

	wu, _, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return domain.SessionUser{}, err
	}
	cred, err := s.WebAuthn.ValidateLogin(wu, session, parsed)
	if err == nil && cred.Authenticator.CloneWarning {
		err = errors.New("sign counter did not increase")
	}
	if err != nil {
		s.revoke(ctx, tok.ID)
		log.Warn("passkey authentication failed",
			slog.String("user_id", user.ID),
			slog.String("passkey_id", stored.ID),
			slog.Any("error", err),
		)
		recordEvent("passkey_authenticate", err)
		return domain.SessionUser{}, ErrPasskeyVerification
	}

	now := nowFrom(s.Clock)
	_, err = s.Tokens.ConsumeWith(ctx, challenge, domain.TokenTypeDeviceTrust, func(tx store.Tx, _ domain.Token) error {
		err := tx.Passkeys().UpdatePasskeyUsage(ctx, store.PasskeyUsage{
			ID:               stored.ID,
			SignCount:        cred.Authenticator.SignCount,
			IsBackupEligible: cred.Flags.BackupEligible,
			IsBackupState:    cred.Flags.BackupState,
			IsUserVerified:   cred.Flags.UserVerified,
			UsedAt:           now,
		})
		if err != nil {
			return fmt.Errorf("update passkey usage: %w", err)
		}
		return tx.Users().TouchLastSignIn(ctx, user.ID, now)
	})
	recordEvent("passkey_authenticate", err)
	if errors.Is(err, ErrTokenInvalid) {
		return domain.SessionUser{}, ErrPasskeyChallenge
	}
	if err != nil {
		return domain.SessionUser{}, err
	}

	log.Info("user signed in with passkey",
		slog.String("user_id", user.ID),
		slog.String("passkey_id", stored.ID),
	)
	return user.Session(), nil
}

func (s *PasskeyService) userByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListPasskeys returns the user's passkeys.
func (s *PasskeyService) ListPasskeys(ctx context.Context, userID string) ([]domain.Passkey, error) {
	keys, err := s.Store.Passkeys().ListPasskeysForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	return keys, nil
}

// RenamePasskey sets or clears the label of one of the user's passkeys.
func (s *PasskeyService) RenamePasskey(ctx context.Context, userID, id, label string) error {
	label = strings.TrimSpace(label)
	if len(label) > maxPasskeyLabel {
		return &ValidationError{Fields: map[string]string{"label": "Value is too long"}}
	}

	err := s.Store.Passkeys().UpdatePasskeyLabel(ctx, userID, id, optionalString(label), nowFrom(s.Clock))
	if errors.Is(err, store.ErrNotFound) {
		return ErrPasskeyNotFound
	}
	if err != nil {
		return fmt.Errorf("rename passkey: %w", err)
	}
	return nil
}

// DeletePasskey removes one of the user's passkeys.
func (s *PasskeyService) DeletePasskey(ctx context.Context, userID, id string) error {
	err := s.Store.Passkeys().DeletePasskey(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPasskeyNotFound
	}
	if err != nil {
		return fmt.Errorf("delete passkey: %w", err)
	}
	slogx.FromContext(ctx).Info("passkey deleted",
		slog.String("user_id", userID),
		slog.String("passkey_id", id),
	)
	return nil
}

func encodeB64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func fromCredential(userID string, c webauthn.Credential, now time.Time) domain.Passkey {
	transports := make([]string, 0, len(c.Transport))
	for _, t := range c.Transport {
		transports = append(transports, string(t))
	}

	var aaguid *string
	if id, err := uuid.FromBytes(c.Authenticator.AAGUID); err == nil && id != uuid.Nil {
		s := id.String()
		aaguid = &s
	}

	return domain.Passkey{
		UserID:           userID,
		CredentialID:     encodeB64(c.ID),
		PublicKey:        encodeB64(c.PublicKey),
		Transports:       transports,
		SignCount:        c.Authenticator.SignCount,
		AAGUID:           aaguid,
		AttestationType:  c.AttestationType,
		IsBackupEligible: c.Flags.BackupEligible,
		IsBackupState:    c.Flags.BackupState,
		IsUserVerified:   c.Flags.UserVerified,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func toCredential(p domain.Passkey) (webauthn.Credential, error) {
	id, err := base64.RawURLEncoding.DecodeString(p.CredentialID)
	if err != nil {
		return webauthn.Credential{}, fmt.Errorf("decode credential id %s: %w", p.ID, err)
	}
	pub, err := base64.RawURLEncoding.DecodeString(p.PublicKey)
	if err != nil {
		return webauthn.Credential{}, fmt.Errorf("decode public key %s: %w", p.ID, err)
	}

	transports := make([]protocol.AuthenticatorTransport, 0, len(p.Transports))
	for _, t := range p.Transports {
		transports = append(transports, protocol.AuthenticatorTransport(t))
	}

	var aaguid []byte
	if p.AAGUID != nil {
		if u, err := uuid.Parse(*p.AAGUID); err == nil {
			aaguid = u[:]
		}
	}

	return webauthn.Credential{
		ID:              id,
		PublicKey:       pub,
		AttestationType: p.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   p.IsUserVerified,
			BackupEligible: p.IsBackupEligible,
			BackupState:    p.IsBackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    aaguid,
			SignCount: p.SignCount,
		},
	}, nil
}
