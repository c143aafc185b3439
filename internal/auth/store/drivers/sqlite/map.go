package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into ErrAlreadyExists.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

// requireRows maps a zero rows-affected result to ErrNotFound.
func requireRows(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func mapTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:              row.ID,
		Email:           row.Email,
		Name:            row.Name,
		Role:            domain.Role(row.Role),
		EmailVerifiedAt: mapNullTimePtr(row.EmailVerifiedAt),
		LastSignInAt:    mapNullTimePtr(row.LastSignInAt),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func mapCredential(row gen.UserCredential) domain.Credential {
	return domain.Credential{
		ID:                 row.ID,
		UserID:             row.UserID,
		PasswordHash:       row.PasswordHash,
		PasswordSalt:       row.PasswordSalt,
		ExpiresAt:          mapNullTimePtr(row.ExpiresAt),
		MustChangePassword: row.MustChangePassword,
		LastChangedAt:      row.LastChangedAt.UTC(),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

func mapToken(row gen.UserToken) (domain.Token, error) {
	t := domain.Token{
		ID:         row.ID,
		UserID:     mapNullStringPtr(row.UserID),
		TokenHash:  row.TokenHash,
		Type:       domain.TokenType(row.Type),
		ExpiresAt:  row.ExpiresAt.UTC(),
		ConsumedAt: mapNullTimePtr(row.ConsumedAt),
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.Metadata.Valid && row.Metadata.String != "" {
		if err := json.Unmarshal([]byte(row.Metadata.String), &t.Metadata); err != nil {
			return domain.Token{}, err
		}
	}
	return t, nil
}

func encodeMetadata(m domain.TokenMetadata) (sql.NullString, error) {
	if m.IsZero() {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func mapOAuthAccount(row gen.UserOauthAccount) domain.OAuthAccount {
	return domain.OAuthAccount{
		ProviderAccountID: row.ProviderAccountID,
		Provider:          domain.OAuthProvider(row.Provider),
		UserID:            row.UserID,
		DisplayName:       mapNullStringPtr(row.DisplayName),
		ProfileURL:        mapNullStringPtr(row.ProfileUrl),
		AccessToken:       mapNullStringPtr(row.AccessToken),
		RefreshToken:      mapNullStringPtr(row.RefreshToken),
		Scopes:            mapNullStringPtr(row.Scopes),
		ExpiresAt:         mapNullTimePtr(row.ExpiresAt),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}

func mapPasskey(row gen.BiometricCredential) domain.Passkey {
	var transports []string
	if row.Transports != "" {
		_ = json.Unmarshal([]byte(row.Transports), &transports)
	}
	return domain.Passkey{
		ID:               row.ID,
		UserID:           row.UserID,
		CredentialID:     row.CredentialID,
		PublicKey:        row.PublicKey,
		Label:            mapNullStringPtr(row.Label),
		Transports:       transports,
		SignCount:        uint32(row.SignCount), // #nosec G115 - written from a uint32
		AAGUID:           mapNullStringPtr(row.Aaguid),
		AttestationType:  row.AttestationType,
		IsBackupEligible: row.IsBackupEligible,
		IsBackupState:    row.IsBackupState,
		IsUserVerified:   row.IsUserVerified,
		LastUsedAt:       mapNullTimePtr(row.LastUsedAt),
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}

func encodeTransports(ts []string) string {
	if len(ts) == 0 {
		return "[]"
	}
	raw, _ := json.Marshal(ts)
	return string(raw)
}
