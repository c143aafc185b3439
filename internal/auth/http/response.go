package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// decode reads a JSON body and answers 400 when it is malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

func sessionResponse(u domain.SessionUser) authsdk.SessionResponse {
	return authsdk.SessionResponse{User: authsdk.SessionUser{ID: u.ID, Role: string(u.Role)}}
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            string(u.Role),
		EmailVerified:   u.EmailVerified(),
		EmailVerifiedAt: u.EmailVerifiedAt,
		LastSignInAt:    u.LastSignInAt,
		CreatedAt:       u.CreatedAt,
	}
}

func passkeyResponse(p domain.Passkey) authsdk.PasskeyResponse {
	transports := p.Transports
	if transports == nil {
		transports = []string{}
	}
	return authsdk.PasskeyResponse{
		ID:               p.ID,
		Label:            p.Label,
		Transports:       transports,
		AAGUID:           p.AAGUID,
		IsBackupEligible: p.IsBackupEligible,
		IsBackupState:    p.IsBackupState,
		LastUsedAt:       p.LastUsedAt,
		CreatedAt:        p.CreatedAt,
	}
}

func accepted(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.StatusResponse{Status: "accepted"})
}

func noContent(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
