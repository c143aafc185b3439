package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// BeginPasskeyRegistration returns WebAuthn creation options for the
// signed-in user, as sent to navigator.credentials.create.
func (c *SDKClient) BeginPasskeyRegistration(ctx context.Context) (json.RawMessage, error) {
	return c.rawJSON(ctx, "/v1/passkeys/registration/options", nil)
}

// FinishPasskeyRegistration submits the authenticator's attestation.
func (c *SDKClient) FinishPasskeyRegistration(ctx context.Context, credential json.RawMessage) (*PasskeyResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/passkeys/registration/verify", PasskeyVerifyRequest{Response: credential})
	if err != nil {
		return nil, err
	}

	var out PasskeyResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// BeginPasskeyAuthentication returns WebAuthn request options for email.
func (c *SDKClient) BeginPasskeyAuthentication(ctx context.Context, email string) (json.RawMessage, error) {
	return c.rawJSON(ctx, "/v1/passkeys/authentication/options", PasskeyAuthenticationOptionsRequest{Email: email})
}

// FinishPasskeyAuthentication submits an assertion and signs the client in.
func (c *SDKClient) FinishPasskeyAuthentication(ctx context.Context, email string, assertion json.RawMessage) (*SessionResponse, error) {
	return c.session(ctx, http.MethodPost, "/v1/passkeys/authentication/verify",
		PasskeyVerifyRequest{Email: email, Response: assertion}, http.StatusOK)
}

// ListPasskeys returns the signed-in user's passkeys.
func (c *SDKClient) ListPasskeys(ctx context.Context) ([]PasskeyResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/me/passkeys", nil)
	if err != nil {
		return nil, err
	}

	var out []PasskeyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// RenamePasskey sets the label of a passkey. An empty label clears it.
func (c *SDKClient) RenamePasskey(ctx context.Context, id, label string) error {
	resp, err := c.doJSON(ctx, http.MethodPatch, "/v1/me/passkeys/"+url.PathEscape(id), RenamePasskeyRequest{Label: label})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// DeletePasskey removes a passkey.
func (c *SDKClient) DeletePasskey(ctx context.Context, id string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/v1/me/passkeys/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

func (c *SDKClient) rawJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
