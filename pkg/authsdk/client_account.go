package authsdk

import (
	"context"
	"net/http"
)

// GetMe returns the signed-in user's profile.
func (c *SDKClient) GetMe(ctx context.Context) (*ProfileResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/me", nil)
	if err != nil {
		return nil, err
	}

	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the signed-in user's display name.
func (c *SDKClient) UpdateProfile(ctx context.Context, name string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPatch, "/v1/me", UpdateProfileRequest{Name: name})
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the password after checking the current one. The
// session cookie is reissued on success.
func (c *SDKClient) ChangePassword(ctx context.Context, current, next string) (*SessionResponse, error) {
	return c.session(ctx, http.MethodPost, "/v1/me/password",
		ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, http.StatusOK)
}

// CreatePassword sets a password on an account that has none.
func (c *SDKClient) CreatePassword(ctx context.Context, next string) (*SessionResponse, error) {
	return c.session(ctx, http.MethodPut, "/v1/me/password",
		CreatePasswordRequest{NewPassword: next}, http.StatusOK)
}

// SendVerificationEmail mails a fresh verification link.
func (c *SDKClient) SendVerificationEmail(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/me/email/verification", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusAccepted)
}

// RequestEmailChange mails a confirmation link to the new address.
func (c *SDKClient) RequestEmailChange(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/me/email/change", EmailChangeRequest{Email: email})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusAccepted)
}

// VerifyEmail consumes the token from a verification or change link.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) (*VerifyEmailResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/email/verify", VerifyEmailRequest{Token: token})
	if err != nil {
		return nil, err
	}

	var out VerifyEmailResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset code. The response is the same
// whether or not the account exists.
func (c *SDKClient) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/password-reset/request", PasswordResetRequest{Email: email})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusAccepted)
}

// ConfirmPasswordReset sets a new password using the mailed code.
func (c *SDKClient) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/password-reset/confirm", req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
