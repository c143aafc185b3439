package authsdk

import (
	"context"
	"net/http"
)

// SignUp creates an account and signs the client in.
func (c *SDKClient) SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error) {
	return c.session(ctx, http.MethodPost, "/v1/auth/sign-up", req, http.StatusCreated)
}

// SignIn signs the client in with email and password.
func (c *SDKClient) SignIn(ctx context.Context, email, password string) (*SessionResponse, error) {
	return c.session(ctx, http.MethodPost, "/v1/auth/sign-in", SignInRequest{Email: email, Password: password}, http.StatusOK)
}

// SignOut clears the session cookie.
func (c *SDKClient) SignOut(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/sign-out", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// GetSession returns the user behind the current session cookie.
func (c *SDKClient) GetSession(ctx context.Context) (*SessionResponse, error) {
	return c.session(ctx, http.MethodGet, "/v1/auth/session", nil, http.StatusOK)
}

func (c *SDKClient) session(ctx context.Context, method, path string, body any, status int) (*SessionResponse, error) {
	resp, err := c.doJSON(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, status); err != nil {
		return nil, err
	}
	return &out, nil
}
