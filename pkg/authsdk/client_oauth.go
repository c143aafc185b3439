package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListOAuthConnections returns every configured or linked provider.
func (c *SDKClient) ListOAuthConnections(ctx context.Context) ([]OAuthConnection, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/me/oauth", nil)
	if err != nil {
		return nil, err
	}

	var out []OAuthConnection
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// DisconnectOAuth unlinks provider from the signed-in account.
func (c *SDKClient) DisconnectOAuth(ctx context.Context, provider string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/v1/me/oauth/"+url.PathEscape(provider), nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// StartOAuth begins a provider sign-in and returns the provider URL the
// browser would be sent to.
func (c *SDKClient) StartOAuth(ctx context.Context, provider string) (*url.URL, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/oauth/"+url.PathEscape(provider), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusFound {
		return nil, checkStatus(resp, http.StatusFound)
	}
	defer resp.Body.Close()
	return resp.Location()
}
