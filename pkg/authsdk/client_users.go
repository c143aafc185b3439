package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// GetUser returns a user by id. Non-admins may only read themselves.
func (c *SDKClient) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes a user by id. Non-admins may only delete themselves.
func (c *SDKClient) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
