package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ghaggin/smartsplit/internal/model"
)

var errMalformedAuth = errors.New("auth response without token or user")

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"userDto"`
}

func (r *authResponse) validate() error {
	if r.Token == "" || r.User == nil {
		return &Error{Kind: KindUnknown, Err: errMalformedAuth}
	}
	return nil
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, *model.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "login"), creds, &resp); err != nil {
		return "", nil, err
	}
	if err := resp.validate(); err != nil {
		return "", nil, err
	}
	return resp.Token, resp.User, nil
}

func (c *Client) Register(ctx context.Context, profile model.Profile) (string, *model.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "auth", "register"), profile, &resp); err != nil {
		return "", nil, err
	}
	if err := resp.validate(); err != nil {
		return "", nil, err
	}
	return resp.Token, resp.User, nil
}

// CurrentUser asks the server who the bearer token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "auth", "me"), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
