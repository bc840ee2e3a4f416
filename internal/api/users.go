package api

import (
	"context"
	"net/http"

	"github.com/ghaggin/smartsplit/internal/model"
)

// GetUserByEmail resolves an email to a registered user. An unregistered
// email fails with KindNotFound.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "user", "email", email), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "user", "id", itoa(id)), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "users"), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
