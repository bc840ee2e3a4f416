package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ghaggin/smartsplit/internal/model"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (c *Client) CreateGroup(ctx context.Context, name string, creatorID int64) (*model.Group, error) {
	q := url.Values{"creatorId": {itoa(creatorID)}}
	in := struct {
		Name string `json:"groupName"`
	}{Name: name}

	var g model.Group
	if err := c.do(ctx, http.MethodPost, c.endpoint(q, "groups"), in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// AddUserToGroup attaches userID to groupID. The server answers 400 when the
// user is already a member.
func (c *Client) AddUserToGroup(ctx context.Context, groupID int64, userID int64) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "groups", itoa(groupID), "users", itoa(userID)), nil, nil)
}

func (c *Client) GetGroupByID(ctx context.Context, groupID int64) (*model.Group, error) {
	var g model.Group
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "groups", itoa(groupID)), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) GetUserGroups(ctx context.Context, userID int64) ([]model.Group, error) {
	var groups []model.Group
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "users", itoa(userID), "groups"), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
