package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ghaggin/smartsplit/internal/config"
	"github.com/ghaggin/smartsplit/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// TokenSource yields the bearer credential for outbound calls, or "" when
// there is none.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StoreTokens reads the credential from the durable store on every call so
// the Authorization header always follows the persisted login state.
type StoreTokens struct {
	Store repository.Store
}

func (s StoreTokens) Token(ctx context.Context) string {
	token, err := s.Store.Get(ctx, repository.KeyToken)
	if err != nil {
		return ""
	}
	return token
}

// Client is the request layer for the ledger server.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Store  repository.Store
	Log    *zap.Logger
}

func New(p Params) (*Client, error) {
	return NewClient(
		p.Config.API.BaseURL,
		&http.Client{Timeout: p.Config.API.Timeout},
		StoreTokens{Store: p.Store},
		p.Log,
	)
}

func NewClient(baseURL string, hc *http.Client, tokens TokenSource, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{
		base:   base,
		http:   hc,
		tokens: tokens,
		log:    log,
	}, nil
}

// endpoint joins escaped path segments onto the base url.
func (c *Client) endpoint(query url.Values, segments ...string) *url.URL {
	u := *c.base
	path := strings.TrimRight(c.base.Path, "/")
	raw := strings.TrimRight(c.base.EscapedPath(), "/")
	for _, s := range segments {
		path += "/" + s
		raw += "/" + url.PathEscape(s)
	}
	u.Path = path
	u.RawPath = raw
	u.RawQuery = query.Encode()
	return &u
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil.
func (c *Client) do(ctx context.Context, method string, u *url.URL, in any, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Kind:    KindUnknown,
			Status:  resp.StatusCode,
			Message: "malformed response",
			Err:     err,
		}
	}
	return nil
}
