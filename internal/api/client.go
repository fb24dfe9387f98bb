// Package api implements the REST client for the QuickIT backend, including
// the authenticated request executor with transparent, coalesced token
// refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RiyaSaju106/QuickIT/internal/session"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 4 << 20

// TokenSource supplies the current token pair and accepts rotations and
// clears. session.Manager satisfies it.
type TokenSource interface {
	Pair() session.Pair
	Set(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string
	// HTTPClient is the underlying client. A 15s-timeout default is used
	// when nil.
	HTTPClient *http.Client
	// Tokens provides and stores the session token pair.
	Tokens TokenSource
	// OnSessionExpired runs after a failed refresh has cleared the session,
	// letting the owner of dependent state (the cart) clear it too.
	OnSessionExpired func(ctx context.Context)
}

// Client issues requests against the backend. Authenticated calls attach the
// current access token; on a 401 the client refreshes the pair once and
// retries the original call once. Concurrent 401s share a single in-flight
// refresh.
type Client struct {
	base             string
	http             *http.Client
	tokens           TokenSource
	onSessionExpired func(ctx context.Context)
	refresh          singleflight.Group
}

// NewClient validates the configuration and constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token source is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:             strings.TrimRight(cfg.BaseURL, "/"),
		http:             httpClient,
		tokens:           cfg.Tokens,
		onSessionExpired: cfg.OnSessionExpired,
	}, nil
}

// do executes one logical API call. For authenticated calls a 401 response
// triggers exactly one refresh and one reissue of the original request;
// there is never a second retry.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool) (*envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
	}

	access := ""
	if authed {
		pair := c.tokens.Pair()
		if !pair.Active() {
			return nil, ErrNoSession
		}
		access = pair.Access
	}

	status, respBody, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if authed && status == http.StatusUnauthorized {
		if err := c.refreshSession(ctx); err != nil {
			return nil, err
		}
		status, respBody, err = c.send(ctx, method, path, payload, c.tokens.Pair().Access)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
	}

	env, err := decodeEnvelope(respBody)
	if err != nil {
		if status >= 400 {
			return nil, &APIError{Status: status}
		}
		return nil, errors.Wrap(err, "parse response")
	}
	if status >= 400 || !env.Success {
		return nil, &APIError{Status: status, Message: env.Message}
	}
	return env, nil
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, method, path string, body []byte, access string) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, respBody, nil
}

// refreshSession rotates the token pair using the refresh endpoint. All
// concurrent callers share one in-flight refresh; every waiter observes the
// same outcome and the rotated pair is stored exactly once. Any refresh
// failure clears the session and surfaces ErrSessionExpired.
func (c *Client) refreshSession(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		pair := c.tokens.Pair()
		if pair.Refresh == "" {
			c.expireSession(ctx, errors.New("no refresh token"))
			return nil, ErrSessionExpired
		}

		payload, err := json.Marshal(refreshBody{RefreshToken: pair.Refresh})
		if err != nil {
			return nil, errors.Wrap(err, "encode refresh body")
		}
		status, body, err := c.send(ctx, http.MethodPost, "/auth/refresh-token", payload, "")
		if err != nil {
			c.expireSession(ctx, err)
			return nil, ErrSessionExpired
		}
		env, err := decodeEnvelope(body)
		if err != nil || status >= 400 || !env.Success {
			c.expireSession(ctx, errors.Errorf("refresh rejected: status %d", status))
			return nil, ErrSessionExpired
		}

		var data authData
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" || data.RefreshToken == "" {
			c.expireSession(ctx, errors.New("malformed refresh response"))
			return nil, ErrSessionExpired
		}
		if err := c.tokens.Set(ctx, data.Token, data.RefreshToken); err != nil {
			return nil, errors.Wrap(err, "store rotated tokens")
		}
		zctx.From(ctx).Debug("Rotated session tokens")
		return nil, nil
	})
	return err
}

// expireSession clears the stored pair and notifies the owner of dependent
// state. Called at most once per expiry event thanks to the refresh group.
func (c *Client) expireSession(ctx context.Context, cause error) {
	zctx.From(ctx).Warn("Session expired", zap.Error(cause))
	if err := c.tokens.Clear(ctx); err != nil {
		zctx.From(ctx).Error("Failed to clear session tokens", zap.Error(err))
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired(ctx)
	}
}
