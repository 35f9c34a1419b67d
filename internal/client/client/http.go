package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/miarbol/internal/client/metrics"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/common"
	"github.com/dmitrijs2005/miarbol/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20
	refreshRoute   = "/auth/refresh"
)

// Tokens is the opaque bearer pair issued by the backend.
type Tokens struct {
	Access  string
	Refresh string
}

// SessionListener is told about token changes the client makes on its own.
// The session owner implements it to persist refreshed tokens and to drop
// the session when it cannot be recovered.
type SessionListener interface {
	TokensRefreshed(ctx context.Context, t Tokens)
	SessionExpired(ctx context.Context)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	tokens   Tokens
	listener SessionListener

	refreshGroup singleflight.Group
	newRequestID func() string
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client (transport, timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// NewHTTPClient returns a client for the API rooted at baseURL
// (e.g. "http://localhost:4000/api").
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: need http(s)://host", baseURL)
	}

	c := &HTTPClient{
		baseURL:      strings.TrimRight(u.String(), "/"),
		http:         &http.Client{Timeout: DefaultTimeout},
		log:          logging.Nop(),
		newRequestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) SetSessionListener(l SessionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// SetTokens arms the client with a token pair, e.g. restored from disk.
func (c *HTTPClient) SetTokens(t Tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = t
}

func (c *HTTPClient) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *HTTPClient) ClearTokens() {
	c.SetTokens(Tokens{})
}

func (c *HTTPClient) sessionListener() SessionListener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

// request is one logical API call. retried is set once the call has been
// replayed after a refresh; a retried request is never replayed again.
type request struct {
	method string
	route  string // path template, used as metrics label
	path   string
	query  url.Values
	body   []byte
	out    any

	public  bool // sent without a bearer token, never refreshed
	retried bool
}

func newRequest(method, route, path string, in, out any) (*request, error) {
	r := &request{method: method, route: route, path: path, out: out}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, route, err)
		}
		r.body = b
	}
	return r, nil
}

// call builds and sends an authenticated request.
func (c *HTTPClient) call(ctx context.Context, method, route, path string, in, out any) error {
	r, err := newRequest(method, route, path, in, out)
	if err != nil {
		return err
	}
	return c.send(ctx, r)
}

// callPublic is call without credentials (login, register, refresh).
func (c *HTTPClient) callPublic(ctx context.Context, method, route string, in, out any) error {
	r, err := newRequest(method, route, route, in, out)
	if err != nil {
		return err
	}
	r.public = true
	return c.send(ctx, r)
}

// send performs r. A 401 on a request that carried an access token causes
// one refresh and one replay; if that does not help the session is expired.
func (c *HTTPClient) send(ctx context.Context, r *request) error {

	token := ""
	if !r.public {
		token = c.Tokens().Access
	}

	status, raw, err := c.roundTrip(ctx, r, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && token != "" {
		if r.retried {
			c.expire(ctx, "replayed request rejected")
			return c.statusError(r, status, raw)
		}

		if err := c.refresh(ctx, token); err != nil {
			if ctx.Err() != nil {
				// the caller gave up; the session itself may still be valid
				return fmt.Errorf("%s %s: %w", r.method, r.path, err)
			}
			c.expire(ctx, "token refresh failed")
			return &APIError{Method: r.method, Path: r.path, StatusCode: status, Info: infoFromBody(raw), Err: err}
		}

		r.retried = true
		return c.send(ctx, r)
	}

	if status < 200 || status > 299 {
		return c.statusError(r, status, raw)
	}

	if r.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, r.out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *HTTPClient) statusError(r *request, status int, raw []byte) error {
	return &APIError{Method: r.method, Path: r.path, StatusCode: status, Info: infoFromBody(raw)}
}

func (c *HTTPClient) roundTrip(ctx context.Context, r *request, token string) (int, []byte, error) {

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}

	reqID := c.newRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.APIRequest(r.method, r.route, 0, elapsed)
		c.log.Debug(ctx, "api request failed", "method", r.method, "path", r.path, "request_id", reqID, "error", err)
		return 0, nil, &APIError{Method: r.method, Path: r.path, Info: ErrorInfo{Kind: InfoNetwork, Text: err.Error()}, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.APIRequest(r.method, r.route, resp.StatusCode, elapsed)
	c.log.Debug(ctx, "api request", "method", r.method, "path", r.path, "status", resp.StatusCode,
		"duration", elapsed, "request_id", reqID, "retried", r.retried)
	if err != nil {
		return 0, nil, &APIError{Method: r.method, Path: r.path, StatusCode: resp.StatusCode,
			Info: ErrorInfo{Kind: InfoNetwork, Text: err.Error()}, Err: err}
	}

	return resp.StatusCode, raw, nil
}

// refresh exchanges the refresh token for a new pair. failed is the access
// token that was rejected: if another caller already replaced it, nothing is
// sent. Concurrent callers share one request, which runs detached from any
// single caller's cancellation under its own timeout; each caller stops
// waiting when its own ctx is done.
func (c *HTTPClient) refresh(ctx context.Context, failed string) error {

	if cur := c.Tokens(); cur.Access != "" && cur.Access != failed {
		return nil
	}

	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()

		cur := c.Tokens()
		if cur.Access != "" && cur.Access != failed {
			return nil, nil
		}
		if cur.Refresh == "" {
			return nil, common.ErrRefreshTokenExpired
		}

		var resp models.AuthResponse
		in := map[string]string{"refreshToken": cur.Refresh}
		if err := c.callPublic(ctx, http.MethodPost, refreshRoute, in, &resp); err != nil {
			c.metrics.TokenRefresh(false)
			return nil, err
		}
		if resp.Token == "" {
			c.metrics.TokenRefresh(false)
			return nil, common.ErrInvalidToken
		}

		next := Tokens{Access: resp.Token, Refresh: resp.RefreshToken}
		if next.Refresh == "" {
			next.Refresh = cur.Refresh
		}
		c.SetTokens(next)
		c.metrics.TokenRefresh(true)
		c.log.Info(ctx, "access token refreshed")

		if l := c.sessionListener(); l != nil {
			l.TokensRefreshed(ctx, next)
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *HTTPClient) refreshTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return DefaultTimeout
}

// expire drops the tokens and tells the listener. Safe to call repeatedly.
func (c *HTTPClient) expire(ctx context.Context, reason string) {

	c.mu.Lock()
	had := c.tokens != (Tokens{})
	c.tokens = Tokens{}
	l := c.listener
	c.mu.Unlock()

	if !had {
		return
	}

	c.log.Warn(ctx, "session expired", "reason", reason)
	if l != nil {
		l.SessionExpired(ctx)
	}
}

// decodeUser accepts either a bare user object or {"user": {...}}.
func decodeUser(raw json.RawMessage) (*models.User, error) {

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("decode user: missing id")
	}
	return &u, nil
}

func escape(id models.ID) string {
	return url.PathEscape(string(id))
}
