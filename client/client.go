// Package client talks to the CookIQ JSON API.
//
// Every call except login and register carries the bearer credential
// returned by the token source, if any. A 401 answer to a call that carried
// a credential fires the unauthorized handler before the error is returned,
// so the owner of the session can drop it.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnauthorized matches any APIError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *zap.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the request timeout on a copy of the current HTTP
// client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.http
		h.Timeout = d
		c.http = &h
	}
}

// WithTokenSource sets where the bearer credential is read from before
// each request.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		token: func() string { return "" },
		log:   zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run whenever the API answers 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) error {
	return c.call(ctx, op, method, path, query, in, out, true)
}

// doPublic never attaches the credential, so a 401 from it says nothing
// about the current session.
func (c *Client) doPublic(ctx context.Context, op, method, path string, in, out interface{}) error {
	return c.call(ctx, op, method, path, nil, in, out, false)
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, in, out interface{}, auth bool) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", op)
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, query, body, auth)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(op, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, auth bool) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if !auth {
		return req, nil
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(op string, req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: %s %s", op, req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: read response", op)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
		if resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "" {
			c.log.Warn("api rejected credential", zap.String("op", op))
			c.unauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
