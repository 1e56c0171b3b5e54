package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
)

const (
	DefaultTimeout = 15 * time.Second

	CSRFCookieName  = "csrftoken"
	CSRFHeader      = "X-CSRFToken"
	RequestIDHeader = "X-Request-ID"

	// Error bodies longer than this are cut
	maxErrorBody = 64 << 10
)

type tokenSource interface {
	Get() (models.Credential, bool)
}

// Client is the single request dispatcher every resource service goes through.
// It attaches the bearer and CSRF headers per request and reports 401 answers to one observer
type Client struct {
	base    *url.URL
	timeout time.Duration

	tokens tokenSource
	client *http.Client
	logger logger.Logger

	mu           sync.RWMutex
	unauthorized func(access string)
}

type Option func(*Client)

// WithTimeout overrides DefaultTimeout. Zero or negative disables the limit
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying transport client. A jar is added if it has none
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func New(baseURL string, tokens tokenSource, l logger.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:    base,
		timeout: DefaultTimeout,
		tokens:  tokens,
		client:  &http.Client{},
		logger:  l,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.client.Jar = jar
	}

	return c, nil
}

// OnUnauthorized registers the reaction to a 401 answer. fn gets the access token the rejected
// request carried. There is only one observer: a second call replaces the first
func (c *Client) OnUnauthorized(fn func(access string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = fn
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

// CSRFToken returns the value of the csrftoken cookie the API has set, if any
func (c *Client) CSRFToken() (string, bool) {
	for _, cookie := range c.client.Jar.Cookies(c.base) {
		if cookie.Name == CSRFCookieName && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// Do sends one request to the API and decodes a 2xx JSON answer into out (if not nil).
//
// Errors:
//   - *apperrors.APIError for every non-2xx answer (401 included, after the observer ran)
//   - apperrors.ErrTimeout when no answer arrived in time
//   - apperrors.ErrTransport when the API could not be reached
func (c *Client) Do(ctx context.Context, method string, path string, body any, out any, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	access := c.accessToken(&ro)
	req, err := c.newRequest(ctx, method, path, body, access, &ro)
	if err != nil {
		return err
	}
	requestID := req.Header.Get(RequestIDHeader)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("API request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return classifyTransportError(err)
	}
	defer resp.Body.Close() // nolint:errcheck

	c.logger.Debug(
		"API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode == http.StatusUnauthorized && ro.observe() {
		c.notifyUnauthorized(access)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if te := classifyTransportError(err); errors.Is(te, apperrors.ErrTimeout) {
			return te
		}
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body any, access string, ro *requestOptions) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(ro.query) > 0 {
		u.RawQuery = ro.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	if access != "" {
		token := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
		token.SetAuthHeader(req)
	}
	if csrf, ok := c.CSRFToken(); ok {
		req.Header.Set(CSRFHeader, csrf)
	}

	return req, nil
}

func (c *Client) accessToken(ro *requestOptions) string {
	switch {
	case ro.anonymous:
		return ""
	case ro.token != "":
		return ro.token
	}

	cred, ok := c.tokens.Get()
	if !ok {
		return ""
	}
	return cred.Access
}

func (c *Client) notifyUnauthorized(access string) {
	c.mu.RLock()
	fn := c.unauthorized
	c.mu.RUnlock()

	if fn != nil {
		c.logger.Info("API answered 401, expiring session")
		fn(access)
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrTransport, err)
}
