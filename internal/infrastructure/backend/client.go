// Package backend is the REST client of the wallet backend. It implements the
// ports consumed by the service layer: AuthAPI, UserAPI, PaymentAPI, AdminAPI
// and HealthChecker.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/ports"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

// Client is a client for the wallet backend.
type Client struct {
	baseURL    string
	api        string
	httpClient *http.Client
	logger     zerolog.Logger
	newID      func() string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the end-user endpoints.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	return newClient("user", baseURL, timeout, logger, opts...)
}

func newClient(api, baseURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		api:        api,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ ports.AuthAPI       = (*Client)(nil)
	_ ports.UserAPI       = (*Client)(nil)
	_ ports.PaymentAPI    = (*Client)(nil)
	_ ports.HealthChecker = (*Client)(nil)
)

// request describes one backend call.
type request struct {
	method string
	// route is the templated path used for metrics and logs; path is the
	// concrete one. path defaults to route.
	route string
	path  string
	token string
	query url.Values
	body  any
	// upload replaces body with a multipart form when set.
	upload *multipartFile
	// idempotencyKey is sent as the Idempotency-Key header when set.
	idempotencyKey string
}

// do sends the request and decodes a JSON body into out (any, with numbers
// preserved as json.Number). Non-2xx answers become *domain.APIError; network
// timeouts wrap domain.ErrTimeout.
func (c *Client) do(ctx context.Context, r request, out *any) error {
	path := r.path
	if path == "" {
		path = r.route
	}
	target := c.baseURL + path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.upload != nil:
		buf, ct, err := r.upload.encode()
		if err != nil {
			return fmt.Errorf("encode %s form: %w", r.route, err)
		}
		body, contentType = buf, ct
	case r.body != nil:
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.route, err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.route, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	requestID := c.newID()
	req.Header.Set("X-Request-ID", requestID)
	if r.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(c.api, r.route).Observe(time.Since(start).Seconds())
	if err != nil {
		code := "error"
		if isTimeout(ctx, err) {
			code = "timeout"
			err = fmt.Errorf("%s %s: %w", r.method, r.route, domain.ErrTimeout)
		} else {
			err = fmt.Errorf("%s %s: %w", r.method, r.route, err)
		}
		metrics.BackendRequestsTotal.WithLabelValues(c.api, r.route, code).Inc()
		c.logger.Debug().Err(err).Str("request_id", requestID).Msg("backend request failed")
		return err
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(c.api, r.route, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("read %s response: %w", r.route, domain.ErrTimeout)
		}
		return fmt.Errorf("read %s response: %w", r.route, err)
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("route", r.route).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("took", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode), Path: path}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.route, err)
	}
	return nil
}

// object runs the request and returns its body as an object. A body that is
// not an object is wrapped under "data".
func (c *Client) object(ctx context.Context, r request) (ports.Payload, error) {
	var v any
	if err := c.do(ctx, r, &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case nil:
		return ports.Payload{}, nil
	default:
		return ports.Payload{"data": t}, nil
	}
}

func (c *Client) raw(ctx context.Context, r request) (any, error) {
	var v any
	if err := c.do(ctx, r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Ping reports whether the backend answers at all. Any HTTP answer counts as
// reachable, 404 included, since the backend exposes no health route.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodGet, route: "/"}, nil)
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return nil
	}
	return err
}

// errorMessage picks the most helpful message from an error body: "message"
// (string, or first string of an array), then "error", then the status text.
func errorMessage(raw []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		switch m := body["message"].(type) {
		case string:
			if strings.TrimSpace(m) != "" {
				return m
			}
		case []any:
			for _, item := range m {
				if s, ok := item.(string); ok && s != "" {
					return s
				}
			}
		}
		if e, ok := body["error"].(string); ok && e != "" {
			return e
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return domain.DefaultErrorMessage
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// keyOr returns key, or a fresh one when the caller did not supply it.
func (c *Client) keyOr(key string) string {
	if key != "" {
		return key
	}
	return c.newID()
}

// tokenFrom extracts the bearer token of a login answer.
func tokenFrom(p ports.Payload) (string, bool) {
	for _, key := range []string{"access_token", "accessToken", "token"} {
		if s, ok := p[key].(string); ok && s != "" {
			return s, true
		}
	}
	if data, ok := p["data"].(map[string]any); ok {
		return tokenFrom(data)
	}
	return "", false
}
