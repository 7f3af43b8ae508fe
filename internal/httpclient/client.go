package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/courseforge-portal/internal/apperr"
	"github.com/noah-isme/courseforge-portal/internal/dto"
	"github.com/noah-isme/courseforge-portal/internal/observability"
)

const maxResponseBytes = 4 << 20

// SessionBinding supplies the bearer token and is told when the backend rejects it.
type SessionBinding interface {
	Token() string
	Expire(ctx context.Context)
}

// Config configures the backend transport.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

// Client is the single request transport shared by every domain API module.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    zerolog.Logger

	mu      sync.RWMutex
	binding SessionBinding
}

// New creates a client for the backend rooted at cfg.BaseURL.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "courseforge-portal"
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		userAgent: userAgent,
		logger:    logger.With().Str("component", "backend_client").Logger(),
	}, nil
}

// Bind attaches the session that supplies bearer tokens.
func (c *Client) Bind(binding SessionBinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binding = binding
}

func (c *Client) currentBinding() SessionBinding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binding
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do performs a request. Every failure is returned as *apperr.Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindRequestFailure, "failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindRequestFailure, "failed to build request", err)
	}

	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	binding := c.currentBinding()
	if binding != nil {
		if token := binding.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	route := observability.RouteLabel(path)
	requestLogger := c.logger.With().
		Str("correlation_id", correlationID).
		Str("method", method).
		Str("route", route).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	observability.BackendLatency().WithLabelValues(method, route).Observe(duration.Seconds())

	if err != nil {
		observability.BackendRequests().WithLabelValues(method, route, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			requestLogger.Debug().Err(ctxErr).Msg("backend request canceled")
			return apperr.Wrap(apperr.KindCanceled, "", ctxErr)
		}
		requestLogger.Warn().Err(err).Msg("backend request failed")
		return apperr.Wrap(apperr.KindNetwork, "", err)
	}
	defer resp.Body.Close()

	observability.BackendRequests().WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperr.Wrap(apperr.KindCanceled, "", ctxErr)
		}
		return apperr.Wrap(apperr.KindNetwork, "", err)
	}

	requestLogger.Debug().
		Int("status", resp.StatusCode).
		Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
		Msg("backend request completed")

	if resp.StatusCode >= http.StatusMultipleChoices {
		appErr := decodeError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && binding != nil && expiresSession(path) {
			requestLogger.Info().Msg("backend rejected token, expiring session")
			binding.Expire(ctx)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			requestLogger.Warn().Int("status", resp.StatusCode).Str("error", appErr.Message).Msg("backend returned server error")
		}
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.Error{
			Kind:    apperr.KindRequestFailure,
			Status:  resp.StatusCode,
			Message: "invalid response payload",
			Err:     err,
		}
	}

	return nil
}

func decodeError(status int, raw []byte) *apperr.Error {
	var body dto.ErrorResponse
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		message = strings.TrimSpace(body.Error)
		if message == "" {
			message = strings.TrimSpace(body.Message)
		}
	}

	return &apperr.Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: message,
	}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.KindBadRequest
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindRequestFailure
	}
}

// expiresSession is false for credential exchanges, where a 401 means bad input
// rather than a stale token.
func expiresSession(path string) bool {
	return !strings.HasPrefix(path, "/auth/") && path != "/profile/logout"
}
