// Package backend is the HTTP client for the FashionStock REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/util"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 32 << 20

var (
	// ErrUnavailable wraps transport failures: the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrUnsuccessful is matched by every APIError.
	ErrUnsuccessful = errors.New("backend request unsuccessful")
	// ErrMissingData is returned when a successful envelope carries no data.
	ErrMissingData = errors.New("backend response has no data")
)

// APIError is a non-2xx status or a success:false envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrUnsuccessful
}

// Config holds client settings
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a backend client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  util.GetLogger(),
	}
}

type request struct {
	method   string
	endpoint string // metric label
	path     string
	query    url.Values
	body     any
	header   http.Header
}

// send performs the round trip and returns the raw response body. Non-2xx
// statuses become APIError.
func (c *Client) send(ctx context.Context, r request) (*http.Response, []byte, error) {
	ctx, span := util.StartSpan(ctx, "backend."+r.endpoint)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s request: %w", r.endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s request: %w", r.endpoint, err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		util.BackendRequestsTotal.WithLabelValues(r.endpoint, "error").Inc()
		c.logger.Warn("Backend request failed",
			zap.String("endpoint", r.endpoint),
			zap.String("method", r.method),
			zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	util.BackendRequestDuration.WithLabelValues(r.endpoint, status).Observe(time.Since(start).Seconds())
	util.BackendRequestsTotal.WithLabelValues(r.endpoint, status).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s response: %v", ErrUnavailable, r.endpoint, err)
	}
	if len(data) > maxBodyBytes {
		c.logger.Warn("Backend response too large",
			zap.String("endpoint", r.endpoint),
			zap.Int("limit", maxBodyBytes))
		return nil, nil, fmt.Errorf("%w: %s response exceeds %d bytes", ErrUnsuccessful, r.endpoint, maxBodyBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env models.Envelope
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
		}
		c.logger.Warn("Backend returned error status",
			zap.String("endpoint", r.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return resp, nil, apiErr
	}

	return resp, data, nil
}

// do performs a JSON request and validates the response envelope.
func (c *Client) do(ctx context.Context, r request) (models.Envelope, error) {
	resp, data, err := c.send(ctx, r)
	if err != nil {
		return models.Envelope{}, err
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Envelope{}, fmt.Errorf("%w: decode %s response: %v", ErrUnsuccessful, r.endpoint, err)
	}
	if !env.Success {
		return env, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}

// fetch performs a request whose envelope must carry data, decoded into out.
func (c *Client) fetch(ctx context.Context, r request, out any) error {
	env, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if !env.HasData() {
		return fmt.Errorf("%s: %w", r.endpoint, ErrMissingData)
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = env.Data
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s data: %v", ErrUnsuccessful, r.endpoint, err)
	}
	return nil
}
