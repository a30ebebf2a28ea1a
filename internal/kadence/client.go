package kadence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production origin of the workplace API.
const DefaultBaseURL = "https://api.kadence.co"

const (
	defaultAuthURL = "https://login.kadence.co/oauth/token"

	requestTimeout = 30 * time.Second
)

// Config holds everything needed to reach the remote workplace API.
type Config struct {
	BaseURL     string
	Credentials Credentials
}

// authTransport attaches the bearer token and request metadata to every
// outbound call.
type authTransport struct {
	source    oauth2.TokenSource
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("User-Agent", "kadence-booker/1.0")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Accept", "application/json")
	return t.transport.RoundTrip(req)
}

// Client is an authenticated HTTP client for the workplace API. It is safe
// for concurrent use; the token cache inside the transport is shared by all
// workers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given origin. It fails only on
// credential configuration problems; the first network call happens lazily.
func NewClient(ctx context.Context, logger *slog.Logger, cfg Config) (*Client, error) {
	source, err := cfg.Credentials.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Transport: &authTransport{source: source, transport: http.DefaultTransport},
			Timeout:   requestTimeout,
		},
		logger: logger,
	}, nil
}

// Get issues an authenticated GET and returns the response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	return c.do(req)
}

// Post issues an authenticated JSON POST and returns the response body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("Remote request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newRequestError(resp.StatusCode, data)
	}
	return data, nil
}

// newRequestError extracts the most specific diagnostic the body offers: a
// structured detail/message field, or failing that the raw body.
func newRequestError(status int, body []byte) *RequestError {
	detail := strings.TrimSpace(string(body))
	var payload struct {
		Detail           string `json:"detail"`
		Message          string `json:"message"`
		HydraDescription string `json:"hydra:description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Detail != "":
			detail = payload.Detail
		case payload.Message != "":
			detail = payload.Message
		case payload.HydraDescription != "":
			detail = payload.HydraDescription
		}
	}
	return &RequestError{StatusCode: status, Detail: detail}
}

// Preflight verifies the configured credentials with one authenticated
// listing call, retrying briefly on transient failures. Rows themselves are
// never retried; this runs once before any row processing.
func (c *Client) Preflight(ctx context.Context) error {
	op := func() error {
		_, err := c.Get(ctx, "/buildings", nil)
		if err == nil {
			return nil
		}
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			if reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden {
				return backoff.Permanent(&AuthError{Err: reqErr})
			}
			if reqErr.StatusCode < http.StatusInternalServerError && reqErr.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
		}
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return backoff.Permanent(authErr)
		}
		c.logger.Warn("Preflight attempt failed, retrying", "error", err)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}
