package hibp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikey/pwned-relay/internal/core"
	"go.uber.org/zap"
)

const (
	breachedAccountPath = "/api/v2/breachedaccount/"
	apiKeyHeader        = "hibp-api-key"

	// breachDelimiter opens every breach object in the response array
	breachDelimiter = "{"
)

var (
	// ErrUnexpectedStatus is wrapped in the LookupError returned for non-success responses
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrBodyTooLarge is wrapped in the LookupError returned when a response
	// exceeds the configured size and could not be counted completely
	ErrBodyTooLarge = errors.New("response body too large")
)

// Client is an implementation of the BreachLookup interface backed by haveibeenpwned.com
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	maxBodySize int64
	logger      *zap.Logger
}

// NewClient creates a new breach lookup client
func NewClient(
	httpClient *http.Client,
	baseURL string,
	apiKey string,
	userAgent string,
	maxBodySize int64,
	logger *zap.Logger,
) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// BreachedAccountURL builds the lookup URL for an address
func (c *Client) BreachedAccountURL(email string) string {
	return c.baseURL + breachedAccountPath + url.PathEscape(email) + "?truncateResponse=true"
}

// LookupBreaches queries the breached account endpoint for an address.
//
// The count is the number of objects in the truncated response, found by
// counting opening braces in the raw body instead of decoding it. A 404 is
// the service's way of saying the address is in no known breach.
func (c *Client) LookupBreaches(ctx context.Context, email string) (core.BreachCount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BreachedAccountURL(email), nil)
	if err != nil {
		return 0, &core.LookupError{Email: email, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &core.LookupError{Email: email, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug("Address not found in any breach", zap.String("email", email))
		return 0, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, &core.LookupError{
			Email:      email,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	// One byte past the limit tells a full body from a cut one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return 0, &core.LookupError{
			Email:      email,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if int64(len(body)) > c.maxBodySize {
		return 0, &core.LookupError{
			Email:      email,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodySize),
		}
	}

	count := core.BreachCount(strings.Count(string(body), breachDelimiter))
	c.logger.Debug("Breach lookup response",
		zap.String("email", email),
		zap.Int("body_size", len(body)),
		zap.Int("breaches", int(count)))

	return count, nil
}
