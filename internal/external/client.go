// Package external is the boundary between the mailer and the mail providers
// it talks to. All outbound HTTP calls go through BaseClient, which applies
// the same conventions to every provider: trace propagation, a User-Agent,
// an optional circuit breaker, and mapping of transport failures to
// types.AppError.
//
// Failed deliveries are never retried here. A pass attempts each recipient
// exactly once and the operator re-runs it by hand.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"recruitmail/internal/types"

	"github.com/sony/gobreaker/v2"
)

// maxResponseBody caps how much of a provider response is read for parsing.
const maxResponseBody = 1 << 20

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// (SendGrid, Mailgun, relay) hold a BaseClient and build requests on top of it.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient whose breaker opens after tripAfter
// consecutive transport or 5xx/429 failures. A tripAfter of zero disables
// tripping altogether, so every request reaches the provider.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	tripAfter uint32,
	userAgent string,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return tripAfter > 0 && counts.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return NewBaseClientWithBreaker(httpClient, cb, userAgent)
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided circuit
// breaker. This is useful for testing or when sharing a breaker across clients.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	userAgent string,
) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// Do executes the HTTP request with:
//  1. Trace ID injection (X-B3-TraceId from context)
//  2. User-Agent header injection
//  3. Circuit breaker wrapping (5xx and 429 count as breaker failures)
//  4. Error mapping to types.AppError
//
// Whenever the provider answered, Do returns the response regardless of its
// status so the caller can read the provider's own error body. The caller is
// responsible for closing it.
//
// Do returns a types.AppError only when no response exists: the breaker is
// open or the transport failed (DNS, refused connection, timeout).
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})

	if resp != nil {
		return resp, nil
	}
	return nil, c.mapError(err)
}

// mapError translates a failure without a response into a domain AppError.
// The underlying cause stays reachable through Unwrap.
func (c *BaseClient) mapError(err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}

// State reports the breaker state, for health output.
func (c *BaseClient) State() gobreaker.State {
	return c.breaker.State()
}
