package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"commenttogame/internal/logging"
	"commenttogame/internal/metrics"
)

var (
	// ErrNotFound is returned when a catalog has no match for a lookup.
	ErrNotFound = errors.New("scraper: not found")
	// ErrRateLimited is returned when a catalog answers 429.
	ErrRateLimited = errors.New("scraper: rate limited")
)

const (
	breakerTripAfter = 5
	breakerTimeout   = 30 * time.Second
	maxBodyBytes     = 8 << 20
)

// catalogCaller is the transport shared by the catalog clients: it waits on
// the rate limiter, runs the request through the circuit breaker and maps
// HTTP status codes to errors.
type catalogCaller struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newCatalogCaller(name string, rps float64, timeout time.Duration) *catalogCaller {
	if rps <= 0 {
		rps = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	log := logging.With("scraper")
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// a miss or a 429 says nothing about the catalog being down
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &catalogCaller{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// do sends req and returns the response body of a 2xx answer.
// newReq is called once per attempt so the body can be re-read.
func (c *catalogCaller) do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", c.name, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: request: %w", c.name, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", c.name, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("%s: %w", c.name, ErrRateLimited)
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", c.name, ErrNotFound)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("%s: status %d: %s", c.name, resp.StatusCode, truncate(body, 200))
		}
		return body, nil
	})

	metrics.RecordCatalogRequest(c.name, err)
	return body, err
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
