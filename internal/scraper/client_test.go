package scraper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv, hits := countingServer(t, http.StatusInternalServerError)
	c := newTestRAWG(srv.URL)
	ctx := context.Background()

	for i := 0; i < breakerTripAfter; i++ {
		if _, err := c.Search(ctx, "x"); err == nil {
			t.Fatalf("call %d succeeded", i)
		}
	}
	_, err := c.Search(ctx, "x")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
	if got := hits.Load(); got != breakerTripAfter {
		t.Errorf("server hits = %d, want %d", got, breakerTripAfter)
	}
}

func TestRateLimitedDoesNotTripBreaker(t *testing.T) {
	srv, hits := countingServer(t, http.StatusTooManyRequests)
	c := newTestRAWG(srv.URL)

	for i := 0; i < breakerTripAfter*2; i++ {
		if _, err := c.Search(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("call %d: err = %v, want ErrRateLimited", i, err)
		}
	}
	if got := hits.Load(); got != breakerTripAfter*2 {
		t.Errorf("server hits = %d", got)
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK)
	c := newCatalogCaller("test", 0.001, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	newReq := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	}
	// the first call spends the single burst token
	if _, err := c.do(ctx, newReq); err != nil {
		t.Fatal(err)
	}
	if _, err := c.do(ctx, newReq); err == nil {
		t.Fatal("second call should wait past the deadline")
	}
}

func TestTwitchTokenIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") != testClientID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token": "tok-1", "expires_in": 3600, "token_type": "bearer"}`)
	}))
	defer srv.Close()

	p := NewTwitchTokenProvider(testClientID, "secret", srv.URL, time.Second)
	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if tok != "tok-1" {
			t.Errorf("token = %q", tok)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("token endpoint hits = %d, want 1", hits.Load())
	}
}

func TestTwitchTokenRefreshesNearExpiry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// inside the early-expiry window, so never reused
		_, _ = io.WriteString(w, `{"access_token": "short", "expires_in": 30, "token_type": "bearer"}`)
	}))
	defer srv.Close()

	p := NewTwitchTokenProvider(testClientID, "secret", srv.URL, time.Second)
	for i := 0; i < 2; i++ {
		if _, err := p.Token(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("token endpoint hits = %d, want 2", hits.Load())
	}
}

func TestTwitchTokenCancelled(t *testing.T) {
	p := NewTwitchTokenProvider(testClientID, "secret", "http://127.0.0.1:1/token", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Token(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
