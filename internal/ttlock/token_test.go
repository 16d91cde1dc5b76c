package ttlock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for cache-window tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTokenServer(t *testing.T, exchanges *atomic.Int64, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tokenEndpoint {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		exchanges.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1"})
	}))
}

func TestTokenSource_CachesWithinWindow(t *testing.T) {
	var exchanges atomic.Int64
	srv := newTokenServer(t, &exchanges, http.StatusOK)
	defer srv.Close()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	client := New(Config{
		BaseURL:  srv.URL,
		ClientID: "cid", ClientSecret: "secret",
		Username: "svc@example.com", Password: "pw",
		Now: clock.Now,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tok, err := client.tokens.Token(ctx)
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok != "tok-1" {
			t.Fatalf("Token() = %q, want tok-1", tok)
		}
		clock.Advance(30 * time.Minute)
	}
	if got := exchanges.Load(); got != 1 {
		t.Errorf("exchanges within cache window = %d, want 1", got)
	}

	// after the 24h cache window, exactly one more exchange happens
	clock.Advance(24 * time.Hour)
	if _, err := client.tokens.Token(ctx); err != nil {
		t.Fatalf("Token() after expiry error = %v", err)
	}
	if got := exchanges.Load(); got != 2 {
		t.Errorf("exchanges after expiry = %d, want 2", got)
	}
}

func TestTokenSource_CollapsesConcurrentRefreshes(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		// widen the race window so waiters pile up behind the exchange
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := client.tokens.Token(context.Background())
			if err != nil {
				t.Errorf("Token() error = %v", err)
				return
			}
			if tok != "tok-1" {
				t.Errorf("Token() = %q, want tok-1", tok)
			}
		}()
	}
	wg.Wait()

	if got := exchanges.Load(); got != 1 {
		t.Errorf("concurrent exchanges = %d, want 1", got)
	}
}

func TestTokenSource_FailureIsNotCached(t *testing.T) {
	var exchanges atomic.Int64
	srv := newTokenServer(t, &exchanges, http.StatusUnauthorized)
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.tokens.Token(ctx)
		if !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("Token() error = %v, want ErrAuthFailed", err)
		}
	}
	if got := exchanges.Load(); got != 2 {
		t.Errorf("exchanges = %d, want 2 (failures must not be cached)", got)
	}
}

func TestTokenSource_MissingTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"unexpected": true})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	if _, err := client.tokens.Token(context.Background()); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("Token() error = %v, want ErrAuthFailed", err)
	}
}
