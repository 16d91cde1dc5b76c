package ttlock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// DefaultCacheTTL is deliberately far below the vendor's advertised token
// lifetime (90 days) to bound the blast radius of a leaked cached token.
const DefaultCacheTTL = 24 * time.Hour

// ErrAuthFailed indicates the password-grant exchange against the vendor's
// token endpoint failed. A failed exchange is never cached.
var ErrAuthFailed = errors.New("ttlock authentication failed")

// TokenSource caches a vendor access token and transparently refreshes it
// after the cache window elapses. The mutex is held across the exchange so
// concurrent callers observing an expired token perform a single network
// round trip.
type TokenSource struct {
	exchange func(ctx context.Context) (string, error)
	cacheTTL time.Duration
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(exchange func(ctx context.Context) (string, error), cacheTTL time.Duration, now func() time.Time) *TokenSource {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenSource{
		exchange: exchange,
		cacheTTL: cacheTTL,
		now:      now,
	}
}

// Token returns the cached credential, exchanging a fresh one when the cache
// window has elapsed. On failure the cached state is left untouched.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	token, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiresAt = s.now().Add(s.cacheTTL)
	return s.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// exchangeCredentials performs the password-style grant against the vendor's
// token endpoint using the configured application and account credentials.
func (c *Client) exchangeCredentials(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"password"},
		"username":      {c.username},
		"password":      {c.password},
	}

	var res tokenResponse
	if err := c.postForm(ctx, tokenEndpoint, form, &res); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token missing from response", ErrAuthFailed)
	}
	return res.AccessToken, nil
}
