// Package ttlock implements the outbound client for the TTLock cloud API.
//
// All endpoints are form-encoded POSTs against a region-fixed base URL.
// Timestamps on the wire are epoch milliseconds.
package ttlock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nestlock/nestlock/internal/core"
)

const (
	DefaultBaseURL = "https://euapi.ttlock.com"

	// DefaultTimeout bounds every outbound call. A timed-out registration is
	// ambiguous (the vendor may have registered it); callers treat it as a
	// failure and the sweep reconciles leftovers.
	DefaultTimeout = 15 * time.Second
)

const (
	tokenEndpoint  = "/oauth2/token"
	addEndpoint    = "/v3/keyboardPwd/add"
	deleteEndpoint = "/v3/keyboardPwd/delete"
)

var _ core.LockVendor = (*Client)(nil)

// Config holds the vendor application and service-account credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	// Timeout for outbound HTTP calls. Defaults to DefaultTimeout.
	Timeout time.Duration

	// CacheTTL bounds how long an exchanged access token is reused.
	// Defaults to DefaultCacheTTL.
	CacheTTL time.Duration

	// Now is the clock used for token expiry and request timestamps.
	// Defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// Client talks to the TTLock API. Safe for concurrent use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	username     string
	password     string

	httpClient *http.Client
	tokens     *TokenSource
	now        func() time.Time
}

func New(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		username:     cfg.Username,
		password:     cfg.Password,
		httpClient:   &http.Client{Timeout: timeout},
		now:          now,
	}
	c.tokens = NewTokenSource(c.exchangeCredentials, cfg.CacheTTL, now)
	return c
}

// APIError is a vendor-reported error (non-zero errcode).
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("ttlock error code %d", e.Code)
}

type apiResponse struct {
	ErrCode       int    `json:"errcode"`
	ErrMsg        string `json:"errmsg"`
	KeyboardPwdID int64  `json:"keyboardPwdId"`
}

// AddKeyboardPassword registers a code on a lock for a time window and
// returns the vendor-assigned keyboardPwdId.
func (c *Client) AddKeyboardPassword(ctx context.Context, pwd core.KeyboardPassword) (int64, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, err
	}

	form := url.Values{
		"clientId":        {c.clientID},
		"accessToken":     {token},
		"lockId":          {pwd.LockID},
		"keyboardPwd":     {pwd.Code},
		"keyboardPwdName": {pwd.Name},
		"startDate":       {millis(pwd.Start)},
		"endDate":         {millis(pwd.End)},
		"date":            {millis(c.now())},
	}

	var res apiResponse
	if err := c.postForm(ctx, addEndpoint, form, &res); err != nil {
		return 0, fmt.Errorf("registering keyboard password: %w", err)
	}

	// success is signaled by errcode 0 or the presence of a keyboardPwdId
	if res.ErrCode != 0 && res.KeyboardPwdID == 0 {
		return 0, &APIError{Code: res.ErrCode, Message: res.ErrMsg}
	}
	return res.KeyboardPwdID, nil
}

// DeleteKeyboardPassword removes a previously registered code.
func (c *Client) DeleteKeyboardPassword(ctx context.Context, lockID string, vendorGrantID int64) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	form := url.Values{
		"clientId":      {c.clientID},
		"accessToken":   {token},
		"lockId":        {lockID},
		"keyboardPwdId": {fmt.Sprintf("%d", vendorGrantID)},
		"date":          {millis(c.now())},
	}

	var res apiResponse
	if err := c.postForm(ctx, deleteEndpoint, form, &res); err != nil {
		return fmt.Errorf("deleting keyboard password: %w", err)
	}
	if res.ErrCode != 0 {
		return &APIError{Code: res.ErrCode, Message: res.ErrMsg}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func millis(t time.Time) string {
	return fmt.Sprintf("%d", t.UnixMilli())
}
