// Package marketplace implements the transaction-store port against the
// marketplace's Integration API.
package marketplace

import (
	"bytes"
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

const DefaultTimeout = 15 * time.Second

const (
	showTransactionEndpoint = "/v1/integration_api/transactions/show"
	updateMetadataEndpoint  = "/v1/integration_api/transactions/update_metadata"
)

var _ core.TransactionStore = (*Client)(nil)

type Config struct {
	BaseURL string

	// APIToken is the service-account bearer token for the Integration API.
	APIToken string

	Timeout time.Duration
}

// Client is a thin read/update client for booking transactions.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchTransaction loads a transaction with its listing, booking and customer
// relations in one request and resolves the included resources.
func (c *Client) FetchTransaction(ctx context.Context, transactionID string) (*core.BookingContext, error) {
	query := url.Values{
		"id":      {transactionID},
		"include": {"listing,booking,customer"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+showTransactionEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var env envelope
	if err := c.do(req, &env); err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", transactionID, err)
	}

	bc := &core.BookingContext{
		Transaction: core.Transaction{
			ID:       env.Data.ID.UUID,
			Metadata: env.Data.Attributes.Metadata,
		},
	}

	if listing := env.resolve("listing"); listing != nil {
		bc.Listing = &core.Listing{
			ID:     listing.ID.UUID,
			LockID: listing.Attributes.PublicData.LockID,
		}
	}
	if booking := env.resolve("booking"); booking != nil {
		bc.Booking = &core.Booking{
			Start: booking.Attributes.Start,
			End:   booking.Attributes.End,
		}
	}
	if customer := env.resolve("customer"); customer != nil {
		bc.Customer = &core.Customer{
			DisplayName: customer.Attributes.Profile.DisplayName,
		}
	}

	return bc, nil
}

// UpdateMetadata merges the given metadata onto the transaction record.
func (c *Client) UpdateMetadata(ctx context.Context, transactionID string, metadata map[string]any) error {
	payload, err := json.Marshal(map[string]any{
		"id":       transactionID,
		"metadata": metadata,
	})
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+updateMetadataEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("updating metadata for transaction %s: %w", transactionID, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, dest any) error {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// resolve follows a relationship of the primary resource into the included
// array. Returns nil if the relationship or the included resource is absent.
func (e *envelope) resolve(relation string) *resource {
	rel, ok := e.Data.Relationships[relation]
	if !ok || rel.Data == nil {
		return nil
	}
	for i := range e.Included {
		inc := &e.Included[i]
		if inc.Type == rel.Data.Type && inc.ID.UUID == rel.Data.ID.UUID {
			return inc
		}
	}
	return nil
}
