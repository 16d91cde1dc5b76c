package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nestlock/nestlock/internal/api"
)

// CreateGrant issues an access code for the given booking transaction.
// The returned response carries the pin; the server never hands it out again.
func (c *Client) CreateGrant(ctx context.Context, transactionID string) (*api.CreateGrantResponse, string, error) {
	payload := api.CreateGrantPayload{
		TransactionID: transactionID,
	}

	var grant api.CreateGrantResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.CreateGrantRoute).
		build(), payload, &grant)
	if err != nil {
		return nil, correlation, err
	}
	return &grant, correlation, nil
}

// RevokeGrant removes the access code for the given booking transaction.
func (c *Client) RevokeGrant(ctx context.Context, transactionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.url().
		setPath(api.RevokeGrantRoute).
		setPathParam("id", transactionID).
		build(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	var resp api.RevokeGrantResponse
	correlation, err := c.do(req, &resp)
	if err != nil {
		return correlation, fmt.Errorf("revoking grant: %w", err)
	}
	if !resp.Revoked {
		return correlation, fmt.Errorf("unexpected response: grant not revoked")
	}
	return correlation, nil
}
