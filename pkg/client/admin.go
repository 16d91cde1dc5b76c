package client

import (
	"context"

	"github.com/nestlock/nestlock/internal/api"
	"github.com/nestlock/nestlock/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	CorrelationID string
	TransactionID string
	LockID        string
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.CorrelationID != "" {
		ub = ub.addQueryParam("correlation_id", opts.CorrelationID)
	}
	if opts.TransactionID != "" {
		ub = ub.addQueryParam("transaction_id", opts.TransactionID)
	}
	if opts.LockID != "" {
		ub = ub.addQueryParam("lock_id", opts.LockID)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}

// ListActiveGrants retrieves the list of currently active grant records.
func (c *Client) ListActiveGrants(ctx context.Context) ([]core.GrantRecord, string, error) {
	var resp []core.GrantRecord
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListGrantsRoute).
		build(), &resp)
	return resp, correlation, err
}
