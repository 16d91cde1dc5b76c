package core

import "time"

type AuditEntry struct {
	// ID uniquely identifies this entry.
	ID string `json:"id"`

	// CorrelationID is the request ID (X-Correlation-ID) this entry
	// belongs to. Empty for background work such as the expiry sweep.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "grant.issue", "grant.revoke")
	Action string `json:"action"`

	// TransactionID is the booking transaction the action targeted.
	TransactionID string `json:"transaction_id,omitempty"`

	// LockID and VendorGrantID identify the vendor-side registration.
	// The access code itself is never audited.
	LockID        string `json:"lock_id,omitempty"`
	VendorGrantID int64  `json:"vendor_grant_id,omitempty"`

	// Outcome details
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Metadata contains extra details (e.g. validity window, label)
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
	Close() error
}
