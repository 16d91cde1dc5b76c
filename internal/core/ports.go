package core

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by stores when no record matches.
var ErrRecordNotFound = errors.New("record not found")

// KeyboardPassword describes a code registration on a vendor lock.
type KeyboardPassword struct {
	LockID string

	// Code is the 6-digit numeric code to register.
	Code string

	// Name is the human-readable label shown in the vendor's UI,
	// e.g. "Booking - Ann".
	Name string

	Start time.Time
	End   time.Time
}

// LockVendor is the outbound port to the electronic-lock platform.
// Implementations: TTLock HTTP client.
type LockVendor interface {
	// AddKeyboardPassword registers a code on a lock for a time window and
	// returns the vendor-assigned grant identifier.
	AddKeyboardPassword(ctx context.Context, pwd KeyboardPassword) (int64, error)

	// DeleteKeyboardPassword removes a previously registered code.
	DeleteKeyboardPassword(ctx context.Context, lockID string, vendorGrantID int64) error
}

// TransactionStore is the outbound port to the marketplace's booking backend.
// It is the source of truth for transaction state, listing configuration and
// durable grant metadata.
type TransactionStore interface {
	// FetchTransaction loads a transaction with its listing, booking and
	// customer relations in a single request.
	FetchTransaction(ctx context.Context, transactionID string) (*BookingContext, error)

	// UpdateMetadata merges the given metadata onto the transaction record.
	UpdateMetadata(ctx context.Context, transactionID string, metadata map[string]any) error
}

// GrantStore keeps local GrantRecords for admin listing and the expiry sweep.
// Implementations must be safe for concurrent use.
type GrantStore interface {
	// Save records a grant, replacing any previous record for the transaction.
	Save(ctx context.Context, rec GrantRecord) error

	// Get returns the record for a transaction or ErrRecordNotFound.
	Get(ctx context.Context, transactionID string) (*GrantRecord, error)

	// SetRevoked marks the record for a transaction as revoked.
	SetRevoked(ctx context.Context, transactionID string, at time.Time) error

	// ListActive returns records that are neither revoked nor expired.
	ListActive(ctx context.Context, now time.Time) ([]GrantRecord, error)

	// ListExpired returns unrevoked records whose validity window has passed.
	ListExpired(ctx context.Context, now time.Time) ([]GrantRecord, error)

	// Purge deletes records revoked at or before the cutoff, plus
	// unrevoked records whose window ended by the cutoff. Passing a cutoff
	// in the past leaves a retention window of recently revoked records.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
