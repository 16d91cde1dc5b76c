package service

import (
	"time"

	"github.com/nestlock/nestlock/internal/core"
)

// RegisterRequest describes the code registration the grant service should
// perform on the vendor.
type RegisterRequest struct {
	LockID string

	// GuestName labels the vendor-side registration ("Booking - <name>").
	GuestName string

	Start time.Time
	End   time.Time
}

// RegisterResult is a discriminated result: a vendor-side rejection is a
// regular outcome here, not an error. Err is only set alongside
// Success == false and carries the cause for logging/auditing.
type RegisterResult struct {
	Success bool

	// Grant is set on success. It carries the code and is the only place
	// the code exists; it is returned to the requester exactly once.
	Grant *core.AccessGrant

	Err error
}

// RevokeOutcome tags how a revocation attempt went. The public contract is
// boolean (Ok); the tag exists for logging.
type RevokeOutcome struct {
	Ok bool

	// Kind is "ok", "vendor-error" or "transport-error".
	Kind string

	Err error
}

// GrantResponse is what the recorder returns for a successful issuance.
type GrantResponse struct {
	Grant *core.AccessGrant

	// Record is the durable metadata written for the grant. Never carries
	// the code.
	Record *core.GrantRecord
}
