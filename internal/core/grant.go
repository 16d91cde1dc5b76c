package core

import "time"

// AccessGrant is the result of a successful code registration on the lock vendor.
// It is the only place the raw access code exists and is returned exactly once
// to the requester who triggered generation. It is never persisted.
type AccessGrant struct {
	// Code is the 6-digit keypad code the guest enters on the lock.
	Code string `json:"code"`

	// LockID is the vendor-assigned identifier of the lock.
	LockID string `json:"lock_id"`

	// StartDate and EndDate bound the validity window of the code,
	// matched to the booking's stay dates.
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// VendorGrantID is the vendor-assigned identifier of the registration
	// (keyboardPwdId). It is needed for later revocation.
	VendorGrantID int64 `json:"vendor_grant_id"`
}

// GrantRecord is the durable record that a code was registered for a booking.
// It deliberately carries everything needed for revocation and reconciliation
// but never the code itself.
type GrantRecord struct {
	// TransactionID is the booking transaction this grant belongs to. 1:1.
	TransactionID string `json:"transaction_id" gorm:"primaryKey"`

	LockID        string `json:"lock_id"`
	VendorGrantID int64  `json:"vendor_grant_id"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the grant is still valid at the given time:
// not revoked and not past its validity window.
func (r GrantRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.EndDate.After(now)
}

// Expired reports whether the grant's validity window has passed.
func (r GrantRecord) Expired(now time.Time) bool {
	return !r.EndDate.After(now)
}
