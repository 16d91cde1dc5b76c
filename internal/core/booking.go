package core

import "time"

// BookingContext is the resolved view of a marketplace transaction with its
// included relations, as returned by the transaction store in a single fetch.
// Relations that were missing from the response are nil.
type BookingContext struct {
	Transaction Transaction
	Listing     *Listing
	Booking     *Booking
	Customer    *Customer
}

// Transaction identifies the marketplace's record of a reservation.
type Transaction struct {
	ID string

	// Metadata is the operator-visible metadata already stored on the
	// transaction. Grant metadata written by this service lives under the
	// "ttlock" key.
	Metadata map[string]any
}

// Listing carries the listing configuration relevant to code issuance.
type Listing struct {
	ID string

	// LockID is the vendor lock identifier configured on the listing's
	// public data. Empty means the listing has no lock set up.
	LockID string
}

// Booking carries the stay dates. Zero values mean the dates were absent.
type Booking struct {
	Start time.Time
	End   time.Time
}

// Customer carries the guest profile used to label the vendor-side grant.
type Customer struct {
	DisplayName string
}
