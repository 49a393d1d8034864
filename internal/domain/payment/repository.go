package payment

import (
	"github.com/shopspring/decimal"
)

// Tracker is the contract of the local in-flight payment store.
type Tracker interface {
	// Put inserts or replaces the record for paymentID, resetting its expiry.
	Put(paymentID string, amount decimal.Decimal, ownerID int64, meta Metadata)

	// Get returns the record if present and unexpired.
	Get(paymentID string) (Record, bool)

	// Delete removes the record and reports whether it was present.
	Delete(paymentID string) bool

	// FindByOwner returns every unexpired record owned by ownerID.
	FindByOwner(ownerID int64) []Record

	// Sweep removes all expired records and returns how many were removed.
	Sweep() int

	// Stats returns an approximate snapshot of the store.
	Stats() Stats
}
