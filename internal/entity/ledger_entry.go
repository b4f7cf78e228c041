package entity

import "time"

// ClaimStatus is the claim state recorded for a ledger entry.
type ClaimStatus string

const (
	StatusUnset   ClaimStatus = ""
	StatusExisted ClaimStatus = "existed"
	StatusClaimed ClaimStatus = "claimed"
	StatusFailed  ClaimStatus = "failed"
)

// Resolved reports whether an item with this status needs no further work.
func (s ClaimStatus) Resolved() bool {
	return s == StatusExisted || s == StatusClaimed
}

// LedgerEntry mirrors one item of the persisted ledger document.
// ID is the map key in the document and is not serialized inside the entry.
type LedgerEntry struct {
	ID        string      `json:"-"`
	Title     string      `json:"title"`
	FirstSeen time.Time   `json:"first_seen"`
	UpdatedAt time.Time   `json:"time"`
	URL       string      `json:"url"`
	Status    ClaimStatus `json:"status,omitempty"`
}

// LedgerDocument is the on-disk shape: username -> item id -> entry.
type LedgerDocument map[string]map[string]*LedgerEntry
