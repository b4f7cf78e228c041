package response

import (
	"sort"
	"time"

	"github.com/user/steam-claimer/internal/entity"
)

// LedgerEntryResponse is a DTO for one ledger entry, mirroring entity.LedgerEntry.
type LedgerEntryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Status    string    `json:"status,omitempty"` // "existed", "claimed", "failed" or empty
	FirstSeen time.Time `json:"first_seen"`
	UpdatedAt time.Time `json:"time"`
}

type LedgerResponse struct {
	User    string                `json:"user"`
	Count   int                   `json:"count"`
	Entries []LedgerEntryResponse `json:"entries"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Ledger string `json:"ledger"`
}

// NewLedgerEntries converts entries to DTOs, most recently updated first.
func NewLedgerEntries(entries []*entity.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:        e.ID,
			Title:     e.Title,
			URL:       e.URL,
			Status:    string(e.Status),
			FirstSeen: e.FirstSeen,
			UpdatedAt: e.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
