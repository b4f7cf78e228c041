package repository

import (
	"context"

	"github.com/user/steam-claimer/internal/entity"
)

// LedgerStore loads and persists the whole ledger document.
type LedgerStore interface {
	// Load returns the stored document; an empty store yields an empty document.
	Load(ctx context.Context) (entity.LedgerDocument, error)
	// Save durably replaces the stored document.
	Save(ctx context.Context, doc entity.LedgerDocument) error
}

// LedgerExporter writes one user's entries to a standalone document.
type LedgerExporter interface {
	Export(ctx context.Context, user string, entries map[string]entity.LedgerEntry) error
}
