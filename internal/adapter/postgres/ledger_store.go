package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/steam-claimer/internal/entity"
)

const schema = `
	CREATE TABLE IF NOT EXISTS claim_ledger (
		username   TEXT        NOT NULL,
		item_id    TEXT        NOT NULL,
		title      TEXT        NOT NULL DEFAULT '',
		url        TEXT        NOT NULL DEFAULT '',
		status     TEXT        NOT NULL DEFAULT '',
		first_seen TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (username, item_id)
	);
`

// LedgerStoreImpl persists the ledger document as rows of claim_ledger.
type LedgerStoreImpl struct {
	db *pgxpool.Pool
}

// NewLedgerStore creates a new instance of LedgerStoreImpl.
func NewLedgerStore(db *pgxpool.Pool) *LedgerStoreImpl {
	return &LedgerStoreImpl{db: db}
}

// EnsureSchema creates the ledger table when missing.
func (r *LedgerStoreImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Load reads every row into a document.
func (r *LedgerStoreImpl) Load(ctx context.Context) (entity.LedgerDocument, error) {
	query := `
		SELECT username, item_id, title, url, status, first_seen, updated_at
		FROM claim_ledger;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	doc := entity.LedgerDocument{}
	for rows.Next() {
		var user, status string
		var e entity.LedgerEntry
		if err := rows.Scan(&user, &e.ID, &e.Title, &e.URL, &status, &e.FirstSeen, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = entity.ClaimStatus(status)
		if doc[user] == nil {
			doc[user] = map[string]*entity.LedgerEntry{}
		}
		doc[user][e.ID] = &e
	}
	return doc, rows.Err()
}

// Save upserts every entry of the document in a single transaction.
func (r *LedgerStoreImpl) Save(ctx context.Context, doc entity.LedgerDocument) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for user, entries := range doc {
		for id, e := range entries {
			batch.Queue(`
				INSERT INTO claim_ledger (username, item_id, title, url, status, first_seen, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (username, item_id) DO UPDATE SET
					title = EXCLUDED.title,
					url = EXCLUDED.url,
					status = EXCLUDED.status,
					updated_at = EXCLUDED.updated_at`,
				user, id, e.Title, e.URL, string(e.Status), e.FirstSeen, e.UpdatedAt,
			)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert ledger rows: %w", err)
		}
	}
	return tx.Commit(ctx)
}
