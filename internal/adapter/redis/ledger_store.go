package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/steam-claimer/internal/entity"
)

const (
	ledgerUsersKey  = "steam:ledger:users"
	ledgerKeyPrefix = "steam:ledger:"
)

// LedgerStoreImpl keeps one Redis hash per user, one field per item id.
type LedgerStoreImpl struct {
	client *redis.Client
}

// NewLedgerStore creates a new instance of LedgerStoreImpl.
func NewLedgerStore(client *redis.Client) *LedgerStoreImpl {
	return &LedgerStoreImpl{client: client}
}

func (r *LedgerStoreImpl) userKey(user string) string {
	return fmt.Sprintf("%s%s", ledgerKeyPrefix, user)
}

// Load reads every user hash listed in the users set.
func (r *LedgerStoreImpl) Load(ctx context.Context) (entity.LedgerDocument, error) {
	users, err := r.client.SMembers(ctx, ledgerUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger users: %w", err)
	}

	doc := entity.LedgerDocument{}
	for _, user := range users {
		fields, err := r.client.HGetAll(ctx, r.userKey(user)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger for %s: %w", user, err)
		}
		entries := make(map[string]*entity.LedgerEntry, len(fields))
		for id, raw := range fields {
			var e entity.LedgerEntry
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				return nil, fmt.Errorf("failed to decode ledger entry %s/%s: %w", user, id, err)
			}
			entries[id] = &e
		}
		doc[user] = entries
	}
	return doc, nil
}

// Save writes all entries in one MULTI/EXEC transaction.
func (r *LedgerStoreImpl) Save(ctx context.Context, doc entity.LedgerDocument) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for user, entries := range doc {
			if len(entries) == 0 {
				continue
			}
			values := make(map[string]any, len(entries))
			for id, e := range entries {
				raw, err := json.Marshal(e)
				if err != nil {
					return err
				}
				values[id] = raw
			}
			pipe.SAdd(ctx, ledgerUsersKey, user)
			pipe.HSet(ctx, r.userKey(user), values)
		}
		return nil
	})
	return err
}
