package repository

import (
	"context"

	"github.com/user/steam-claimer/internal/entity"
)

// FeedRepository fetches the upstream catalogs.
type FeedRepository interface {
	FlatList(ctx context.Context) ([]entity.FlatFeedItem, error)
	Giveaways(ctx context.Context) ([]entity.GiveawayFeedItem, error)
}
