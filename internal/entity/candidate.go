package entity

import "time"

// Candidate is an item yielded by a catalog source that may be claimable.
type Candidate struct {
	ID            string
	URL           string
	AvailableDate *time.Time
}

// FlatFeedItem is one element of the flat-list feed.
type FlatFeedItem struct {
	URL       string `json:"url"`
	StartDate string `json:"startDate,omitempty"`
}

// GiveawayFeedItem is one element of the redirect-resolving feed.
type GiveawayFeedItem struct {
	OpenGiveawayURL string `json:"open_giveaway_url"`
}
