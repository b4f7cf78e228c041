package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/user/steam-claimer/internal/entity"
)

// ErrFeedStatus is returned when a feed answers with a non-2xx status.
var ErrFeedStatus = errors.New("unexpected feed status")

// Client fetches both catalog feeds over HTTP.
type Client struct {
	flatURL     string
	giveawayURL string
	http        *http.Client
}

// NewClient creates a feed client. A nil httpClient uses a 30s timeout client.
func NewClient(flatURL, giveawayURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{flatURL: flatURL, giveawayURL: giveawayURL, http: httpClient}
}

func (c *Client) FlatList(ctx context.Context) ([]entity.FlatFeedItem, error) {
	var items []entity.FlatFeedItem
	if err := c.getJSON(ctx, c.flatURL, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Giveaways(ctx context.Context) ([]entity.GiveawayFeedItem, error) {
	var items []entity.GiveawayFeedItem
	if err := c.getJSON(ctx, c.giveawayURL, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", ErrFeedStatus, url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
