package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/pkg/metrics"
	"github.com/user/steam-claimer/pkg/utils"
)

// CatalogSource yields candidates from one upstream catalog and claims them.
type CatalogSource interface {
	Name() string
	Run(ctx context.Context, sess *Session) error
}

// giveawayBirthDate is entered on age gates reached through giveaway links.
var giveawayBirthDate = BirthDate{Day: 21, Month: 1, Year: 1989}

var startDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseStartDate(s string) (time.Time, bool) {
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FlatListSource claims the items of the flat JSON feed in order. The feed is
// assumed to be sorted by start date: the first item that is not available
// yet ends the source. Any item error aborts the source.
type FlatListSource struct {
	feed    repository.FeedRepository
	claimer *Claimer
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewFlatListSource(feed repository.FeedRepository, claimer *Claimer, now func() time.Time, m *metrics.Metrics, logger *zap.Logger) *FlatListSource {
	if now == nil {
		now = time.Now
	}
	return &FlatListSource{feed: feed, claimer: claimer, now: now, metrics: m, logger: logger.With(zap.String("source", "steam-json"))}
}

func (s *FlatListSource) Name() string { return "steam-json" }

func (s *FlatListSource) Run(ctx context.Context, sess *Session) error {
	items, err := s.feed.FlatList(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}
	s.checkOrder(items)

	now := s.now()
	for _, item := range items {
		id, err := utils.ItemID(item.URL)
		if err != nil {
			s.metrics.ItemErrorsTotal.WithLabelValues(s.Name(), "bad_url").Inc()
			return fmt.Errorf("%s: %w", item.URL, err)
		}
		if sess.Ledger.IsResolved(id) {
			s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "skipped").Inc()
			continue
		}

		cand := entity.Candidate{ID: id, URL: item.URL}
		if item.StartDate != "" {
			start, ok := parseStartDate(item.StartDate)
			if !ok {
				s.logger.Warn("ignoring unparsable start date", zap.String("url", item.URL), zap.String("startDate", item.StartDate))
			} else if !start.Before(now) {
				s.logger.Info("game not available yet, stopping", zap.String("url", item.URL), zap.Time("startDate", start))
				s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "deferred").Inc()
				return nil
			} else {
				cand.AvailableDate = &start
			}
		}

		s.logger.Info("claiming", zap.String("url", item.URL))
		if err := s.claimer.Claim(ctx, sess, cand); err != nil {
			s.metrics.ItemErrorsTotal.WithLabelValues(s.Name(), errorType(err)).Inc()
			return fmt.Errorf("claim %s: %w", item.URL, err)
		}
		s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "processed").Inc()
	}
	return nil
}

// checkOrder warns when start dates are not ascending, since the halt on the
// first future item relies on that order.
func (s *FlatListSource) checkOrder(items []entity.FlatFeedItem) {
	var prev time.Time
	for _, item := range items {
		if item.StartDate == "" {
			continue
		}
		start, ok := parseStartDate(item.StartDate)
		if !ok {
			continue
		}
		if start.Before(prev) {
			s.logger.Warn("feed is not sorted by start date, later items may be skipped",
				zap.String("url", item.URL))
			return
		}
		prev = start
	}
}

// RedirectSource claims giveaway links that redirect to store pages. Each
// item is isolated: a failure is logged and the next item is processed.
type RedirectSource struct {
	feed     repository.FeedRepository
	page     repository.PageDriver
	claimer  *Claimer
	ageGate  *AgeGateResolver
	timeouts Timeouts
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewRedirectSource(
	feed repository.FeedRepository,
	page repository.PageDriver,
	claimer *Claimer,
	ageGate *AgeGateResolver,
	timeouts Timeouts,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RedirectSource {
	return &RedirectSource{
		feed:     feed,
		page:     page,
		claimer:  claimer,
		ageGate:  ageGate,
		timeouts: timeouts,
		metrics:  m,
		logger:   logger.With(zap.String("source", "gamerpower")),
	}
}

func (s *RedirectSource) Name() string { return "gamerpower" }

func (s *RedirectSource) Run(ctx context.Context, sess *Session) error {
	items, err := s.feed.Giveaways(ctx)
	if err != nil {
		s.logger.Error("failed to fetch giveaways", zap.Error(err))
		s.metrics.ItemErrorsTotal.WithLabelValues(s.Name(), "feed").Inc()
		return nil
	}

	for _, item := range items {
		if err := s.process(ctx, sess, item.OpenGiveawayURL); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("failed to claim giveaway", zap.String("url", item.OpenGiveawayURL), zap.Error(err))
			s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "error").Inc()
			s.metrics.ItemErrorsTotal.WithLabelValues(s.Name(), errorType(err)).Inc()
		}
	}
	return nil
}

func (s *RedirectSource) process(ctx context.Context, sess *Session, giveawayURL string) error {
	s.logger.Debug("resolving giveaway", zap.String("url", giveawayURL))
	location, err := s.page.Navigate(ctx, giveawayURL)
	if err != nil {
		return err
	}

	kind := utils.Classify(location)
	if kind == utils.PageOther {
		s.logger.Info("game can be claimed outside of steam", zap.String("url", location))
		s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "other").Inc()
		return nil
	}

	id, err := utils.ItemID(location)
	if err != nil {
		return err
	}
	if sess.Ledger.IsResolved(id) {
		s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "skipped").Inc()
		return nil
	}

	if kind == utils.PageAgeCheck {
		if _, err := s.ageGate.Resolve(ctx, giveawayBirthDate, s.timeouts.Page); err != nil {
			return err
		}
	}

	if err := s.claimer.Claim(ctx, sess, entity.Candidate{ID: id, URL: location}); err != nil {
		return err
	}
	s.metrics.FeedItemsTotal.WithLabelValues(s.Name(), "processed").Inc()
	return nil
}
