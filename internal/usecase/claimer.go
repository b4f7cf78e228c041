package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/pkg/metrics"
	"github.com/user/steam-claimer/pkg/utils"
)

const (
	titleSelector = "#appHubAppName"
	ownedSelector = ".game_area_already_owned"

	addToAccountLabel = "Add to Account"
)

// PurchaseStrategy is one way of pressing the claim button on a product page.
// A strategy matches when Selector is visible and, if Label is set, the
// element's text equals Label exactly once surrounding whitespace is removed.
type PurchaseStrategy struct {
	Name     string
	Selector string
	Label    string
}

// DefaultStrategies lists the claim buttons in the order they are tried.
func DefaultStrategies() []PurchaseStrategy {
	return []PurchaseStrategy{
		{Name: "free-game-button", Selector: "#freeGameBtn"},
		{Name: "add-to-account", Selector: `.btn_green_steamui.btn_medium[data-action="add_to_account"]`, Label: addToAccountLabel},
		{Name: "add-to-account-fallback", Selector: ".btn_green_steamui.btn_medium", Label: addToAccountLabel},
	}
}

// attempt never fails loudly: any lookup or click problem is a miss.
func (s PurchaseStrategy) attempt(ctx context.Context, page repository.PageDriver, wait time.Duration, click bool) (bool, string) {
	visible, err := page.Visible(ctx, s.Selector, wait)
	if err != nil {
		return false, err.Error()
	}
	if !visible {
		return false, "not found"
	}
	if s.Label != "" {
		text, err := page.Text(ctx, s.Selector)
		if err != nil {
			return false, err.Error()
		}
		if strings.TrimSpace(text) != s.Label {
			return false, "label is " + strings.TrimSpace(text)
		}
	}
	if !click {
		return true, "dry run"
	}
	if err := page.Click(ctx, s.Selector); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ClaimerOptions tunes a Claimer.
type ClaimerOptions struct {
	Strategies []PurchaseStrategy
	// DryRun finds the claim button without pressing it.
	DryRun bool
	Rand   *rand.Rand
	Now    func() time.Time
}

// Claimer runs the claim procedure for a single candidate.
type Claimer struct {
	page        repository.PageDriver
	ageGate     *AgeGateResolver
	screenshots repository.ScreenshotStore
	timeouts    Timeouts
	strategies  []PurchaseStrategy
	dryRun      bool
	rng         *rand.Rand
	now         func() time.Time
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewClaimer creates a Claimer. screenshots may be nil to disable capturing.
func NewClaimer(
	page repository.PageDriver,
	ageGate *AgeGateResolver,
	screenshots repository.ScreenshotStore,
	timeouts Timeouts,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ClaimerOptions,
) *Claimer {
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Claimer{
		page:        page,
		ageGate:     ageGate,
		screenshots: screenshots,
		timeouts:    timeouts,
		strategies:  opts.Strategies,
		dryRun:      opts.DryRun,
		rng:         opts.Rand,
		now:         opts.Now,
		metrics:     m,
		logger:      logger,
	}
}

// Claim processes one candidate. Items already owned or claimed are skipped
// without touching the page; navigation failures are returned.
func (c *Claimer) Claim(ctx context.Context, sess *Session, cand entity.Candidate) error {
	id := cand.ID
	if id == "" {
		var err error
		if id, err = utils.ItemID(cand.URL); err != nil {
			return err
		}
	}
	log := c.logger.With(zap.String("id", id), zap.String("url", cand.URL))

	if sess.Ledger.IsResolved(id) {
		log.Debug("already handled", zap.String("status", string(sess.Ledger.Status(id))))
		return nil
	}

	start := time.Now()
	location, err := c.page.Navigate(ctx, cand.URL)
	if err != nil {
		return err
	}
	title := c.readTitle(ctx, id)
	log = log.With(zap.String("title", title))

	sess.Ledger.UpsertIfAbsent(id, entity.LedgerEntry{Title: title, URL: location})
	record := sess.addRecord(title, cand.URL)

	owned, err := c.page.Visible(ctx, ownedSelector, c.timeouts.Short)
	if err != nil {
		return err
	}
	if owned {
		log.Info("game already in library")
		sess.Ledger.SetStatusIfUnset(id, entity.StatusExisted)
	} else {
		if utils.IsAgeCheck(cand.URL) || utils.IsAgeCheck(location) {
			date := RandomBirthDate(c.rng, c.now())
			if _, err := c.ageGate.Resolve(ctx, date, c.timeouts.Page); err != nil {
				if errors.Is(err, ErrInvalidMonth) {
					return err
				}
				log.Warn("age gate not handled", zap.Error(err))
			}
		}

		switch strategy, ok := c.purchase(ctx, log); {
		case ok && c.dryRun:
			log.Info("dry run, not claiming", zap.String("strategy", strategy))
		case ok:
			log.Info("claimed", zap.String("strategy", strategy))
			sess.Ledger.SetClaimed(id)
		default:
			log.Error("failed to claim game: no purchase button matched")
			sess.Ledger.SetStatusIfUnset(id, entity.StatusFailed)
		}
	}

	if status := sess.Ledger.Status(id); status != entity.StatusUnset {
		record.Status = status
	}
	c.capture(ctx, id, log)

	c.metrics.ClaimsTotal.WithLabelValues(string(record.Status)).Inc()
	c.metrics.ClaimDuration.WithLabelValues(string(record.Status)).Observe(time.Since(start).Seconds())
	return nil
}

func (c *Claimer) readTitle(ctx context.Context, id string) string {
	if ok, err := c.page.Visible(ctx, titleSelector, c.timeouts.Short); err == nil && ok {
		if text, err := c.page.Text(ctx, titleSelector); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	if title, err := c.page.Title(ctx); err == nil && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return "app " + id
}

// purchase tries each strategy in order and reports the first that succeeded.
func (c *Claimer) purchase(ctx context.Context, log *zap.Logger) (string, bool) {
	for _, s := range c.strategies {
		ok, reason := s.attempt(ctx, c.page, c.timeouts.Short, !c.dryRun)
		if ok {
			return s.Name, true
		}
		log.Debug("purchase strategy missed", zap.String("strategy", s.Name), zap.String("reason", reason))
	}
	return "", false
}

func (c *Claimer) capture(ctx context.Context, id string, log *zap.Logger) {
	if c.screenshots == nil || c.screenshots.Exists(id) {
		return
	}
	png, err := c.page.Screenshot(ctx)
	if err == nil {
		err = c.screenshots.Save(id, png)
	}
	if err != nil {
		log.Warn("failed to save screenshot", zap.Error(err))
	}
}
