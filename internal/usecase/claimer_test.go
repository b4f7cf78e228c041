package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/pkg/metrics"
)

const app100 = "https://store.steampowered.com/app/100/Hundred/"

var testTimeouts = Timeouts{Short: time.Millisecond, Page: time.Millisecond}

func newTestClaimer(page *fakePage, shots repository.ScreenshotStore, opts ClaimerOptions) *Claimer {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	}
	return NewClaimer(page, NewAgeGateResolver(page, zap.NewNop()), shots, testTimeouts, metrics.NewNop(), zap.NewNop(), opts)
}

func newTestSession(doc entity.LedgerDocument) *Session {
	return NewSession("alice", entity.NewLedger(doc).Partition("alice"))
}

func TestClaimSkipsResolvedItems(t *testing.T) {
	for _, status := range []entity.ClaimStatus{entity.StatusExisted, entity.StatusClaimed} {
		t.Run(string(status), func(t *testing.T) {
			page := newFakePage()
			sess := newTestSession(entity.LedgerDocument{
				"alice": {"100": {Title: "Hundred", Status: status}},
			})
			before, _ := sess.Ledger.Get("100")

			err := newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100})
			require.NoError(t, err)

			assert.Empty(t, page.navigations)
			assert.Empty(t, sess.Records())
			after, _ := sess.Ledger.Get("100")
			assert.Equal(t, before, after)
		})
	}
}

func TestClaimWithFreeGameButton(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = productPage("Hundred").show("#freeGameBtn", "")
	shots := &memShots{}
	sess := newTestSession(nil)

	err := newTestClaimer(page, shots, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100})
	require.NoError(t, err)

	e, ok := sess.Ledger.Get("100")
	require.True(t, ok)
	assert.Equal(t, entity.StatusClaimed, e.Status)
	assert.Equal(t, "Hundred", e.Title)
	assert.Equal(t, app100, e.URL)
	assert.Equal(t, []string{"#freeGameBtn"}, page.clicks)
	assert.Equal(t, []entity.NotificationRecord{{Title: "Hundred", URL: app100, Status: entity.StatusClaimed}}, sess.Records())
	assert.True(t, shots.saved["100"])
}

func TestClaimFallsBackToLabelledButton(t *testing.T) {
	primary := `.btn_green_steamui.btn_medium[data-action="add_to_account"]`
	fallback := ".btn_green_steamui.btn_medium"

	page := newFakePage()
	page.docs[app100] = productPage("Hundred").
		show(primary, "Remove from Account").
		show(fallback, "  Add to Account\n")
	sess := newTestSession(nil)

	err := newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100})
	require.NoError(t, err)

	assert.Equal(t, []string{fallback}, page.clicks)
	assert.Equal(t, entity.StatusClaimed, sess.Ledger.Status("100"))
}

func TestClaimWithoutButtonFailsThenRetrySucceeds(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = productPage("Hundred")
	shots := &memShots{}
	sess := newTestSession(nil)
	claimer := newTestClaimer(page, shots, ClaimerOptions{})

	require.NoError(t, claimer.Claim(context.Background(), sess, entity.Candidate{URL: app100}))
	assert.Equal(t, entity.StatusFailed, sess.Ledger.Status("100"))
	assert.Equal(t, entity.StatusFailed, sess.Records()[0].Status)
	assert.Empty(t, page.clicks)
	assert.Equal(t, 1, page.shots)

	page.docs[app100].show("#freeGameBtn", "")
	require.NoError(t, claimer.Claim(context.Background(), sess, entity.Candidate{URL: app100}))
	assert.Equal(t, entity.StatusClaimed, sess.Ledger.Status("100"))
	assert.Equal(t, entity.StatusClaimed, sess.Records()[1].Status)
	assert.Equal(t, 1, page.shots, "screenshot is taken once per item")
}

func TestClaimAlreadyOwned(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = productPage("Hundred").show(ownedSelector, "").show("#freeGameBtn", "")
	sess := newTestSession(nil)

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100}))

	assert.Empty(t, page.clicks)
	assert.Equal(t, entity.StatusExisted, sess.Ledger.Status("100"))
	assert.Equal(t, entity.StatusExisted, sess.Records()[0].Status)
}

func TestClaimOwnedAfterFailureKeepsFailed(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = productPage("Hundred").show(ownedSelector, "")
	sess := newTestSession(entity.LedgerDocument{"alice": {"100": {Title: "Hundred", Status: entity.StatusFailed}}})

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100}))
	assert.Equal(t, entity.StatusFailed, sess.Ledger.Status("100"))
}

func TestClaimAgeCheckPageResolvesGateWithRandomDate(t *testing.T) {
	url := "https://store.steampowered.com/agecheck/app/300/"
	page := newFakePage()
	page.docs[url] = productPage("Gory").
		show(ageGateSelector, "").
		show(ageDaySelector, "").
		show(ageMonthSelector, "").
		show(ageYearSelector, "").
		show(viewProductButton, "").
		show("#freeGameBtn", "")
	sess := newTestSession(nil)

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: url}))

	day, err := strconv.Atoi(page.selects[ageDaySelector])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, day, 1)
	assert.LessOrEqual(t, day, 31)
	assert.Contains(t, monthNames[:], page.selects[ageMonthSelector])
	year, err := strconv.Atoi(page.selects[ageYearSelector])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, year, 1900)
	assert.LessOrEqual(t, year, 2026)

	assert.Equal(t, []string{viewProductButton, "#freeGameBtn"}, page.clicks)
	assert.Equal(t, entity.StatusClaimed, sess.Ledger.Status("300"))
}

func TestClaimToleratesBrokenAgeGate(t *testing.T) {
	url := "https://store.steampowered.com/agecheck/app/300/"
	page := newFakePage()
	// Gate shown, but the submit button never appears.
	page.docs[url] = productPage("Gory").show(ageGateSelector, "").show("#freeGameBtn", "")
	sess := newTestSession(nil)

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: url}))
	assert.Equal(t, entity.StatusClaimed, sess.Ledger.Status("300"))
}

func TestClaimDryRunDoesNotClick(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = productPage("Hundred").show("#freeGameBtn", "")
	sess := newTestSession(nil)

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{DryRun: true}).Claim(context.Background(), sess, entity.Candidate{URL: app100}))

	assert.Empty(t, page.clicks)
	assert.Equal(t, entity.StatusUnset, sess.Ledger.Status("100"))
}

func TestClaimNavigationErrorPropagates(t *testing.T) {
	page := newFakePage()
	page.navErrs[app100] = errors.New("net::ERR_TIMED_OUT")
	sess := newTestSession(nil)

	err := newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100})
	assert.ErrorIs(t, err, repository.ErrNavigationFailed)
	_, ok := sess.Ledger.Get("100")
	assert.False(t, ok)
}

func TestClaimTitleFallsBackToDocumentTitle(t *testing.T) {
	page := newFakePage()
	page.docs[app100] = newDoc("Hundred on Steam").show("#freeGameBtn", "")
	sess := newTestSession(nil)

	require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100}))
	e, _ := sess.Ledger.Get("100")
	assert.Equal(t, "Hundred on Steam", e.Title)
}

func TestClaimRejectsURLWithoutID(t *testing.T) {
	page := newFakePage()
	err := newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), newTestSession(nil), entity.Candidate{URL: "https://example.com/"})
	assert.Error(t, err)
	assert.False(t, slices.Contains(page.navigations, "https://example.com/"))
}

func TestClaimLabelMustMatchExactly(t *testing.T) {
	for _, label := range []string{"Add to account", "Add to Account Now", "Add  to Account"} {
		t.Run(label, func(t *testing.T) {
			page := newFakePage()
			page.docs[app100] = productPage("Hundred").show(".btn_green_steamui.btn_medium", label)
			sess := newTestSession(nil)

			require.NoError(t, newTestClaimer(page, nil, ClaimerOptions{}).Claim(context.Background(), sess, entity.Candidate{URL: app100}))
			assert.Empty(t, page.clicks)
			assert.Equal(t, entity.StatusFailed, sess.Ledger.Status("100"))
		})
	}
}
