package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/repository"
)

const (
	ageGateSelector   = ".age_gate"
	ageDaySelector    = "#ageDay"
	ageMonthSelector  = "#ageMonth"
	ageYearSelector   = "#ageYear"
	viewProductButton = "#view_product_page_btn"

	// probeTimeout is used for presence checks that should answer at once.
	probeTimeout = time.Second

	minBirthYear = 1900
)

// ErrInvalidMonth is a configuration error: months are numbered 1 to 12.
var ErrInvalidMonth = errors.New("invalid month, must be between 1-12")

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName converts a 1-based month number to its English name.
func MonthName(month int) (string, error) {
	if month < 1 || month > len(monthNames) {
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return monthNames[month-1], nil
}

// BirthDate is the date entered on the age gate.
type BirthDate struct {
	Day   int
	Month int
	Year  int
}

// RandomBirthDate picks day in [1,31], month in [1,12] and year in
// [1900, now.Year()].
func RandomBirthDate(r *rand.Rand, now time.Time) BirthDate {
	return BirthDate{
		Day:   r.IntN(31) + 1,
		Month: r.IntN(len(monthNames)) + 1,
		Year:  minBirthYear + r.IntN(now.Year()-minBirthYear+1),
	}
}

// AgeGateResolver fills in and submits Steam's age verification page.
type AgeGateResolver struct {
	page   repository.PageDriver
	logger *zap.Logger
}

func NewAgeGateResolver(page repository.PageDriver, logger *zap.Logger) *AgeGateResolver {
	return &AgeGateResolver{page: page, logger: logger}
}

// Resolve submits the age gate on the current page. It returns false when
// no gate is shown. Failures after the gate was found are returned as errors.
func (a *AgeGateResolver) Resolve(ctx context.Context, date BirthDate, timeout time.Duration) (bool, error) {
	month, err := MonthName(date.Month)
	if err != nil {
		return false, err
	}

	a.logger.Debug("looking for age gate")
	visible, err := a.page.Visible(ctx, ageGateSelector, probeTimeout)
	if err != nil || !visible {
		a.logger.Debug("age gate not found or not visible")
		return false, nil
	}

	hasDay, err := a.page.Visible(ctx, ageDaySelector, probeTimeout)
	if err != nil {
		return false, err
	}
	if !hasDay {
		a.logger.Info("age gate without date fields, going to product page")
	} else {
		fields := []struct {
			selector string
			value    string
		}{
			{ageDaySelector, strconv.Itoa(date.Day)},
			{ageMonthSelector, month},
			{ageYearSelector, strconv.Itoa(date.Year)},
		}
		for _, f := range fields {
			if err := a.page.WaitVisible(ctx, f.selector, timeout); err != nil {
				return false, err
			}
			if err := a.page.Select(ctx, f.selector, f.value); err != nil {
				return false, fmt.Errorf("failed to set %s: %w", f.selector, err)
			}
		}
		a.logger.Debug("age gate filled",
			zap.Int("day", date.Day), zap.String("month", month), zap.Int("year", date.Year))
	}

	if err := a.page.WaitVisible(ctx, viewProductButton, timeout); err != nil {
		return false, err
	}
	if err := a.page.Click(ctx, viewProductButton); err != nil {
		return false, fmt.Errorf("failed to submit age gate: %w", err)
	}
	if err := a.page.WaitNetworkIdle(ctx, timeout); err != nil {
		return false, err
	}

	a.logger.Info("age gate completed")
	return true, nil
}
