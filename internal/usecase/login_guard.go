package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/repository"
)

const (
	StoreURL = "https://store.steampowered.com/?l=english"
	LoginURL = "https://store.steampowered.com/login/"

	loginLinkSelector = "a.global_action_link"
	accountSelector   = "#account_pulldown"
	loginMarker       = "Log In"

	usernameInput = "input[type=text]"
	passwordInput = "input[type=password]"
	submitButton  = "button[type=submit]"

	// Declines optional cookies so the consent banner stays hidden.
	consentCookieName  = "cookieSettings"
	consentCookieValue = "%7B%22version%22%3A1%2C%22preference_state%22%3A2%2C%22content_customization%22%3Anull%2C%22valve_analytics%22%3Anull%2C%22third_party_analytics%22%3Anull%2C%22third_party_content%22%3Anull%2C%22utm_enabled%22%3Atrue%7D"
	storeDomain        = "store.steampowered.com"

	signalPoll = 500 * time.Millisecond
)

// ErrNotLoggedIn is returned when no authenticated session could be obtained.
var ErrNotLoggedIn = errors.New("not logged in to steam")

// Authenticator yields the username of an authenticated session.
type Authenticator interface {
	EnsureLoggedIn(ctx context.Context) (string, error)
}

// LoginGuard makes sure the browser session is signed in before claiming.
type LoginGuard struct {
	page     repository.PageDriver
	creds    repository.CredentialProvider
	attempts int
	timeouts Timeouts
	logger   *zap.Logger
}

// NewLoginGuard creates a guard that submits the login form at most attempts times.
func NewLoginGuard(page repository.PageDriver, creds repository.CredentialProvider, attempts int, timeouts Timeouts, logger *zap.Logger) *LoginGuard {
	if attempts < 1 {
		attempts = 1
	}
	return &LoginGuard{page: page, creds: creds, attempts: attempts, timeouts: timeouts, logger: logger}
}

// EnsureLoggedIn returns the account name once the store shows a signed-in user.
func (g *LoginGuard) EnsureLoggedIn(ctx context.Context) (string, error) {
	if g.timeouts.Login > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeouts.Login)
		defer cancel()
	}

	if cs, ok := g.page.(repository.CookieSetter); ok {
		if err := cs.SetCookie(ctx, consentCookieName, consentCookieValue, storeDomain); err != nil {
			g.logger.Warn("failed to set cookie consent", zap.Error(err))
		}
	}

	for submitted := 0; ; submitted++ {
		if _, err := g.page.Navigate(ctx, StoreURL); err != nil {
			return "", err
		}

		user, err := g.detect(ctx)
		if err != nil {
			return "", err
		}
		if user != "" {
			g.logger.Info("logged in", zap.String("user", user))
			return user, nil
		}

		g.logger.Warn("not signed in to steam", zap.Int("attempt", submitted+1))
		if submitted == g.attempts {
			return "", fmt.Errorf("%w after %d login attempts", ErrNotLoggedIn, submitted)
		}
		if err := g.login(ctx); err != nil {
			return "", err
		}
	}
}

// detect polls the account display and the login marker until one of them
// gives a verdict. It returns the username, or "" when signed out.
func (g *LoginGuard) detect(ctx context.Context) (string, error) {
	deadline := time.Now().Add(g.timeouts.Page)
	for {
		ok, err := g.page.Visible(ctx, accountSelector, signalPoll)
		if err != nil {
			return "", err
		}
		if ok {
			name, err := g.page.Text(ctx, accountSelector)
			if err == nil && strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name), nil
			}
		}

		ok, err = g.page.Visible(ctx, loginLinkSelector, signalPoll)
		if err != nil {
			return "", err
		}
		if ok {
			text, err := g.page.Text(ctx, loginLinkSelector)
			if err == nil && strings.Contains(text, loginMarker) {
				return "", nil
			}
		}

		if !time.Now().Before(deadline) {
			return "", fmt.Errorf("%w: neither account name nor login link found", ErrNotLoggedIn)
		}
	}
}

func (g *LoginGuard) login(ctx context.Context) error {
	username, err := g.creds.Username(ctx)
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	var password string
	if username != "" {
		if password, err = g.creds.Password(ctx); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	if _, err := g.page.Navigate(ctx, LoginURL); err != nil {
		return err
	}

	if username == "" || password == "" {
		// Leave the form to the user; the next detection picks up the result.
		g.logger.Info("no credentials available, waiting for manual login",
			zap.Duration("timeout", g.timeouts.Page))
		_, err := g.page.Visible(ctx, accountSelector, g.timeouts.Page)
		return err
	}

	if err := g.page.WaitVisible(ctx, usernameInput, g.timeouts.Page); err != nil {
		return err
	}
	if err := g.page.Fill(ctx, usernameInput, username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := g.page.Fill(ctx, passwordInput, password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := g.page.Click(ctx, submitButton); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	if err := g.page.WaitNetworkIdle(ctx, g.timeouts.Page); err != nil {
		g.logger.Warn("login navigation did not settle", zap.Error(err))
	}
	return nil
}
