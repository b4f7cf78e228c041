package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned when a required element never appears.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigationFailed wraps failures to load a required page.
	ErrNavigationFailed = errors.New("navigation failed")
)

// PageDriver is the narrow browser capability the claim engine needs.
// Selectors are CSS selectors evaluated against the current document.
type PageDriver interface {
	// Navigate loads url and returns the final URL after redirects.
	Navigate(ctx context.Context, url string) (string, error)
	// CurrentURL returns the URL of the current document.
	CurrentURL(ctx context.Context) (string, error)
	// Visible waits up to timeout for selector to be visible. A timeout is
	// reported as false with a nil error.
	Visible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// WaitVisible waits up to timeout for selector and fails with ErrElementNotFound.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	// Fill replaces the value of an input with value, typing it.
	Fill(ctx context.Context, selector, value string) error
	// Select chooses the option of a <select> whose value or label equals value.
	Select(ctx context.Context, selector, value string) error
	// Text returns the text content of the first element matching selector.
	Text(ctx context.Context, selector string) (string, error)
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// WaitNetworkIdle blocks until the page reports network quiescence.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error
	// Screenshot captures the viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// CookieSetter is implemented by drivers able to preset cookies.
type CookieSetter interface {
	SetCookie(ctx context.Context, name, value, domain string) error
}
