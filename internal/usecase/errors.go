package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/pkg/utils"
)

// errorType labels an error for metrics.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrElementNotFound):
		return "element"
	case errors.Is(err, ErrInvalidMonth):
		return "config"
	case errors.Is(err, utils.ErrNoItemID):
		return "bad_url"
	default:
		return "unknown"
	}
}

// firstLine returns the first line of an error message.
func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
