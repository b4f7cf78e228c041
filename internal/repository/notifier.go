package repository

import "context"

// Notifier delivers a message to the configured notification channel.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// CredentialProvider supplies login credentials, possibly interactively.
type CredentialProvider interface {
	Username(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
}

// ScreenshotStore keeps one screenshot per item id.
type ScreenshotStore interface {
	Exists(id string) bool
	Save(id string, png []byte) error
}
