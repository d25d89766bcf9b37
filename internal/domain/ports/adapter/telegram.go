// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Messenger is the outbound half of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, path string, caption string) error
}

// ResultDispatcher delivers a job's terminal outcome to the user who submitted it.
type ResultDispatcher interface {
	DeliverResult(ctx context.Context, chatID int64, artifactPath string, remaining int) error
	DeliverFailure(ctx context.Context, chatID int64) error
}
