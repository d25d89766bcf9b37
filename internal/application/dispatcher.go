package application

import (
	"context"
	"fmt"

	"telegram-faceswap-bot/internal/domain/ports/adapter"
)

var _ adapter.ResultDispatcher = (*Dispatcher)(nil)

// Dispatcher sends a finished job back to its chat.
type Dispatcher struct {
	messenger adapter.Messenger
	t         Translator
}

func NewDispatcher(messenger adapter.Messenger, tr Translator) *Dispatcher {
	return &Dispatcher{messenger: messenger, t: tr}
}

// DeliverResult sends the "done" text, the artifact and the remaining queue size.
// It stops at the first transport error.
func (d *Dispatcher) DeliverResult(ctx context.Context, chatID int64, artifactPath string, remaining int) error {
	if err := d.messenger.SendText(ctx, chatID, d.t.T("result_done")); err != nil {
		return fmt.Errorf("send done text: %w", err)
	}
	if err := d.messenger.SendPhoto(ctx, chatID, artifactPath, ""); err != nil {
		return fmt.Errorf("send result photo: %w", err)
	}
	if err := d.messenger.SendText(ctx, chatID, d.t.T("result_complete", remaining)); err != nil {
		return fmt.Errorf("send completion text: %w", err)
	}
	return nil
}

func (d *Dispatcher) DeliverFailure(ctx context.Context, chatID int64) error {
	if err := d.messenger.SendText(ctx, chatID, d.t.T("result_failed")); err != nil {
		return fmt.Errorf("send failure text: %w", err)
	}
	return nil
}
