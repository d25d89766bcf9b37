package application

import (
	"context"
	"errors"
	"fmt"

	"telegram-faceswap-bot/internal/domain"
	ucport "telegram-faceswap-bot/internal/domain/ports/usecase"
)

// BotFacade turns intake results into reply texts.
// Methods return strings so the Telegram adapter just forwards them to the chat.
type BotFacade struct {
	Intake ucport.Intake
	T      Translator
}

func NewBotFacade(intake ucport.Intake, tr Translator) *BotFacade {
	return &BotFacade{Intake: intake, T: tr}
}

// HandleStart opens a fresh session for the chat and returns the welcome text.
func (b *BotFacade) HandleStart(ctx context.Context, chatID int64) (string, error) {
	if err := b.Intake.StartSession(ctx, chatID); err != nil {
		return b.T.T("error_generic"), fmt.Errorf("start session: %w", err)
	}
	return b.T.T("start_welcome"), nil
}

// HandleQueue reports the current queue depth.
func (b *BotFacade) HandleQueue(ctx context.Context) (string, error) {
	return b.T.T("queue_status", b.Intake.QueueStatus(ctx)), nil
}

func (b *BotFacade) HandleHelp(ctx context.Context) (string, error) {
	return b.T.T("help_text"), nil
}

// HandlePhoto submits a downloaded photo. Rejections are user-facing outcomes, not
// errors; only unexpected failures return a non-nil error alongside the generic text.
func (b *BotFacade) HandlePhoto(ctx context.Context, chatID int64, imagePath string) (string, error) {
	res, err := b.Intake.SubmitImage(ctx, chatID, imagePath)
	switch {
	case err == nil:
		return b.T.T("photo_accepted", res.Total, res.Position), nil
	case errors.Is(err, domain.ErrImageRejected):
		return b.T.T("photo_no_face"), nil
	case errors.Is(err, domain.ErrJobInFlight):
		return b.T.T("photo_in_flight"), nil
	default:
		return b.T.T("error_generic"), fmt.Errorf("submit image: %w", err)
	}
}

func (b *BotFacade) HandleDownloadFailure() string { return b.T.T("photo_download_failed") }

func (b *BotFacade) HandleRateLimited() string { return b.T.T("rate_limited") }
