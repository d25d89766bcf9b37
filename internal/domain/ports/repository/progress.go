package repository

import "telegram-faceswap-bot/internal/domain/model"

// ProgressStore holds per-chat intake progress. Operations on a single chat are
// atomic; operations on different chats must not block one another.
type ProgressStore interface {
	// StartSession resets the chat's record. A record whose job is already queued is
	// left untouched. The returned path is an unsubmitted source that was discarded,
	// or "" when there was none.
	StartSession(chatID int64) (discarded string)
	// RecordValidatedSource stores path as the chat's source image and reports
	// whether a job should now be built. It returns false when the chat already has
	// a job in flight.
	RecordValidatedSource(chatID int64, path string) (ready bool)
	Get(chatID int64) (model.UserProgress, bool)
	Clear(chatID int64)
}
