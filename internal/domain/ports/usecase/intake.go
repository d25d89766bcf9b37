package usecase

import "context"

// SubmitResult is the advisory queue placement reported back to the user.
type SubmitResult struct {
	Position int
	Total    int
}

type Intake interface {
	StartSession(ctx context.Context, chatID int64) error
	QueueStatus(ctx context.Context) int
	SubmitImage(ctx context.Context, chatID int64, imagePath string) (*SubmitResult, error)
}
