package repository

import (
	"context"

	"telegram-faceswap-bot/internal/domain/model"
)

// JobHistoryRepository stores one audit row per finished job.
type JobHistoryRepository interface {
	Save(ctx context.Context, rec *model.JobRecord) error
	CountByOutcome(ctx context.Context) (map[model.JobOutcome]int, error)
}
