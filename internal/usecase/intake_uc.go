package usecase

import (
	"context"
	"fmt"

	"telegram-faceswap-bot/internal/domain"
	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
	"telegram-faceswap-bot/internal/domain/ports/repository"
	ucport "telegram-faceswap-bot/internal/domain/ports/usecase"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ucport.Intake = (*intakeUC)(nil)

// ArtifactCleaner removes files the pipeline no longer needs.
type ArtifactCleaner interface {
	Cleanup(paths ...string)
}

type intakeUC struct {
	progress  repository.ProgressStore
	queue     repository.JobQueue
	validator adapter.ImageValidator
	cleaner   ArtifactCleaner
	log       *zerolog.Logger
}

func NewIntakeUseCase(
	progress repository.ProgressStore,
	queue repository.JobQueue,
	validator adapter.ImageValidator,
	cleaner ArtifactCleaner,
	logger *zerolog.Logger,
) *intakeUC {
	return &intakeUC{
		progress:  progress,
		queue:     queue,
		validator: validator,
		cleaner:   cleaner,
		log:       logging.Component(logger, "IntakeUC"),
	}
}

func (u *intakeUC) StartSession(ctx context.Context, chatID int64) error {
	defer logging.TraceDuration(u.log, "IntakeUC.StartSession")()
	if discarded := u.progress.StartSession(chatID); discarded != "" {
		u.cleaner.Cleanup(discarded)
	}
	return nil
}

func (u *intakeUC) QueueStatus(ctx context.Context) int {
	return u.queue.Size()
}

// SubmitImage validates the upload at imagePath and, when the chat has every
// required input, enqueues a job. On any rejection the file is removed and the
// chat's progress is left as it was.
func (u *intakeUC) SubmitImage(ctx context.Context, chatID int64, imagePath string) (*ucport.SubmitResult, error) {
	defer logging.TraceDuration(u.log, "IntakeUC.SubmitImage")()
	log := logging.With(logging.WithChatID(ctx, chatID), u.log)

	ok, err := u.validator.IsAcceptable(ctx, imagePath)
	if err != nil {
		// validator failures count as "not acceptable"
		log.Error().Err(err).Str("path", imagePath).Msg("image validation failed")
	}
	if !ok {
		metrics.IncImageReceived("rejected")
		u.cleaner.Cleanup(imagePath)
		return nil, domain.ErrImageRejected
	}

	if !u.progress.RecordValidatedSource(chatID, imagePath) {
		metrics.IncImageReceived("in_flight")
		u.cleaner.Cleanup(imagePath)
		return nil, domain.ErrJobInFlight
	}

	position := u.queue.Size()
	job, err := model.NewJob(chatID, imagePath, position)
	if err != nil {
		u.progress.Clear(chatID)
		u.cleaner.Cleanup(imagePath)
		metrics.IncImageReceived("error")
		return nil, fmt.Errorf("build job: %w", err)
	}
	u.queue.Enqueue(job)
	metrics.IncImageReceived("accepted")

	log.Info().Int("position", position+1).Msg("job enqueued")
	return &ucport.SubmitResult{
		Position: position + 1,
		Total:    position + 1,
	}, nil
}
