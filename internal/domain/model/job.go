package model

import (
	"time"

	"telegram-faceswap-bot/internal/domain"
)

// Job pairs a user's validated selfie with a reference image.
// ID stays empty until the worker dequeues the job.
type Job struct {
	ID               string
	ChatID           int64
	SourcePath       string
	ReferencePath    string
	OutputPath       string
	EnqueuedPosition int
	EnqueuedAt       time.Time
}

func NewJob(chatID int64, sourcePath string, position int) (*Job, error) {
	if chatID == 0 || sourcePath == "" {
		return nil, domain.ErrInvalidArgument
	}
	if position < 0 {
		position = 0
	}
	return &Job{
		ChatID:           chatID,
		SourcePath:       sourcePath,
		EnqueuedPosition: position,
		EnqueuedAt:       time.Now(),
	}, nil
}

// Artifacts lists every file the job may leave on disk.
func (j *Job) Artifacts() []string {
	paths := make([]string, 0, 2)
	if j.SourcePath != "" {
		paths = append(paths, j.SourcePath)
	}
	if j.OutputPath != "" {
		paths = append(paths, j.OutputPath)
	}
	return paths
}

type JobOutcome string

const (
	JobOutcomeSucceeded       JobOutcome = "succeeded"
	JobOutcomeTransformFailed JobOutcome = "transform_failed"
	JobOutcomeDeliveryFailed  JobOutcome = "delivery_failed"
	JobOutcomePanicked        JobOutcome = "panicked"
)

// JobRecord is the audit entry written once a job reaches a terminal outcome.
type JobRecord struct {
	JobID      string
	ChatID     int64
	Outcome    JobOutcome
	Error      string
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *JobRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
