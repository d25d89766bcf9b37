package repository

import (
	"context"

	"telegram-faceswap-bot/internal/domain/model"
)

// JobQueue is an unbounded FIFO with a single consumer.
type JobQueue interface {
	// Enqueue appends job to the tail and returns the depth observed before insertion.
	Enqueue(job *model.Job) int
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*model.Job, error)
	Size() int
}
