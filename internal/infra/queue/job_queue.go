package queue

import (
	"context"
	"sync"

	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/repository"
	"telegram-faceswap-bot/internal/infra/metrics"
)

var _ repository.JobQueue = (*JobQueue)(nil)

// JobQueue is an unbounded in-memory FIFO. Enqueue never blocks; Dequeue blocks
// until a job is available. Only one dequeuer is expected.
type JobQueue struct {
	mu     sync.Mutex
	items  []*model.Job
	notify chan struct{}
}

func NewJobQueue() *JobQueue {
	return &JobQueue{notify: make(chan struct{}, 1)}
}

// Enqueue appends job and returns the depth observed before the insertion.
func (q *JobQueue) Enqueue(job *model.Job) int {
	q.mu.Lock()
	before := len(q.items)
	q.items = append(q.items, job)
	metrics.SetQueueDepth(len(q.items))
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
		// a wake-up is already pending
	}
	return before
}

// Dequeue removes and returns the head, waiting for one if the queue is empty.
func (q *JobQueue) Dequeue(ctx context.Context) (*model.Job, error) {
	for {
		if job, ok := q.pop(); ok {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *JobQueue) pop() (*model.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	metrics.SetQueueDepth(len(q.items))
	return job, true
}

func (q *JobQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
