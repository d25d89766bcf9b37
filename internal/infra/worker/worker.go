package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-faceswap-bot/internal/domain"
	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
	"telegram-faceswap-bot/internal/domain/ports/repository"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/metrics"
)

// State is the worker's position in its Idle → Dequeuing → Processing → Delivering loop.
type State int32

const (
	StateIdle State = iota
	StateDequeuing
	StateProcessing
	StateDelivering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDequeuing:
		return "dequeuing"
	case StateProcessing:
		return "processing"
	case StateDelivering:
		return "delivering"
	}
	return "unknown"
}

// Artifacts is the slice of the workspace the worker needs.
type Artifacts interface {
	OutputPath(chatID int64, jobID string) string
	Exists(path string) bool
	Cleanup(paths ...string)
}

// Worker is the single consumer of the job queue. It runs one job at a time, so
// transformer invocations never overlap.
type Worker struct {
	queue       repository.JobQueue
	progress    repository.ProgressStore
	history     repository.JobHistoryRepository
	transformer adapter.Transformer
	refs        adapter.ReferencePool
	dispatcher  adapter.ResultDispatcher
	files       Artifacts
	log         *zerolog.Logger

	state atomic.Int32
	newID func() string
	now   func() time.Time
}

func New(
	queue repository.JobQueue,
	progress repository.ProgressStore,
	history repository.JobHistoryRepository,
	transformer adapter.Transformer,
	refs adapter.ReferencePool,
	dispatcher adapter.ResultDispatcher,
	files Artifacts,
	logger *zerolog.Logger,
) *Worker {
	return &Worker{
		queue:       queue,
		progress:    progress,
		history:     history,
		transformer: transformer,
		refs:        refs,
		dispatcher:  dispatcher,
		files:       files,
		log:         logging.Component(logger, "Worker"),
		newID:       func() string { return ulid.Make().String() },
		now:         time.Now,
	}
}

func (w *Worker) State() State { return State(w.state.Load()) }

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
	metrics.SetWorkerBusy(s == StateProcessing || s == StateDelivering)
}

// Run services the queue until ctx is cancelled. A failing or panicking job
// never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("worker started")
	defer w.setState(StateIdle)

	for {
		w.setState(StateDequeuing)
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("worker stopping")
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			continue
		}
		w.iterate(ctx, job)
		w.setState(StateIdle)
	}
}

// iterate is the recovery boundary for a single job.
func (w *Worker) iterate(ctx context.Context, job *model.Job) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().
				Int64("chat_id", job.ChatID).
				Str("job_id", job.ID).
				Interface("panic", r).
				Msg("job finalization panicked")
		}
	}()

	rec := &model.JobRecord{ChatID: job.ChatID, EnqueuedAt: job.EnqueuedAt, StartedAt: w.now()}
	func() {
		defer func() {
			if r := recover(); r != nil {
				rec.Outcome = model.JobOutcomePanicked
				rec.Error = fmt.Sprint(r)
				w.log.Error().
					Int64("chat_id", job.ChatID).
					Str("job_id", job.ID).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("job panicked")
			}
		}()
		w.process(ctx, job, rec)
	}()
	w.finish(job, rec)
}

func (w *Worker) process(ctx context.Context, job *model.Job, rec *model.JobRecord) {
	job.ID = w.newID()
	rec.JobID = job.ID
	ctx = logging.WithJobID(logging.WithChatID(ctx, job.ChatID), job.ID)
	log := logging.With(ctx, w.log)

	w.setState(StateProcessing)
	job.ReferencePath = w.refs.Pick()
	job.OutputPath = w.files.OutputPath(job.ChatID, job.ID)
	log.Info().
		Str("reference", job.ReferencePath).
		Dur("waited", rec.StartedAt.Sub(job.EnqueuedAt)).
		Msg("processing job")

	start := time.Now()
	err := w.transformer.Run(ctx, job.SourcePath, job.ReferencePath, job.OutputPath)
	if err == nil && !w.files.Exists(job.OutputPath) {
		err = domain.ErrOutputMissing
	}
	metrics.ObserveTransform(time.Since(start).Seconds(), err == nil)

	w.setState(StateDelivering)
	if err != nil {
		rec.Outcome = model.JobOutcomeTransformFailed
		rec.Error = err.Error()
		log.Warn().Err(err).Msg("transform failed")
		if derr := w.dispatcher.DeliverFailure(ctx, job.ChatID); derr != nil {
			log.Error().Err(derr).Msg("failed to deliver failure notice")
		}
		return
	}

	if err := w.dispatcher.DeliverResult(ctx, job.ChatID, job.OutputPath, w.queue.Size()); err != nil {
		rec.Outcome = model.JobOutcomeDeliveryFailed
		rec.Error = err.Error()
		log.Error().Err(err).Msg("failed to deliver result")
		return
	}
	rec.Outcome = model.JobOutcomeSucceeded
}

// finish runs after every terminal outcome: the chat may submit again and the
// job's files are gone.
func (w *Worker) finish(job *model.Job, rec *model.JobRecord) {
	rec.FinishedAt = w.now()
	w.progress.Clear(job.ChatID)
	w.files.Cleanup(job.Artifacts()...)
	metrics.IncJob(string(rec.Outcome))

	// the run context may already be cancelled during shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.history.Save(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Warn().Err(err).Str("job_id", rec.JobID).Msg("failed to record job history")
	}

	w.log.Info().
		Int64("chat_id", job.ChatID).
		Str("job_id", rec.JobID).
		Str("outcome", string(rec.Outcome)).
		Dur("duration", rec.Duration()).
		Msg("job finished")
}
