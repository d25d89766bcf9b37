//go:build !integration

package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"telegram-faceswap-bot/internal/domain"
	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/memory"
	"telegram-faceswap-bot/internal/infra/queue"
)

// --- fakes ---

type fakeTransformer struct {
	active    atomic.Int32
	maxActive atomic.Int32
	mu        sync.Mutex
	calls     []string // source paths, in invocation order
	run       func(src, ref, out string) error
}

func (f *fakeTransformer) Run(ctx context.Context, src, ref, out string) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, src)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	if f.run != nil {
		return f.run(src, ref, out)
	}
	return os.WriteFile(out, []byte("swapped"), 0o644)
}

func (f *fakeTransformer) sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRefs struct{}

func (fakeRefs) Pick() string { return "target/ref.jpg" }
func (fakeRefs) Len() int { return 1 }

type delivery struct {
	chatID    int64
	path      string
	remaining int
	failed    bool
}

type fakeDispatcher struct {
	mu         sync.Mutex
	deliveries []delivery
	resultErr  error
}

func (f *fakeDispatcher) DeliverResult(ctx context.Context, chatID int64, artifactPath string, remaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{chatID: chatID, path: artifactPath, remaining: remaining})
	return f.resultErr
}

func (f *fakeDispatcher) DeliverFailure(ctx context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{chatID: chatID, failed: true})
	return nil
}

func (f *fakeDispatcher) all() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.deliveries...)
}

type fakeFiles struct {
	dir     string
	mu      sync.Mutex
	removed []string
}

func (f *fakeFiles) OutputPath(chatID int64, jobID string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_%s.jpg", chatID, jobID))
}

func (f *fakeFiles) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (f *fakeFiles) Cleanup(paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, paths...)
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func (f *fakeFiles) wasRemoved(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.removed {
		if p == path {
			return true
		}
	}
	return false
}

type fakeHistory struct {
	mu      sync.Mutex
	records []model.JobRecord
	saved   chan struct{}
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{saved: make(chan struct{}, 64)}
}

func (f *fakeHistory) Save(ctx context.Context, rec *model.JobRecord) error {
	f.mu.Lock()
	f.records = append(f.records, *rec)
	f.mu.Unlock()
	f.saved <- struct{}{}
	return nil
}

func (f *fakeHistory) CountByOutcome(ctx context.Context) (map[model.JobOutcome]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[model.JobOutcome]int{}
	for _, r := range f.records {
		out[r.Outcome]++
	}
	return out, nil
}

func (f *fakeHistory) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.saved:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
}

func (f *fakeHistory) all() []model.JobRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.JobRecord(nil), f.records...)
}

// --- fixture ---

type workerFixture struct {
	queue       *queue.JobQueue
	progress    *memory.ProgressStore
	transformer *fakeTransformer
	dispatcher  *fakeDispatcher
	files       *fakeFiles
	history     *fakeHistory
	worker      *Worker
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	f := &workerFixture{
		queue:       queue.NewJobQueue(),
		progress:    memory.NewProgressStore(),
		transformer: &fakeTransformer{},
		dispatcher:  &fakeDispatcher{},
		files:       &fakeFiles{dir: t.TempDir()},
		history:     newFakeHistory(),
	}
	f.worker = New(f.queue, f.progress, f.history, f.transformer, fakeRefs{}, f.dispatcher, f.files, logging.Nop())
	return f
}

// submit mirrors what intake does: record the source, then enqueue.
func (f *workerFixture) submit(t *testing.T, chatID int64) *model.Job {
	t.Helper()
	src := filepath.Join(f.files.dir, fmt.Sprintf("src_%d.jpg", chatID))
	if err := os.WriteFile(src, []byte("selfie"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	f.progress.StartSession(chatID)
	if !f.progress.RecordValidatedSource(chatID, src) {
		t.Fatalf("chat %d unexpectedly not ready", chatID)
	}
	job, err := model.NewJob(chatID, src, f.queue.Size())
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	f.queue.Enqueue(job)
	return job
}

func (f *workerFixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled from Run, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("worker did not stop after cancellation")
		}
	})
}

// --- tests ---

func TestWorker_ProcessesJobsInOrder(t *testing.T) {
	// --- Arrange ---
	f := newWorkerFixture(t)
	var jobs []*model.Job
	for chat := int64(1); chat <= 4; chat++ {
		jobs = append(jobs, f.submit(t, chat))
	}

	// --- Act ---
	f.start(t)
	f.history.wait(t, 4)

	// --- Assert ---
	got := f.transformer.sources()
	if len(got) != 4 {
		t.Fatalf("expected 4 transformer calls, got %d", len(got))
	}
	for i, job := range jobs {
		if got[i] != job.SourcePath {
			t.Errorf("call %d: expected %s, got %s", i, job.SourcePath, got[i])
		}
	}
	if m := f.transformer.maxActive.Load(); m != 1 {
		t.Errorf("expected at most one active transform, saw %d", m)
	}

	deliveries := f.dispatcher.all()
	for i, d := range deliveries {
		if d.failed {
			t.Errorf("delivery %d unexpectedly failed", i)
		}
		if d.chatID != int64(i+1) {
			t.Errorf("delivery %d went to chat %d", i, d.chatID)
		}
	}
	// everything was queued up front, so the first delivery sees three jobs behind it
	if deliveries[0].remaining != 3 || deliveries[3].remaining != 0 {
		t.Errorf("unexpected remaining counts: %+v", deliveries)
	}
}

func TestWorker_SingleFlightUnderConcurrentSubmitters(t *testing.T) {
	f := newWorkerFixture(t)
	f.start(t)

	var wg sync.WaitGroup
	for chat := int64(1); chat <= 10; chat++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			f.submit(t, chat)
		}(chat)
	}
	wg.Wait()
	f.history.wait(t, 10)

	if m := f.transformer.maxActive.Load(); m != 1 {
		t.Errorf("expected exactly one transform at a time, saw %d", m)
	}
	if len(f.transformer.sources()) != 10 {
		t.Errorf("expected 10 transforms, got %d", len(f.transformer.sources()))
	}
}

func TestWorker_Outcomes(t *testing.T) {
	t.Run("should report failure and keep going after a transform error", func(t *testing.T) {
		// --- Arrange ---
		f := newWorkerFixture(t)
		bad := f.submit(t, 1)
		good := f.submit(t, 2)
		f.transformer.run = func(src, ref, out string) error {
			if src == bad.SourcePath {
				return fmt.Errorf("exit 1: %w", domain.ErrTransformFailed)
			}
			return os.WriteFile(out, []byte("ok"), 0o644)
		}

		// --- Act ---
		f.start(t)
		f.history.wait(t, 2)

		// --- Assert ---
		d := f.dispatcher.all()
		if len(d) != 2 || !d[0].failed || d[0].chatID != 1 || d[1].failed || d[1].chatID != 2 {
			t.Fatalf("unexpected deliveries: %+v", d)
		}
		recs := f.history.all()
		if recs[0].Outcome != model.JobOutcomeTransformFailed || recs[0].Error == "" {
			t.Errorf("expected transform_failed with error, got %+v", recs[0])
		}
		if recs[1].Outcome != model.JobOutcomeSucceeded {
			t.Errorf("expected succeeded, got %s", recs[1].Outcome)
		}
		for _, chat := range []int64{1, 2} {
			if _, ok := f.progress.Get(chat); ok {
				t.Errorf("expected progress for chat %d to be cleared", chat)
			}
		}
		if !f.files.wasRemoved(good.SourcePath) || !f.files.wasRemoved(bad.SourcePath) {
			t.Error("expected both source files to be cleaned up")
		}
	})

	t.Run("should treat a missing output file as a failure", func(t *testing.T) {
		f := newWorkerFixture(t)
		f.submit(t, 7)
		f.transformer.run = func(src, ref, out string) error { return nil }

		f.start(t)
		f.history.wait(t, 1)

		d := f.dispatcher.all()
		if len(d) != 1 || !d[0].failed {
			t.Fatalf("expected a failure notice, got %+v", d)
		}
		rec := f.history.all()[0]
		if rec.Outcome != model.JobOutcomeTransformFailed || rec.Error != domain.ErrOutputMissing.Error() {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("should recover from a panic and process the next job", func(t *testing.T) {
		f := newWorkerFixture(t)
		f.submit(t, 1)
		f.submit(t, 2)
		var once sync.Once
		f.transformer.run = func(src, ref, out string) error {
			panicked := false
			once.Do(func() { panicked = true })
			if panicked {
				panic("boom")
			}
			return os.WriteFile(out, []byte("ok"), 0o644)
		}

		f.start(t)
		f.history.wait(t, 2)

		recs := f.history.all()
		if recs[0].Outcome != model.JobOutcomePanicked || recs[0].Error != "boom" {
			t.Errorf("expected panicked record, got %+v", recs[0])
		}
		if recs[1].Outcome != model.JobOutcomeSucceeded {
			t.Errorf("expected the next job to succeed, got %s", recs[1].Outcome)
		}
		if _, ok := f.progress.Get(1); ok {
			t.Error("expected progress cleared after panic")
		}
	})

	t.Run("should record a delivery failure and still clean up", func(t *testing.T) {
		f := newWorkerFixture(t)
		job := f.submit(t, 3)
		f.dispatcher.resultErr = errors.New("telegram down")

		f.start(t)
		f.history.wait(t, 1)

		rec := f.history.all()[0]
		if rec.Outcome != model.JobOutcomeDeliveryFailed {
			t.Errorf("expected delivery_failed, got %s", rec.Outcome)
		}
		if _, ok := f.progress.Get(3); ok {
			t.Error("expected progress cleared after delivery failure")
		}
		if !f.files.wasRemoved(job.SourcePath) {
			t.Error("expected source cleanup")
		}
		out := f.files.OutputPath(3, rec.JobID)
		if !f.files.wasRemoved(out) || f.files.Exists(out) {
			t.Error("expected output cleanup")
		}
	})
}

func TestWorker_AssignsUniqueJobIDs(t *testing.T) {
	f := newWorkerFixture(t)
	for chat := int64(1); chat <= 3; chat++ {
		f.submit(t, chat)
	}
	f.start(t)
	f.history.wait(t, 3)

	seen := map[string]bool{}
	for _, rec := range f.history.all() {
		if rec.JobID == "" || seen[rec.JobID] {
			t.Errorf("expected unique non-empty job id, got %q", rec.JobID)
		}
		seen[rec.JobID] = true
		if rec.StartedAt.IsZero() || rec.FinishedAt.Before(rec.StartedAt) {
			t.Errorf("unexpected timestamps: %+v", rec)
		}
	}
}

func TestWorker_State(t *testing.T) {
	f := newWorkerFixture(t)
	if f.worker.State() != StateIdle {
		t.Fatalf("expected idle before Run, got %s", f.worker.State())
	}

	release := make(chan struct{})
	entered := make(chan struct{})
	f.transformer.run = func(src, ref, out string) error {
		close(entered)
		<-release
		return os.WriteFile(out, []byte("ok"), 0o644)
	}
	f.submit(t, 1)
	f.start(t)

	<-entered
	if s := f.worker.State(); s != StateProcessing {
		t.Errorf("expected processing during transform, got %s", s)
	}
	close(release)
	f.history.wait(t, 1)

	deadline := time.Now().Add(2 * time.Second)
	for f.worker.State() != StateDequeuing && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s := f.worker.State(); s != StateDequeuing {
		t.Errorf("expected dequeuing on an empty queue, got %s", s)
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateIdle:       "idle",
		StateDequeuing:  "dequeuing",
		StateProcessing: "processing",
		StateDelivering: "delivering",
		State(42):       "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
