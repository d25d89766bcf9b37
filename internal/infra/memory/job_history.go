package memory

import (
	"context"
	"sync"

	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/repository"
)

var _ repository.JobHistoryRepository = (*JobHistory)(nil)

// JobHistory is the fallback audit log used when no database is configured.
// It keeps outcome totals and the most recent records only.
type JobHistory struct {
	mu     sync.Mutex
	counts map[model.JobOutcome]int
	recent []model.JobRecord
	limit  int
}

func NewJobHistory(limit int) *JobHistory {
	if limit <= 0 {
		limit = 100
	}
	return &JobHistory{counts: make(map[model.JobOutcome]int), limit: limit}
}

func (h *JobHistory) Save(ctx context.Context, rec *model.JobRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[rec.Outcome]++
	h.recent = append(h.recent, *rec)
	if len(h.recent) > h.limit {
		h.recent = h.recent[len(h.recent)-h.limit:]
	}
	return nil
}

func (h *JobHistory) CountByOutcome(ctx context.Context) (map[model.JobOutcome]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[model.JobOutcome]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out, nil
}

// Recent returns up to the last limit records, oldest first.
func (h *JobHistory) Recent() []model.JobRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.JobRecord(nil), h.recent...)
}
