package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/repository"
)

var _ repository.JobHistoryRepository = (*jobHistoryRepo)(nil)

const jobHistorySchema = `
CREATE TABLE IF NOT EXISTS job_history (
    job_id      TEXT PRIMARY KEY,
    chat_id     BIGINT NOT NULL,
    outcome     TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    enqueued_at TIMESTAMPTZ NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS job_history_chat_id_idx ON job_history (chat_id);`

type jobHistoryRepo struct {
	db executor
}

func NewJobHistoryRepo(pool *pgxpool.Pool) repository.JobHistoryRepository {
	return &jobHistoryRepo{db: pool}
}

// EnsureJobHistorySchema creates the audit table when missing.
func EnsureJobHistorySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, jobHistorySchema); err != nil {
		return fmt.Errorf("apply job_history schema: %w", err)
	}
	return nil
}

func (r *jobHistoryRepo) Save(ctx context.Context, rec *model.JobRecord) error {
	const q = `
INSERT INTO job_history (job_id, chat_id, outcome, error, enqueued_at, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (job_id) DO NOTHING`

	_, err := r.db.Exec(ctx, q,
		rec.JobID, rec.ChatID, string(rec.Outcome), rec.Error,
		rec.EnqueuedAt, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job_history: %w", err)
	}
	return nil
}

func (r *jobHistoryRepo) CountByOutcome(ctx context.Context) (map[model.JobOutcome]int, error) {
	const q = `SELECT outcome, COUNT(*) FROM job_history GROUP BY outcome`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query job_history: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobOutcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan job_history: %w", err)
		}
		counts[model.JobOutcome(outcome)] = n
	}
	return counts, rows.Err()
}
