package memory

import (
	"sync"

	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/repository"
)

var _ repository.ProgressStore = (*ProgressStore)(nil)

const shardCount = 32

type progressShard struct {
	mu      sync.Mutex
	records map[int64]model.UserProgress
}

// ProgressStore keeps per-chat intake progress in memory. Chats are spread over
// independently locked shards, so two chats only contend when they hash together.
type ProgressStore struct {
	shards [shardCount]*progressShard
}

func NewProgressStore() *ProgressStore {
	s := &ProgressStore{}
	for i := range s.shards {
		s.shards[i] = &progressShard{records: make(map[int64]model.UserProgress)}
	}
	return s
}

func (s *ProgressStore) shard(chatID int64) *progressShard {
	return s.shards[uint64(chatID)%shardCount]
}

func (s *ProgressStore) StartSession(chatID int64) string {
	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[chatID]
	if ok && rec.Queued {
		// the queued job owns this source path
		return ""
	}
	sh.records[chatID] = model.UserProgress{}
	return rec.SourcePath
}

func (s *ProgressStore) RecordValidatedSource(chatID int64, path string) bool {
	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec := sh.records[chatID]
	if rec.Queued {
		return false
	}
	rec.SourcePath = path
	if rec.Ready() {
		rec.Queued = true
	}
	sh.records[chatID] = rec
	return rec.Queued
}

func (s *ProgressStore) Get(chatID int64) (model.UserProgress, bool) {
	sh := s.shard(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[chatID]
	return rec, ok
}

func (s *ProgressStore) Clear(chatID int64) {
	sh := s.shard(chatID)
	sh.mu.Lock()
	delete(sh.records, chatID)
	sh.mu.Unlock()
}

// Len counts the chats that currently hold a record.
func (s *ProgressStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.records)
		sh.mu.Unlock()
	}
	return n
}
