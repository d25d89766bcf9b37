package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-faceswap-bot/internal/config"
)

// Workspace owns the on-disk layout: uploaded selfies go to SourceDir, transformer
// results to OutputDir and reference images live in TargetDir.
type Workspace struct {
	SourceDir string
	OutputDir string
	TargetDir string
	log       *zerolog.Logger
}

func NewWorkspace(cfg config.StorageConfig, logger *zerolog.Logger) *Workspace {
	l := logger.With().Str("component", "Workspace").Logger()
	return &Workspace{
		SourceDir: cfg.SourceDir,
		OutputDir: cfg.OutputDir,
		TargetDir: cfg.TargetDir,
		log:       &l,
	}
}

// Prepare creates the directories and removes files left behind by a previous run.
// Queue state is not persisted, so nothing in source/ or output/ can still be owned.
func (w *Workspace) Prepare() error {
	for _, dir := range []string{w.SourceDir, w.OutputDir, w.TargetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	for _, dir := range []string{w.SourceDir, w.OutputDir} {
		n, err := purgeFiles(dir)
		if err != nil {
			return fmt.Errorf("purge %s: %w", dir, err)
		}
		if n > 0 {
			w.log.Info().Str("dir", dir).Int("removed", n).Msg("purged stale files")
		}
	}
	return nil
}

func purgeFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, err
		}
		n++
	}
	return n, nil
}

// NewSourcePath returns a fresh, collision-free path for an upload from chatID.
func (w *Workspace) NewSourcePath(chatID int64) string {
	return filepath.Join(w.SourceDir, fmt.Sprintf("%d_%s.jpg", chatID, uuid.NewString()))
}

// OutputPath is namespaced by job id so concurrent jobs never share a file.
func (w *Workspace) OutputPath(chatID int64, jobID string) string {
	return filepath.Join(w.OutputDir, fmt.Sprintf("%d_%s.jpg", chatID, jobID))
}

// Cleanup removes every path. Missing files are ignored and other failures are
// only logged, so calling it twice is harmless.
func (w *Workspace) Cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.log.Warn().Err(err).Str("path", p).Msg("cleanup failed")
		}
	}
}

// Exists reports whether path is an existing regular file.
func (w *Workspace) Exists(path string) bool { return fileExists(path) }

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
