//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		cfg, err := Parse([]byte("bot:\n  token: abc\ntransformer:\n  binary: python\n"), false)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if cfg.Bot.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", cfg.Bot.Workers)
		}
		if cfg.Storage.SourceDir != "source" || cfg.Storage.OutputDir != "output" || cfg.Storage.TargetDir != "target" {
			t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
		}
		if cfg.Transformer.FrameProcessor != "face_swapper" {
			t.Errorf("expected face_swapper, got %q", cfg.Transformer.FrameProcessor)
		}
		if cfg.Bot.RateLimitWindow != time.Minute {
			t.Errorf("expected 1m window, got %s", cfg.Bot.RateLimitWindow)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
	})

	t.Run("should require a bot token", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		if _, err := Parse([]byte("transformer:\n  binary: python\n"), false); err == nil {
			t.Fatal("expected error for missing token")
		}
	})

	t.Run("should require a transformer binary", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		if _, err := Parse([]byte("bot:\n  token: abc\n"), false); err == nil {
			t.Fatal("expected error for missing transformer binary")
		}
	})

	t.Run("should let the environment override the token", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
		cfg, err := Parse([]byte("bot:\n  token: from-file\ntransformer:\n  binary: python\n"), true)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if cfg.Bot.Token != "from-env" {
			t.Errorf("expected token from env, got %q", cfg.Bot.Token)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev mode to be carried into runtime config")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`bot:
  token: abc
  rate_limit: 5
  rate_limit_window: 30s
transformer:
  binary: python
  args: ["run.py"]
storage:
  source_dir: /tmp/src
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Bot.RateLimit != 5 || cfg.Bot.RateLimitWindow != 30*time.Second {
		t.Errorf("unexpected rate limit settings: %d / %s", cfg.Bot.RateLimit, cfg.Bot.RateLimitWindow)
	}
	if len(cfg.Transformer.Args) != 1 || cfg.Transformer.Args[0] != "run.py" {
		t.Errorf("unexpected transformer args: %v", cfg.Transformer.Args)
	}
	if cfg.Storage.SourceDir != "/tmp/src" {
		t.Errorf("expected source dir override, got %q", cfg.Storage.SourceDir)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml"), false); err == nil {
		t.Fatal("expected error for missing file")
	}
}
