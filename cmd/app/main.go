// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-faceswap-bot/internal/application"
	"telegram-faceswap-bot/internal/config"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
	"telegram-faceswap-bot/internal/domain/ports/repository"
	tele "telegram-faceswap-bot/internal/infra/adapters/telegram"
	"telegram-faceswap-bot/internal/infra/adapters/transformer"
	"telegram-faceswap-bot/internal/infra/adapters/validator"
	pg "telegram-faceswap-bot/internal/infra/db/postgres"
	httpapi "telegram-faceswap-bot/internal/infra/http"
	"telegram-faceswap-bot/internal/infra/i18n"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/memory"
	"telegram-faceswap-bot/internal/infra/metrics"
	"telegram-faceswap-bot/internal/infra/queue"
	red "telegram-faceswap-bot/internal/infra/redis"
	"telegram-faceswap-bot/internal/infra/storage"
	"telegram-faceswap-bot/internal/infra/worker"
	"telegram-faceswap-bot/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()

	// ---- Workspace ----
	ws := storage.NewWorkspace(cfg.Storage, logger)
	if err := ws.Prepare(); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	refs, err := storage.LoadReferencePool(cfg.Storage.TargetDir)
	if err != nil {
		return fmt.Errorf("reference images in %s: %w", cfg.Storage.TargetDir, err)
	}
	logger.Info().Int("references", refs.Len()).Msg("reference pool loaded")

	// ---- Postgres (optional) ----
	var history repository.JobHistoryRepository = memory.NewJobHistory(100)
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := pg.EnsureJobHistorySchema(ctx, pool); err != nil {
			return err
		}
		history = pg.NewJobHistoryRepo(pool)
		logger.Info().Msg("job history: postgres")
	}

	// ---- Redis (optional) ----
	var limiter tele.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		logger.Info().Int("limit", cfg.Bot.RateLimit).Dur("window", cfg.Bot.RateLimitWindow).Msg("rate limiting: redis")
	}

	// ---- Image pipeline ----
	validators := validator.Chain{validator.NewDecodeValidator(cfg.Validator.MinWidth, cfg.Validator.MinHeight)}
	if cfg.Validator.FaceDetectBinary != "" {
		validators = append(validators, validator.NewCommandValidator(cfg.Validator.FaceDetectBinary, cfg.Validator.FaceDetectArgs))
	}
	var imageValidator adapter.ImageValidator = validators
	swapper := transformer.NewCLI(cfg.Transformer)

	// ---- Core ----
	jobs := queue.NewJobQueue()
	progress := memory.NewProgressStore()
	intakeUC := usecase.NewIntakeUseCase(progress, jobs, imageValidator, ws, logger)

	// ---- Facade ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	facade := application.NewBotFacade(intakeUC, tr)

	// ---- Telegram ----
	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot.mode not implemented; falling back to polling")
	}
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, ws, limiter, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if err := botAdapter.SetMenuCommands(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to set menu commands")
	}
	dispatcher := application.NewDispatcher(botAdapter, tr)

	// ---- Worker ----
	w := worker.New(jobs, progress, history, swapper, refs, dispatcher, ws, logger)

	// ---- Admin HTTP ----
	srv := httpapi.NewServer(cfg.Admin, jobs, w, history, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return botAdapter.StartPolling(gctx) })
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info().Msg("bot started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
