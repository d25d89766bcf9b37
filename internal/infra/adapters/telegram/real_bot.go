package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-faceswap-bot/internal/config"
	"telegram-faceswap-bot/internal/domain/ports/adapter"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/metrics"
	red "telegram-faceswap-bot/internal/infra/redis"
)

var _ adapter.Messenger = (*RealTelegramBotAdapter)(nil)

// Facade is the application surface the adapter forwards updates to.
type Facade interface {
	HandleStart(ctx context.Context, chatID int64) (string, error)
	HandleQueue(ctx context.Context) (string, error)
	HandleHelp(ctx context.Context) (string, error)
	HandlePhoto(ctx context.Context, chatID int64, imagePath string) (string, error)
	HandleDownloadFailure() string
	HandleRateLimited() string
}

// SourcePaths hands out a unique destination for each downloaded photo.
type SourcePaths interface {
	NewSourcePath(chatID int64) string
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// botAPI is the subset of *tgbotapi.BotAPI in use; tests substitute a fake.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// RealTelegramBotAdapter long-polls updates and delegates to the facade.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	facade      Facade
	sources     SourcePaths
	rateLimiter RateLimiter
	httpClient  *http.Client
	log         *zerolog.Logger

	updateWorkers int
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade Facade,
	sources SourcePaths,
	rateLimiter RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return newAdapter(bot, cfg, facade, sources, rateLimiter, logger)
}

func newAdapter(
	bot botAPI,
	cfg *config.BotConfig,
	facade Facade,
	sources SourcePaths,
	rateLimiter RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if sources == nil {
		return nil, errors.New("source paths are nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		sources:       sources,
		rateLimiter:   rateLimiter,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		log:           logging.Component(logger, "TelegramBot"),
		updateWorkers: workers,
	}, nil
}

// StartPolling fans updates out to a fixed set of handlers until ctx is cancelled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i)
	}

	r.log.Info().Int("workers", r.updateWorkers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				close(updateChan)
				wg.Wait()
				return errors.New("telegram updates channel closed")
			}
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		handler, ok := r.commandRoutes()[msg.Command()]
		if !ok {
			return nil
		}
		metrics.IncTelegramCommand("/" + msg.Command())
		if !r.allow(ctx, chatID, "/"+msg.Command()) {
			return r.SendText(ctx, chatID, r.facade.HandleRateLimited())
		}
		return handler(ctx, msg)
	}

	if len(msg.Photo) > 0 {
		if !r.allow(ctx, chatID, "photo") {
			return r.SendText(ctx, chatID, r.facade.HandleRateLimited())
		}
		return r.handlePhoto(ctx, msg)
	}
	return nil
}

// allow applies the per-chat command budget. Limiter errors fail open.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, chatID int64, command string) bool {
	if r.rateLimiter == nil || r.cfg.RateLimit <= 0 {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(chatID, command), r.cfg.RateLimit, r.cfg.RateLimitWindow)
	if err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("rate limit check failed")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
	}
	return allowed
}

func (r *RealTelegramBotAdapter) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	log := logging.With(logging.WithChatID(ctx, chatID), r.log)

	photo := largestPhoto(msg.Photo)
	path := r.sources.NewSourcePath(chatID)
	if err := r.downloadFile(ctx, photo.FileID, path); err != nil {
		log.Error().Err(err).Str("file_id", photo.FileID).Msg("photo download failed")
		metrics.IncImageReceived("download_failed")
		return r.SendText(ctx, chatID, r.facade.HandleDownloadFailure())
	}

	text, err := r.facade.HandlePhoto(ctx, chatID, path)
	if err != nil {
		log.Error().Err(err).Msg("photo submission failed")
	}
	return r.SendText(ctx, chatID, text)
}

// largestPhoto picks the highest resolution variant Telegram offers.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func (r *RealTelegramBotAdapter) downloadFile(ctx context.Context, fileID, dst string) error {
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// SendText implements adapter.Messenger.
func (r *RealTelegramBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendPhoto uploads the file at path.
func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, chatID int64, path string, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	_, err := r.bot.Send(photo)
	return err
}
