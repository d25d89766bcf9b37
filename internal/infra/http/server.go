package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-faceswap-bot/internal/config"
	"telegram-faceswap-bot/internal/domain/model"
	"telegram-faceswap-bot/internal/domain/ports/repository"
	"telegram-faceswap-bot/internal/infra/logging"
	"telegram-faceswap-bot/internal/infra/metrics"
	"telegram-faceswap-bot/internal/infra/worker"
)

type QueueSizer interface {
	Size() int
}

type WorkerState interface {
	State() worker.State
}

// Server is the admin endpoint: health, Prometheus metrics and a plain-text queue view.
type Server struct {
	cfg     config.AdminConfig
	queue   QueueSizer
	worker  WorkerState
	history repository.JobHistoryRepository
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(
	cfg config.AdminConfig,
	queue QueueSizer,
	state WorkerState,
	history repository.JobHistoryRepository,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		cfg:     cfg,
		queue:   queue,
		worker:  state,
		history: history,
		log:     logging.Component(logger, "AdminHTTP"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), RequestLog(s.log))

	r.Get("/healthz", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/queue", s.handleQueue)
	return r
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info().Int("port", s.cfg.Port).Msg("admin HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	fmt.Fprintf(&b, "queue_depth %d\n", s.queue.Size())
	fmt.Fprintf(&b, "worker_state %s\n", s.worker.State())

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		counts, err := s.history.CountByOutcome(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("job history unavailable")
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "jobs_%s %d\n", k, counts[model.JobOutcome(k)])
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
