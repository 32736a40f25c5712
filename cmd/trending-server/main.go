// Command trending-server exposes one feed session over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/gh-trending-feed/internal/config"
	"github.com/Sternrassler/gh-trending-feed/pkg/logging"
	"github.com/Sternrassler/gh-trending-feed/pkg/metrics"
	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/search"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logging.Setup(cfg.LoggingConfig(os.Stderr))
	logger := logging.NewLogger("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if opts := cfg.Redis.Options(); opts != nil {
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	searchClient, err := search.New(cfg.SearchClientConfig(redisClient))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create search client")
	}
	defer searchClient.Close()

	ctrl, err := pager.New(searchClient, cfg.ControllerConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create controller")
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      newRouter(newServer(ctx, ctrl, searchClient, logger)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Search.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("mode", string(ctrl.Mode())).
			Str("user_agent", cfg.Search.UserAgent).
			Msg("Starting trending server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

// pinger reports whether the backing store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	// ctx bounds loads; it outlives single requests so a dropped client
	// does not cancel a load other clients are waiting on.
	ctx    context.Context
	ctrl   *pager.Controller
	store  pinger
	logger zerolog.Logger
}

func newServer(ctx context.Context, ctrl *pager.Controller, store pinger, logger zerolog.Logger) *server {
	return &server{ctx: ctx, ctrl: ctrl, store: store, logger: logger}
}

// loadResponse is the body of start, next and prev.
type loadResponse struct {
	Issued bool            `json:"issued"`
	State  pager.LoadState `json:"state"`
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", s.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.stateHandler)
		r.Post("/start", s.loadHandler(s.ctrl.Start))
		r.Post("/next", s.loadHandler(s.ctrl.LoadNext))
		r.Post("/prev", s.loadHandler(s.ctrl.LoadPrev))
		r.Post("/reset", s.resetHandler)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) stateHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.State())
}

// loadHandler runs load to completion. A load rejected by a guard answers
// 409 with the unchanged state.
func (s *server) loadHandler(load func(context.Context) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issued := load(s.ctx)

		status := http.StatusOK
		if !issued {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, loadResponse{Issued: issued, State: s.ctrl.State()})
	}
}

func (s *server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	s.writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}
