package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/airbureau/bybit-data/internal/alert"
	"github.com/airbureau/bybit-data/internal/catalog"
	"github.com/airbureau/bybit-data/internal/config"
	"github.com/airbureau/bybit-data/internal/model"
	"github.com/airbureau/bybit-data/internal/pipeline"
	"github.com/airbureau/bybit-data/internal/store"
	"github.com/airbureau/bybit-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/streamer.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	runID := uuid.New()

	logger.Info("starting streamer",
		"version", version.Version,
		"commit", version.Commit,
		"run_id", runID,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"rest_url", cfg.Exchange.RestURL,
		"segments", cfg.Exchange.Segments,
	)

	// Run until interrupted
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Alert emitter (no process-wide singleton; injected everywhere)
	var alerts alert.Emitter = alert.Nop{}
	if cfg.Alerts.Telegram.Token != "" {
		tg, err := alert.NewTelegram(cfg.Alerts.Telegram.Token, cfg.Alerts.Telegram.ChatIDs, logger)
		if err != nil {
			logger.Error("failed to create telegram emitter", "error", err)
			os.Exit(1)
		}
		alerts = tg
	}

	// Connect to ClickHouse, trying candidate profiles in order
	logger.Info("connecting to clickhouse", "profiles", len(cfg.ClickHouse.Profiles))
	st, err := store.Connect(ctx, cfg.ClickHouse.Profiles, logger)
	if err != nil {
		logger.Error("failed to connect to clickhouse", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Catalog client for symbol discovery
	symbols := catalog.NewClient(
		cfg.Exchange.RestURL,
		cfg.Exchange.QuoteCoin,
		catalog.WithLogger(logger),
		catalog.WithTimeout(30*time.Second),
		catalog.WithRetries(3, time.Second),
	)

	// One pipeline per segment; spot and linear stream independently
	pipelines := make([]*pipeline.Pipeline, 0, len(cfg.Exchange.Segments))
	for _, name := range cfg.Exchange.Segments {
		segment, err := model.ParseSegment(name)
		if err != nil {
			logger.Error("invalid segment", "error", err)
			os.Exit(1)
		}
		p := pipeline.New(pipeline.FromStreamerConfig(cfg, segment), symbols, st, alerts, logger)
		pipelines = append(pipelines, p)
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(st, pipelines),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	alerts.Notify("streamer", fmt.Sprintf("streamer %s started (run %s)", cfg.Instance.ID, runID))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pipelines {
		g.Go(func() error {
			return p.Run(gctx)
		})
	}

	err = g.Wait()

	// Graceful shutdown of health server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	if err != nil {
		logger.Error("streamer failed", "error", err)
		alerts.Notify("streamer", fmt.Sprintf("streamer %s failed: %v", cfg.Instance.ID, err))
		os.Exit(1)
	}

	logger.Info("streamer stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(st *store.Client, pipelines []*pipeline.Pipeline) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check store
		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["clickhouse"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["clickhouse"] = "connected"
		}

		// Per-segment pipeline state
		stats := make([]pipeline.Stats, 0, len(pipelines))
		streaming := 0
		for _, p := range pipelines {
			s := p.Stats()
			stats = append(stats, s)
			if s.State == "streaming" {
				streaming++
			}
		}
		health.Components["pipelines"] = stats
		if streaming < len(pipelines) && health.Status == "healthy" {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
