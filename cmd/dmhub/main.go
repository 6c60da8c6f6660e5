package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/avezina/dmhub/internal/config"
	"github.com/avezina/dmhub/internal/httpapi"
	"github.com/avezina/dmhub/internal/narrator"
	"github.com/avezina/dmhub/internal/observability"
	"github.com/avezina/dmhub/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = uuid.NewString()
		log.Printf("DMHUB_API_KEY not set, generated one for this run: %s", cfg.APIKey)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx := context.Background()
	st, err := store.New(ctx, cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.Close()

	nar, err := narrator.New(narrator.Config{
		Mode:   cfg.NarratorMode,
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.NarratorModel,
	})
	if err != nil {
		log.Fatalf("narrator init failed: %v", err)
	}

	api := httpapi.New(cfg, st, nar, httpapi.NewHub(metrics), metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
