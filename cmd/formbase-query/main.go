package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formbase/internal/api"
	"formbase/internal/config"
	"formbase/internal/logging"
	"formbase/internal/notify"
	"formbase/internal/pubsub"
	pubsubnats "formbase/internal/pubsub/nats"
	"formbase/internal/query"
	"formbase/internal/storage"
	"formbase/internal/storage/mongo"
	"formbase/internal/storage/postgres"

	natsgo "github.com/nats-io/nats.go"
)

func main() {
	configPath := flag.String("config", "config/config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Initialize(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage backend", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("Error closing storage backend", "error", err)
		}
	}()
	slog.Info("Storage backend ready", "backend", cfg.Storage.Backend)

	engine := query.NewEngine(store)

	if cfg.Notify.Enabled {
		nc, dispatcher, err := newDispatcher(cfg.Notify)
		if err != nil {
			slog.Error("Failed to initialize notifications", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		engine.WithNotifier(dispatcher)
		slog.Info("Notifications enabled",
			"url", cfg.Notify.NATS.URL, "stream", cfg.Notify.NATS.Stream, "rules", len(cfg.Notify.Rules))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(engine),
	}

	go func() {
		slog.Info("Starting query service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.ResponseStore, error) {
	switch cfg.Backend {
	case "mongo":
		return mongo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	case "postgres":
		store, err := postgres.NewStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

func newDispatcher(cfg config.NotifyConfig) (*natsgo.Conn, *notify.Dispatcher, error) {
	nc, js, err := pubsubnats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := pubsubnats.NewPublisher(js, pubsub.PublisherOptions{
		StreamName:    cfg.NATS.Stream,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
		Storage:       pubsub.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	evaluator, err := notify.NewEvaluator()
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	dispatcher := notify.NewDispatcher(evaluator, publisher, slog.Default())
	dispatcher.SetRules(cfg.Rules)
	return nc, dispatcher, nil
}
