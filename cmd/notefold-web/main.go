package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/config"
	"github.com/notefold/notefold/internal/graph"
	"github.com/notefold/notefold/internal/models"
	"github.com/notefold/notefold/internal/notify"
	"github.com/notefold/notefold/internal/server"
	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/internal/storage/postgres"
	"github.com/notefold/notefold/internal/storage/sqlite"
)

func main() {
	// Load .env before anything reads the environment. Missing file is fine;
	// credentials may come from the real environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := catalog.NewProbe()
	manager := models.NewManager(store, probe, nil)
	registry := models.NewRegistry(store, probe, manager)
	defaults := models.NewDefaultsService(store)

	resolver := func(ctx context.Context) (graph.Embedder, error) {
		client, err := manager.ResolveEmbedder(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	graphSvc := graph.NewService(store, resolver)

	// Rotated credentials invalidate every cached client so the next
	// resolution picks up the new keys.
	watcher := notify.NewCredentialWatcher(cfg.Watch.EnvFile, func() {
		log.Println("Credentials changed, flushing model client cache")
		manager.Clear()
	})
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: credential watching disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	addr, _, err := server.Start(ctx, cfg, server.Services{
		Registry: registry,
		Defaults: defaults,
		Probe:    probe,
		Graph:    graphSvc,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Notefold API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStore builds the persistence layer selected by the configuration.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		return sqlite.NewStore(filepath.Join(cfg.Storage.DataPath, "notefold.db"))
	}
}
