// Command galaxy-server serves generated galaxies over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/litescript/ls-galaxy/internal/cache"
	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/logging"
	"github.com/litescript/ls-galaxy/internal/server"
	"github.com/litescript/ls-galaxy/internal/store"
	"github.com/litescript/ls-galaxy/internal/version"
)

// memoryCacheEntries bounds the fallback cache when Redis is disabled;
// cfg.Redis.MemoryMaxBytes bounds its size.
const memoryCacheEntries = 64

func main() {
	envFile := flag.String("env", ".env", "Environment file to load if present")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}
	logger.Info("galaxy-server v%s starting", version.Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	var c cache.Cache
	rdb, err := cache.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	if rdb != nil {
		c = rdb
	} else {
		c = cache.NewMemory(cfg.Redis.TTL, memoryCacheEntries, cfg.Redis.MemoryMaxBytes)
	}
	defer c.Close()

	var s store.Store
	pg, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if pg != nil {
		s = pg
	} else {
		s = store.NewMemory()
	}
	defer s.Close()

	return server.New(cfg, c, s, logger).Run(ctx)
}
