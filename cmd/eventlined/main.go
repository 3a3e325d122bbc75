package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikaelhatanpaa/eventline/internal/config"
	"github.com/mikaelhatanpaa/eventline/internal/daemon"
	"github.com/mikaelhatanpaa/eventline/internal/db"
)

func main() {
	cfg := config.DefaultConfig()
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP listen address for eventlined")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite path")
	flag.IntVar(&cfg.DefaultPageSize, "page-size", cfg.DefaultPageSize, "default catalog page size")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close() //nolint:errcheck

	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		fatal(err)
	}

	srv := daemon.NewServer(cfg, store)
	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		fatal(err)
	}
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "eventlined: %v\n", err)
	os.Exit(1)
}
