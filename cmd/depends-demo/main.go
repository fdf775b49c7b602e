// Command depends-demo serves a small chi application whose handlers take
// injected dependencies.
//
// Usage:
//
//	depends-demo [-env file] [-graph]
//
// With -graph the dependency graph is written to stdout in DOT format and
// the server does not start.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junioryono/depends/internal/config"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load")
	graph := flag.Bool("graph", false, "print the dependency graph and exit")
	flag.Parse()

	if err := run(*envFile, *graph); err != nil {
		slog.Error("depends-demo failed", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, graph bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	r, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	if graph {
		return r.Injector().WriteGraph(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "app", cfg.App.Name, "env", cfg.App.Env, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
