package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"scam-honeypot/handler"
	"scam-honeypot/internal/app"
	"scam-honeypot/internal/config"
	"scam-honeypot/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Preinit(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	svc, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build service", "err", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, svc); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, svc *app.App) error {
	server := handler.NewApp(svc.Handler, cfg.RateLimitWindow, cfg.RateLimitMaxRequests)
	addr := ":" + strconv.Itoa(cfg.Port)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("listening", "addr", addr, "provider", cfg.Provider)
		return server.Listen(addr)
	})

	g.Go(func() error {
		svc.Store.RunSweeper(ctx, cfg.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
