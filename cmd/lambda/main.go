package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"scam-honeypot/internal/app"
	"scam-honeypot/internal/config"
	"scam-honeypot/internal/logging"
)

func main() {
	ctx := context.Background()
	logging.Preinit(os.Stderr)

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// ---- Service ----
	svc, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build service", "err", err)
		os.Exit(1)
	}

	// Warm execution environments keep state between invocations, so expired
	// conversations still need sweeping.
	go svc.Store.RunSweeper(ctx, cfg.SweepInterval)

	lambda.Start(svc.Handler.Handle)
}
