package main

import (
	"context"
	"log/slog"
	"os"

	// Trust roots for minimal container images without a CA bundle.
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/fmuoria/career-bot/internal/cli"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := cli.Execute(context.Background(), logger); err != nil {
		logger.Error("career-bot failed", "error", err)
		os.Exit(1)
	}
}
