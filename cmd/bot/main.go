package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"gorilla-voice-bot/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	InitLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		slog.Error("Failed to start application", "error", err)
		shutdown(app)
		os.Exit(1)
	}

	WaitForShutdown()
	shutdown(app)
}

func shutdown(app *App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		slog.Error("Application shutdown error", "error", err)
	}
}
