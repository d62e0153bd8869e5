package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/credvault/credvault/internal/buildinfo"
	"github.com/credvault/credvault/internal/cli"
	"github.com/credvault/credvault/internal/config"
	"github.com/credvault/credvault/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, cli.ErrAlreadyRunning) {
			fmt.Println("Another credvault instance is already running.")
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
