package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtroode/electrobill-session/internal/cli"
	"github.com/dtroode/electrobill-session/internal/config"
	"github.com/dtroode/electrobill-session/internal/logger"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Printf("failed to parse config: %v", err)
		return 1
	}
	logger := logger.New(cfg.LogLevel)

	app := cli.NewApp(cfg, logger)
	root := cli.NewRootCommand(app)
	root.Version = fmt.Sprintf("%s (built %s, commit %s)", buildVersion, buildDate, buildCommit)

	err = root.ExecuteContext(ctx)
	if closeErr := app.Close(); closeErr != nil {
		logger.Error("failed to release resources", "error", closeErr)
	}
	if err != nil {
		if !errors.Is(err, cli.ErrNotPermitted) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
