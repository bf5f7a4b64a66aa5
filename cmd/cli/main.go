package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authclient/internal/buildinfo"
	"github.com/dmitrijs2005/authclient/internal/client/cli"
	"github.com/dmitrijs2005/authclient/internal/client/config"
	"github.com/dmitrijs2005/authclient/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
	}
}
