// Package main serves the news reader as a JSON HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tzidis/newsapp/internal/app"
	"github.com/tzidis/newsapp/internal/config"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorObj("newsapi failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
	log.Info("newsapi stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srvCfg := server.Config{
		Port: cfg.Server.Port,
		NewSearcher: func() (server.Searcher, error) {
			p, err := a.NewPresenter(nil)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Connectivity: a.Checker,
		Log:          log,
	}
	if a.History != nil {
		srvCfg.History = a.History
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
