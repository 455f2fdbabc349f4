// Package main is the terminal news reader: it lists the latest Guardian articles, or the results
// for the search terms given as arguments.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/tzidis/newsapp/internal/app"
	"github.com/tzidis/newsapp/internal/config"
	"github.com/tzidis/newsapp/internal/history"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/internal/presenter"
)

const defaultHistoryLines = 10

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	showHistory := flag.Bool("history", false, "Print recent searches and exit")
	width := flag.Int("width", 0, "Line width (default: $COLUMNS, 80 on a terminal, unlimited when piped)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [search terms...]\n", os.Args[0])
		flag.PrintDefaults()
	}
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

	if err := run(ctx, cfg, log, *showHistory, *width, strings.Join(flag.Args(), " ")); err != nil {
		log.ErrorObj("newsapp failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, showHistory bool, width int, term string) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if showHistory {
		return printHistory(a.History)
	}

	view := presenter.NewTerminal(os.Stdout, lineWidth(width))
	p, err := a.NewPresenter(view)
	if err != nil {
		return err
	}

	var res presenter.Result
	if strings.TrimSpace(term) == "" {
		res, err = p.Start(ctx)
	} else {
		res, err = p.Search(ctx, term)
	}
	if err != nil {
		return err
	}
	return view.Render(res)
}

func printHistory(store *history.Store) error {
	if store == nil {
		fmt.Println("Search history is unavailable.")
		return nil
	}
	entries, err := store.Recent(defaultHistoryLines)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No searches yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.SearchedAt.Local().Format("2006-01-02 15:04"), e.Term)
	}
	return nil
}

func lineWidth(flagWidth int) int {
	if flagWidth > 0 {
		return flagWidth
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return presenter.DefaultTerminalWidth
	}
	return 1 << 16
}
