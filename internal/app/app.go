// Package app wires configuration into the collaborators both commands share.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tzidis/newsapp/internal/config"
	"github.com/tzidis/newsapp/internal/connectivity"
	"github.com/tzidis/newsapp/internal/crawler"
	"github.com/tzidis/newsapp/internal/history"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/internal/presenter"
	"github.com/tzidis/newsapp/pkg/httpclient"
	"github.com/tzidis/newsapp/pkg/providers"
	"github.com/tzidis/newsapp/pkg/publishers"
)

type App struct {
	Config   *config.Config
	Log      logger.Logger
	Provider providers.Provider
	Fetcher  providers.Fetcher
	Checker  connectivity.Checker

	// Optional collaborators; nil when disabled or unavailable.
	History    *history.Store
	Scraper    *crawler.Scraper
	Dispatcher *publishers.Dispatcher
}

// New builds the application. History that cannot be opened is logged and skipped.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	log = logger.Ensure(log)

	client := httpclient.NewRestyClientWithOptions(cfg.HTTPOptions())
	provider := cfg.Provider()

	fetcher, err := providers.DefaultFetcherRegistry(client, log).FetcherFor(provider)
	if err != nil {
		return nil, fmt.Errorf("resolve fetcher: %w", err)
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Provider: provider,
		Fetcher:  fetcher,
	}

	if cfg.Connectivity.Skip {
		a.Checker = connectivity.Static(true)
	} else {
		checker, err := connectivity.NewDialChecker(provider.BaseURL, cfg.Connectivity.Timeout, log)
		if err != nil {
			return nil, fmt.Errorf("connectivity checker: %w", err)
		}
		a.Checker = checker
	}

	if store, err := history.Open(cfg.History.Path, cfg.History.MaxEntries); err != nil {
		log.WarnObj("search history disabled", "history", map[string]any{
			"path":  cfg.History.Path,
			"error": err.Error(),
		})
	} else {
		a.History = store
	}

	if cfg.Enrich.Enabled {
		a.Scraper = crawler.NewScraper(client, log)
	}

	if cfg.Publishers.File != "" {
		dispatcher, err := publishers.LoadDispatcher(ctx, cfg.Publishers.File, log)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("load publishers: %w", err)
		}
		a.Dispatcher = dispatcher
		log.InfoObj("publishers loaded", "publishers", map[string]any{"count": dispatcher.Len()})
	}

	return a, nil
}

// NewPresenter builds a presenter with its own article list drawing to view.
func (a *App) NewPresenter(view presenter.View) (*presenter.Presenter, error) {
	opts := presenter.Options{
		Fetcher:  a.Fetcher,
		Provider: a.Provider,
		List:     presenter.NewArticleList(view),
		Checker:  a.Checker,
		Log:      a.Log,
	}
	// Typed nil pointers must not leak into the interfaces.
	if a.History != nil {
		opts.History = a.History
	}
	if a.Scraper != nil {
		opts.Enricher = a.Scraper
	}
	if a.Dispatcher != nil {
		opts.Publisher = a.Dispatcher
	}
	return presenter.New(opts)
}

// Close releases the history database and the publishers.
func (a *App) Close() error {
	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	errs = append(errs, a.Dispatcher.Close())
	return errors.Join(errs...)
}
