// Package presenter drives article loading for the views: it probes connectivity, builds request
// URLs, runs loads through the loader and maps results onto the article list or an empty state.
package presenter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tzidis/newsapp/internal/connectivity"
	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/loader"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/pkg/providers"
	"github.com/tzidis/newsapp/pkg/publishers"
)

const (
	MsgNoConnection = "No internet connection."
	MsgNoArticles   = "No articles found."
)

// State is what the view should show.
type State string

const (
	StateLoading      State = "loading"
	StateLoaded       State = "loaded"
	StateNoArticles   State = "no_articles"
	StateNoConnection State = "no_connection"
)

// Result is the outcome of one load as the view sees it.
type Result struct {
	State    State
	Message  string
	Title    string
	Articles []domain.Article
}

// HistoryRecorder stores submitted search terms.
type HistoryRecorder interface {
	Add(term string) error
}

// Enricher fills in missing thumbnails.
type Enricher interface {
	Enrich(ctx context.Context, cfg providers.Provider, articles []domain.Article) []domain.Article
}

// EventPublisher receives every successful load.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) error
}

// Options wires a Presenter. Fetcher and List are required.
type Options struct {
	Fetcher   providers.Fetcher
	Provider  providers.Provider
	List      *ArticleList
	Checker   connectivity.Checker
	History   HistoryRecorder
	Enricher  Enricher
	Publisher EventPublisher
	Log       logger.Logger
	Now       func() time.Time
}

// Presenter is safe for concurrent use; a newer Start or Search supersedes the load in flight.
type Presenter struct {
	opts   Options
	loader *loader.Loader
	log    logger.Logger

	mu    sync.Mutex
	title string
	last  Result

	// commitMu serializes the supersede check with writing results to the list.
	commitMu sync.Mutex
}

func New(opts Options) (*Presenter, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("presenter: fetcher is required")
	}
	if opts.List == nil {
		return nil, errors.New("presenter: article list is required")
	}
	if opts.Checker == nil {
		opts.Checker = connectivity.Static(true)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logger.Ensure(opts.Log)
	opts.Log = log
	return &Presenter{
		opts:   opts,
		loader: loader.New(log),
		log:    log,
		last:   Result{State: StateLoading},
	}, nil
}

// Start performs the initial load of the latest articles. Without connectivity nothing is fetched
// and the result is the no-connection state.
func (p *Presenter) Start(ctx context.Context) (Result, error) {
	if !p.opts.Checker.Connected(ctx) {
		p.log.WarnObj("no connectivity, skipping initial load", "presenter", map[string]any{
			"provider_id": p.opts.Fetcher.ID(),
		})
		p.opts.List.Clear()
		res := Result{State: StateNoConnection, Message: MsgNoConnection, Title: p.Title(), Articles: []domain.Article{}}
		p.setLast(res)
		return res, nil
	}

	requestURL, err := p.opts.Fetcher.SearchURL("")
	if err != nil {
		p.log.ErrorObj("build request url failed", "presenter", map[string]any{"error": err.Error()})
		return p.show(nil, ""), nil
	}
	return p.load(ctx, "", requestURL)
}

// Search loads the results for term. The term becomes the title and is saved to history.
func (p *Presenter) Search(ctx context.Context, term string) (Result, error) {
	term = strings.TrimSpace(term)

	if term != "" && p.opts.History != nil {
		if err := p.opts.History.Add(term); err != nil {
			p.log.WarnObj("history add failed", "presenter", map[string]any{
				"term":  term,
				"error": err.Error(),
			})
		}
	}

	p.mu.Lock()
	p.title = term
	p.mu.Unlock()
	p.opts.List.Clear()

	requestURL, err := p.opts.Fetcher.SearchURL(term)
	if err != nil {
		p.log.ErrorObj("build request url failed", "presenter", map[string]any{
			"term":  term,
			"error": err.Error(),
		})
		return p.show(nil, term), nil
	}
	return p.load(ctx, term, requestURL)
}

// Reset cancels the load in flight and empties the list.
func (p *Presenter) Reset() {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	p.loader.Reset()
	p.opts.List.Clear()
}

// Title is the last submitted search term, empty for the latest-articles listing.
func (p *Presenter) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Last returns the most recent result shown.
func (p *Presenter) Last() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Presenter) load(ctx context.Context, term, requestURL string) (Result, error) {
	p.setLast(Result{State: StateLoading, Title: term})
	task := p.loader.Start(ctx, func(ctx context.Context) ([]domain.Article, error) {
		articles, err := p.opts.Fetcher.FetchURL(ctx, requestURL)
		if err != nil {
			return articles, err
		}
		if p.opts.Enricher != nil && len(articles) > 0 {
			articles = p.opts.Enricher.Enrich(ctx, p.opts.Provider, articles)
		}
		return articles, nil
	})

	articles, err := task.Wait(ctx)
	if errors.Is(err, loader.ErrSuperseded) {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if err != nil {
		p.log.WarnObj("article load failed", "presenter", map[string]any{
			"provider_id": p.opts.Fetcher.ID(),
			"term":        term,
			"kind":        providers.ErrorKind(err),
			"kept":        len(articles),
			"error":       err.Error(),
		})
	}

	res, ok := p.commit(task, articles, term)
	if !ok {
		return Result{}, loader.ErrSuperseded
	}
	if res.State == StateLoaded {
		p.publish(ctx, term, res.Articles)
	}
	return res, nil
}

// commit shows articles unless a newer load replaced task.
func (p *Presenter) commit(task *loader.Task, articles []domain.Article, term string) (Result, bool) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	if p.loader.Current() != task {
		return Result{}, false
	}
	return p.show(articles, term), true
}

// show maps a load outcome onto the list. nil and empty both mean no articles.
func (p *Presenter) show(articles []domain.Article, term string) Result {
	var res Result
	if len(articles) > 0 {
		p.opts.List.ReplaceAll(articles)
		res = Result{State: StateLoaded, Title: term, Articles: p.opts.List.Snapshot()}
	} else {
		p.opts.List.Clear()
		res = Result{State: StateNoArticles, Message: MsgNoArticles, Title: term, Articles: []domain.Article{}}
	}
	p.setLast(res)
	return res
}

func (p *Presenter) publish(ctx context.Context, term string, articles []domain.Article) {
	if p.opts.Publisher == nil {
		return
	}
	evt := publishers.NewEvent(p.opts.Fetcher.ID(), term, articles, p.opts.Now())
	if err := p.opts.Publisher.Publish(ctx, evt); err != nil {
		p.log.WarnObj("publishing load result failed", "presenter", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
	}
}

func (p *Presenter) setLast(res Result) {
	p.mu.Lock()
	p.last = res
	p.mu.Unlock()
}
