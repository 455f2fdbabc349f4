// Package server exposes the article presenter over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tzidis/newsapp/internal/connectivity"
	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/history"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/internal/presenter"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
	defaultHistoryLimit     = 20
)

// Searcher runs one load. A fresh Searcher is made per request so concurrent requests never supersede each other.
type Searcher interface {
	Start(ctx context.Context) (presenter.Result, error)
	Search(ctx context.Context, term string) (presenter.Result, error)
}

type SearcherFactory func() (Searcher, error)

// HistoryReader lists recent search terms.
type HistoryReader interface {
	Recent(n int) ([]history.Entry, error)
}

type Config struct {
	Port         string
	NewSearcher  SearcherFactory
	History      HistoryReader
	Connectivity connectivity.Checker
	Log          logger.Logger
}

type Server struct {
	Echo *echo.Echo

	cfg Config
	log logger.Logger
}

// ArticlesResponse is the body of GET /articles.
type ArticlesResponse struct {
	State    presenter.State  `json:"state"`
	Message  string           `json:"message,omitempty"`
	Title    string           `json:"title,omitempty"`
	Articles []domain.Article `json:"articles"`
}

type historyEntry struct {
	Term       string    `json:"term"`
	SearchedAt time.Time `json:"searchedAt"`
}

func New(cfg Config) (*Server, error) {
	if cfg.NewSearcher == nil {
		return nil, errors.New("server: searcher factory is required")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return nil, errors.New("server: port is required")
	}
	if cfg.Connectivity == nil {
		cfg.Connectivity = connectivity.Static(true)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{Echo: e, cfg: cfg, log: logger.Ensure(cfg.Log)}
	e.HTTPErrorHandler = s.errorHandler
	s.setupMiddlewares()
	s.routes()
	return s, nil
}

func (s *Server) setupMiddlewares() {
	s.Echo.Use(requestLogger(s.log))
	s.Echo.Use(middleware.Recover())
}

func (s *Server) routes() {
	s.Echo.GET("/articles", s.articlesHandler)
	s.Echo.GET("/history", s.historyHandler)
	s.Echo.GET("/health", s.healthHandler)
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "server", map[string]any{"port": s.cfg.Port})
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down http server")
	return s.Echo.Shutdown(shutdownCtx)
}

func (s *Server) articlesHandler(c echo.Context) error {
	searcher, err := s.cfg.NewSearcher()
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var res presenter.Result
	if term := strings.TrimSpace(c.QueryParam("q")); term != "" {
		res, err = searcher.Search(ctx, term)
	} else {
		res, err = searcher.Start(ctx)
	}
	if err != nil {
		return err
	}

	status := http.StatusOK
	if res.State == presenter.StateNoConnection {
		status = http.StatusServiceUnavailable
	}
	articles := res.Articles
	if articles == nil {
		articles = []domain.Article{}
	}
	return c.JSON(status, ArticlesResponse{
		State:    res.State,
		Message:  res.Message,
		Title:    res.Title,
		Articles: articles,
	})
}

func (s *Server) historyHandler(c echo.Context) error {
	if s.cfg.History == nil {
		return c.JSON(http.StatusOK, []historyEntry{})
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	entries, err := s.cfg.History.Recent(limit)
	if err != nil {
		return err
	}
	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{Term: e.Term, SearchedAt: e.SearchedAt})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) healthHandler(c echo.Context) error {
	if !s.cfg.Connectivity.Connected(c.Request().Context()) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "offline"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, map[string]any{"error": he.Message})
		return
	}

	s.log.ErrorObj("unhandled request error", "http_error", map[string]any{
		"uri":   c.Request().RequestURI,
		"error": err.Error(),
	})
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
