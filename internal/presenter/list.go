package presenter

import (
	"sync"

	"github.com/tzidis/newsapp/internal/domain"
)

// View draws the list. Redraw receives the full current sequence.
type View interface {
	Redraw(articles []domain.Article)
}

// ViewFunc adapts a function to View.
type ViewFunc func(articles []domain.Article)

func (f ViewFunc) Redraw(articles []domain.Article) { f(articles) }

// ArticleList holds the displayed records and asks its view to redraw on every change.
type ArticleList struct {
	mu    sync.Mutex
	items []domain.Article
	view  View
}

// NewArticleList creates an empty list. view may be nil.
func NewArticleList(view View) *ArticleList {
	return &ArticleList{items: []domain.Article{}, view: view}
}

// ReplaceAll discards the current records, installs a copy of articles and redraws.
func (l *ArticleList) ReplaceAll(articles []domain.Article) {
	next := make([]domain.Article, len(articles))
	copy(next, articles)

	l.mu.Lock()
	l.items = next
	l.mu.Unlock()

	l.redraw(next)
}

// Clear empties the list and redraws.
func (l *ArticleList) Clear() {
	l.mu.Lock()
	l.items = []domain.Article{}
	l.mu.Unlock()

	l.redraw([]domain.Article{})
}

// Snapshot returns a copy of the current records.
func (l *ArticleList) Snapshot() []domain.Article {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Article, len(l.items))
	copy(out, l.items)
	return out
}

func (l *ArticleList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *ArticleList) redraw(items []domain.Article) {
	if l.view == nil {
		return
	}
	view := make([]domain.Article, len(items))
	copy(view, items)
	l.view.Redraw(view)
}
