// Package loader runs article loads in the background, one at a time. Starting a new load
// supersedes the one in flight: its context is canceled and its result is dropped.
package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/logger"
)

// ErrSuperseded is returned by Task.Wait when a newer load replaced the task or the loader was reset.
var ErrSuperseded = errors.New("load superseded")

// Func performs one load.
type Func func(ctx context.Context) ([]domain.Article, error)

// Task is one background load.
type Task struct {
	id         uint64
	done       chan struct{}
	cancel     context.CancelFunc
	superseded atomic.Bool

	articles []domain.Article
	err      error
}

// ID is the sequence number of the task within its loader.
func (t *Task) ID() uint64 { return t.id }

// Wait blocks until the load finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) ([]domain.Article, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if t.superseded.Load() {
		return nil, ErrSuperseded
	}
	return t.articles, t.err
}

func (t *Task) supersede() {
	t.superseded.Store(true)
	t.cancel()
}

// Loader owns the single in-flight task.
type Loader struct {
	mu      sync.Mutex
	seq     uint64
	current *Task
	log     logger.Logger
}

// New creates a Loader.
func New(log logger.Logger) *Loader {
	return &Loader{log: logger.Ensure(log)}
}

// Start launches fn in the background and supersedes the previous task.
func (l *Loader) Start(ctx context.Context, fn Func) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{done: make(chan struct{}), cancel: cancel}

	l.mu.Lock()
	prev := l.current
	l.seq++
	t.id = l.seq
	l.current = t
	l.mu.Unlock()

	if prev != nil {
		prev.supersede()
		l.log.DebugObj("load superseded", "loader", map[string]any{
			"previous": prev.id,
			"current":  t.id,
		})
	}

	go func() {
		defer close(t.done)
		defer cancel()
		t.articles, t.err = fn(taskCtx)
	}()
	return t
}

// Current returns the most recently started task, or nil.
func (l *Loader) Current() *Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Reset cancels the current task and drops its result.
func (l *Loader) Reset() {
	l.mu.Lock()
	cur := l.current
	l.current = nil
	l.mu.Unlock()

	if cur != nil {
		cur.supersede()
	}
}
