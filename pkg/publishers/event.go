package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/logger"
)

// Logger is the logging surface publishers use.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }

// Event announces one completed article load.
type Event struct {
	ID         string           `json:"id"`
	ProviderID string           `json:"provider_id"`
	Query      string           `json:"query,omitempty"`
	Count      int              `json:"count"`
	Articles   []domain.Article `json:"articles"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(providerID, query string, articles []domain.Article, fetchedAt time.Time) Event {
	if articles == nil {
		articles = []domain.Article{}
	}
	return Event{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Query:      query,
		Count:      len(articles),
		Articles:   articles,
		FetchedAt:  fetchedAt.UTC(),
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Dispatcher fans an event out to every configured publisher.
type Dispatcher struct {
	pubs []Publisher
	log  Logger
}

// NewDispatcher wraps the given publishers. A nil or empty list makes Publish a no-op.
func NewDispatcher(pubs []Publisher, log Logger) *Dispatcher {
	return &Dispatcher{pubs: pubs, log: ensureLogger(log)}
}

// LoadDispatcher reads the publishers file and builds every enabled publisher.
func LoadDispatcher(ctx context.Context, path string, log Logger) (*Dispatcher, error) {
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	pubs, err := DefaultFactories().Build(ctx, reg.Enabled(), log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	return NewDispatcher(pubs, log), nil
}

// Len is the number of publishers.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pubs)
}

// Publish sends evt to all publishers and joins their errors.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) error {
	if d == nil || len(d.pubs) == 0 {
		return nil
	}

	var errs []error
	for _, p := range d.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			d.log.ErrorObj("publisher failed", "publisher_error", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"event_id":     evt.ID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		d.log.DebugObj("event published", "publisher_delivery", map[string]any{
			"publisher_id": p.ID(),
			"event_id":     evt.ID,
			"count":        evt.Count,
		})
	}
	return errors.Join(errs...)
}

// Close releases every publisher.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	return closeAll(d.pubs)
}
