package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Factory builds a Publisher from a validated config entry.
type Factory func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Factories maps publisher types to their factory.
type Factories map[string]Factory

// DefaultFactories knows the http and queue publisher types.
func DefaultFactories() Factories {
	return Factories{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	}
}

// Build instantiates every config. If one fails, the publishers already built are closed.
func (f Factories) Build(ctx context.Context, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log = ensureLogger(log)

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		factory, ok := f[cfg.Type]
		if !ok {
			return nil, errors.Join(fmt.Errorf("no publisher registered for type %q", cfg.Type), closeAll(pubs))
		}
		pub, err := factory(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("publisher %q: %w", cfg.ID, err), closeAll(pubs))
		}
		if cfg.MinArticles > 0 {
			pub = &thresholdPublisher{Publisher: pub, min: cfg.MinArticles}
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// thresholdPublisher forwards only events with at least min articles.
type thresholdPublisher struct {
	Publisher
	min int
}

func (t *thresholdPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.Count < t.min {
		return nil
	}
	return t.Publisher.Publish(ctx, evt)
}
