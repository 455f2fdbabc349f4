package providers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/pkg/httpclient"
)

// FetcherFactory builds a fetcher bound to one provider config.
type FetcherFactory func(client HTTPClient, cfg Provider, log logger.Logger) Fetcher

type fetcherRegistry struct {
	client    HTTPClient
	log       logger.Logger
	factories map[string]FetcherFactory
	mu        sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher factories keyed by provider type.
func NewFetcherRegistry(client HTTPClient, log logger.Logger, factories map[string]FetcherFactory) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	reg := &fetcherRegistry{
		client:    client,
		log:       logger.Ensure(log),
		factories: make(map[string]FetcherFactory, len(factories)),
	}
	for typ, f := range factories {
		reg.Register(typ, f)
	}
	return reg
}

// Register associates a factory with a provider type.
func (r *fetcherRegistry) Register(typ string, factory FetcherFactory) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || factory == nil {
		return
	}
	r.mu.Lock()
	r.factories[typ] = factory
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given provider based on its type, falling back to its id.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(cfg.ID))
	}
	if key == "" {
		return nil, fmt.Errorf("provider has neither type nor id")
	}

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for provider type %q", key)
	}

	return factory(r.client, cfg, r.log), nil
}

// DefaultHTTPClient returns a resty client with the default connect and read timeouts.
func DefaultHTTPClient() HTTPClient {
	return httpclient.NewRestyClientWithOptions(httpclient.Options{})
}

// DefaultFetcherRegistry wires up the known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient, log logger.Logger) FetcherRegistry {
	return NewFetcherRegistry(client, log, map[string]FetcherFactory{
		ProviderTypeGuardian: func(client HTTPClient, cfg Provider, log logger.Logger) Fetcher {
			return NewGuardianFetcher(client, cfg, log)
		},
	})
}
