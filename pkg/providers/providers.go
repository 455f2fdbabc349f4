package providers

import (
	"context"
	"strings"
	"time"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/pkg/httpclient"
)

const (
	// ProviderTypeGuardian identifies the Guardian content API search endpoint.
	ProviderTypeGuardian = "guardian"

	DefaultGuardianBaseURL = "https://content.guardianapis.com/search"
)

// HTTPClient is the transport fetchers use.
type HTTPClient = httpclient.Client

// Provider describes one configured news search source.
type Provider struct {
	ID             string
	Type           string
	BaseURL        string
	APIKey         string
	ShowFields     []string
	Headers        map[string]string
	ElementPolicy  ElementPolicy
	RequestDelayMS int
}

// RequestDelay is the minimum spacing between follow-up requests against the provider's pages.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// Fetcher runs the fetch-and-parse pipeline for one provider type.
type Fetcher interface {
	ID() string
	// SearchURL builds the request URL for a search term; a blank term lists the latest articles.
	SearchURL(term string) (string, error)
	// FetchURL fetches and decodes requestURL. The returned slice is meaningful even when err != nil.
	FetchURL(ctx context.Context, requestURL string) ([]domain.Article, error)
}

// FetcherRegistry resolves fetchers for provider configs.
type FetcherRegistry interface {
	Register(typ string, factory FetcherFactory)
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Headers returns the request headers for the provider.
func Headers(cfg Provider) map[string]string {
	headers := map[string]string{
		"Accept": "application/json",
	}
	for k, v := range cfg.Headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	return headers
}
