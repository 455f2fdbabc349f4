package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/logger"
)

// GuardianFetcher runs the fetch-and-parse pipeline against the Guardian content API.
type GuardianFetcher struct {
	client HTTPClient
	cfg    Provider
	log    logger.Logger
}

// NewGuardianFetcher builds a fetcher bound to one provider config.
func NewGuardianFetcher(client HTTPClient, cfg Provider, log logger.Logger) *GuardianFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGuardianBaseURL
	}
	if cfg.ID == "" {
		cfg.ID = ProviderTypeGuardian
	}
	return &GuardianFetcher{client: client, cfg: cfg, log: logger.Ensure(log)}
}

// ID returns the provider id the fetcher is bound to.
func (f *GuardianFetcher) ID() string {
	return f.cfg.ID
}

// SearchURL builds the request URL for term. A blank term requests the latest articles.
func (f *GuardianFetcher) SearchURL(term string) (string, error) {
	return BuildSearchURL(f.cfg.BaseURL, f.cfg.APIKey, f.cfg.ShowFields, term)
}

// FetchArticles fetches requestURL and decodes the results.
//
// Nothing is returned as an error; failures are logged. Malformed URLs and failed fetches give an
// empty slice, an undecodable body gives nil, and a bad results element gives the records decoded
// before it.
func (f *GuardianFetcher) FetchArticles(ctx context.Context, requestURL string) []domain.Article {
	articles, err := f.FetchURL(ctx, requestURL)
	if err != nil {
		f.logFailure(requestURL, len(articles), err)
	}
	return articles
}

// FetchURL is FetchArticles with the failure classified: ErrMalformedURL, *FetchError,
// ErrDecodeFailed or *ElementError. The returned slice is the same FetchArticles would return.
func (f *GuardianFetcher) FetchURL(ctx context.Context, requestURL string) ([]domain.Article, error) {
	requestURL = strings.TrimSpace(requestURL)
	if _, err := parseRequestURL(requestURL); err != nil {
		return []domain.Article{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f.log.DebugObj("fetching articles", "fetch_start", map[string]any{
		"provider_id": f.cfg.ID,
		"url":         redactURL(requestURL),
	})

	resp, err := f.client.Get(ctx, requestURL, Headers(f.cfg))
	if err != nil {
		return []domain.Article{}, &FetchError{Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return []domain.Article{}, &FetchError{StatusCode: resp.StatusCode(), Snippet: responseSnippet(body)}
	}

	articles, skipped, err := decodeSearchResponse(body, f.cfg.ElementPolicy)
	for _, s := range skipped {
		f.log.WarnObj("skipping malformed result element", "element_skipped", map[string]any{
			"provider_id": f.cfg.ID,
			"index":       s.Index,
			"field":       s.Field,
			"error":       s.Error(),
		})
	}
	if err != nil {
		return articles, err
	}

	f.log.DebugObj("articles decoded", "fetch_done", map[string]any{
		"provider_id": f.cfg.ID,
		"count":       len(articles),
		"skipped":     len(skipped),
	})
	return articles, nil
}

func (f *GuardianFetcher) logFailure(requestURL string, kept int, err error) {
	fields := map[string]any{
		"provider_id": f.cfg.ID,
		"url":         redactURL(requestURL),
		"kind":        ErrorKind(err),
		"error":       err.Error(),
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		fields["status"] = fe.StatusCode
	}
	var ee *ElementError
	if errors.As(err, &ee) {
		fields["index"] = ee.Index
		fields["kept"] = kept
	}

	f.log.ErrorObj("article fetch failed", "fetch_error", fields)
}
