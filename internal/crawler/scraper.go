// Package crawler fills in missing article thumbnails from the article pages themselves.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/logger"
	"github.com/tzidis/newsapp/pkg/httpclient"
	"github.com/tzidis/newsapp/pkg/providers"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxPageWorkers   = 10
	errSnippetBytes  = 256
)

// imageSources are tried in order; the first non-empty value wins.
var imageSources = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

// Scraper reads preview images from article pages.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{client: client, log: logger.Ensure(log)}
}

type pageJob struct {
	idx int
	art domain.Article
}

type pageResult struct {
	idx   int
	thumb string
}

// Enrich returns a copy of articles in which records without a thumbnail carry the page's
// preview image. Records that already have one are not fetched, and a failed page keeps its
// record unchanged. Page requests are spaced by the provider's request delay.
func (s *Scraper) Enrich(ctx context.Context, cfg providers.Provider, articles []domain.Article) []domain.Article {
	if articles == nil {
		return nil
	}
	out := append([]domain.Article(nil), articles...)

	var jobs []pageJob
	for idx, art := range articles {
		if !art.HasThumbnail() && strings.TrimSpace(art.WebURL) != "" {
			jobs = append(jobs, pageJob{idx: idx, art: art})
		}
	}
	if len(jobs) == 0 {
		return out
	}

	var limiter <-chan time.Time
	if delay := cfg.RequestDelay(); delay > 0 {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		limiter = ticker.C
	}

	jobCh := make(chan pageJob)
	resCh := make(chan pageResult)
	var wg sync.WaitGroup
	for workerID := range min(len(jobs), maxPageWorkers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pageWorker(ctx, cfg, workerID, limiter, jobCh, resCh)
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(resCh)
	}()

	found := 0
	for res := range resCh {
		out[res.idx] = out[res.idx].WithThumbnail(res.thumb)
		found++
	}

	s.log.DebugObj("thumbnail enrichment finished", "enrich_done", map[string]any{
		"provider_id": cfg.ID,
		"pages":       len(jobs),
		"found":       found,
	})
	return out
}

func (s *Scraper) pageWorker(
	ctx context.Context,
	cfg providers.Provider,
	workerID int,
	limiter <-chan time.Time,
	jobs <-chan pageJob,
	results chan<- pageResult,
) {
	for job := range jobs {
		if limiter != nil {
			select {
			case <-limiter:
			case <-ctx.Done():
				return
			}
		}

		thumb, err := s.pageImage(ctx, cfg, job.art.WebURL)
		if err != nil {
			s.log.WarnObj("article thumbnail scrape failed", "thumbnail_error", map[string]any{
				"worker_id":   workerID,
				"provider_id": cfg.ID,
				"url":         job.art.WebURL,
				"error":       err.Error(),
			})
			continue
		}
		if thumb == "" {
			continue
		}
		select {
		case results <- pageResult{idx: job.idx, thumb: thumb}:
		case <-ctx.Done():
			return
		}
	}
}

// pageImage fetches pageURL and returns its preview image as an absolute URL, or "".
func (s *Scraper) pageImage(ctx context.Context, cfg providers.Provider, pageURL string) (string, error) {
	headers := providers.Headers(cfg)
	headers["Accept"] = "text/html"

	resp, err := s.client.Get(ctx, pageURL, headers)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), strings.TrimSpace(string(body[:min(len(body), errSnippetBytes)])))
	}

	raw, err := findImage(body[:min(len(body), maxHTMLBodyBytes)])
	if err != nil {
		return "", err
	}
	return absoluteURL(raw, pageURL), nil
}

func findImage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for _, src := range imageSources {
		if val, ok := doc.Find(src.selector).First().Attr(src.attr); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val, nil
			}
		}
	}
	return "", nil
}

// absoluteURL resolves ref against base. Unparseable input is returned unchanged.
func absoluteURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil || refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
