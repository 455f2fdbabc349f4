package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/pkg/providers"
)

func TestScraper_EnrichFillsOnlyMissingThumbnails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/relative":
			fmt.Fprint(w, `<html><head><meta property="og:image" content="/img/rel.jpg"></head></html>`)
		case "/twitter":
			fmt.Fprint(w, `<html><head><meta name="twitter:image" content="https://cdn/t.jpg"></head></html>`)
		case "/none":
			fmt.Fprint(w, `<html><head><title>x</title></head></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	in := []domain.Article{
		{Headline: "has", WebURL: srv.URL + "/has", ThumbnailURL: "https://cdn/has.jpg"},
		{Headline: "rel", WebURL: srv.URL + "/relative"},
		{Headline: "tw", WebURL: srv.URL + "/twitter"},
		{Headline: "none", WebURL: srv.URL + "/none"},
		{Headline: "missing", WebURL: srv.URL + "/missing"},
	}

	out := NewScraper(nil, nil).Enrich(context.Background(), providers.Provider{ID: "guardian"}, in)

	require.Len(t, out, len(in))
	assert.Equal(t, "https://cdn/has.jpg", out[0].ThumbnailURL)
	assert.Equal(t, srv.URL+"/img/rel.jpg", out[1].ThumbnailURL)
	assert.Equal(t, "https://cdn/t.jpg", out[2].ThumbnailURL)
	assert.Equal(t, "", out[3].ThumbnailURL)
	assert.Equal(t, "", out[4].ThumbnailURL)
	assert.EqualValues(t, 4, hits.Load())

	assert.Equal(t, "", in[1].ThumbnailURL, "input must not be mutated")
}

func TestScraper_EnrichNilAndCanceled(t *testing.T) {
	s := NewScraper(nil, nil)
	assert.Nil(t, s.Enrich(context.Background(), providers.Provider{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := []domain.Article{{Headline: "a", WebURL: "http://127.0.0.1:1/a"}}
	out := s.Enrich(ctx, providers.Provider{}, in)
	assert.Equal(t, in, out)
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "", absoluteURL("", "http://a/b"))
	assert.Equal(t, "https://x/y.png", absoluteURL("https://x/y.png", "http://a/b"))
	assert.Equal(t, "http://a/img/y.png", absoluteURL("/img/y.png", "http://a/b/c"))
	assert.Equal(t, "http://a/b/y.png", absoluteURL("y.png", "http://a/b/c"))
}

func TestFindImage_SourceOrder(t *testing.T) {
	img, err := findImage([]byte(`<head>
		<link rel="image_src" href="/link.jpg">
		<meta name="twitter:image" content="https://cdn/tw.jpg">
		<meta property="og:image" content="  ">
	</head>`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/tw.jpg", img, "blank og:image falls through")

	img, err = findImage([]byte(`<head><link rel="image_src" href="/link.jpg"></head>`))
	require.NoError(t, err)
	assert.Equal(t, "/link.jpg", img)
}

func TestScraper_RequestDelaySpacesPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<meta property="og:image" content="https://cdn/a.jpg">`)
	}))
	defer srv.Close()

	in := []domain.Article{{WebURL: srv.URL + "/1"}, {WebURL: srv.URL + "/2"}, {WebURL: srv.URL + "/3"}}
	start := time.Now()
	out := NewScraper(nil, nil).Enrich(context.Background(), providers.Provider{RequestDelayMS: 30}, in)

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	for _, a := range out {
		assert.Equal(t, "https://cdn/a.jpg", a.ThumbnailURL)
	}
}
