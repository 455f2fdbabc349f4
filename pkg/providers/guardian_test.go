package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tzidis/newsapp/internal/domain"
	"github.com/tzidis/newsapp/internal/logger"
)

const threeResults = `{"response":{"status":"ok","results":[
	{"sectionName":"World","webUrl":"http://x/1","fields":{"headline":"H1","firstPublicationDate":"2020-01-01T10:00:00Z","thumbnail":"http://img/1.jpg"}},
	{"sectionName":"Sport","webUrl":"http://x/2","fields":{"headline":"H2","firstPublicationDate":"2020-01-02T10:00:00Z"}},
	{"sectionName":"Culture","webUrl":"http://x/3","fields":{"headline":"H3","firstPublicationDate":"2020-01-03T10:00:00Z","thumbnail":"http://img/3.jpg"}}
]}}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestFetcher(policy ElementPolicy, log logger.Logger) *GuardianFetcher {
	return NewGuardianFetcher(nil, Provider{ID: "guardian", Type: ProviderTypeGuardian, ElementPolicy: policy}, log)
}

func TestFetchArticles_WellFormedKeepsOrder(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, threeResults)
	f := newTestFetcher(TruncateOnError, nil)

	got := f.FetchArticles(context.Background(), srv.URL+"/search?api-key=test")

	require.Len(t, got, 3)
	assert.Equal(t, []string{"H1", "H2", "H3"}, []string{got[0].Headline, got[1].Headline, got[2].Headline})
	assert.Equal(t, "http://img/1.jpg", got[0].ThumbnailURL)
	assert.Equal(t, "", got[1].ThumbnailURL)
	assert.False(t, got[1].HasThumbnail())
	assert.Equal(t, "Culture", got[2].SectionName)
	assert.Equal(t, "2020-01-03T10:00:00Z", got[2].PublicationDate)
}

func TestFetchArticles_EndToEnd(t *testing.T) {
	body := `{"response":{"results":[{"sectionName":"World","webUrl":"http://x/1","fields":{"headline":"H1","firstPublicationDate":"2020-01-01T10:00:00Z"}}]}}`
	srv, _ := newTestServer(t, http.StatusOK, body)

	got := newTestFetcher(TruncateOnError, nil).FetchArticles(context.Background(), srv.URL)

	assert.Equal(t, []domain.Article{{
		SectionName:     "World",
		WebURL:          "http://x/1",
		Headline:        "H1",
		PublicationDate: "2020-01-01T10:00:00Z",
		ThumbnailURL:    "",
	}}, got)
}

func TestFetchArticles_TruncatesAtFirstMalformedElement(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "missing sectionName at index 1",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0"}},
				{"webUrl":"u1","fields":{"headline":"h1","firstPublicationDate":"d1"}},
				{"sectionName":"C","webUrl":"u2","fields":{"headline":"h2","firstPublicationDate":"d2"}}]}}`,
			want: 1,
		},
		{
			name: "missing fields object at index 0",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0"},
				{"sectionName":"B","webUrl":"u1","fields":{"headline":"h1","firstPublicationDate":"d1"}}]}}`,
			want: 0,
		},
		{
			name: "wrong type headline at index 2",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0"}},
				{"sectionName":"B","webUrl":"u1","fields":{"headline":"h1","firstPublicationDate":"d1"}},
				{"sectionName":"C","webUrl":"u2","fields":{"headline":7,"firstPublicationDate":"d2"}},
				{"sectionName":"D","webUrl":"u3","fields":{"headline":"h3","firstPublicationDate":"d3"}}]}}`,
			want: 2,
		},
		{
			name: "element is not an object",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0"}},
				"oops"]}}`,
			want: 1,
		},
		{
			name: "keys differ only in case at index 1",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0"}},
				{"SECTIONNAME":"Sport","WebUrl":"u1","Fields":{"HEADLINE":"h1","firstpublicationdate":"d1"}},
				{"sectionName":"C","webUrl":"u2","fields":{"headline":"h2","firstPublicationDate":"d2"}}]}}`,
			want: 1,
		},
		{
			name: "nested key differs only in case at index 0",
			body: `{"response":{"results":[
				{"sectionName":"A","webUrl":"u0","fields":{"Headline":"h0","firstPublicationDate":"d0"}}]}}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, tt.body)
			f := newTestFetcher(TruncateOnError, nil)

			got, err := f.FetchURL(context.Background(), srv.URL)

			require.NotNil(t, got)
			assert.Len(t, got, tt.want)
			assert.ErrorIs(t, err, ErrElementDecodeFailed)
			var ee *ElementError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.want, ee.Index)

			assert.Equal(t, got, f.FetchArticles(context.Background(), srv.URL))
		})
	}
}

func TestFetchURL_SkipInvalidContinues(t *testing.T) {
	body := `{"response":{"results":[
		{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0"}},
		{"sectionName":"B","fields":{"headline":"h1","firstPublicationDate":"d1"}},
		{"sectionName":"C","webUrl":"u2","fields":{"headline":"h2","firstPublicationDate":"d2"}}]}}`
	srv, _ := newTestServer(t, http.StatusOK, body)

	core, logs := observer.New(zap.WarnLevel)
	f := newTestFetcher(SkipInvalid, logger.FromZap(zap.New(core)))

	got, err := f.FetchURL(context.Background(), srv.URL)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u0", got[0].WebURL)
	assert.Equal(t, "u2", got[1].WebURL)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed result element").Len())
}

func TestFetchArticles_Non200ReturnsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		srv, _ := newTestServer(t, status, `{"message":"nope"}`)
		f := newTestFetcher(TruncateOnError, nil)

		got, err := f.FetchURL(context.Background(), srv.URL)

		require.NotNil(t, got)
		assert.Empty(t, got)
		assert.ErrorIs(t, err, ErrFetchFailed)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, status, fe.StatusCode)
	}
}

func TestFetchArticles_TransportFailureReturnsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, threeResults)
	url := srv.URL
	srv.Close()

	got, err := newTestFetcher(TruncateOnError, nil).FetchURL(context.Background(), url)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchArticles_CanceledContext(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, threeResults)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := newTestFetcher(TruncateOnError, nil).FetchURL(ctx, srv.URL)

	assert.Empty(t, got)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchArticles_UndecodableBodyReturnsNil(t *testing.T) {
	bodies := map[string]string{
		"empty":            "",
		"blank":            "  \n ",
		"not json":         "<html>oops</html>",
		"no response":      `{"results":[]}`,
		"no results":       `{"response":{"status":"ok"}}`,
		"results null":     `{"response":{"results":null}}`,
		"results object":   `{"response":{"results":{}}}`,
		"top level array":  `[]`,
		"response is text": `{"response":"ok"}`,
		"response null":    `{"response":null}`,
		"upper case keys":  `{"RESPONSE":{"RESULTS":[]}}`,
		"results key case": `{"response":{"Results":[]}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, body)
			f := newTestFetcher(TruncateOnError, nil)

			got, err := f.FetchURL(context.Background(), srv.URL)

			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrDecodeFailed)
			assert.Nil(t, f.FetchArticles(context.Background(), srv.URL))
		})
	}
}

func TestFetchURL_NullThumbnailIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"response":{"results":[
		{"sectionName":"A","webUrl":"u0","fields":{"headline":"h0","firstPublicationDate":"d0","thumbnail":null}}]}}`)

	got, err := newTestFetcher(TruncateOnError, nil).FetchURL(context.Background(), srv.URL)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].ThumbnailURL)
	assert.False(t, got[0].HasThumbnail())
}

func TestFetchArticles_EmptyResultsIsNotNil(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"response":{"results":[]}}`)

	got, err := newTestFetcher(TruncateOnError, nil).FetchURL(context.Background(), srv.URL)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchArticles_MalformedURL(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	f := newTestFetcher(TruncateOnError, logger.FromZap(zap.New(core)))

	for _, raw := range []string{"", "not a url", "/relative/path", "ftp://example.com/x", "http://"} {
		got, err := f.FetchURL(context.Background(), raw)
		require.NotNil(t, got, raw)
		assert.Empty(t, got, raw)
		assert.True(t, errors.Is(err, ErrMalformedURL), raw)
	}

	assert.Empty(t, f.FetchArticles(context.Background(), "::"))
	entries := logs.FilterMessage("article fetch failed").All()
	require.Len(t, entries, 1)
	fields, ok := entries[0].ContextMap()["fetch_error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "malformed_url", fields["kind"])
}

func TestFetchArticles_Idempotent(t *testing.T) {
	srv, hits := newTestServer(t, http.StatusOK, threeResults)
	f := newTestFetcher(TruncateOnError, nil)

	first := f.FetchArticles(context.Background(), srv.URL)
	second := f.FetchArticles(context.Background(), srv.URL)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchURL_SendsAcceptAndCustomHeaders(t *testing.T) {
	var gotAccept, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotCustom = r.Header.Get("X-Trace")
		_, _ = w.Write([]byte(`{"response":{"results":[]}}`))
	}))
	defer srv.Close()

	f := NewGuardianFetcher(nil, Provider{Headers: map[string]string{"X-Trace": "abc", " ": "dropped"}}, nil)
	_, err := f.FetchURL(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "abc", gotCustom)
}

func TestFetcherRegistry(t *testing.T) {
	reg := DefaultFetcherRegistry(nil, nil)

	f, err := reg.FetcherFor(Provider{ID: "news", Type: "Guardian", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "news", f.ID())

	u, err := f.SearchURL("brexit")
	require.NoError(t, err)
	assert.Contains(t, u, DefaultGuardianBaseURL+"?api-key=k&")
	assert.Contains(t, u, "q=brexit")

	_, err = reg.FetcherFor(Provider{Type: "sitemap"})
	assert.Error(t, err)

	_, err = reg.FetcherFor(Provider{})
	assert.Error(t, err)
}
