package providers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		key      string
		fields   []string
		term     string
		want     string
		wantErr  bool
		wantTerm string
	}{
		{
			name: "no term",
			base: "https://content.guardianapis.com/search",
			key:  "test-key",
			want: "https://content.guardianapis.com/search?api-key=test-key&show-fields=firstPublicationDate%2Cthumbnail%2Cstandfirst%2Cheadline",
		},
		{
			name:     "term is percent-encoded",
			base:     "https://content.guardianapis.com/search",
			key:      "k",
			term:     "cats & dogs",
			want:     "https://content.guardianapis.com/search?api-key=k&show-fields=firstPublicationDate%2Cthumbnail%2Cstandfirst%2Cheadline&q=cats+%26+dogs",
			wantTerm: "cats & dogs",
		},
		{
			name:     "unicode and reserved characters",
			base:     "https://content.guardianapis.com/search",
			key:      "k",
			fields:   []string{"headline"},
			term:     "café=50%?#x",
			want:     "https://content.guardianapis.com/search?api-key=k&show-fields=headline&q=caf%C3%A9%3D50%25%3F%23x",
			wantTerm: "café=50%?#x",
		},
		{
			name: "existing query kept, blank term dropped",
			base: "http://example.com/search?order-by=newest",
			term: "   ",
			want: "http://example.com/search?order-by=newest&show-fields=firstPublicationDate%2Cthumbnail%2Cstandfirst%2Cheadline",
		},
		{
			name:    "relative base",
			base:    "/search",
			wantErr: true,
		},
		{
			name:    "empty base",
			base:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSearchURL(tt.base, tt.key, tt.fields, tt.term)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			parsed, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerm, parsed.Query().Get("q"))
		})
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "http://x/search?api-key=REDACTED&q=a", redactURL("http://x/search?api-key=secret&q=a"))
	assert.Equal(t, "http://x/search?q=a", redactURL("http://x/search?q=a"))
}

func TestParseElementPolicy(t *testing.T) {
	p, err := ParseElementPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TruncateOnError, p)

	p, err = ParseElementPolicy(" Skip ")
	require.NoError(t, err)
	assert.Equal(t, SkipInvalid, p)
	assert.Equal(t, "skip", p.String())

	_, err = ParseElementPolicy("drop")
	assert.Error(t, err)
}
