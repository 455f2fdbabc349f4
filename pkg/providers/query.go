package providers

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultShowFields are the per-result fields requested from the search endpoint.
var DefaultShowFields = []string{"firstPublicationDate", "thumbnail", "standfirst", "headline"}

// BuildSearchURL assembles <base>?api-key=<key>&show-fields=<fields>[&q=<term>].
// Every value is percent-encoded and existing query parameters on baseURL are kept in front.
func BuildSearchURL(baseURL, apiKey string, showFields []string, term string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("%w: base url is empty", ErrMalformedURL)
	}
	u, err := parseRequestURL(baseURL)
	if err != nil {
		return "", err
	}

	params := make([]string, 0, 4)
	if u.RawQuery != "" {
		params = append(params, u.RawQuery)
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		params = append(params, "api-key="+url.QueryEscape(key))
	}
	if len(showFields) == 0 {
		showFields = DefaultShowFields
	}
	params = append(params, "show-fields="+url.QueryEscape(joinFields(showFields)))
	if q := strings.TrimSpace(term); q != "" {
		params = append(params, "q="+url.QueryEscape(q))
	}

	u.RawQuery = strings.Join(params, "&")
	return u.String(), nil
}

// parseRequestURL accepts absolute http(s) URLs with a host.
func parseRequestURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedURL, u.Scheme)
	}
	return u, nil
}

func joinFields(fields []string) string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, ",")
}
