package providers

import (
	"net/url"
	"strings"
)

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// redactURL hides the api key so request URLs can be logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("api-key") == "" {
		return raw
	}
	q.Set("api-key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
