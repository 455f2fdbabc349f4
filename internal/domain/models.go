// Package domain holds the article record shared by the fetchers, presenters and publishers.
package domain

import (
	"strings"
	"time"
)

// PublicationDateLayout is the timestamp layout the search API uses for firstPublicationDate.
const PublicationDateLayout = "2006-01-02T15:04:05Z"

// Article is one search result. Values are never mutated after the decoder builds them.
type Article struct {
	SectionName     string `json:"sectionName"`
	PublicationDate string `json:"publicationDate"`
	WebURL          string `json:"webUrl"`
	Headline        string `json:"headline"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}

// HasThumbnail reports whether the article carries a preview image.
func (a Article) HasThumbnail() bool {
	return strings.TrimSpace(a.ThumbnailURL) != ""
}

// PublishedAt parses PublicationDate for display. The raw string stays authoritative.
func (a Article) PublishedAt() (time.Time, bool) {
	t, err := time.Parse(PublicationDateLayout, strings.TrimSpace(a.PublicationDate))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WithThumbnail returns a copy of the article with the given thumbnail URL.
func (a Article) WithThumbnail(thumbnailURL string) Article {
	a.ThumbnailURL = thumbnailURL
	return a
}
