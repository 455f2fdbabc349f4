package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tzidis/newsapp/internal/domain"
)

// ElementPolicy decides what happens when one results element cannot be decoded.
type ElementPolicy int

const (
	// TruncateOnError stops at the first bad element and keeps what was decoded before it.
	TruncateOnError ElementPolicy = iota
	// SkipInvalid drops bad elements and keeps decoding the rest.
	SkipInvalid
)

// ParseElementPolicy maps a config value to a policy. Blank means TruncateOnError.
func ParseElementPolicy(raw string) (ElementPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "truncate":
		return TruncateOnError, nil
	case "skip":
		return SkipInvalid, nil
	default:
		return TruncateOnError, fmt.Errorf("unknown element policy %q (expected truncate or skip)", raw)
	}
}

func (p ElementPolicy) String() string {
	if p == SkipInvalid {
		return "skip"
	}
	return "truncate"
}

var errMissingField = errors.New("missing required field")

// jsonObject keeps the raw members of a JSON object. Keys are looked up exactly;
// encoding/json would otherwise match struct fields case-insensitively.
type jsonObject map[string]json.RawMessage

var jsonNull = []byte("null")

// member returns the value under key. An absent key and an explicit null are both reported missing.
func (o jsonObject) member(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return nil, false
	}
	return raw, true
}

// decodeSearchResponse extracts articles from a search response body.
//
// A blank body or a body without response.results yields (nil, ErrDecodeFailed). Under
// TruncateOnError a bad element yields the articles before it (never nil) and an *ElementError.
// Under SkipInvalid the bad elements are returned in skipped and err is nil.
func decodeSearchResponse(body []byte, policy ElementPolicy) (articles []domain.Article, skipped []*ElementError, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, fmt.Errorf("%w: empty body", ErrDecodeFailed)
	}

	var env jsonObject
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	rawResp, ok := env.member("response")
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing response object", ErrDecodeFailed)
	}
	var resp jsonObject
	if err := json.Unmarshal(rawResp, &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: response: %w", ErrDecodeFailed, err)
	}
	rawResults, ok := resp.member("results")
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing response.results array", ErrDecodeFailed)
	}
	var results []json.RawMessage
	if err := json.Unmarshal(rawResults, &results); err != nil {
		return nil, nil, fmt.Errorf("%w: response.results: %w", ErrDecodeFailed, err)
	}

	articles = make([]domain.Article, 0, len(results))
	for i, raw := range results {
		art, elemErr := decodeResult(i, raw)
		if elemErr != nil {
			if policy == SkipInvalid {
				skipped = append(skipped, elemErr)
				continue
			}
			return articles, skipped, elemErr
		}
		articles = append(articles, art)
	}
	return articles, skipped, nil
}

func decodeResult(idx int, raw json.RawMessage) (domain.Article, *ElementError) {
	var res jsonObject
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.Article{}, &ElementError{Index: idx, Err: err}
	}

	// str decodes a string member; optional members may be absent or null.
	str := func(obj jsonObject, key, path string, required bool) (string, *ElementError) {
		v, ok := obj.member(key)
		if !ok {
			if required {
				return "", &ElementError{Index: idx, Field: path, Err: errMissingField}
			}
			return "", nil
		}
		var out string
		if err := json.Unmarshal(v, &out); err != nil {
			return "", &ElementError{Index: idx, Field: path, Err: err}
		}
		return out, nil
	}

	section, elemErr := str(res, "sectionName", "sectionName", true)
	if elemErr != nil {
		return domain.Article{}, elemErr
	}
	webURL, elemErr := str(res, "webUrl", "webUrl", true)
	if elemErr != nil {
		return domain.Article{}, elemErr
	}

	rawFields, ok := res.member("fields")
	if !ok {
		return domain.Article{}, &ElementError{Index: idx, Field: "fields", Err: errMissingField}
	}
	var fields jsonObject
	if err := json.Unmarshal(rawFields, &fields); err != nil {
		return domain.Article{}, &ElementError{Index: idx, Field: "fields", Err: err}
	}

	headline, elemErr := str(fields, "headline", "fields.headline", true)
	if elemErr != nil {
		return domain.Article{}, elemErr
	}
	published, elemErr := str(fields, "firstPublicationDate", "fields.firstPublicationDate", true)
	if elemErr != nil {
		return domain.Article{}, elemErr
	}
	// A null or absent thumbnail is "", never the literal "null".
	thumbnail, elemErr := str(fields, "thumbnail", "fields.thumbnail", false)
	if elemErr != nil {
		return domain.Article{}, elemErr
	}

	return domain.Article{
		SectionName:     section,
		PublicationDate: published,
		WebURL:          webURL,
		Headline:        headline,
		ThumbnailURL:    thumbnail,
	}, nil
}
