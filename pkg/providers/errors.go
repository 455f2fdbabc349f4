package providers

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedURL        = errors.New("malformed request url")
	ErrFetchFailed         = errors.New("fetch failed")
	ErrDecodeFailed        = errors.New("decode failed")
	ErrElementDecodeFailed = errors.New("result element decode failed")
)

// FetchError reports a non-200 response or a transport failure.
type FetchError struct {
	StatusCode int // zero for transport failures
	Snippet    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d body: %s", ErrFetchFailed, e.StatusCode, e.Snippet)
	}
	if e.Err != nil {
		return ErrFetchFailed.Error() + ": " + e.Err.Error()
	}
	return ErrFetchFailed.Error()
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// ElementError reports a results element that is missing a required field or has the wrong shape.
type ElementError struct {
	Index int
	Field string
	Err   error
}

func (e *ElementError) Error() string {
	msg := fmt.Sprintf("%s: results[%d]", ErrElementDecodeFailed, e.Index)
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ElementError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrElementDecodeFailed}
	}
	return []error{ErrElementDecodeFailed, e.Err}
}

// ErrorKind names the pipeline failure class of err for log fields.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedURL):
		return "malformed_url"
	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, ErrElementDecodeFailed):
		return "element_decode_failed"
	default:
		return "unknown"
	}
}
