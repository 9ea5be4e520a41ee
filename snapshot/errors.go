package snapshot

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every fetch or parse failure via errors.Is, so callers
// can treat the whole taxonomy as one recoverable condition.
var ErrUnavailable = errors.New("snapshot unavailable")

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrUnavailable }

// ParseError reports a body that is not JSON, is malformed, violates the
// snapshot schema or exceeds the configured size limit.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrUnavailable }
