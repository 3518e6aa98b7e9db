package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"docparse/internal/domain"
)

// BackendError reports a failure reaching, authenticating with, or getting a
// successful status from a gateway provider. It matches domain.ErrBackendUnavailable.
type BackendError struct {
	Err        error
	Provider   string
	StatusCode int
	RetryAfter time.Duration
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s backend unavailable: %v", e.Provider, e.Err)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s backend unavailable (status %d, retry after %s): %v", e.Provider, e.StatusCode, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s backend unavailable (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes every BackendError match domain.ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == domain.ErrBackendUnavailable
}

// RateLimited reports whether the provider answered HTTP 429.
func (e *BackendError) RateLimited() bool {
	return e.StatusCode == 429
}

// NewBackendError creates a BackendError for a transport failure or a non-2xx status.
func NewBackendError(provider string, statusCode int, err error) *BackendError {
	return &BackendError{Err: err, Provider: provider, StatusCode: statusCode}
}

// NewRateLimitError creates a BackendError for HTTP 429. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *BackendError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &BackendError{
		Err:        err,
		Provider:   provider,
		StatusCode: 429,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// AsBackendError unwraps err into a *BackendError if it carries one.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// Truncate shortens s to at most maxLen bytes, marking the cut with an
// ellipsis. The cut never splits a multi-byte rune.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
