package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream failures.
var (
	ErrUpstream          = errors.New("upstream request failed")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrPriceUnavailable  = errors.New("token price unavailable")
)

// StatusError captures a non-success upstream HTTP status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap makes every StatusError match ErrUpstream.
func (e *StatusError) Unwrap() error { return ErrUpstream }

// Retryable reports whether a retry could change the outcome. Client errors
// other than 408 and 429 are final.
func (e *StatusError) Retryable() bool {
	if e.StatusCode == 408 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrPriceUnavailable) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
