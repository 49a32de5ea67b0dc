package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when a source answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsRetryable reports whether the status is worth another attempt.
// Server errors, timeouts and rate limiting are transient; other client
// errors mean the resource is not there and will not appear on retry.
func (e *StatusError) IsRetryable() bool {
	switch {
	case e.Code >= 500:
		return true
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests:
		return true
	}
	return false
}

// IsNotFound reports whether err is a 404 or 410 from the source.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusGone
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	type retryable interface {
		IsRetryable() bool
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	// Network failures and timeouts default to retryable.
	return true
}
