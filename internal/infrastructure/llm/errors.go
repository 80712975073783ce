package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TransientError marks a failure that may succeed if the caller retries.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// FatalError marks a failure that will not go away on retry.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// IsTransient reports whether err is a rate limit, overload or server error.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err is a permanent API failure.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// classify turns a non-2xx response into a typed error.
func classify(provider string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err := fmt.Errorf("%s error %s: %s", provider, resp.Status, strings.TrimSpace(string(payload)))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return &TransientError{err: err}
	}
	return &FatalError{err: err}
}
