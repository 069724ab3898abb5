package fetcher

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the per-item deadline elapsed before the page arrived.
var ErrTimeout = errors.New("fetch timed out")

// ErrTooLarge indicates a response body exceeded the configured size limit.
var ErrTooLarge = errors.New("response body too large")

// NetworkError is a transport failure or a non-2xx response.
// StatusCode is zero for transport failures.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "network error"
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
