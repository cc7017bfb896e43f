package tailor

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// StatusError is returned when the tailoring service answers with a non-2xx status
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server Error %d: %s", e.Status, e.Detail)
}

// NetworkError is returned when no HTTP response was received at all
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not reach tailoring service at %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a successful response body could not be read
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to read tailored document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err comes from a request that ran out of time,
// either through the client timeout or a context deadline
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
