package client

import (
	"errors"
	"fmt"
)

// ErrInFlight is returned when a workflow is triggered again while its previous request is outstanding.
var ErrInFlight = errors.New("a request is already in progress, please wait")

const genericRejection = "The request could not be completed. Please try again."

// TransportError means the request could not complete: connection refused, timeout, unreadable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: could not reach the server: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError is an application-level rejection: the server answered with success false.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return genericRejection
	}
	return e.Message
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is, or wraps, a *RejectedError with one of the given statuses
// (any status when none is given).
func IsRejected(err error, statuses ...int) bool {
	var re *RejectedError
	if !errors.As(err, &re) {
		return false
	}
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if re.Status == s {
			return true
		}
	}
	return false
}
