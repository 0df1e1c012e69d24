package wire

import "errors"

var (
	// ErrMalformedMessage is returned when a request or response cannot be decoded.
	ErrMalformedMessage = errors.New("malformed worker message")
	// ErrUnknownParent is returned when a parent name does not refer to any
	// node of the request.
	ErrUnknownParent = errors.New("unknown parent")
	// ErrWorkerFailed is returned by Merge for a response that reports failure.
	ErrWorkerFailed = errors.New("worker reported failure")
)
