package worker

import "errors"

// ErrWorkerClosed is returned by a worker that no longer accepts requests.
var ErrWorkerClosed = errors.New("worker is closed")
