package worker

import (
	"context"
	"sync"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/wire"
)

// Worker executes one encoded sampling request.
type Worker interface {
	Sample(ctx context.Context, request []byte) ([]byte, error)
}

type job struct {
	ctx     context.Context
	request []byte
	reply   chan []byte
}

// Local is an in-process Worker backed by a fixed pool of goroutines.
type Local struct {
	jobs      chan job
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewLocal starts size goroutines. They log through the logger carried by
// ctx and stop when Close is called.
func NewLocal(ctx context.Context, size int) *Local {
	if size < 1 {
		size = 1
	}
	l := &Local{
		jobs:   make(chan job),
		closed: make(chan struct{}),
	}
	l.wg.Add(size)
	for i := 0; i < size; i++ {
		go l.loop(ctx, i)
	}
	return l
}

func (l *Local) loop(ctx context.Context, workerID int) {
	defer l.wg.Done()
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")
	for {
		select {
		case j := <-l.jobs:
			jobCtx := ctxlog.WithLogger(j.ctx, logger)
			if jobCtx.Err() != nil {
				logger.Debug("Dropping cancelled request.")
				close(j.reply)
				continue
			}
			j.reply <- wire.Execute(jobCtx, j.request)
		case <-l.closed:
			logger.Debug("Worker finished.")
			return
		}
	}
}

// Sample hands the request to an idle goroutine and waits for its response.
func (l *Local) Sample(ctx context.Context, request []byte) ([]byte, error) {
	j := job{ctx: ctx, request: request, reply: make(chan []byte, 1)}
	select {
	case l.jobs <- j:
	case <-l.closed:
		return nil, ErrWorkerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp, ok := <-j.reply:
		if !ok {
			return nil, ctx.Err()
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the pool and waits for running requests to finish.
func (l *Local) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	l.wg.Wait()
	return nil
}
