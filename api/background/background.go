package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs tasks that outlive the request which started them. Tasks
// get a context cancelled on Shutdown and are waited for.
type Background struct {
	log    logrus.FieldLogger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logrus.FieldLogger) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go starts fn in its own goroutine. A panic in fn is logged, not propagated.
func (b *Background) Go(name string, fn func(ctx context.Context)) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"task":  name,
					"panic": fmt.Sprint(rec),
				}).Error("background task panicked")
			}
		}()

		fn(b.ctx)
	}()
}

// Shutdown cancels the running tasks and waits for them until ctx expires.
func (b *Background) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
