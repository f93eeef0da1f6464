package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gala-ticketing/internal/logger"
)

// Dispatcher runs notification work off the request path. Wait blocks until
// everything dispatched so far has finished.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     *logger.Logger
}

func NewDispatcher(timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{timeout: timeout, log: log}
}

func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("EMAIL", fmt.Sprintf("%s panicked: %v", name, r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
