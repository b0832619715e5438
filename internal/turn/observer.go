package turn

import (
	"context"
	"log/slog"
)

type observation struct {
	prev Snapshot
	next Snapshot
}

type asyncObserver struct {
	logger *slog.Logger
	queue  chan observation
}

// Async delivers snapshots to obs in order on its own goroutine so slow
// observers do not stall the controller. Observations are dropped when the
// queue is full.
func Async(ctx context.Context, logger *slog.Logger, obs Observer, size int) Observer {
	if size <= 0 {
		size = 32
	}
	a := &asyncObserver{logger: logger, queue: make(chan observation, size)}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case o := <-a.queue:
				obs.Observe(ctx, o.prev, o.next)
			}
		}
	}()
	return a
}

func (a *asyncObserver) Observe(_ context.Context, prev, next Snapshot) {
	select {
	case a.queue <- observation{prev: prev, next: next}:
	default:
		if a.logger != nil {
			a.logger.Debug("observer queue full, dropping snapshot", "state", string(next.State))
		}
	}
}
