package audit

import (
	"context"
	"log"
)

// Worker drains audit events from a channel and appends them to the store,
// keeping the request path free of sink latency. Append failures are logged
// and dropped rather than crashing the drain loop; audit is best-effort by
// contract.
type Worker struct {
	store Store
	inbox <-chan Event
	log   *log.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *log.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, log: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.log.Printf("audit append failed for %s: %v", event.Digest.Short(), err)
			}
		}
	}
}
