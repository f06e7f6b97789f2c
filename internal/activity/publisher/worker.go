package publisher

import (
	"context"
	"log/slog"

	"hirelog/internal/activity"
)

// Worker consumes event copies from the mirror inbox and hands them to the
// sink. Publish failures are logged and skipped; the durable record is
// already in the store, so the mirror never retries at the cost of
// backlogging the inbox.
type Worker struct {
	sink   Sink
	inbox  <-chan activity.Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan activity.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "mirror publish failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
