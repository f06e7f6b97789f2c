package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirelog/internal/activity"
)

// recordingSink captures published events and can be told to fail a number
// of publishes first.
type recordingSink struct {
	mu        sync.Mutex
	published []activity.Event
	failures  int
}

func (r *recordingSink) Publish(_ context.Context, event activity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("broker unreachable")
	}
	r.published = append(r.published, event)
	return nil
}

func (r *recordingSink) events() []activity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]activity.Event(nil), r.published...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerDrainsInbox(t *testing.T) {
	sink := &recordingSink{}
	inbox := make(chan activity.Event, 8)
	worker := NewWorker(sink, inbox, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for i := 0; i < 3; i++ {
		inbox <- activity.Event{Actor: "Jane Doe", Action: "view", Kind: activity.KindView}
	}
	waitFor(t, func() bool { return len(sink.events()) == 3 })

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSkipsFailedPublishes(t *testing.T) {
	sink := &recordingSink{failures: 2}
	inbox := make(chan activity.Event, 8)
	worker := NewWorker(sink, inbox, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	for i := 0; i < 4; i++ {
		inbox <- activity.Event{Actor: "Jane Doe", Action: "create", Kind: activity.KindCreate}
	}

	// The two failed events are dropped, not retried.
	waitFor(t, func() bool { return len(sink.events()) == 2 })
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, sink.events(), 2)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	inbox := make(chan activity.Event)
	worker := NewWorker(sink, inbox, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Empty(t, sink.events())
}
