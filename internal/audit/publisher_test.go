package audit

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/internal/digest"
)

func TestPublisherStampsIdentityAndTime(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	d := digest.Compute([]byte("audited"))
	err := publisher.Emit(context.Background(), Event{
		Action:    ActionRegistered,
		Digest:    d,
		Submitter: "alice",
		Outcome:   "registered",
	})
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionRegistered, events[0].Action)
	assert.Equal(t, d, events[0].Digest)
}

func TestNilPublisherDropsEvents(t *testing.T) {
	var publisher *Publisher
	err := publisher.Emit(context.Background(), Event{Action: ActionVerified})
	require.NoError(t, err)
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(store, inbox, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{Action: ActionRegistered}
	inbox <- Event{Action: ActionVerified}

	require.Eventually(t, func() bool {
		return len(store.Events()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
