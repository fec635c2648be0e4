package audit

import (
	"context"
	"errors"
)

// ErrInboxFull is returned when the audit inbox cannot accept another event.
// Audit is best-effort; callers log and move on.
var ErrInboxFull = errors.New("audit inbox full")

// ChannelStore decouples event capture from sink latency: Append enqueues and
// returns immediately, a Worker drains the inbox into the real sink.
type ChannelStore struct {
	inbox chan Event
}

func NewChannelStore(buffer int) *ChannelStore {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelStore{inbox: make(chan Event, buffer)}
}

// Inbox is the drain side, consumed by a Worker.
func (s *ChannelStore) Inbox() <-chan Event {
	return s.inbox
}

func (s *ChannelStore) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		return ErrInboxFull
	}
}
