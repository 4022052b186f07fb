package stream

import (
	"context"
	"sync"
	"time"
)

// EventType identifies what happened to a user's ledger.
type EventType string

const (
	EventPurchaseCompleted EventType = "purchase_completed"
	EventPurchaseFailed    EventType = "purchase_failed"
	EventCreditsDeducted   EventType = "credits_deducted"
)

// Event describes one ledger change for the dashboard live feed.
type Event struct {
	Type          EventType `json:"type"`
	UserID        string    `json:"user_id"`
	Credits       int64     `json:"credits"`
	Balance       int64     `json:"balance"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Stream fan-outs ledger events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
