package trajectory

import (
	"sync"
	"time"
)

// EventType discriminates a trajectory lifecycle event (spec §4.9).
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event is broadcast on every trajectory save/delete.
type Event struct {
	Type      EventType
	ID        string
	UpdatedAt time.Time
	Title     string
}

// broadcastBuffer is the per-subscriber channel buffer; once full, older
// events are dropped to make room for new ones (spec §4.11's "SSE
// subscribers may miss events if they lag beyond the broadcast buffer
// (drop-oldest policy)").
const broadcastBuffer = 64

// Broadcaster is an in-process pub-sub fan-out of trajectory Events, feeding
// the SSE endpoint (spec §4.9).
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroadcaster returns a ready-to-use Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[chan Event]struct{}{}}
}

// Subscribe registers a new listener; call the returned func to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, broadcastBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish fans out ev to every current subscriber, dropping the oldest
// buffered event for any subscriber whose channel is full rather than
// blocking the publisher.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
