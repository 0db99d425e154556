package services

import (
	"sync"
	"sync/atomic"
)

// Phase is one ordered stage of an export or import pipeline.
type Phase string

const (
	// Export phases.
	PhasePreparing  Phase = "preparing"
	PhaseCollecting Phase = "collecting"
	PhaseArchiving  Phase = "archiving"

	// Import phases.
	PhaseExtracting Phase = "extracting"
	PhaseValidating Phase = "validating"
	PhaseCategories Phase = "categories"
	PhaseTags       Phase = "tags"
	PhaseAssets     Phase = "assets"
	PhaseFinalizing Phase = "finalizing"

	PhaseCompleted Phase = "completed"
)

// Event is a progress report. Events are delivered to every subscriber
// and never persisted.
type Event struct {
	Phase          Phase
	TotalUnits     int
	ProcessedUnits int
	CurrentItem    string
	Err            string
}

const subscriberBuffer = 64

// Subscriber receives progress events on C. A slow subscriber drops
// events rather than blocking the orchestrator.
type Subscriber struct {
	C chan Event

	dropped atomic.Uint64
	closed  atomic.Bool
}

func (s *Subscriber) send(e Event) {
	if s.closed.Load() {
		return
	}
	select {
	case s.C <- e:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many events were lost to a full buffer.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscriber) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.C)
	}
}

// Broker is a single-producer, multi-subscriber progress broadcast.
// Late subscribers receive the most recent event on attach, and the
// broker closes every subscriber channel exactly once.
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscriber
	nextID uint64
	last   *Event
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*Subscriber)}
}

// Subscribe attaches a new listener. Returns nil after the broker has
// closed.
func (b *Broker) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	sub := &Subscriber{C: make(chan Event, subscriberBuffer)}
	b.nextID++
	b.subs[b.nextID] = sub

	if b.last != nil {
		sub.send(*b.last)
	}
	return sub
}

// Publish delivers an event to every subscriber.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.last = &e
	for _, sub := range b.subs {
		sub.send(e)
	}
}

// Close shuts the broadcast down after the terminal event. Safe to call
// more than once.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.close()
	}
	b.subs = nil
}
