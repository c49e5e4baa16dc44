package events

import (
	"sync"
	"sync/atomic"
	"time"
)

type Kind string

const (
	KindRegistered     Kind = "registered"
	KindLoggedIn       Kind = "logged_in"
	KindSignedOut      Kind = "signed_out"
	KindAccountDeleted Kind = "account_deleted"
)

type Event struct {
	Kind        Kind
	UserID      string
	Email       string
	DisplayName string
	At          time.Time
}

// Bus fans events out to subscribers. Publish never blocks; a subscriber
// whose buffer is full misses the event and the drop is counted.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	next    int
	buffer  int
	dropped uint64
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{subs: make(map[int]chan Event), buffer: buffer}
}

func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			atomic.AddUint64(&b.dropped, 1)
		}
	}
}

func (b *Bus) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}
