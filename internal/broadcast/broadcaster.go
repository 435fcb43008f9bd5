package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-community-alerts/internal/board"
)

const DefaultBufferSize = 100

// Broadcaster fans board events out to streaming subscribers.
type Broadcaster struct {
	subscribers map[uint64]chan board.Event
	bufferSize  int
	nextID      atomic.Uint64
	closed      bool
	mu          sync.RWMutex
}

func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		subscribers: make(map[uint64]chan board.Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel that receives every published event until
// Unsubscribe or Close. Subscribing after Close yields a closed channel.
func (b *Broadcaster) Subscribe() (uint64, <-chan board.Event) {
	id := b.nextID.Add(1)
	ch := make(chan board.Event, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Publish(ev board.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Skip slow subscribers
		}
	}
}

// Observer adapts the broadcaster for board.Store.Subscribe.
func (b *Broadcaster) Observer() board.Observer {
	return b.Publish
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
