// Package events carries the "data changed" signal emitted after every
// successful mutation. The engine publishes only after durable commit;
// what happens past the process boundary (websockets, push) is somebody
// else's transport.
package events

import (
	"sync"
	"time"
)

// Topics the engine publishes on.
const (
	TopicRequests     = "requests"
	TopicStock        = "stock"
	TopicUsageReports = "usage_reports"
)

type Change struct {
	Topic      string
	EngineerID string
	At         time.Time
}

type Bus struct {
	mu     sync.RWMutex
	subs   []chan Change
	closed bool
}

func NewBus() *Bus { return &Bus{} }

// Subscribe returns a buffered channel of changes. The channel is closed
// when the bus shuts down.
func (b *Bus) Subscribe() <-chan Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Change, 16)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish fans the change out to all subscribers. A subscriber that has
// fallen behind loses the signal rather than blocking the mutation path;
// listeners treat any signal as "refresh", so a dropped one is only a
// delayed refresh.
func (b *Bus) Publish(topic, engineerID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	c := Change{Topic: topic, EngineerID: engineerID, At: time.Now()}
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
