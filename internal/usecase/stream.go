package usecase

import (
	"sync"

	"StockCast/internal/domain/models"
)

// Broadcaster fans live price and forecast events out to stream
// subscribers. Publish never blocks: a subscriber that stops draining its
// channel loses events rather than stalling the pollers.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan models.StreamEvent]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan models.StreamEvent]struct{})}
}

// Subscribe registers a new listener and returns its event channel.
func (b *Broadcaster) Subscribe() chan models.StreamEvent {
	ch := make(chan models.StreamEvent, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan models.StreamEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to every subscriber that has buffer room.
func (b *Broadcaster) Publish(ev models.StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the current listener count.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
