package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe()
	c := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	ev := models.StreamEvent{Type: "price", Symbol: "AAPL", Price: 101, Timestamp: time.Now()}
	b.Publish(ev)

	for _, ch := range []chan models.StreamEvent{a, c} {
		select {
		case got := <-ch:
			assert.Equal(t, ev.Symbol, got.Symbol)
			assert.Equal(t, ev.Price, got.Price)
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())

	// double unsubscribe is a no-op
	b.Unsubscribe(ch)
}

func TestBroadcasterDropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()

	for i := 0; i < 200; i++ {
		b.Publish(models.StreamEvent{Type: "price", Symbol: "AAPL", Price: float64(i)})
	}

	// the buffer bounds delivery; publishing never blocked to get here
	require.Equal(t, 64, len(ch))
}
