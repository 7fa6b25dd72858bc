package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.RoundChanged(3)

	assert.Equal(t, 3, <-a)
	assert.Equal(t, 3, <-b)
}

func TestHubSkipsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()

	// Fill the buffer, then broadcast twice more. The hub must not block.
	hub.RoundChanged(1)
	hub.RoundChanged(2)
	hub.RoundChanged(3)

	assert.Equal(t, 1, <-slow, "only the buffered round is delivered")
	select {
	case v := <-slow:
		t.Fatalf("unexpected extra delivery: %d", v)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	_, open := <-ch
	require.False(t, open)

	// Double unsubscribe must not panic.
	hub.Unsubscribe(ch)
	hub.RoundChanged(9)
}
