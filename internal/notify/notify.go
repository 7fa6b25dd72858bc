// Package notify defines the round-change notification capability and an
// in-process fan-out hub. The engine fires and forgets; delivery, ordering,
// and retries belong to whatever transport subscribes behind the hub.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier informs subscribed clients that a new round began.
type Notifier interface {
	RoundChanged(round int)
}

// Hub broadcasts round changes to in-process subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan int]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan int]struct{})}
}

// Subscribe registers a new subscriber channel. The channel is buffered;
// a subscriber that falls behind misses intermediate rounds rather than
// blocking the broadcast.
func (h *Hub) Subscribe() chan int {
	ch := make(chan int, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan int) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// RoundChanged delivers the new round number to every subscriber without
// blocking on any of them.
func (h *Hub) RoundChanged(round int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- round:
		default:
		}
	}
}

// LogNotifier records round changes in the log. Fallback when no transport
// is wired.
type LogNotifier struct{}

func (LogNotifier) RoundChanged(round int) {
	slog.Info("round changed", "round", round)
}
