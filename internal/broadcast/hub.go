package broadcast

import (
	"context"
	"sync"
	"time"
)

// DefaultAwaitTimeout is how long a subscriber parks before giving up and
// emitting a keep-alive instead of fresh data.
const DefaultAwaitTimeout = 15 * time.Second

// Hub is a per-facility pulse broadcaster. A pulse carries no payload; it
// only tells parked subscribers that the facility's data changed and a
// re-read is worthwhile. Pulses fired while nobody is parked are dropped.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]chan struct{}
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]chan struct{})}
}

// Signal wakes every subscriber currently parked on the facility. The
// current channel is closed and replaced, so late arrivals wait on a fresh
// one and each pulse is observed at most once per subscriber.
func (h *Hub) Signal(facilityID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.channels[facilityID]; ok {
		close(ch)
	}
	h.channels[facilityID] = make(chan struct{})
}

// AwaitSignal blocks until the facility is signalled, the timeout elapses,
// or ctx is done. It reports true when a pulse arrived and false on timeout;
// the error is non-nil only for context cancellation. A non-positive timeout
// falls back to DefaultAwaitTimeout.
func (h *Hub) AwaitSignal(ctx context.Context, facilityID string, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultAwaitTimeout
	}
	ch := h.subscribe(facilityID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (h *Hub) subscribe(facilityID string) chan struct{} {
	h.mu.RLock()
	ch, ok := h.channels[facilityID]
	h.mu.RUnlock()
	if ok {
		return ch
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.channels[facilityID]; ok {
		return ch
	}
	ch = make(chan struct{})
	h.channels[facilityID] = ch
	return ch
}
