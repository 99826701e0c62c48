package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHistorySize = 100

// Hub is an in-process Publisher with explicit subscriptions and a bounded history.
// Events reach subscribers synchronously, one Publish at a time.
type Hub struct {
	logger *zap.Logger

	// publishMu serializes delivery so every subscriber sees the same order.
	publishMu sync.Mutex

	mu       sync.Mutex
	handlers []handlerEntry
	nextID   int64
	history  []Event
	head     int
	count    int
}

type handlerEntry struct {
	id      int64
	handler Handler
}

// NewHub creates a hub remembering the last historySize events (100 when <= 0).
func NewHub(logger *zap.Logger, historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		logger:  logger,
		history: make([]Event, historySize),
	}
}

// Publish records e and hands it to every subscriber. ID and OccurredAt are filled when empty.
func (h *Hub) Publish(ctx context.Context, e Event) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	h.mu.Lock()
	h.history[h.head] = e
	h.head = (h.head + 1) % len(h.history)
	if h.count < len(h.history) {
		h.count++
	}
	handlers := make([]handlerEntry, len(h.handlers))
	copy(handlers, h.handlers)
	h.mu.Unlock()

	h.logger.Debug("notification published",
		zap.String("kind", string(e.Kind)),
		zap.String("status", e.Status),
		zap.Int("subscribers", len(handlers)))

	for _, entry := range handlers {
		entry.handler(ctx, e)
	}
}

// Subscribe registers handler and returns a function removing it.
func (h *Hub) Subscribe(handler Handler) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers = append(h.handlers, handlerEntry{id: id, handler: handler})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, entry := range h.handlers {
				if entry.id == id {
					h.handlers = append(h.handlers[:i], h.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscribeChan delivers events on a buffered channel. When the buffer is full
// the event is dropped for this subscriber. cancel unsubscribes and closes the channel.
func (h *Hub) SubscribeChan(buffer int) (events <-chan Event, cancel func()) {
	ch := make(chan Event, buffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	unsubscribe := h.Subscribe(func(_ context.Context, e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			h.logger.Warn("notification dropped, subscriber buffer full",
				zap.String("kind", string(e.Kind)),
				zap.String("id", e.ID))
		}
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

// Recent returns up to n of the latest events, oldest first. n <= 0 returns all retained events.
func (h *Hub) Recent(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > h.count {
		n = h.count
	}
	out := make([]Event, 0, n)
	start := (h.head - n + len(h.history)) % len(h.history)
	for i := 0; i < n; i++ {
		out = append(out, h.history[(start+i)%len(h.history)])
	}
	return out
}
