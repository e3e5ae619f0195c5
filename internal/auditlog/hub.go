package auditlog

import (
	"context"
	"sync"

	"github.com/noah-isme/sao-registrar-api/internal/observability"
)

const subscriberBufferSize = 32

// Hub broadcasts inserted documents to live subscribers. A subscriber that
// falls behind loses frames instead of slowing the writer.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Document]string
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Document]string)}
}

// Subscribe registers a listener for one collection, or for all of them when
// collection is empty. The returned func must be called once to release it.
func (h *Hub) Subscribe(collection string) (<-chan Document, func()) {
	ch := make(chan Document, subscriberBufferSize)

	h.mu.Lock()
	h.subscribers[ch] = collection
	h.mu.Unlock()
	observability.AuditStreamClients().Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			close(ch)
			h.mu.Unlock()
			observability.AuditStreamClients().Dec()
		})
	}
	return ch, cancel
}

// Subscribers reports the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) Insert(_ context.Context, collection string, doc Document) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, filter := range h.subscribers {
		if filter != "" && filter != collection {
			continue
		}
		select {
		case ch <- doc:
		default:
		}
	}
	return nil
}
