package auditlog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/internal/observability"
)

const defaultWriteTimeout = 5 * time.Second

type queuedDocument struct {
	collection string
	doc        Document
}

// Queue decouples audit writes from request handling. Insert never blocks:
// when the buffer is full the document is dropped and counted. A single
// goroutine drains the buffer into the wrapped sink.
type Queue struct {
	sink    Sink
	items   chan queuedDocument
	done    chan struct{}
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the drain goroutine. Call Close to stop it.
func NewQueue(sink Sink, size int, writeTimeout time.Duration, logger zerolog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	q := &Queue{
		sink:    sink,
		items:   make(chan queuedDocument, size),
		done:    make(chan struct{}),
		timeout: writeTimeout,
		logger:  logger.With().Str("component", "audit_queue").Logger(),
	}
	go q.loop()
	return q
}

func (q *Queue) Insert(_ context.Context, collection string, doc Document) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		observability.AuditDropped().WithLabelValues(collection).Inc()
		return ErrQueueClosed
	}

	select {
	case q.items <- queuedDocument{collection: collection, doc: doc}:
		observability.AuditEnqueued().WithLabelValues(collection).Inc()
		observability.AuditQueueDepth().Inc()
		return nil
	default:
		observability.AuditDropped().WithLabelValues(collection).Inc()
		return ErrQueueFull
	}
}

// Len reports how many documents are waiting.
func (q *Queue) Len() int {
	return len(q.items)
}

// Close stops accepting documents and waits for the backlog to drain or for
// ctx to expire, whichever comes first.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) loop() {
	defer close(q.done)

	for item := range q.items {
		observability.AuditQueueDepth().Dec()
		if item.doc.Timestamp.IsZero() {
			item.doc.Timestamp = time.Now().UTC()
		}

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.sink.Insert(ctx, item.collection, item.doc)
		cancel()

		if err != nil {
			observability.AuditFailures().WithLabelValues(item.collection).Inc()
			q.logger.Error().
				Err(err).
				Str("collection", item.collection).
				Str("action", item.doc.Action).
				Msg("failed to persist audit document")
			continue
		}
		observability.AuditWritten().WithLabelValues(item.collection).Inc()
	}
}
