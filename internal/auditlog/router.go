package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// Router resolves a category to its collection and hands the document to the
// sink. Write failures stay inside the router.
type Router struct {
	sink   Sink
	reader Reader
	logger zerolog.Logger
	now    func() time.Time
}

// NewRouter constructs a router writing to sink and reading from reader.
func NewRouter(sink Sink, reader Reader, logger zerolog.Logger) *Router {
	return &Router{
		sink:   sink,
		reader: reader,
		logger: logger.With().Str("component", "audit_router").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// LogAction stores doc under the collection for category. It never fails.
func (r *Router) LogAction(ctx context.Context, category audit.Category, doc Document) {
	collection := category.Collection()

	doc.Category = category.Canonical()
	doc.Collection = collection
	doc.Timestamp = r.now()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	if err := r.sink.Insert(ctx, collection, doc); err != nil {
		r.logger.Warn().
			Err(err).
			Str("collection", collection).
			Str("action", doc.Action).
			Str("status", string(doc.Status)).
			Msg("audit log write failed")
	}
}

// Find returns every document of the category's collection, newest first.
func (r *Router) Find(ctx context.Context, category audit.Category) ([]Document, error) {
	return r.reader.Find(ctx, category.Collection())
}
