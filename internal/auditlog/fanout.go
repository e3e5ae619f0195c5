package auditlog

import (
	"context"

	"github.com/rs/zerolog"
)

// Fanout writes to a primary store and then copies to best-effort mirrors.
// Only the primary's error is returned.
type Fanout struct {
	primary Store
	mirrors []Sink
	logger  zerolog.Logger
}

// NewFanout composes a primary store with optional mirrors. Nil mirrors are skipped.
func NewFanout(primary Store, logger zerolog.Logger, mirrors ...Sink) *Fanout {
	active := make([]Sink, 0, len(mirrors))
	for _, mirror := range mirrors {
		if mirror != nil {
			active = append(active, mirror)
		}
	}

	return &Fanout{
		primary: primary,
		mirrors: active,
		logger:  logger.With().Str("component", "audit_fanout").Logger(),
	}
}

func (f *Fanout) Insert(ctx context.Context, collection string, doc Document) error {
	if err := f.primary.Insert(ctx, collection, doc); err != nil {
		return err
	}

	for _, mirror := range f.mirrors {
		if err := mirror.Insert(ctx, collection, doc); err != nil {
			f.logger.Warn().Err(err).Str("collection", collection).Msg("audit mirror write failed")
		}
	}
	return nil
}

func (f *Fanout) Find(ctx context.Context, collection string) ([]Document, error) {
	return f.primary.Find(ctx, collection)
}
