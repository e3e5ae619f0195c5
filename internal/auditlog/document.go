// Package auditlog routes server-side audit documents to their collection and
// owns the sinks that persist, mirror and stream them.
package auditlog

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// ErrQueueFull is returned when the in-process queue has no free slot.
var ErrQueueFull = errors.New("audit queue full")

// ErrQueueClosed is returned after the queue has begun shutting down.
var ErrQueueClosed = errors.New("audit queue closed")

// Document is one audit record as stored server-side. Timestamp is stamped by
// the server and drives read ordering; ClientTimestamp keeps whatever the
// caller reported.
type Document struct {
	ID              string         `json:"id" bson:"_id"`
	Category        audit.Category `json:"category" bson:"category"`
	Collection      string         `json:"collection" bson:"collection"`
	Action          string         `json:"action" bson:"action"`
	Performer       string         `json:"performer" bson:"performer"`
	Status          audit.Status   `json:"status" bson:"status"`
	Details         any            `json:"details,omitempty" bson:"details,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	Student         string         `json:"student,omitempty" bson:"student,omitempty"`
	Course          string         `json:"course,omitempty" bson:"course,omitempty"`
	Grade           string         `json:"grade,omitempty" bson:"grade,omitempty"`
	ClientID        string         `json:"clientId,omitempty" bson:"clientId,omitempty"`
	ClientTimestamp *time.Time     `json:"clientTimestamp,omitempty" bson:"clientTimestamp,omitempty"`
	Timestamp       time.Time      `json:"timestamp" bson:"timestamp"`
}

// Sink accepts documents for a physical collection.
type Sink interface {
	Insert(ctx context.Context, collection string, doc Document) error
}

// Reader returns every document of a collection, newest first.
type Reader interface {
	Find(ctx context.Context, collection string) ([]Document, error)
}

// Store is a sink that can also be read back.
type Store interface {
	Sink
	Reader
}
