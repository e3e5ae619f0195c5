package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher mirrors documents onto "<subject>.<collection>".
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher constructs a publisher for the given subject prefix.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Subject returns the subject a collection is published on.
func (p *NATSPublisher) Subject(collection string) string {
	return fmt.Sprintf("%s.%s", p.subject, collection)
}

func (p *NATSPublisher) Insert(_ context.Context, collection string, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(collection), payload)
}
