package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// Column widths of the sized record fields. Failure documents carry raw
// request values, so toRecord clips to these before insert.
const (
	actionWidth    = 128
	performerWidth = 255
	studentWidth   = 64
	courseWidth    = 16
	gradeWidth     = 16
	clientIDWidth  = 64
)

// record is the relational shape of a Document. Each collection gets its own
// table with this layout.
type record struct {
	ID              string         `gorm:"primaryKey;size:36"`
	Category        string         `gorm:"size:32;not null"`
	Action          string         `gorm:"size:128;not null"`
	Performer       string         `gorm:"size:255"`
	Status          string         `gorm:"size:16;not null"`
	Details         datatypes.JSON `gorm:"type:json"`
	ErrorMessage    string         `gorm:"type:text"`
	Student         string         `gorm:"size:64"`
	Course          string         `gorm:"size:16"`
	Grade           string         `gorm:"size:16"`
	ClientID        string         `gorm:"size:64"`
	ClientTimestamp *time.Time
	Timestamp       time.Time `gorm:"not null"`
}

// GormStore keeps audit documents in the relational database, one table per
// collection. It backs deployments without a document store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a relational audit store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the table behind every known collection.
func (s *GormStore) Migrate(ctx context.Context) error {
	for _, name := range audit.Collections() {
		if err := s.db.WithContext(ctx).Table(name).AutoMigrate(&record{}); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, collection string, doc Document) error {
	row, err := toRecord(doc)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Table(collection).Create(&row).Error
}

func (s *GormStore) Find(ctx context.Context, collection string) ([]Document, error) {
	var rows []record
	if err := s.db.WithContext(ctx).Table(collection).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document(collection))
	}
	return docs, nil
}

func toRecord(doc Document) (record, error) {
	var details datatypes.JSON
	if doc.Details != nil {
		raw, err := json.Marshal(doc.Details)
		if err != nil {
			return record{}, fmt.Errorf("encode details: %w", err)
		}
		details = datatypes.JSON(raw)
	}

	return record{
		ID:              doc.ID,
		Category:        string(doc.Category),
		Action:          clip(doc.Action, actionWidth),
		Performer:       clip(doc.Performer, performerWidth),
		Status:          string(doc.Status),
		Details:         details,
		ErrorMessage:    doc.ErrorMessage,
		Student:         clip(doc.Student, studentWidth),
		Course:          clip(doc.Course, courseWidth),
		Grade:           clip(doc.Grade, gradeWidth),
		ClientID:        clip(doc.ClientID, clientIDWidth),
		ClientTimestamp: doc.ClientTimestamp,
		Timestamp:       doc.Timestamp,
	}, nil
}

func (r record) document(collection string) Document {
	var details any
	if len(r.Details) > 0 {
		if err := json.Unmarshal(r.Details, &details); err != nil {
			// Rows written outside the API may hold malformed JSON.
			details = string(r.Details)
		}
	}

	return Document{
		ID:              r.ID,
		Category:        audit.Category(r.Category),
		Collection:      collection,
		Action:          r.Action,
		Performer:       r.Performer,
		Status:          audit.Status(r.Status),
		Details:         details,
		ErrorMessage:    r.ErrorMessage,
		Student:         r.Student,
		Course:          r.Course,
		Grade:           r.Grade,
		ClientID:        r.ClientID,
		ClientTimestamp: r.ClientTimestamp,
		Timestamp:       r.Timestamp,
	}
}

// clip shortens s to at most n characters. VARCHAR widths count characters
// on MySQL and Postgres, not bytes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
