package auditclient

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// MaxEntries bounds the local log.
const MaxEntries = 1000

const sendTimeout = 10 * time.Second

// Writer appends entries to the local log, newest first, and forwards each
// one to the API without waiting for it.
type Writer struct {
	store  KV
	sender Sender
	token  TokenSource
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight sync.WaitGroup
}

// NewWriter constructs a writer. sender may be nil to keep entries local.
// The bearer token is read from the cached current user.
func NewWriter(store KV, sender Sender, logger zerolog.Logger) *Writer {
	return &Writer{
		store:  store,
		sender: sender,
		token:  CurrentUserToken(store),
		logger: logger.With().Str("component", "audit_client").Logger(),
		now:    time.Now,
	}
}

// Record stamps entry with an id and timestamp, stores it locally and sends
// it. Local persistence failures are logged, never returned.
func (w *Writer) Record(entry audit.Entry) audit.Entry {
	now := w.now().UTC()
	entry.ID = newEntryID(now)
	entry.Timestamp = now
	if strings.TrimSpace(string(entry.Category)) == "" {
		entry.Category = audit.CategoryGeneral
	}
	if entry.Status == "" {
		entry.Status = audit.StatusSuccess
	}

	w.mu.Lock()
	entries := append([]audit.Entry{entry}, w.load()...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	w.persist(entries)
	w.mu.Unlock()

	if w.sender != nil {
		w.inflight.Add(1)
		go w.send(entry)
	}
	return entry
}

// Entries returns the local log, newest first.
func (w *Writer) Entries() []audit.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.load()
}

// Clear empties the local log. Entries already sent stay on the server.
func (w *Writer) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Delete(KeyAuditLogs)
}

// Wait blocks until every in-flight send has finished.
func (w *Writer) Wait() {
	w.inflight.Wait()
}

func (w *Writer) load() []audit.Entry {
	raw, err := w.store.Get(KeyAuditLogs)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			w.logger.Warn().Err(err).Msg("failed to read local audit log")
		}
		return []audit.Entry{}
	}

	var entries []audit.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		w.logger.Warn().Err(err).Msg("failed to parse local audit log")
		return []audit.Entry{}
	}
	return entries
}

// persist writes the whole log. On failure it halves the log and tries once
// more.
func (w *Writer) persist(entries []audit.Entry) {
	err := w.save(entries)
	if err == nil {
		return
	}

	keep := len(entries) / 2
	if keep == 0 {
		keep = 1
	}
	w.logger.Warn().Err(err).Int("entries", len(entries)).Int("retained", keep).Msg("local audit log write failed, trimming")

	if err := w.save(entries[:keep]); err != nil {
		w.logger.Error().Err(err).Msg("local audit log write failed after trim")
	}
}

func (w *Writer) save(entries []audit.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return w.store.Set(KeyAuditLogs, raw)
}

func (w *Writer) send(entry audit.Entry) {
	defer w.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := w.sender.Send(ctx, entry, w.token()); err != nil {
		w.logger.Warn().Err(err).Str("entry_id", entry.ID).Str("action", entry.Action).Msg("failed to send audit entry")
	}
}

// newEntryID is the millisecond timestamp followed by a short random suffix.
// It is unique enough for a single client's log, nothing more.
func newEntryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
