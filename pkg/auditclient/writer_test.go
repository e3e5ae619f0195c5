package auditclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestWriterRecordsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	writer := NewWriter(store, nil, zerolog.Nop())

	first := writer.Record(audit.Entry{Action: "Create Student", User: "admin@sao.edu"})
	second := writer.Record(audit.Entry{Action: "Update Student", User: "admin@sao.edu", Status: audit.StatusFailed, Category: audit.CategoryCRUD})

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, audit.CategoryGeneral, first.Category)
	require.Equal(t, audit.StatusSuccess, first.Status)
	require.False(t, first.Timestamp.IsZero())

	entries := writer.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "Update Student", entries[0].Action)
	require.Equal(t, audit.CategoryCRUD, entries[0].Category)
	require.Equal(t, "Create Student", entries[1].Action)

	require.NoError(t, writer.Clear())
	require.Empty(t, writer.Entries())
}

func TestWriterCapsLocalLog(t *testing.T) {
	store := NewMemoryStore()
	seed := make([]audit.Entry, MaxEntries)
	for i := range seed {
		seed[i] = audit.Entry{ID: "old", Action: "Old"}
	}
	raw, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAuditLogs, raw))

	writer := NewWriter(store, nil, zerolog.Nop())
	writer.Record(audit.Entry{Action: "New"})

	entries := writer.Entries()
	require.Len(t, entries, MaxEntries)
	require.Equal(t, "New", entries[0].Action)
}

func TestWriterHalvesLogWhenStorageIsFull(t *testing.T) {
	store := NewMemoryStore()
	writer := NewWriter(store, nil, zerolog.Nop())
	writer.now = fixedClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	for i := 0; i < 10; i++ {
		writer.Record(audit.Entry{Action: "Seed"})
	}
	raw, err := store.Get(KeyAuditLogs)
	require.NoError(t, err)
	store.Quota = len(raw) - 1

	writer.Record(audit.Entry{Action: "Overflow"})

	entries := writer.Entries()
	require.Len(t, entries, 5)
	require.Equal(t, "Overflow", entries[0].Action)
}

func TestWriterSwallowsPersistFailure(t *testing.T) {
	store := NewMemoryStore()
	store.Quota = 10
	writer := NewWriter(store, nil, zerolog.Nop())

	entry := writer.Record(audit.Entry{Action: "Too Big"})
	require.NotEmpty(t, entry.ID)
	require.Empty(t, writer.Entries())
}

func TestWriterSendsEntryWithCachedToken(t *testing.T) {
	type captured struct {
		path          string
		authorization string
		entry         audit.Entry
	}
	received := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var entry audit.Entry
		_ = json.Unmarshal(body, &entry)
		received <- captured{path: r.URL.Path, authorization: r.Header.Get("Authorization"), entry: entry}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyCurrentUser, []byte(`{"email":"admin@sao.edu","backendToken":"token-123"}`)))

	writer := NewWriter(store, NewHTTPSender(server.URL, time.Second), zerolog.Nop())
	entry := writer.Record(audit.Entry{Action: "Export", Category: audit.CategoryAPI})
	writer.Wait()

	select {
	case got := <-received:
		require.Equal(t, LogsPath, got.path)
		require.Equal(t, "Bearer token-123", got.authorization)
		require.Equal(t, entry.ID, got.entry.ID)
		require.Equal(t, audit.CategoryAPI, got.entry.Category)
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not sent")
	}
}

func TestWriterKeepsLocalEntryWhenRemoteFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewMemoryStore()
	writer := NewWriter(store, NewHTTPSender(server.URL, time.Second), zerolog.Nop())
	writer.Record(audit.Entry{Action: "Delete Student"})
	writer.Wait()

	require.Len(t, writer.Entries(), 1)
}

func TestHTTPSenderReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"validation failed"}`))
	}))
	defer server.Close()

	err := NewHTTPSender(server.URL+"/", time.Second).Send(context.Background(), audit.Entry{Action: "x"}, "")
	require.ErrorContains(t, err, "status 400")
}
