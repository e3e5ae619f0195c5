package auditlog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

func setupStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	store := NewGormStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

type recordingSink struct {
	mu   sync.Mutex
	docs []Document
	err  error
}

func (s *recordingSink) Insert(_ context.Context, collection string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	doc.Collection = collection
	s.docs = append(s.docs, doc)
	return nil
}

func (s *recordingSink) all() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Document(nil), s.docs...)
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	inner   recordingSink
}

func (s *blockingSink) Insert(ctx context.Context, collection string, doc Document) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.inner.Insert(ctx, collection, doc)
}

func TestRouterRoutesCategoriesAndStampsTimestamp(t *testing.T) {
	store := setupStore(t)
	router := NewRouter(store, store, zerolog.Nop())

	first := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	router.now = func() time.Time { return first }
	router.LogAction(context.Background(), audit.CategoryAuth, Document{Action: "LOGIN", Performer: "admin@sao.edu", Status: audit.OutcomeSuccess})

	router.now = func() time.Time { return first.Add(time.Minute) }
	router.LogAction(context.Background(), audit.CategorySession, Document{
		Action:  "Session End",
		Status:  audit.StatusSuccess,
		Details: map[string]any{"duration": "Duration: 2m 5s"},
	})

	docs, err := router.Find(context.Background(), audit.CategorySessionAuth)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "Session End", docs[0].Action)
	require.Equal(t, "LOGIN", docs[1].Action)
	require.Equal(t, audit.CategorySessionAuth, docs[0].Category)
	require.Equal(t, "session_logs", docs[0].Collection)
	require.True(t, docs[1].Timestamp.Equal(first))
	require.NotEmpty(t, docs[0].ID)
	require.Equal(t, map[string]any{"duration": "Duration: 2m 5s"}, docs[0].Details)
}

func TestRouterSendsUnknownCategoriesToGeneral(t *testing.T) {
	store := setupStore(t)
	router := NewRouter(store, store, zerolog.Nop())

	router.LogAction(context.Background(), audit.Category("billing"), Document{Action: "PING", Status: audit.OutcomeSuccess})

	docs, err := store.Find(context.Background(), audit.GeneralCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, audit.Category("billing"), docs[0].Category)
}

func TestRouterSwallowsSinkErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("store offline")}
	router := NewRouter(sink, failingStore{}, zerolog.Nop())

	require.NotPanics(t, func() {
		router.LogAction(context.Background(), audit.CategoryCRUD, Document{Action: "ADD_STUDENT"})
	})
}

func TestQueueDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	queue := NewQueue(sink, 8, time.Second, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, queue.Insert(context.Background(), "crud_logs", Document{Action: "UPDATE_STUDENT"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, queue.Close(ctx))

	docs := sink.all()
	require.Len(t, docs, 5)
	for _, doc := range docs {
		require.Equal(t, "crud_logs", doc.Collection)
		require.False(t, doc.Timestamp.IsZero())
	}

	require.ErrorIs(t, queue.Insert(context.Background(), "crud_logs", Document{}), ErrQueueClosed)
	require.NoError(t, queue.Close(ctx))
}

func TestQueueDropsWhenFull(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	queue := NewQueue(sink, 1, time.Second, zerolog.Nop())

	require.NoError(t, queue.Insert(context.Background(), "grade_logs", Document{Action: "first"}))
	<-sink.started

	require.NoError(t, queue.Insert(context.Background(), "grade_logs", Document{Action: "second"}))
	require.ErrorIs(t, queue.Insert(context.Background(), "grade_logs", Document{Action: "third"}), ErrQueueFull)

	close(sink.release)
	require.NoError(t, queue.Close(context.Background()))

	docs := sink.inner.all()
	require.Len(t, docs, 2)
	require.Equal(t, "first", docs[0].Action)
	require.Equal(t, "second", docs[1].Action)
}

func TestFanoutMirrorsAfterPrimary(t *testing.T) {
	store := setupStore(t)
	mirror := &recordingSink{}
	failing := &recordingSink{err: errors.New("broker down")}
	fanout := NewFanout(store, zerolog.Nop(), failing, nil, mirror)

	doc := Document{ID: uuid.NewString(), Action: "ENROLL_STUDENT", Status: audit.OutcomeSuccess, Timestamp: time.Now().UTC()}
	require.NoError(t, fanout.Insert(context.Background(), "enrollment_logs", doc))
	require.Len(t, mirror.all(), 1)

	docs, err := fanout.Find(context.Background(), "enrollment_logs")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestFanoutSkipsMirrorsWhenPrimaryFails(t *testing.T) {
	mirror := &recordingSink{}
	fanout := NewFanout(failingStore{}, zerolog.Nop(), mirror)

	err := fanout.Insert(context.Background(), "system_logs", Document{})
	require.Error(t, err)
	require.Empty(t, mirror.all())
}

type failingStore struct{}

func (failingStore) Insert(context.Context, string, Document) error {
	return errors.New("primary down")
}

func (failingStore) Find(context.Context, string) ([]Document, error) {
	return nil, errors.New("primary down")
}

func TestHubFiltersAndReleases(t *testing.T) {
	hub := NewHub()
	all, cancelAll := hub.Subscribe("")
	grades, cancelGrades := hub.Subscribe("grade_logs")
	require.Equal(t, 2, hub.Subscribers())

	require.NoError(t, hub.Insert(context.Background(), "crud_logs", Document{Action: "ADD_STUDENT"}))
	require.NoError(t, hub.Insert(context.Background(), "grade_logs", Document{Action: "UPDATE_GRADE"}))

	require.Equal(t, "ADD_STUDENT", (<-all).Action)
	require.Equal(t, "UPDATE_GRADE", (<-all).Action)
	require.Equal(t, "UPDATE_GRADE", (<-grades).Action)
	require.Len(t, grades, 0)

	cancelGrades()
	cancelGrades()
	cancelAll()
	require.Equal(t, 0, hub.Subscribers())

	_, open := <-all
	require.False(t, open)
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("")
	defer cancel()

	for i := 0; i < subscriberBufferSize+5; i++ {
		require.NoError(t, hub.Insert(context.Background(), "click_logs", Document{}))
	}
	require.Len(t, ch, subscriberBufferSize)
}

func TestNATSPublisherSubject(t *testing.T) {
	publisher := NewNATSPublisher(nil, "sao.audit")
	require.Equal(t, "sao.audit.grade_logs", publisher.Subject("grade_logs"))
}

func TestGormStoreClipsOversizedFailureFields(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	longID := strings.Repeat("9", 70)
	doc := Document{
		ID:           uuid.NewString(),
		Category:     audit.CategorySystem,
		Action:       "ADD_STUDENT_FAILED",
		Status:       audit.OutcomeFailure,
		Student:      longID,
		Grade:        strings.Repeat("A", 20),
		Details:      map[string]any{"idNumber": longID},
		ErrorMessage: "idNumber failed on len",
		Timestamp:    time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, "system_logs", doc))

	docs, err := store.Find(ctx, "system_logs")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Student, studentWidth)
	require.Len(t, docs[0].Grade, gradeWidth)
	require.Equal(t, longID, docs[0].Details.(map[string]any)["idNumber"])
}

func TestClipCountsCharacters(t *testing.T) {
	require.Equal(t, "ñañ", clip("ñañaña", 3))
	require.Equal(t, "short", clip("short", 16))
}

func TestGormStoreKeepsMalformedDetails(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	row := record{
		ID:        uuid.NewString(),
		Category:  string(audit.CategoryGeneral),
		Action:    "IMPORT",
		Status:    string(audit.OutcomeSuccess),
		Details:   datatypes.JSON(`{"broken":`),
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.db.WithContext(ctx).Table("general_logs").Create(&row).Error)

	docs, err := store.Find(ctx, "general_logs")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, `{"broken":`, docs[0].Details)
}
