package auditclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

// User is the cached signed-in account.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	BackendToken string `json:"backendToken,omitempty"`
}

// Session records sign-in, sign-out and session-length entries and keeps
// the current user and session start in the store.
type Session struct {
	writer *Writer
	store  KV
	now    func() time.Time
}

// NewSession binds session tracking to a writer and its store.
func NewSession(writer *Writer, store KV) *Session {
	return &Session{writer: writer, store: store, now: time.Now}
}

// Current returns the cached user, if any.
func (s *Session) Current() (User, bool) {
	return loadCurrentUser(s.store)
}

// Login caches user and records the login and the session start.
func (s *Session) Login(user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(KeyCurrentUser, raw); err != nil {
		return fmt.Errorf("cache current user: %w", err)
	}

	s.writer.Record(audit.Entry{
		Action:   "Login",
		User:     user.Email,
		Status:   audit.StatusSuccess,
		Details:  "User logged in successfully",
		Category: audit.CategoryAuth,
	})
	return s.Start(user)
}

// LoginFailed records a rejected sign-in attempt.
func (s *Session) LoginFailed(email string) {
	s.writer.Record(audit.Entry{
		Action:   "Login Failed",
		User:     email,
		Status:   audit.StatusFailed,
		Details:  fmt.Sprintf("Failed login attempt, invalid credentials for %q", email),
		Category: audit.CategoryError,
	})
}

// Start stores the session start time and records "Session Start".
func (s *Session) Start(user User) error {
	if err := s.store.Set(KeySessionStartTime, []byte(s.now().UTC().Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("store session start: %w", err)
	}
	if err := s.store.Set(KeySessionStartUser, []byte(user.Email)); err != nil {
		return fmt.Errorf("store session user: %w", err)
	}

	s.writer.Record(audit.Entry{
		Action:   "Session Start",
		User:     user.Email,
		Status:   audit.StatusSuccess,
		Details:  fmt.Sprintf("New session opened for %s (%s)", user.Name, user.Role),
		Category: audit.CategorySession,
	})
	return nil
}

// End records "Session End" with the elapsed time when a start was stored,
// then forgets the start. It reports whether an entry was written.
func (s *Session) End(user User) bool {
	raw, err := s.store.Get(KeySessionStartTime)
	if err != nil {
		return false
	}
	_ = s.store.Delete(KeySessionStartTime)
	_ = s.store.Delete(KeySessionStartUser)

	started, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false
	}

	s.writer.Record(audit.Entry{
		Action:   "Session End",
		User:     user.Email,
		Status:   audit.StatusSuccess,
		Details:  "Session closed. " + audit.SessionDuration(s.now().Sub(started)),
		Category: audit.CategorySession,
	})
	return true
}

// Logout ends the session of the cached user, records the logout and drops
// the cached user. It is a no-op when nobody is signed in.
func (s *Session) Logout() error {
	user, ok := s.Current()
	if !ok {
		return nil
	}

	s.End(user)
	s.writer.Record(audit.Entry{
		Action:   "Logout",
		User:     user.Email,
		Status:   audit.StatusSuccess,
		Details:  fmt.Sprintf("%s logged out of the system", user.Name),
		Category: audit.CategoryAuth,
	})
	return s.store.Delete(KeyCurrentUser)
}

func loadCurrentUser(store KV) (User, bool) {
	raw, err := store.Get(KeyCurrentUser)
	if err != nil {
		return User{}, false
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return User{}, false
	}
	return user, user.Email != ""
}
