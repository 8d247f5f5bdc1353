// Package journal records the events dispatched into the editing state
// machine, grouped in sessions, so a run can be listed and inspected later.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the bridge: a connection to a host or one replay of
// a scenario.
type Session struct {
	ID        int64
	GUID      string
	Source    string
	StartedAt time.Time
	EndedAt   *time.Time
	// Entries is filled by listings; zero on a freshly created session.
	Entries int
}

// NewSession creates an unsaved session for source.
func NewSession(source string, now time.Time) *Session {
	return &Session{
		GUID:      uuid.NewString(),
		Source:    source,
		StartedAt: now,
	}
}

// Ended reports whether the session was closed.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// Entry is one dispatched event and its outcome.
type Entry struct {
	SessionID    int64           `json:"-"`
	Seq          int64           `json:"seq"`
	EnvelopeID   string          `json:"envelopeId"`
	Type         string          `json:"type"`
	Source       string          `json:"source"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	StatusBefore string          `json:"statusBefore"`
	StatusAfter  string          `json:"statusAfter"`
	Changed      bool            `json:"changed"`
	Dropped      bool            `json:"dropped"`
	Reason       string          `json:"reason,omitempty"`
	At           time.Time       `json:"at"`
}

// Repository persists sessions and their entries.
type Repository interface {
	// SaveSession inserts s when its ID is zero and sets the ID, otherwise
	// updates the end time.
	SaveSession(ctx context.Context, s *Session) error
	// FindSession returns SessionNotFoundError when guid is unknown.
	FindSession(ctx context.Context, guid string) (*Session, error)
	// ListSessions returns the newest sessions first. A zero limit lists all.
	ListSessions(ctx context.Context, limit int) ([]*Session, error)
	AppendEntry(ctx context.Context, e Entry) error
	// Entries returns the entries of a session in sequence order.
	Entries(ctx context.Context, sessionID int64) ([]Entry, error)
}

// SessionNotFoundError is returned when a session does not exist.
type SessionNotFoundError struct {
	GUID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("journal session not found: %s", e.GUID)
}

// Writer appends the entries of one session, numbering them in order.
type Writer struct {
	repo    Repository
	session *Session

	mu  sync.Mutex
	seq int64
}

// Start saves a new session for source and returns its writer.
func Start(ctx context.Context, repo Repository, source string) (*Writer, error) {
	s := NewSession(source, time.Now())
	if err := repo.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("start journal session: %w", err)
	}
	return &Writer{repo: repo, session: s}, nil
}

// Session returns the session being written.
func (w *Writer) Session() *Session {
	return w.session
}

// Append stores e as the next entry of the session.
func (w *Writer) Append(ctx context.Context, e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e.SessionID = w.session.ID
	e.Seq = w.seq + 1
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if err := w.repo.AppendEntry(ctx, e); err != nil {
		return fmt.Errorf("append journal entry %d: %w", e.Seq, err)
	}
	w.seq = e.Seq
	return nil
}

// Close marks the session ended.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session.Ended() {
		return nil
	}
	now := time.Now()
	w.session.EndedAt = &now
	if err := w.repo.SaveSession(ctx, w.session); err != nil {
		return fmt.Errorf("close journal session: %w", err)
	}
	return nil
}
