package sqlite

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/iceguest/internal/guest/journal"
)

// SessionModel is a row of the sessions table. Times are Unix milliseconds.
type SessionModel struct {
	ID        int64
	GUID      string
	Source    string
	StartedAt int64
	EndedAt   *int64 // nullable
	Entries   int
}

// EntryModel is a row of the entries table.
type EntryModel struct {
	SessionID    int64
	Seq          int64
	EnvelopeID   string
	Type         string
	Source       string
	Payload      *string // nullable
	StatusBefore string
	StatusAfter  string
	Changed      bool
	Dropped      bool
	Reason       *string // nullable
	At           int64
}

func toSessionModel(s *journal.Session) *SessionModel {
	m := &SessionModel{
		ID:        s.ID,
		GUID:      s.GUID,
		Source:    s.Source,
		StartedAt: s.StartedAt.UnixMilli(),
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.UnixMilli()
		m.EndedAt = &ended
	}
	return m
}

func (m *SessionModel) toDomain() *journal.Session {
	s := &journal.Session{
		ID:        m.ID,
		GUID:      m.GUID,
		Source:    m.Source,
		StartedAt: time.UnixMilli(m.StartedAt),
		Entries:   m.Entries,
	}
	if m.EndedAt != nil {
		ended := time.UnixMilli(*m.EndedAt)
		s.EndedAt = &ended
	}
	return s
}

func toEntryModel(e journal.Entry) *EntryModel {
	m := &EntryModel{
		SessionID:    e.SessionID,
		Seq:          e.Seq,
		EnvelopeID:   e.EnvelopeID,
		Type:         e.Type,
		Source:       e.Source,
		StatusBefore: e.StatusBefore,
		StatusAfter:  e.StatusAfter,
		Changed:      e.Changed,
		Dropped:      e.Dropped,
		At:           e.At.UnixMilli(),
	}
	if len(e.Payload) > 0 {
		payload := string(e.Payload)
		m.Payload = &payload
	}
	if e.Reason != "" {
		m.Reason = &e.Reason
	}
	return m
}

func (m *EntryModel) toDomain() journal.Entry {
	e := journal.Entry{
		SessionID:    m.SessionID,
		Seq:          m.Seq,
		EnvelopeID:   m.EnvelopeID,
		Type:         m.Type,
		Source:       m.Source,
		StatusBefore: m.StatusBefore,
		StatusAfter:  m.StatusAfter,
		Changed:      m.Changed,
		Dropped:      m.Dropped,
		At:           time.UnixMilli(m.At),
	}
	if m.Payload != nil {
		e.Payload = json.RawMessage(*m.Payload)
	}
	if m.Reason != nil {
		e.Reason = *m.Reason
	}
	return e
}
