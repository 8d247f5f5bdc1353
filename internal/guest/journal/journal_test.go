package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	sessions []*Session
	entries  []Entry
	failNext error
}

func (m *memRepo) SaveSession(_ context.Context, s *Session) error {
	if s.ID == 0 {
		s.ID = int64(len(m.sessions) + 1)
		m.sessions = append(m.sessions, s)
	}
	return nil
}

func (m *memRepo) FindSession(_ context.Context, guid string) (*Session, error) {
	for _, s := range m.sessions {
		if s.GUID == guid {
			return s, nil
		}
	}
	return nil, &SessionNotFoundError{GUID: guid}
}

func (m *memRepo) ListSessions(context.Context, int) ([]*Session, error) {
	return m.sessions, nil
}

func (m *memRepo) AppendEntry(_ context.Context, e Entry) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRepo) Entries(_ context.Context, id int64) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.SessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestWriter_NumbersEntries(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}

	w, err := Start(ctx, repo, "scenario.yaml")
	require.NoError(t, err)
	require.Equal(t, int64(1), w.Session().ID)
	require.NotEmpty(t, w.Session().GUID)

	require.NoError(t, w.Append(ctx, Entry{Type: "mouseover"}))
	require.NoError(t, w.Append(ctx, Entry{Type: "dragstart"}))

	entries, err := repo.Entries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(1), entries[0].Seq)
	require.Equal(t, int64(2), entries[1].Seq)
	require.False(t, entries[0].At.IsZero())
}

func TestWriter_FailedAppendKeepsSequence(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	w, err := Start(ctx, repo, "host")
	require.NoError(t, err)

	repo.failNext = errors.New("disk full")
	require.Error(t, w.Append(ctx, Entry{Type: "mouseover"}))
	require.NoError(t, w.Append(ctx, Entry{Type: "mouseleave"}))

	entries, _ := repo.Entries(ctx, w.Session().ID)
	require.Len(t, entries, 1)
	require.Equal(t, int64(1), entries[0].Seq)
}

func TestWriter_Close(t *testing.T) {
	ctx := context.Background()
	w, err := Start(ctx, &memRepo{}, "host")
	require.NoError(t, err)

	require.NoError(t, w.Close(ctx))
	require.True(t, w.Session().Ended())
	end := *w.Session().EndedAt
	require.NoError(t, w.Close(ctx))
	require.Equal(t, end, *w.Session().EndedAt)
}

func TestSessionNotFoundError(t *testing.T) {
	_, err := (&memRepo{}).FindSession(context.Background(), "nope")
	var nf *SessionNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Contains(t, err.Error(), "nope")
}
