package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/iceguest/internal/guest/journal"
)

const sessionColumns = `s.id, s.guid, s.source, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id)`

const entryColumns = `session_id, seq, envelope_id, type, source, payload,
	status_before, status_after, changed, dropped, reason, at`

// journalRepository implements journal.Repository using SQLite.
type journalRepository struct {
	db *sql.DB
}

func newJournalRepository(db *sql.DB) *journalRepository {
	return &journalRepository{db: db}
}

var _ journal.Repository = (*journalRepository)(nil)

func scanSession(scanner interface{ Scan(...any) error }) (*SessionModel, error) {
	var m SessionModel
	err := scanner.Scan(&m.ID, &m.GUID, &m.Source, &m.StartedAt, &m.EndedAt, &m.Entries)
	return &m, err
}

func scanEntry(scanner interface{ Scan(...any) error }) (*EntryModel, error) {
	var m EntryModel
	err := scanner.Scan(
		&m.SessionID, &m.Seq, &m.EnvelopeID, &m.Type, &m.Source, &m.Payload,
		&m.StatusBefore, &m.StatusAfter, &m.Changed, &m.Dropped, &m.Reason, &m.At,
	)
	return &m, err
}

// SaveSession inserts a new session and sets its ID, or updates the end
// time of an existing one.
func (r *journalRepository) SaveSession(ctx context.Context, s *journal.Session) error {
	m := toSessionModel(s)

	if s.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (guid, source, started_at, ended_at) VALUES (?, ?, ?, ?)`,
			m.GUID, m.Source, m.StartedAt, m.EndedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		s.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, m.EndedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &journal.SessionNotFoundError{GUID: s.GUID}
	}
	return nil
}

// FindSession retrieves a session by GUID.
func (r *journalRepository) FindSession(ctx context.Context, guid string) (*journal.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.guid = ?`, guid)
	m, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &journal.SessionNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return m.toDomain(), nil
}

// ListSessions returns sessions newest first, at most limit when limit > 0.
func (r *journalRepository) ListSessions(ctx context.Context, limit int) ([]*journal.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s ORDER BY s.started_at DESC, s.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*journal.Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// AppendEntry stores one entry.
func (r *journalRepository) AppendEntry(ctx context.Context, e journal.Entry) error {
	m := toEntryModel(e)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.Seq, m.EnvelopeID, m.Type, m.Source, m.Payload,
		m.StatusBefore, m.StatusAfter, m.Changed, m.Dropped, m.Reason, m.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Entries returns a session's entries ordered by sequence number.
func (r *journalRepository) Entries(ctx context.Context, sessionID int64) ([]journal.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []journal.Entry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
