package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lazypower/llamadrama/internal/cadence"
)

var (
	ErrEmptyContent     = errors.New("note content must not be empty")
	ErrInvalidSentiment = errors.New("invalid sentiment value")
	ErrNoteNotFound     = errors.New("note not found")
)

// maxTopicLen is the rune length a member's last topic is truncated to.
const maxTopicLen = 100

// defaultTopic is used when a note has no non-blank line.
const defaultTopic = "Meeting"

// Note is one logged 1-on-1 meeting.
type Note struct {
	ID           int64
	MemberID     int64
	Timestamp    time.Time
	Content      string
	Mood         *int // 1-3
	Productivity *int // 1-3
	FlightRisk   *int // 0 or 1
	CreatedAt    int64
	UpdatedAt    int64
}

// AtRisk reports whether the note flags the member as a flight risk.
func (n *Note) AtRisk() bool {
	return n.FlightRisk != nil && *n.FlightRisk > 0
}

const noteColumns = `id, member_id, timestamp, content, mood, productivity, flight_risk, created_at, updated_at`

// AddNote inserts a meeting note and refreshes the member's last contact
// in the same transaction. On success note.ID is set.
func (db *DB) AddNote(note *Note) error {
	if err := validateNote(note); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	err := db.withTx(func(tx *sql.Tx) error {
		if err := memberExists(tx, note.MemberID); err != nil {
			return err
		}
		result, err := tx.Exec(`
			INSERT INTO meeting_notes (member_id, timestamp, content, mood, productivity, flight_risk, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, note.MemberID, note.Timestamp.Unix(), note.Content,
			note.Mood, note.Productivity, note.FlightRisk, now, now)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		note.ID, _ = result.LastInsertId()
		return db.refreshMember(tx, note.MemberID)
	})
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

// UpdateNote rewrites a note. If the note moved to another member, both
// members' caches are refreshed.
func (db *DB) UpdateNote(note *Note) error {
	if err := validateNote(note); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	err := db.withTx(func(tx *sql.Tx) error {
		var oldMember int64
		err := tx.QueryRow(`SELECT member_id FROM meeting_notes WHERE id = ?`, note.ID).Scan(&oldMember)
		if err == sql.ErrNoRows {
			return fmt.Errorf("note %d: %w", note.ID, ErrNoteNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup note: %w", err)
		}
		if err := memberExists(tx, note.MemberID); err != nil {
			return err
		}

		if _, err := tx.Exec(`
			UPDATE meeting_notes
			SET member_id = ?, timestamp = ?, content = ?, mood = ?, productivity = ?, flight_risk = ?, updated_at = ?
			WHERE id = ?
		`, note.MemberID, note.Timestamp.Unix(), note.Content,
			note.Mood, note.Productivity, note.FlightRisk, now, note.ID); err != nil {
			return fmt.Errorf("update note: %w", err)
		}

		if oldMember != note.MemberID {
			if err := db.refreshMember(tx, oldMember); err != nil {
				return err
			}
		}
		return db.refreshMember(tx, note.MemberID)
	})
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	note.UpdatedAt = now
	return nil
}

// DeleteNote removes a note and refreshes its member's last contact.
func (db *DB) DeleteNote(id int64) error {
	err := db.withTx(func(tx *sql.Tx) error {
		var memberID int64
		err := tx.QueryRow(`SELECT member_id FROM meeting_notes WHERE id = ?`, id).Scan(&memberID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("note %d: %w", id, ErrNoteNotFound)
		}
		if err != nil {
			return fmt.Errorf("lookup note: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM meeting_notes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return db.refreshMember(tx, memberID)
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// GetNote returns a note by ID, or nil if not found.
func (db *DB) GetNote(id int64) (*Note, error) {
	row := db.QueryRow(`SELECT `+noteColumns+` FROM meeting_notes WHERE id = ?`, id)
	n, err := db.scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// ListNotes returns a member's notes, newest first.
func (db *DB) ListNotes(memberID int64) ([]Note, error) {
	return db.queryNotes(`
		SELECT `+noteColumns+` FROM meeting_notes
		WHERE member_id = ? ORDER BY timestamp DESC, id DESC
	`, memberID)
}

// AllNotes returns every note, grouped by member and oldest first.
func (db *DB) AllNotes() ([]Note, error) {
	return db.queryNotes(`SELECT ` + noteColumns + ` FROM meeting_notes ORDER BY member_id, timestamp, id`)
}

// MeetingSeries returns a member's meetings in ascending time order, the
// input expected by the cadence package.
func (db *DB) MeetingSeries(memberID int64) ([]cadence.Meeting, error) {
	notes, err := db.queryNotes(`
		SELECT `+noteColumns+` FROM meeting_notes
		WHERE member_id = ? ORDER BY timestamp ASC, id ASC
	`, memberID)
	if err != nil {
		return nil, err
	}
	series := make([]cadence.Meeting, len(notes))
	for i, n := range notes {
		series[i] = cadence.Meeting{
			Timestamp:    n.Timestamp,
			Mood:         n.Mood,
			Productivity: n.Productivity,
			FlightRisk:   n.FlightRisk,
		}
	}
	return series, nil
}

func (db *DB) queryNotes(query string, args ...any) ([]Note, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := db.scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (db *DB) scanNote(row rowScanner) (*Note, error) {
	var n Note
	var ts int64
	var mood, productivity, flightRisk sql.NullInt64
	if err := row.Scan(&n.ID, &n.MemberID, &ts, &n.Content,
		&mood, &productivity, &flightRisk, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Timestamp = time.Unix(ts, 0).In(db.loc())
	n.Mood = nullInt(mood)
	n.Productivity = nullInt(productivity)
	n.FlightRisk = nullInt(flightRisk)
	return &n, nil
}

// refreshMember recomputes last_contact_day and last_topic from the member's
// remaining notes. Must run inside the transaction that changed the notes.
func (db *DB) refreshMember(q queryer, memberID int64) error {
	var ts int64
	var content string
	err := q.QueryRow(`
		SELECT timestamp, content FROM meeting_notes
		WHERE member_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1
	`, memberID).Scan(&ts, &content)

	if err == sql.ErrNoRows {
		_, err = q.Exec(`
			UPDATE team_members SET last_contact_day = NULL, last_topic = NULL WHERE id = ?
		`, memberID)
		if err != nil {
			return fmt.Errorf("clear last contact: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest note: %w", err)
	}

	day := cadence.EpochDay(time.Unix(ts, 0).In(db.loc()))
	if _, err := q.Exec(`
		UPDATE team_members SET last_contact_day = ?, last_topic = ? WHERE id = ?
	`, day, TopicOf(content), memberID); err != nil {
		return fmt.Errorf("set last contact: %w", err)
	}
	return nil
}

// TopicOf returns the first non-blank line of content, trimmed and cut to
// 100 characters.
func TopicOf(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTopicLen {
			line = string([]rune(line)[:maxTopicLen])
		}
		return line
	}
	return defaultTopic
}

func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func memberExists(q queryer, id int64) error {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM team_members WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("lookup member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, ErrMemberNotFound)
	}
	return nil
}

func validateNote(n *Note) error {
	n.Content = strings.TrimSpace(n.Content)
	if n.Content == "" {
		return ErrEmptyContent
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Mood != nil && (*n.Mood < 1 || *n.Mood > 3) {
		return fmt.Errorf("mood %d: %w", *n.Mood, ErrInvalidSentiment)
	}
	if n.Productivity != nil && (*n.Productivity < 1 || *n.Productivity > 3) {
		return fmt.Errorf("productivity %d: %w", *n.Productivity, ErrInvalidSentiment)
	}
	if n.FlightRisk != nil && (*n.FlightRisk < 0 || *n.FlightRisk > 1) {
		return fmt.Errorf("flight risk %d: %w", *n.FlightRisk, ErrInvalidSentiment)
	}
	return nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
