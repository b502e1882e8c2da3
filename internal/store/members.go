package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/llamadrama/internal/cadence"
)

var (
	ErrEmptyName      = errors.New("name must not be empty")
	ErrMemberNotFound = errors.New("member not found")
)

// Member is a team member. LastContact and LastTopic are a cache of the
// member's most recent meeting note and are never written directly.
type Member struct {
	ID          int64
	Name        string
	LastContact *time.Time // midnight of the last meeting's date
	LastTopic   *string
	CreatedAt   int64
}

// queryer is satisfied by both *DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const memberColumns = `id, name, last_contact_day, last_topic, created_at`

// Never-contacted members first, then whoever was seen longest ago.
const memberOrder = `
	ORDER BY CASE WHEN last_contact_day IS NULL THEN 0 ELSE 1 END,
		last_contact_day ASC, name COLLATE NOCASE, id`

// CreateMember inserts a new team member with no contact history.
func (db *DB) CreateMember(name string) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO team_members (name, created_at) VALUES (?, ?)
	`, name, now)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	id, _ := result.LastInsertId()
	return &Member{ID: id, Name: name, CreatedAt: now}, nil
}

// GetMember returns a member by ID, or nil if not found.
func (db *DB) GetMember(id int64) (*Member, error) {
	row := db.QueryRow(`SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id)
	m, err := db.scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns members whose name contains query (case-insensitive),
// most overdue first. An empty or blank query returns everyone.
func (db *DB) ListMembers(query string) ([]Member, error) {
	rows, err := db.Query(`SELECT ` + memberColumns + ` FROM team_members` + memberOrder)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	query = strings.ToLower(strings.TrimSpace(query))
	var members []Member
	for rows.Next() {
		m, err := db.scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Name), query) {
			continue
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// CountMembers returns the total number of members.
func (db *DB) CountMembers() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM team_members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// RenameMember changes a member's display name.
func (db *DB) RenameMember(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	result, err := db.Exec(`UPDATE team_members SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename member: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("rename member %d: %w", id, ErrMemberNotFound)
	}
	return nil
}

// DeleteMember removes a member and all their notes.
func (db *DB) DeleteMember(id int64) error {
	err := db.withTx(func(tx *sql.Tx) error {
		if err := memberExists(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM meeting_notes WHERE member_id = ?`, id); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM team_members WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete member row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// LastContact returns the cached last contact date of a member.
func (db *DB) LastContact(memberID int64) (*time.Time, error) {
	m, err := db.GetMember(memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("last contact %d: %w", memberID, ErrMemberNotFound)
	}
	return m.LastContact, nil
}

// OverdueMembers returns the members that are overdue as of today, in list order.
func (db *DB) OverdueMembers(today time.Time) ([]Member, error) {
	members, err := db.ListMembers("")
	if err != nil {
		return nil, err
	}
	var overdue []Member
	for _, m := range members {
		if cadence.EvaluateRecency(m.LastContact, today).Overdue {
			overdue = append(overdue, m)
		}
	}
	return overdue, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanMember(row rowScanner) (*Member, error) {
	var m Member
	var lastDay sql.NullInt64
	var lastTopic sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &lastDay, &lastTopic, &m.CreatedAt); err != nil {
		return nil, err
	}
	if lastDay.Valid {
		t := cadence.FromEpochDay(lastDay.Int64, db.loc())
		m.LastContact = &t
	}
	if lastTopic.Valid {
		m.LastTopic = &lastTopic.String
	}
	return &m, nil
}
