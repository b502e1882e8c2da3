package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportVersion is the current export format version.
const ExportVersion = 2

// ErrInvalidExport is returned by Import for payloads it cannot read.
var ErrInvalidExport = errors.New("invalid export")

// Export is the JSON backup of the whole database.
type Export struct {
	Version    int            `json:"version"`
	ExportID   string         `json:"export_id"`
	ExportedAt string         `json:"exported_at"` // informational, never parsed
	Members    []ExportMember `json:"members"`
	Notes      []ExportNote   `json:"notes"`
}

type ExportMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	LastContact *string `json:"last_contact,omitempty"` // YYYY-MM-DD
	LastTopic   *string `json:"last_topic,omitempty"`
}

type ExportNote struct {
	ID           int64  `json:"id"`
	MemberID     int64  `json:"member_id"`
	Timestamp    *int64 `json:"timestamp"` // unix seconds
	Content      string `json:"content"`
	Mood         *int   `json:"mood,omitempty"`
	Productivity *int   `json:"productivity,omitempty"`
	FlightRisk   *int   `json:"flight_risk,omitempty"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	MembersImported int `json:"members_imported"`
	NotesImported   int `json:"notes_imported"`
	MembersSkipped  int `json:"members_skipped"`
	NotesSkipped    int `json:"notes_skipped"`
}

// Export snapshots all members and notes.
func (db *DB) Export() (*Export, error) {
	members, err := db.ListMembers("")
	if err != nil {
		return nil, fmt.Errorf("export members: %w", err)
	}
	notes, err := db.AllNotes()
	if err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}

	out := &Export{
		Version:    ExportVersion,
		ExportID:   uuid.NewString(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Members:    make([]ExportMember, 0, len(members)),
		Notes:      make([]ExportNote, 0, len(notes)),
	}
	for _, m := range members {
		em := ExportMember{ID: m.ID, Name: m.Name, LastTopic: m.LastTopic}
		if m.LastContact != nil {
			d := m.LastContact.Format(time.DateOnly)
			em.LastContact = &d
		}
		out.Members = append(out.Members, em)
	}
	for _, n := range notes {
		ts := n.Timestamp.Unix()
		out.Notes = append(out.Notes, ExportNote{
			ID:           n.ID,
			MemberID:     n.MemberID,
			Timestamp:    &ts,
			Content:      n.Content,
			Mood:         n.Mood,
			Productivity: n.Productivity,
			FlightRisk:   n.FlightRisk,
		})
	}
	return out, nil
}

// ExportJSON returns Export as indented JSON.
func (db *DB) ExportJSON() ([]byte, error) {
	exp, err := db.Export()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Import replaces all data with the contents of an export. Members get new
// IDs; notes follow their member. Members with a blank name or an ID already
// seen, and notes that are invalid, lack a timestamp or reference an unknown
// member are skipped. Cached last
// contact fields are recomputed rather than trusted. Nothing is changed if
// the payload cannot be parsed.
func (db *DB) Import(data []byte) (*ImportResult, error) {
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}
	if exp.Version > ExportVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidExport, exp.Version)
	}

	var res ImportResult
	now := time.Now().UnixMilli()
	err := db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM meeting_notes`); err != nil {
			return fmt.Errorf("clear notes: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM team_members`); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}

		idMap := make(map[int64]int64, len(exp.Members))
		for _, m := range exp.Members {
			name := strings.TrimSpace(m.Name)
			if name == "" {
				res.MembersSkipped++
				continue
			}
			if _, dup := idMap[m.ID]; dup {
				res.MembersSkipped++
				continue
			}
			result, err := tx.Exec(`INSERT INTO team_members (name, created_at) VALUES (?, ?)`, name, now)
			if err != nil {
				return fmt.Errorf("import member %q: %w", name, err)
			}
			newID, _ := result.LastInsertId()
			idMap[m.ID] = newID
			res.MembersImported++
		}

		for _, n := range exp.Notes {
			memberID, ok := idMap[n.MemberID]
			if !ok || n.Timestamp == nil {
				res.NotesSkipped++
				continue
			}
			note := Note{
				MemberID:     memberID,
				Timestamp:    time.Unix(*n.Timestamp, 0),
				Content:      n.Content,
				Mood:         n.Mood,
				Productivity: n.Productivity,
				FlightRisk:   n.FlightRisk,
			}
			if validateNote(&note) != nil {
				res.NotesSkipped++
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO meeting_notes (member_id, timestamp, content, mood, productivity, flight_risk, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, memberID, *n.Timestamp, note.Content, note.Mood, note.Productivity, note.FlightRisk, now, now); err != nil {
				return fmt.Errorf("import note %d: %w", n.ID, err)
			}
			res.NotesImported++
		}

		for _, id := range idMap {
			if err := db.refreshMember(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return &res, nil
}
