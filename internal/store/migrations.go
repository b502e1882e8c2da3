package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "team_members: people the manager holds 1-on-1s with",
		SQL: `
CREATE TABLE team_members (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL CHECK (length(trim(name)) > 0),

    -- Cached from meeting_notes, recomputed on every note write
    last_contact_day INTEGER,
    last_topic       TEXT,

    created_at       INTEGER NOT NULL
);

CREATE INDEX idx_members_last_contact ON team_members(last_contact_day);
`,
	},
	{
		Version:     2,
		Description: "meeting_notes: one logged 1-on-1 with optional sentiment",
		SQL: `
CREATE TABLE meeting_notes (
    id           INTEGER PRIMARY KEY,
    member_id    INTEGER NOT NULL,
    timestamp    INTEGER NOT NULL,
    content      TEXT NOT NULL,

    mood         INTEGER CHECK (mood IN (1, 2, 3)),
    productivity INTEGER CHECK (productivity IN (1, 2, 3)),
    flight_risk  INTEGER CHECK (flight_risk IN (0, 1)),

    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,

    FOREIGN KEY (member_id) REFERENCES team_members(id) ON DELETE CASCADE
);

CREATE INDEX idx_notes_member_ts ON meeting_notes(member_id, timestamp DESC);
`,
	},
	{
		Version:     3,
		Description: "store_meta: settings the member caches depend on",
		SQL: `
CREATE TABLE store_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
