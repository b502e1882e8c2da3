package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the llamadrama SQLite database.
type DB struct {
	*sql.DB
	Path string

	// Location is the time zone meeting dates are read in. Defaults to
	// time.Local. Change it with SetLocation so cached dates follow.
	Location *time.Location
}

// DefaultDBPath returns the default database path: ~/.llamadrama/llamadrama.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".llamadrama", "llamadrama.db"), nil
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them.
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return setup(sqlDB, path)
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	return setup(sqlDB, ":memory:")
}

func setup(sqlDB *sql.DB, path string) (*DB, error) {
	db := &DB{DB: sqlDB, Path: path, Location: time.Local}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func (db *DB) loc() *time.Location {
	if db.Location == nil {
		return time.Local
	}
	return db.Location
}

// Today returns the current time in the store's location, the reference
// point for recency and overdue checks.
func (db *DB) Today() time.Time {
	return time.Now().In(db.loc())
}

// metaTimeZone is the store_meta key holding the zone last_contact_day was
// computed in.
const metaTimeZone = "time_zone"

// SetLocation sets the zone meeting dates are read in. If the member caches
// were computed in a different zone, or the zone was never recorded, every
// member's last contact is recomputed before returning.
func (db *DB) SetLocation(loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	db.Location = loc

	return db.withTx(func(tx *sql.Tx) error {
		var stored string
		err := tx.QueryRow(`SELECT value FROM store_meta WHERE key = ?`, metaTimeZone).Scan(&stored)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("read time zone: %w", err)
		}
		if err == nil && stored == loc.String() {
			return nil
		}

		if err := db.refreshAllMembers(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO store_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, metaTimeZone, loc.String()); err != nil {
			return fmt.Errorf("record time zone: %w", err)
		}
		return nil
	})
}

func (db *DB) refreshAllMembers(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id FROM team_members`)
	if err != nil {
		return fmt.Errorf("list member ids: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := db.refreshMember(tx, id); err != nil {
			return err
		}
	}
	return nil
}
