package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SetLocation(time.UTC); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	return db
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
	if db.Location != time.Local {
		t.Errorf("Location = %v, want Local", db.Location)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "llamadrama.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.CreateMember("Ana"); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	n, err := db.CountMembers()
	if err != nil {
		t.Fatalf("CountMembers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountMembers = %d, want 1", n)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion = %d, want 3", v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "team_members", "meeting_notes", "store_meta"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestNotesConstraints(t *testing.T) {
	db := testDB(t)

	m, err := db.CreateMember("Ana")
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	// Valid insert
	_, err = db.Exec(`
		INSERT INTO meeting_notes (member_id, timestamp, content, mood, productivity, flight_risk, created_at, updated_at)
		VALUES (?, 1000, 'ok', 3, 1, 0, 1000, 1000)
	`, m.ID)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	bad := []string{
		`INSERT INTO meeting_notes (member_id, timestamp, content, mood, created_at, updated_at) VALUES (?, 1000, 'x', 4, 1000, 1000)`,
		`INSERT INTO meeting_notes (member_id, timestamp, content, productivity, created_at, updated_at) VALUES (?, 1000, 'x', 0, 1000, 1000)`,
		`INSERT INTO meeting_notes (member_id, timestamp, content, flight_risk, created_at, updated_at) VALUES (?, 1000, 'x', 2, 1000, 1000)`,
	}
	for _, q := range bad {
		if _, err := db.Exec(q, m.ID); err == nil {
			t.Errorf("expected constraint error for %s", q)
		}
	}

	// Unknown member
	_, err = db.Exec(`
		INSERT INTO meeting_notes (member_id, timestamp, content, created_at, updated_at)
		VALUES (9999, 1000, 'x', 1000, 1000)
	`)
	if err == nil {
		t.Error("expected foreign key error for unknown member, got nil")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 3", v)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var fk int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestToday(t *testing.T) {
	db := testDB(t)
	loc := time.FixedZone("UTC+9", 9*60*60)
	db.Location = loc

	if got := db.Today().Location(); got != loc {
		t.Errorf("Today location = %v, want %v", got, loc)
	}
}

func TestSetLocationRecomputesLastContact(t *testing.T) {
	db := testDB(t)
	m, _ := db.CreateMember("Ana")
	addNote(t, db, m.ID, time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), "late call")

	if got := mustMember(t, db, m.ID).LastContact.Format("2006-01-02"); got != "2024-03-10" {
		t.Fatalf("LastContact in UTC = %s, want 2024-03-10", got)
	}

	pst := time.FixedZone("PST", -8*60*60)
	if err := db.SetLocation(pst); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}

	series, err := db.MeetingSeries(m.ID)
	if err != nil {
		t.Fatalf("MeetingSeries: %v", err)
	}
	want := series[0].Timestamp.In(pst).Format("2006-01-02")
	got := mustMember(t, db, m.ID).LastContact.Format("2006-01-02")
	if got != "2024-03-09" || got != want {
		t.Errorf("LastContact in PST = %s, want 2024-03-09 (series date %s)", got, want)
	}

	var stored string
	if err := db.QueryRow(`SELECT value FROM store_meta WHERE key = 'time_zone'`).Scan(&stored); err != nil {
		t.Fatalf("read time_zone: %v", err)
	}
	if stored != "PST" {
		t.Errorf("time_zone = %q, want PST", stored)
	}

	// Same zone again leaves the cache alone.
	if err := db.SetLocation(pst); err != nil {
		t.Fatalf("SetLocation again: %v", err)
	}
	if got := mustMember(t, db, m.ID).LastContact.Format("2006-01-02"); got != "2024-03-09" {
		t.Errorf("LastContact after repeat = %s, want 2024-03-09", got)
	}
}

func TestSetLocationAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llamadrama.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.SetLocation(time.UTC); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	m, _ := db.CreateMember("Ana")
	addNote(t, db, m.ID, time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), "late call")
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SetLocation(time.FixedZone("PST", -8*60*60)); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	if got := mustMember(t, db, m.ID).LastContact.Format("2006-01-02"); got != "2024-03-09" {
		t.Errorf("LastContact after zone change = %s, want 2024-03-09", got)
	}
}
