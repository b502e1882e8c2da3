package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := testDB(t)
	ana, _ := src.CreateMember("Ana")
	ben, _ := src.CreateMember("Ben")
	src.CreateMember("Cleo")

	addNote(t, src, ana.ID, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), "first")
	n := &Note{MemberID: ana.ID, Timestamp: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), Content: "second", Mood: intp(2)}
	if err := src.AddNote(n); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	addNote(t, src, ben.ID, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), "ben")

	data, err := src.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if exp.Version != ExportVersion {
		t.Errorf("Version = %d, want %d", exp.Version, ExportVersion)
	}
	if exp.ExportID == "" {
		t.Error("ExportID empty")
	}
	if len(exp.Members) != 3 || len(exp.Notes) != 3 {
		t.Fatalf("export has %d members and %d notes, want 3 and 3", len(exp.Members), len(exp.Notes))
	}

	dst := testDB(t)
	dst.CreateMember("Existing")

	res, err := dst.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MembersImported != 3 || res.NotesImported != 3 || res.NotesSkipped != 0 {
		t.Errorf("ImportResult = %+v", res)
	}

	members, _ := dst.ListMembers("")
	if len(members) != 3 {
		t.Fatalf("got %d members after import, want 3", len(members))
	}
	anaImported, _ := dst.ListMembers("ana")
	if len(anaImported) != 1 {
		t.Fatalf("Ana not imported")
	}
	a := anaImported[0]
	if a.LastTopic == nil || *a.LastTopic != "second" {
		t.Errorf("LastTopic = %v, want second", a.LastTopic)
	}
	if a.LastContact == nil || !a.LastContact.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastContact = %v, want 2024-01-08", a.LastContact)
	}

	series, _ := dst.MeetingSeries(a.ID)
	if len(series) != 2 || series[1].Mood == nil || *series[1].Mood != 2 {
		t.Errorf("imported series = %+v", series)
	}
}

func TestImportRecomputesCache(t *testing.T) {
	db := testDB(t)

	payload := `{
		"version": 2,
		"members": [{"id": 7, "name": "Ana", "last_contact": "1999-01-01", "last_topic": "stale"}],
		"notes": [
			{"id": 1, "member_id": 7, "timestamp": 1704099600, "content": "real topic"},
			{"id": 2, "member_id": 99, "timestamp": 1704099600, "content": "orphan"},
			{"id": 3, "member_id": 7, "timestamp": 1704099600, "content": "bad", "mood": 9},
			{"id": 4, "member_id": 7, "timestamp": 1704099600, "content": "   "}
		],
		"unknown_field": true
	}`

	res, err := db.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MembersImported != 1 || res.NotesImported != 1 || res.NotesSkipped != 3 {
		t.Errorf("ImportResult = %+v", res)
	}

	members, _ := db.ListMembers("")
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}
	if members[0].LastTopic == nil || *members[0].LastTopic != "real topic" {
		t.Errorf("LastTopic = %v, want real topic", members[0].LastTopic)
	}
	if members[0].LastContact == nil || !members[0].LastContact.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastContact = %v, want 2024-01-01", members[0].LastContact)
	}
}

func TestImportSkipsBlankMembers(t *testing.T) {
	db := testDB(t)

	payload := `{"version": 2, "members": [{"id": 1, "name": " "}, {"id": 2, "name": "Ben"}],
		"notes": [{"id": 1, "member_id": 1, "timestamp": 1704099600, "content": "x"}]}`
	res, err := db.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MembersImported != 1 || res.MembersSkipped != 1 || res.NotesSkipped != 1 {
		t.Errorf("ImportResult = %+v", res)
	}
}

func TestImportLocalExportedAt(t *testing.T) {
	db := testDB(t)

	payload := `{"version": 2, "exported_at": "2024-01-01T10:00:00",
		"members": [{"id": 1, "name": "Ana"}], "notes": []}`
	res, err := db.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MembersImported != 1 {
		t.Errorf("MembersImported = %d, want 1", res.MembersImported)
	}
}

func TestImportDuplicateMemberID(t *testing.T) {
	db := testDB(t)

	payload := `{"version": 2,
		"members": [{"id": 1, "name": "Ana"}, {"id": 1, "name": "Ben"}],
		"notes": [{"id": 1, "member_id": 1, "timestamp": 1704099600, "content": "sync"}]}`
	res, err := db.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MembersImported != 1 || res.MembersSkipped != 1 || res.NotesImported != 1 {
		t.Errorf("ImportResult = %+v", res)
	}

	members, _ := db.ListMembers("")
	if len(members) != 1 || members[0].Name != "Ana" {
		t.Fatalf("members = %+v, want only Ana", members)
	}
	if members[0].LastTopic == nil || *members[0].LastTopic != "sync" {
		t.Errorf("LastTopic = %v, want sync", members[0].LastTopic)
	}
}

func TestImportEpochTimestamp(t *testing.T) {
	db := testDB(t)

	payload := `{"version": 2, "members": [{"id": 1, "name": "Ana"}],
		"notes": [
			{"id": 1, "member_id": 1, "timestamp": 0, "content": "epoch"},
			{"id": 2, "member_id": 1, "content": "no timestamp"}
		]}`
	res, err := db.Import([]byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.NotesImported != 1 || res.NotesSkipped != 1 {
		t.Errorf("ImportResult = %+v", res)
	}

	members, _ := db.ListMembers("")
	if members[0].LastContact == nil || !members[0].LastContact.Equal(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastContact = %v, want 1970-01-01", members[0].LastContact)
	}
}

func TestImportInvalidJSONKeepsData(t *testing.T) {
	db := testDB(t)
	db.CreateMember("Ana")

	if _, err := db.Import([]byte(`{not json`)); !errors.Is(err, ErrInvalidExport) {
		t.Fatalf("invalid json: err = %v, want ErrInvalidExport", err)
	}
	if _, err := db.Import([]byte(`{"version": 3}`)); !errors.Is(err, ErrInvalidExport) {
		t.Fatalf("future version: err = %v, want ErrInvalidExport", err)
	}

	n, _ := db.CountMembers()
	if n != 1 {
		t.Errorf("CountMembers = %d, want 1", n)
	}
}
