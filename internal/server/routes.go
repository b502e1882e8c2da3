package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lazypower/llamadrama/internal/cadence"
	"github.com/lazypower/llamadrama/internal/store"
)

const dateLayout = "2006-01-02"

type memberJSON struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	LastContact *string         `json:"last_contact"`
	LastTopic   *string         `json:"last_topic"`
	CreatedAt   int64           `json:"created_at"`
	Recency     cadence.Recency `json:"recency"`
}

func toMemberJSON(m store.Member, today time.Time) memberJSON {
	out := memberJSON{
		ID:        m.ID,
		Name:      m.Name,
		LastTopic: m.LastTopic,
		CreatedAt: m.CreatedAt,
		Recency:   cadence.EvaluateRecency(m.LastContact, today),
	}
	if m.LastContact != nil {
		d := m.LastContact.Format(dateLayout)
		out.LastContact = &d
	}
	return out
}

type noteJSON struct {
	ID           int64     `json:"id"`
	MemberID     int64     `json:"member_id"`
	Timestamp    time.Time `json:"timestamp"`
	Content      string    `json:"content"`
	Mood         *int      `json:"mood"`
	Productivity *int      `json:"productivity"`
	FlightRisk   *int      `json:"flight_risk"`
	CreatedAt    int64     `json:"created_at"`
	UpdatedAt    int64     `json:"updated_at"`
}

func toNoteJSON(n store.Note) noteJSON {
	return noteJSON{
		ID:           n.ID,
		MemberID:     n.MemberID,
		Timestamp:    n.Timestamp,
		Content:      n.Content,
		Mood:         n.Mood,
		Productivity: n.Productivity,
		FlightRisk:   n.FlightRisk,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func toNotesJSON(notes []store.Note) []noteJSON {
	out := make([]noteJSON, len(notes))
	for i, n := range notes {
		out[i] = toNoteJSON(n)
	}
	return out
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.db.ListMembers(r.URL.Query().Get("q"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	today := s.db.Today()
	out := make([]memberJSON, len(members))
	for i, m := range members {
		out[i] = toMemberJSON(m, today)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(out),
		"members": out,
	})
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	m, err := s.db.CreateMember(req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberJSON(*m, s.db.Today()))
}

// loadMember resolves the {memberID} param, writing the error response
// itself when it returns nil.
func (s *Server) loadMember(w http.ResponseWriter, r *http.Request) *store.Member {
	id, ok := idParam(r, "memberID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return nil
	}
	m, err := s.db.GetMember(id)
	if err != nil {
		writeStoreError(w, err)
		return nil
	}
	if m == nil {
		writeError(w, http.StatusNotFound, store.ErrMemberNotFound.Error())
		return nil
	}
	return m
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m := s.loadMember(w, r)
	if m == nil {
		return
	}

	notes, err := s.db.ListNotes(m.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	series, err := s.db.MeetingSeries(m.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	today := s.db.Today()
	writeJSON(w, http.StatusOK, map[string]any{
		"member":  toMemberJSON(*m, today),
		"cadence": newCadenceJSON(cadence.Summarize(m.LastContact, cadence.Timestamps(series), today)),
		"trends": map[cadence.Field][]cadence.TrendPoint{
			cadence.FieldMood:         cadence.ProjectTrendPoints(series, cadence.FieldMood),
			cadence.FieldProductivity: cadence.ProjectTrendPoints(series, cadence.FieldProductivity),
		},
		"notes": toNotesJSON(notes),
	})
}

func (s *Server) handleRenameMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "memberID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.db.RenameMember(id, req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	m := s.loadMember(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, toMemberJSON(*m, s.db.Today()))
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "memberID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	if err := s.db.DeleteMember(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	m := s.loadMember(w, r)
	if m == nil {
		return
	}
	notes, err := s.db.ListNotes(m.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": m.ID,
		"count":     len(notes),
		"notes":     toNotesJSON(notes),
	})
}

// noteRequest is the body of note create and update calls. A missing
// timestamp means now on create and unchanged on update.
type noteRequest struct {
	MemberID     *int64     `json:"member_id"`
	Timestamp    *time.Time `json:"timestamp"`
	Content      string     `json:"content"`
	Mood         *int       `json:"mood"`
	Productivity *int       `json:"productivity"`
	FlightRisk   *int       `json:"flight_risk"`
}

func (req noteRequest) apply(n *store.Note) {
	if req.MemberID != nil {
		n.MemberID = *req.MemberID
	}
	if req.Timestamp != nil {
		n.Timestamp = *req.Timestamp
	}
	n.Content = req.Content
	n.Mood = req.Mood
	n.Productivity = req.Productivity
	n.FlightRisk = req.FlightRisk
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "memberID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	note := &store.Note{}
	req.apply(note)
	note.MemberID = id
	if err := s.db.AddNote(note); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteJSON(*note))
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "noteID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	note, err := s.db.GetNote(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, store.ErrNoteNotFound.Error())
		return
	}

	req.apply(note)
	if err := s.db.UpdateNote(note); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteJSON(*note))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "noteID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	if err := s.db.DeleteNote(id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
