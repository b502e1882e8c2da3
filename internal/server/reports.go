package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lazypower/llamadrama/internal/cadence"
)

// maxImportBytes caps the size of an uploaded export.
const maxImportBytes = 32 << 20

// cadenceJSON is a cadence summary plus its display strings. Regularity and
// trend labels are only present once there is enough data.
type cadenceJSON struct {
	cadence.Summary
	Sufficient bool   `json:"sufficient"`
	Interval   string `json:"interval"`
	Regularity string `json:"regularity,omitempty"`
	TrendLabel string `json:"trend_label,omitempty"`
}

func newCadenceJSON(sum cadence.Summary) cadenceJSON {
	out := cadenceJSON{
		Summary:    sum,
		Sufficient: sum.Cadence.Sufficient(),
		Interval:   cadence.FormatInterval(sum.Cadence.AverageIntervalDays),
	}
	if out.Sufficient {
		out.Regularity = cadence.RegularityLabel(sum.Cadence)
		out.TrendLabel = sum.Cadence.Trend.Label()
	}
	return out
}

func (s *Server) handleCadence(w http.ResponseWriter, r *http.Request) {
	m := s.loadMember(w, r)
	if m == nil {
		return
	}
	series, err := s.db.MeetingSeries(m.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sum := cadence.Summarize(m.LastContact, cadence.Timestamps(series), s.db.Today())
	writeJSON(w, http.StatusOK, newCadenceJSON(sum))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	field, err := cadence.ParseField(r.URL.Query().Get("field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := s.loadMember(w, r)
	if m == nil {
		return
	}
	series, err := s.db.MeetingSeries(m.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": m.ID,
		"field":     field,
		"points":    cadence.ProjectTrendPoints(series, field),
	})
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	today := s.db.Today()
	overdue, err := s.db.OverdueMembers(today)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]memberJSON, len(overdue))
	for i, m := range overdue {
		out[i] = toMemberJSON(m, today)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold_days": cadence.OverdueThresholdDays,
		"count":          len(out),
		"members":        out,
	})
}

func (s *Server) handleReminderCheck(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeError(w, http.StatusServiceUnavailable, "reminder checker not configured")
		return
	}

	res, err := s.checker.Check(r.Context())
	if res == nil {
		writeStoreError(w, err)
		return
	}

	today := s.db.Today()
	out := make([]memberJSON, len(res.Overdue))
	for i, m := range res.Overdue {
		out[i] = toMemberJSON(m, today)
	}
	body := map[string]any{
		"checked_at":   res.CheckedAt.Format(time.RFC3339),
		"count":        len(out),
		"members":      out,
		"notification": res.Notification,
	}
	// A failed delivery still reports what was found.
	if err != nil {
		body["notify_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.db.ExportJSON()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="llamadrama-export.json"`)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "import too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	res, err := s.db.Import(data)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
