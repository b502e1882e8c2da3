package cadence

import (
	"fmt"
	"sort"
	"time"
)

// Meeting is the analytics view of one meeting note.
type Meeting struct {
	Timestamp    time.Time
	Mood         *int
	Productivity *int
	FlightRisk   *int
}

// Field selects which sentiment value ProjectTrendPoints reads.
type Field string

const (
	FieldMood         Field = "mood"
	FieldProductivity Field = "productivity"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldMood, FieldProductivity:
		return Field(s), nil
	}
	return "", fmt.Errorf("unknown trend field %q", s)
}

func (f Field) value(m Meeting) *int {
	switch f {
	case FieldMood:
		return m.Mood
	case FieldProductivity:
		return m.Productivity
	}
	return nil
}

// TrendPoint is one charted sentiment value.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// ProjectTrendPoints returns one point per meeting that has the field set,
// ordered by date. Meetings on the same day keep separate points, in their
// input order.
func ProjectTrendPoints(meetings []Meeting, field Field) []TrendPoint {
	points := make([]TrendPoint, 0, len(meetings))
	for _, m := range meetings {
		v := field.value(m)
		if v == nil {
			continue
		}
		points = append(points, TrendPoint{Date: DateOf(m.Timestamp), Value: *v})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Timestamps extracts the meeting times.
func Timestamps(meetings []Meeting) []time.Time {
	out := make([]time.Time, len(meetings))
	for i, m := range meetings {
		out[i] = m.Timestamp
	}
	return out
}
