package cadence

import (
	"fmt"
	"math"
	"time"
)

// InsufficientDataText is shown instead of an interval when fewer than two
// meetings exist.
const InsufficientDataText = "Need at least 2 meetings to calculate cadence"

// Summary bundles everything shown on a member's cadence card.
type Summary struct {
	Recency       Recency `json:"recency"`
	Cadence       Data    `json:"cadence"`
	TotalMeetings int     `json:"total_meetings"`
}

// Summarize evaluates recency and cadence together.
func Summarize(lastContact *time.Time, timestamps []time.Time, today time.Time) Summary {
	return Summary{
		Recency:       EvaluateRecency(lastContact, today),
		Cadence:       AnalyzeCadence(timestamps),
		TotalMeetings: len(timestamps),
	}
}

// FormatInterval renders an average interval for display. The value is
// floored, never rounded.
func FormatInterval(avg *float64) string {
	switch {
	case avg == nil:
		return InsufficientDataText
	case *avg < 1.0:
		return "Same day"
	case *avg == 1.0:
		return "Avg 1 day"
	default:
		return fmt.Sprintf("Avg %d days", int(math.Floor(*avg)))
	}
}

// RegularityLabel renders the regular flag.
func RegularityLabel(d Data) string {
	if d.Regular {
		return "Regular"
	}
	return "Irregular"
}

// Label renders a trend for display.
func (t Trend) Label() string {
	switch t {
	case TrendMoreFrequent:
		return "More frequent"
	case TrendLessFrequent:
		return "Less frequent"
	default:
		return "Stable"
	}
}
