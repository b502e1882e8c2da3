package cadence

import "time"

// OverdueThresholdDays is the number of days without contact after which a
// member is overdue. Shared by the tier badges and the reminder check.
const OverdueThresholdDays = 14

// goodMaxDays is the upper bound of the good tier.
const goodMaxDays = 7

// Tier is the badge classification of a member's contact recency.
type Tier string

const (
	TierGood    Tier = "good"
	TierWarning Tier = "warning"
	TierOverdue Tier = "overdue"
)

// Recency is the result of EvaluateRecency.
type Recency struct {
	DaysSince *int `json:"days_since"`
	Overdue   bool `json:"overdue"`
	Tier      Tier `json:"tier"`
}

// EvaluateRecency computes days since last contact and the overdue
// classification. A nil lastContact means the member was never contacted,
// which counts as overdue.
func EvaluateRecency(lastContact *time.Time, today time.Time) Recency {
	if lastContact == nil {
		return Recency{Overdue: true, Tier: TierOverdue}
	}
	days := DaysBetween(*lastContact, today)
	return Recency{
		DaysSince: &days,
		Overdue:   days > OverdueThresholdDays,
		Tier:      TierFor(days),
	}
}

// TierFor maps a day count to its badge tier. Negative counts (contact logged
// in the future) fall in the good tier.
func TierFor(days int) Tier {
	switch {
	case days <= goodMaxDays:
		return TierGood
	case days <= OverdueThresholdDays:
		return TierWarning
	default:
		return TierOverdue
	}
}
