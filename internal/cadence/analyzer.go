package cadence

import (
	"math"
	"sort"
	"time"
)

// Classification constants. Changing any of these moves observable
// classification boundaries.
const (
	// RegularityMaxCV is the largest coefficient of variation (stddev / mean
	// of the gaps) that still counts as a regular cadence.
	RegularityMaxCV = 0.40

	// TrendWindow is the maximum number of most recent gaps compared against
	// the earlier ones.
	TrendWindow = 3

	// TrendThreshold is the relative difference between the recent and the
	// historical average gap below which the trend is stable.
	TrendThreshold = 0.10
)

// Trend is the direction of change of a member's meeting frequency.
type Trend string

const (
	TrendMoreFrequent Trend = "more_frequent"
	TrendLessFrequent Trend = "less_frequent"
	TrendStable       Trend = "stable"
)

// Data is the cadence of one member's meetings. AverageIntervalDays is nil
// when there are fewer than two meetings.
type Data struct {
	AverageIntervalDays *float64 `json:"average_interval_days"`
	Regular             bool     `json:"regular"`
	Trend               Trend    `json:"trend"`
}

// Sufficient reports whether there were enough meetings to compute a cadence.
func (d Data) Sufficient() bool {
	return d.AverageIntervalDays != nil
}

// AnalyzeCadence computes the average gap between meetings, whether the gaps
// are regular, and whether meetings are getting more or less frequent.
// The input does not need to be sorted and is not modified.
func AnalyzeCadence(timestamps []time.Time) Data {
	if len(timestamps) < 2 {
		return Data{Trend: TrendStable}
	}

	gaps := Gaps(timestamps)
	avg := mean(gaps)
	return Data{
		AverageIntervalDays: &avg,
		Regular:             isRegular(gaps, avg),
		Trend:               trendOf(gaps),
	}
}

// Gaps returns the whole-day gaps between consecutive meeting dates, oldest
// first.
func Gaps(timestamps []time.Time) []float64 {
	if len(timestamps) < 2 {
		return nil
	}
	days := make([]int64, len(timestamps))
	for i, ts := range timestamps {
		days[i] = EpochDay(ts)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	gaps := make([]float64, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps[i-1] = float64(days[i] - days[i-1])
	}
	return gaps
}

func isRegular(gaps []float64, avg float64) bool {
	return stddev(gaps, avg) <= RegularityMaxCV*avg
}

func trendOf(gaps []float64) Trend {
	window := min(TrendWindow, len(gaps)-1)
	if window < 1 {
		return TrendStable
	}
	split := len(gaps) - window
	historical := mean(gaps[:split])
	recent := mean(gaps[split:])

	switch {
	case recent < historical*(1-TrendThreshold):
		return TrendMoreFrequent
	case recent > historical*(1+TrendThreshold):
		return TrendLessFrequent
	default:
		return TrendStable
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation of xs around avg.
func stddev(xs []float64, avg float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sq float64
	for _, x := range xs {
		d := x - avg
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
