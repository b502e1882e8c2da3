package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/lazypower/llamadrama/internal/cadence"
)

var (
	badgeStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	goodBadge    = badgeStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2"))
	warningBadge = badgeStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	overdueBadge = badgeStyle.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))

	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// tierBadge renders a recency tier as a colored label.
func tierBadge(t cadence.Tier) string {
	switch t {
	case cadence.TierGood:
		return goodBadge.Render("good")
	case cadence.TierWarning:
		return warningBadge.Render("warning")
	default:
		return overdueBadge.Render("overdue")
	}
}

// contactText describes a last contact date relative to today.
func contactText(lastContact *time.Time, today time.Time) string {
	if lastContact == nil {
		return "never"
	}
	days := cadence.DaysBetween(*lastContact, today)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	}
	return humanize.RelTime(cadence.DateOf(*lastContact), cadence.DateOf(today), "ago", "from now")
}

func meetingCount(n int) string {
	return pluralCount(n, "meeting")
}

func pluralCount(n int, noun string) string {
	return english.Plural(n, noun, "")
}

func sentimentText(label string, v *int) string {
	if v == nil {
		return ""
	}
	names := map[string][]string{
		"mood":         {"", "low", "ok", "good"},
		"productivity": {"", "low", "ok", "high"},
	}
	if opts, ok := names[label]; ok && *v >= 1 && *v < len(opts) {
		return label + ": " + opts[*v]
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
