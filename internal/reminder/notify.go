package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Notification is the reminder emitted when members are overdue.
type Notification struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Count   int      `json:"count"`
	Members []string `json:"members"`
}

// Notifier delivers a Notification somewhere.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// BuildNotification writes the title and body for the given overdue names.
func BuildNotification(names []string) Notification {
	n := Notification{Count: len(names), Members: names}

	if n.Count == 1 {
		n.Title = "1 overdue 1-on-1"
	} else {
		n.Title = fmt.Sprintf("%d overdue 1-on-1s", n.Count)
	}

	switch {
	case len(names) == 0:
		n.Body = "Time to catch up with your team!"
	case len(names) <= 3:
		n.Body = "Time to catch up with " + strings.Join(names, ", ")
	default:
		n.Body = fmt.Sprintf("Time to catch up with %s and %d others",
			strings.Join(names[:2], ", "), len(names)-2)
	}
	return n
}

// LogNotifier writes notifications to the global zerolog logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.Warn().
		Int("overdue", n.Count).
		Strs("members", n.Members).
		Str("title", n.Title).
		Msg(n.Body)
	return nil
}

// MultiNotifier sends to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
