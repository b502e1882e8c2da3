package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildNotification(t *testing.T) {
	tests := []struct {
		names []string
		title string
		body  string
	}{
		{nil, "0 overdue 1-on-1s", "Time to catch up with your team!"},
		{[]string{"Ana"}, "1 overdue 1-on-1", "Time to catch up with Ana"},
		{[]string{"Ana", "Bo"}, "2 overdue 1-on-1s", "Time to catch up with Ana, Bo"},
		{[]string{"Ana", "Bo", "Cy"}, "3 overdue 1-on-1s", "Time to catch up with Ana, Bo, Cy"},
		{[]string{"Ana", "Bo", "Cy", "Di", "Ed"}, "5 overdue 1-on-1s", "Time to catch up with Ana, Bo and 3 others"},
	}

	for _, tt := range tests {
		n := BuildNotification(tt.names)
		if n.Title != tt.title {
			t.Errorf("Title(%v) = %q, want %q", tt.names, n.Title, tt.title)
		}
		if n.Body != tt.body {
			t.Errorf("Body(%v) = %q, want %q", tt.names, n.Body, tt.body)
		}
		if n.Count != len(tt.names) {
			t.Errorf("Count(%v) = %d, want %d", tt.names, n.Count, len(tt.names))
		}
	}
}

type recordNotifier struct {
	got []Notification
	err error
}

func (r *recordNotifier) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestMultiNotifier(t *testing.T) {
	a := &recordNotifier{}
	b := &recordNotifier{err: errors.New("boom")}
	c := &recordNotifier{}

	err := MultiNotifier{a, b, c}.Notify(context.Background(), BuildNotification([]string{"Ana"}))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want boom", err)
	}
	for i, r := range []*recordNotifier{a, b, c} {
		if len(r.got) != 1 {
			t.Errorf("notifier %d got %d notifications, want 1", i, len(r.got))
		}
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), BuildNotification([]string{"Ana"})); err != nil {
		t.Errorf("LogNotifier.Notify: %v", err)
	}
}
