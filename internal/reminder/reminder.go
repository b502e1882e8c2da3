// Package reminder runs the periodic overdue check.
//
// Check semantics:
//   - Overdue = never contacted, or more than cadence.OverdueThresholdDays
//     since the last meeting date
//   - One notification per run, listing every overdue member
//   - Runs on server startup, then every Interval (default 24h)
//   - "Today" is read in the store's location
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lazypower/llamadrama/internal/store"
)

// checkTimeout bounds a single background run, mostly the notifier call.
const checkTimeout = 30 * time.Second

// Result describes one check run.
type Result struct {
	CheckedAt    time.Time
	Overdue      []store.Member
	Notification *Notification // nil when nobody is overdue
}

// Checker finds overdue members and notifies about them.
type Checker struct {
	DB       *store.DB
	Notifier Notifier
	Interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Checker. A nil notifier only logs.
func New(db *store.DB, notifier Notifier, interval time.Duration) *Checker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Checker{
		DB:       db,
		Notifier: notifier,
		Interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Check runs one evaluation. The result is returned even if notifying fails.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	today := c.DB.Today()
	overdue, err := c.DB.OverdueMembers(today)
	if err != nil {
		return nil, fmt.Errorf("find overdue: %w", err)
	}

	res := &Result{CheckedAt: today, Overdue: overdue}
	if len(overdue) == 0 {
		return res, nil
	}

	names := make([]string, len(overdue))
	for i, m := range overdue {
		names[i] = m.Name
	}
	n := BuildNotification(names)
	res.Notification = &n

	if err := c.Notifier.Notify(ctx, n); err != nil {
		return res, fmt.Errorf("notify: %w", err)
	}
	return res, nil
}

// Start runs a check now and then every Interval until Stop.
func (c *Checker) Start() {
	c.runOnce()

	go func() {
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.runOnce()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the background loop. Safe to call more than once.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Checker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	res, err := c.Check(ctx)
	if err != nil {
		log.Err(err).Msg("reminder check failed")
		return
	}
	log.Debug().Int("overdue", len(res.Overdue)).Msg("reminder check done")
}
