package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lazypower/llamadrama/internal/config"
	"github.com/lazypower/llamadrama/internal/reminder"
	"github.com/lazypower/llamadrama/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the reminder check",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var checker *reminder.Checker
	if cfg.Reminder.Enabled {
		checker = reminder.New(db, buildNotifier(cfg), cfg.Reminder.Interval)
		checker.Start()
		defer checker.Stop()
		log.Info().Dur("interval", cfg.Reminder.Interval).Msg("reminder check enabled")
	} else {
		log.Info().Msg("reminder check disabled")
	}

	srv := server.New(db, checker, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("db", db.Path).Str("tz", db.Location.String()).Msg("llamadrama serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return err
	}
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// buildNotifier always logs and also posts to the webhook when one is set.
func buildNotifier(c *config.Config) reminder.Notifier {
	notifiers := reminder.MultiNotifier{reminder.LogNotifier{}}
	if c.Reminder.WebhookURL != "" {
		notifiers = append(notifiers, reminder.NewWebhookNotifier(c.Reminder.WebhookURL, c.Reminder.WebhookTimeout))
	}
	return notifiers
}
