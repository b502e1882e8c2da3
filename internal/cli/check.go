package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/llamadrama/internal/cadence"
	"github.com/lazypower/llamadrama/internal/reminder"
)

var checkQuiet bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the overdue check once and send the reminder",
	Long:  "Run the overdue check once. The reminder goes to the log and, when reminder.webhook_url is set, to the webhook.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "only print, do not notify")
}

func runCheck(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	notifier := buildNotifier(cfg)
	if checkQuiet {
		notifier = reminder.MultiNotifier{}
	}

	res, err := reminder.New(db, notifier, cfg.Reminder.Interval).Check(cmd.Context())
	if res == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Notification == nil {
		fmt.Fprintln(out, "Nobody is overdue.")
		return err
	}
	fmt.Fprintln(out, headingStyle.Render(res.Notification.Title))
	fmt.Fprintln(out, res.Notification.Body)
	today := db.Today()
	for _, m := range res.Overdue {
		fmt.Fprintf(out, "  %s  %s (%s)\n", tierBadge(cadence.TierOverdue), m.Name, contactText(m.LastContact, today))
	}
	return err
}
