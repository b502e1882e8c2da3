package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lazypower/llamadrama/internal/cadence"
	"github.com/lazypower/llamadrama/internal/store"
)

var memberCmd = &cobra.Command{
	Use:     "member",
	Aliases: []string{"m"},
	Short:   "Manage team members",
}

var memberListCmd = &cobra.Command{
	Use:     "list [search]",
	Aliases: []string{"ls"},
	Short:   "List members, longest without a 1-on-1 first",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runMemberList,
}

var memberAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a team member",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemberAdd,
}

var memberRenameCmd = &cobra.Command{
	Use:   "rename <member> <new name>",
	Short: "Rename a team member",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMemberRename,
}

var memberRmCmd = &cobra.Command{
	Use:     "rm <member>",
	Aliases: []string{"delete"},
	Short:   "Delete a member and all their notes",
	Args:    cobra.ExactArgs(1),
	RunE:    runMemberRm,
}

var memberShowCmd = &cobra.Command{
	Use:   "show <member>",
	Short: "Show a member's recency, cadence and recent notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberShow,
}

var memberShowNotes int

func init() {
	memberShowCmd.Flags().IntVarP(&memberShowNotes, "notes", "n", 5, "number of recent notes to show")

	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberRenameCmd)
	memberCmd.AddCommand(memberRmCmd)
	memberCmd.AddCommand(memberShowCmd)
}

// resolveMember finds a member by ID or by case-insensitive full name.
func resolveMember(db *store.DB, arg string) (*store.Member, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		m, err := db.GetMember(id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("member %d: %w", id, store.ErrMemberNotFound)
		}
		return m, nil
	}

	members, err := db.ListMembers(arg)
	if err != nil {
		return nil, err
	}
	var matches []store.Member
	for _, m := range members {
		if strings.EqualFold(m.Name, strings.TrimSpace(arg)) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("member %q: %w", arg, store.ErrMemberNotFound)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%d members are named %q, use the ID", len(matches), arg)
}

func runMemberList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	members, err := db.ListMembers(query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(members) == 0 {
		if query != "" {
			fmt.Fprintf(out, "No members match %q.\n", query)
		} else {
			fmt.Fprintln(out, "No members yet. Use 'llamadrama member add <name>' to add one.")
		}
		return nil
	}

	today := db.Today()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLAST 1-ON-1\tTOPIC\tSTATUS")
	for _, m := range members {
		topic := ""
		if m.LastTopic != nil {
			topic = truncate(*m.LastTopic, 40)
		}
		r := cadence.EvaluateRecency(m.LastContact, today)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Name, contactText(m.LastContact, today), topic, tierBadge(r.Tier))
	}
	return w.Flush()
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.CreateMember(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id %d)\n", m.Name, m.ID)
	return nil
}

func runMemberRename(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := resolveMember(db, args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	if err := db.RenameMember(m.ID, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", m.Name, strings.TrimSpace(name))
	return nil
}

func runMemberRm(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := resolveMember(db, args[0])
	if err != nil {
		return err
	}
	notes, err := db.ListNotes(m.ID)
	if err != nil {
		return err
	}
	if err := db.DeleteMember(m.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s and %s\n", m.Name, meetingCount(len(notes)))
	return nil
}

func runMemberShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := resolveMember(db, args[0])
	if err != nil {
		return err
	}
	notes, err := db.ListNotes(m.ID)
	if err != nil {
		return err
	}
	series, err := db.MeetingSeries(m.ID)
	if err != nil {
		return err
	}

	today := db.Today()
	sum := cadence.Summarize(m.LastContact, cadence.Timestamps(series), today)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s %s\n", headingStyle.Render(m.Name), tierBadge(sum.Recency.Tier))
	fmt.Fprintf(out, "Added:       %s\n", humanize.Time(time.UnixMilli(m.CreatedAt)))
	fmt.Fprintf(out, "Last 1-on-1: %s\n", contactText(m.LastContact, today))
	if m.LastTopic != nil {
		fmt.Fprintf(out, "Last topic:  %s\n", *m.LastTopic)
	}
	fmt.Fprintf(out, "Meetings:    %s\n", humanize.Comma(int64(sum.TotalMeetings)))
	fmt.Fprintf(out, "Cadence:     %s\n", cadence.FormatInterval(sum.Cadence.AverageIntervalDays))
	if sum.Cadence.Sufficient() {
		fmt.Fprintf(out, "Pattern:     %s, %s\n", cadence.RegularityLabel(sum.Cadence), strings.ToLower(sum.Cadence.Trend.Label()))
	}

	if len(notes) == 0 || memberShowNotes <= 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, headingStyle.Render("Recent notes"))
	for i, n := range notes {
		if i == memberShowNotes {
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("... and %d more", len(notes)-i)))
			break
		}
		printNote(out, n)
	}
	return nil
}
