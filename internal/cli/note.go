package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/llamadrama/internal/store"
)

var noteCmd = &cobra.Command{
	Use:     "note",
	Aliases: []string{"n"},
	Short:   "Log and manage 1-on-1 notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <member> [content...]",
	Short: "Log a 1-on-1 with a member",
	Long:  "Log a 1-on-1. Content comes from the remaining arguments, or from stdin when there are none or the only one is '-'.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteAdd,
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <note id> [content...]",
	Short: "Edit a note; only the given fields change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteEdit,
}

var noteRmCmd = &cobra.Command{
	Use:     "rm <note id>",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteRm,
}

var noteListCmd = &cobra.Command{
	Use:     "list <member>",
	Aliases: []string{"ls"},
	Short:   "List a member's notes, newest first",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteList,
}

// noteFlags are shared by add and edit. Only flags the user set are applied.
type noteFlags struct {
	at           string
	mood         int
	productivity int
	flightRisk   bool
	member       string
}

var (
	addFlags  noteFlags
	editFlags noteFlags
)

func (f *noteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.at, "at", "", "meeting time: YYYY-MM-DD, 'YYYY-MM-DD HH:MM' or RFC 3339 (default now)")
	cmd.Flags().IntVar(&f.mood, "mood", 0, "mood 1-3")
	cmd.Flags().IntVar(&f.productivity, "productivity", 0, "productivity 1-3")
	cmd.Flags().BoolVar(&f.flightRisk, "flight-risk", false, "flag the member as a flight risk")
}

// apply copies the flags the user set onto n.
func (f *noteFlags) apply(cmd *cobra.Command, db *store.DB, n *store.Note) error {
	flags := cmd.Flags()
	if flags.Changed("at") {
		ts, err := parseWhen(f.at, db.Location)
		if err != nil {
			return err
		}
		n.Timestamp = ts
	}
	if flags.Changed("mood") {
		n.Mood = intPtr(f.mood)
	}
	if flags.Changed("productivity") {
		n.Productivity = intPtr(f.productivity)
	}
	if flags.Changed("flight-risk") {
		v := 0
		if f.flightRisk {
			v = 1
		}
		n.FlightRisk = &v
	}
	if flags.Changed("member") {
		m, err := resolveMember(db, f.member)
		if err != nil {
			return err
		}
		n.MemberID = m.ID
	}
	return nil
}

func init() {
	addFlags.register(noteAddCmd)
	editFlags.register(noteEditCmd)
	noteEditCmd.Flags().StringVar(&editFlags.member, "member", "", "move the note to another member")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteRmCmd)
	noteCmd.AddCommand(noteListCmd)
}

func intPtr(v int) *int { return &v }

var whenLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseWhen reads a meeting time in loc. RFC 3339 input keeps its own offset.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// readContent joins args, or reads stdin when args are empty or "-".
func readContent(in io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read note from stdin: %w", err)
	}
	return string(data), nil
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := resolveMember(db, args[0])
	if err != nil {
		return err
	}
	content, err := readContent(cmd.InOrStdin(), args[1:])
	if err != nil {
		return err
	}

	n := &store.Note{MemberID: m.ID, Content: content}
	if err := addFlags.apply(cmd, db, n); err != nil {
		return err
	}
	if err := db.AddNote(n); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged note %d for %s on %s\n", n.ID, m.Name, n.Timestamp.In(db.Location).Format("Mon Jan 2 2006"))
	return nil
}

func parseNoteID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

func runNoteEdit(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.GetNote(id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("note %d: %w", id, store.ErrNoteNotFound)
	}
	if len(args) > 1 {
		n.Content = strings.Join(args[1:], " ")
	}
	if err := editFlags.apply(cmd, db, n); err != nil {
		return err
	}
	if err := db.UpdateNote(n); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated note %d\n", n.ID)
	return nil
}

func runNoteRm(cmd *cobra.Command, args []string) error {
	id, err := parseNoteID(args[0])
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteNote(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
	return nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if len(notes) == 0 {
		fmt.Fprintf(out, "No notes for %s yet.\n", m.Name)
		return nil
	}
	fmt.Fprintf(out, "%s (%s)\n", headingStyle.Render(m.Name), meetingCount(len(notes)))
	for _, n := range notes {
		printNote(out, n)
	}
	return nil
}

func printNote(out io.Writer, n store.Note) {
	var tags []string
	for _, t := range []string{sentimentText("mood", n.Mood), sentimentText("productivity", n.Productivity)} {
		if t != "" {
			tags = append(tags, t)
		}
	}
	if n.AtRisk() {
		tags = append(tags, overdueBadge.Render("flight risk"))
	}

	header := fmt.Sprintf("#%d  %s", n.ID, n.Timestamp.Format("Mon Jan 2 2006 15:04"))
	if len(tags) > 0 {
		header += "  " + dimStyle.Render(strings.Join(tags, " · "))
	}
	fmt.Fprintln(out, header)
	for _, line := range strings.Split(n.Content, "\n") {
		fmt.Fprintln(out, "    "+line)
	}
}

