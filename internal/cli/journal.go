package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kernelpool/internal/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journal sessions or the events of one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJournal(cmd, session)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "show the events of this session")
	return cmd
}

func (a *app) runJournal(cmd *cobra.Command, session string) error {
	dbPath := filepath.Join(a.config.Journal.DataDir, journal.FileName)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return userError("no journal at %s (run with --journal first)", dbPath)
	}

	j, err := journal.Open(a.config.Journal, a.log)
	if err != nil {
		return sysError("open journal: %w", err)
	}
	defer j.Close()

	if session == "" {
		sessions, err := j.Sessions()
		if err != nil {
			return sysError("list sessions: %w", err)
		}
		if a.flags.jsonMode {
			return printJSON(cmd.OutOrStdout(), sessions)
		}
		printSessions(cmd.OutOrStdout(), sessions)
		return nil
	}

	entries, err := j.Events(session)
	if err != nil {
		if errors.Is(err, journal.ErrNoSession) {
			return userError("%w: %s", err, session)
		}
		return sysError("read events: %w", err)
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	printEntries(cmd.OutOrStdout(), entries)
	return nil
}

func printSessions(w io.Writer, sessions []journal.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return
	}
	for _, s := range sessions {
		ended := "open"
		if s.EndedAt != nil {
			ended = s.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s  %s  %-19s  %d events\n",
			s.SessionID, s.StartedAt.Format("2006-01-02 15:04:05"), ended, s.Events)
	}
}

func printEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%6d  %-9s  %-3s  slot %3d", e.Seq, e.Kind, e.Pool, e.Slot)
		if e.PID != 0 {
			fmt.Fprintf(w, "  pid %d", e.PID)
		}
		fmt.Fprintln(w)
	}
}
