package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kernelpool/internal/core"
	"github.com/mesh-intelligence/kernelpool/internal/journal"
	"github.com/mesh-intelligence/kernelpool/pkg/msg"
	"github.com/mesh-intelligence/kernelpool/pkg/pcb"
)

type poolStats struct {
	Capacity  int `json:"capacity"`
	Available int `json:"available"`
}

type statsOutput struct {
	PCB      poolStats `json:"pcb"`
	Messages poolStats `json:"messages"`
	Journal  bool      `json:"journal"`
	DataDir  string    `json:"data_dir,omitempty"`
	Sessions int       `json:"sessions"`
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show configured pool capacities and journal totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd)
		},
	}
}

func (a *app) runStats(cmd *cobra.Command) error {
	// Attach without the journal so inspecting does not open a session.
	cfg := a.config
	cfg.Journal.Enabled = false

	c := core.New(core.WithLogger(a.log))
	if err := c.Attach(cfg); err != nil {
		return userError("attach pools: %w", err)
	}
	defer c.Detach()

	var out statsOutput
	err := c.Do(func(procs *pcb.Pool, msgs *msg.Pool) error {
		out.PCB = poolStats{Capacity: procs.Capacity(), Available: procs.Available()}
		out.Messages = poolStats{Capacity: msgs.Capacity(), Available: msgs.Available()}
		return nil
	})
	if err != nil {
		return sysError("read pools: %w", err)
	}

	if a.config.Journal.Enabled {
		out.Journal = true
		out.DataDir = a.config.Journal.DataDir
		j, err := journal.Open(a.config.Journal, a.log)
		if err != nil {
			return sysError("open journal: %w", err)
		}
		sessions, err := j.Sessions()
		j.Close()
		if err != nil {
			return sysError("list sessions: %w", err)
		}
		out.Sessions = len(sessions)
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "pcb pool:     %d/%d available\n", out.PCB.Available, out.PCB.Capacity)
	fmt.Fprintf(w, "message pool: %d/%d available\n", out.Messages.Available, out.Messages.Capacity)
	if out.Journal {
		fmt.Fprintf(w, "journal:      %s (%d sessions)\n", out.DataDir, out.Sessions)
	} else {
		fmt.Fprintln(w, "journal:      disabled")
	}
	return nil
}
