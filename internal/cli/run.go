package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kernelpool/internal/core"
	"github.com/mesh-intelligence/kernelpool/internal/scenario"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

type runOutput struct {
	*scenario.Report
	Session string `json:"session,omitempty"`
}

func newRunCmd(a *app) *cobra.Command {
	var (
		enableJournal  bool
		disableJournal bool
	)
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario script against fresh pools",
		Long: "Load a YAML scenario, attach pools at the configured capacities\n" +
			"(or the script's overrides) and execute each step in order. The\n" +
			"command fails at the first step whose outcome differs from the script.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config
			switch {
			case enableJournal:
				cfg.Journal.Enabled = true
			case disableJournal:
				cfg.Journal.Enabled = false
			}
			return a.runScenario(cmd, args[0], cfg)
		},
	}
	cmd.Flags().BoolVar(&enableJournal, "journal", false, "record pool events for this run")
	cmd.Flags().BoolVar(&disableJournal, "no-journal", false, "do not record pool events for this run")
	cmd.MarkFlagsMutuallyExclusive("journal", "no-journal")
	return cmd
}

func (a *app) runScenario(cmd *cobra.Command, path string, cfg types.Config) error {
	s, err := scenario.Load(path)
	if err != nil {
		return userError("%w", err)
	}

	c := core.New(core.WithLogger(a.log))
	if err := c.Attach(s.Apply(cfg)); err != nil {
		if errors.Is(err, types.ErrCapacityInvalid) || errors.Is(err, types.ErrJournalDirMissing) {
			return userError("attach pools: %w", err)
		}
		return sysError("attach pools: %w", err)
	}
	session := c.JournalSession()

	report, runErr := scenario.Run(cmd.Context(), c, s, a.log)
	if err := c.Detach(); err != nil {
		return sysError("detach pools: %w", err)
	}

	if report != nil {
		out := runOutput{Report: report, Session: session}
		if a.flags.jsonMode {
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		} else {
			printReport(cmd.OutOrStdout(), out)
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, scenario.ErrExpectation),
		errors.Is(runErr, scenario.ErrUnknownAlias),
		errors.Is(runErr, scenario.ErrMisuse):
		return userError("scenario %q: %w", s.Name, runErr)
	default:
		return sysError("scenario %q: %w", s.Name, runErr)
	}
}

func printReport(w io.Writer, out runOutput) {
	fmt.Fprintf(w, "scenario %s\n", out.Name)
	for _, st := range out.Steps {
		status := "ok"
		if !st.OK {
			status = "FAIL"
		}
		detail := st.Result
		if st.Err != "" {
			if detail != "" {
				detail += ": "
			}
			detail += st.Err
		}
		fmt.Fprintf(w, "%4d  %-4s  %-13s %s\n", st.Index, status, st.Op, detail)
	}
	if out.Session != "" {
		fmt.Fprintf(w, "journal session %s\n", out.Session)
	}
	if out.Failed {
		fmt.Fprintln(w, "FAILED")
		return
	}
	fmt.Fprintf(w, "PASS (%d steps)\n", len(out.Steps))
}
