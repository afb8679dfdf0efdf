package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kernelpool/internal/journal"
	"github.com/mesh-intelligence/kernelpool/internal/paths"
)

type initResult struct {
	ConfigFile string `json:"config_file"`
	Written    bool   `json:"written"`
	DataDir    string `json:"data_dir"`
	Journal    bool   `json:"journal"`
}

func newInitCmd(a *app) *cobra.Command {
	var enableJournal bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and journal database",
		Long: "Write config.yaml to the configuration directory if it does not exist.\n" +
			"With --journal the written file enables the journal and the database\n" +
			"is created in the data directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, enableJournal)
		},
	}
	cmd.Flags().BoolVar(&enableJournal, "journal", false, "enable the event journal in the written config")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, enableJournal bool) error {
	path := paths.ConfigFile(a.configDir)

	// setup already wrote a default file on first run. --journal rewrites it
	// from the loaded values with the journal turned on.
	cfg := a.config
	written := false
	if enableJournal && !cfg.Journal.Enabled {
		cfg.Journal.Enabled = true
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return sysError("replace config: %w", err)
		}
		ok, err := writeConfigIfMissing(path, cfg)
		if err != nil {
			return sysError("write config: %w", err)
		}
		written = ok
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal, a.log)
		if err != nil {
			return sysError("initialize journal: %w", err)
		}
		if err := j.Close(); err != nil {
			return sysError("finalize journal: %w", err)
		}
	}

	res := initResult{
		ConfigFile: path,
		Written:    written,
		DataDir:    cfg.Journal.DataDir,
		Journal:    cfg.Journal.Enabled,
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", res.ConfigFile)
	if res.Journal {
		fmt.Fprintf(cmd.OutOrStdout(), "journal: %s\n", res.DataDir)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "journal: disabled")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "kernelpool initialized")
	return nil
}
