package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/kernelpool/internal/paths"
	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "KERNELPOOL"
)

// Config keys.
const (
	cfgKeyMaxProc      = "max_proc"
	cfgKeyMaxMessages  = "max_messages"
	cfgKeyJournal      = "journal.enabled"
	cfgKeyJournalDir   = "journal.data_dir"
	cfgKeyJournalBatch = "journal.batch_size"
)

const configHeader = "# poolctl configuration\n" +
	"# max_proc and max_messages fix the pool capacities; scenario scripts may\n" +
	"# override them per run. journal.data_dir is overridden by --data-dir.\n"

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. Values may be overridden by
// KERNELPOOL_MAX_PROC, KERNELPOOL_MAX_MESSAGES and KERNELPOOL_JOURNAL_*.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := writeConfigIfMissing(paths.ConfigFile(configDir), types.DefaultConfig()); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	def := types.DefaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyMaxProc, def.MaxProc)
	v.SetDefault(cfgKeyMaxMessages, def.MaxMessages)
	v.SetDefault(cfgKeyJournal, def.Journal.Enabled)
	v.SetDefault(cfgKeyJournalDir, "")
	v.SetDefault(cfgKeyJournalBatch, types.DefaultJournalBatchSize)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing writes cfg to path as YAML unless the file already
// exists. It reports whether a file was written.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
