package types

import "errors"

// Default pool capacities.
const (
	DefaultMaxProc     = 20
	DefaultMaxMessages = 20
)

// Config holds pool capacities and journal settings for core.Attach.
type Config struct {
	MaxProc     int           `json:"max_proc" yaml:"max_proc" mapstructure:"max_proc"`
	MaxMessages int           `json:"max_messages" yaml:"max_messages" mapstructure:"max_messages"`
	Journal     JournalConfig `json:"journal" yaml:"journal" mapstructure:"journal"`
}

// JournalConfig enables the diagnostic event journal. Events are buffered
// and written in batches of BatchSize; zero means DefaultJournalBatchSize.
type JournalConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DataDir   string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	BatchSize int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// DefaultJournalBatchSize is the journal batch size used when none is set.
const DefaultJournalBatchSize = 64

// GetBatchSize returns the effective batch size.
func (j JournalConfig) GetBatchSize() int {
	if j.BatchSize <= 0 {
		return DefaultJournalBatchSize
	}
	return j.BatchSize
}

// Config validation errors.
var (
	ErrCapacityInvalid   = errors.New("pool capacity must be positive")
	ErrJournalDirMissing = errors.New("journal enabled without a data directory")
)

// DefaultConfig returns a Config with the default capacities and the
// journal disabled.
func DefaultConfig() Config {
	return Config{
		MaxProc:     DefaultMaxProc,
		MaxMessages: DefaultMaxMessages,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.MaxProc <= 0 || c.MaxMessages <= 0 {
		return ErrCapacityInvalid
	}
	if c.Journal.Enabled && c.Journal.DataDir == "" {
		return ErrJournalDirMissing
	}
	return nil
}
