// Package paths resolves where poolctl keeps its configuration file and
// its journal database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory component used under the platform roots.
const AppName = "kernelpool"

// DefaultDataDirName is the CWD-relative journal directory used when no
// override is active.
const DefaultDataDirName = ".kernelpool"

// ConfigFileName is the name of the configuration file inside the config dir.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "KERNELPOOL_CONFIG_DIR"
	EnvDataDir   = "KERNELPOOL_DATA_DIR"
)

// platformDir holds platform lookups that tests can replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// platformRoot returns the per-user root for config or data files. On
// Linux the XDG variable named by xdgEnv is honoured and fallback is the
// path under $HOME used when it is unset. Other platforms share
// os.UserConfigDir for both.
func platformRoot(xdgEnv string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/kernelpool (fallback ~/.config/kernelpool)
// macOS:   ~/Library/Application Support/kernelpool
// Windows: %APPDATA%/kernelpool
func DefaultConfigDir() (string, error) {
	return platformRoot("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/kernelpool (fallback ~/.local/share/kernelpool)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return platformRoot("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir applies flag > KERNELPOOL_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config file value > KERNELPOOL_DATA_DIR >
// $(CWD)/.kernelpool. Every result is absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config.yaml path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}
