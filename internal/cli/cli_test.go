package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kernelpool/internal/journal"
	"github.com/mesh-intelligence/kernelpool/internal/paths"
	"github.com/mesh-intelligence/kernelpool/internal/scenario"
)

// testEnv isolates one poolctl invocation chain in temporary directories.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, key := range []string{
		paths.EnvConfigDir, paths.EnvDataDir,
		"KERNELPOOL_MAX_PROC", "KERNELPOOL_MAX_MESSAGES",
		"KERNELPOOL_JOURNAL_ENABLED", "KERNELPOOL_JOURNAL_DATA_DIR", "KERNELPOOL_JOURNAL_BATCH_SIZE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	root := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes poolctl with the env's directories and returns stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "poolctl %v", args)
	return out
}

func (e *testEnv) writeConfig(body string) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(e.t, os.WriteFile(paths.ConfigFile(e.configDir), []byte(body), 0o644))
}

func (e *testEnv) writeScript(name, body string) string {
	e.t.Helper()
	path := filepath.Join(e.t.TempDir(), name)
	require.NoError(e.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const capacityScript = `name: capacity-bound
max_proc: 2
steps:
  - op: alloc_pcb
    as: a
  - op: alloc_pcb
    as: b
  - op: alloc_pcb
    as: c
    expect_error: exhausted
  - op: release_pcb
    ref: a
  - op: alloc_pcb
    as: c
`

const failingScript = `name: wrong-expectation
steps:
  - op: alloc_pcb
    as: a
    expect_error: exhausted
  - op: alloc_pcb
    as: b
`

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("version")
	assert.Contains(t, out, "poolctl v"+Version)
	assert.Contains(t, out, modulePath)

	_, err := os.Stat(env.configDir)
	assert.True(t, os.IsNotExist(err), "version must not touch the config dir")
}

func TestInit(t *testing.T) {
	t.Run("writes default config once", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun("init")
		assert.Contains(t, out, "kernelpool initialized")
		assert.Contains(t, out, "journal: disabled")

		data, err := os.ReadFile(paths.ConfigFile(env.configDir))
		require.NoError(t, err)
		assert.Contains(t, string(data), "max_proc: 20")
		assert.Contains(t, string(data), "max_messages: 20")

		env.mustRun("init")
		again, err := os.ReadFile(paths.ConfigFile(env.configDir))
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})

	t.Run("journal flag creates database", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun("--json", "init", "--journal")

		var res initResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Written)
		assert.True(t, res.Journal)
		assert.Equal(t, env.dataDir, res.DataDir)
		assert.FileExists(t, filepath.Join(env.dataDir, journal.FileName))

		data, err := os.ReadFile(paths.ConfigFile(env.configDir))
		require.NoError(t, err)
		assert.Contains(t, string(data), "enabled: true")
	})
}

func TestStats(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		env      map[string]string
		wantPCB  int
		wantMsgs int
	}{
		{name: "defaults", wantPCB: 20, wantMsgs: 20},
		{name: "config file", config: "max_proc: 3\nmax_messages: 7\n", wantPCB: 3, wantMsgs: 7},
		{
			name:     "env overrides config",
			config:   "max_proc: 3\nmax_messages: 7\n",
			env:      map[string]string{"KERNELPOOL_MAX_PROC": "5"},
			wantPCB:  5,
			wantMsgs: 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.config != "" {
				env.writeConfig(tt.config)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			out := env.mustRun("--json", "stats")
			var got statsOutput
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, poolStats{Capacity: tt.wantPCB, Available: tt.wantPCB}, got.PCB)
			assert.Equal(t, poolStats{Capacity: tt.wantMsgs, Available: tt.wantMsgs}, got.Messages)
			assert.False(t, got.Journal)
		})
	}
}

func TestStats_InvalidCapacity(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig("max_proc: 0\n")

	_, err := env.run("stats")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestRun(t *testing.T) {
	t.Run("passing scenario", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun("run", env.writeScript("capacity.yaml", capacityScript))
		assert.Contains(t, out, "scenario capacity-bound")
		assert.Contains(t, out, "PASS (5 steps)")
	})

	t.Run("bundled family scenario", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun("run", filepath.Join("..", "scenario", "testdata", "family.yaml"))
		assert.Contains(t, out, "PASS")
	})

	t.Run("failed expectation exits with user error", func(t *testing.T) {
		env := newTestEnv(t)
		out, err := env.run("--json", "run", env.writeScript("fail.yaml", failingScript))
		require.Error(t, err)
		assert.Equal(t, exitUserError, exitCode(err))

		var got runOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.True(t, got.Failed)
		require.Len(t, got.Steps, 1)
		assert.False(t, got.Steps[0].OK)
	})

	t.Run("pool misuse exits with user error", func(t *testing.T) {
		env := newTestEnv(t)
		script := "name: double-ready\nsteps:\n" +
			"  - {op: alloc_pcb, as: a}\n" +
			"  - {op: ready, ref: a}\n" +
			"  - {op: ready, ref: a}\n"
		out, err := env.run("run", env.writeScript("misuse.yaml", script))
		require.Error(t, err)
		assert.ErrorIs(t, err, scenario.ErrMisuse)
		assert.Equal(t, exitUserError, exitCode(err))
		assert.Contains(t, out, "FAIL")
	})

	t.Run("missing script", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.run("run", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, exitUserError, exitCode(err))
	})

	t.Run("requires one argument", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.run("run")
		assert.Error(t, err)
	})
}

func TestRunJournal(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("journal")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	out := env.mustRun("--json", "run", "--journal", env.writeScript("capacity.yaml", capacityScript))
	var run runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	require.NotEmpty(t, run.Session)

	out = env.mustRun("--json", "journal")
	var sessions []journal.Session
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, run.Session, sessions[0].SessionID)
	assert.Equal(t, 5, sessions[0].Events)
	assert.NotNil(t, sessions[0].EndedAt)

	out = env.mustRun("--json", "journal", "--session", run.Session)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{"alloc", "alloc", "exhausted", "release", "alloc"}, kinds)

	out = env.mustRun("journal", "--session", run.Session)
	assert.Contains(t, out, "exhausted")

	_, err = env.run("journal", "--session", "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrNoSession)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitSysError, exitCode(sysError("boom")))
	assert.Equal(t, exitUserError, exitCode(userError("bad input")))
	assert.Equal(t, exitUserError, exitCode(os.ErrNotExist))
}
