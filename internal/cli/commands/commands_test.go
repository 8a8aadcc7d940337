// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symstack-labs/symsh/internal/cli/config"
	"github.com/symstack-labs/symsh/internal/cli/output"
	"github.com/symstack-labs/symsh/internal/engine"
)

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history [n]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewScriptCommand(t *testing.T) {
	cmd := NewScriptCommand()

	assert.Equal(t, "script <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"halt", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestHistoryCommandInvalidCount(t *testing.T) {
	config.ResetConfig()
	cmd := NewHistoryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"zero"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid count")
}

func TestHistoryCommandWithoutStore(t *testing.T) {
	config.ResetConfig()
	cmd := NewHistoryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is not available")
}

func TestScriptCommandRunsFile(t *testing.T) {
	config.ResetConfig()
	path := filepath.Join(t.TempDir(), "calc.txt")
	require.NoError(t, os.WriteFile(path, []byte("7 * 6\n"), 0o644))

	cmd := NewScriptCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "42")
}

func TestScriptCommandMissingFile(t *testing.T) {
	config.ResetConfig()
	cmd := NewScriptCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.txt")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open script")
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := &config.Config{
		Precision: 8,
		Mode:      "float",
		StatePath: filepath.Join(t.TempDir(), "nested", "state.db"),
	}

	eng, err := NewEngine(cfg, nil)
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	assert.Equal(t, "float", eng.Mode())
	assert.Equal(t, 8, eng.Precision())

	// The nested state directory is created on demand.
	_, statErr := os.Stat(filepath.Dir(cfg.StatePath))
	assert.NoError(t, statErr)
}

func TestNewRendererForRespectsFormat(t *testing.T) {
	cfg := &config.Config{Format: "json", NoColor: true}
	cmd := NewVersionCommand("test")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	r := NewRendererFor(cmd, cfg)
	assert.Equal(t, output.ModeJSON, r.EffectiveMode())

	r.Result(&engine.Result{Body: "2", Kind: engine.KindNumber})
	assert.Contains(t, buf.String(), `"result": "2"`)
}
