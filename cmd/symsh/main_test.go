// Package main provides tests for the symsh CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/symstack-labs/symsh/internal/cli"
	"github.com/symstack-labs/symsh/internal/cli/config"
)

// setupTest isolates the test from any real config file or prior load.
func setupTest(t *testing.T) {
	t.Helper()
	config.ResetConfig()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestVersionCommand(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "symsh") {
		t.Errorf("version output should contain 'symsh', got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}
	for _, expected := range []string{"history", "script", "completion", "--command", "--mode"} {
		if !strings.Contains(out, expected) {
			t.Errorf("help output should contain %q, got: %s", expected, out)
		}
	}
}

func TestCommandFlag(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "-c", "1 + 1")
	if err != nil {
		t.Errorf("-c command error = %v", err)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("-c output should contain '2', got: %s", out)
	}
}

func TestCommandFlagCarriesState(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "-c", "a = 5", "-c", "a * 2")
	if err != nil {
		t.Errorf("-c sequence error = %v", err)
	}
	if !strings.Contains(out, "10") {
		t.Errorf("second -c should see the binding, got: %s", out)
	}
}

func TestCommandFlagError(t *testing.T) {
	setupTest(t)
	_, errOut, err := runRoot(t, "", "-c", "diff")
	if err == nil {
		t.Error("failing -c should return an error")
	}
	if !strings.Contains(errOut, "Error:") {
		t.Errorf("stderr should contain 'Error:', got: %s", errOut)
	}
}

func TestCommandFlagContinuesAfterError(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "-c", "diff", "-c", "6 * 7")
	if err == nil {
		t.Error("batch with a failure should return an error")
	}
	if !strings.Contains(out, "42") {
		t.Errorf("later -c commands should still run, got: %s", out)
	}
}

func TestScriptFlag(t *testing.T) {
	setupTest(t)
	path := filepath.Join(t.TempDir(), "calc.txt")
	script := "# doubling\nb = 21\nb * 2\n"
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	out, _, err := runRoot(t, "", "-s", path)
	if err != nil {
		t.Errorf("-s command error = %v", err)
	}
	if !strings.Contains(out, "42") {
		t.Errorf("script output should contain '42', got: %s", out)
	}
}

func TestScriptFlagMissingFile(t *testing.T) {
	setupTest(t)
	_, _, err := runRoot(t, "", "-s", filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Error("missing script file should return an error")
	}
}

func TestStdinPipe(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "2^5\n")
	if err != nil {
		t.Errorf("stdin pipe error = %v", err)
	}
	if !strings.Contains(out, "32") {
		t.Errorf("piped input should evaluate, got: %s", out)
	}
}

func TestFloatModeFlag(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "--mode", "float", "-c", "1/4")
	if err != nil {
		t.Errorf("--mode float error = %v", err)
	}
	if !strings.Contains(out, "0.25") {
		t.Errorf("float mode should print '0.25', got: %s", out)
	}
}

func TestJSONFormatFlag(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "--format", "json", "-c", "1 + 1")
	if err != nil {
		t.Errorf("--format json error = %v", err)
	}
	if !strings.Contains(out, `"result": "2"`) {
		t.Errorf("json output should contain the result field, got: %s", out)
	}
}

func TestSeriesRemainderFlag(t *testing.T) {
	setupTest(t)
	out, _, err := runRoot(t, "", "--remainder", "-c", "series exp(x) ; x ; 0 ; 3")
	if err != nil {
		t.Errorf("--remainder error = %v", err)
	}
	if !strings.Contains(out, "O(x^4)") {
		t.Errorf("remainder output should contain the O-term, got: %s", out)
	}
}

func TestInvalidModeFlag(t *testing.T) {
	setupTest(t)
	_, _, err := runRoot(t, "", "--mode", "wild", "-c", "1 + 1")
	if err == nil {
		t.Error("invalid mode should return an error")
	}
}

func TestHistoryCommandWithoutStore(t *testing.T) {
	setupTest(t)
	_, _, err := runRoot(t, "", "history")
	if err == nil {
		t.Error("history without a state path should return an error")
	}
}

func TestHistoryAcrossInvocations(t *testing.T) {
	setupTest(t)
	statePath := filepath.Join(t.TempDir(), "state.db")

	_, _, err := runRoot(t, "", "--state-path", statePath, "-c", "3 * 3")
	if err != nil {
		t.Fatalf("-c with state path error = %v", err)
	}

	config.ResetConfig()
	out, _, err := runRoot(t, "", "--state-path", statePath, "history")
	if err != nil {
		t.Errorf("history command error = %v", err)
	}
	if !strings.Contains(out, "3 * 3") {
		t.Errorf("history should list the persisted input, got: %s", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			setupTest(t)
			_, _, err := runRoot(t, "", "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	setupTest(t)
	_, _, err := runRoot(t, "", "unknown-command")
	if err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
