package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// newTestCommand returns a bare command whose output goes to buf.
func newTestCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd
}

// useConfig points the global --config flag at a temporary file holding
// content and restores the previous flags after the test.
func useConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "peersync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevFile, prevLevel := cfgFile, logLevel
	cfgFile, logLevel = path, ""
	t.Cleanup(func() { cfgFile, logLevel = prevFile, prevLevel })
	return path
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"run", "reconcile", "render", "history", "validate", "version", "completion"}

	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil || cmd == rootCmd {
				t.Fatalf("command %q not registered: %v", name, err)
			}
			if cmd.Short == "" {
				t.Errorf("command %q has no short description", name)
			}
		})
	}

	show, _, err := rootCmd.Find([]string{"history", "show"})
	if err != nil || show.Name() != "show" {
		t.Errorf("history show not registered: %v", err)
	}

	for _, flag := range []string{"config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "1.2.3-test", "abc123"
	defer func() { Version, GitCommit = origVersion, origCommit }()

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	for _, want := range []string{"peersync 1.2.3-test", "Git Commit: abc123", "Go Version: go"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := newTestCommand(&buf)
			if err := completionCmd.RunE(cmd, []string{shell}); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !bytes.Contains(buf.Bytes(), []byte("peersync")) {
				t.Errorf("completion %s output does not mention peersync", shell)
			}
		})
	}
}
