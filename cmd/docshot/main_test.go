package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/user/docshot/pkg/config"
	"github.com/user/docshot/pkg/ports"
)

const validConfig = `
base_url: http://localhost:6006
output_root: docs/assets/screenshots
targets:
  - name: home
    path: /
    output: home.png
  - name: profile
    path: /settings/profile
    output: settings/profile.png
    actions:
      - click: "#tab-profile"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docshot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the app without exiting the test process.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"docshot"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if err != nil {
		return exitFailed
	}
	return exitOK
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	out, err := run(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "profile\thttp://localhost:6006/settings/profile -> "+filepath.Join("docs", "assets", "screenshots", "settings", "profile.png")) {
		t.Errorf("expected resolved profile target, got:\n%s", out)
	}
	if !strings.Contains(out, "Configuration is valid: 2 targets") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
}

func TestValidate_Only(t *testing.T) {
	path := writeConfig(t, validConfig)
	out, err := run(t, "validate", "-c", path, "-t", "home")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.Contains(out, "profile") || !strings.Contains(out, "1 targets") {
		t.Errorf("expected only home, got:\n%s", out)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", validConfig + "colour: red\n"},
		{"duplicate output", validConfig + "  - name: again\n    path: /again\n    output: home.png\n"},
		{"relative base", strings.Replace(validConfig, "http://localhost:6006", "localhost", 1)},
		{"empty path", strings.Replace(validConfig, "path: /\n", "path: \"\"\n", 1)},
		{"bad action", strings.Replace(validConfig, `click: "#tab-profile"`, `{}`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "validate", "-c", writeConfig(t, tt.body))
			if got := exitCode(err); got != exitInvalid {
				t.Errorf("exit code = %d (%v), want %d", got, err, exitInvalid)
			}
		})
	}
}

func TestValidate_MissingConfig(t *testing.T) {
	_, err := run(t, "validate", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	if exitCode(err) != exitInvalid || !strings.Contains(err.Error(), "nope.yaml") {
		t.Errorf("expected exit %d naming the file, got %v", exitInvalid, err)
	}
}

func TestCapture_InvalidConfigDoesNotLaunch(t *testing.T) {
	body := validConfig + "  - name: again\n    path: /again\n    output: home.png\n"
	dir := t.TempDir()
	_, err := run(t, "capture", "-Q", "-c", writeConfig(t, body), "--summary", filepath.Join(dir, "summary.md"))
	if exitCode(err) != exitInvalid {
		t.Fatalf("exit code = %d (%v), want %d", exitCode(err), err, exitInvalid)
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.md")); !os.IsNotExist(err) {
		t.Errorf("no summary should be written for a rejected configuration")
	}
}

func TestApplyCaptureFlags(t *testing.T) {
	var got config.Config
	cmd := captureCommand()
	cmd.Action = func(c *cli.Context) error {
		got = config.Defaults()
		applyCaptureFlags(c, &got)
		return nil
	}
	app := &cli.App{Name: "docshot", Commands: []*cli.Command{cmd}}
	err := app.Run([]string{"docshot", "capture",
		"--fail-fast", "--engine", "rod", "--no-headless", "--chrome-path", "/opt/chrome",
		"--summary", "s.md", "--history", "h.db", "--debug", "--debug-dir", "dbg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.FailFast || got.Engine != "rod" || got.Browser.Headless || got.Browser.ChromePath != "/opt/chrome" {
		t.Errorf("run flags not applied: %+v", got)
	}
	if got.Summary != "s.md" || got.History != "h.db" || !got.Debug || got.DebugDir != "dbg" {
		t.Errorf("output flags not applied: %+v", got)
	}
}

func TestApplyCaptureFlags_KeepsConfig(t *testing.T) {
	var got config.Config
	cmd := captureCommand()
	cmd.Action = func(c *cli.Context) error {
		got = config.Defaults()
		got.Engine = "playwright"
		got.FailFast = true
		applyCaptureFlags(c, &got)
		return nil
	}
	app := &cli.App{Name: "docshot", Commands: []*cli.Command{cmd}}
	if err := app.Run([]string{"docshot", "capture"}); err != nil {
		t.Fatal(err)
	}
	if got.Engine != "playwright" || !got.FailFast || !got.Browser.Headless {
		t.Errorf("unset flags must not override the file: %+v", got)
	}
}

func TestPrintTargetHistory(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	results := []ports.ResultRecord{
		{RunID: "r3", Status: "succeeded", Digest: "bbbbbbbbbbbbbbbb", RecordedAt: at.Add(2 * time.Hour)},
		{RunID: "r2", Status: "succeeded", Digest: "aaaaaaaaaaaaaaaa", RecordedAt: at.Add(time.Hour)},
		{RunID: "r1", Status: "succeeded", Digest: "aaaaaaaaaaaaaaaa", RecordedAt: at},
	}
	var out bytes.Buffer
	printTargetHistory(&out, "home", results)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[0], "*") || strings.HasPrefix(lines[1], "*") {
		t.Errorf("only the changed run should be marked:\n%s", out.String())
	}
	if !strings.Contains(lines[0], "bbbbbbbbbbbb ") {
		t.Errorf("digest should be shortened to 12 characters: %q", lines[0])
	}
	if lines[3] != "2 distinct digests in 3 runs" {
		t.Errorf("footer = %q", lines[3])
	}
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := run(t, "history", "--history", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("expected empty history message, got:\n%s", out)
	}

	out, err = run(t, "history", "--history", db, "-t", "home")
	if err != nil {
		t.Fatalf("history -t: %v", err)
	}
	if !strings.Contains(out, "No history for target home") {
		t.Errorf("expected empty target message, got:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "docshot version dev") {
		t.Errorf("unexpected version output: %s", out)
	}
}
