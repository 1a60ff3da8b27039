// Package e2e contains end-to-end tests for the docshot CLI.
// The binary is built once per test, or taken from DOCSHOT_BINARY.
package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "docshot-test.exe"
	}
	return "docshot-test"
}

// getBinaryPath returns the path to execute the test binary.
// If DOCSHOT_BINARY is set, use that instead (for CI with pre-built binaries)
func getBinaryPath(t *testing.T) string {
	if path := os.Getenv("DOCSHOT_BINARY"); path != "" {
		return path
	}
	return filepath.Join(getProjectRoot(t), getBinaryName())
}

// buildBinary builds the CLI unless a pre-built binary is provided.
func buildBinary(t *testing.T) {
	t.Helper()
	if os.Getenv("DOCSHOT_E2E") != "1" {
		t.Skip("Skipping E2E test (set DOCSHOT_E2E=1 to run)")
	}
	if os.Getenv("DOCSHOT_BINARY") != "" {
		return
	}
	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/docshot")
	buildCmd.Dir = getProjectRoot(t)
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, out)
	}
	t.Cleanup(func() { os.Remove(filepath.Join(getProjectRoot(t), getBinaryName())) })
}

// runCLI runs the binary in dir and returns its output and exit code.
func runCLI(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), stderr.String(), 0
	case errors.As(err, &exitErr):
		return stdout.String(), stderr.String(), exitErr.ExitCode()
	}
	t.Fatalf("Failed to run CLI: %v", err)
	return "", "", -1
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func newSite() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>%s</h1><button id="tab" onclick="this.textContent='open'">tab</button></body></html>`, r.URL.Path)
	}))
}

func TestCaptureCommand(t *testing.T) {
	buildBinary(t)
	srv := newSite()
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docshot.yaml"), fmt.Sprintf(`
base_url: %s
output_root: docs/assets/screenshots
viewport: { width: 800, height: 600 }
targets:
  - name: home
    path: /
    output: home.png
  - name: profile
    path: /settings/profile
    output: settings/profile.jpg
    actions:
      - click: "#tab"
`, srv.URL))

	stdout, stderr, code := runCLI(t, dir, "capture", "--summary", "summary.md", "--history", "history.db")
	if code != 0 {
		t.Fatalf("capture exited %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "PASS home") || !strings.Contains(stdout, "PASS profile") {
		t.Errorf("expected PASS lines, got:\n%s", stdout)
	}

	for _, rel := range []string{"home.png", filepath.Join("settings", "profile.jpg")} {
		info, err := os.Stat(filepath.Join(dir, "docs", "assets", "screenshots", rel))
		if err != nil {
			t.Errorf("Output %s not found: %v", rel, err)
			continue
		}
		if info.Size() < 1024 {
			t.Errorf("Output %s too small: %d bytes", rel, info.Size())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.md")); err != nil {
		t.Errorf("Summary not written: %v", err)
	}

	// A second run records a second history entry with unchanged digests.
	if _, _, code := runCLI(t, dir, "capture", "-Q", "--history", "history.db"); code != 0 {
		t.Fatalf("second capture exited %d", code)
	}
	stdout, _, code = runCLI(t, dir, "history", "--history", "history.db", "-t", "home")
	if code != 0 {
		t.Fatalf("history exited %d", code)
	}
	if !strings.Contains(stdout, "in 2 runs") {
		t.Errorf("expected two runs of home, got:\n%s", stdout)
	}
}

func TestCaptureFailureExitCode(t *testing.T) {
	buildBinary(t)
	srv := newSite()
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docshot.yaml"), fmt.Sprintf(`
base_url: %s
timeout_ms: 2000
targets:
  - name: missing
    path: /
    output: missing.png
    actions:
      - click: "#nope"
  - name: home
    path: /
    output: home.png
`, srv.URL))

	stdout, _, code := runCLI(t, dir, "capture", "--debug")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "FAIL missing: ActionFailed") || !strings.Contains(stdout, "PASS home") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "debug", "missing.html")); err != nil {
		t.Errorf("expected debug artifact: %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	buildBinary(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "ok.yaml"), `
base_url: http://localhost:6006
targets:
  - { name: home, path: /, output: home.png }
`)
	if stdout, stderr, code := runCLI(t, dir, "validate", "-c", "ok.yaml"); code != 0 {
		t.Errorf("validate ok.yaml exited %d\n%s%s", code, stdout, stderr)
	}

	writeFile(t, filepath.Join(dir, "dup.yaml"), `
base_url: http://localhost:6006
targets:
  - { name: a, path: /a, output: same.png }
  - { name: b, path: /b, output: same.png }
`)
	_, stderr, code := runCLI(t, dir, "capture", "-c", "dup.yaml")
	if code != 2 {
		t.Errorf("expected exit code 2 for duplicate outputs, got %d", code)
	}
	if !strings.Contains(stderr, "InvalidTarget") {
		t.Errorf("expected InvalidTarget on stderr, got %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "screenshots")); !os.IsNotExist(err) {
		t.Errorf("no output directory should be created")
	}
}

// TestVersionCommand tests the version flag
func TestVersionCommand(t *testing.T) {
	buildBinary(t)

	stdout, _, code := runCLI(t, getProjectRoot(t), "--version")
	if code != 0 {
		t.Fatalf("Version command exited %d", code)
	}
	if !strings.Contains(stdout, "docshot version") {
		t.Errorf("Unexpected version output: %s", stdout)
	}
}

// getProjectRoot finds the directory containing go.mod.
func getProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
