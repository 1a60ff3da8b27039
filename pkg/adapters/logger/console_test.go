package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/docshot/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := NewWriter(ports.LevelInfo, &stdout, &stderr)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Warn("careful")
	log.Error("broken")

	if strings.Contains(stdout.String(), "hidden") {
		t.Errorf("debug message should be filtered at info level: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "shown 2") {
		t.Errorf("info message missing from stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "careful") || !strings.Contains(stderr.String(), "broken") {
		t.Errorf("warn/error should go to stderr: %q", stderr.String())
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &stdout, &stderr)
	log.Error("nothing")
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("quiet level should suppress everything")
	}
}

func TestConsoleLogger_Component(t *testing.T) {
	var stdout bytes.Buffer
	log := NewWriter(ports.LevelDebug, &stdout, &stdout).WithComponent("capture")
	log.Info("wrote %s", "a.png")
	if got := strings.TrimSpace(stdout.String()); got != "[capture] wrote a.png" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestConsoleLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docshot.log")
	var stdout bytes.Buffer
	log := NewWriter(ports.LevelInfo, &stdout, &stdout).WithFile(FileOptions{Path: path})

	log.WithComponent("orchestrator").Warn("target %s failed", "home")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "WARN") || !strings.Contains(line, "[orchestrator] target home failed") {
		t.Errorf("unexpected log file content %q", line)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]ports.LogLevel{
		"debug":   ports.LevelDebug,
		" WARN ":  ports.LevelWarn,
		"error":   ports.LevelError,
		"quiet":   ports.LevelQuiet,
		"unknown": ports.LevelInfo,
	}
	for in, want := range cases {
		if got := ports.ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
