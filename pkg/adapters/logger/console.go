// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/user/docshot/pkg/ports"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// FileOptions configures the rotating log file mirror.
type FileOptions struct {
	Path       string
	MaxSizeMB  int // Rotate after this many megabytes (default 10)
	MaxBackups int // Rotated files to keep (default 3)
	MaxAgeDays int // 0 keeps rotated files forever
}

// ConsoleLogger logs messages to the console with color support and
// optionally mirrors them, uncolored and timestamped, to a rotating file.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool
	stdout    io.Writer
	stderr    io.Writer
	file      *fileWriter
}

type fileWriter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewConsole creates a new console logger with the specified level.
// Color output is automatically enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	return &ConsoleLogger{
		level:  level,
		color:  isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// NewWriter creates an uncolored logger writing to the given streams.
func NewWriter(level ports.LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level:  level,
		stdout: stdout,
		stderr: stderr,
	}
}

// WithFile mirrors every emitted line to a lumberjack rotating file.
func (l *ConsoleLogger) WithFile(opts FileOptions) *ConsoleLogger {
	if opts.Path == "" {
		return l
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	c := *l
	c.file = &fileWriter{w: &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}}
	return &c
}

// Close flushes and closes the log file, if any.
func (l *ConsoleLogger) Close() error {
	if l.file == nil {
		return nil
	}
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	return l.file.w.Close()
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.level > ports.LevelDebug {
		return
	}
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	if l.level > ports.LevelInfo {
		return
	}
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	if l.level > ports.LevelWarn {
		return
	}
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	if l.level > ports.LevelError {
		return
	}
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a new logger with the specified component name.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

// log outputs a log message with appropriate formatting.
func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	// Translate message using go-l10n
	translated := l10n.F(msg, args...)

	plain := translated
	if l.component != "" {
		plain = fmt.Sprintf("[%s] %s", l.component, translated)
	}

	output := plain
	if l.color {
		if l.component != "" {
			output = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, translated)
		}
		switch level {
		case ports.LevelDebug:
			output = colorGray + output + colorReset
		case ports.LevelWarn:
			output = colorYellow + output + colorReset
		case ports.LevelError:
			output = colorRed + output + colorReset
		}
	}

	// Output to appropriate stream
	if level >= ports.LevelWarn {
		fmt.Fprintln(l.stderr, output)
	} else {
		fmt.Fprintln(l.stdout, output)
	}

	if l.file != nil {
		line := fmt.Sprintf("%s %-5s %s\n", time.Now().Format(time.RFC3339), strings.ToUpper(level.String()), plain)
		l.file.mu.Lock()
		_, _ = io.WriteString(l.file.w, line)
		l.file.mu.Unlock()
	}
}
