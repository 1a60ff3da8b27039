// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"path/filepath"
	"strings"

	"github.com/user/docshot/pkg/ports"
)

// Sink saves debug output to files under baseDir:
//
//	plan.json
//	<target>.html
//	<target>-failure.png
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePlanJSON saves the resolved run plan as JSON.
func (s *Sink) SavePlanJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "plan.json"), data)
}

// SavePageHTML saves the DOM of a failed target.
func (s *Sink) SavePageHTML(target string, html []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, fileName(target)+".html"), html)
}

// SaveFailureScreenshot saves the viewport of a failed target.
func (s *Sink) SaveFailureScreenshot(target string, data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, fileName(target)+"-failure.png"), data)
}

// ClearFailure removes the HTML and screenshot of an earlier failure of
// target, so the directory only describes the latest run.
func (s *Sink) ClearFailure(target string) error {
	name := fileName(target)
	for _, p := range []string{
		filepath.Join(s.baseDir, name+".html"),
		filepath.Join(s.baseDir, name+"-failure.png"),
	} {
		ok, err := s.fs.Exists(p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := s.fs.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

// fileName maps a target name onto a single path segment.
func fileName(target string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, target)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
