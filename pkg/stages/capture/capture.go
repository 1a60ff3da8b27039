// Package capture implements the capture stage: screenshot, digest and
// persistence of one image per target.
package capture

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// DefaultJPEGQuality is used for .jpg outputs when no quality is configured.
const DefaultJPEGQuality = 90

// Stage captures a ready page and writes the image to its output file.
// A Stage remembers every path it wrote; create one per run or call Reset.
type Stage struct {
	fs     ports.FileSystem
	logger ports.Logger

	mu      sync.Mutex
	written map[string]string // lower-cased output file -> target name
}

// New creates a new capture stage.
func New(fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		fs:      fs,
		logger:  logger.WithComponent("capture"),
		written: make(map[string]string),
	}
}

// Reset forgets the paths written so far.
func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = make(map[string]string)
}

// Execute takes the screenshot and persists it.
func (s *Stage) Execute(ctx context.Context, input pipeline.CaptureInput) (pipeline.CaptureOutput, error) {
	var out pipeline.CaptureOutput
	target := input.Target
	path := target.OutputFile

	if err := s.reserve(path, target.Name); err != nil {
		return out, err
	}

	opts := ports.ScreenshotOptions{
		FullPage: target.FullPage,
		Format:   target.Format,
	}
	if opts.Format == ports.FormatJPEG {
		opts.Quality = input.Quality
		if opts.Quality <= 0 || opts.Quality > 100 {
			opts.Quality = DefaultJPEGQuality
		}
	}

	s.logger.Debug("Capturing %s (full page: %t, %s)", target.Name, opts.FullPage, opts.Format.String())
	data, err := input.Page.Screenshot(ctx, opts)
	if err != nil {
		return out, pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, target.Name, "screenshot")
	}
	if len(data) == 0 {
		return out, pipeline.Errorf(pipeline.KindBrowserFailed, target.Name, "screenshot", "engine returned an empty image")
	}

	sum := sha256.Sum256(data)
	out.Digest = hex.EncodeToString(sum[:])
	out.Bytes = len(data)
	out.Changed = true
	if prev, err := s.fs.ReadFile(path); err == nil {
		out.Changed = !bytes.Equal(prev, data)
	}

	if err := s.fs.WriteFile(path, data); err != nil {
		return out, &pipeline.Error{Kind: pipeline.KindCaptureWriteFailed, Target: target.Name, Op: "write " + path, Err: err}
	}
	out.WrittenPath = path

	s.logger.Debug("Wrote %s (%d bytes, changed: %t)", path, out.Bytes, out.Changed)
	return out, nil
}

// reserve claims path for target. A second claim in the same run means the
// uniqueness check upstream was bypassed; refuse rather than overwrite.
// Paths are compared case-insensitively.
func (s *Stage) reserve(path, target string) error {
	key := strings.ToLower(filepath.Clean(path))
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.written[key]; ok {
		return pipeline.Errorf(pipeline.KindInvalidTarget, target, "write "+path, "output already written by target %q in this run", owner)
	}
	s.written[key] = target
	return nil
}
