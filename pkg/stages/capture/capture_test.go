package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/user/docshot/pkg/adapters/logger"
	"github.com/user/docshot/pkg/mocks"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

func resolved(name, output string, format ports.ImageFormat) pipeline.ResolvedTarget {
	return pipeline.ResolvedTarget{
		CaptureTarget: pipeline.CaptureTarget{Name: name, OutputPath: output},
		OutputFile:    filepath.Join("shots", output),
		FullPage:      true,
		Format:        format,
	}
}

func TestStage_WritesNestedOutput(t *testing.T) {
	mfs := mocks.NewFileSystem()
	page := mocks.NewPage()
	image := []byte("png-bytes")
	page.ScreenshotFunc = func(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
		if !opts.FullPage {
			t.Errorf("expected full-page capture")
		}
		if opts.Format != ports.FormatPNG {
			t.Errorf("expected PNG format")
		}
		return image, nil
	}

	out, err := New(mfs, logger.NewNoop()).Execute(context.Background(), pipeline.CaptureInput{
		Page:   page,
		Target: resolved("settings", "settings/profile.png", ports.FormatPNG),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join("shots", "settings", "profile.png")
	if out.WrittenPath != want {
		t.Errorf("WrittenPath = %q, want %q", out.WrittenPath, want)
	}
	data, ok := mfs.GetFile(want)
	if !ok || string(data) != string(image) {
		t.Fatalf("image not written to %s", want)
	}
	exists, _ := mfs.Exists(filepath.Join("shots", "settings"))
	if !exists {
		t.Errorf("parent directory should exist")
	}

	sum := sha256.Sum256(image)
	if out.Digest != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected digest %s", out.Digest)
	}
	if !out.Changed {
		t.Errorf("a new file should be reported as changed")
	}
	if out.Bytes != len(image) {
		t.Errorf("Bytes = %d", out.Bytes)
	}
}

func TestStage_ChangedDetection(t *testing.T) {
	mfs := mocks.NewFileSystem()
	target := resolved("home", "home.png", ports.FormatPNG)
	mfs.SetFile(target.OutputFile, []byte{0x89, 'P', 'N', 'G'})

	out, err := New(mfs, logger.NewNoop()).Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: target,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Changed {
		t.Errorf("identical bytes should not be reported as changed")
	}
}

func TestStage_JPEGQuality(t *testing.T) {
	tests := []struct {
		quality int
		want    int
	}{
		{0, DefaultJPEGQuality},
		{75, 75},
		{150, DefaultJPEGQuality},
	}
	for _, tt := range tests {
		page := mocks.NewPage()
		var got ports.ScreenshotOptions
		page.ScreenshotFunc = func(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
			got = opts
			return []byte{0xFF, 0xD8}, nil
		}
		_, err := New(mocks.NewFileSystem(), logger.NewNoop()).Execute(context.Background(), pipeline.CaptureInput{
			Page:    page,
			Target:  resolved("hero", "hero.jpg", ports.FormatJPEG),
			Quality: tt.quality,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Format != ports.FormatJPEG || got.Quality != tt.want {
			t.Errorf("quality %d: got %+v, want quality %d", tt.quality, got, tt.want)
		}
	}
}

func TestStage_WriteFailure(t *testing.T) {
	mfs := mocks.NewFileSystem()
	mfs.WriteFileFunc = func(path string, data []byte) error {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}

	_, err := New(mfs, logger.NewNoop()).Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: resolved("home", "home.png", ports.FormatPNG),
	})
	if !pipeline.IsKind(err, pipeline.KindCaptureWriteFailed) {
		t.Fatalf("expected CaptureWriteFailed, got %v", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("underlying I/O cause should be preserved: %v", err)
	}
}

func TestStage_RefusesSecondWrite(t *testing.T) {
	mfs := mocks.NewFileSystem()
	stage := New(mfs, logger.NewNoop())

	if _, err := stage.Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: resolved("first", "same.png", ports.FormatPNG),
	}); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	page := mocks.NewPage()
	_, err := stage.Execute(context.Background(), pipeline.CaptureInput{
		Page:   page,
		Target: resolved("second", "same.png", ports.FormatPNG),
	})
	if !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
		t.Fatalf("expected InvalidTarget, got %v", err)
	}
	if len(page.Calls()) != 0 {
		t.Errorf("no screenshot should be taken for a refused path")
	}
	if n := len(mfs.Writes()); n != 1 {
		t.Errorf("expected 1 write, got %d", n)
	}

	stage.Reset()
	if _, err := stage.Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: resolved("second", "same.png", ports.FormatPNG),
	}); err != nil {
		t.Errorf("after Reset the path should be writable: %v", err)
	}
}

func TestStage_RefusesWriteDifferingOnlyInCase(t *testing.T) {
	mfs := mocks.NewFileSystem()
	stage := New(mfs, logger.NewNoop())

	if _, err := stage.Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: resolved("first", "Settings/Profile.png", ports.FormatPNG),
	}); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	_, err := stage.Execute(context.Background(), pipeline.CaptureInput{
		Page:   mocks.NewPage(),
		Target: resolved("second", "settings/profile.png", ports.FormatPNG),
	})
	if !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
		t.Fatalf("expected InvalidTarget, got %v", err)
	}
	if n := len(mfs.Writes()); n != 1 {
		t.Errorf("expected 1 write, got %d", n)
	}
}

func TestStage_ScreenshotFailure(t *testing.T) {
	mfs := mocks.NewFileSystem()
	page := mocks.NewPage()
	page.ScreenshotFunc = func(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
		return nil, errors.New("target crashed")
	}

	_, err := New(mfs, logger.NewNoop()).Execute(context.Background(), pipeline.CaptureInput{
		Page:   page,
		Target: resolved("home", "home.png", ports.FormatPNG),
	})
	if !pipeline.IsKind(err, pipeline.KindBrowserFailed) {
		t.Fatalf("expected BrowserFailed, got %v", err)
	}
	if len(mfs.Writes()) != 0 {
		t.Errorf("nothing should be written on screenshot failure")
	}
}
