package filesink

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/docshot/pkg/mocks"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem())
	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SavePlanJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)

	data := []byte(`{"run_id": "r1"}`)
	if err := sink.SavePlanJSON(data); err != nil {
		t.Fatalf("SavePlanJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "plan.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_FailureArtifacts(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)

	if err := sink.SavePageHTML("settings-profile", []byte("<html></html>")); err != nil {
		t.Fatalf("SavePageHTML failed: %v", err)
	}
	if err := sink.SaveFailureScreenshot("settings-profile", []byte("png")); err != nil {
		t.Fatalf("SaveFailureScreenshot failed: %v", err)
	}

	for _, name := range []string{"settings-profile.html", "settings-profile-failure.png"} {
		if _, ok := fs.GetFile(filepath.Join(testBaseDir, name)); !ok {
			t.Errorf("expected %s to be saved", name)
		}
	}
}

func TestSink_ClearFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)
	fs.SetFile(filepath.Join(testBaseDir, "home.html"), []byte("<html></html>"))
	fs.SetFile(filepath.Join(testBaseDir, "home-failure.png"), []byte("png"))
	fs.SetFile(filepath.Join(testBaseDir, "other.html"), []byte("<html></html>"))

	if err := sink.ClearFailure("home"); err != nil {
		t.Fatalf("ClearFailure failed: %v", err)
	}
	for _, name := range []string{"home.html", "home-failure.png"} {
		if _, ok := fs.GetFile(filepath.Join(testBaseDir, name)); ok {
			t.Errorf("expected %s to be removed", name)
		}
	}
	if _, ok := fs.GetFile(filepath.Join(testBaseDir, "other.html")); !ok {
		t.Errorf("artifacts of other targets must be kept")
	}

	// Nothing to clear is not an error.
	if err := sink.ClearFailure("never-failed"); err != nil {
		t.Errorf("ClearFailure without artifacts: %v", err)
	}
}

func TestSink_ClearFailureError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile(filepath.Join(testBaseDir, "home.html"), nil)
	fs.RemoveFunc = func(path string) error {
		return errors.New("permission denied")
	}
	if err := New(testBaseDir, fs).ClearFailure("home"); err == nil {
		t.Error("expected remove error")
	}
}

func TestSink_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	sink := New(testBaseDir, fs)
	if err := sink.SavePlanJSON([]byte("{}")); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"home", "home"},
		{"settings/profile", "settings_profile"},
		{`a:b*c?`, "a_b_c_"},
		{"", "_"},
		{"..", "_"},
	}
	for _, tt := range tests {
		if got := fileName(tt.in); got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
