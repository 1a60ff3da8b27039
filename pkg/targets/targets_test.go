package targets

import (
	"path/filepath"
	"testing"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

func TestResolve_Basic(t *testing.T) {
	full := false
	list := []pipeline.CaptureTarget{
		{Name: "home", Path: "/", OutputPath: "home.png"},
		{
			Name:       "profile",
			Path:       "/settings/profile?tab=1",
			OutputPath: "settings/profile.png",
			Viewport:   &pipeline.Viewport{Width: 800, Height: 600},
			FullPage:   &full,
		},
	}

	resolved, err := Resolve("http://localhost:3000/app/", "docs/assets/screenshots", list, Defaults{
		Viewport: pipeline.Viewport{Width: 1280, Height: 720},
		FullPage: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(resolved))
	}

	if resolved[0].URL != "http://localhost:3000/" {
		t.Errorf("expected root url, got %s", resolved[0].URL)
	}
	if resolved[0].Viewport != (pipeline.Viewport{Width: 1280, Height: 720}) {
		t.Errorf("expected default viewport, got %+v", resolved[0].Viewport)
	}
	if !resolved[0].FullPage {
		t.Error("expected full page default")
	}

	if resolved[1].URL != "http://localhost:3000/settings/profile?tab=1" {
		t.Errorf("unexpected url: %s", resolved[1].URL)
	}
	want := filepath.Join("docs", "assets", "screenshots", "settings", "profile.png")
	if resolved[1].OutputFile != want {
		t.Errorf("expected output %s, got %s", want, resolved[1].OutputFile)
	}
	if resolved[1].Viewport.Width != 800 || resolved[1].Viewport.Height != 600 {
		t.Errorf("expected viewport override, got %+v", resolved[1].Viewport)
	}
	if resolved[1].FullPage {
		t.Error("expected full page override to false")
	}
}

func TestResolve_RelativePath(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{
			name:    "base with trailing slash",
			baseURL: "http://localhost:6006/storybook/",
			path:    "iframe.html?id=button--primary",
			want:    "http://localhost:6006/storybook/iframe.html?id=button--primary",
		},
		{
			name:    "base without trailing slash",
			baseURL: "http://host/app",
			path:    "settings",
			want:    "http://host/app/settings",
		},
		{
			name:    "absolute path replaces base path",
			baseURL: "http://host/app",
			path:    "/settings",
			want:    "http://host/settings",
		},
		{
			name:    "host only",
			baseURL: "http://host",
			path:    "settings",
			want:    "http://host/settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.baseURL, "out", []pipeline.CaptureTarget{
				{Name: "page", Path: tt.path, OutputPath: "page.png"},
			}, Defaults{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resolved[0].URL != tt.want {
				t.Errorf("url = %s, want %s", resolved[0].URL, tt.want)
			}
			if resolved[0].Viewport != pipeline.DefaultViewport() {
				t.Errorf("expected default viewport, got %+v", resolved[0].Viewport)
			}
		})
	}
}

func TestResolve_InvalidTargets(t *testing.T) {
	empty := []pipeline.Action{}
	tests := []struct {
		name    string
		baseURL string
		list    []pipeline.CaptureTarget
	}{
		{
			name:    "duplicate output path",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{
				{Name: "a", Path: "/a", OutputPath: "shared.png"},
				{Name: "b", Path: "/b", OutputPath: "./shared.png"},
			},
		},
		{
			name:    "output paths differing only in case",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{
				{Name: "a", Path: "/a", OutputPath: "Settings/Profile.png"},
				{Name: "b", Path: "/b", OutputPath: "settings/profile.png"},
			},
		},
		{
			name:    "duplicate name",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{
				{Name: "a", Path: "/a", OutputPath: "a.png"},
				{Name: "a", Path: "/b", OutputPath: "b.png"},
			},
		},
		{
			name:    "empty path with relative base",
			baseURL: "localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "", OutputPath: "a.png"}},
		},
		{
			name:    "empty path",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "", OutputPath: "a.png"}},
		},
		{
			name:    "unparseable path",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "%zz", OutputPath: "a.png"}},
		},
		{
			name:    "absolute path url",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "https://elsewhere/", OutputPath: "a.png"}},
		},
		{
			name:    "output escapes root",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "../a.png"}},
		},
		{
			name:    "absolute output",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "/tmp/a.png"}},
		},
		{
			name:    "unknown extension",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.gif"}},
		},
		{
			name:    "empty actions",
			baseURL: "http://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.png", Actions: empty}},
		},
		{
			name:    "action without selector",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.png", Actions: []pipeline.Action{
				{Kind: pipeline.ActionClick},
			}}},
		},
		{
			name:    "unknown action",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.png", Actions: []pipeline.Action{
				{Kind: "drag", Selector: "#x"},
			}}},
		},
		{
			name:    "bad viewport",
			baseURL: "http://localhost",
			list: []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.png",
				Viewport: &pipeline.Viewport{Width: 0, Height: 100}}},
		},
		{
			name:    "no targets",
			baseURL: "http://localhost",
			list:    nil,
		},
		{
			name:    "ftp base",
			baseURL: "ftp://localhost",
			list:    []pipeline.CaptureTarget{{Name: "a", Path: "/", OutputPath: "a.png"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.baseURL, "out", tt.list, Defaults{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
				t.Errorf("expected InvalidTarget, got %v", err)
			}
		})
	}
}

func TestCleanOutputPath_Format(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		format ports.ImageFormat
	}{
		{"a.png", "a.png", ports.FormatPNG},
		{"dir/../b.PNG", "b.PNG", ports.FormatPNG},
		{"shots/c.jpg", "shots/c.jpg", ports.FormatJPEG},
		{"d.jpeg", "d.jpeg", ports.FormatJPEG},
	}
	for _, tt := range tests {
		got, format, err := CleanOutputPath(tt.in)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want || format != tt.format {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tt.in, got, format, tt.want, tt.format)
		}
	}
}

func TestFilter(t *testing.T) {
	list := []pipeline.ResolvedTarget{
		{CaptureTarget: pipeline.CaptureTarget{Name: "a"}},
		{CaptureTarget: pipeline.CaptureTarget{Name: "b"}},
		{CaptureTarget: pipeline.CaptureTarget{Name: "c"}},
	}

	got, err := Filter(list, []string{"c", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("expected [a c] in list order, got %+v", got)
	}

	all, err := Filter(list, nil)
	if err != nil || len(all) != 3 {
		t.Errorf("expected all targets, got %d (%v)", len(all), err)
	}

	if _, err := Filter(list, []string{"missing"}); !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
		t.Errorf("expected InvalidTarget for unknown name, got %v", err)
	}
}
