// Package targets validates a target list and resolves each target's address
// and output file before any browser work starts.
package targets

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// Defaults are the run-wide values a target falls back to.
type Defaults struct {
	Viewport pipeline.Viewport
	FullPage bool
}

// Resolve validates list against the run invariants and resolves every
// target. Any violation is reported as a KindInvalidTarget error naming the
// offending target; nothing is resolved partially.
func Resolve(baseURL, outputRoot string, list []pipeline.CaptureTarget, defaults Defaults) ([]pipeline.ResolvedTarget, error) {
	base, err := ParseBase(baseURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(outputRoot) == "" {
		return nil, pipeline.Errorf(pipeline.KindInvalidTarget, "", "output root", "output root is empty")
	}
	if len(list) == 0 {
		return nil, pipeline.Errorf(pipeline.KindInvalidTarget, "", "target list", "no targets configured")
	}
	if defaults.Viewport.Width <= 0 || defaults.Viewport.Height <= 0 {
		defaults.Viewport = pipeline.DefaultViewport()
	}

	names := make(map[string]int, len(list))
	// keyed by lower-cased path so targets differing only in case cannot
	// overwrite each other on case-insensitive filesystems
	outputs := make(map[string]string, len(list))
	resolved := make([]pipeline.ResolvedTarget, 0, len(list))

	for i, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			return nil, pipeline.Errorf(pipeline.KindInvalidTarget, fmt.Sprintf("#%d", i+1), "name", "target name is empty")
		}
		if prev, ok := names[t.Name]; ok {
			return nil, pipeline.Errorf(pipeline.KindInvalidTarget, t.Name, "name", "duplicate target name (also target #%d)", prev+1)
		}
		names[t.Name] = i

		addr, err := ResolveURL(base, t.Path)
		if err != nil {
			return nil, &pipeline.Error{Kind: pipeline.KindInvalidTarget, Target: t.Name, Op: "path", Err: err}
		}

		rel, format, err := CleanOutputPath(t.OutputPath)
		if err != nil {
			return nil, &pipeline.Error{Kind: pipeline.KindInvalidTarget, Target: t.Name, Op: "output", Err: err}
		}
		key := strings.ToLower(rel)
		if other, ok := outputs[key]; ok {
			return nil, pipeline.Errorf(pipeline.KindInvalidTarget, t.Name, "output", "output path %q is also written by target %q", rel, other)
		}
		outputs[key] = t.Name

		if err := validateActions(t.Actions); err != nil {
			return nil, &pipeline.Error{Kind: pipeline.KindInvalidTarget, Target: t.Name, Op: "actions", Err: err}
		}

		vp := defaults.Viewport
		if t.Viewport != nil {
			if t.Viewport.Width <= 0 || t.Viewport.Height <= 0 {
				return nil, pipeline.Errorf(pipeline.KindInvalidTarget, t.Name, "viewport", "viewport must be positive, got %dx%d", t.Viewport.Width, t.Viewport.Height)
			}
			vp = *t.Viewport
		}
		fullPage := defaults.FullPage
		if t.FullPage != nil {
			fullPage = *t.FullPage
		}

		resolved = append(resolved, pipeline.ResolvedTarget{
			CaptureTarget: t,
			URL:           addr,
			OutputFile:    filepath.Join(outputRoot, filepath.FromSlash(rel)),
			Viewport:      vp,
			FullPage:      fullPage,
			Format:        format,
		})
	}

	return resolved, nil
}

// Filter keeps the targets whose names are listed, preserving list order.
// An empty names slice keeps everything. Unknown names are an error.
func Filter(list []pipeline.ResolvedTarget, names []string) ([]pipeline.ResolvedTarget, error) {
	if len(names) == 0 {
		return list, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = false
	}
	var out []pipeline.ResolvedTarget
	for _, t := range list {
		if _, ok := want[t.Name]; ok {
			want[t.Name] = true
			out = append(out, t)
		}
	}
	for n, seen := range want {
		if !seen {
			return nil, pipeline.Errorf(pipeline.KindInvalidTarget, n, "filter", "no target named %q", n)
		}
	}
	return out, nil
}

// ParseBase parses the base endpoint, which must be an absolute http(s) URL.
// The base path is treated as a directory: "http://host/app" becomes
// "http://host/app/" so relative target paths resolve beneath it.
func ParseBase(baseURL string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.KindInvalidTarget, Op: "base url", Err: err}
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, pipeline.Errorf(pipeline.KindInvalidTarget, "", "base url", "base url %q is not absolute", baseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, pipeline.Errorf(pipeline.KindInvalidTarget, "", "base url", "unsupported scheme %q", base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		if base.RawPath != "" {
			base.RawPath += "/"
		}
	}
	return base, nil
}

// ResolveURL resolves a target path against base using RFC 3986 reference
// resolution. Paths starting with "/" replace the base path; others are
// relative to it.
func ResolveURL(base *url.URL, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path is empty (use \"/\" for the root route)")
	}
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", p, err)
	}
	if ref.IsAbs() {
		return "", fmt.Errorf("path %q must be relative to the base url", p)
	}
	return base.ResolveReference(ref).String(), nil
}

// CleanOutputPath normalizes a relative output path and derives the image
// format from its extension. Paths escaping the output root are rejected.
func CleanOutputPath(p string) (string, ports.ImageFormat, error) {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return "", ports.FormatPNG, fmt.Errorf("output path is empty")
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", ports.FormatPNG, fmt.Errorf("output path %q must be relative", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ports.FormatPNG, fmt.Errorf("output path %q escapes the output root", p)
	}

	switch strings.ToLower(path.Ext(clean)) {
	case ".png":
		return clean, ports.FormatPNG, nil
	case ".jpg", ".jpeg":
		return clean, ports.FormatJPEG, nil
	default:
		return "", ports.FormatPNG, fmt.Errorf("output path %q must end in .png, .jpg or .jpeg", p)
	}
}

func validateActions(actions []pipeline.Action) error {
	if actions == nil {
		return nil
	}
	if len(actions) == 0 {
		return fmt.Errorf("actions is present but empty")
	}
	for i, a := range actions {
		if strings.TrimSpace(a.Selector) == "" {
			return fmt.Errorf("action #%d (%s) has no selector", i+1, a.Kind)
		}
		if !a.Kind.Valid() {
			return fmt.Errorf("action #%d has unknown kind %q", i+1, a.Kind)
		}
		if a.Timeout < 0 {
			return fmt.Errorf("action #%d has a negative timeout", i+1)
		}
	}
	return nil
}
