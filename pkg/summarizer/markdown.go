package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/docshot/pkg/pipeline"
)

// NewMarkdownFormatter returns a Formatter producing GitHub flavored
// markdown, e.g. for $GITHUB_STEP_SUMMARY.
func NewMarkdownFormatter() Formatter {
	return FormatFunc(formatMarkdown)
}

func formatMarkdown(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Screenshot Capture Summary\n\n")

	status := "✅ All targets captured"
	switch {
	case s.Run.Cancelled:
		status = "⚠️ Run cancelled"
	case s.Failed():
		status = "❌ Some targets failed"
	}
	b.WriteString(status + "\n\n")

	b.WriteString("## Run\n\n")
	b.WriteString("| Item | Value |\n")
	b.WriteString("|------|-------|\n")
	fmt.Fprintf(&b, "| Run ID | %s |\n", s.Run.ID)
	fmt.Fprintf(&b, "| Base URL | %s |\n", s.Run.BaseURL)
	if s.Settings.Engine != "" {
		fmt.Fprintf(&b, "| Engine | %s |\n", s.Settings.Engine)
	}
	if s.Settings.OutputRoot != "" {
		fmt.Fprintf(&b, "| Output | %s |\n", s.Settings.OutputRoot)
	}
	if s.Settings.Viewport.Width > 0 {
		fmt.Fprintf(&b, "| Viewport | %dx%d |\n", s.Settings.Viewport.Width, s.Settings.Viewport.Height)
	}
	fmt.Fprintf(&b, "| Duration | %s |\n", s.Run.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Results | %d succeeded, %d failed, %d skipped |\n",
		s.Counts.Succeeded, s.Counts.Failed, s.Counts.Skipped)
	fmt.Fprintf(&b, "| Changed | %d |\n", s.Counts.Changed)
	b.WriteString("\n")

	if len(s.Results) > 0 {
		b.WriteString("## Targets\n\n")
		b.WriteString("| Target | Status | Output | Digest | Detail |\n")
		b.WriteString("|--------|--------|--------|--------|--------|\n")
		for _, r := range s.Results {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				cell(r.Target), statusCell(r), cell(r.WrittenPath), short(r.Digest), cell(detail(r)))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_Generated at %s_\n", s.GeneratedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func statusCell(r pipeline.CaptureResult) string {
	switch r.Status {
	case pipeline.StatusSucceeded:
		if r.Changed {
			return "✅ changed"
		}
		return "✅"
	case pipeline.StatusFailed:
		return "❌ " + string(r.Kind)
	}
	return "⏭️ skipped"
}

func detail(r pipeline.CaptureResult) string {
	if r.Status == pipeline.StatusSucceeded {
		return fmt.Sprintf("%d ms", r.Duration.Milliseconds())
	}
	return r.Reason
}

// cell escapes characters that would break a table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
