package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/docshot/pkg/pipeline"
)

// shortDigest is the digest prefix shown in summaries.
const shortDigest = 12

// NewTextFormatter returns a Formatter producing one line per target,
// suitable for a terminal.
func NewTextFormatter() Formatter {
	return FormatFunc(formatText)
}

func formatText(s *Summary) string {
	var b strings.Builder
	for _, r := range s.Results {
		b.WriteString(ResultLine(r))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d succeeded, %d failed, %d skipped", s.Counts.Succeeded, s.Counts.Failed, s.Counts.Skipped)
	if s.Counts.Changed > 0 {
		fmt.Fprintf(&b, " (%d changed)", s.Counts.Changed)
	}
	fmt.Fprintf(&b, " in %s\n", s.Run.Duration.Round(time.Millisecond))
	if s.Run.Cancelled {
		b.WriteString("run was cancelled\n")
	}
	return b.String()
}

// ResultLine renders one result as a pass/fail line.
func ResultLine(r pipeline.CaptureResult) string {
	switch r.Status {
	case pipeline.StatusSucceeded:
		change := "unchanged"
		if r.Changed {
			change = "changed"
		}
		return fmt.Sprintf("PASS %s -> %s [%s, %s]", r.Target, r.WrittenPath, short(r.Digest), change)
	case pipeline.StatusFailed:
		return fmt.Sprintf("FAIL %s: %s: %s", r.Target, r.Kind, r.Reason)
	default:
		return fmt.Sprintf("SKIP %s: %s", r.Target, r.Reason)
	}
}

func short(digest string) string {
	if len(digest) > shortDigest {
		return digest[:shortDigest]
	}
	return digest
}
