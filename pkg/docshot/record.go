package docshot

import (
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// ToRunRecord converts a report into its persisted form.
func ToRunRecord(report pipeline.Report) ports.RunRecord {
	counts := report.Counts()
	run := ports.RunRecord{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		BaseURL:    report.BaseURL,
		Succeeded:  counts.Succeeded,
		Failed:     counts.Failed,
		Skipped:    counts.Skipped,
		Cancelled:  report.Cancelled,
		Results:    make([]ports.ResultRecord, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		run.Results = append(run.Results, ports.ResultRecord{
			RunID:      report.RunID,
			Target:     r.Target,
			Status:     string(r.Status),
			Kind:       string(r.Kind),
			Reason:     r.Reason,
			Path:       r.WrittenPath,
			Digest:     r.Digest,
			Changed:    r.Changed,
			DurationMs: r.Duration.Milliseconds(),
			RecordedAt: report.FinishedAt,
		})
	}
	return run
}
