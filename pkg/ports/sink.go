package ports

// DebugSink abstracts debug output for failed targets.
// It allows saving the page state at the time of a failure for diagnosis.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SavePlanJSON saves the resolved run plan (policy and targets) as JSON.
	SavePlanJSON(data []byte) error

	// SavePageHTML saves the serialized DOM of a failed target's page.
	SavePageHTML(target string, html []byte) error

	// SaveFailureScreenshot saves a viewport screenshot of a failed target's page.
	SaveFailureScreenshot(target string, data []byte) error

	// ClearFailure removes artifacts left by an earlier failure of target.
	ClearFailure(target string) error
}
