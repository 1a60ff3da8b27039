// Package navigate implements the navigation stage: viewport setup, page
// load with a completion criterion, and the target's interaction steps.
package navigate

import (
	"context"
	"time"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// Default bounds used when the input leaves them unset.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultStepTimeout = 30 * time.Second
)

// Stage drives a fresh page to the state a target declares.
type Stage struct {
	logger ports.Logger
}

// New creates a new navigate stage.
func New(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("navigate"),
	}
}

// Execute sets the viewport, loads the target URL and runs its actions in
// declared order. The first failing action aborts the target.
func (s *Stage) Execute(ctx context.Context, input pipeline.NavigateInput) (pipeline.NavigateResult, error) {
	start := time.Now()
	target := input.Target
	result := pipeline.NavigateResult{URL: target.URL}

	scale := input.DeviceScaleFactor
	if scale <= 0 {
		scale = 1
	}
	vp := target.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = pipeline.DefaultViewport()
	}

	// Viewport must be applied before the first layout.
	s.logger.Debug("Setting viewport %dx%d (scale %.2f)", vp.Width, vp.Height, scale)
	if err := input.Page.SetViewport(ctx, vp.Width, vp.Height, scale); err != nil {
		return result, pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, target.Name, "set viewport")
	}

	wait := input.Wait
	if wait.Until == "" {
		wait.Until = ports.WaitNetworkIdle
	}
	if wait.IdleWindow <= 0 {
		wait.IdleWindow = ports.DefaultIdleWindow
	}

	timeout := input.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s.logger.Debug("Navigating to %s (wait until %s)", target.URL, string(wait.Until))
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	err := input.Page.Navigate(navCtx, target.URL, wait)
	cancel()
	if err != nil {
		return result, pipeline.ClassifyWait(ctx, err, pipeline.KindNavigationFailed, target.Name, "navigate "+target.URL)
	}

	stepTimeout := input.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	for i, action := range target.Actions {
		s.logger.Debug("Action %d/%d: %s", i+1, len(target.Actions), action.String())
		if err := runAction(ctx, input.Page, action, stepTimeout); err != nil {
			return result, classifyAction(ctx, err, target.Name, action)
		}
		result.ActionsExecuted++
	}

	result.Duration = time.Since(start)
	return result, nil
}
