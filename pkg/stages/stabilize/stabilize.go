// Package stabilize implements the stabilization stages: an init-time hook
// that freezes the page clock and a post-navigation stage that suppresses
// animations, waits for fonts and waits for readiness selectors.
package stabilize

import (
	"context"
	"time"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// DefaultTimeout bounds each wait when the input does not set one.
const DefaultTimeout = 30 * time.Second

// Stage neutralizes sources of visual nondeterminism on a navigated page.
// Steps run in a fixed order: style suppression, font wait, readiness
// selectors. A step starts only after the previous one completed.
type Stage struct {
	logger ports.Logger
}

// New creates a new stabilize stage.
func New(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("stabilize"),
	}
}

// Execute applies the policy to the page.
func (s *Stage) Execute(ctx context.Context, input pipeline.StabilizeInput) (pipeline.StabilizeResult, error) {
	var result pipeline.StabilizeResult
	name := input.Target.Name
	policy := input.Policy

	timeout := input.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if policy.DisableAnimations {
		s.logger.Debug("Suppressing animations on %s", name)
		if err := input.Page.Evaluate(ctx, SuppressAnimationsExpression(), nil); err != nil {
			return result, pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, name, "suppress animations")
		}
		result.StyleApplied = true
	}

	if policy.FontReadiness == pipeline.FontsLoad {
		s.logger.Debug("Waiting for fonts on %s", name)
		if err := s.waitFonts(ctx, input.Page, timeout); err != nil {
			return result, pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, name, "fonts")
		}
		result.FontsAwaited = true
	}

	if len(policy.ReadinessSelectors) > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		for _, sel := range policy.ReadinessSelectors {
			s.logger.Debug("Waiting for readiness selector %s", sel)
			if err := input.Page.WaitForSelector(waitCtx, sel); err != nil {
				return result, pipeline.ClassifyWait(ctx, err, pipeline.KindReadinessTimeout, name, "readiness "+sel)
			}
			result.SelectorsReady++
		}
	}

	return result, nil
}

func (s *Stage) waitFonts(ctx context.Context, page ports.Page, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var status string
	if err := page.Evaluate(waitCtx, FontsReadyExpression, &status); err != nil {
		return err
	}
	s.logger.Debug("Font set status: %s", status)
	return nil
}
