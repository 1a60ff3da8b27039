package navigate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// actionFunc performs one interaction step on the page.
type actionFunc func(ctx context.Context, page ports.Page, a pipeline.Action) error

// handlers holds one entry per pipeline.ActionKinds entry.
var handlers = map[pipeline.ActionKind]actionFunc{
	pipeline.ActionClick: func(ctx context.Context, page ports.Page, a pipeline.Action) error {
		return page.Click(ctx, a.Selector)
	},
	pipeline.ActionHover: func(ctx context.Context, page ports.Page, a pipeline.Action) error {
		return page.Hover(ctx, a.Selector)
	},
	pipeline.ActionFill: func(ctx context.Context, page ports.Page, a pipeline.Action) error {
		return page.Fill(ctx, a.Selector, a.Text)
	},
	pipeline.ActionWaitFor: func(ctx context.Context, page ports.Page, a pipeline.Action) error {
		return page.WaitForSelector(ctx, a.Selector)
	},
}

func runAction(ctx context.Context, page ports.Page, a pipeline.Action, stepTimeout time.Duration) error {
	handler, ok := handlers[a.Kind]
	if !ok {
		return fmt.Errorf("unsupported action kind %q", a.Kind)
	}

	timeout := stepTimeout
	if a.Kind == pipeline.ActionWaitFor && a.Timeout > 0 {
		timeout = a.Timeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return handler(stepCtx, page, a)
}

// classifyAction maps an action error to its kind: a missing element is
// ActionFailed, an exhausted wait is ReadinessTimeout.
func classifyAction(ctx context.Context, err error, target string, a pipeline.Action) *pipeline.Error {
	op := a.String()
	if errors.Is(err, ports.ErrElementNotFound) && ctx.Err() == nil {
		if a.Kind == pipeline.ActionWaitFor {
			return &pipeline.Error{Kind: pipeline.KindReadinessTimeout, Target: target, Op: op, Err: err}
		}
		return &pipeline.Error{Kind: pipeline.KindActionFailed, Target: target, Op: op, Err: err}
	}
	return pipeline.ClassifyWait(ctx, err, pipeline.KindActionFailed, target, op)
}
