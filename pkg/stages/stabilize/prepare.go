package stabilize

import (
	"context"
	"time"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// PrepareStage runs at page-creation time, before navigation.
// It registers page-scoped init scripts so that application code observes
// the stabilized environment from its very first statement.
type PrepareStage struct {
	logger ports.Logger
}

// NewPrepare creates a new prepare stage.
func NewPrepare(logger ports.Logger) *PrepareStage {
	return &PrepareStage{
		logger: logger.WithComponent("stabilize"),
	}
}

// Execute installs the time-freeze hook on the page when the policy asks for it.
func (s *PrepareStage) Execute(ctx context.Context, input pipeline.PrepareInput) (pipeline.PrepareResult, error) {
	var result pipeline.PrepareResult
	if input.Policy.FreezeTimeTo == nil {
		return result, nil
	}

	at := input.Policy.FreezeTimeTo.UTC()
	s.logger.Debug("Freezing time at %s", at.Format(time.RFC3339))
	if err := input.Page.AddInitScript(ctx, FreezeTimeScript(at)); err != nil {
		return result, pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, input.Target.Name, "freeze time")
	}
	result.TimeFrozen = true
	return result, nil
}
