package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Stage is one unit of the pipeline. Run returns a short human-readable
// summary on success, or an error whose message is the stage diagnostic.
type Stage struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// StageError reports which stage failed and why. The pipeline stops at the
// first failing stage; nothing after it executes.
type StageError struct {
	Stage      string
	Diagnostic string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %s", e.Stage, e.Diagnostic)
}

// Pipeline sequences stages in a fixed order.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// New creates a Pipeline running the given stages in order.
func New(logger *zap.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: logger}
}

// Run executes the stages sequentially, short-circuiting on the first
// failure.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, stage := range p.stages {
		p.logger.Info("stage started", zap.String("stage", stage.Name))

		summary, err := stage.Run(ctx)
		if err != nil {
			p.logger.Error("stage failed",
				zap.String("stage", stage.Name), zap.Error(err))
			return &StageError{Stage: stage.Name, Diagnostic: err.Error()}
		}

		p.logger.Info("stage finished",
			zap.String("stage", stage.Name), zap.String("summary", summary))
	}

	p.logger.Info("pipeline run complete")
	return nil
}
