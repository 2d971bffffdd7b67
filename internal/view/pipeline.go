package view

import (
	"context"
	"fmt"
)

// Stage is one step of a Pipeline. Run receives the state committed by the
// previous stages and returns the event to commit.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s State) (Event, error)
}

// StageError identifies the stage that aborted a pipeline.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline runs stages strictly in order. Each successful stage is committed
// before the next one starts; the first failure stops the chain and leaves
// everything committed so far in place.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a Pipeline from stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the pipeline. current reads the committed state; commit
// applies an event and returns the new state.
func (p *Pipeline) Run(ctx context.Context, current func() State, commit func(Event) State) error {
	s := current()
	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
		ev, err := st.Run(ctx, s)
		if err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
		s = commit(ev)
	}
	return nil
}
