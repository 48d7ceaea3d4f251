package om

import (
	"context"
	"fmt"
	"time"
)

// Driver runs a set up problem, possibly many times.
type Driver interface {
	Run(ctx context.Context, p *Problem) error
}

// RunOnce evaluates the model a single time.
type RunOnce struct{}

// Run implements Driver.
func (RunOnce) Run(ctx context.Context, p *Problem) error {
	return p.Evaluate(ctx, "driver")
}

// DesignVar is a variable a driver may change, addressed by promoted name.
// Ref scales the variable for the optimizer; zero means no scaling.
type DesignVar struct {
	Name  string
	Lower float64
	Upper float64
	Units string
	Ref   float64
}

// Objective is the quantity an optimizer minimizes. Index selects the
// element of an array output.
type Objective struct {
	Name  string
	Units string
	Ref   float64
	Index int
}

// Constraint bounds an output. Nil bounds are not enforced.
type Constraint struct {
	Name   string
	Lower  *float64
	Upper  *float64
	Equals *float64
	Units  string
	Index  int
}

// Case is one recorded model evaluation.
type Case struct {
	Name      string
	Iteration int
	Timestamp time.Time
	Outputs   map[string][]float64
}

// Recorder persists evaluated cases.
type Recorder interface {
	RecordIteration(ctx context.Context, c Case) error
	Close() error
}

func (p *Problem) record(ctx context.Context, caseName string) error {
	if len(p.recorders) == 0 {
		return nil
	}
	c := Case{
		Name:      caseName,
		Iteration: p.iteration,
		Timestamp: time.Now().UTC(),
		Outputs:   p.Outputs(),
	}
	for _, r := range p.recorders {
		if err := r.RecordIteration(ctx, c); err != nil {
			return fmt.Errorf("recording case '%s' failed: %w", caseName, err)
		}
	}
	return nil
}
