package om

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/h2integrate/internal/units"
)

var errNotSetup = errors.New("problem has not been set up")

// Problem owns a model tree and everything resolved from it.
type Problem struct {
	Model *Group

	driver      Driver
	recorders   []Recorder
	designVars  []DesignVar
	objective   *Objective
	constraints []Constraint

	isSetup   bool
	root      *groupInst
	vars      []*varInst
	autoVars  []*varInst
	absOut    map[string]*varInst
	absIn     map[string]*varInst
	promOut   map[string]*varInst
	promIn    map[string][]*varInst
	promOrder []string
	iteration int
}

// NewProblem wraps a model group. A nil model starts from an empty group.
func NewProblem(model *Group) *Problem {
	if model == nil {
		model = NewGroup()
	}
	return &Problem{Model: model}
}

// SetDriver sets the driver used by RunDriver.
func (p *Problem) SetDriver(d Driver) { p.driver = d }

// AddRecorder registers a recorder that receives every evaluation.
func (p *Problem) AddRecorder(r Recorder) { p.recorders = append(p.recorders, r) }

// AddDesignVar adds a design variable.
func (p *Problem) AddDesignVar(dv DesignVar) { p.designVars = append(p.designVars, dv) }

// SetObjective sets the objective.
func (p *Problem) SetObjective(o Objective) { p.objective = &o }

// AddConstraint adds a constraint.
func (p *Problem) AddConstraint(c Constraint) { p.constraints = append(p.constraints, c) }

// DesignVars returns the design variables in insertion order.
func (p *Problem) DesignVars() []DesignVar { return slices.Clone(p.designVars) }

// Objective returns the objective or nil.
func (p *Problem) Objective() *Objective { return p.objective }

// Constraints returns the constraints in insertion order.
func (p *Problem) Constraints() []Constraint { return slices.Clone(p.constraints) }

// Iterations returns the number of evaluations run so far.
func (p *Problem) Iterations() int { return p.iteration }

func (p *Problem) resolve(name string) (*varInst, error) {
	if !p.isSetup {
		return nil, errNotSetup
	}
	if v, ok := p.absOut[name]; ok {
		return v, nil
	}
	if v, ok := p.promOut[name]; ok {
		return v, nil
	}
	if v, ok := p.absIn[name]; ok {
		return v, nil
	}
	if vs := p.promIn[name]; len(vs) > 0 {
		return vs[0], nil
	}
	return nil, fmt.Errorf("variable '%s' not found", name)
}

// Units returns the units of a variable addressed by absolute or promoted
// name.
func (p *Problem) Units(name string) (string, error) {
	v, err := p.resolve(name)
	if err != nil {
		return "", err
	}
	return v.units(), nil
}

// GetVal returns a copy of a variable's value, optionally converted to the
// given units. Inputs report the value their source currently holds.
func (p *Problem) GetVal(name string, unit ...string) ([]float64, error) {
	v, err := p.resolve(name)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, v.size)
	if v.isInput && v.src != nil {
		for i, s := range v.src.val {
			vals[i] = (s + v.offset) * v.scale
		}
	} else {
		copy(vals, v.val)
	}
	if len(unit) > 0 && unit[0] != "" {
		vals, err = units.ConvertSlice(vals, v.units(), unit[0])
		if err != nil {
			return nil, fmt.Errorf("get '%s': %w", name, err)
		}
	}
	return vals, nil
}

// GetScalar returns the first element of a variable.
func (p *Problem) GetScalar(name string, unit ...string) (float64, error) {
	vals, err := p.GetVal(name, unit...)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("variable '%s' is empty", name)
	}
	return vals[0], nil
}

// SetVal sets a variable. Setting an input writes its source. A single
// value is broadcast over arrays.
func (p *Problem) SetVal(name string, vals []float64, unit ...string) error {
	v, err := p.resolve(name)
	if err != nil {
		return err
	}
	if len(unit) > 0 && unit[0] != "" {
		vals, err = units.ConvertSlice(vals, unit[0], v.units())
		if err != nil {
			return fmt.Errorf("set '%s': %w", name, err)
		}
	}
	target := v
	if v.isInput {
		if v.src == nil {
			return fmt.Errorf("set '%s': input has no source", name)
		}
		target = v.src
		conv := make([]float64, len(vals))
		for i, x := range vals {
			conv[i] = x/v.scale - v.offset
		}
		vals = conv
	}
	switch len(vals) {
	case target.size:
		copy(target.val, vals)
	case 1:
		for i := range target.val {
			target.val[i] = vals[0]
		}
	default:
		return fmt.Errorf("set '%s': expected %d values, got %d", name, target.size, len(vals))
	}
	return nil
}

// SetScalar sets every element of a variable to x.
func (p *Problem) SetScalar(name string, x float64, unit ...string) error {
	return p.SetVal(name, []float64{x}, unit...)
}

// Outputs snapshots every output by promoted name, plus the independent
// values backing unconnected inputs.
func (p *Problem) Outputs() map[string][]float64 {
	out := make(map[string][]float64, len(p.promOut)+len(p.autoVars))
	for name, v := range p.promOut {
		out[name] = slices.Clone(v.val)
	}
	for _, v := range p.autoVars {
		out[v.promoted] = slices.Clone(v.val)
	}
	return out
}

// RunModel evaluates the model once and records the case as "run_model".
func (p *Problem) RunModel(ctx context.Context) error {
	return p.Evaluate(ctx, "run_model")
}

// Evaluate runs the model once and hands the result to every recorder
// under the given case name.
func (p *Problem) Evaluate(ctx context.Context, caseName string) error {
	if !p.isSetup {
		return errNotSetup
	}
	if err := p.root.run(ctx, p); err != nil {
		return err
	}
	p.iteration++
	return p.record(ctx, caseName)
}

// RunDriver runs the configured driver, or a single evaluation when none
// is set.
func (p *Problem) RunDriver(ctx context.Context) error {
	if !p.isSetup {
		return errNotSetup
	}
	d := p.driver
	if d == nil {
		d = RunOnce{}
	}
	return d.Run(ctx, p)
}

// Close closes every recorder.
func (p *Problem) Close() error {
	var errs []error
	for _, r := range p.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.recorders = nil
	return errors.Join(errs...)
}
