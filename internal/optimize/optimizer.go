package optimize

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// penaltyWeight scales squared constraint and bound violations.
const penaltyWeight = 1e6

// Method names an optimization algorithm.
type Method string

const (
	NelderMead Method = "NelderMead"
	LBFGS      Method = "LBFGS"
)

// Optimizer minimizes the objective over the design variables. Bounds are
// enforced by clamping, constraints by a quadratic penalty.
type Optimizer struct {
	Method  Method
	MaxIter int
	Tol     float64
}

// NewOptimizer maps a solver name to an optimizer. Gradient based requests
// use LBFGS, derivative free ones NelderMead.
func NewOptimizer(solver string, maxIter int, tol float64) (*Optimizer, error) {
	o := &Optimizer{MaxIter: maxIter, Tol: tol}
	switch strings.ToUpper(solver) {
	case "", "NELDERMEAD", "NELDER-MEAD", "COBYLA", "POWELL":
		o.Method = NelderMead
	case "LBFGS", "L-BFGS-B", "SLSQP", "BFGS":
		o.Method = LBFGS
	default:
		return nil, fmt.Errorf("driver: unknown optimizer '%s'", solver)
	}
	return o, nil
}

func scale(dv om.DesignVar) float64 {
	if dv.Ref == 0 {
		return 1
	}
	return dv.Ref
}

// clamp maps scaled optimizer coordinates to bounded design values and
// returns the squared distance clamping removed.
func clamp(dvs []om.DesignVar, z []float64) ([]float64, float64) {
	x := make([]float64, len(z))
	var dist float64
	for i, dv := range dvs {
		v := z[i] * scale(dv)
		c := math.Min(math.Max(v, dv.Lower), dv.Upper)
		d := (v - c) / scale(dv)
		dist += d * d
		x[i] = c
	}
	return x, dist
}

func violation(v float64, c om.Constraint) float64 {
	norm := func(bound float64) float64 { return math.Max(1, math.Abs(bound)) }
	var out float64
	if c.Lower != nil && v < *c.Lower {
		out += (*c.Lower - v) / norm(*c.Lower)
	}
	if c.Upper != nil && v > *c.Upper {
		out += (v - *c.Upper) / norm(*c.Upper)
	}
	if c.Equals != nil {
		out += math.Abs(v-*c.Equals) / norm(*c.Equals)
	}
	return out
}

// Run implements om.Driver.
func (o *Optimizer) Run(ctx context.Context, p *om.Problem) error {
	logger := ctxlog.FromContext(ctx)
	dvs := p.DesignVars()
	if len(dvs) == 0 {
		return fmt.Errorf("optimization requires at least one design variable")
	}
	obj := p.Objective()
	if obj == nil {
		return fmt.Errorf("optimization requires an objective")
	}
	objRef := obj.Ref
	if objRef == 0 {
		objRef = 1
	}
	constraints := p.Constraints()

	z0 := make([]float64, len(dvs))
	for i, dv := range dvs {
		v, err := p.GetScalar(dv.Name, dv.Units)
		if err != nil {
			return fmt.Errorf("design variable '%s': %w", dv.Name, err)
		}
		z0[i] = math.Min(math.Max(v, dv.Lower), dv.Upper) / scale(dv)
	}

	var evalErr error
	evaluate := func(z []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		if err := ctx.Err(); err != nil {
			evalErr = err
			return math.Inf(1)
		}
		x, dist := clamp(dvs, z)
		if err := setDesignVars(p, dvs, x); err != nil {
			evalErr = err
			return math.Inf(1)
		}
		if err := p.Evaluate(ctx, "optimizer"); err != nil {
			evalErr = err
			return math.Inf(1)
		}
		f, err := indexed(p, obj.Name, obj.Units, obj.Index)
		if err != nil {
			evalErr = fmt.Errorf("objective: %w", err)
			return math.Inf(1)
		}
		penalty := dist
		for _, c := range constraints {
			v, err := indexed(p, c.Name, c.Units, c.Index)
			if err != nil {
				evalErr = fmt.Errorf("constraint: %w", err)
				return math.Inf(1)
			}
			viol := violation(v, c)
			penalty += viol * viol
		}
		return f/objRef + penaltyWeight*penalty
	}

	problem := optimize.Problem{Func: evaluate}
	var method optimize.Method
	switch o.Method {
	case LBFGS:
		problem.Grad = func(grad, z []float64) {
			fd.Gradient(grad, evaluate, z, &fd.Settings{Formula: fd.Central})
		}
		method = &optimize.LBFGS{}
	default:
		method = &optimize.NelderMead{}
	}

	settings := &optimize.Settings{MajorIterations: o.MaxIter}
	if o.Tol > 0 {
		settings.Converger = &optimize.FunctionConverge{Absolute: o.Tol, Iterations: 20}
		if o.Method == LBFGS {
			settings.GradientThreshold = o.Tol
		}
	}

	logger.Info("Running optimizer.", "method", o.Method, "design_variables", len(dvs), "constraints", len(constraints))
	result, err := optimize.Minimize(problem, z0, settings, method)
	if evalErr != nil {
		return evalErr
	}
	if err != nil {
		if result == nil {
			return fmt.Errorf("optimizer failed: %w", err)
		}
		logger.Warn("Optimizer stopped early.", "status", result.Status.String(), "error", err)
	}

	x, _ := clamp(dvs, result.X)
	if err := setDesignVars(p, dvs, x); err != nil {
		return err
	}
	if err := p.Evaluate(ctx, "optimizer_final"); err != nil {
		return err
	}
	logger.Info("Optimizer finished.", "status", result.Status.String(), "objective", result.F,
		"evaluations", result.Stats.FuncEvaluations)
	return nil
}
