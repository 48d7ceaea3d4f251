package om

import (
	"context"
	"fmt"
)

// Component is a leaf of the model tree.
type Component interface {
	// Setup declares the component's inputs and outputs.
	Setup(s *Spec) error
	// Compute reads inputs and writes every output.
	Compute(ctx context.Context, in, out *Vars) error
}

// Spec collects the variables a component declares during Setup.
type Spec struct {
	inputs  []*varMeta
	outputs []*varMeta
	seen    map[string]bool
	errs    []error
}

func newSpec() *Spec {
	return &Spec{seen: make(map[string]bool)}
}

// AddInput declares an input.
func (s *Spec) AddInput(name string, opts ...VarOption) {
	if s.declare(name) {
		s.inputs = append(s.inputs, newMeta(name, opts))
	}
}

// AddOutput declares an output.
func (s *Spec) AddOutput(name string, opts ...VarOption) {
	if s.declare(name) {
		s.outputs = append(s.outputs, newMeta(name, opts))
	}
}

func (s *Spec) declare(name string) bool {
	if name == "" {
		s.errs = append(s.errs, fmt.Errorf("variable name must not be empty"))
		return false
	}
	if s.seen[name] {
		s.errs = append(s.errs, fmt.Errorf("variable '%s' is declared more than once", name))
		return false
	}
	s.seen[name] = true
	return true
}

// IndepVarComp is a component without inputs whose outputs are set from
// outside the model.
type IndepVarComp struct {
	outputs []indep
}

type indep struct {
	name string
	opts []VarOption
}

// NewIndepVarComp returns an empty IndepVarComp.
func NewIndepVarComp() *IndepVarComp {
	return &IndepVarComp{}
}

// Add declares an independent output and returns the component for chaining.
func (c *IndepVarComp) Add(name string, opts ...VarOption) *IndepVarComp {
	c.outputs = append(c.outputs, indep{name: name, opts: opts})
	return c
}

// Setup implements Component.
func (c *IndepVarComp) Setup(s *Spec) error {
	for _, o := range c.outputs {
		s.AddOutput(o.name, o.opts...)
	}
	return nil
}

// Compute implements Component. Outputs keep whatever value was set.
func (c *IndepVarComp) Compute(context.Context, *Vars, *Vars) error {
	return nil
}

// ExecComp evaluates a Go function over its inputs. It is handy for glue
// arithmetic and tests.
type ExecComp struct {
	Inputs  []string
	Outputs []string
	Units   map[string]string
	Fn      func(in map[string]float64) map[string]float64
}

// Setup implements Component.
func (c *ExecComp) Setup(s *Spec) error {
	if c.Fn == nil {
		return fmt.Errorf("exec component has no function")
	}
	for _, n := range c.Inputs {
		s.AddInput(n, Val(0), Units(c.Units[n]))
	}
	for _, n := range c.Outputs {
		s.AddOutput(n, Val(0), Units(c.Units[n]))
	}
	return nil
}

// Compute implements Component.
func (c *ExecComp) Compute(_ context.Context, in, out *Vars) error {
	args := make(map[string]float64, len(c.Inputs))
	for _, n := range c.Inputs {
		args[n] = in.Scalar(n)
	}
	res := c.Fn(args)
	for _, n := range c.Outputs {
		v, ok := res[n]
		if !ok {
			return fmt.Errorf("exec component did not produce output '%s'", n)
		}
		out.Set(n, v)
	}
	return nil
}
