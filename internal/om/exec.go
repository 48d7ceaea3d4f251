package om

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/ctxlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"
)

var tracer = otel.Tracer("github.com/vk/h2integrate/internal/om")

type system interface {
	pathName() string
	components() []*compInst
	run(ctx context.Context, p *Problem) error
}

type compInst struct {
	path    string
	comp    Component
	inputs  []*varInst
	outputs []*varInst
	in, out *Vars
}

func (c *compInst) pathName() string        { return c.path }
func (c *compInst) components() []*compInst { return []*compInst{c} }

func (c *compInst) local(name string) *varInst {
	for _, v := range c.inputs {
		if v.meta.name == name {
			return v
		}
	}
	for _, v := range c.outputs {
		if v.meta.name == name {
			return v
		}
	}
	return nil
}

func (c *compInst) scope() *scope {
	sc := newScope()
	for _, v := range c.outputs {
		sc.outputs[v.meta.name] = v
		sc.outputOrder = append(sc.outputOrder, v.meta.name)
	}
	for _, v := range c.inputs {
		sc.addInput(v.meta.name, v)
	}
	return sc
}

func (c *compInst) run(ctx context.Context, _ *Problem) error {
	ctx, span := tracer.Start(ctx, "compute", trace.WithAttributes(attribute.String("om.component", c.path)))
	defer span.End()

	for _, v := range c.inputs {
		v.transfer()
	}
	ctx = ctxlog.With(ctx, "component", c.path)
	ctxlog.FromContext(ctx).Debug("Computing component.")
	if err := c.comp.Compute(ctx, c.in, c.out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("compute of '%s' failed: %w", c.path, err)
	}
	return nil
}

type groupInst struct {
	path     string
	group    *Group
	children []system
	blocks   [][]int
	solver   *NonlinearBlockGS
}

func (g *groupInst) pathName() string { return displayPath(g.path) }

func (g *groupInst) components() []*compInst {
	var out []*compInst
	for _, c := range g.children {
		out = append(out, c.components()...)
	}
	return out
}

func (g *groupInst) run(ctx context.Context, p *Problem) error {
	for _, block := range g.blocks {
		if len(block) == 1 {
			if err := g.children[block[0]].run(ctx, p); err != nil {
				return err
			}
			continue
		}
		if err := g.solve(ctx, p, block); err != nil {
			return err
		}
	}
	return nil
}

// solve iterates a coupled block with nonlinear block Gauss-Seidel. Not
// converging within MaxIter is logged, not returned.
func (g *groupInst) solve(ctx context.Context, p *Problem, block []int) error {
	logger := ctxlog.FromContext(ctx)
	s := g.solver

	var outs []*varInst
	for _, i := range block {
		for _, c := range g.children[i].components() {
			outs = append(outs, c.outputs...)
		}
	}
	prev := snapshot(outs, nil)

	var norm0 float64
	for iter := 1; iter <= s.MaxIter; iter++ {
		for _, i := range block {
			if err := g.children[i].run(ctx, p); err != nil {
				return err
			}
		}
		cur := snapshot(outs, nil)
		norm := floats.Distance(cur, prev, 2)
		prev = cur
		if iter == 1 {
			norm0 = norm
		}
		logger.Debug("NLBGS iteration.", "group", g.pathName(), "iteration", iter, "norm", norm)
		if norm < s.Atol || (iter > 1 && norm0 > 0 && norm/norm0 < s.Rtol) {
			logger.Debug("NLBGS converged.", "group", g.pathName(), "iterations", iter)
			return nil
		}
	}
	logger.Warn("NLBGS did not converge.", "group", g.pathName(), "max_iter", s.MaxIter)
	return nil
}

func snapshot(vs []*varInst, dst []float64) []float64 {
	for _, v := range vs {
		dst = append(dst, v.val...)
	}
	return dst
}
