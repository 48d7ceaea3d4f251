package om

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/dag"
	"github.com/vk/h2integrate/internal/units"
)

const autoIVCName = "_auto_ivc"

// scope holds the variables visible from one group, keyed by the name
// they are promoted to at that level.
type scope struct {
	outputs     map[string]*varInst
	outputOrder []string
	inputs      map[string][]*varInst
	inputOrder  []string
}

func newScope() *scope {
	return &scope{
		outputs: make(map[string]*varInst),
		inputs:  make(map[string][]*varInst),
	}
}

func (s *scope) addInput(name string, v *varInst) {
	if _, ok := s.inputs[name]; !ok {
		s.inputOrder = append(s.inputOrder, name)
	}
	s.inputs[name] = append(s.inputs[name], v)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func displayPath(p string) string {
	if p == "" {
		return "<model>"
	}
	return p
}

// Setup resolves the model tree. It must be called before any evaluation
// and may be called again after the tree changed.
func (p *Problem) Setup(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	p.isSetup = false
	p.vars = nil
	p.autoVars = nil
	p.absOut = make(map[string]*varInst)
	p.absIn = make(map[string]*varInst)

	root, err := p.build(p.Model, "", nil)
	if err != nil {
		return err
	}
	sc, err := p.promote(root)
	if err != nil {
		return err
	}
	for name, v := range sc.outputs {
		v.promoted = name
	}
	for name, vs := range sc.inputs {
		for _, v := range vs {
			v.promoted = name
		}
	}
	p.promOut = sc.outputs
	p.promIn = sc.inputs
	p.promOrder = sc.inputOrder

	p.addAutoIVC()
	if err := p.resolveShapes(); err != nil {
		return err
	}
	for _, v := range p.vars {
		v.allocate()
	}
	if err := p.resolveUnits(); err != nil {
		return err
	}
	if err := p.order(ctx, root); err != nil {
		return err
	}

	p.root = root
	p.isSetup = true
	logger.Debug("Problem set up.", "variables", len(p.vars), "auto_ivc", len(p.autoVars))
	return nil
}

func (p *Problem) build(g *Group, at string, solver *NonlinearBlockGS) (*groupInst, error) {
	if len(g.errs) > 0 {
		return nil, fmt.Errorf("group '%s': %w", displayPath(at), errors.Join(g.errs...))
	}
	if g.solver != nil {
		solver = g.solver
	}
	gi := &groupInst{path: at, group: g, solver: solver}
	for _, s := range g.subs {
		childPath := joinPath(at, s.name)
		if s.group != nil {
			child, err := p.build(s.group, childPath, solver)
			if err != nil {
				return nil, err
			}
			gi.children = append(gi.children, child)
			continue
		}
		ci, err := p.buildComponent(s.comp, childPath)
		if err != nil {
			return nil, err
		}
		gi.children = append(gi.children, ci)
	}
	return gi, nil
}

func (p *Problem) buildComponent(c Component, at string) (*compInst, error) {
	spec := newSpec()
	if err := c.Setup(spec); err != nil {
		return nil, fmt.Errorf("setup of '%s' failed: %w", at, err)
	}
	if len(spec.errs) > 0 {
		return nil, fmt.Errorf("setup of '%s' failed: %w", at, errors.Join(spec.errs...))
	}
	ci := &compInst{path: at, comp: c}
	for _, m := range spec.inputs {
		v := &varInst{meta: m, abs: joinPath(at, m.name), owner: ci, isInput: true, size: m.size, scale: 1}
		ci.inputs = append(ci.inputs, v)
		p.absIn[v.abs] = v
		p.vars = append(p.vars, v)
	}
	for _, m := range spec.outputs {
		v := &varInst{meta: m, abs: joinPath(at, m.name), owner: ci, size: m.size}
		ci.outputs = append(ci.outputs, v)
		p.absOut[v.abs] = v
		p.vars = append(p.vars, v)
	}
	for _, v := range append(ci.inputs, ci.outputs...) {
		if v.meta.copyShape != "" && ci.local(v.meta.copyShape) == nil {
			return nil, fmt.Errorf("'%s': copy_shape refers to unknown variable '%s'", v.abs, v.meta.copyShape)
		}
	}
	ci.in = newVars(ci.inputs)
	ci.out = newVars(ci.outputs)
	return ci, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// promote builds the scope of a group from its children, then applies the
// group's explicit connections and the implicit ones formed by an input and
// an output sharing a promoted name.
func (p *Problem) promote(gi *groupInst) (*scope, error) {
	sc := newScope()
	for i, child := range gi.children {
		sub := gi.group.subs[i]

		var cs *scope
		switch c := child.(type) {
		case *compInst:
			cs = c.scope()
		case *groupInst:
			var err error
			if cs, err = p.promote(c); err != nil {
				return nil, err
			}
		}

		matched := make([]bool, len(sub.promotes))
		lift := func(name string) string {
			for j, pat := range sub.promotes {
				if ok, _ := path.Match(pat, name); ok {
					matched[j] = true
					return name
				}
			}
			return sub.name + "." + name
		}

		for _, name := range cs.outputOrder {
			v := cs.outputs[name]
			up := lift(name)
			if prev, ok := sc.outputs[up]; ok {
				return nil, fmt.Errorf("output '%s' in group '%s' is promoted from both '%s' and '%s'",
					up, displayPath(gi.path), prev.abs, v.abs)
			}
			sc.outputs[up] = v
			sc.outputOrder = append(sc.outputOrder, up)
		}
		for _, name := range cs.inputOrder {
			up := lift(name)
			for _, v := range cs.inputs[name] {
				sc.addInput(up, v)
			}
		}
		for j, pat := range sub.promotes {
			if !matched[j] && !isGlob(pat) {
				return nil, fmt.Errorf("'%s': could not find variable '%s' to promote", child.pathName(), pat)
			}
		}
	}

	for _, c := range gi.group.conns {
		src, ok := sc.outputs[c.src]
		if !ok {
			src, ok = p.absOut[joinPath(gi.path, c.src)]
		}
		if !ok {
			return nil, fmt.Errorf("attempted to connect from '%s' in group '%s', but it does not exist", c.src, displayPath(gi.path))
		}
		tgts := sc.inputs[c.tgt]
		if len(tgts) == 0 {
			if v, ok := p.absIn[joinPath(gi.path, c.tgt)]; ok {
				tgts = []*varInst{v}
			}
		}
		if len(tgts) == 0 {
			return nil, fmt.Errorf("attempted to connect to '%s' in group '%s', but it does not exist", c.tgt, displayPath(gi.path))
		}
		for _, t := range tgts {
			if err := connect(src, t); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range sc.inputOrder {
		src, ok := sc.outputs[name]
		if !ok {
			continue
		}
		for _, t := range sc.inputs[name] {
			if t.src == src {
				continue
			}
			if err := connect(src, t); err != nil {
				return nil, err
			}
		}
	}
	return sc, nil
}

func connect(src, tgt *varInst) error {
	if tgt.src != nil && tgt.src != src {
		return fmt.Errorf("input '%s' is already connected to '%s'", tgt.abs, tgt.src.abs)
	}
	if src.owner == tgt.owner {
		return fmt.Errorf("cannot connect '%s' to '%s' inside the same component", src.abs, tgt.abs)
	}
	tgt.src = src
	return nil
}

// addAutoIVC backs every unconnected input with an independent output. All
// inputs promoted to the same name share one.
func (p *Problem) addAutoIVC() {
	owner := &compInst{path: autoIVCName, comp: NewIndepVarComp()}
	for _, name := range p.promOrder {
		var free []*varInst
		for _, v := range p.promIn[name] {
			if v.src == nil {
				free = append(free, v)
			}
		}
		if len(free) == 0 {
			continue
		}
		first := free[0].meta
		meta := &varMeta{
			name:        fmt.Sprintf("v%d", len(p.autoVars)),
			val:         first.val,
			units:       first.units,
			desc:        first.desc,
			shapeByConn: true,
		}
		v := &varInst{meta: meta, abs: joinPath(autoIVCName, meta.name), promoted: name, owner: owner}
		for _, in := range free {
			in.src = v
		}
		owner.outputs = append(owner.outputs, v)
		p.autoVars = append(p.autoVars, v)
		p.vars = append(p.vars, v)
	}
}

func (p *Problem) resolveShapes() error {
	targets := make(map[*varInst][]*varInst)
	for _, v := range p.vars {
		if v.isInput && v.src != nil {
			targets[v.src] = append(targets[v.src], v)
		}
	}

	infer := func(v *varInst) int {
		if v.meta.copyShape != "" {
			if o := v.owner.local(v.meta.copyShape); o != nil && o.size > 0 {
				return o.size
			}
		}
		if !v.meta.shapeByConn {
			return 0
		}
		if v.isInput {
			if v.src != nil {
				return v.src.size
			}
			return 0
		}
		for _, t := range targets[v] {
			if t.size > 0 {
				return t.size
			}
		}
		return 0
	}

	propagate := func() {
		for changed := true; changed; {
			changed = false
			for _, v := range p.vars {
				if v.size > 0 {
					continue
				}
				if n := infer(v); n > 0 {
					v.size = n
					changed = true
				}
			}
		}
	}
	propagate()

	// Whatever connections could not decide falls back to the length of the
	// declared default, one variable at a time so that each fallback can
	// propagate before the next is taken.
	for _, v := range p.vars {
		if v.size == 0 && len(v.meta.val) > 0 {
			v.size = len(v.meta.val)
			propagate()
		}
	}

	var unresolved []string
	for _, v := range p.vars {
		if v.size == 0 {
			unresolved = append(unresolved, v.abs)
		}
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("failed to resolve shapes of: %s", strings.Join(unresolved, ", "))
	}
	for _, v := range p.vars {
		if v.isInput && v.src.size != v.size {
			return fmt.Errorf("cannot connect '%s' (length %d) to '%s' (length %d)", v.src.abs, v.src.size, v.abs, v.size)
		}
	}
	return nil
}

func (p *Problem) resolveUnits() error {
	for _, v := range p.vars {
		if !v.isInput {
			continue
		}
		scale, offset, err := units.Factors(v.src.units(), v.units())
		if err != nil {
			return fmt.Errorf("cannot connect '%s' [%s] to '%s' [%s]: %w", v.src.abs, v.src.units(), v.abs, v.units(), err)
		}
		v.scale, v.offset = scale, offset
		v.transfer()
	}
	return nil
}

// order splits the children of every group into blocks by data
// dependency. Blocks with more than one member are coupled and need a
// solver on the group or one of its ancestors. Groups without automatic
// ordering keep their insertion order.
func (p *Problem) order(ctx context.Context, gi *groupInst) error {
	g := dag.New()
	childOf := make(map[*compInst]int)
	for i, child := range gi.children {
		g.AddNode(gi.group.subs[i].name)
		for _, c := range child.components() {
			childOf[c] = i
		}
	}
	var backward [][2]int
	for i, child := range gi.children {
		for _, c := range child.components() {
			for _, in := range c.inputs {
				j, ok := childOf[in.src.owner]
				if !ok || j == i {
					continue
				}
				if j > i && !slices.Contains(backward, [2]int{j, i}) {
					backward = append(backward, [2]int{j, i})
				}
				if err := g.AddEdge(gi.group.subs[j].name, gi.group.subs[i].name); err != nil {
					return err
				}
			}
		}
	}

	index := make(map[string]int, len(gi.children))
	for i, s := range gi.group.subs {
		index[s.name] = i
	}
	var blocks [][]int
	for _, block := range g.Blocks() {
		ids := make([]int, len(block))
		for k, name := range block {
			ids[k] = index[name]
		}
		if len(ids) > 1 && gi.solver == nil {
			return fmt.Errorf("cycle detected involving '%s'", gi.children[ids[0]].pathName())
		}
		blocks = append(blocks, ids)
	}

	switch {
	case gi.group.autoOrder:
		gi.blocks = blocks
	case len(backward) > 0 && gi.solver != nil:
		all := make([]int, len(gi.children))
		for i := range all {
			all[i] = i
		}
		gi.blocks = [][]int{all}
	default:
		for _, b := range backward {
			ctxlog.FromContext(ctx).Warn("Subsystem reads from a later sibling; it sees the previous evaluation.",
				"group", gi.pathName(),
				"consumer", gi.group.subs[b[1]].name,
				"producer", gi.group.subs[b[0]].name,
			)
		}
		gi.blocks = make([][]int, len(gi.children))
		for i := range gi.blocks {
			gi.blocks[i] = []int{i}
		}
	}

	for _, child := range gi.children {
		if sub, ok := child.(*groupInst); ok {
			if err := p.order(ctx, sub); err != nil {
				return err
			}
		}
	}
	return nil
}
