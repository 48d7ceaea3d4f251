package om

import "fmt"

// NonlinearBlockGS iterates a coupled block of subsystems until the change
// of their outputs falls below Atol, or below Rtol relative to the first
// iteration.
type NonlinearBlockGS struct {
	MaxIter int
	Atol    float64
	Rtol    float64
}

// NewNonlinearBlockGS returns a solver with default tolerances.
func NewNonlinearBlockGS() *NonlinearBlockGS {
	return &NonlinearBlockGS{MaxIter: 10, Atol: 1e-10, Rtol: 1e-10}
}

type subsystem struct {
	name     string
	comp     Component
	group    *Group
	promotes []string
}

type connection struct {
	src, tgt string
}

// Group is an ordered collection of subsystems. Subsystems run in
// insertion order unless a data dependency forces a producer to run
// earlier; SetAutoOrder(false) pins the insertion order.
type Group struct {
	subs      []*subsystem
	names     map[string]bool
	conns     []connection
	solver    *NonlinearBlockGS
	autoOrder bool
	errs      []error
}

// NewGroup returns an empty group with automatic ordering.
func NewGroup() *Group {
	return &Group{names: make(map[string]bool), autoOrder: true}
}

func (g *Group) add(s *subsystem) {
	if g.names[s.name] {
		g.errs = append(g.errs, fmt.Errorf("subsystem name '%s' is already used", s.name))
		return
	}
	g.names[s.name] = true
	g.subs = append(g.subs, s)
}

// AddComponent adds a component. Promotes holds exact variable names or
// glob patterns such as "*".
func (g *Group) AddComponent(name string, c Component, promotes ...string) {
	g.add(&subsystem{name: name, comp: c, promotes: promotes})
}

// AddGroup adds and returns a new child group.
func (g *Group) AddGroup(name string, promotes ...string) *Group {
	child := NewGroup()
	g.add(&subsystem{name: name, group: child, promotes: promotes})
	return child
}

// Has reports whether a subsystem with the given name exists.
func (g *Group) Has(name string) bool {
	return g.names[name]
}

// Subsystems returns the subsystem names in insertion order.
func (g *Group) Subsystems() []string {
	out := make([]string, len(g.subs))
	for i, s := range g.subs {
		out[i] = s.name
	}
	return out
}

// Connect connects an output to an input. Both are names as seen from this
// group: promoted names or paths relative to the group.
func (g *Group) Connect(src, tgt string) {
	g.conns = append(g.conns, connection{src: src, tgt: tgt})
}

// SetNonlinearSolver attaches a Gauss-Seidel solver used for coupled
// blocks in this group and its descendants.
func (g *Group) SetNonlinearSolver(s *NonlinearBlockGS) {
	g.solver = s
}

// SetAutoOrder chooses between dependency order (true) and insertion order
// (false). In insertion order a solver iterates the whole group, and
// without one a subsystem reading from a later sibling sees the value of
// the previous evaluation.
func (g *Group) SetAutoOrder(auto bool) {
	g.autoOrder = auto
}

// AutoOrder reports whether the group reorders its subsystems.
func (g *Group) AutoOrder() bool { return g.autoOrder }
