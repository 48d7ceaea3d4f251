package om

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// VarOption configures a variable declared through Spec.
type VarOption func(*varMeta)

type varMeta struct {
	name        string
	val         []float64
	size        int
	units       string
	desc        string
	shapeByConn bool
	copyShape   string
}

// Val sets a scalar default value. It does not fix the length: the value
// is broadcast over whatever Shape, ShapeByConn or CopyShape resolve to.
func Val(v float64) VarOption {
	return func(m *varMeta) { m.val = []float64{v} }
}

// ArrayVal sets an array default value and the variable length.
func ArrayVal(v []float64) VarOption {
	return func(m *varMeta) {
		m.val = slices.Clone(v)
		m.size = len(v)
	}
}

// Shape sets the variable length. A scalar default is broadcast.
func Shape(n int) VarOption {
	return func(m *varMeta) { m.size = n }
}

// Units sets the unit expression of the variable.
func Units(u string) VarOption {
	return func(m *varMeta) { m.units = u }
}

// Desc sets a human readable description.
func Desc(d string) VarOption {
	return func(m *varMeta) { m.desc = d }
}

// ShapeByConn makes the length follow whatever the variable is connected to.
func ShapeByConn() VarOption {
	return func(m *varMeta) { m.shapeByConn = true }
}

// CopyShape makes the length follow another variable of the same component.
func CopyShape(name string) VarOption {
	return func(m *varMeta) { m.copyShape = name }
}

func newMeta(name string, opts []VarOption) *varMeta {
	m := &varMeta{name: name}
	for _, o := range opts {
		o(m)
	}
	if m.size == 0 && !m.shapeByConn && m.copyShape == "" {
		m.size = 1
	}
	return m
}

// varInst is a variable of one component instance inside a set up problem.
type varInst struct {
	meta     *varMeta
	abs      string
	promoted string
	owner    *compInst
	isInput  bool
	size     int
	val      []float64

	// Inputs only.
	src    *varInst
	scale  float64
	offset float64
}

func (v *varInst) units() string { return v.meta.units }

func (v *varInst) allocate() {
	v.val = make([]float64, v.size)
	switch {
	case len(v.meta.val) == v.size:
		copy(v.val, v.meta.val)
	case len(v.meta.val) == 1:
		for i := range v.val {
			v.val[i] = v.meta.val[0]
		}
	}
}

// transfer copies the connected source value into the input.
func (v *varInst) transfer() {
	if v.src == nil {
		return
	}
	for i, s := range v.src.val {
		v.val[i] = (s + v.offset) * v.scale
	}
}

// Vars gives a component access to its own inputs or outputs by local name.
type Vars struct {
	vars  map[string]*varInst
	names []string
}

func newVars(vs []*varInst) *Vars {
	out := &Vars{vars: make(map[string]*varInst, len(vs))}
	for _, v := range vs {
		out.vars[v.meta.name] = v
		out.names = append(out.names, v.meta.name)
	}
	return out
}

func (v *Vars) get(name string) *varInst {
	vi, ok := v.vars[name]
	if !ok {
		panic(fmt.Sprintf("om: unknown variable '%s'", name))
	}
	return vi
}

// Names returns the local variable names in declaration order.
func (v *Vars) Names() []string { return slices.Clone(v.names) }

// Has reports whether a variable with the given name exists.
func (v *Vars) Has(name string) bool {
	_, ok := v.vars[name]
	return ok
}

// Scalar returns the first element of the named variable.
func (v *Vars) Scalar(name string) float64 {
	return v.get(name).val[0]
}

// Array returns the named variable's values. The slice must not be retained.
func (v *Vars) Array(name string) []float64 {
	return v.get(name).val
}

// Len returns the resolved length of the named variable.
func (v *Vars) Len(name string) int {
	return v.get(name).size
}

// Sum returns the sum of all elements of the named variable.
func (v *Vars) Sum(name string) float64 {
	return floats.Sum(v.get(name).val)
}

// Units returns the declared units of the named variable.
func (v *Vars) Units(name string) string {
	return v.get(name).units()
}

// Set fills every element of the named variable with x.
func (v *Vars) Set(name string, x float64) {
	vals := v.get(name).val
	for i := range vals {
		vals[i] = x
	}
}

// SetArray copies xs into the named variable. It panics when the lengths
// differ.
func (v *Vars) SetArray(name string, xs []float64) {
	vi := v.get(name)
	if len(xs) != len(vi.val) {
		panic(fmt.Sprintf("om: variable '%s' has length %d, got %d values", vi.abs, len(vi.val), len(xs)))
	}
	copy(vi.val, xs)
}
