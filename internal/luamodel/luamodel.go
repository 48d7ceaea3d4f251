// Package luamodel runs custom technology models written in Lua.
//
// A script defines a global table named after the model class. The table
// declares its variables and a compute function:
//
//	my_cost = {
//	  inputs = { { name = "electrolyzer_size_mw", val = 10, units = "MW" } },
//	  outputs = { { name = "CapEx", units = "USD" } },
//	  compute = function(inputs, config)
//	    return { CapEx = inputs.electrolyzer_size_mw * config.unit_capex }
//	  end,
//	}
//
// Instead of static inputs and outputs the table may provide a setup
// function taking the config and returning a table with both lists.
// Variable entries accept name, val, shape, units, desc, shape_by_conn and
// copy_shape. Scalar variables are passed as numbers, arrays as sequences.
// The config is the merged model parameters of the technology.
package luamodel

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Load checks that the script at path defines className and returns a
// factory for it. It satisfies registry.CustomLoader.
func Load(ctx context.Context, path, className string) (registry.Factory, error) {
	if _, err := open(path, className); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Loaded Lua model.", "path", path, "class", className)

	return func(args registry.Args) (om.Component, error) {
		params, err := args.Params(args.Kind)
		if err != nil {
			return nil, err
		}
		state, err := open(path, className)
		if err != nil {
			return nil, err
		}
		return &Component{path: path, className: className, params: params, state: state}, nil
	}, nil
}

// open runs the script in a fresh state and checks the class table.
func open(path, className string) (*lua.State, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	state.Global(className)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeTable {
		return nil, fmt.Errorf("script %s does not define table '%s'", path, className)
	}
	state.Field(-1, "compute")
	isFunc := state.IsFunction(-1)
	state.Pop(1)
	if !isFunc {
		return nil, fmt.Errorf("'%s' has no compute function", className)
	}
	return state, nil
}

type decl struct {
	name        string
	units       string
	desc        string
	copyShape   string
	val         []float64
	shape       int
	shapeByConn bool
}

func (d decl) array() bool {
	return d.shape > 0 || len(d.val) > 1 || d.shapeByConn || d.copyShape != ""
}

func (d decl) options() []om.VarOption {
	var opts []om.VarOption
	switch {
	case len(d.val) > 1:
		opts = append(opts, om.ArrayVal(d.val))
	case len(d.val) == 1:
		opts = append(opts, om.Val(d.val[0]))
	}
	if d.shape > 0 {
		opts = append(opts, om.Shape(d.shape))
	}
	if d.shapeByConn {
		opts = append(opts, om.ShapeByConn())
	}
	if d.copyShape != "" {
		opts = append(opts, om.CopyShape(d.copyShape))
	}
	return append(opts, om.Units(d.units), om.Desc(d.desc))
}

// Component is one instance of a Lua model. Each instance owns its state.
type Component struct {
	path      string
	className string
	params    cty.Value

	mu      sync.Mutex
	state   *lua.State
	inputs  []decl
	outputs []decl
}

// Setup implements om.Component.
func (c *Component) Setup(s *om.Spec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(c.className)
	class := l.AbsIndex(-1)
	l.Field(class, "setup")
	if l.IsFunction(-1) {
		pushValue(l, c.params)
		if err := l.ProtectedCall(1, 1, 0); err != nil {
			return fmt.Errorf("%s.setup: %w", c.className, err)
		}
		if l.TypeOf(-1) != lua.TypeTable {
			return fmt.Errorf("%s.setup must return a table", c.className)
		}
		class = l.AbsIndex(-1)
	} else {
		l.Pop(1)
	}

	var err error
	if c.inputs, err = readDecls(l, class, "inputs"); err != nil {
		return fmt.Errorf("%s: %w", c.className, err)
	}
	if c.outputs, err = readDecls(l, class, "outputs"); err != nil {
		return fmt.Errorf("%s: %w", c.className, err)
	}
	for _, d := range c.inputs {
		s.AddInput(d.name, d.options()...)
	}
	for _, d := range c.outputs {
		s.AddOutput(d.name, d.options()...)
	}
	return nil
}

// Compute implements om.Component.
func (c *Component) Compute(_ context.Context, in, out *om.Vars) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(c.className)
	l.Field(-1, "compute")

	l.NewTable()
	for _, d := range c.inputs {
		if d.array() {
			pushArray(l, in.Array(d.name))
		} else {
			l.PushNumber(in.Scalar(d.name))
		}
		l.SetField(-2, d.name)
	}
	pushValue(l, c.params)

	if err := l.ProtectedCall(2, 1, 0); err != nil {
		return fmt.Errorf("%s.compute: %w", c.className, err)
	}
	if l.TypeOf(-1) != lua.TypeTable {
		return fmt.Errorf("%s.compute must return a table", c.className)
	}
	result := l.AbsIndex(-1)

	for _, d := range c.outputs {
		l.Field(result, d.name)
		switch l.TypeOf(-1) {
		case lua.TypeNumber:
			v, _ := l.ToNumber(-1)
			out.Set(d.name, v)
		case lua.TypeTable:
			vals, err := readNumbers(l, -1)
			if err != nil {
				return fmt.Errorf("%s output '%s': %w", c.className, d.name, err)
			}
			if len(vals) != out.Len(d.name) {
				return fmt.Errorf("%s output '%s': expected %d values, got %d",
					c.className, d.name, out.Len(d.name), len(vals))
			}
			out.SetArray(d.name, vals)
		default:
			return fmt.Errorf("%s did not return output '%s'", c.className, d.name)
		}
		l.Pop(1)
	}
	return nil
}

func readDecls(l *lua.State, table int, field string) ([]decl, error) {
	l.Field(table, field)
	defer l.Pop(1)
	if l.IsNoneOrNil(-1) {
		return nil, nil
	}
	if l.TypeOf(-1) != lua.TypeTable {
		return nil, fmt.Errorf("'%s' must be a table", field)
	}
	list := l.AbsIndex(-1)

	var out []decl
	for i := 1; ; i++ {
		l.RawGetInt(list, i)
		if l.IsNoneOrNil(-1) {
			l.Pop(1)
			return out, nil
		}
		d, err := readDecl(l, l.AbsIndex(-1))
		l.Pop(1)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, d)
	}
}

func readDecl(l *lua.State, entry int) (decl, error) {
	var d decl
	if l.TypeOf(entry) != lua.TypeTable {
		return d, fmt.Errorf("entry must be a table")
	}
	str := func(name string) string {
		l.Field(entry, name)
		defer l.Pop(1)
		s, _ := l.ToString(-1)
		return s
	}
	d.name = str("name")
	if d.name == "" {
		return d, fmt.Errorf("entry has no name")
	}
	d.units = str("units")
	d.desc = str("desc")
	d.copyShape = str("copy_shape")

	l.Field(entry, "shape")
	if n, ok := l.ToInteger(-1); ok {
		d.shape = n
	}
	l.Pop(1)

	l.Field(entry, "shape_by_conn")
	d.shapeByConn = l.ToBoolean(-1)
	l.Pop(1)

	l.Field(entry, "val")
	defer l.Pop(1)
	switch l.TypeOf(-1) {
	case lua.TypeNumber:
		v, _ := l.ToNumber(-1)
		d.val = []float64{v}
	case lua.TypeTable:
		vals, err := readNumbers(l, -1)
		if err != nil {
			return d, fmt.Errorf("'%s' val: %w", d.name, err)
		}
		d.val = vals
	}
	return d, nil
}

func readNumbers(l *lua.State, index int) ([]float64, error) {
	index = l.AbsIndex(index)
	n := l.RawLength(index)
	out := make([]float64, n)
	for i := 1; i <= n; i++ {
		l.RawGetInt(index, i)
		v, ok := l.ToNumber(-1)
		l.Pop(1)
		if !ok {
			return nil, fmt.Errorf("element %d is not a number", i)
		}
		out[i-1] = v
	}
	return out, nil
}

func pushArray(l *lua.State, vals []float64) {
	l.CreateTable(len(vals), 0)
	for i, v := range vals {
		l.PushNumber(v)
		l.RawSetInt(-2, i+1)
	}
}

// pushValue converts a configuration value into Lua.
func pushValue(l *lua.State, v cty.Value) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		l.PushNil()
		return
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		l.PushString(v.AsString())
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		l.PushNumber(f)
	case ty == cty.Bool:
		l.PushBoolean(v.True())
	case ty.IsObjectType() || ty.IsMapType():
		l.NewTable()
		for k, ev := range v.AsValueMap() {
			pushValue(l, ev)
			l.SetField(-2, k)
		}
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		l.NewTable()
		i := 1
		for it := v.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			pushValue(l, ev)
			l.RawSetInt(-2, i)
		}
	default:
		l.PushNil()
	}
}
