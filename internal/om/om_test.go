package om

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/ctxlog"
)

func testCtx() context.Context {
	return ctxlog.Discard(context.Background())
}

// scaler multiplies an array of any length by a constant.
type scaler struct {
	factor float64
	inUnit string
	out    string
}

func (s *scaler) Setup(spec *Spec) error {
	spec.AddInput("x", ShapeByConn(), Units(s.inUnit))
	spec.AddOutput("y", CopyShape("x"), Units(s.out))
	return nil
}

func (s *scaler) Compute(_ context.Context, in, out *Vars) error {
	y := make([]float64, in.Len("x"))
	for i, x := range in.Array("x") {
		y[i] = s.factor * x
	}
	out.SetArray("y", y)
	return nil
}

type memRecorder struct {
	cases  []Case
	closed bool
}

func (r *memRecorder) RecordIteration(_ context.Context, c Case) error {
	r.cases = append(r.cases, c)
	return nil
}

func (r *memRecorder) Close() error {
	r.closed = true
	return nil
}

func paraboloid() *ExecComp {
	return &ExecComp{
		Inputs:  []string{"x", "y"},
		Outputs: []string{"f"},
		Fn: func(in map[string]float64) map[string]float64 {
			x, y := in["x"], in["y"]
			return map[string]float64{"f": (x-3)*(x-3) + x*y + (y+4)*(y+4) - 3}
		},
	}
}

func TestProblem_AutoIVCAndPromotion(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("parab", paraboloid(), "*")
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))

	require.NoError(t, p.SetScalar("x", 3))
	require.NoError(t, p.SetScalar("y", -4))
	require.NoError(t, p.RunModel(testCtx()))

	f, err := p.GetScalar("f")
	require.NoError(t, err)
	assert.InDelta(t, -15.0, f, 1e-12)

	abs, err := p.GetScalar("parab.f")
	require.NoError(t, err)
	assert.Equal(t, f, abs)

	x, err := p.GetScalar("parab.x")
	require.NoError(t, err)
	assert.Equal(t, 3.0, x)
}

func TestProblem_ExplicitConnectionConvertsUnits(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("source", NewIndepVarComp().Add("power", ArrayVal([]float64{1000, 2500, 0}), Units("kW")))
	model.AddComponent("double", &scaler{factor: 2, inUnit: "MW", out: "MW"})
	model.Connect("source.power", "double.x")

	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.RunModel(testCtx()))

	y, err := p.GetVal("double.y")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 5, 0}, y, 1e-12)

	yKW, err := p.GetVal("double.y", "kW")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2000, 5000, 0}, yKW, 1e-9)

	x, err := p.GetVal("double.x")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2.5, 0}, x, 1e-12)
}

func TestProblem_SetValThroughInputConvertsToSourceUnits(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("source", NewIndepVarComp().Add("power", Val(0), Units("kW")))
	model.AddComponent("double", &scaler{factor: 2, inUnit: "MW", out: "MW"})
	model.Connect("source.power", "double.x")

	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.SetScalar("double.x", 3))

	src, err := p.GetScalar("source.power")
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, src, 1e-9)

	require.NoError(t, p.SetScalar("source.power", 4, "MW"))
	src, err = p.GetScalar("source.power")
	require.NoError(t, err)
	assert.InDelta(t, 4000.0, src, 1e-9)
}

func TestProblem_ShapeByConnChain(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("source", NewIndepVarComp().Add("out", ArrayVal(make([]float64, 8760))))
	model.AddComponent("a", &scaler{factor: 1})
	model.AddComponent("b", &scaler{factor: 1})
	model.Connect("source.out", "a.x")
	model.Connect("a.y", "b.x")

	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	y, err := p.GetVal("b.y")
	require.NoError(t, err)
	assert.Len(t, y, 8760)
}

// link declares scalar defaults on variables whose length follows the
// connection, the way cables and pipes do.
type link struct{}

func (link) Setup(spec *Spec) error {
	spec.AddInput("in", Val(0), ShapeByConn(), CopyShape("out"))
	spec.AddOutput("out", Val(0), ShapeByConn(), CopyShape("in"))
	return nil
}

func (link) Compute(_ context.Context, in, out *Vars) error {
	out.SetArray("out", in.Array("in"))
	return nil
}

func TestProblem_ScalarDefaultDoesNotFixConnectedShape(t *testing.T) {
	t.Parallel()

	feed := make([]float64, 8760)
	feed[8759] = 42
	model := NewGroup()
	model.AddComponent("source", NewIndepVarComp().Add("out", ArrayVal(feed)))
	model.AddComponent("cable", link{})
	model.AddComponent("sink", &scaler{factor: 2})
	model.Connect("source.out", "cable.in")
	model.Connect("cable.out", "sink.x")

	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.RunModel(testCtx()))

	out, err := p.GetVal("cable.out")
	require.NoError(t, err)
	require.Len(t, out, 8760)
	assert.Equal(t, 42.0, out[8759])
	y, err := p.GetVal("sink.y")
	require.NoError(t, err)
	assert.Equal(t, 84.0, y[8759])
}

func TestProblem_UnconnectedShapeByConnFallsBackToDefault(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("cable", link{})
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	out, err := p.GetVal("cable.out")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, out)
}

// outOfOrder declares a consumer before the producer it reads from.
func outOfOrder() *Group {
	model := NewGroup()
	model.AddComponent("consumer", &ExecComp{
		Inputs: []string{"a"}, Outputs: []string{"b"},
		Fn: func(in map[string]float64) map[string]float64 { return map[string]float64{"b": 2 * in["a"]} },
	}, "*")
	model.AddComponent("producer", &ExecComp{
		Inputs: []string{"p"}, Outputs: []string{"a"},
		Fn: func(in map[string]float64) map[string]float64 { return map[string]float64{"a": in["p"] + 1} },
	}, "*")
	return model
}

func TestProblem_ReordersByDependency(t *testing.T) {
	t.Parallel()

	model := outOfOrder()
	assert.True(t, model.AutoOrder())
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.SetScalar("p", 1))
	require.NoError(t, p.RunModel(testCtx()))

	b, err := p.GetScalar("b")
	require.NoError(t, err)
	assert.Equal(t, 4.0, b)
}

func TestProblem_InsertionOrder(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	model := outOfOrder()
	model.SetAutoOrder(false)
	p := NewProblem(model)
	require.NoError(t, p.Setup(ctx))
	assert.Contains(t, logs.String(), "consumer=consumer producer=producer")
	require.NoError(t, p.SetScalar("p", 1))

	// The consumer runs first and sees the producer's previous output.
	require.NoError(t, p.RunModel(ctx))
	b, err := p.GetScalar("b")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b)

	require.NoError(t, p.RunModel(ctx))
	b, err = p.GetScalar("b")
	require.NoError(t, err)
	assert.Equal(t, 4.0, b)
}

func TestProblem_InsertionOrderWithSolver(t *testing.T) {
	t.Parallel()

	model := outOfOrder()
	model.SetAutoOrder(false)
	model.SetNonlinearSolver(NewNonlinearBlockGS())
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.SetScalar("p", 1))
	require.NoError(t, p.RunModel(testCtx()))

	b, err := p.GetScalar("b")
	require.NoError(t, err)
	assert.Equal(t, 4.0, b)
}

func coupledPair() *Group {
	g := NewGroup()
	g.AddComponent("c1", &ExecComp{
		Inputs: []string{"y"}, Outputs: []string{"x"},
		Fn: func(in map[string]float64) map[string]float64 { return map[string]float64{"x": 0.5*in["y"] + 1} },
	}, "*")
	g.AddComponent("c2", &ExecComp{
		Inputs: []string{"x"}, Outputs: []string{"y"},
		Fn: func(in map[string]float64) map[string]float64 { return map[string]float64{"y": 0.5*in["x"] + 1} },
	}, "*")
	return g
}

func TestProblem_CoupledBlockWithSolver(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("start", NewIndepVarComp().Add("seed", Val(1)))
	cycle := model.AddGroup("cycle")
	for _, s := range coupledPair().subs {
		cycle.AddComponent(s.name, s.comp, s.promotes...)
	}
	model.SetNonlinearSolver(&NonlinearBlockGS{MaxIter: 60, Atol: 1e-14, Rtol: 1e-14})

	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.RunModel(testCtx()))

	x, err := p.GetScalar("cycle.x")
	require.NoError(t, err)
	y, err := p.GetScalar("cycle.y")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x, 1e-9)
	assert.InDelta(t, 2.0, y, 1e-9)
}

func TestProblem_Recorders(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("parab", paraboloid(), "*")
	p := NewProblem(model)
	rec := &memRecorder{}
	p.AddRecorder(rec)
	require.NoError(t, p.Setup(testCtx()))
	require.NoError(t, p.RunModel(testCtx()))
	require.NoError(t, p.RunDriver(testCtx()))
	require.NoError(t, p.Close())

	require.Len(t, rec.cases, 2)
	assert.Equal(t, "run_model", rec.cases[0].Name)
	assert.Equal(t, "driver", rec.cases[1].Name)
	assert.Equal(t, 2, rec.cases[1].Iteration)
	assert.Contains(t, rec.cases[0].Outputs, "f")
	assert.Contains(t, rec.cases[0].Outputs, "x")
	assert.True(t, rec.closed)
	assert.Equal(t, 2, p.Iterations())
}

func TestProblem_ListOutputs(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("source", NewIndepVarComp().Add("power", ArrayVal([]float64{1, 2}), Units("kW")))
	model.AddComponent("parab", paraboloid(), "*")
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))

	var outs, ins bytes.Buffer
	require.NoError(t, p.ListOutputs(&outs))
	require.NoError(t, p.ListInputs(&ins))

	assert.Contains(t, outs.String(), "source.power")
	assert.Contains(t, outs.String(), "[2 values, sum 3]")
	assert.Contains(t, outs.String(), "kW")
	assert.NotContains(t, outs.String(), "parab.x")
	assert.Contains(t, ins.String(), "parab.x")
}

func TestProblem_SetupErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		model   func() *Group
		wantErr string
	}{
		{
			name: "duplicate subsystem",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("a", paraboloid())
				g.AddComponent("a", paraboloid())
				return g
			},
			wantErr: "subsystem name 'a' is already used",
		},
		{
			name: "promoted output collision",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("a", paraboloid(), "*")
				g.AddComponent("b", paraboloid(), "*")
				return g
			},
			wantErr: "output 'f' in group '<model>' is promoted from both 'a.f' and 'b.f'",
		},
		{
			name: "input connected twice",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("s1", NewIndepVarComp().Add("v", Val(1)))
				g.AddComponent("s2", NewIndepVarComp().Add("v", Val(2)))
				g.AddComponent("p", paraboloid())
				g.Connect("s1.v", "p.x")
				g.Connect("s2.v", "p.x")
				return g
			},
			wantErr: "input 'p.x' is already connected to 's1.v'",
		},
		{
			name: "incompatible units",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("s", NewIndepVarComp().Add("v", Val(1), Units("kW")))
				g.AddComponent("d", &scaler{factor: 1, inUnit: "kg/h", out: "kg/h"})
				g.Connect("s.v", "d.x")
				return g
			},
			wantErr: "cannot connect 's.v' [kW] to 'd.x' [kg/h]",
		},
		{
			name: "missing connection source",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("p", paraboloid())
				g.Connect("nope.out", "p.x")
				return g
			},
			wantErr: "attempted to connect from 'nope.out'",
		},
		{
			name: "missing connection target",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("p", paraboloid())
				g.Connect("p.f", "nope.in")
				return g
			},
			wantErr: "attempted to connect to 'nope.in'",
		},
		{
			name: "unknown promote",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("p", paraboloid(), "z")
				return g
			},
			wantErr: "could not find variable 'z' to promote",
		},
		{
			name: "unresolved shape",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("d", &scaler{factor: 1})
				return g
			},
			wantErr: "failed to resolve shapes of: d.x",
		},
		{
			name: "length mismatch",
			model: func() *Group {
				g := NewGroup()
				g.AddComponent("s", NewIndepVarComp().Add("v", ArrayVal([]float64{1, 2, 3})))
				g.AddComponent("p", paraboloid())
				g.Connect("s.v", "p.x")
				return g
			},
			wantErr: "cannot connect 's.v' (length 3) to 'p.x' (length 1)",
		},
		{
			name:    "cycle without solver",
			model:   coupledPair,
			wantErr: "cycle detected involving 'c1'",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := NewProblem(tc.model())
			err := p.Setup(testCtx())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestProblem_NotSetUp(t *testing.T) {
	t.Parallel()

	p := NewProblem(nil)
	_, err := p.GetVal("x")
	assert.EqualError(t, err, "problem has not been set up")
	assert.ErrorIs(t, p.RunModel(testCtx()), errNotSetup)
}

func TestProblem_UnknownVariable(t *testing.T) {
	t.Parallel()

	model := NewGroup()
	model.AddComponent("parab", paraboloid(), "*")
	p := NewProblem(model)
	require.NoError(t, p.Setup(testCtx()))

	_, err := p.GetVal("missing")
	assert.EqualError(t, err, "variable 'missing' not found")
	assert.ErrorContains(t, p.SetVal("x", []float64{1, 2}), "expected 1 values, got 2")
}
