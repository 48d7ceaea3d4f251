package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Params is shorthand for the attributes of one parameter block.
type Params map[string]cty.Value

// Tech builds a technology whose model_inputs hold the given blocks, keyed
// like the configuration file: "shared_parameters",
// "performance_parameters" and so on.
func Tech(name string, blocks map[string]Params) *config.Technology {
	attrs := make(map[string]cty.Value, len(blocks))
	for k, p := range blocks {
		if len(p) == 0 {
			attrs[k] = cty.EmptyObjectVal
			continue
		}
		attrs[k] = cty.ObjectVal(p)
	}
	inputs := cty.EmptyObjectVal
	if len(attrs) > 0 {
		inputs = cty.ObjectVal(attrs)
	}
	return &config.Technology{Name: name, Inputs: inputs}
}

// Plant returns a plant with the given life and a site at the NREL Flatirons
// campus.
func Plant(life int) *config.Plant {
	return &config.Plant{
		Life:     life,
		ATBYear:  2022,
		CostYear: 2022,
		Site: &config.Site{
			Latitude:  39.91,
			Longitude: -105.22,
			Elevation: 1835,
			TimeZone:  -7,
		},
	}
}

// Args returns factory arguments for the named model of kind on tech, with
// a thirty year plant.
func Args(name, kind string, tech *config.Technology) registry.Args {
	return registry.Args{Name: name, Kind: kind, Plant: Plant(30), Tech: tech}
}

// Build calls factory and fails the test on error.
func Build(t *testing.T, factory registry.Factory, args registry.Args) om.Component {
	t.Helper()
	c, err := factory(args)
	require.NoError(t, err)
	return c
}

// RunComponent sets up comp alone with every variable promoted, applies
// the given input values and runs the model once.
func RunComponent(t *testing.T, comp om.Component, inputs map[string][]float64) *om.Problem {
	t.Helper()

	model := om.NewGroup()
	model.AddComponent("comp", comp, "*")
	p := om.NewProblem(model)
	require.NoError(t, p.Setup(Context()))
	for name, v := range inputs {
		require.NoError(t, p.SetVal(name, v), "set %s", name)
	}
	require.NoError(t, p.RunModel(Context()))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// Get returns a variable of a run problem.
func Get(t *testing.T, p *om.Problem, name string, unit ...string) []float64 {
	t.Helper()
	v, err := p.GetVal(name, unit...)
	require.NoError(t, err)
	return v
}

// Scalar returns a scalar variable of a run problem.
func Scalar(t *testing.T, p *om.Problem, name string, unit ...string) float64 {
	t.Helper()
	v, err := p.GetScalar(name, unit...)
	require.NoError(t, err)
	return v
}

// Series returns an hourly timeseries filled with x.
func Series(x float64) []float64 {
	s := make([]float64, config.HoursPerYear)
	for i := range s {
		s[i] = x
	}
	return s
}
