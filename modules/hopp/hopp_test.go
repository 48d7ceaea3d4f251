package hopp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/cache"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// windPlant is two 1 MW turbines at rated speed behind a 1.5 MW
// interconnect.
func windPlant(extra map[string]cty.Value) cty.Value {
	attrs := map[string]cty.Value{
		"technologies": cty.ObjectVal(map[string]cty.Value{
			"wind": cty.ObjectVal(map[string]cty.Value{
				"num_turbines":      cty.NumberIntVal(2),
				"turbine_rating_kw": cty.NumberIntVal(1000),
				"losses_percent":    cty.NumberIntVal(0),
				"wind_speed":        cty.NumberIntVal(12),
			}),
			"grid": cty.ObjectVal(map[string]cty.Value{
				"interconnect_kw": cty.NumberIntVal(1500),
			}),
		}),
		"cost_info": cty.ObjectVal(map[string]cty.Value{
			"wind_installed_cost_mw": cty.NumberIntVal(1_300_000),
			"wind_om_per_kw":         cty.NumberIntVal(40),
		}),
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return cty.ObjectVal(attrs)
}

func hoppArgs(t *testing.T, cfg cty.Value) registry.Args {
	t.Helper()
	tech := &config.Technology{
		Name:        "hopp",
		Performance: &config.ModelRef{Model: "hopp", Config: cfg},
		Inputs:      cty.EmptyObjectVal,
	}
	args := testutil.Args("hopp", "performance", tech)
	args.CacheDir = t.TempDir()
	return args
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	delivered, curtailed := dispatch([]float64{10, 0, 5}, nil, 5, nil, sizing{})
	assert.Equal(t, []float64{5, 0, 5}, delivered)
	assert.Equal(t, 5.0, curtailed)

	battery := &batteryConfig{RoundTripEfficiency: 1}
	delivered, curtailed = dispatch([]float64{10, 0, 5}, nil, 5, battery,
		sizing{BatteryCapacityKW: 10, BatteryCapacityKWh: 10})
	assert.Equal(t, []float64{5, 5, 5}, delivered)
	assert.Zero(t, curtailed)

	delivered, curtailed = dispatch([]float64{10, 0}, []float64{2, 2}, 5, nil, sizing{})
	assert.Equal(t, []float64{5, 0}, delivered)
	assert.Equal(t, 5.0, curtailed)
}

func TestDecodePlant_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  cty.Value
		want string
	}{
		{"no config", cty.NullVal(cty.DynamicPseudoType), "requires a performance_model config"},
		{"no technologies", cty.EmptyObjectVal, "has no technologies"},
		{
			"no grid",
			cty.ObjectVal(map[string]cty.Value{"technologies": cty.EmptyObjectVal}),
			"has no grid technology",
		},
		{
			"zero interconnect",
			cty.ObjectVal(map[string]cty.Value{"technologies": cty.ObjectVal(map[string]cty.Value{
				"grid": cty.ObjectVal(map[string]cty.Value{"interconnect_kw": cty.NumberIntVal(0)}),
			})}),
			"interconnect_kw must be positive",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodePlant(tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestComponent_Wind(t *testing.T) {
	t.Parallel()

	comp := testutil.Build(t, newComponent, hoppArgs(t, windPlant(nil)))
	p := testutil.RunComponent(t, comp, nil)

	assert.InDelta(t, 1500.0, testutil.Get(t, p, "electricity_out")[100], 1e-9)
	assert.InDelta(t, 1500.0*config.HoursPerYear, testutil.Scalar(t, p, "aep"), 1e-6)
	assert.InDelta(t, 25.0, testutil.Scalar(t, p, "curtailment_percent"), 1e-9)
	assert.InDelta(t, 0.0, testutil.Scalar(t, p, "percent_load_missed"), 1e-9)
	assert.InDelta(t, 1.0, testutil.Scalar(t, p, "annual_energy_to_interconnect_potential_ratio"), 1e-9)
	assert.InDelta(t, 2000.0/1500, testutil.Scalar(t, p, "power_capacity_to_interconnect_ratio"), 1e-9)
	assert.InDelta(t, 2.6e6, testutil.Scalar(t, p, "CapEx"), 1e-6)
	assert.InDelta(t, 80_000.0, testutil.Scalar(t, p, "OpEx"), 1e-6)
	assert.Zero(t, testutil.Scalar(t, p, "battery_duration"))
}

func TestComponent_Schedule(t *testing.T) {
	t.Parallel()

	cfg := windPlant(map[string]cty.Value{
		"site": cty.ObjectVal(map[string]cty.Value{"desired_schedule": cty.NumberFloatVal(1.2)}),
	})
	comp := testutil.Build(t, newComponent, hoppArgs(t, cfg))
	p := testutil.RunComponent(t, comp, map[string][]float64{"wind_turbine_rating_kw": {500}})

	// 1 MW generated against a 1.2 MW schedule.
	assert.InDelta(t, 1000.0, testutil.Get(t, p, "electricity_out")[0], 1e-9)
	assert.InDelta(t, 100*200.0/1200, testutil.Scalar(t, p, "percent_load_missed"), 1e-9)
	assert.InDelta(t, 0.0, testutil.Scalar(t, p, "curtailment_percent"), 1e-9)
	assert.InDelta(t, 1000.0/1500, testutil.Scalar(t, p, "annual_energy_to_interconnect_potential_ratio"), 1e-9)
	assert.InDelta(t, 650_000.0*2, testutil.Scalar(t, p, "CapEx"), 1e-6)
}

func TestComponent_Battery(t *testing.T) {
	t.Parallel()

	cfg := cty.ObjectVal(map[string]cty.Value{
		"technologies": cty.ObjectVal(map[string]cty.Value{
			"battery": cty.ObjectVal(map[string]cty.Value{
				"system_capacity_kw":  cty.NumberIntVal(1000),
				"system_capacity_kwh": cty.NumberIntVal(4000),
			}),
			"grid": cty.ObjectVal(map[string]cty.Value{"interconnect_kw": cty.NumberIntVal(500)}),
		}),
	})
	comp := testutil.Build(t, newComponent, hoppArgs(t, cfg))
	p := testutil.RunComponent(t, comp, nil)

	assert.InDelta(t, 4.0, testutil.Scalar(t, p, "battery_duration"), 1e-9)
	// Without generation the battery only serves its initial charge.
	out := testutil.Get(t, p, "electricity_out")
	assert.InDelta(t, 500.0, out[0], 1e-9)
	assert.Zero(t, out[config.HoursPerYear-1])
}

func TestComponent_Cache(t *testing.T) {
	t.Parallel()

	args := hoppArgs(t, windPlant(nil))
	comp := testutil.Build(t, newComponent, args)
	testutil.RunComponent(t, comp, nil)

	entries, err := os.ReadDir(args.CacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	key := strings.TrimSuffix(entries[0].Name(), filepath.Ext(entries[0].Name()))

	// A second run must read the stored entry instead of simulating.
	require.NoError(t, cache.New(args.CacheDir).Store(key, results{
		AEP:        42,
		Production: testutil.Series(1),
	}))
	p := testutil.RunComponent(t, testutil.Build(t, newComponent, args), nil)
	assert.Equal(t, 42.0, testutil.Scalar(t, p, "aep"))

	// A new sizing is a new entry.
	testutil.RunComponent(t, testutil.Build(t, newComponent, args),
		map[string][]float64{"wind_turbine_rating_kw": {1500}})
	entries, err = os.ReadDir(args.CacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestComponent_CacheDisabled(t *testing.T) {
	t.Parallel()

	cfg := windPlant(map[string]cty.Value{
		"simulation_options": cty.ObjectVal(map[string]cty.Value{"cache": cty.False}),
	})
	args := hoppArgs(t, cfg)
	testutil.RunComponent(t, testutil.Build(t, newComponent, args), nil)

	entries, err := os.ReadDir(args.CacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
