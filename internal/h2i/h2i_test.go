package h2i_test

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/h2i"
	"github.com/vk/h2integrate/internal/recorder"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/vk/h2integrate/internal/yaml_adapter"
	"github.com/vk/h2integrate/modules/electrolyzer"
	"github.com/vk/h2integrate/modules/transport"
	"github.com/vk/h2integrate/modules/wind"
)

const topYAML = `
name: wind_h2
system_summary: wind to hydrogen
driver_config: driver_config.yaml
technology_config: tech_config.yaml
plant_config: plant_config.yaml
`

const techYAML = `
name: technology_config
technologies:
  wind:
    performance_model:
      model: wind_plant_performance
    cost_model:
      model: wind_plant_cost
    model_inputs:
      shared_parameters:
        num_turbines: 2
        turbine_rating_kw: 1000
      performance_parameters:
        wind_speed: 12
        losses_percent: 0
      cost_parameters:
        cost_per_kw: 1000
        opex_per_kw_per_year: 30
  electrolyzer:
    performance_model:
      model: pem_electrolyzer_performance
    cost_model:
      model: basic_electrolyzer_cost
    model_inputs:
      shared_parameters:
        rating: 1
      cost_parameters:
        electrolyzer_capex: 700
`

const plantYAML = `
name: plant_config
site:
  latitude: 35.2
  longitude: -101.9
  elevation_m: 1099
  time_zone: -6
plant:
  plant_life: 30
  atb_year: 2022
  cost_year: 2022
finance_parameters:
  discount_rate: 0.08
technology_interconnections:
  - [wind, electrolyzer, electricity, cable]
`

const runOnceDriverYAML = `
name: driver_config
general:
  folder_output: output
`

const doeDriverYAML = `
name: driver_config
general:
  folder_output: output
driver:
  design_of_experiments:
    flag: true
    generator: fullfact
    levels: 2
recorder:
  flag: true
design_variables:
  electrolyzer:
    electrolyzer_size_mw:
      flag: true
      lower: 1
      upper: 2
      units: MW
objective:
  name: financials_group_1.LCOH
`

func newRegistry() *registry.Registry {
	r := registry.New()
	for _, m := range []registry.Module{&wind.Module{}, &transport.Module{}, &electrolyzer.Module{}} {
		m.Register(r)
	}
	return r
}

func annuityFactor(rate float64, years int) float64 {
	var af float64
	for t := 1; t <= years; t++ {
		af += 1 / math.Pow(1+rate, float64(t))
	}
	return af
}

func writeConfig(t *testing.T, overrides map[string]string) string {
	t.Helper()
	files := map[string]string{
		"wind_h2.yaml":       topYAML,
		"tech_config.yaml":   techYAML,
		"plant_config.yaml":  plantYAML,
		"driver_config.yaml": runOnceDriverYAML,
	}
	for name, content := range overrides {
		files[name] = content
	}
	return filepath.Join(testutil.WriteFiles(t, files), "wind_h2.yaml")
}

func loadModel(t *testing.T, path string) *h2i.Model {
	t.Helper()
	m, err := h2i.Load(testutil.Context(), yaml_adapter.NewLoader(), path, newRegistry(), h2i.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func scalar(t *testing.T, m *h2i.Model, name string, unit ...string) float64 {
	t.Helper()
	v, err := m.GetScalar(name, unit...)
	require.NoError(t, err, name)
	return v
}

func TestModel_WindToHydrogen(t *testing.T) {
	t.Parallel()

	ctx, logs := testutil.LogContext(t)
	m := loadModel(t, writeConfig(t, nil))
	require.NoError(t, m.Run(ctx))

	testutil.AssertComputed(t, logs, "plant.wind.wind_plant_performance")
	testutil.AssertComputed(t, logs, "plant.wind_to_electrolyzer_cable")
	testutil.AssertComputed(t, logs, "plant.financials_group_1.profast_comp_0")

	power, err := m.GetVal("wind.electricity_out")
	require.NoError(t, err)
	require.Len(t, power, 8760)
	assert.InDelta(t, 2000, power[0], 1e-9)

	h2 := 8760 * 1000 / 55.5
	assert.InDelta(t, h2, scalar(t, m, "electrolyzer.total_hydrogen_produced"), 1e-6)
	assert.InDelta(t, 2e6, scalar(t, m, "wind.CapEx"), 1e-6)
	assert.InDelta(t, 6e4, scalar(t, m, "wind.OpEx"), 1e-6)
	assert.InDelta(t, 7e5, scalar(t, m, "electrolyzer.CapEx"), 1e-6)
	assert.InDelta(t, 23300, scalar(t, m, "electrolyzer.OpEx"), 1e-6)

	annual := 2.7e6/annuityFactor(0.08, 30) + 83300
	lcoh := scalar(t, m, "financials_group_1.LCOH")
	assert.InDelta(t, annual/h2, lcoh, 1e-6*lcoh)
	lcoe := scalar(t, m, "financials_group_1.LCOE")
	assert.InDelta(t, annual/(2000*8760), lcoe, 1e-6*lcoe)

	prices, err := m.Prices()
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.InDelta(t, lcoh, prices["financials_group_1.LCOH"], 0)
}

func TestModel_CableLinkCarriesHourlySeries(t *testing.T) {
	t.Parallel()

	m := loadModel(t, writeConfig(t, nil))
	require.NoError(t, m.Run(testutil.Context()))

	cable, err := m.GetVal("plant.wind_to_electrolyzer_cable.electricity_out")
	require.NoError(t, err)
	require.Len(t, cable, 8760)
	assert.InDelta(t, 2000, cable[8759], 1e-9)

	in, err := m.GetVal("plant.electrolyzer.pem_electrolyzer_performance.electricity_in")
	require.NoError(t, err)
	assert.Equal(t, cable, in)
}

func TestModel_ElectrolyzerMatchedBySubstring(t *testing.T) {
	t.Parallel()

	tech := strings.Replace(techYAML, "\n  electrolyzer:\n", "\n  pem_electrolyzer:\n", 1)
	plant := strings.Replace(plantYAML, "[wind, electrolyzer, electricity, cable]", "[wind, pem_electrolyzer, electricity, cable]", 1)
	m := loadModel(t, writeConfig(t, map[string]string{"tech_config.yaml": tech, "plant_config.yaml": plant}))
	require.NoError(t, m.Run(testutil.Context()))

	h2 := 8760 * 1000 / 55.5
	assert.InDelta(t, h2, scalar(t, m, "pem_electrolyzer.total_hydrogen_produced"), 1e-6)
	annual := 2.7e6/annuityFactor(0.08, 30) + 83300
	lcoh := scalar(t, m, "financials_group_1.LCOH")
	assert.InDelta(t, annual/h2, lcoh, 1e-6*lcoh)
}

func TestModel_SiteInputs(t *testing.T) {
	t.Parallel()

	m := loadModel(t, writeConfig(t, nil))
	require.NoError(t, m.Run(testutil.Context()))

	assert.InDelta(t, 35.2, scalar(t, m, "latitude"), 0)
	assert.InDelta(t, -101.9, scalar(t, m, "longitude"), 0)
	assert.InDelta(t, 1099, scalar(t, m, "elevation_m"), 0)
}

func TestModel_PostProcess(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, nil)
	m := loadModel(t, path)

	var out bytes.Buffer
	_, err := m.PostProcess(testutil.Context(), &out)
	require.Error(t, err)

	require.NoError(t, m.Run(testutil.Context()))
	csvPath, err := m.PostProcess(testutil.Context(), &out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "output", "wind_h2_timeseries.csv"), csvPath)

	report := out.String()
	assert.Contains(t, report, "financials_group_1.LCOH:")
	assert.Contains(t, report, "USD/kg")
	assert.Contains(t, report, "Operating years: 2022-2051")
	assert.Contains(t, report, "wind.electricity_out")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	header := strings.Split(sc.Text(), ",")
	assert.Contains(t, header, "wind.electricity_out (kW)")
	assert.Contains(t, header, "electrolyzer.hydrogen_out (kg/h)")
	rows := 0
	for sc.Scan() {
		rows++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 8760, rows)
}

func TestModel_OutputDirOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := h2i.Load(testutil.Context(), yaml_adapter.NewLoader(), writeConfig(t, nil), newRegistry(),
		h2i.Options{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, m.OutputDir())
}

func TestModel_DesignOfExperiments(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, map[string]string{"driver_config.yaml": doeDriverYAML})
	m := loadModel(t, path)
	require.NoError(t, m.Run(testutil.Context()))
	assert.Equal(t, 2, m.Problem().Iterations())

	// The last case runs a 2 MW stack on the full 2 MW of wind.
	h2 := 8760 * 2000 / 55.5
	assert.InDelta(t, h2, scalar(t, m, "electrolyzer.total_hydrogen_produced"), 1e-6)
	assert.InDelta(t, 1.4e6, scalar(t, m, "electrolyzer.CapEx"), 1e-6)
	require.NoError(t, m.Close())

	db := filepath.Join(filepath.Dir(path), "output", "cases.sql")
	runs, err := recorder.ReadRuns(testutil.Context(), db)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "wind_h2", runs[0].Name)
	cases, err := recorder.ReadCases(testutil.Context(), db, runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, cases, 2)
}

func TestModel_CustomLuaModel(t *testing.T) {
	t.Parallel()

	tech := strings.Replace(techYAML, "model: basic_electrolyzer_cost", `model: flat_cost
      model_class_name: flat_cost
      model_location: models/flat_cost.lua`, 1)
	tech = strings.Replace(tech, "electrolyzer_capex: 700", "unit_capex: 500", 1)
	path := writeConfig(t, map[string]string{
		"tech_config.yaml": tech,
		"models/flat_cost.lua": `
flat_cost = {
  setup = function(config)
    return {
      inputs = { { name = "electrolyzer_size_mw", val = config.rating, units = "MW" } },
      outputs = {
        { name = "CapEx", units = "USD" },
        { name = "OpEx", units = "USD/year" },
      },
    }
  end,
  compute = function(inputs, config)
    local capex = inputs.electrolyzer_size_mw * 1000 * config.unit_capex
    return { CapEx = capex, OpEx = 0.02 * capex }
  end,
}
`,
	})

	reg := newRegistry()
	m, err := h2i.Load(testutil.Context(), yaml_adapter.NewLoader(), path, reg, h2i.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	assert.True(t, m.Registry().Has("flat_cost"))
	assert.False(t, reg.Has("flat_cost"), "custom models must not leak into the caller's registry")

	require.NoError(t, m.Run(testutil.Context()))
	assert.InDelta(t, 5e5, scalar(t, m, "electrolyzer.CapEx"), 1e-6)
	assert.InDelta(t, 1e4, scalar(t, m, "electrolyzer.OpEx"), 1e-6)
}

func TestModel_Combiner(t *testing.T) {
	t.Parallel()

	tech := techYAML + `
  wind_b:
    performance_model:
      model: wind_plant_performance
    model_inputs:
      performance_parameters:
        num_turbines: 1
        turbine_rating_kw: 500
        wind_speed: 12
        losses_percent: 0
  combiner:
    performance_model:
      model: combiner_performance
`
	plant := strings.Replace(plantYAML, "  - [wind, electrolyzer, electricity, cable]", `  - [wind, combiner, electricity, cable]
  - [wind_b, combiner, electricity, cable]
  - [combiner, electrolyzer, electricity, cable]`, 1)
	m := loadModel(t, writeConfig(t, map[string]string{"tech_config.yaml": tech, "plant_config.yaml": plant}))
	require.NoError(t, m.Run(testutil.Context()))

	in1, err := m.GetVal("combiner.electricity_in1")
	require.NoError(t, err)
	in2, err := m.GetVal("combiner.electricity_in2")
	require.NoError(t, err)
	out, err := m.GetVal("combiner.electricity_out")
	require.NoError(t, err)
	assert.InDelta(t, 2000, in1[0], 1e-9)
	assert.InDelta(t, 500, in2[0], 1e-9)
	assert.InDelta(t, 2500, out[0], 1e-9)

	// Only wind counts towards the priced electricity; wind_b has no cost
	// model.
	assert.InDelta(t, 2000*8760, scalar(t, m, "financials_group_1.total_electricity_produced"), 1e-6)
}

func TestModel_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		overrides map[string]string
		wantErr   string
	}{
		{
			name: "custom location on built-in model",
			overrides: map[string]string{
				"tech_config.yaml": strings.Replace(techYAML, "model: basic_electrolyzer_cost", `model: basic_electrolyzer_cost
      model_class_name: BasicCost
      model_location: models/cost.lua`, 1),
			},
			wantErr: "'basic_electrolyzer_cost' is a built-in H2Integrate model",
		},
		{
			name: "custom model without location",
			overrides: map[string]string{
				"tech_config.yaml": strings.Replace(techYAML, "model: basic_electrolyzer_cost", "model: my_cost", 1),
			},
			wantErr: "Custom cost_model for electrolyzer must specify 'model_class_name' and 'model_location'.",
		},
		{
			name: "missing performance model",
			overrides: map[string]string{
				"tech_config.yaml": techYAML + `
  battery:
    cost_model:
      model: wind_plant_cost
`,
			},
			wantErr: "technology 'battery': Model definition requires 'performance_model'.",
		},
		{
			name: "invalid connection",
			overrides: map[string]string{
				"plant_config.yaml": plantYAML + "  - [wind, electrolyzer]\n",
			},
			wantErr: "Invalid connection: ['wind', 'electrolyzer']",
		},
		{
			name: "unknown transport",
			overrides: map[string]string{
				"plant_config.yaml": strings.Replace(plantYAML, "electricity, cable]", "electricity, wire]", 1),
			},
			wantErr: "transport 'wire' is not a known model",
		},
		{
			name: "inverted design variable bounds",
			overrides: map[string]string{
				"driver_config.yaml": strings.Replace(doeDriverYAML, "upper: 2", "upper: 0.5", 1),
			},
			wantErr: "design variable 'electrolyzer.electrolyzer_size_mw': upper bound 0.5 is below lower bound 1",
		},
		{
			name: "no enabled design variables",
			overrides: map[string]string{
				"driver_config.yaml": strings.Replace(doeDriverYAML, "flag: true\n      lower", "flag: false\n      lower", 1),
			},
			wantErr: "driver: no design variables are enabled",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := h2i.Load(testutil.Context(), yaml_adapter.NewLoader(), writeConfig(t, tc.overrides), newRegistry(), h2i.Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestModel_GetValBeforeRun(t *testing.T) {
	t.Parallel()

	m := loadModel(t, writeConfig(t, nil))
	_, err := m.GetScalar("financials_group_1.LCOH")
	require.Error(t, err)
}
