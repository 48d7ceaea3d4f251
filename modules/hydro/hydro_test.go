package hydro

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

const cfsToCms = 0.028316846592

func riverCSV(hours int, flow func(i int) float64) string {
	var b strings.Builder
	b.WriteString("# USGS 12345678 hourly discharge\n")
	b.WriteString("datetime,discharge_cfs\n")
	for i := 0; i < hours; i++ {
		fmt.Fprintf(&b, "2020-01-01T%02d:00,%g\n", i%24, flow(i))
	}
	return b.String()
}

func TestReadDischarge(t *testing.T) {
	t.Parallel()

	d, err := ReadDischarge(strings.NewReader(riverCSV(8784, func(i int) float64 { return float64(i) })))
	require.NoError(t, err)
	require.Len(t, d, 8760)
	assert.Equal(t, 8759.0, d[8759])
}

func TestReadDischarge_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"no column", "datetime,stage\n2020,1\n", "no discharge column; expected one of discharge_cfs, discharge, flow_cfs"},
		{"short", riverCSV(10, func(int) float64 { return 1 }), "expected 8760 hourly values, got 10"},
		{"bad value", "discharge\n1\nfast\n", `line 3: invalid discharge "fast"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadDischarge(strings.NewReader(tc.csv))
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestRiverToPerformance(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteFiles(t, map[string]string{
		"river.csv": riverCSV(8760, func(i int) float64 {
			if i%2 == 0 {
				return 1000
			}
			return 100000
		}),
	})
	river := testutil.Build(t, newRiverResource, registry.Args{
		Name:     "river_resource",
		Kind:     "resource",
		Filename: filepath.Join(dir, "river.csv"),
	})

	tech := testutil.Tech("river", map[string]testutil.Params{
		"performance_parameters": {
			"plant_capacity_mw": cty.NumberIntVal(10),
			"head":              cty.NumberIntVal(5),
		},
	})
	perf := testutil.Build(t, newPerformance, testutil.Args("run_of_river_hydro_performance", "performance", tech))

	model := om.NewGroup()
	model.AddComponent("river_resource", river, "*")
	model.AddComponent("river", perf, "*")
	p := om.NewProblem(model)
	require.NoError(t, p.Setup(testutil.Context()))
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.RunModel(testutil.Context()))

	gen := testutil.Get(t, p, "electricity_out")
	low := 1000 * 9.81 * 5 * 0.9 * 1000 * cfsToCms / 1000
	assert.InDelta(t, low, gen[0], 1e-6)
	assert.InDelta(t, 10000.0, gen[1], 1e-9)
	assert.InDelta(t, 4380*(low+10000), testutil.Scalar(t, p, "annual_energy"), 1e-3)
}

func TestRiverResource_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := newRiverResource(registry.Args{Name: "river_resource", Kind: "resource"})
	assert.EqualError(t, err, "river_resource requires a filename")

	_, err = newRiverResource(registry.Args{Filename: filepath.Join(t.TempDir(), "none.csv")})
	assert.ErrorContains(t, err, "failed to open river resource")
}

func TestPerformance_Efficiency(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("river", map[string]testutil.Params{
		"performance_parameters": {
			"plant_capacity_mw":  cty.NumberIntVal(10),
			"head":               cty.NumberIntVal(5),
			"turbine_efficiency": cty.NumberIntVal(90),
		},
	})
	_, err := newPerformance(testutil.Args("run_of_river_hydro_performance", "performance", tech))
	assert.EqualError(t, err, "turbine_efficiency must be in (0, 1], got 90")
}

func TestCost(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("river", map[string]testutil.Params{
		"cost_parameters": {
			"plant_capacity_mw":                cty.NumberIntVal(10),
			"capital_cost_usd_per_kw":          cty.NumberIntVal(6000),
			"operational_cost_usd_per_kw_year": cty.NumberIntVal(40),
		},
	})
	p := testutil.RunComponent(t, testutil.Build(t, newCost, testutil.Args("run_of_river_hydro_cost", "cost", tech)), nil)
	assert.Equal(t, 6e7, testutil.Scalar(t, p, "CapEx"))
	assert.Equal(t, 4e5, testutil.Scalar(t, p, "OpEx"))
}
