package co2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func docParams(tanks bool) testutil.Params {
	return testutil.Params{
		"power_single_ed_w":       cty.NumberIntVal(24_000_000),
		"flow_rate_single_ed_m3s": cty.NumberFloatVal(0.6),
		"number_ed_min":           cty.NumberIntVal(2),
		"number_ed_max":           cty.NumberIntVal(5),
		"use_storage_tanks":       cty.BoolVal(tanks),
		"store_hours":             cty.NumberIntVal(12),
		"initial_dic":             cty.NumberFloatVal(0.002),
		"capture_efficiency":      cty.NumberIntVal(1),
	}
}

// perUnit is 0.6 m3/s for an hour at 2 mol/m3 of CO2.
const perUnit = 0.6 * 3600 * 2 * 44.01 / 1e6

func power(mw ...float64) []float64 {
	s := testutil.Series(0)
	for i, p := range mw {
		s[i] = p * 1e6
	}
	return s
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tanks bool
		units []float64
	}{
		{"minimum enforced", false, []float64{0, 0, 2, 3, 5, 5}},
		{"tanks run below minimum", true, []float64{0, 1, 2, 3, 5, 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tech := testutil.Tech("doc", map[string]testutil.Params{"performance_parameters": docParams(tc.tanks)})
			comp := testutil.Build(t, newPerformance, testutil.Args("direct_ocean_capture_performance", "performance", tech))
			p := testutil.RunComponent(t, comp, map[string][]float64{
				"electricity_in": power(10, 30, 50, 80, 120, 500),
			})

			assert.Equal(t, tc.units, testutil.Get(t, p, "ed_units_operating")[:6])
			var total float64
			for _, n := range tc.units {
				total += n
			}
			assert.InDelta(t, total*perUnit, testutil.Scalar(t, p, "co2_capture_mtpy"), 1e-9)
			assert.InDelta(t, 3*perUnit, testutil.Get(t, p, "co2_capture_rate_mt")[3], 1e-12)
			assert.InDelta(t, 5*perUnit, testutil.Scalar(t, p, "plant_capacity_mtph"), 1e-12)
		})
	}
}

func TestPerformance_TankVolume(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("doc", map[string]testutil.Params{"performance_parameters": docParams(true)})
	comp := testutil.Build(t, newPerformance, testutil.Args("direct_ocean_capture_performance", "performance", tech))
	p := testutil.RunComponent(t, comp, nil)
	assert.InDelta(t, 12*3600*0.6*5, testutil.Scalar(t, p, "total_tank_volume_m3"), 1e-9)
}

func TestPerformance_Validation(t *testing.T) {
	t.Parallel()

	params := docParams(false)
	params["number_ed_max"] = cty.NumberIntVal(1)
	params["power_single_ed_w"] = cty.NumberIntVal(0)
	tech := testutil.Tech("doc", map[string]testutil.Params{"performance_parameters": params})
	_, err := newPerformance(testutil.Args("direct_ocean_capture_performance", "performance", tech))
	require.Error(t, err)
	assert.Equal(t, "power_single_ed_w must be positive, got 0\nneed 0 <= number_ed_min <= number_ed_max, got 2 and 1", err.Error())
}

func TestCost(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("doc", map[string]testutil.Params{
		"shared_parameters": {"number_ed_max": cty.NumberIntVal(5)},
		"cost_parameters": {
			"cost_per_ed_unit": cty.NumberIntVal(2e6),
			"tank_cost_per_m3": cty.NumberIntVal(100),
			"opex_per_tco2":    cty.NumberIntVal(20),
		},
	})
	comp := testutil.Build(t, newCost, testutil.Args("direct_ocean_capture_cost", "cost", tech))
	p := testutil.RunComponent(t, comp, map[string][]float64{
		"co2_capture_mtpy":     {1000},
		"total_tank_volume_m3": {500},
	})
	capex := 5*2e6 + 500*100.0
	assert.Equal(t, capex, testutil.Scalar(t, p, "CapEx"))
	assert.InDelta(t, capex*0.03+1000*20, testutil.Scalar(t, p, "OpEx"), 1e-6)
}
