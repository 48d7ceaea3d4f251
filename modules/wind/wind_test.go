package wind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
)

func TestPowerCurve_Fraction(t *testing.T) {
	t.Parallel()

	c := DefaultPowerCurve
	tests := []struct {
		speed float64
		want  float64
	}{
		{0, 0},
		{2.99, 0},
		{3, 0},
		{7.5, (7.5*7.5*7.5 - 27) / (1728 - 27)},
		{12, 1},
		{24.9, 1},
		{25, 0},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, c.Fraction(tc.speed), 1e-12, "speed %g", tc.speed)
	}
}

func TestSyntheticSpeeds(t *testing.T) {
	t.Parallel()

	a := SyntheticSpeeds(7.5, 42)
	b := SyntheticSpeeds(7.5, 42)
	require.Len(t, a, 8760)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, SyntheticSpeeds(7.5, 43))
	assert.InDelta(t, 7.5, floats.Sum(a)/8760, 0.5)
	assert.GreaterOrEqual(t, floats.Min(a), 0.0)
}

func TestShear(t *testing.T) {
	t.Parallel()

	got := Shear([]float64{5, 10}, 10, 80, 0.143)
	f := math.Pow(8, 0.143)
	assert.InDeltaSlice(t, []float64{5 * f, 10 * f}, got, 1e-12)
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("wind", map[string]testutil.Params{
		"performance_parameters": {
			"num_turbines":      cty.NumberIntVal(10),
			"turbine_rating_kw": cty.NumberIntVal(5000),
			"losses_percent":    cty.NumberIntVal(10),
			"wind_speed":        cty.NumberIntVal(15),
		},
	})
	comp := testutil.Build(t, newPerformance, testutil.Args("wind_plant_performance", "performance", tech))
	p := testutil.RunComponent(t, comp, nil)

	assert.Equal(t, 50000.0, testutil.Scalar(t, p, "total_capacity"))
	gen := testutil.Get(t, p, "electricity_out")
	assert.InDelta(t, 45000.0, gen[0], 1e-9)
	assert.InDelta(t, 45000.0*8760, testutil.Scalar(t, p, "annual_energy"), 1e-3)
	assert.InDelta(t, 0.9, testutil.Scalar(t, p, "capacity_factor"), 1e-12)
	assert.InDelta(t, 45.0, testutil.Get(t, p, "electricity_out", "MW")[10], 1e-9)
}

func TestPerformance_DesignVariables(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("wind", map[string]testutil.Params{
		"performance_parameters": {
			"num_turbines":      cty.NumberIntVal(10),
			"turbine_rating_kw": cty.NumberIntVal(5000),
			"losses_percent":    cty.NumberIntVal(0),
			"wind_speed":        cty.NumberIntVal(13),
		},
	})
	comp := testutil.Build(t, newPerformance, testutil.Args("wind_plant_performance", "performance", tech))
	p := testutil.RunComponent(t, comp, map[string][]float64{"num_turbines": {4}})
	assert.Equal(t, 20000.0, testutil.Scalar(t, p, "total_capacity"))
	assert.InDelta(t, 20000.0, testutil.Get(t, p, "electricity_out")[8759], 1e-9)
}

func TestPerformance_InvalidCurve(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("wind", map[string]testutil.Params{
		"performance_parameters": {
			"num_turbines":      cty.NumberIntVal(1),
			"turbine_rating_kw": cty.NumberIntVal(5000),
			"rated_speed":       cty.NumberIntVal(30),
		},
	})
	_, err := newPerformance(testutil.Args("wind_plant_performance", "performance", tech))
	assert.EqualError(t, err, "power curve speeds must satisfy cut_in < rated < cut_out, got 3, 30, 25")
}

func TestCost(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("wind", map[string]testutil.Params{
		"shared_parameters": {
			"num_turbines":      cty.NumberIntVal(20),
			"turbine_rating_kw": cty.NumberIntVal(6000),
		},
		"cost_parameters": {
			"cost_per_kw":          cty.NumberIntVal(1380),
			"opex_per_kw_per_year": cty.NumberIntVal(29),
		},
	})
	comp := testutil.Build(t, newCost, testutil.Args("wind_plant_cost", "cost", tech))
	p := testutil.RunComponent(t, comp, nil)
	assert.Equal(t, 120000.0*1380, testutil.Scalar(t, p, "CapEx"))
	assert.Equal(t, 120000.0*29, testutil.Scalar(t, p, "OpEx"))
}
