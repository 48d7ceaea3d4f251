package steel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func steelTech() testutil.Params {
	return testutil.Params{
		"plant_capacity_mtpy":   cty.NumberFloatVal(1e6),
		"plant_capacity_factor": cty.NumberFloatVal(0.9),
	}
}

func annuityFactor(rate float64, years int) float64 {
	var af float64
	for t := 1; t <= years; t++ {
		af += 1 / math.Pow(1+rate, float64(t))
	}
	return af
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("steel", map[string]testutil.Params{"shared_parameters": steelTech()})
	comp := testutil.Build(t, newPerformance, testutil.Args("steel_performance", "performance", tech))

	h2 := testutil.Series(0)
	for i := range h2 {
		h2[i] = 1e9
	}
	h2[0] = 0
	p := testutil.RunComponent(t, comp, map[string][]float64{"hydrogen_in": h2})

	rate := 0.9e6 / 8760
	assert.InDelta(t, rate, testutil.Get(t, p, "steel")[100], 1e-9)
	assert.InDelta(t, 0.9e6, testutil.Scalar(t, p, "total_steel_produced"), 1e-4)
	assert.InDelta(t, rate*65.96, testutil.Get(t, p, "hydrogen_required")[0], 1e-6)
	assert.InDelta(t, rate*550.2, testutil.Get(t, p, "electricity_required")[0], 1e-6)
	assert.InDelta(t, rate*65.96, testutil.Scalar(t, p, "hydrogen_shortfall"), 1e-6)
}

func TestPerformance_Validation(t *testing.T) {
	t.Parallel()

	params := steelTech()
	params["plant_capacity_factor"] = cty.NumberFloatVal(1.5)
	tech := testutil.Tech("steel", map[string]testutil.Params{"performance_parameters": params})
	_, err := newPerformance(testutil.Args("steel_performance", "performance", tech))
	assert.EqualError(t, err, "plant_capacity_factor must be in (0, 1], got 1.5")
}

func TestCost_LCOS(t *testing.T) {
	t.Parallel()

	params := steelTech()
	params["lcoh"] = cty.NumberFloatVal(4)
	tech := testutil.Tech("steel", map[string]testutil.Params{"cost_parameters": params})
	args := testutil.Args("steel_cost", "cost", tech)
	args.Plant.Finance = cty.ObjectVal(map[string]cty.Value{
		"discount_rate": cty.NumberFloatVal(0.08),
	})
	p := testutil.RunComponent(t, testutil.Build(t, newCost, args), nil)

	var capex float64
	for _, it := range capitalItems {
		capex += it.coeff * math.Pow(1e6, it.exp)
	}
	perTonne := 65.96*4 + 0.5502*48.92 + 0.71657*4 + 0.80367*0.59289 +
		0.01812*122.1 + 0.0538*236.97 + 1.62927*207.35 + 0.17433*37.63
	q := 0.9e6

	assert.InDelta(t, capex, testutil.Scalar(t, p, "CapEx"), 1e-3)
	assert.InDelta(t, 0.04*capex+perTonne*q, testutil.Scalar(t, p, "OpEx"), 1e-2)

	want := (capex/annuityFactor(0.08, 30)+0.04*capex)/q + perTonne
	assert.InDelta(t, want, testutil.Scalar(t, p, "LCOS"), 1e-6)
}

func TestCost_LCOHInput(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("steel", map[string]testutil.Params{"cost_parameters": steelTech()})
	args := testutil.Args("steel_cost", "cost", tech)
	args.Plant.Finance = cty.ObjectVal(map[string]cty.Value{
		"discount_rate": cty.NumberFloatVal(0.08),
	})
	comp := testutil.Build(t, newCost, args)

	cheap := testutil.Scalar(t, testutil.RunComponent(t, comp, map[string][]float64{"LCOH": {2}}), "LCOS")
	dear := testutil.Scalar(t, testutil.RunComponent(t, comp, map[string][]float64{"LCOH": {5}}), "LCOS")
	assert.InDelta(t, 3*65.96, dear-cheap, 1e-6)
}

func TestCost_RequiresFinance(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("steel", map[string]testutil.Params{"cost_parameters": steelTech()})
	_, err := newCost(testutil.Args("steel_cost", "cost", tech))
	require.EqualError(t, err, "steel_cost requires plant finance_parameters")
}
