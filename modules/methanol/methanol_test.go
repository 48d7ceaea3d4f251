package methanol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

const mmbtuPerMJ = 1 / 1055.05585262

func newPlant(t *testing.T) (*om.Problem, *testutil.SafeBuffer) {
	t.Helper()

	tech := testutil.Tech("methanol", map[string]testutil.Params{
		"shared_parameters": {
			"plant_capacity_kgpy": cty.NumberFloatVal(1e8),
		},
		"performance_parameters": {
			"capacity_factor":            cty.NumberFloatVal(0.9),
			"co2e_emit_ratio":            cty.NumberFloatVal(0.5),
			"h2o_consume_ratio":          cty.NumberFloatVal(2),
			"h2_consume_ratio":           cty.NumberFloatVal(0),
			"co2_consume_ratio":          cty.NumberFloatVal(0),
			"elec_consume_ratio":         cty.NumberFloatVal(0.2),
			"meoh_syn_cat_consume_ratio": cty.NumberFloatVal(1e-5),
			"meoh_atr_cat_consume_ratio": cty.NumberFloatVal(2e-5),
			"ng_consume_ratio":           cty.NumberFloatVal(1),
			"elec_produce_ratio":         cty.NumberFloatVal(0.1),
		},
		"cost_parameters": {
			"toc_kg_y":           cty.NumberFloatVal(1),
			"foc_kg_y2":          cty.NumberFloatVal(0.05),
			"voc_kg":             cty.NumberFloatVal(0.1),
			"ng_lhv":             cty.NumberFloatVal(47.1),
			"meoh_syn_cat_price": cty.NumberFloatVal(100),
			"meoh_atr_cat_price": cty.NumberFloatVal(50),
			"ng_price":           cty.NumberFloatVal(4),
		},
		"financial_parameters": {
			"tasc_toc_multiplier": cty.NumberFloatVal(1.2),
			"fixed_charge_rate":   cty.NumberFloatVal(0.1),
		},
	})

	perf := testutil.Build(t, newPerformance, testutil.Args("smr_methanol_plant_performance", "performance", tech))
	costArgs := testutil.Args("smr_methanol_plant_cost", "cost", tech)
	costArgs.Plant.PPAPrice = 0.05
	cost := testutil.Build(t, newCost, costArgs)
	fin := testutil.Build(t, newFinance, testutil.Args("methanol_plant_financial", "financial", tech))

	model := om.NewGroup()
	model.AddComponent("performance", perf, "*")
	model.AddComponent("cost", cost, "*")
	model.AddComponent("financials", fin, "*")

	ctx, logs := testutil.LogContext(t)
	p := om.NewProblem(model)
	require.NoError(t, p.Setup(ctx))
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.RunModel(ctx))
	return p, logs
}

func TestPerformance_Streams(t *testing.T) {
	t.Parallel()

	p, _ := newPlant(t)

	rate := 1e8 * 0.9 / 8760
	meoh := testutil.Get(t, p, "methanol")
	require.Len(t, meoh, 8760)
	assert.InDelta(t, rate, meoh[0], 1e-9)
	assert.InDelta(t, rate, meoh[8759], 1e-9)
	assert.InDelta(t, 9e7, testutil.Scalar(t, p, "total_methanol_produced"), 1e-3)
	assert.InDelta(t, 2*rate, testutil.Get(t, p, "h2o_consumption")[10], 1e-9)
	assert.InDelta(t, 0.5*rate, testutil.Get(t, p, "co2e_emissions")[10], 1e-9)
	assert.InDelta(t, 0.0, testutil.Get(t, p, "h2_consumption")[10], 1e-12)
	assert.InDelta(t, 900.0, testutil.Scalar(t, p, "meoh_syn_cat_consumption"), 1e-6)
	assert.InDelta(t, 1800.0, testutil.Scalar(t, p, "meoh_atr_cat_consumption"), 1e-6)
}

func TestCost(t *testing.T) {
	t.Parallel()

	p, _ := newPlant(t)

	assert.InDelta(t, 1e8, testutil.Scalar(t, p, "CapEx"), 1e-3)
	assert.InDelta(t, 5e6, testutil.Scalar(t, p, "Fixed_OpEx"), 1e-3)
	assert.InDelta(t, 9e6, testutil.Scalar(t, p, "Variable_OpEx"), 1e-3)
	assert.InDelta(t, 1.4e7, testutil.Scalar(t, p, "OpEx"), 1e-3)
	assert.InDelta(t, 9e4, testutil.Scalar(t, p, "meoh_syn_cat_cost"), 1e-4)
	assert.InDelta(t, 9e4, testutil.Scalar(t, p, "meoh_atr_cat_cost"), 1e-4)
	assert.InDelta(t, 9e7*47.1*mmbtuPerMJ*4, testutil.Scalar(t, p, "ng_cost"), 1e-2)
	assert.InDelta(t, 9e6*0.05, testutil.Scalar(t, p, "elec_revenue"), 1e-4)
}

func TestFinance(t *testing.T) {
	t.Parallel()

	p, _ := newPlant(t)

	capex := 1e8 * 0.1 * 1.2 / 9e7
	fopex := 5e6 / 9e7
	vopex := 0.1 - 0.002
	meoh := capex + fopex + vopex + 0.002
	ng := 47.1 * mmbtuPerMJ * 4

	assert.InDelta(t, capex, testutil.Scalar(t, p, "LCOM_meoh_capex"), 1e-9)
	assert.InDelta(t, fopex, testutil.Scalar(t, p, "LCOM_meoh_fopex"), 1e-9)
	assert.InDelta(t, vopex, testutil.Scalar(t, p, "LCOM_meoh_vopex"), 1e-9)
	assert.InDelta(t, 0.001, testutil.Scalar(t, p, "LCOM_meoh_syn_cat"), 1e-9)
	assert.InDelta(t, 0.001, testutil.Scalar(t, p, "LCOM_meoh_atr_cat"), 1e-9)
	assert.InDelta(t, meoh, testutil.Scalar(t, p, "LCOM_meoh"), 1e-9)
	assert.InDelta(t, ng, testutil.Scalar(t, p, "LCOM_ng"), 1e-9)
	assert.InDelta(t, -0.005, testutil.Scalar(t, p, "LCOM_elec"), 1e-9)
	assert.InDelta(t, meoh+ng-0.005, testutil.Scalar(t, p, "LCOM"), 1e-9)
}

func TestFinance_NoProduction(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("methanol", map[string]testutil.Params{
		"financial_parameters": {
			"tasc_toc_multiplier": cty.NumberFloatVal(1.2),
			"fixed_charge_rate":   cty.NumberFloatVal(0.1),
		},
	})
	fin := testutil.Build(t, newFinance, testutil.Args("methanol_plant_financial", "financial", tech))

	model := om.NewGroup()
	model.AddComponent("financials", fin, "*")
	ctx, logs := testutil.LogContext(t)
	p := om.NewProblem(model)
	require.NoError(t, p.Setup(ctx))
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.SetScalar("CapEx", 1e8))
	require.NoError(t, p.RunModel(ctx))

	assert.Equal(t, 0.0, testutil.Scalar(t, p, "LCOM"))
	assert.Contains(t, logs.String(), "No methanol produced")
}

func TestFinance_MissingParameter(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("methanol", map[string]testutil.Params{
		"financial_parameters": {"fixed_charge_rate": cty.NumberFloatVal(0.1)},
	})
	_, err := newFinance(testutil.Args("methanol_plant_financial", "financial", tech))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"tasc_toc_multiplier"`)
}
