package methanol

import (
	"context"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	Capacity         float64 `cty:"plant_capacity_kgpy"`
	CapacityFactor   float64 `cty:"capacity_factor"`
	CO2eEmitRatio    float64 `cty:"co2e_emit_ratio"`
	H2OConsumeRatio  float64 `cty:"h2o_consume_ratio"`
	H2ConsumeRatio   float64 `cty:"h2_consume_ratio"`
	CO2ConsumeRatio  float64 `cty:"co2_consume_ratio"`
	ElecConsumeRatio float64 `cty:"elec_consume_ratio"`
	SynCatRatio      float64 `cty:"meoh_syn_cat_consume_ratio"`
	ATRCatRatio      float64 `cty:"meoh_atr_cat_consume_ratio"`
	NGConsumeRatio   float64 `cty:"ng_consume_ratio"`
	ElecProduceRatio float64 `cty:"elec_produce_ratio"`
}

// Performance runs the plant flat at its capacity factor. Every stream is
// a fixed ratio to the methanol rate.
type Performance struct {
	cfg performanceConfig
}

func newPerformance(args registry.Args) (om.Component, error) {
	var cfg performanceConfig
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	return &Performance{cfg: cfg}, nil
}

// ratios pairs each per-kg ratio input with the hourly stream it drives.
var ratios = []struct {
	input, output, ratioUnits, outUnits string
	value                               func(performanceConfig) float64
}{
	{"co2e_emit_ratio", "co2e_emissions", "kg/kg", "kg/h", func(c performanceConfig) float64 { return c.CO2eEmitRatio }},
	{"h2o_consume_ratio", "h2o_consumption", "kg/kg", "kg/h", func(c performanceConfig) float64 { return c.H2OConsumeRatio }},
	{"h2_consume_ratio", "h2_consumption", "kg/kg", "kg/h", func(c performanceConfig) float64 { return c.H2ConsumeRatio }},
	{"co2_consume_ratio", "co2_consumption", "kg/kg", "kg/h", func(c performanceConfig) float64 { return c.CO2ConsumeRatio }},
	{"elec_consume_ratio", "elec_consumption", "kW*h/kg", "kW*h/h", func(c performanceConfig) float64 { return c.ElecConsumeRatio }},
	{"ng_consume_ratio", "ng_consumption", "kg/kg", "kg/h", func(c performanceConfig) float64 { return c.NGConsumeRatio }},
	{"elec_produce_ratio", "electricity_out", "kW*h/kg", "kW*h/h", func(c performanceConfig) float64 { return c.ElecProduceRatio }},
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("plant_capacity_kgpy", om.Val(c.cfg.Capacity), om.Units("kg/year"))
	s.AddInput("capacity_factor", om.Val(c.cfg.CapacityFactor), om.Units("unitless"))
	for _, r := range ratios {
		s.AddInput(r.input, om.Val(r.value(c.cfg)), om.Units(r.ratioUnits))
	}
	s.AddInput("meoh_syn_cat_consume_ratio", om.Val(c.cfg.SynCatRatio), om.Units("ft**3/kg"))
	s.AddInput("meoh_atr_cat_consume_ratio", om.Val(c.cfg.ATRCatRatio), om.Units("ft**3/kg"))

	s.AddOutput("methanol", om.Val(0), n, om.Units("kg/h"))
	for _, r := range ratios {
		s.AddOutput(r.output, om.Val(0), n, om.Units(r.outUnits))
	}
	s.AddOutput("total_methanol_produced", om.Val(0), om.Units("kg/year"))
	s.AddOutput("meoh_syn_cat_consumption", om.Val(0), om.Units("ft**3/year"))
	s.AddOutput("meoh_atr_cat_consumption", om.Val(0), om.Units("ft**3/year"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	rate := in.Scalar("plant_capacity_kgpy") * in.Scalar("capacity_factor") / config.HoursPerYear
	meoh := make([]float64, config.HoursPerYear)
	for i := range meoh {
		meoh[i] = rate
	}
	out.SetArray("methanol", meoh)

	stream := make([]float64, len(meoh))
	for _, r := range ratios {
		floats.ScaleTo(stream, in.Scalar(r.input), meoh)
		out.SetArray(r.output, stream)
	}

	total := floats.Sum(meoh)
	out.Set("total_methanol_produced", total)
	out.Set("meoh_syn_cat_consumption", total*in.Scalar("meoh_syn_cat_consume_ratio"))
	out.Set("meoh_atr_cat_consumption", total*in.Scalar("meoh_atr_cat_consume_ratio"))
	return nil
}
