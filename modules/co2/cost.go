package co2

import (
	"context"

	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

type costConfig struct {
	NumberEDMax       int     `cty:"number_ed_max"`
	CostPerEDUnit     float64 `cty:"cost_per_ed_unit"`
	TankCostPerM3     float64 `cty:"tank_cost_per_m3,optional"`
	FixedOpExFraction float64 `cty:"fixed_opex_fraction,optional"`
	OpExPerTonne      float64 `cty:"opex_per_tco2,optional"`
}

// Cost prices the electrodialysis units and tanks and adds a capture
// dependent operating cost.
type Cost struct {
	cfg costConfig
}

func newCost(args registry.Args) (om.Component, error) {
	cfg := costConfig{FixedOpExFraction: 0.03}
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	return &Cost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *Cost) Setup(s *om.Spec) error {
	s.AddInput("co2_capture_mtpy", om.Val(0), om.Units("t/year"))
	s.AddInput("total_tank_volume_m3", om.Val(0), om.Units("m**3"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"), om.Desc("Total capital expenditure (USD)"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"), om.Desc("Total annual operating expenses (USD/year)"))
	return nil
}

// Compute implements om.Component.
func (c *Cost) Compute(_ context.Context, in, out *om.Vars) error {
	capex := float64(c.cfg.NumberEDMax)*c.cfg.CostPerEDUnit + in.Scalar("total_tank_volume_m3")*c.cfg.TankCostPerM3
	out.Set("CapEx", capex)
	out.Set("OpEx", capex*c.cfg.FixedOpExFraction+in.Scalar("co2_capture_mtpy")*c.cfg.OpExPerTonne)
	return nil
}
