package hydro

import (
	"context"

	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

type costConfig struct {
	CapacityMW  float64 `cty:"plant_capacity_mw"`
	CapitalCost float64 `cty:"capital_cost_usd_per_kw"`
	OpCost      float64 `cty:"operational_cost_usd_per_kw_year"`
}

// Cost prices a run-of-river plant per kW of capacity.
type Cost struct {
	cfg costConfig
}

func newCost(args registry.Args) (om.Component, error) {
	var cfg costConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	return &Cost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *Cost) Setup(s *om.Spec) error {
	s.AddInput("plant_capacity_mw", om.Val(c.cfg.CapacityMW), om.Units("MW"))
	s.AddInput("capital_cost_usd_per_kw", om.Val(c.cfg.CapitalCost), om.Units("USD/kW"))
	s.AddInput("operational_cost_usd_per_kw_year", om.Val(c.cfg.OpCost), om.Units("USD/kW/year"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *Cost) Compute(_ context.Context, in, out *om.Vars) error {
	kw := in.Scalar("plant_capacity_mw") * 1000
	out.Set("CapEx", kw*in.Scalar("capital_cost_usd_per_kw"))
	out.Set("OpEx", kw*in.Scalar("operational_cost_usd_per_kw_year"))
	return nil
}
