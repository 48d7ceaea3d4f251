package solar

import (
	"context"

	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

type costConfig struct {
	CapacityKW    float64 `cty:"pv_capacity_kw,optional"`
	CostPerKW     float64 `cty:"cost_per_kw"`
	OpExPerKWYear float64 `cty:"opex_per_kw_per_year,optional"`
}

// Cost prices a PV plant per kW DC.
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
	s.AddInput("pv_capacity_kw", om.Val(c.cfg.CapacityKW), om.Units("kW"))
	s.AddInput("cost_per_kw", om.Val(c.cfg.CostPerKW), om.Units("USD/kW"))
	s.AddInput("opex_per_kw_per_year", om.Val(c.cfg.OpExPerKWYear), om.Units("USD/kW/year"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *Cost) Compute(_ context.Context, in, out *om.Vars) error {
	kw := in.Scalar("pv_capacity_kw")
	out.Set("CapEx", kw*in.Scalar("cost_per_kw"))
	out.Set("OpEx", kw*in.Scalar("opex_per_kw_per_year"))
	return nil
}
