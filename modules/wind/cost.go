package wind

import (
	"context"

	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

type costConfig struct {
	NumTurbines     int     `cty:"num_turbines,optional"`
	TurbineRatingKW float64 `cty:"turbine_rating_kw,optional"`
	CostPerKW       float64 `cty:"cost_per_kw"`
	OpExPerKWYear   float64 `cty:"opex_per_kw_per_year,optional"`
}

// Cost prices a wind plant per kW of installed capacity.
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
	capacity := float64(c.cfg.NumTurbines) * c.cfg.TurbineRatingKW
	s.AddInput("total_capacity", om.Val(capacity), om.Units("kW"))
	s.AddInput("cost_per_kw", om.Val(c.cfg.CostPerKW), om.Units("USD/kW"))
	s.AddInput("opex_per_kw_per_year", om.Val(c.cfg.OpExPerKWYear), om.Units("USD/kW/year"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *Cost) Compute(_ context.Context, in, out *om.Vars) error {
	capacity := in.Scalar("total_capacity")
	out.Set("CapEx", capacity*in.Scalar("cost_per_kw"))
	out.Set("OpEx", capacity*in.Scalar("opex_per_kw_per_year"))
	return nil
}
