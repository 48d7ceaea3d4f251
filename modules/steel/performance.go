package steel

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	Capacity       float64 `cty:"plant_capacity_mtpy"`
	CapacityFactor float64 `cty:"plant_capacity_factor"`
}

func (c performanceConfig) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("plant_capacity_mtpy must be positive, got %g", c.Capacity)
	}
	if c.CapacityFactor <= 0 || c.CapacityFactor > 1 {
		return fmt.Errorf("plant_capacity_factor must be in (0, 1], got %g", c.CapacityFactor)
	}
	return nil
}

// Performance runs the plant flat at its capacity factor and reports the
// hydrogen and electricity it needs to do so.
type Performance struct {
	cfg performanceConfig
}

func newPerformance(args registry.Args) (om.Component, error) {
	var cfg performanceConfig
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Performance{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("electricity_in", om.Val(0), n, om.Units("kW"))
	s.AddInput("hydrogen_in", om.Val(0), n, om.Units("kg/h"))
	s.AddInput("plant_capacity_mtpy", om.Val(c.cfg.Capacity), om.Units("t/year"))
	s.AddInput("plant_capacity_factor", om.Val(c.cfg.CapacityFactor), om.Units("unitless"))

	s.AddOutput("steel", om.Val(0), n, om.Units("t/h"))
	s.AddOutput("total_steel_produced", om.Val(0), om.Units("t/year"))
	s.AddOutput("hydrogen_required", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("electricity_required", om.Val(0), n, om.Units("kW"))
	s.AddOutput("hydrogen_shortfall", om.Val(0), om.Units("kg/year"),
		om.Desc("Hydrogen required but not supplied over the year"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	rate := in.Scalar("plant_capacity_mtpy") * in.Scalar("plant_capacity_factor") / config.HoursPerYear
	steel := make([]float64, config.HoursPerYear)
	for i := range steel {
		steel[i] = rate
	}
	out.SetArray("steel", steel)
	out.Set("total_steel_produced", floats.Sum(steel))

	h2 := make([]float64, len(steel))
	floats.ScaleTo(h2, hydrogenPerTonne*1000, steel)
	out.SetArray("hydrogen_required", h2)

	elec := make([]float64, len(steel))
	// MWh per tonne times tonnes per hour is MW.
	floats.ScaleTo(elec, electricityPerTonne*1000, steel)
	out.SetArray("electricity_required", elec)

	var shortfall float64
	for i, supplied := range in.Array("hydrogen_in") {
		shortfall += max(0, h2[i]-supplied)
	}
	out.Set("hydrogen_shortfall", shortfall)
	return nil
}
