package hydro

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	CapacityMW          float64 `cty:"plant_capacity_mw"`
	WaterDensity        float64 `cty:"water_density,optional"`
	AccelerationGravity float64 `cty:"acceleration_gravity,optional"`
	TurbineEfficiency   float64 `cty:"turbine_efficiency,optional"`
	Head                float64 `cty:"head"`
}

// Performance converts river discharge through the turbines into power,
// capped at the plant rating.
type Performance struct {
	cfg performanceConfig
}

func newPerformance(args registry.Args) (om.Component, error) {
	cfg := performanceConfig{
		WaterDensity:        1000,
		AccelerationGravity: 9.81,
		TurbineEfficiency:   0.9,
	}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if cfg.TurbineEfficiency <= 0 || cfg.TurbineEfficiency > 1 {
		return nil, fmt.Errorf("turbine_efficiency must be in (0, 1], got %g", cfg.TurbineEfficiency)
	}
	return &Performance{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("discharge", om.Val(0), n, om.Units("m**3/s"))
	s.AddInput("plant_capacity_mw", om.Val(c.cfg.CapacityMW), om.Units("MW"))
	s.AddInput("head", om.Val(c.cfg.Head), om.Units("m"))
	s.AddOutput("electricity_out", om.Val(0), n, om.Units("kW"))
	s.AddOutput("annual_energy", om.Val(0), om.Units("kW*h/year"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	capacity := in.Scalar("plant_capacity_mw") * 1000
	k := c.cfg.WaterDensity * c.cfg.AccelerationGravity * in.Scalar("head") * c.cfg.TurbineEfficiency / 1000
	q := in.Array("discharge")
	gen := make([]float64, len(q))
	for i, flow := range q {
		gen[i] = math.Min(capacity, k*math.Max(0, flow))
	}
	out.SetArray("electricity_out", gen)
	out.Set("annual_energy", floats.Sum(gen))
	return nil
}
