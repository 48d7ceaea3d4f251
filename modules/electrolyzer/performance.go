package electrolyzer

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	// Rating is the stack rating in MW.
	Rating float64 `cty:"rating"`
	// EnergyPerKg is the specific energy in kWh per kg of hydrogen.
	EnergyPerKg float64 `cty:"electricity_per_kg,optional"`
	// MinLoadFraction is the fraction of the rating below which the
	// stack is off.
	MinLoadFraction float64 `cty:"min_load_fraction,optional"`
	// UptimeHours is the operating time at rated load until end of life.
	UptimeHours float64 `cty:"uptime_hours_until_eol,optional"`
	// WaterPerKg is the water use in liters per kg of hydrogen.
	WaterPerKg float64 `cty:"water_usage_l_per_kg,optional"`
}

// Performance is the PEM electrolyzer performance model.
type Performance struct {
	cfg performanceConfig
}

func newPerformance(args registry.Args) (om.Component, error) {
	cfg := performanceConfig{
		EnergyPerKg:     55.5,
		MinLoadFraction: 0.1,
		UptimeHours:     77600,
		WaterPerKg:      10,
	}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	switch {
	case cfg.Rating <= 0:
		return nil, fmt.Errorf("rating must be positive, got %g", cfg.Rating)
	case cfg.EnergyPerKg <= 0:
		return nil, fmt.Errorf("electricity_per_kg must be positive, got %g", cfg.EnergyPerKg)
	case cfg.MinLoadFraction < 0 || cfg.MinLoadFraction >= 1:
		return nil, fmt.Errorf("min_load_fraction must be in [0, 1), got %g", cfg.MinLoadFraction)
	case cfg.UptimeHours <= 0:
		return nil, fmt.Errorf("uptime_hours_until_eol must be positive, got %g", cfg.UptimeHours)
	}
	return &Performance{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("electricity_in", om.Val(0), n, om.Units("kW"))
	s.AddInput("electrolyzer_size_mw", om.Val(c.cfg.Rating), om.Units("MW"))

	s.AddOutput("hydrogen_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("water_consumption", om.Val(0), n, om.Units("L/h"))
	s.AddOutput("electricity_unused", om.Val(0), n, om.Units("kW"))
	s.AddOutput("total_hydrogen_produced", om.Val(0), om.Units("kg/year"))
	s.AddOutput("total_electricity_consumed", om.Val(0), om.Units("kW*h/year"))
	s.AddOutput("time_until_replacement", om.Val(c.cfg.UptimeHours), om.Units("h"))
	s.AddOutput("capacity_factor", om.Val(0), om.Units("unitless"))
	s.AddOutput("rated_h2_production_kg_pr_hr", om.Val(0), om.Units("kg/h"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	sizeKW := in.Scalar("electrolyzer_size_mw") * 1000
	if sizeKW <= 0 {
		return fmt.Errorf("electrolyzer size must be positive, got %g MW", sizeKW/1000)
	}
	minKW := c.cfg.MinLoadFraction * sizeKW
	supply := in.Array("electricity_in")

	used := make([]float64, len(supply))
	unused := make([]float64, len(supply))
	for t, p := range supply {
		load := min(max(p, 0), sizeKW)
		if load < minKW {
			load = 0
		}
		used[t] = load
		unused[t] = max(p, 0) - load
	}

	h2 := make([]float64, len(used))
	floats.ScaleTo(h2, 1/c.cfg.EnergyPerKg, used)
	water := make([]float64, len(h2))
	floats.ScaleTo(water, c.cfg.WaterPerKg, h2)

	energy := floats.Sum(used)
	// Full-load equivalent hours spent on the stacks this year.
	fullLoadHours := energy / sizeKW
	replacement := c.cfg.UptimeHours
	if fullLoadHours > 0 {
		replacement = c.cfg.UptimeHours * config.HoursPerYear / fullLoadHours
	}

	out.SetArray("hydrogen_out", h2)
	out.SetArray("water_consumption", water)
	out.SetArray("electricity_unused", unused)
	out.Set("total_hydrogen_produced", floats.Sum(h2))
	out.Set("total_electricity_consumed", energy)
	out.Set("time_until_replacement", replacement)
	out.Set("capacity_factor", fullLoadHours/config.HoursPerYear)
	out.Set("rated_h2_production_kg_pr_hr", sizeKW/c.cfg.EnergyPerKg)
	return nil
}
