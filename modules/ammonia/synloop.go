package ammonia

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

type synloopConfig struct {
	// EnergyDemand is MW per kg/h of ammonia.
	EnergyDemand float64 `cty:"energy_demand"`
	// Conversion rates are kg of feed per kg of ammonia.
	NitrogenRate float64 `cty:"nitrogen_conversion_rate"`
	HydrogenRate float64 `cty:"hydrogen_conversion_rate"`
}

// SynloopPerformance produces ammonia each hour up to whichever of
// hydrogen, nitrogen or power runs out first. What is left of each feed is
// passed on; leftover power leaves as heat.
type SynloopPerformance struct {
	cfg synloopConfig
}

func newSynloopPerformance(args registry.Args) (om.Component, error) {
	var cfg synloopConfig
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"energy_demand", cfg.EnergyDemand},
		{"nitrogen_conversion_rate", cfg.NitrogenRate},
		{"hydrogen_conversion_rate", cfg.HydrogenRate},
	} {
		if p.v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %g", p.name, p.v)
		}
	}
	return &SynloopPerformance{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *SynloopPerformance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("hydrogen_in", om.Val(0), n, om.Units("kg/h"))
	s.AddInput("nitrogen_in", om.Val(0), n, om.Units("kg/h"))
	s.AddInput("electricity_in", om.Val(0), n, om.Units("MW"))
	s.AddOutput("ammonia_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("nitrogen_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("hydrogen_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("heat_out", om.Val(0), n, om.Units("MW"))
	s.AddOutput("total_ammonia_produced", om.Val(0), om.Units("kg/year"))
	return nil
}

// Compute implements om.Component.
func (c *SynloopPerformance) Compute(_ context.Context, in, out *om.Vars) error {
	h2 := in.Array("hydrogen_in")
	n2 := in.Array("nitrogen_in")
	elec := in.Array("electricity_in")

	size := len(h2)
	nh3 := make([]float64, size)
	h2Left := make([]float64, size)
	n2Left := make([]float64, size)
	heat := make([]float64, size)
	for t := range h2 {
		prod := min(h2[t]/c.cfg.HydrogenRate, n2[t]/c.cfg.NitrogenRate, elec[t]/c.cfg.EnergyDemand)
		nh3[t] = prod
		h2Left[t] = h2[t] - prod*c.cfg.HydrogenRate
		n2Left[t] = n2[t] - prod*c.cfg.NitrogenRate
		heat[t] = elec[t] - prod*c.cfg.EnergyDemand
	}

	out.SetArray("ammonia_out", nh3)
	out.SetArray("hydrogen_out", h2Left)
	out.SetArray("nitrogen_out", n2Left)
	out.SetArray("heat_out", heat)
	out.Set("total_ammonia_produced", floats.Sum(nh3))
	return nil
}

type synloopCostConfig struct {
	Capex float64 `cty:"capex"`
	// RebuildCost is the annualized catalyst replacement cost.
	RebuildCost float64 `cty:"rebuild_cost"`
}

// SynloopCost reports configured costs. All operating cost is catalyst
// rebuild.
type SynloopCost struct {
	cfg synloopCostConfig
}

func newSynloopCost(args registry.Args) (om.Component, error) {
	var cfg synloopCostConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	return &SynloopCost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *SynloopCost) Setup(s *om.Spec) error {
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *SynloopCost) Compute(_ context.Context, _, out *om.Vars) error {
	out.Set("CapEx", c.cfg.Capex)
	out.Set("OpEx", c.cfg.RebuildCost)
	return nil
}
