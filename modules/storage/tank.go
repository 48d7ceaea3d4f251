package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
)

type tankConfig struct {
	Capacity     float64 `cty:"total_capacity"`
	InitialLevel float64 `cty:"initial_level,optional"`
	MaxFillRate  float64 `cty:"max_fill_rate,optional"`
	MaxDrainRate float64 `cty:"max_drain_rate,optional"`
	// CompressionEnergy is spent per kg filled, kWh/kg.
	CompressionEnergy float64 `cty:"compression_energy,optional"`
	// Demand defaults to the mean of the incoming hydrogen.
	Demand cty.Value `cty:"hydrogen_demand,optional"`
}

func (c tankConfig) validate() error {
	var errs []error
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("total_capacity must be positive, got %g", c.Capacity))
	}
	if c.InitialLevel < 0 || c.InitialLevel > c.Capacity {
		errs = append(errs, fmt.Errorf("initial_level %g is outside [0, %g]", c.InitialLevel, c.Capacity))
	}
	if c.MaxFillRate < 0 || c.MaxDrainRate < 0 {
		errs = append(errs, errors.New("fill and drain rates must not be negative"))
	}
	return errors.Join(errs...)
}

// TankPerformance is a compressed hydrogen tank dispatched against a
// demand. Surplus fills the tank up to its capacity and fill rate, the
// rest is vented; shortfalls drain it.
type TankPerformance struct {
	cfg    tankConfig
	demand []float64
}

func newTankPerformance(args registry.Args) (om.Component, error) {
	cfg := tankConfig{CompressionEnergy: 2.2}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &TankPerformance{cfg: cfg}
	if cfg.Demand != cty.NilVal && !cfg.Demand.IsNull() {
		d, err := config.Series(cfg.Demand, config.HoursPerYear)
		if err != nil {
			return nil, fmt.Errorf("hydrogen_demand: %w", err)
		}
		c.demand = d
	}
	return c, nil
}

// Setup implements om.Component.
func (c *TankPerformance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("hydrogen_in", om.Val(0), n, om.Units("kg/h"))
	if c.demand != nil {
		s.AddInput("hydrogen_demand", om.ArrayVal(c.demand), om.Units("kg/h"))
	}
	s.AddInput("total_capacity", om.Val(c.cfg.Capacity), om.Units("kg"))

	s.AddOutput("hydrogen_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("stored_hydrogen", om.Val(0), n, om.Units("kg"))
	s.AddOutput("hydrogen_unmet", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("hydrogen_vented", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("electricity_consumed", om.Val(0), n, om.Units("kW"))
	return nil
}

func rateLimit(r float64) float64 {
	if r <= 0 {
		return math.Inf(1)
	}
	return r
}

// Compute implements om.Component.
func (c *TankPerformance) Compute(_ context.Context, in, out *om.Vars) error {
	supply := in.Array("hydrogen_in")
	var demand []float64
	if c.demand != nil {
		demand = in.Array("hydrogen_demand")
	} else {
		mean := floats.Sum(supply) / float64(len(supply))
		demand = make([]float64, len(supply))
		for i := range demand {
			demand[i] = mean
		}
	}

	capacity := in.Scalar("total_capacity")
	fill, drain := rateLimit(c.cfg.MaxFillRate), rateLimit(c.cfg.MaxDrainRate)
	level := math.Min(c.cfg.InitialLevel, capacity)

	n := len(supply)
	delivered := make([]float64, n)
	stored := make([]float64, n)
	unmet := make([]float64, n)
	vented := make([]float64, n)
	power := make([]float64, n)
	for i := range supply {
		if surplus := supply[i] - demand[i]; surplus >= 0 {
			charge := math.Min(surplus, math.Min(fill, capacity-level))
			level += charge
			vented[i] = surplus - charge
			delivered[i] = demand[i]
			power[i] = charge * c.cfg.CompressionEnergy
		} else {
			deficit := -surplus
			outflow := math.Min(deficit, math.Min(drain, level))
			level -= outflow
			delivered[i] = supply[i] + outflow
			unmet[i] = deficit - outflow
		}
		stored[i] = level
	}

	out.SetArray("hydrogen_out", delivered)
	out.SetArray("stored_hydrogen", stored)
	out.SetArray("hydrogen_unmet", unmet)
	out.SetArray("hydrogen_vented", vented)
	out.SetArray("electricity_consumed", power)
	return nil
}

type tankCostConfig struct {
	Capacity     float64 `cty:"total_capacity"`
	CapexPerKg   float64 `cty:"capex_per_kg,optional"`
	OpexFraction float64 `cty:"opex_fraction,optional"`
}

// TankCost prices a tank per kg of capacity.
type TankCost struct {
	cfg tankCostConfig
}

func newTankCost(args registry.Args) (om.Component, error) {
	cfg := tankCostConfig{CapexPerKg: storageTypes["pressure_vessel"].capexPerKg, OpexFraction: 0.02}
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	return &TankCost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *TankCost) Setup(s *om.Spec) error {
	s.AddInput("total_capacity", om.Val(c.cfg.Capacity), om.Units("kg"))
	s.AddInput("capex_per_kg", om.Val(c.cfg.CapexPerKg), om.Units("USD/kg"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *TankCost) Compute(_ context.Context, in, out *om.Vars) error {
	capex := in.Scalar("total_capacity") * in.Scalar("capex_per_kg")
	out.Set("CapEx", capex)
	out.Set("OpEx", capex*c.cfg.OpexFraction)
	return nil
}
