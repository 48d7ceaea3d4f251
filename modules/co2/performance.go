package co2

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

// co2MolarMass in g/mol.
const co2MolarMass = 44.01

type performanceConfig struct {
	PowerSingleED    float64 `cty:"power_single_ed_w"`
	FlowRateSingleED float64 `cty:"flow_rate_single_ed_m3s"`
	NumberEDMin      int     `cty:"number_ed_min"`
	NumberEDMax      int     `cty:"number_ed_max"`
	UseStorageTanks  bool    `cty:"use_storage_tanks"`
	StoreHours       float64 `cty:"store_hours"`
	// InitialDIC is the dissolved inorganic carbon of the intake, mol/L.
	InitialDIC        float64 `cty:"initial_dic,optional"`
	CaptureEfficiency float64 `cty:"capture_efficiency,optional"`
}

func (c performanceConfig) validate() error {
	var errs []error
	if c.PowerSingleED <= 0 {
		errs = append(errs, fmt.Errorf("power_single_ed_w must be positive, got %g", c.PowerSingleED))
	}
	if c.FlowRateSingleED <= 0 {
		errs = append(errs, fmt.Errorf("flow_rate_single_ed_m3s must be positive, got %g", c.FlowRateSingleED))
	}
	if c.NumberEDMin < 0 || c.NumberEDMax < c.NumberEDMin {
		errs = append(errs, fmt.Errorf("need 0 <= number_ed_min <= number_ed_max, got %d and %d", c.NumberEDMin, c.NumberEDMax))
	}
	return errors.Join(errs...)
}

// Performance runs as many electrodialysis units as the available power
// allows each hour. Without storage tanks fewer than the minimum number of
// units cannot run; with them the tanks buffer the acid and base so any
// number can.
type Performance struct {
	cfg performanceConfig
}

func newPerformance(args registry.Args) (om.Component, error) {
	cfg := performanceConfig{InitialDIC: 0.0022, CaptureEfficiency: 0.95}
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
	s.AddInput("electricity_in", om.Val(0), n, om.Units("W"), om.Desc("Hourly input electricity (W)"))
	s.AddOutput("co2_capture_rate_mt", om.Val(0), n, om.Units("t"), om.Desc("Hourly CO2 capture rate (t)"))
	s.AddOutput("co2_capture_mtpy", om.Val(0), om.Units("t/year"), om.Desc("Annual CO2 captured (t/year)"))
	s.AddOutput("plant_capacity_mtph", om.Val(0), om.Units("t/h"))
	s.AddOutput("total_tank_volume_m3", om.Val(0), om.Units("m**3"))
	s.AddOutput("ed_units_operating", om.Val(0), n, om.Units("unitless"))
	return nil
}

// capturePerUnitHour returns tonnes captured by one unit in an hour.
func (c *Performance) capturePerUnitHour() float64 {
	m3 := c.cfg.FlowRateSingleED * 3600
	mol := m3 * 1000 * c.cfg.InitialDIC * c.cfg.CaptureEfficiency
	return mol * co2MolarMass / 1e6
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	perUnit := c.capturePerUnitHour()
	power := in.Array("electricity_in")
	units := make([]float64, len(power))
	captured := make([]float64, len(power))
	for i, p := range power {
		n := max(0, min(c.cfg.NumberEDMax, int(math.Floor(p/c.cfg.PowerSingleED))))
		if n < c.cfg.NumberEDMin && !c.cfg.UseStorageTanks {
			n = 0
		}
		units[i] = float64(n)
		captured[i] = float64(n) * perUnit
	}
	out.SetArray("ed_units_operating", units)
	out.SetArray("co2_capture_rate_mt", captured)
	out.Set("co2_capture_mtpy", floats.Sum(captured))
	out.Set("plant_capacity_mtph", float64(c.cfg.NumberEDMax)*perUnit)
	if c.cfg.UseStorageTanks {
		out.Set("total_tank_volume_m3", c.cfg.StoreHours*3600*c.cfg.FlowRateSingleED*float64(c.cfg.NumberEDMax))
	} else {
		out.Set("total_tank_volume_m3", 0)
	}
	return nil
}
