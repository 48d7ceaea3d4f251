package ammonia

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

// Consumption per kg of ammonia.
const (
	hydrogenPerKg        = 0.197284403    // kg
	electricityPerKg     = 0.1207         // kWh
	coolingWaterPerKg    = 0.049236824    // gal
	ironCatalystPerKg    = 0.000091295354 // kg
	oxygenByproductPerKg = 0.29405077250  // kg
)

// Reference plant of the capital cost correlation.
const (
	referenceKgPerDay = 1266638.4
	capexExponent     = 0.6

	airSeparationCapex = 22506100.0
	haberBoschCapex    = 18642800.0
	boilerCapex        = 7069100.0
	coolingTowerCapex  = 4799200.0
	nonEquipmentShare  = 0.42
	nonEquipmentBase   = 4112701.84103543
	landCostBase       = 2500000.0

	laborRate         = 57.0 // USD/h
	laborHeadcount    = 50
	laborHoursPerYear = 2080
	adminShareOfLabor = 0.2
	propertyTaxShare  = 0.02
	maintenanceShare  = 0.005
)

type simplePerformanceConfig struct {
	Capacity       float64 `cty:"plant_capacity_kgpy"`
	CapacityFactor float64 `cty:"plant_capacity_factor"`
}

// SimplePerformance converts hydrogen at a fixed ratio. Hourly output is
// capped at the nameplate rate and the annual total at the capacity
// factor.
type SimplePerformance struct {
	cfg simplePerformanceConfig
}

func newSimplePerformance(args registry.Args) (om.Component, error) {
	var cfg simplePerformanceConfig
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("plant_capacity_kgpy must be positive, got %g", cfg.Capacity)
	}
	if cfg.CapacityFactor <= 0 || cfg.CapacityFactor > 1 {
		return nil, fmt.Errorf("plant_capacity_factor must be in (0, 1], got %g", cfg.CapacityFactor)
	}
	return &SimplePerformance{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *SimplePerformance) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("hydrogen_in", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("ammonia_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("hydrogen_consumed", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("total_ammonia_produced", om.Val(0), om.Units("kg/year"))
	return nil
}

// Compute implements om.Component.
func (c *SimplePerformance) Compute(_ context.Context, in, out *om.Vars) error {
	h2 := in.Array("hydrogen_in")
	rated := c.cfg.Capacity / config.HoursPerYear

	nh3 := make([]float64, len(h2))
	for t, x := range h2 {
		nh3[t] = min(max(x, 0)/hydrogenPerKg, rated)
	}
	if limit := c.cfg.Capacity * c.cfg.CapacityFactor; floats.Sum(nh3) > limit {
		floats.Scale(limit/floats.Sum(nh3), nh3)
	}
	used := make([]float64, len(nh3))
	floats.ScaleTo(used, hydrogenPerKg, nh3)

	out.SetArray("ammonia_out", nh3)
	out.SetArray("hydrogen_consumed", used)
	out.Set("total_ammonia_produced", floats.Sum(nh3))
	return nil
}

type simpleCostConfig struct {
	Capacity         float64 `cty:"plant_capacity_kgpy"`
	ElectricityCost  float64 `cty:"electricity_cost"`
	CoolingWaterCost float64 `cty:"cooling_water_cost"`
	IronCatalystCost float64 `cty:"iron_based_catalyst_cost"`
	OxygenCost       float64 `cty:"oxygen_cost"`
	HydrogenCost     float64 `cty:"hydrogen_cost,optional"`
}

// SimpleCost scales the capital cost of a reference plant with capacity to
// the 0.6 power. Fixed O&M covers labor, administration, property tax and
// maintenance; variable O&M covers power and consumables less the oxygen
// by-product credit.
type SimpleCost struct {
	cfg simpleCostConfig
}

func newSimpleCost(args registry.Args) (om.Component, error) {
	var cfg simpleCostConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("plant_capacity_kgpy must be positive, got %g", cfg.Capacity)
	}
	return &SimpleCost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *SimpleCost) Setup(s *om.Spec) error {
	s.AddInput("total_ammonia_produced", om.Val(0), om.Units("kg/year"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("Fixed_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("Variable_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("land_cost", om.Val(0), om.Units("USD"))
	return nil
}

// Compute implements om.Component.
func (c *SimpleCost) Compute(_ context.Context, in, out *om.Vars) error {
	cost := simpleCosts(c.cfg, in.Scalar("total_ammonia_produced"))
	out.Set("CapEx", cost.capex)
	out.Set("Fixed_OpEx", cost.fixed)
	out.Set("Variable_OpEx", cost.variable)
	out.Set("OpEx", cost.fixed+cost.variable)
	out.Set("land_cost", cost.land)
	return nil
}

type costs struct {
	capex, land, fixed, variable float64
}

func simpleCosts(cfg simpleCostConfig, produced float64) costs {
	ratio := cfg.Capacity / (365 * referenceKgPerDay)
	scale := math.Pow(ratio, capexExponent)

	direct := (airSeparationCapex + haberBoschCapex + boilerCapex + coolingTowerCapex) * scale
	capex := direct + direct*nonEquipmentShare + nonEquipmentBase*ratio

	labor := laborRate * laborHeadcount * laborHoursPerYear * ratio
	fixed := labor + labor*adminShareOfLabor + capex*propertyTaxShare + direct*maintenanceShare

	perKg := electricityPerKg/1000*cfg.ElectricityCost +
		coolingWaterPerKg*cfg.CoolingWaterCost +
		ironCatalystPerKg*cfg.IronCatalystCost +
		hydrogenPerKg*cfg.HydrogenCost -
		oxygenByproductPerKg*cfg.OxygenCost

	return costs{
		capex:    capex,
		land:     landCostBase * scale,
		fixed:    fixed,
		variable: perKg * produced,
	}
}
