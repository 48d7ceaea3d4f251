package steel

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/finance"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

// Consumption per tonne of liquid steel.
const (
	hydrogenPerTonne    = 0.06596 // t
	electricityPerTonne = 0.5502  // MWh
	naturalGasPerTonne  = 0.71657 // MMBtu
	waterPerTonne       = 0.80367 // t
	limePerTonne        = 0.01812 // t
	carbonPerTonne      = 0.0538  // t
	ironOrePerTonne     = 1.62927 // t
	slagPerTonne        = 0.17433 // t
	oxygenPerTonne      = 0.02    // t sold
)

// fixedOMFraction is the share of capital spent every year on labor and
// maintenance.
const fixedOMFraction = 0.04

// capitalItem scales as coeff * capacity^exp, capacity in t/year.
type capitalItem struct {
	name  string
	coeff float64
	exp   float64
}

var capitalItems = []capitalItem{
	{"EAF & Casting", 352191.5237, 0.456},
	{"Shaft Furnace", 489.68061, 0.88741},
	{"Oxygen Supply", 1715.21508, 0.64574},
	{"H2 Pre-heating", 45.69123, 0.86564},
	{"Cooling Tower", 2513.08314, 0.63325},
	{"Piping", 11815.72718, 0.59983},
	{"Electrical & Instrumentation", 7877.15146, 0.59983},
	{"Buildings, Storage, Water Service", 1097.81876, 0.8},
	{"Other Miscellaneous Costs", 7877.1546, 0.59983},
}

type costConfig struct {
	Capacity       float64 `cty:"plant_capacity_mtpy"`
	CapacityFactor float64 `cty:"plant_capacity_factor"`
	// LCOH seeds the hydrogen price when nothing is connected.
	LCOH float64 `cty:"lcoh,optional"`

	ElectricityCost  float64 `cty:"electricity_cost,optional"`
	NaturalGasPrice  float64 `cty:"natural_gas_prices,optional"`
	WaterCost        float64 `cty:"raw_water_unitcost,optional"`
	LimeCost         float64 `cty:"lime_unitcost,optional"`
	CarbonCost       float64 `cty:"carbon_unitcost,optional"`
	IronOreCost      float64 `cty:"iron_ore_pellet_unitcost,optional"`
	SlagDisposalCost float64 `cty:"slag_disposal_unitcost,optional"`
	OxygenPrice      float64 `cty:"oxygen_market_price,optional"`
}

// Cost sizes the plant capital from its capacity, prices its feedstocks
// and solves the levelized cost of steel over the plant life.
type Cost struct {
	cfg  costConfig
	life int
	fp   finance.FinanceParameters
}

func newCost(args registry.Args) (om.Component, error) {
	cfg := costConfig{
		ElectricityCost:  48.92,
		NaturalGasPrice:  4,
		WaterCost:        0.59289,
		LimeCost:         122.1,
		CarbonCost:       236.97,
		IronOreCost:      207.35,
		SlagDisposalCost: 37.63,
	}
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("plant_capacity_mtpy must be positive, got %g", cfg.Capacity)
	}
	if args.Plant == nil || !args.Plant.HasFinance() {
		return nil, fmt.Errorf("steel_cost requires plant finance_parameters")
	}
	fp, err := finance.DecodeFinanceParameters(args.Plant)
	if err != nil {
		return nil, err
	}
	return &Cost{cfg: cfg, life: args.Plant.Life, fp: fp}, nil
}

// Setup implements om.Component.
func (c *Cost) Setup(s *om.Spec) error {
	s.AddInput("plant_capacity_mtpy", om.Val(c.cfg.Capacity), om.Units("t/year"))
	s.AddInput("plant_capacity_factor", om.Val(c.cfg.CapacityFactor), om.Units("unitless"))
	s.AddInput("LCOH", om.Val(c.cfg.LCOH), om.Units("USD/kg"))
	s.AddInput("electricity_cost", om.Val(c.cfg.ElectricityCost), om.Units("USD/MW/h"))
	s.AddInput("natural_gas_prices", om.Val(c.cfg.NaturalGasPrice), om.Units("USD/MMBtu"))

	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("LCOS", om.Val(0), om.Units("USD/t"), om.Desc("Levelized cost of steel"))
	return nil
}

func capitalCosts(capacity float64) []finance.CapitalItem {
	out := make([]finance.CapitalItem, len(capitalItems))
	for i, it := range capitalItems {
		out[i] = finance.CapitalItem{
			Name:       it.name,
			Cost:       it.coeff * math.Pow(capacity, it.exp),
			DeprType:   finance.MACRS,
			DeprPeriod: 7,
		}
	}
	return out
}

// feedstocks returns the cost of every input per tonne of steel.
func (c *Cost) feedstocks(lcoh, elecCost, ngPrice float64) []finance.Feedstock {
	g := c.fp.ProfastGeneralInflation
	return []finance.Feedstock{
		{Name: "Hydrogen", Usage: hydrogenPerTonne * 1000, Unit: "kg", Cost: lcoh, Escalation: g},
		{Name: "Electricity", Usage: electricityPerTonne, Unit: "MWh", Cost: elecCost, Escalation: g},
		{Name: "Natural Gas", Usage: naturalGasPerTonne, Unit: "MMBtu", Cost: ngPrice, Escalation: g},
		{Name: "Raw Water", Usage: waterPerTonne, Unit: "t", Cost: c.cfg.WaterCost, Escalation: g},
		{Name: "Lime", Usage: limePerTonne, Unit: "t", Cost: c.cfg.LimeCost, Escalation: g},
		{Name: "Carbon", Usage: carbonPerTonne, Unit: "t", Cost: c.cfg.CarbonCost, Escalation: g},
		{Name: "Iron Ore", Usage: ironOrePerTonne, Unit: "t", Cost: c.cfg.IronOreCost, Escalation: g},
		{Name: "Slag Disposal", Usage: slagPerTonne, Unit: "t", Cost: c.cfg.SlagDisposalCost, Escalation: g},
	}
}

// Compute implements om.Component.
func (c *Cost) Compute(ctx context.Context, in, out *om.Vars) error {
	capacity := in.Scalar("plant_capacity_mtpy")
	cf := in.Scalar("plant_capacity_factor")
	fp := c.fp

	items := capitalCosts(capacity)
	var capex float64
	for _, it := range items {
		capex += it.Cost
	}
	fixed := fixedOMFraction * capex
	feeds := c.feedstocks(in.Scalar("LCOH"), in.Scalar("electricity_cost"), in.Scalar("natural_gas_prices"))
	var perTonne float64
	for _, f := range feeds {
		perTonne += f.Usage * f.Cost
	}
	out.Set("CapEx", capex)
	out.Set("OpEx", fixed+perTonne*capacity*cf)

	a := finance.NewAnalysis(finance.Params{
		Commodity: finance.Commodity{
			Name:         "steel",
			Unit:         "t",
			InitialPrice: 1000,
			Escalation:   fp.ProfastGeneralInflation,
		},
		CapacityPerDay:          capacity / 365,
		LongTermUtilization:     cf,
		AnalysisStartYear:       fp.AnalysisStartYear,
		OperatingLife:           c.life,
		InstallationMonths:      fp.InstallationTime,
		GeneralInflation:        fp.ProfastGeneralInflation,
		DiscountRate:            fp.DiscountRate,
		DebtEquityRatio:         fp.DebtEquityRatio,
		DebtType:                finance.DebtType(fp.DebtType),
		LoanPeriod:              fp.LoanPeriod,
		DebtInterestRate:        fp.DebtInterestRate,
		TotalIncomeTaxRate:      fp.TotalIncomeTaxRate,
		CapitalGainsTaxRate:     fp.CapitalGainsTaxRate,
		PropertyTaxAndInsurance: fp.PropertyTaxAndInsurance,
		AdminExpense:            fp.AdminExpense,
		CashOnHandMonths:        fp.CashOnhandMonths,
		TaxLossesMonetized:      fp.TaxLossesMonetized,
		SellUndepreciatedCap:    fp.SellUndepreciatedCap,
	})
	for _, it := range items {
		a.AddCapitalItem(it)
	}
	a.AddFixedCost(finance.FixedCost{
		Name:       "Annual Operating Labor and Maintenance",
		Usage:      1,
		Unit:       "$/year",
		Cost:       fixed,
		Escalation: fp.ProfastGeneralInflation,
	})
	for _, f := range feeds {
		a.AddFeedstock(f)
	}
	if c.cfg.OxygenPrice > 0 {
		a.AddCoproduct(finance.Coproduct{
			Name:       "Oxygen Sales",
			Usage:      oxygenPerTonne,
			Unit:       "t",
			Cost:       c.cfg.OxygenPrice,
			Escalation: fp.ProfastGeneralInflation,
		})
	}

	sol, err := a.SolvePrice()
	if err != nil {
		return fmt.Errorf("failed to solve LCOS: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Solved levelized cost", "output", "LCOS", "price", sol.Price, "iterations", sol.Iterations)
	out.Set("LCOS", sol.Price)
	return nil
}
