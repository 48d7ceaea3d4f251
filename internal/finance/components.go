package finance

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
)

// FinanceParameters is the plant's finance_parameters block.
type FinanceParameters struct {
	AnalysisStartYear       int     `cty:"analysis_start_year,optional"`
	InstallationTime        int     `cty:"installation_time,optional"`
	ProfastGeneralInflation float64 `cty:"profast_general_inflation,optional"`
	CostingGeneralInflation float64 `cty:"costing_general_inflation,optional"`
	DiscountRate            float64 `cty:"discount_rate"`
	DebtEquityRatio         float64 `cty:"debt_equity_ratio,optional"`
	DebtType                string  `cty:"debt_type,optional"`
	LoanPeriod              int     `cty:"loan_period,optional"`
	DebtInterestRate        float64 `cty:"debt_interest_rate,optional"`
	TotalIncomeTaxRate      float64 `cty:"total_income_tax_rate,optional"`
	CapitalGainsTaxRate     float64 `cty:"capital_gains_tax_rate,optional"`
	PropertyTaxAndInsurance float64 `cty:"property_tax_and_insurance,optional"`
	AdminExpense            float64 `cty:"administrative_expense_percent_of_sales,optional"`
	CashOnhandMonths        float64 `cty:"cash_onhand_months,optional"`
	TaxLossesMonetized      bool    `cty:"tax_losses_monetized,optional"`
	SellUndepreciatedCap    bool    `cty:"sell_undepreciated_cap,optional"`
	DepreciationMethod      string  `cty:"depreciation_method,optional"`
	DepreciationPeriod      int     `cty:"depreciation_period,optional"`
	// DepreciationPeriodElectrolyzer defaults to DepreciationPeriod.
	DepreciationPeriodElectrolyzer int     `cty:"depreciation_period_electrolyzer,optional"`
	TargetDollarYear               int     `cty:"target_dollar_year,optional"`
	LandCost                       float64 `cty:"land_cost,optional"`
	HydrogenPTC                    float64 `cty:"hydrogen_ptc,optional"`
	PTCDuration                    int     `cty:"ptc_duration,optional"`
}

// DecodeFinanceParameters reads the finance parameters of a plant.
func DecodeFinanceParameters(plant *config.Plant) (FinanceParameters, error) {
	fp := FinanceParameters{
		AnalysisStartYear:  plant.ATBYear,
		DebtType:           string(RevolvingDebt),
		DepreciationMethod: string(MACRS),
		DepreciationPeriod: 7,
		TargetDollarYear:   plant.CostYear,
		PTCDuration:        10,
	}
	if !plant.HasFinance() {
		return fp, fmt.Errorf("plant has no finance_parameters")
	}
	if err := config.Decode(plant.Finance, &fp); err != nil {
		return fp, fmt.Errorf("finance_parameters: %w", err)
	}
	if fp.DepreciationPeriodElectrolyzer == 0 {
		fp.DepreciationPeriodElectrolyzer = fp.DepreciationPeriod
	}
	if _, err := DepreciationSchedule(Depreciation(fp.DepreciationMethod), fp.DepreciationPeriod); err != nil {
		return fp, fmt.Errorf("finance_parameters: %w", err)
	}
	if t := DebtType(fp.DebtType); t != RevolvingDebt && t != OneTimeLoan {
		return fp, fmt.Errorf("finance_parameters: unknown debt type '%s'", fp.DebtType)
	}
	return fp, nil
}

// TechCost holds what the finance components need to know about one
// technology beyond its connected costs.
type TechCost struct {
	Name string
	// CostYear is the dollar year of the technology's CapEx and OpEx.
	CostYear int
	// ReplacementCostPercent is the fraction of CapEx spent at every
	// stack replacement.
	ReplacementCostPercent float64
}

// TechCostFor reads the cost year and replacement cost of a technology from
// its shared and cost parameters. The cost year defaults to defaultYear.
func TechCostFor(tech *config.Technology, defaultYear int) (TechCost, error) {
	params, err := config.MergeSharedInputs(tech.Inputs, "cost")
	if err != nil {
		return TechCost{}, fmt.Errorf("technology '%s': %w", tech.Name, err)
	}
	year, err := config.Float(params, "cost_year", float64(defaultYear))
	if err != nil {
		return TechCost{}, fmt.Errorf("technology '%s': %w", tech.Name, err)
	}
	pct, err := config.Float(params, "replacement_cost_percent", 0)
	if err != nil {
		return TechCost{}, fmt.Errorf("technology '%s': %w", tech.Name, err)
	}
	return TechCost{Name: tech.Name, CostYear: int(year), ReplacementCostPercent: pct}, nil
}

// ElectricitySumComp totals the electricity of several producers into
// annual production.
type ElectricitySumComp struct {
	Techs []string
}

// Setup implements om.Component.
func (c *ElectricitySumComp) Setup(s *om.Spec) error {
	for _, t := range c.Techs {
		s.AddInput("electricity_"+t, om.ShapeByConn(), om.Units("kW"))
	}
	s.AddOutput("total_electricity_produced", om.Val(0), om.Units("kW*h/year"),
		om.Desc("Total electricity produced"))
	return nil
}

// Compute implements om.Component. Hourly power in kW sums to kWh per year.
func (c *ElectricitySumComp) Compute(_ context.Context, in, out *om.Vars) error {
	var total float64
	for _, t := range c.Techs {
		total += in.Sum("electricity_" + t)
	}
	out.Set("total_electricity_produced", total)
	return nil
}

// AdjustedCapexOpexComp brings each technology's CapEx and OpEx to the
// target dollar year.
type AdjustedCapexOpexComp struct {
	techs     []TechCost
	target    int
	inflation float64
}

// NewAdjustedCapexOpexComp returns the dollar year adjustment component.
func NewAdjustedCapexOpexComp(techs []TechCost, fp FinanceParameters) *AdjustedCapexOpexComp {
	return &AdjustedCapexOpexComp{techs: techs, target: fp.TargetDollarYear, inflation: fp.CostingGeneralInflation}
}

// Setup implements om.Component.
func (c *AdjustedCapexOpexComp) Setup(s *om.Spec) error {
	for _, t := range c.techs {
		s.AddInput("capex_"+t.Name, om.Val(0), om.Units("USD"))
		s.AddInput("opex_"+t.Name, om.Val(0), om.Units("USD/year"))
		s.AddOutput("capex_adjusted_"+t.Name, om.Val(0), om.Units("USD"))
		s.AddOutput("opex_adjusted_"+t.Name, om.Val(0), om.Units("USD/year"))
	}
	s.AddOutput("total_capex_adjusted", om.Val(0), om.Units("USD"))
	s.AddOutput("total_opex_adjusted", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *AdjustedCapexOpexComp) Compute(_ context.Context, in, out *om.Vars) error {
	var capex, opex float64
	for _, t := range c.techs {
		ca := AdjustDollarYear(in.Scalar("capex_"+t.Name), t.CostYear, c.target, c.inflation)
		op := AdjustDollarYear(in.Scalar("opex_"+t.Name), t.CostYear, c.target, c.inflation)
		out.Set("capex_adjusted_"+t.Name, ca)
		out.Set("opex_adjusted_"+t.Name, op)
		capex += ca
		opex += op
	}
	out.Set("total_capex_adjusted", capex)
	out.Set("total_opex_adjusted", opex)
	return nil
}

// production describes the production input of a commodity.
type production struct {
	input string
	units string
	unit  string
}

var productions = map[string]production{
	"electricity": {input: "total_electricity_produced", units: "kW*h/year", unit: "kWh"},
	"hydrogen":    {input: "total_hydrogen_produced", units: "kg/year", unit: "kg"},
	"ammonia":     {input: "total_ammonia_produced", units: "kg/year", unit: "kg"},
	"co2":         {input: "co2_capture_kgpy", units: "kg/year", unit: "kg"},
}

// Commodities lists the commodities ProFastComp can price.
func Commodities() []string {
	return []string{"electricity", "hydrogen", "ammonia", "co2"}
}

// ProFastComp solves the levelized price of one commodity from the adjusted
// costs of a set of technologies.
type ProFastComp struct {
	commodity string
	prod      production
	techs     []TechCost
	life      int
	fp        FinanceParameters

	mu   sync.Mutex
	last *Analysis
}

// NewProFastComp returns the pricing component for a commodity.
func NewProFastComp(commodity string, techs []TechCost, plant *config.Plant, fp FinanceParameters) (*ProFastComp, error) {
	prod, ok := productions[commodity]
	if !ok {
		return nil, fmt.Errorf("commodity '%s' cannot be priced; expected one of %s",
			commodity, strings.Join(Commodities(), ", "))
	}
	if plant.Life <= 0 {
		return nil, fmt.Errorf("plant_life must be positive, got %d", plant.Life)
	}
	return &ProFastComp{commodity: commodity, prod: prod, techs: techs, life: plant.Life, fp: fp}, nil
}

// OutputName is the name of the price output, e.g. "LCOH".
func (c *ProFastComp) OutputName() string { return Abbreviation(c.commodity) }

func (c *ProFastComp) hasElectrolyzer() bool {
	for _, t := range c.techs {
		if IsElectrolyzer(t.Name) {
			return true
		}
	}
	return false
}

// Setup implements om.Component.
func (c *ProFastComp) Setup(s *om.Spec) error {
	for _, t := range c.techs {
		s.AddInput("capex_adjusted_"+t.Name, om.Val(0), om.Units("USD"))
		s.AddInput("opex_adjusted_"+t.Name, om.Val(0), om.Units("USD/year"))
	}
	s.AddInput(c.prod.input, om.Val(0), om.Units(c.prod.units))
	if c.commodity == "hydrogen" && c.hasElectrolyzer() {
		s.AddInput("time_until_replacement", om.Val(80000), om.Units("h"))
	}
	units := "USD/kg"
	if c.commodity == "electricity" {
		units = "USD/kW/h"
	}
	s.AddOutput(c.OutputName(), om.Val(0), om.Units(units),
		om.Desc("Levelized cost of "+c.commodity))
	return nil
}

// Analysis builds the price analysis for the given input values.
func (c *ProFastComp) Analysis(in *om.Vars) (*Analysis, error) {
	fp := c.fp
	annual := in.Scalar(c.prod.input)
	a := NewAnalysis(Params{
		Commodity: Commodity{
			Name:         c.commodity,
			Unit:         c.prod.unit,
			InitialPrice: 1,
			Escalation:   fp.ProfastGeneralInflation,
		},
		CapacityPerDay:           annual / 365,
		LongTermUtilization:      1,
		AnalysisStartYear:        fp.AnalysisStartYear,
		OperatingLife:            c.life,
		InstallationMonths:       fp.InstallationTime,
		GeneralInflation:         fp.ProfastGeneralInflation,
		DiscountRate:             fp.DiscountRate,
		DebtEquityRatio:          fp.DebtEquityRatio,
		DebtType:                 DebtType(fp.DebtType),
		LoanPeriod:               fp.LoanPeriod,
		DebtInterestRate:         fp.DebtInterestRate,
		TotalIncomeTaxRate:       fp.TotalIncomeTaxRate,
		CapitalGainsTaxRate:      fp.CapitalGainsTaxRate,
		PropertyTaxAndInsurance:  fp.PropertyTaxAndInsurance,
		AdminExpense:             fp.AdminExpense,
		CashOnHandMonths:         fp.CashOnhandMonths,
		TaxLossesMonetized:       fp.TaxLossesMonetized,
		SellUndepreciatedCap:     fp.SellUndepreciatedCap,
		NonDepreciableAssets:     fp.LandCost,
		SellNonDepreciableAssets: fp.LandCost > 0,
	})

	for _, t := range c.techs {
		item := CapitalItemFor(t.Name, in.Scalar("capex_adjusted_"+t.Name), nil)
		item.DeprType = Depreciation(fp.DepreciationMethod)
		item.DeprPeriod = fp.DepreciationPeriod
		if IsElectrolyzer(t.Name) {
			item.DeprPeriod = fp.DepreciationPeriodElectrolyzer
			if in.Has("time_until_replacement") {
				years := in.Scalar("time_until_replacement") / config.HoursPerYear
				item.Refurb = RefurbishmentSchedule(c.life, years, t.ReplacementCostPercent)
			}
		}
		a.AddCapitalItem(item)
		a.AddFixedCost(FixedCostFor(t.Name, in.Scalar("opex_adjusted_"+t.Name), 0))
	}
	if c.commodity == "hydrogen" && fp.HydrogenPTC > 0 {
		a.AddIncentive(ProductionTaxCredit("Hydrogen PTC", fp.HydrogenPTC, fp.ProfastGeneralInflation, fp.PTCDuration))
	}
	return a, nil
}

// Compute implements om.Component. Without production the price is
// undefined and reported as zero.
func (c *ProFastComp) Compute(ctx context.Context, in, out *om.Vars) error {
	logger := ctxlog.FromContext(ctx)
	name := c.OutputName()
	if in.Scalar(c.prod.input) <= 0 {
		logger.Warn("No production, levelized cost set to zero", "commodity", c.commodity, "output", name)
		out.Set(name, 0)
		return nil
	}
	a, err := c.Analysis(in)
	if err != nil {
		return err
	}
	sol, err := a.SolvePrice()
	if err != nil {
		return fmt.Errorf("failed to solve %s: %w", name, err)
	}
	logger.Debug("Solved levelized cost", "output", name, "price", sol.Price, "iterations", sol.Iterations)
	out.Set(name, sol.Price)

	c.mu.Lock()
	c.last = a
	c.mu.Unlock()
	return nil
}

// Last returns the analysis of the most recent successful Compute, or nil.
func (c *ProFastComp) Last() *Analysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Commodity returns the priced commodity.
func (c *ProFastComp) Commodity() string { return c.commodity }
