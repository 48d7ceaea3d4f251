package finance

// DebtType selects how the project debt is serviced.
type DebtType string

const (
	// RevolvingDebt keeps the balance at the debt share of the remaining
	// book value of the initial capital and repays the rest at the end.
	RevolvingDebt DebtType = "Revolving debt"
	// OneTimeLoan is a fixed-payment loan amortized over the loan period.
	OneTimeLoan DebtType = "One time loan"
)

// Depreciation is a depreciation method.
type Depreciation string

const (
	MACRS        Depreciation = "MACRS"
	StraightLine Depreciation = "Straight line"
)

// Commodity is the product whose price is solved for.
type Commodity struct {
	Name string
	Unit string
	// InitialPrice seeds the price search.
	InitialPrice float64
	// Escalation is the annual nominal growth of the price.
	Escalation float64
}

// Params are the project-wide financial assumptions.
type Params struct {
	Commodity Commodity
	// CapacityPerDay is the nameplate production in commodity units per day.
	CapacityPerDay float64
	// LongTermUtilization is the fraction of capacity actually produced.
	LongTermUtilization float64

	AnalysisStartYear  int
	OperatingLife      int
	InstallationMonths int

	GeneralInflation float64
	// DiscountRate is the nominal after-tax return on equity.
	DiscountRate float64

	DebtEquityRatio  float64
	DebtType         DebtType
	LoanPeriod       int
	DebtInterestRate float64

	TotalIncomeTaxRate  float64
	CapitalGainsTaxRate float64
	// PropertyTaxAndInsurance is a fraction of the initial capital paid
	// every operating year.
	PropertyTaxAndInsurance float64
	// AdminExpense is a fraction of sales.
	AdminExpense     float64
	CashOnHandMonths float64

	TaxLossesMonetized       bool
	SellUndepreciatedCap     bool
	NonDepreciableAssets     float64
	SellNonDepreciableAssets bool
}

// CapitalItem is an upfront investment. Refurb lists, per operating year,
// the fraction of Cost spent again on refurbishment.
type CapitalItem struct {
	Name       string
	Cost       float64
	DeprType   Depreciation
	DeprPeriod int
	Refurb     []float64
}

// FixedCost is an annual cost independent of production. The yearly amount
// is Usage * Cost.
type FixedCost struct {
	Name       string
	Usage      float64
	Unit       string
	Cost       float64
	Escalation float64
}

// Feedstock is consumed in proportion to production: Usage units of the
// feedstock per unit of commodity, each costing Cost.
type Feedstock struct {
	Name       string
	Usage      float64
	Unit       string
	Cost       float64
	Escalation float64
}

// Coproduct is sold in proportion to production.
type Coproduct struct {
	Name       string
	Usage      float64
	Unit       string
	Cost       float64
	Escalation float64
}

// Incentive pays Value per unit of commodity produced, changing by Decay
// each year, for the first SunsetYears operating years. Tax credits are
// not part of taxable income.
type Incentive struct {
	Name        string
	Value       float64
	Decay       float64
	SunsetYears int
	TaxCredit   bool
}
