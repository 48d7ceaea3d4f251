package finance

import (
	"errors"
	"fmt"
	"math"
)

// Cash flow categories of breakdown rows.
const (
	TypeRevenue    = "Operating revenue"
	TypeExpense    = "Operating expenses"
	TypeInvestment = "Investment"
	TypeFinancing  = "Financing"
	TypeTax        = "Taxes"
)

const (
	maxBracketSteps = 200
	maxBisections   = 300
)

// line is one itemized stream of equity cash flows, inflows positive. key
// is unique per line even when display names collide.
type line struct {
	key   string
	name  string
	kind  string
	flows []float64
}

// Analysis is a levelized price calculation for one commodity.
type Analysis struct {
	params     Params
	capital    []CapitalItem
	fixed      []FixedCost
	feedstocks []Feedstock
	coproducts []Coproduct
	incentives []Incentive

	solved *Solution
}

// Solution is the result of SolvePrice.
type Solution struct {
	// Price is the first-year commodity price.
	Price float64
	// NPV is the residual equity NPV at Price.
	NPV        float64
	Iterations int
}

// NewAnalysis returns an analysis with the given parameters. A zero
// utilization means full utilization and an empty debt type means
// revolving debt.
func NewAnalysis(p Params) *Analysis {
	if p.LongTermUtilization == 0 {
		p.LongTermUtilization = 1
	}
	if p.DebtType == "" {
		p.DebtType = RevolvingDebt
	}
	return &Analysis{params: p}
}

// Params returns the parameters in effect.
func (a *Analysis) Params() Params { return a.params }

func (a *Analysis) AddCapitalItem(c CapitalItem) { a.capital = append(a.capital, c); a.solved = nil }

func (a *Analysis) AddFixedCost(f FixedCost) { a.fixed = append(a.fixed, f); a.solved = nil }

func (a *Analysis) AddFeedstock(f Feedstock) { a.feedstocks = append(a.feedstocks, f); a.solved = nil }

func (a *Analysis) AddCoproduct(c Coproduct) { a.coproducts = append(a.coproducts, c); a.solved = nil }

func (a *Analysis) AddIncentive(i Incentive) { a.incentives = append(a.incentives, i); a.solved = nil }

func (a *Analysis) validate() error {
	p := a.params
	var errs []error
	if p.OperatingLife <= 0 {
		errs = append(errs, fmt.Errorf("operating life must be positive, got %d", p.OperatingLife))
	}
	if p.CapacityPerDay <= 0 {
		errs = append(errs, fmt.Errorf("%s capacity must be positive, got %g", p.Commodity.Name, p.CapacityPerDay))
	}
	if p.DebtType != RevolvingDebt && p.DebtType != OneTimeLoan {
		errs = append(errs, fmt.Errorf("unknown debt type '%s'", p.DebtType))
	}
	if p.DiscountRate <= -1 {
		errs = append(errs, fmt.Errorf("discount rate must be greater than -1, got %g", p.DiscountRate))
	}
	for _, c := range a.capital {
		if _, err := DepreciationSchedule(c.DeprType, c.DeprPeriod); err != nil {
			errs = append(errs, fmt.Errorf("capital item '%s': %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

// years returns the number of construction periods and the total number of
// periods. Construction always takes at least one whole period, so partial
// years round up here even though calendar labels round down.
func (a *Analysis) years() (construction, total int) {
	construction = max(1, (a.params.InstallationMonths+11)/12)
	return construction, construction + a.params.OperatingLife
}

// OperatingYears returns the calendar year label of every operating year.
func (a *Analysis) OperatingYears() []string {
	return YearsOfOperation(a.params.OperatingLife, a.params.AnalysisStartYear, a.params.InstallationMonths)
}

func itemKey(kind string, i int) string { return fmt.Sprintf("%s/%d", kind, i) }

func escalate(rate float64, t int) float64 {
	return math.Pow(1+rate, float64(t))
}

// production returns the commodity produced in each period.
func (a *Analysis) production() []float64 {
	c, n := a.years()
	annual := a.params.CapacityPerDay * 365 * a.params.LongTermUtilization
	out := make([]float64, n)
	for t := c; t < n; t++ {
		out[t] = annual
	}
	return out
}

func (a *Analysis) discount(flows []float64) float64 {
	var sum float64
	for t, f := range flows {
		sum += f / math.Pow(1+a.params.DiscountRate, float64(t))
	}
	return sum
}

// discountedProduction is the present value of production weighted by the
// price escalation, so that the present value of sales is price times it.
func (a *Analysis) discountedProduction() float64 {
	q := a.production()
	for t := range q {
		q[t] *= escalate(a.params.Commodity.Escalation, t)
	}
	return a.discount(q)
}

func (a *Analysis) totalCapital() float64 {
	var k float64
	for _, c := range a.capital {
		k += c.Cost
	}
	return k
}

// cashFlows builds every itemized equity cash flow for the given price.
func (a *Analysis) cashFlows(price float64) []line {
	p := a.params
	c, n := a.years()
	g := p.GeneralInflation
	newFlow := func() []float64 { return make([]float64, n) }
	production := a.production()

	var lines []line
	addItem := func(key, name, kind string, f []float64) []float64 {
		lines = append(lines, line{key: key, name: name, kind: kind, flows: f})
		return f
	}
	add := func(name, kind string, f []float64) []float64 { return addItem(name, name, kind, f) }
	taxable := newFlow()

	sales := add("Sales", TypeRevenue, newFlow())
	for t := c; t < n; t++ {
		sales[t] = price * escalate(p.Commodity.Escalation, t) * production[t]
		taxable[t] += sales[t]
	}

	for i, cp := range a.coproducts {
		f := addItem(itemKey("coproduct", i), cp.Name, TypeRevenue, newFlow())
		for t := c; t < n; t++ {
			f[t] = cp.Usage * production[t] * cp.Cost * escalate(cp.Escalation, t)
			taxable[t] += f[t]
		}
	}

	for i, inc := range a.incentives {
		f := addItem(itemKey("incentive", i), inc.Name, TypeRevenue, newFlow())
		for t := c; t < n && t-c < inc.SunsetYears; t++ {
			f[t] = inc.Value * escalate(inc.Decay, t-c) * production[t]
			if !inc.TaxCredit {
				taxable[t] += f[t]
			}
		}
	}

	// Capital spending and the depreciation it creates. initialBook[t] is
	// the undepreciated initial capital at the start of period t.
	k := a.totalCapital()
	dep := newFlow()
	initialBook := make([]float64, n+1)
	for t := 0; t <= n; t++ {
		initialBook[t] = k
	}
	var undepreciated float64
	depreciate := func(amount float64, start int, sched []float64, initial bool) {
		left := amount
		for i, frac := range sched {
			t := start + i
			if t >= n {
				break
			}
			d := amount * frac
			dep[t] += d
			left -= d
			if initial {
				for s := t + 1; s <= n; s++ {
					initialBook[s] -= d
				}
			}
		}
		undepreciated += left
	}
	for i, item := range a.capital {
		sched, _ := DepreciationSchedule(item.DeprType, item.DeprPeriod)
		f := addItem(itemKey("capital", i), item.Name, TypeInvestment, newFlow())
		for t := 0; t < c; t++ {
			f[t] = -item.Cost / float64(c)
		}
		depreciate(item.Cost, c, sched, true)
		for i, frac := range item.Refurb {
			t := c + i
			if t >= n || frac == 0 {
				continue
			}
			amount := item.Cost * frac * escalate(g, t)
			f[t] -= amount
			depreciate(amount, t, sched, false)
		}
	}

	var firstYearOpex float64
	for i, fc := range a.fixed {
		f := addItem(itemKey("fixed", i), fc.Name, TypeExpense, newFlow())
		for t := c; t < n; t++ {
			f[t] = -fc.Usage * fc.Cost * escalate(fc.Escalation, t)
			taxable[t] += f[t]
		}
		firstYearOpex -= f[c]
	}
	for i, fs := range a.feedstocks {
		f := addItem(itemKey("feedstock", i), fs.Name, TypeExpense, newFlow())
		for t := c; t < n; t++ {
			f[t] = -fs.Usage * production[t] * fs.Cost * escalate(fs.Escalation, t)
			taxable[t] += f[t]
		}
		firstYearOpex -= f[c]
	}

	admin := add("Administrative expenses", TypeExpense, newFlow())
	property := add("Property insurance", TypeExpense, newFlow())
	for t := c; t < n; t++ {
		admin[t] = -p.AdminExpense * sales[t]
		property[t] = -p.PropertyTaxAndInsurance * k * escalate(g, t)
		taxable[t] += admin[t] + property[t]
	}

	land := add("Non-depreciable assets", TypeInvestment, newFlow())
	landSale := add("Sale of non-depreciable assets", TypeInvestment, newFlow())
	gainsTax := add("Capital gains taxes payable", TypeTax, newFlow())
	land[0] = -p.NonDepreciableAssets
	if p.SellNonDepreciableAssets {
		sale := p.NonDepreciableAssets * escalate(g, n-1)
		landSale[n-1] = sale
		if gain := sale - p.NonDepreciableAssets; gain > 0 {
			gainsTax[n-1] = -p.CapitalGainsTaxRate * gain
		}
	}

	reserve := add("Cash on hand reserve", TypeFinancing, newFlow())
	recovery := add("Cash on hand recovery", TypeFinancing, newFlow())
	cash := p.CashOnHandMonths / 12 * firstYearOpex
	reserve[c-1] = -cash
	recovery[n-1] = cash

	inflow := add("Inflow of debt", TypeFinancing, newFlow())
	interest := add("Interest expense", TypeFinancing, newFlow())
	repayment := add("Repayment of debt", TypeFinancing, newFlow())
	share := p.DebtEquityRatio / (1 + p.DebtEquityRatio)
	debt := share * k
	for t := 0; t < c; t++ {
		inflow[t] = debt / float64(c)
	}
	r := p.DebtInterestRate
	switch p.DebtType {
	case OneTimeLoan:
		periods := p.LoanPeriod
		if periods <= 0 {
			periods = p.OperatingLife
		}
		payment := debt / float64(periods)
		if r != 0 {
			payment = debt * r / (1 - math.Pow(1+r, -float64(periods)))
		}
		bal := debt
		for t := c; t < n && bal > 0; t++ {
			interest[t] = -bal * r
			principal := payment - bal*r
			if t-c == periods-1 || t == n-1 {
				principal = bal
			}
			repayment[t] = -principal
			bal -= principal
		}
	case RevolvingDebt:
		for t := c; t < n; t++ {
			bal := share * initialBook[t]
			interest[t] = -bal * r
			next := share * initialBook[t+1]
			if t == n-1 {
				next = 0
			}
			repayment[t] = -(bal - next)
		}
	}
	for t := c; t < n; t++ {
		taxable[t] += interest[t] - dep[t]
	}

	incomeTax := add("Income taxes payable", TypeTax, newFlow())
	monetized := add("Monetized tax losses", TypeTax, newFlow())
	var carried float64
	for t := c; t < n; t++ {
		ti := taxable[t]
		if !p.TaxLossesMonetized {
			if ti > 0 {
				used := min(carried, ti)
				ti -= used
				carried -= used
			} else {
				carried -= ti
				ti = 0
			}
		}
		tax := p.TotalIncomeTaxRate * ti
		if tax > 0 {
			incomeTax[t] = -tax
		} else {
			monetized[t] = -tax
		}
	}

	salvage := add("Sale of undepreciated capital", TypeInvestment, newFlow())
	if p.SellUndepreciatedCap {
		salvage[n-1] = undepreciated
	}

	return lines
}

func (a *Analysis) equityNPV(lines []line) float64 {
	var sum float64
	for _, l := range lines {
		sum += a.discount(l.flows)
	}
	return sum
}

// NPV returns the equity net present value at the given price.
func (a *Analysis) NPV(price float64) (float64, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}
	return a.equityNPV(a.cashFlows(price)), nil
}

// SolvePrice finds the commodity price at which the equity NPV is zero.
// The NPV grows with the price, so the root is bracketed by stepping
// outwards and then bisected.
func (a *Analysis) SolvePrice() (Solution, error) {
	if err := a.validate(); err != nil {
		return Solution{}, err
	}
	npv := func(price float64) float64 { return a.equityNPV(a.cashFlows(price)) }

	lo, hi := 0.0, math.Max(1, 2*math.Abs(a.params.Commodity.InitialPrice))
	flo, fhi := npv(lo), npv(hi)
	iterations := 2
	for i := 0; flo > 0; i++ {
		if i == maxBracketSteps {
			return Solution{}, fmt.Errorf("could not bracket the %s price", a.params.Commodity.Name)
		}
		width := hi - lo
		hi, fhi = lo, flo
		lo -= 2 * width
		flo = npv(lo)
		iterations++
	}
	for i := 0; fhi < 0; i++ {
		if i == maxBracketSteps {
			return Solution{}, fmt.Errorf("could not bracket the %s price", a.params.Commodity.Name)
		}
		width := hi - lo
		lo, flo = hi, fhi
		hi += 2 * width
		fhi = npv(hi)
		iterations++
	}

	for i := 0; i < maxBisections && hi-lo > 1e-12*math.Max(1, math.Abs(hi)); i++ {
		mid := lo + (hi-lo)/2
		fmid := npv(mid)
		iterations++
		if fmid < 0 {
			lo, flo = mid, fmid
		} else {
			hi, fhi = mid, fmid
		}
	}

	price := lo + (hi-lo)/2
	sol := Solution{Price: price, NPV: npv(price), Iterations: iterations}
	a.solved = &sol
	return sol, nil
}

// Summary holds headline values of a solved analysis.
type Summary struct {
	Price                float64
	DiscountedProduction float64
	TotalCapital         float64
	InitialDebt          float64
	ConstructionYears    int
	OperatingYears       int
	YearLabels           []string
	AnnualProduction     float64
}

// Summary returns the headline values. SolvePrice must have been called.
func (a *Analysis) Summary() (Summary, error) {
	if a.solved == nil {
		return Summary{}, errors.New("price has not been solved")
	}
	c, _ := a.years()
	p := a.params
	return Summary{
		Price:                a.solved.Price,
		DiscountedProduction: a.discountedProduction(),
		TotalCapital:         a.totalCapital(),
		InitialDebt:          p.DebtEquityRatio / (1 + p.DebtEquityRatio) * a.totalCapital(),
		ConstructionYears:    c,
		OperatingYears:       p.OperatingLife,
		YearLabels:           a.OperatingYears(),
		AnnualProduction:     p.CapacityPerDay * 365 * p.LongTermUtilization,
	}, nil
}
