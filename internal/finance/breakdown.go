package finance

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// BreakdownItem is one itemized cash flow of a solved analysis.
type BreakdownItem struct {
	Name string
	Type string
	// NPV is the present value of the line divided by the discounted
	// production, as seen by equity. Inflows are positive.
	NPV float64
}

// PriceItem is one labelled contribution to the levelized price.
type PriceItem struct {
	Label string
	Value float64
}

// CostBreakdown returns every cash flow line of the solved analysis per unit
// of discounted production.
func (a *Analysis) CostBreakdown() ([]BreakdownItem, error) {
	lines, npv, err := a.solvedLines()
	if err != nil {
		return nil, err
	}
	out := make([]BreakdownItem, len(lines))
	for i, l := range lines {
		out[i] = BreakdownItem{Name: l.name, Type: l.kind, NPV: npv[i]}
	}
	return out, nil
}

func (a *Analysis) solvedLines() ([]line, []float64, error) {
	if a.solved == nil {
		return nil, nil, errors.New("price has not been solved")
	}
	d := a.discountedProduction()
	if d == 0 {
		return nil, nil, fmt.Errorf("no %s is produced", a.params.Commodity.Name)
	}
	lines := a.cashFlows(a.solved.Price)
	npv := make([]float64, len(lines))
	for i, l := range lines {
		npv[i] = a.discount(l.flows) / d
	}
	return lines, npv, nil
}

// Abbreviation returns the levelized cost label of the commodity, e.g.
// "LCOH" for hydrogen.
func (a *Analysis) Abbreviation() string {
	return Abbreviation(a.params.Commodity.Name)
}

// Abbreviation returns "LCO" followed by the upper-cased first letter of
// the commodity name.
func Abbreviation(commodity string) string {
	r, _ := utf8.DecodeRuneInString(commodity)
	if r == utf8.RuneError {
		return "LCO"
	}
	return "LCO" + string(unicode.ToUpper(r))
}

// PriceBreakdown attributes the solved price to capital items, operating
// costs, taxes and finances. Debt service is shared among capital items in
// proportion to their cost. The last item is the total, which equals the
// solved price.
func (a *Analysis) PriceBreakdown() ([]PriceItem, error) {
	lines, npv, err := a.solvedLines()
	if err != nil {
		return nil, err
	}
	// Items are keyed per line so that two items sharing a display name
	// are attributed separately.
	cost := make(map[string]float64, len(lines))
	for i, l := range lines {
		cost[l.key] -= npv[i]
	}

	unit := a.params.Commodity.Unit
	if unit == "" {
		unit = "unit"
	}
	label := func(item string) string {
		return fmt.Sprintf("%s: %s ($/%s)", a.Abbreviation(), item, unit)
	}

	var out []PriceItem
	var total float64
	emit := func(item string, v float64) {
		out = append(out, PriceItem{Label: label(item), Value: v})
		total += v
	}

	var capTotal float64
	for i := range a.capital {
		capTotal += cost[itemKey("capital", i)]
	}
	capExpense := cost["Repayment of debt"] + cost["Interest expense"] +
		cost["Inflow of debt"] + cost["Sale of undepreciated capital"]
	for i, c := range a.capital {
		v := cost[itemKey("capital", i)]
		if capTotal != 0 {
			v += capExpense * cost[itemKey("capital", i)] / capTotal
		} else if len(a.capital) > 0 {
			v += capExpense / float64(len(a.capital))
		}
		emit(c.Name, v)
	}
	if len(a.capital) == 0 && capExpense != 0 {
		emit("Capital expenses", capExpense)
	}
	for i, f := range a.fixed {
		emit(f.Name, cost[itemKey("fixed", i)])
	}
	for i, f := range a.feedstocks {
		emit(f.Name, cost[itemKey("feedstock", i)])
	}
	for i, c := range a.coproducts {
		emit(c.Name, cost[itemKey("coproduct", i)])
	}
	for i, inc := range a.incentives {
		emit(inc.Name, cost[itemKey("incentive", i)])
	}
	emit("Administrative expenses", cost["Administrative expenses"])
	emit("Taxes", cost["Income taxes payable"]+cost["Monetized tax losses"]+cost["Capital gains taxes payable"])
	emit("Finances", cost["Non-depreciable assets"]+cost["Sale of non-depreciable assets"]+
		cost["Cash on hand reserve"]+cost["Cash on hand recovery"]+cost["Property insurance"])

	out = append(out, PriceItem{Label: label("Total"), Value: total})
	return out, nil
}

// LabelItem strips the levelized cost prefix and unit suffix from a price
// breakdown label.
func LabelItem(label string) string {
	_, item, ok := strings.Cut(label, ": ")
	if !ok {
		return label
	}
	if i := strings.LastIndex(item, " ($/"); i >= 0 {
		item = item[:i]
	}
	return item
}
