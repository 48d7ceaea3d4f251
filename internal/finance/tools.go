package finance

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// AdjustDollarYear moves a cost from one dollar year to another at a
// constant inflation rate.
func AdjustDollarYear(cost float64, fromYear, toYear int, inflation float64) float64 {
	return cost * math.Pow(1+inflation, float64(toYear-fromYear))
}

// IsElectrolyzer reports whether a technology name denotes an electrolyzer,
// e.g. "electrolyzer" or "pem_electrolyzer".
func IsElectrolyzer(tech string) bool {
	return strings.Contains(tech, "electrolyzer")
}

// ItemName turns a technology name into a display name, e.g.
// "h2_storage" becomes "H2 Storage".
func ItemName(tech string) string {
	parts := strings.FieldsFunc(tech, func(r rune) bool { return r == '_' || r == ' ' })
	for i, p := range parts {
		parts[i] = titleCaser.String(p)
	}
	return strings.Join(parts, " ")
}

// systemName is the capital item name of a technology, always ending in a
// single "System".
func systemName(tech string) string {
	parts := strings.Fields(ItemName(tech))
	kept := parts[:0]
	for _, p := range parts {
		if p != "System" {
			kept = append(kept, p)
		}
	}
	return strings.Join(append(kept, "System"), " ")
}

// CapitalItemFor returns the capital item of a technology, depreciated with
// 7-year MACRS.
func CapitalItemFor(tech string, capex float64, refurb []float64) CapitalItem {
	return CapitalItem{
		Name:       systemName(tech),
		Cost:       capex,
		DeprType:   MACRS,
		DeprPeriod: 7,
		Refurb:     refurb,
	}
}

// FixedCostFor returns the annual O&M cost of a technology. Callers pricing
// plant technologies pass zero escalation: O&M is held flat in nominal
// dollars.
func FixedCostFor(tech string, opex, escalation float64) FixedCost {
	return FixedCost{
		Name:       ItemName(tech) + " O&M Cost",
		Usage:      1,
		Unit:       "$/year",
		Cost:       opex,
		Escalation: escalation,
	}
}

// VariableCostFor returns the production-proportional O&M cost of a
// technology, in dollars per unit of commodity.
func VariableCostFor(tech string, costPerUnit float64, unit string, escalation float64) Feedstock {
	return Feedstock{
		Name:       ItemName(tech) + " Variable O&M",
		Usage:      1,
		Unit:       "$/" + unit,
		Cost:       costPerUnit,
		Escalation: escalation,
	}
}

// ProductionTaxCredit returns a production tax credit whose real value is
// constant: it decays at the general inflation rate.
func ProductionTaxCredit(name string, value, inflation float64, sunsetYears int) Incentive {
	return Incentive{
		Name:        name,
		Value:       value,
		Decay:       -inflation,
		SunsetYears: sunsetYears,
		TaxCredit:   true,
	}
}

// YearsOfOperation returns the calendar year labels of every operating year.
// Operation starts in the calendar year installation ends in, so only
// completed years of installation move the first label.
func YearsOfOperation(life, startYear, installationMonths int) []string {
	first := startYear + installationMonths/12
	out := make([]string, life)
	for i := range out {
		out[i] = strconv.Itoa(first + i)
	}
	return out
}

// RefurbishmentSchedule returns the per-operating-year refurbishment
// fractions for equipment replaced every interval years at the given
// fraction of its capital cost. Non-positive intervals yield no
// refurbishment.
func RefurbishmentSchedule(life int, interval, fraction float64) []float64 {
	out := make([]float64, life)
	if interval <= 0 || fraction == 0 {
		return out
	}
	step := max(1, int(math.Round(interval)))
	for y := step; y < life; y += step {
		out[y] = fraction
	}
	return out
}
