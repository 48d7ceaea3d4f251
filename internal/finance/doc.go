// Package finance computes levelized commodity prices from annual cash
// flows.
//
// An Analysis collects capital items, fixed costs, feedstocks, coproducts and
// incentives for one commodity, builds nominal cash flows over the
// construction and operating years (depreciation, debt service, income
// taxes, reserves) and solves for the first-year commodity price at which
// the net present value of equity cash flows is zero. The same cash flows,
// itemized, give the cost breakdown and the per-item price breakdown.
//
// The components in this package wrap the solver for use in a plant model:
// ElectricitySumComp totals electricity production, AdjustedCapexOpexComp
// brings every technology's costs to one dollar year and ProFastComp
// produces the LCOx output of one commodity.
package finance
