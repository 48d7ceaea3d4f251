package h2i

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/finance"
)

// electricityProducers are the technologies whose electricity_out counts
// toward electricity production.
var electricityProducers = []string{"wind", "solar", "river", "hopp"}

// selfFinanced technologies price their own product; a financial group
// holding one of them is not built.
var selfFinanced = []string{"steel", "methanol", "geoh2"}

// pricer is a levelized cost component and the group holding it.
type pricer struct {
	group string
	comp  *finance.ProFastComp
}

// output is the promoted name of the price, e.g. financials_group_1.LCOH.
func (p pricer) output() string { return p.group + "." + p.comp.OutputName() }

// financialGroup is one set of technologies priced together.
type financialGroup struct {
	ID    string
	Techs []*config.Technology
	// Commodities are the priced commodities in pricing order.
	Commodities []string
	// Costs are the technologies contributing CapEx and OpEx.
	Costs []finance.TechCost
	// Producers are the electricity producing technologies of the group.
	Producers []string
	built     bool
}

// Name is the subsystem name of the group.
func (g *financialGroup) Name() string { return "financials_group_" + g.ID }

func (g *financialGroup) has(name string) bool {
	return slices.ContainsFunc(g.Techs, func(t *config.Technology) bool { return t.Name == name })
}

func (g *financialGroup) prices(commodity string) bool {
	return slices.Contains(g.Commodities, commodity)
}

// commodities returns what a group prices, following the technology
// names: an electrolyzer makes hydrogen, direct ocean capture makes CO2
// and any electricity producer makes electricity.
func commodities(g *financialGroup) []string {
	var out []string
	add := func(c string) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, pair := range [][2]string{
		{"steel", "steel"},
		{"electrolyzer", "hydrogen"},
		{"methanol", "methanol"},
		{"ammonia", "ammonia"},
		{"geoh2", "hydrogen"},
		{"doc", "co2"},
	} {
		found := g.has(pair[0])
		if pair[0] == "electrolyzer" {
			found = slices.ContainsFunc(g.Techs, func(t *config.Technology) bool { return finance.IsElectrolyzer(t.Name) })
		}
		if found {
			add(pair[1])
		}
	}
	for _, p := range electricityProducers {
		if g.has(p) {
			add("electricity")
		}
	}
	return out
}

// groupTechnologies partitions the technologies by financial_model.group,
// in order of first appearance. Without any group every technology is in
// group "1".
func (m *Model) groupTechnologies() []*financialGroup {
	var groups []*financialGroup
	byID := make(map[string]*financialGroup)
	for _, tech := range m.Config.Technologies {
		if tech.Financial == nil || tech.Financial.Group == "" {
			continue
		}
		id := tech.Financial.Group
		g, ok := byID[id]
		if !ok {
			g = &financialGroup{ID: id}
			byID[id] = g
			groups = append(groups, g)
		}
		g.Techs = append(g.Techs, tech)
	}
	if len(groups) == 0 {
		groups = []*financialGroup{{ID: "1", Techs: m.Config.Technologies}}
	}
	return groups
}

// createFinancialModel adds one financial group per set of technologies
// priced together. It does nothing without plant finance parameters.
func (m *Model) createFinancialModel(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	plant := m.Config.Plant
	if !plant.HasFinance() {
		logger.Debug("No finance_parameters; skipping financial model.")
		return nil
	}
	fp, err := finance.DecodeFinanceParameters(plant)
	if err != nil {
		return err
	}

	m.groups = m.groupTechnologies()
	for _, g := range m.groups {
		g.Commodities = commodities(g)
		if slices.ContainsFunc(selfFinanced, g.has) {
			logger.Debug("Financial group prices itself.", "group", g.ID)
			continue
		}
		if len(g.Commodities) == 0 {
			logger.Warn("Financial group has nothing to price.", "group", g.ID)
			continue
		}

		for _, tech := range g.Techs {
			if !hasCosts(tech) {
				continue
			}
			tc, err := finance.TechCostFor(tech, plant.CostYear)
			if err != nil {
				return err
			}
			g.Costs = append(g.Costs, tc)
		}
		for _, p := range electricityProducers {
			if g.has(p) && slices.Contains(m.techNames, p) {
				g.Producers = append(g.Producers, p)
			}
		}

		group := m.plant.AddGroup(g.Name())
		group.AddComponent("electricity_sum", &finance.ElectricitySumComp{Techs: g.Producers})
		group.AddComponent("adjusted_capex_opex_comp", finance.NewAdjustedCapexOpexComp(g.Costs, fp), "*")
		for i, commodity := range g.Commodities {
			pc, err := finance.NewProFastComp(commodity, g.Costs, plant, fp)
			if err != nil {
				return fmt.Errorf("financial group '%s': %w", g.ID, err)
			}
			group.AddComponent(fmt.Sprintf("profast_comp_%d", i), pc, "*")
			m.pricers = append(m.pricers, pricer{group: g.Name(), comp: pc})
		}
		g.built = true
		logger.Debug("Added financial group.", "group", g.ID, "commodities", g.Commodities, "technologies", len(g.Costs))
	}
	return nil
}

// hasCosts reports whether a technology outputs CapEx and OpEx.
func hasCosts(tech *config.Technology) bool {
	if isFeedstock(tech.Name) || isCombined(tech) {
		return true
	}
	return tech.Cost != nil && tech.Cost.Model != ""
}
