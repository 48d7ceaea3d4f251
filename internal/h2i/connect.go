package h2i

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/finance"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/modules/transport"
)

// connectTechnologies wires technology_interconnections,
// resource_to_tech_connections and the financial groups.
//
// A four field link [src, dst, item, type] places a transport component
// "<src>_to_<dst>_<type>" between "<src>.<item>_out" and
// "<dst>.<item>_in". Links into a combiner feed its electricity_in<N>
// inputs in the order they are listed. A three field link connects
// "<src>.<name>" to "<dst>.<name>" directly.
func (m *Model) connectTechnologies(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	plant := m.Config.Plant

	combinerFeeds := make(map[string]int)
	for _, c := range plant.Interconnections {
		switch c.Arity() {
		case 4:
			src, dst, item, kind := c.Source(), c.Dest(), c.Item(), c.Transport()
			name := fmt.Sprintf("%s_to_%s_%s", src, dst, kind)
			link, err := m.registry.Build(m.args(kind, "transport", nil))
			if err != nil {
				return fmt.Errorf("connection %s: %w", config.FormatFields(c.Fields), err)
			}
			m.plant.AddComponent(name, link)
			m.plant.Connect(src+"."+item+"_out", name+"."+item+"_in")

			target := dst + "." + item + "_in"
			if strings.Contains(dst, "combiner") {
				combinerFeeds[dst]++
				target = dst + "." + transport.InputName(combinerFeeds[dst])
			}
			m.plant.Connect(name+"."+item+"_out", target)
			logger.Debug("Connected technologies.", "source", src, "destination", target, "transport", name)
		case 3:
			src, dst, param := c.Source(), c.Dest(), c.Item()
			m.plant.Connect(src+"."+param, dst+"."+param)
			logger.Debug("Connected technologies.", "source", src, "destination", dst, "variable", param)
		default:
			return fmt.Errorf("Invalid connection: %s", config.FormatFields(c.Fields))
		}
	}

	for _, c := range plant.ResourceConnections {
		if c.Arity() != 3 {
			return fmt.Errorf("Invalid resource to tech connection: %s", config.FormatFields(c.Fields))
		}
		res, tech, variable := c.Source(), c.Dest(), c.Item()
		m.root.Connect(res+"."+variable, tech+"."+variable)
	}

	for _, g := range m.groups {
		if g.built {
			m.connectFinancialGroup(g)
		}
	}

	for _, c := range plant.Interconnections {
		if strings.HasPrefix(c.Source(), "financials_group_") && c.Dest() == "ammonia" {
			// The price computed from ammonia's costs feeds back into
			// ammonia.
			logger.Debug("Financial group feeds ammonia; iterating the plant to convergence.", "group", c.Source())
			m.plant.SetNonlinearSolver(om.NewNonlinearBlockGS())
			break
		}
	}
	return nil
}

func (m *Model) connectFinancialGroup(g *financialGroup) {
	group := g.Name()
	for _, p := range g.Producers {
		m.plant.Connect(p+".electricity_out", group+".electricity_sum.electricity_"+p)
	}
	if g.prices("electricity") {
		m.plant.Connect(group+".electricity_sum.total_electricity_produced", group+".total_electricity_produced")
	}

	h2Wired := false
	for _, tc := range g.Costs {
		name := tc.Name
		m.plant.Connect(name+".CapEx", group+".capex_"+name)
		m.plant.Connect(name+".OpEx", group+".opex_"+name)

		switch {
		case finance.IsElectrolyzer(name) && !h2Wired && g.prices("hydrogen"):
			h2Wired = true
			m.plant.Connect(name+".total_hydrogen_produced", group+".total_hydrogen_produced")
			m.plant.Connect(name+".time_until_replacement", group+".time_until_replacement")
		case name == "ammonia" && g.prices("ammonia"):
			m.plant.Connect(name+".total_ammonia_produced", group+".total_ammonia_produced")
		case name == "doc" && g.prices("co2"):
			m.plant.Connect(name+".co2_capture_mtpy", group+".co2_capture_kgpy")
		}
	}
}
