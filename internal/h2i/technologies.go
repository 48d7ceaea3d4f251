package h2i

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
)

// combinedModels are performance models that also compute their own cost.
// Named as both performance and cost model they are added once.
var combinedModels = []string{"hopp", "h2_storage", "wombat"}

func isFeedstock(name string) bool {
	return strings.Contains(name, "feedstocks")
}

func isCombined(tech *config.Technology) bool {
	perf, cost := tech.Performance, tech.Cost
	return perf != nil && cost != nil && perf.Model != "" &&
		perf.Model == cost.Model && slices.Contains(combinedModels, perf.Model)
}

// createTechnologyModels adds one group per technology to the plant, in
// configuration order. Feedstocks are a single component instead.
func (m *Model) createTechnologyModels(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, tech := range m.Config.Technologies {
		if isFeedstock(tech.Name) {
			fc, err := NewFeedstockComponent(tech)
			if err != nil {
				return fmt.Errorf("technology '%s': %w", tech.Name, err)
			}
			m.plant.AddComponent(tech.Name, fc)
			logger.Debug("Added feedstocks.", "technology", tech.Name, "feedstocks", len(fc.feedstocks))
			continue
		}

		group := m.plant.AddGroup(tech.Name)
		m.techNames = append(m.techNames, tech.Name)

		if isCombined(tech) {
			if err := m.addModel(group, tech.Name, tech, "performance"); err != nil {
				return err
			}
			if tech.Control != nil && tech.Control.Model != "" {
				if err := m.addModel(group, tech.Control.Model, tech, "control"); err != nil {
					return err
				}
			}
			logger.Debug("Added combined technology.", "technology", tech.Name, "model", tech.Performance.Model)
			continue
		}

		for _, kind := range []string{"performance", "control", "cost"} {
			ref := tech.ModelRef(kind)
			if ref == nil || ref.Model == "" {
				if kind == "performance" {
					return fmt.Errorf("technology '%s': Model definition requires 'performance_model'.", tech.Name)
				}
				continue
			}
			if err := m.addModel(group, ref.Model, tech, kind); err != nil {
				return err
			}
		}
		if ref := tech.Financial; ref != nil && ref.Model != "" {
			if err := m.addModel(group, tech.Name+"_financial", tech, "financial"); err != nil {
				return err
			}
		}
		logger.Debug("Added technology.", "technology", tech.Name)
	}
	return nil
}

// addModel builds the model of the given kind and adds it to group under
// name with every variable promoted.
func (m *Model) addModel(group *om.Group, name string, tech *config.Technology, kind string) error {
	ref := tech.ModelRef(kind)
	comp, err := m.registry.Build(m.args(ref.Model, kind, tech))
	if err != nil {
		return fmt.Errorf("technology '%s': %w", tech.Name, err)
	}
	group.AddComponent(name, comp, "*")
	return nil
}
