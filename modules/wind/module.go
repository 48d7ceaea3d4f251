// Package wind provides a wind plant built from a generic turbine power
// curve, and its cost model.
package wind

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the wind models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("wind_plant_performance", newPerformance)
	r.Register("wind_plant_cost", newCost)
}
