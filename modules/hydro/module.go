// Package hydro provides run-of-river hydropower and the river discharge
// resource that feeds it.
package hydro

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the hydro models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("river_resource", newRiverResource)
	r.Register("run_of_river_hydro_performance", newPerformance)
	r.Register("run_of_river_hydro_cost", newCost)
}
