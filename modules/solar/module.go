// Package solar provides a photovoltaic plant driven by clear-sky
// irradiance at the plant site, and its cost model.
package solar

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the solar models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("pv_plant_performance", newPerformance)
	r.Register("pv_plant_cost", newCost)
}
