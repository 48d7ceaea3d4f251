// Package steel provides a hydrogen direct reduced iron and electric arc
// furnace steel plant. The cost model carries its own financials and
// reports the levelized cost of steel.
package steel

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the steel models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("steel_performance", newPerformance)
	r.Register("steel_cost", newCost)
}
