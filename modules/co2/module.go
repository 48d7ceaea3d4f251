// Package co2 provides direct ocean capture of carbon dioxide with
// electrodialysis units.
package co2

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the direct ocean capture models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("direct_ocean_capture_performance", newPerformance)
	r.Register("direct_ocean_capture_cost", newCost)
}
