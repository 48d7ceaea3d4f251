// Package electrolyzer provides the PEM electrolyzer performance model and
// the cost models that can be paired with it.
//
// The performance model turns hourly electricity into hydrogen at a fixed
// specific energy, clipped to the stack rating and switched off below the
// minimum load. Cost models read the stack size from the shared
// electrolyzer_size_mw input so a driver can vary it.
package electrolyzer

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the electrolyzer models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("pem_electrolyzer_performance", newPerformance)
	r.Register("eco_pem_electrolyzer_performance", newPerformance)
	r.Register("basic_electrolyzer_cost", newBasicCost)
	r.Register("singlitico_electrolyzer_cost", newSingliticoCost)
	r.Register("pem_electrolyzer_cost", newCustomCost)
}
