// Package methanol provides the steam methane reforming methanol plant:
// performance, cost and a fixed-charge-rate levelized cost.
package methanol

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the methanol models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("smr_methanol_plant_performance", newPerformance)
	r.Register("smr_methanol_plant_cost", newCost)
	r.Register("methanol_plant_financial", newFinance)
}
