// Package ammonia provides Haber-Bosch ammonia plant models: a capacity
// based plant with a scaled cost model, and a synthesis loop limited by its
// hydrogen, nitrogen and power feeds.
package ammonia

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the ammonia models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("simple_ammonia_performance", newSimplePerformance)
	r.Register("simple_ammonia_cost", newSimpleCost)
	r.Register("synloop_ammonia_performance", newSynloopPerformance)
	r.Register("synloop_ammonia_cost", newSynloopCost)
}
