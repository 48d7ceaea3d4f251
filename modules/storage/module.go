// Package storage provides hydrogen storage: a combined bulk storage model
// sized from the production profile, and a compressed gas tank with its
// cost.
package storage

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the storage models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("h2_storage", newBulk)
	r.Register("hydrogen_tank_performance", newTankPerformance)
	r.Register("hydrogen_tank_cost", newTankCost)
}
