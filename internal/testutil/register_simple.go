package testutil

import "github.com/vk/h2integrate/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single model factory.
type SimpleModule struct {
	Name    string
	Factory registry.Factory
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Name != "" && m.Factory != nil {
		r.Register(m.Name, m.Factory)
	}
}
