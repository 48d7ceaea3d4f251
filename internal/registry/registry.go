package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all built-in model packages implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Args carries everything a factory may need to build a component.
type Args struct {
	// Name is the registered model name.
	Name string
	// Kind is the model slot: performance, cost, control, financial,
	// resource or transport.
	Kind   string
	Driver *config.Driver
	Plant  *config.Plant
	// Tech is nil for transport and resource components.
	Tech *config.Technology
	// Filename is the resource file of site resource components.
	Filename string
	// CacheDir is where expensive results may be memoized.
	CacheDir string
}

// Params merges the shared parameters of the technology with the
// parameters of the given kind.
func (a Args) Params(kind string) (cty.Value, error) {
	if a.Tech == nil {
		return cty.EmptyObjectVal, nil
	}
	return config.MergeSharedInputs(a.Tech.Inputs, kind)
}

// Decode merges the parameters of the given kind and decodes them into
// target.
func (a Args) Decode(kind string, target any) error {
	params, err := a.Params(kind)
	if err != nil {
		return err
	}
	if err := config.Decode(params, target); err != nil {
		return fmt.Errorf("%s_parameters: %w", kind, err)
	}
	return nil
}

// Factory builds a component.
type Factory func(Args) (om.Component, error)

// Registry holds the model factories of a single application instance.
type Registry struct {
	factories map[string]Factory
	builtin   map[string]bool
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		builtin:   make(map[string]bool),
	}
}

// Register adds a built-in model. Registering a name twice is a programmer
// error and panics.
func (r *Registry) Register(name string, f Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("model '%s' already registered", name))
	}
	slog.Debug("Registering model.", "name", name)
	r.factories[name] = f
	r.builtin[name] = true
}

// RegisterCustom adds a model loaded from the configuration.
func (r *Registry) RegisterCustom(name string, f Factory) error {
	if r.builtin[name] {
		return fmt.Errorf("custom model '%s' clashes with a built-in model", name)
	}
	r.factories[name] = f
	return nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// IsBuiltin reports whether name was registered by a built-in module.
func (r *Registry) IsBuiltin(name string) bool {
	return r.builtin[name]
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Clone returns an independent copy. Custom models registered into the
// copy do not leak into the original.
func (r *Registry) Clone() *Registry {
	return &Registry{
		factories: maps.Clone(r.factories),
		builtin:   maps.Clone(r.builtin),
	}
}

// Build looks up name and calls its factory.
func (r *Registry) Build(args Args) (om.Component, error) {
	f, ok := r.factories[args.Name]
	if !ok {
		return nil, fmt.Errorf("model '%s' is not registered", args.Name)
	}
	c, err := f(args)
	if err != nil {
		return nil, fmt.Errorf("failed to create model '%s': %w", args.Name, err)
	}
	return c, nil
}
