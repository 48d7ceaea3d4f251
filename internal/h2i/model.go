package h2i

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/luamodel"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Options tune how a model is built and where it writes.
type Options struct {
	// CacheDir is handed to models that memoize results.
	CacheDir string
	// OutputDir overrides the driver's output folder.
	OutputDir string
	// CustomLoader loads custom models; luamodel.Load when nil.
	CustomLoader registry.CustomLoader
}

// Model is a plant model ready to run.
type Model struct {
	Config *config.Model

	opts     Options
	registry *registry.Registry
	prob     *om.Problem
	root     *om.Group
	plant    *om.Group

	// techNames lists every non-feedstock technology in configuration
	// order.
	techNames []string
	groups    []*financialGroup
	pricers   []pricer
	ran       bool
}

// Load reads the configuration at path and builds the model from it.
func Load(ctx context.Context, loader config.Loader, path string, reg *registry.Registry, opts Options) (*Model, error) {
	cfg, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(ctx, cfg, reg, opts)
}

// New validates a loaded configuration and builds the model for it. The
// registry is copied before custom models are added to it.
func New(ctx context.Context, cfg *config.Model, reg *registry.Registry, opts Options) (m *Model, err error) {
	ctx, span := tracing.Start(ctx, "h2i.build", attribute.String("h2i.name", cfg.Name))
	defer func() { tracing.End(span, err) }()
	logger := ctxlog.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.CustomLoader == nil {
		opts.CustomLoader = luamodel.Load
	}
	if cfg.Driver == nil {
		cfg.Driver = &config.Driver{}
	}
	m = &Model{
		Config:   cfg,
		opts:     opts,
		registry: reg.Clone(),
		root:     om.NewGroup(),
	}
	m.prob = om.NewProblem(m.root)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"collect custom models", m.collectCustomModels},
		{"create site model", m.createSiteModel},
		{"create plant model", m.createPlantModel},
		{"create technology models", m.createTechnologyModels},
		{"create financial model", m.createFinancialModel},
		{"connect technologies", m.connectTechnologies},
		{"create driver model", m.createDriverModel},
	}
	for _, s := range steps {
		logger.Debug("Building plant model.", "step", s.name)
		if err := s.fn(ctx); err != nil {
			return nil, err
		}
	}
	logger.Info("Plant model built.", "name", cfg.Name, "technologies", len(m.techNames), "financial_groups", len(m.groups))
	return m, nil
}

func (m *Model) collectCustomModels(ctx context.Context) error {
	if err := m.registry.CollectCustomModels(ctx, m.Config, m.opts.CustomLoader); err != nil {
		return err
	}
	return m.registry.Validate(ctx, m.Config)
}

func (m *Model) createPlantModel(context.Context) error {
	m.plant = m.root.AddGroup("plant", "*")
	m.plant.SetAutoOrder(true)
	return nil
}

// Problem returns the underlying problem.
func (m *Model) Problem() *om.Problem { return m.prob }

// Registry returns the registry the model was built with, custom models
// included.
func (m *Model) Registry() *registry.Registry { return m.registry }

// OutputDir is where post-processing and the recorder write.
func (m *Model) OutputDir() string {
	if m.opts.OutputDir != "" {
		return m.opts.OutputDir
	}
	dir := m.Config.Driver.OutputFolder
	if dir == "" {
		return m.Config.BaseDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.Config.BaseDir, dir)
	}
	return dir
}

func (m *Model) args(name, kind string, tech *config.Technology) registry.Args {
	return registry.Args{
		Name:     name,
		Kind:     kind,
		Driver:   m.Config.Driver,
		Plant:    m.Config.Plant,
		Tech:     tech,
		CacheDir: m.opts.CacheDir,
	}
}
