package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

func translateTechnology(ctx context.Context, t *Technology, fileDir string) (*config.Technology, error) {
	logger := ctxlog.FromContext(ctx).With("technology", t.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL technology to internal config model.")

	inputs, err := evalExpr(ctx, t.ModelInputs, "model_inputs")
	if err != nil {
		return nil, fmt.Errorf("technology '%s': %w", t.Name, err)
	}
	if inputs == cty.NilVal || inputs.IsNull() {
		inputs = cty.EmptyObjectVal
	}

	tech := &config.Technology{Name: t.Name, Inputs: inputs}
	for _, slot := range []struct {
		src *Model
		dst **config.ModelRef
	}{
		{t.Performance, &tech.Performance},
		{t.Cost, &tech.Cost},
		{t.Control, &tech.Control},
		{t.Financial, &tech.Financial},
	} {
		if slot.src == nil {
			continue
		}
		ref, err := translateModel(ctx, slot.src, fileDir)
		if err != nil {
			return nil, fmt.Errorf("technology '%s': %w", t.Name, err)
		}
		*slot.dst = ref
	}
	return tech, nil
}

func translateModel(ctx context.Context, m *Model, fileDir string) (*config.ModelRef, error) {
	cfg, err := evalExpr(ctx, m.Config, "config")
	if err != nil {
		return nil, err
	}
	if cfg == cty.NilVal || cfg.IsNull() {
		cfg = cty.EmptyObjectVal
	}
	loc := m.Location
	if loc != "" && !filepath.IsAbs(loc) {
		loc = filepath.Join(fileDir, loc)
	}
	return &config.ModelRef{
		Model:     m.Model,
		ClassName: m.ClassName,
		Location:  loc,
		Group:     m.Group,
		Config:    cfg,
	}, nil
}

func translatePlant(ctx context.Context, p *Plant, fileDir string) (*config.Plant, error) {
	finance, err := evalExpr(ctx, p.FinanceParameters, "finance_parameters")
	if err != nil {
		return nil, err
	}
	plant := &config.Plant{
		Life:     p.PlantLife,
		ATBYear:  p.ATBYear,
		CostYear: p.CostYear,
		PPAPrice: p.PPAPrice,
		Finance:  finance,
	}
	for _, c := range p.TechnologyInterconnections {
		plant.Interconnections = append(plant.Interconnections, config.Connection{Fields: c})
	}
	for _, c := range p.ResourceToTechConnections {
		plant.ResourceConnections = append(plant.ResourceConnections, config.Connection{Fields: c})
	}

	if p.Site == nil {
		return plant, nil
	}
	site := &config.Site{
		Latitude:  p.Site.Latitude,
		Longitude: p.Site.Longitude,
		Elevation: p.Site.Elevation,
		TimeZone:  p.Site.TimeZone,
	}
	for _, b := range p.Site.Boundaries {
		site.Boundaries = append(site.Boundaries, config.Boundary{X: b.X, Y: b.Y})
	}
	for _, r := range p.Site.Resources {
		cfg, err := bodyToObject(r.Remain)
		if err != nil {
			return nil, fmt.Errorf("site resource '%s': %w", r.Name, err)
		}
		filename := r.Filename
		if filename != "" && !filepath.IsAbs(filename) {
			filename = filepath.Join(fileDir, filename)
		}
		site.Resources = append(site.Resources, config.Resource{Name: r.Name, Filename: filename, Config: cfg})
	}
	plant.Site = site
	return plant, nil
}

func translateDriver(d *Driver, fileDir string) *config.Driver {
	out := &config.Driver{OutputFolder: d.OutputFolder}
	if d.Recorder != nil {
		out.Recorder = &config.Recorder{Flag: flagOrDefault(d.Recorder.Flag), File: d.Recorder.File}
	}
	if o := d.Optimization; o != nil {
		out.Optimization = &config.Optimization{
			Flag:    flagOrDefault(o.Flag),
			Solver:  o.Solver,
			MaxIter: o.MaxIter,
			Tol:     o.Tol,
		}
	}
	if e := d.DOE; e != nil {
		file := e.File
		if file != "" && !filepath.IsAbs(file) {
			file = filepath.Join(fileDir, file)
		}
		out.DOE = &config.DOE{
			Flag:      flagOrDefault(e.Flag),
			Generator: e.Generator,
			Levels:    e.Levels,
			Samples:   e.Samples,
			Seed:      e.Seed,
			File:      file,
		}
	}
	for _, v := range d.DesignVariables {
		out.DesignVariables = append(out.DesignVariables, config.DesignVariable{
			Tech:  v.Tech,
			Name:  v.Name,
			Flag:  flagOrDefault(v.Flag),
			Lower: v.Lower,
			Upper: v.Upper,
			Units: v.Units,
		})
	}
	for _, c := range d.Constraints {
		out.Constraints = append(out.Constraints, config.Constraint{
			Tech:   c.Tech,
			Name:   c.Name,
			Flag:   flagOrDefault(c.Flag),
			Lower:  c.Lower,
			Upper:  c.Upper,
			Equals: c.Equals,
			Units:  c.Units,
		})
	}
	if d.Objective != nil {
		out.Objective = &config.Objective{Name: d.Objective.Name, Ref: d.Objective.Ref}
	}
	return out
}
