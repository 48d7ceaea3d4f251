package yaml_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

func readFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to parse YAML file %s: %w", path, err)
	}
	return nil
}

// Load reads the top-level file and the files it references.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	var top topFile
	if err := readFile(path, &top); err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	model := &config.Model{
		Name:          top.Name,
		SystemSummary: top.SystemSummary,
		BaseDir:       base,
		Driver:        &config.Driver{},
	}

	if top.TechnologyConfig == "" {
		return nil, fmt.Errorf("%s: technology_config is required", path)
	}
	if top.PlantConfig == "" {
		return nil, fmt.Errorf("%s: plant_config is required", path)
	}

	techPath := filepath.Join(base, top.TechnologyConfig)
	techs, err := loadTechnologies(techPath)
	if err != nil {
		return nil, err
	}
	model.Technologies = techs
	model.TechConfigDir = filepath.Dir(techPath)
	logger.Debug("Technology configuration loaded.", "file", techPath, "count", len(techs))

	plantPath := filepath.Join(base, top.PlantConfig)
	plant, err := loadPlant(plantPath)
	if err != nil {
		return nil, err
	}
	model.Plant = plant
	logger.Debug("Plant configuration loaded.", "file", plantPath)

	if top.DriverConfig != "" {
		driverPath := filepath.Join(base, top.DriverConfig)
		driver, err := loadDriver(driverPath)
		if err != nil {
			return nil, err
		}
		model.Driver = driver
		logger.Debug("Driver configuration loaded.", "file", driverPath)
	}
	return model, nil
}

func loadTechnologies(path string) ([]*config.Technology, error) {
	var f techFile
	if err := readFile(path, &f); err != nil {
		return nil, err
	}
	names, nodes, err := mappingPairs(&f.Technologies)
	if err != nil {
		return nil, fmt.Errorf("%s: technologies: %w", path, err)
	}

	techs := make([]*config.Technology, 0, len(names))
	for i, name := range names {
		var entry techEntry
		if err := nodes[i].Decode(&entry); err != nil {
			return nil, fmt.Errorf("%s: technology '%s': %w", path, name, err)
		}
		inputs, err := toCty(&entry.ModelInputs)
		if err != nil {
			return nil, fmt.Errorf("%s: technology '%s': model_inputs: %w", path, name, err)
		}
		if inputs == cty.NilVal || inputs.IsNull() {
			inputs = cty.EmptyObjectVal
		}

		t := &config.Technology{Name: name, Inputs: inputs}
		for _, slot := range []struct {
			entry *modelEntry
			dst   **config.ModelRef
		}{
			{entry.Performance, &t.Performance},
			{entry.Cost, &t.Cost},
			{entry.Control, &t.Control},
			{entry.Financial, &t.Financial},
		} {
			if slot.entry == nil {
				continue
			}
			ref, err := translateModel(slot.entry)
			if err != nil {
				return nil, fmt.Errorf("%s: technology '%s': %w", path, name, err)
			}
			*slot.dst = ref
		}
		techs = append(techs, t)
	}
	return techs, nil
}

func translateModel(e *modelEntry) (*config.ModelRef, error) {
	cfg, err := toCty(&e.Config)
	if err != nil {
		return nil, err
	}
	if cfg == cty.NilVal || cfg.IsNull() {
		cfg = cty.EmptyObjectVal
	}
	return &config.ModelRef{
		Model:     e.Model,
		ClassName: e.ClassName,
		Location:  e.Location,
		Group:     e.Group.Value,
		Config:    cfg,
	}, nil
}

func loadPlant(path string) (*config.Plant, error) {
	var f plantFile
	if err := readFile(path, &f); err != nil {
		return nil, err
	}
	finance, err := toCty(&f.FinanceParameters)
	if err != nil {
		return nil, fmt.Errorf("%s: finance_parameters: %w", path, err)
	}

	site := &config.Site{
		Latitude:  f.Site.Latitude,
		Longitude: f.Site.Longitude,
		Elevation: f.Site.Elevation,
		TimeZone:  f.Site.TimeZone,
	}
	for _, b := range f.Site.Boundaries {
		site.Boundaries = append(site.Boundaries, config.Boundary{X: b.X, Y: b.Y})
	}
	names, nodes, err := mappingPairs(&f.Site.Resources)
	if err != nil {
		return nil, fmt.Errorf("%s: site.resources: %w", path, err)
	}
	for i, name := range names {
		var r resourceEntry
		if err := nodes[i].Decode(&r); err != nil {
			return nil, fmt.Errorf("%s: site resource '%s': %w", path, name, err)
		}
		cfg, err := toCty(nodes[i])
		if err != nil {
			return nil, fmt.Errorf("%s: site resource '%s': %w", path, name, err)
		}
		if r.Filename != "" && !filepath.IsAbs(r.Filename) {
			r.Filename = filepath.Join(filepath.Dir(path), r.Filename)
		}
		site.Resources = append(site.Resources, config.Resource{Name: name, Filename: r.Filename, Config: cfg})
	}

	plant := &config.Plant{
		Life:     f.Plant.PlantLife,
		ATBYear:  f.Plant.ATBYear,
		CostYear: f.Plant.CostYear,
		PPAPrice: f.Plant.PPAPrice,
		Site:     site,
		Finance:  finance,
	}
	for _, c := range f.TechnologyInterconnections {
		plant.Interconnections = append(plant.Interconnections, config.Connection{Fields: c})
	}
	for _, c := range f.ResourceToTechConnections {
		plant.ResourceConnections = append(plant.ResourceConnections, config.Connection{Fields: c})
	}
	return plant, nil
}

func loadDriver(path string) (*config.Driver, error) {
	var f driverFile
	if err := readFile(path, &f); err != nil {
		return nil, err
	}
	d := &config.Driver{OutputFolder: f.General.FolderOutput}
	if f.Recorder != nil {
		d.Recorder = &config.Recorder{Flag: f.Recorder.Flag, File: f.Recorder.File}
	}
	if o := f.Driver.Optimization; o != nil {
		d.Optimization = &config.Optimization{Flag: o.Flag, Solver: o.Solver, MaxIter: o.MaxIter, Tol: o.Tol}
	}
	if e := f.Driver.DOE; e != nil {
		d.DOE = &config.DOE{
			Flag:      e.Flag,
			Generator: e.Generator,
			Levels:    e.Levels,
			Samples:   e.Samples,
			Seed:      e.Seed,
			File:      e.File,
		}
		if e.File != "" && !filepath.IsAbs(e.File) {
			d.DOE.File = filepath.Join(filepath.Dir(path), e.File)
		}
	}
	for _, tech := range sortedKeys(f.DesignVariables) {
		vars := f.DesignVariables[tech]
		for _, name := range sortedKeys(vars) {
			v := vars[name]
			d.DesignVariables = append(d.DesignVariables, config.DesignVariable{
				Tech: tech, Name: name, Flag: v.Flag, Lower: v.Lower, Upper: v.Upper, Units: v.Units,
			})
		}
	}
	for _, tech := range sortedKeys(f.Constraints) {
		cons := f.Constraints[tech]
		for _, name := range sortedKeys(cons) {
			c := cons[name]
			d.Constraints = append(d.Constraints, config.Constraint{
				Tech: tech, Name: name, Flag: c.Flag, Lower: c.Lower, Upper: c.Upper, Equals: c.Equals, Units: c.Units,
			})
		}
	}
	if f.Objective != nil {
		d.Objective = &config.Objective{Name: f.Objective.Name, Ref: f.Objective.Ref}
	}
	return d, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
