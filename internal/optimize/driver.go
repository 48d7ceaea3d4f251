package optimize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
)

// NewDriver returns the driver the driver configuration asks for. Relative
// DOE files are resolved against baseDir.
func NewDriver(d *config.Driver, baseDir string) (om.Driver, error) {
	if !d.Active() {
		return om.RunOnce{}, nil
	}
	opt := d.Optimization != nil && d.Optimization.Flag
	doe := d.DOE != nil && d.DOE.Flag
	if opt && doe {
		return nil, errors.New("driver: optimization and design_of_experiments cannot both be enabled")
	}
	if opt {
		return NewOptimizer(d.Optimization.Solver, d.Optimization.MaxIter, d.Optimization.Tol)
	}

	gen, err := NewGenerator(d.DOE, baseDir)
	if err != nil {
		return nil, err
	}
	return &DOE{Generator: gen}, nil
}

// NewGenerator returns the case generator named in the DOE configuration.
func NewGenerator(c *config.DOE, baseDir string) (Generator, error) {
	switch strings.ToLower(c.Generator) {
	case "fullfact", "fullfactorial", "full_factorial", "fullfactorialgenerator":
		if c.Levels < 1 {
			return nil, fmt.Errorf("driver: full factorial design needs at least one level, got %d", c.Levels)
		}
		return FullFactorial{Levels: c.Levels}, nil
	case "uniform", "uniformgenerator":
		if c.Samples < 1 {
			return nil, fmt.Errorf("driver: uniform design needs at least one sample, got %d", c.Samples)
		}
		return Uniform{Samples: c.Samples, Seed: c.Seed}, nil
	case "csv", "csvgen", "csvgenerator":
		if c.File == "" {
			return nil, errors.New("driver: csv design needs a file")
		}
		path := c.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return CSVGenerator{File: path}, nil
	}
	return nil, fmt.Errorf("driver: unknown design of experiments generator '%s'", c.Generator)
}

// bounds returns the lower and upper bounds of the design variables.
func bounds(dvs []om.DesignVar) (lo, hi []float64) {
	lo = make([]float64, len(dvs))
	hi = make([]float64, len(dvs))
	for i, dv := range dvs {
		lo[i], hi[i] = dv.Lower, dv.Upper
	}
	return lo, hi
}

// setDesignVars writes x into the problem in each variable's units.
func setDesignVars(p *om.Problem, dvs []om.DesignVar, x []float64) error {
	for i, dv := range dvs {
		if err := p.SetScalar(dv.Name, x[i], dv.Units); err != nil {
			return fmt.Errorf("design variable '%s': %w", dv.Name, err)
		}
	}
	return nil
}

// indexed reads element index of a variable.
func indexed(p *om.Problem, name, units string, index int) (float64, error) {
	vals, err := p.GetVal(name, units)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(vals) {
		return 0, fmt.Errorf("index %d out of range for '%s' of length %d", index, name, len(vals))
	}
	return vals[index], nil
}
