package optimize

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
)

// Generator produces the design variable values of every DOE case, one
// value per design variable in order.
type Generator interface {
	Cases(dvs []om.DesignVar) ([][]float64, error)
}

// FullFactorial spans every combination of Levels evenly spaced values
// between each variable's bounds. The last variable varies fastest.
type FullFactorial struct {
	Levels int
}

// Cases implements Generator.
func (g FullFactorial) Cases(dvs []om.DesignVar) ([][]float64, error) {
	if len(dvs) == 0 {
		return nil, nil
	}
	levels := make([][]float64, len(dvs))
	for i, dv := range dvs {
		levels[i] = make([]float64, g.Levels)
		for j := range levels[i] {
			if g.Levels == 1 {
				levels[i][j] = dv.Lower
				continue
			}
			levels[i][j] = dv.Lower + float64(j)*(dv.Upper-dv.Lower)/float64(g.Levels-1)
		}
	}

	out := [][]float64{{}}
	for _, vals := range levels {
		next := make([][]float64, 0, len(out)*len(vals))
		for _, prefix := range out {
			for _, v := range vals {
				c := make([]float64, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, v))
			}
		}
		out = next
	}
	return out, nil
}

// Uniform draws Samples cases uniformly between the bounds. The same seed
// gives the same cases.
type Uniform struct {
	Samples int
	Seed    uint64
}

// Cases implements Generator.
func (g Uniform) Cases(dvs []om.DesignVar) ([][]float64, error) {
	r := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))
	lo, hi := bounds(dvs)
	out := make([][]float64, g.Samples)
	for i := range out {
		out[i] = make([]float64, len(dvs))
		for j := range dvs {
			out[i][j] = lo[j] + r.Float64()*(hi[j]-lo[j])
		}
	}
	return out, nil
}

// CSVGenerator reads cases from a CSV file whose header names the design
// variables.
type CSVGenerator struct {
	File string
}

// Cases implements Generator.
func (g CSVGenerator) Cases(dvs []om.DesignVar) ([][]float64, error) {
	f, err := os.Open(g.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOE file: %w", err)
	}
	defer f.Close()
	return readCSVCases(f, dvs)
}

func readCSVCases(r io.Reader, dvs []om.DesignVar) ([][]float64, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read DOE file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("DOE file is empty")
	}

	columns := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		columns[strings.TrimSpace(h)] = i
	}
	idx := make([]int, len(dvs))
	for i, dv := range dvs {
		col, ok := columns[dv.Name]
		if !ok {
			return nil, fmt.Errorf("DOE file has no column for design variable '%s'", dv.Name)
		}
		idx[i] = col
	}

	out := make([][]float64, 0, len(records)-1)
	for n, rec := range records[1:] {
		row := make([]float64, len(dvs))
		for i, col := range idx {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("DOE file row %d, column '%s': %w", n+2, dvs[i].Name, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// DOE evaluates the model once per generated case.
type DOE struct {
	Generator Generator
}

// Run implements om.Driver.
func (d *DOE) Run(ctx context.Context, p *om.Problem) error {
	logger := ctxlog.FromContext(ctx)
	dvs := p.DesignVars()
	if len(dvs) == 0 {
		return fmt.Errorf("design of experiments requires at least one design variable")
	}
	cases, err := d.Generator.Cases(dvs)
	if err != nil {
		return err
	}
	logger.Info("Running design of experiments.", "cases", len(cases), "design_variables", len(dvs))

	for i, x := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := setDesignVars(p, dvs, x); err != nil {
			return err
		}
		if err := p.Evaluate(ctx, "doe"); err != nil {
			return fmt.Errorf("DOE case %d: %w", i, err)
		}
		logger.Debug("Evaluated DOE case.", "case", i, "values", x)
	}
	return nil
}
