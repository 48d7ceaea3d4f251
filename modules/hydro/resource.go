package hydro

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

// discharge columns recognized in a river record, in order of preference.
var dischargeColumns = []string{"discharge_cfs", "discharge", "flow_cfs"}

// RiverResource publishes an hourly discharge record read from a CSV file.
type RiverResource struct {
	discharge []float64
}

func newRiverResource(args registry.Args) (om.Component, error) {
	if args.Filename == "" {
		return nil, errors.New("river_resource requires a filename")
	}
	f, err := os.Open(args.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open river resource: %w", err)
	}
	defer f.Close()

	d, err := ReadDischarge(f)
	if err != nil {
		return nil, fmt.Errorf("river resource '%s': %w", args.Filename, err)
	}
	return &RiverResource{discharge: d}, nil
}

// ReadDischarge reads a discharge record in cubic feet per second. Lines
// starting with '#' are comments; the first remaining row is the header.
// A record with more than a year of hours is truncated, a shorter one is
// an error.
func ReadDischarge(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := -1
	for _, want := range dischargeColumns {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no discharge column; expected one of %s", strings.Join(dischargeColumns, ", "))
	}

	out := make([]float64, 0, config.HoursPerYear)
	for len(out) < config.HoursPerYear {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(rec) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: missing discharge value", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			line, _ := cr.FieldPos(col)
			return nil, fmt.Errorf("line %d: invalid discharge %q", line, rec[col])
		}
		out = append(out, v)
	}
	if len(out) < config.HoursPerYear {
		return nil, fmt.Errorf("expected %d hourly values, got %d", config.HoursPerYear, len(out))
	}
	return out, nil
}

// Setup implements om.Component.
func (c *RiverResource) Setup(s *om.Spec) error {
	s.AddOutput("discharge", om.ArrayVal(c.discharge), om.Units("ft**3/s"))
	return nil
}

// Compute implements om.Component.
func (c *RiverResource) Compute(_ context.Context, _, out *om.Vars) error {
	out.SetArray("discharge", c.discharge)
	return nil
}
