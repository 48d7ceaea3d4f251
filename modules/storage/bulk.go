package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

// storageType holds the installed cost per kg of capacity and the annual
// O&M as a fraction of it.
type storageType struct {
	capexPerKg   float64
	opexFraction float64
}

var storageTypes = map[string]storageType{
	"salt_cavern":       {capexPerKg: 25, opexFraction: 0.0285},
	"lined_rock_cavern": {capexPerKg: 52, opexFraction: 0.0285},
	"buried_pipe":       {capexPerKg: 516, opexFraction: 0.0285},
	"pressure_vessel":   {capexPerKg: 1000, opexFraction: 0.0285},
}

func storageTypeNames() []string {
	names := make([]string, 0, len(storageTypes))
	for n := range storageTypes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type bulkConfig struct {
	Type string `cty:"type,optional"`
	// Days fixes the capacity at that many days of mean production.
	Days float64 `cty:"days,optional"`
	// CapexPerKg overrides the cost of the type.
	CapexPerKg float64 `cty:"capex_per_kg,optional"`
}

// Bulk is a combined performance and cost model. It delivers the mean of
// its input as a flat stream and is sized to absorb every deviation from
// that mean over the year.
type Bulk struct {
	cfg  bulkConfig
	kind storageType
}

func newBulk(args registry.Args) (om.Component, error) {
	cfg := bulkConfig{Type: "salt_cavern"}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	kind, ok := storageTypes[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown storage type '%s'; expected one of %s",
			cfg.Type, strings.Join(storageTypeNames(), ", "))
	}
	if cfg.CapexPerKg > 0 {
		kind.capexPerKg = cfg.CapexPerKg
	}
	return &Bulk{cfg: cfg, kind: kind}, nil
}

// Setup implements om.Component.
func (c *Bulk) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("hydrogen_in", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("hydrogen_out", om.Val(0), n, om.Units("kg/h"))
	s.AddOutput("stored_hydrogen", om.Val(0), n, om.Units("kg"))
	s.AddOutput("max_capacity", om.Val(0), om.Units("kg"))
	s.AddOutput("storage_duration", om.Val(0), om.Units("h"), om.Desc("Capacity in hours of mean flow"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Balance returns the storage level needed to turn flow into a flat stream
// at its mean, starting empty, and the capacity that requires.
func Balance(flow []float64) (level []float64, capacity float64) {
	if len(flow) == 0 {
		return nil, 0
	}
	mean := floats.Sum(flow) / float64(len(flow))
	level = make([]float64, len(flow))
	var acc float64
	for i, f := range flow {
		acc += f - mean
		level[i] = acc
	}
	lo := min(0, floats.Min(level))
	floats.AddConst(-lo, level)
	return level, floats.Max(level)
}

// Compute implements om.Component.
func (c *Bulk) Compute(_ context.Context, in, out *om.Vars) error {
	flow := in.Array("hydrogen_in")
	mean := floats.Sum(flow) / float64(len(flow))
	level, capacity := Balance(flow)
	if c.cfg.Days > 0 {
		capacity = c.cfg.Days * 24 * mean
	}

	out.Set("hydrogen_out", mean)
	out.SetArray("stored_hydrogen", level)
	out.Set("max_capacity", capacity)
	if mean > 0 {
		out.Set("storage_duration", capacity/mean)
	} else {
		out.Set("storage_duration", 0)
	}
	capex := capacity * c.kind.capexPerKg
	out.Set("CapEx", capex)
	out.Set("OpEx", capex*c.kind.opexFraction)
	return nil
}
