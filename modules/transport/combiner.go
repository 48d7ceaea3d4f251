package transport

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"gonum.org/v1/gonum/floats"
)

const defaultCombinerInputs = 2

// Combiner sums electricity_in1 .. electricity_inN into electricity_out.
type Combiner struct {
	Inputs int
}

type combinerConfig struct {
	NumInputs int `cty:"num_inputs,optional"`
}

func newCombiner(args registry.Args) (om.Component, error) {
	var cfg combinerConfig
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	n := cfg.NumInputs
	if n == 0 {
		n = countFeeds(args)
	}
	if n == 0 {
		n = defaultCombinerInputs
	}
	if n < 0 {
		return nil, fmt.Errorf("num_inputs must be positive, got %d", n)
	}
	return &Combiner{Inputs: n}, nil
}

// countFeeds counts the transported links that end at the combiner.
func countFeeds(args registry.Args) int {
	if args.Tech == nil || args.Plant == nil {
		return 0
	}
	n := 0
	for _, c := range args.Plant.Interconnections {
		if c.Arity() == 4 && c.Dest() == args.Tech.Name {
			n++
		}
	}
	return n
}

// InputName returns the name of the i-th feed, counting from 1.
func InputName(i int) string {
	return fmt.Sprintf("electricity_in%d", i)
}

// Setup implements om.Component.
func (c *Combiner) Setup(s *om.Spec) error {
	for i := 1; i <= c.Inputs; i++ {
		s.AddInput(InputName(i), om.Val(0), om.Shape(config.HoursPerYear), om.Units("kW"))
	}
	s.AddOutput("electricity_out", om.Val(0), om.Shape(config.HoursPerYear), om.Units("kW"))
	return nil
}

// Compute implements om.Component.
func (c *Combiner) Compute(_ context.Context, in, out *om.Vars) error {
	total := make([]float64, config.HoursPerYear)
	for i := 1; i <= c.Inputs; i++ {
		floats.Add(total, in.Array(InputName(i)))
	}
	out.SetArray("electricity_out", total)
	return nil
}
