package om

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
)

// VarInfo describes one resolved variable.
type VarInfo struct {
	Name     string
	Promoted string
	Units    string
	Desc     string
	IsInput  bool
	Value    []float64
}

// Variables lists every component variable in declaration order. Input
// values are those their sources hold.
func (p *Problem) Variables() ([]VarInfo, error) {
	if !p.isSetup {
		return nil, errNotSetup
	}
	out := make([]VarInfo, 0, len(p.vars))
	for _, v := range p.vars {
		if v.owner.path == autoIVCName {
			continue
		}
		val, err := p.GetVal(v.abs)
		if err != nil {
			return nil, err
		}
		out = append(out, VarInfo{
			Name:     v.abs,
			Promoted: v.promoted,
			Units:    v.units(),
			Desc:     v.meta.desc,
			IsInput:  v.isInput,
			Value:    val,
		})
	}
	return out, nil
}

// ListInputs writes a table of every input.
func (p *Problem) ListInputs(w io.Writer) error {
	return p.list(w, true)
}

// ListOutputs writes a table of every output.
func (p *Problem) ListOutputs(w io.Writer) error {
	return p.list(w, false)
}

func (p *Problem) list(w io.Writer, inputs bool) error {
	vars, err := p.Variables()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "varname\tval\tunits\tprom_name")
	for _, v := range vars {
		if v.IsInput != inputs {
			continue
		}
		units := v.Units
		if units == "" {
			units = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, formatValue(v.Value), units, v.Promoted)
	}
	return tw.Flush()
}

func formatValue(vals []float64) string {
	switch len(vals) {
	case 0:
		return "[]"
	case 1:
		return strconv.FormatFloat(vals[0], 'g', 6, 64)
	default:
		return fmt.Sprintf("[%d values, sum %s]", len(vals), strconv.FormatFloat(floats.Sum(vals), 'g', 6, 64))
	}
}
