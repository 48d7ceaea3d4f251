package h2i

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/recorder"
	"github.com/vk/h2integrate/internal/tracing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errNotRun = errors.New("model has not been run")

// Run sets the problem up and runs the driver. A recorder configured in
// the driver configuration receives every evaluation.
func (m *Model) Run(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, "h2i.run")
	defer func() { tracing.End(span, err) }()
	logger := ctxlog.FromContext(ctx)

	if r := m.Config.Driver.Recorder; r != nil && r.Flag {
		path := r.File
		if path == "" {
			path = "cases.sql"
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.OutputDir(), path)
		}
		rec, err := recorder.Open(ctx, path, m.Config.Name)
		if err != nil {
			return fmt.Errorf("failed to open recorder: %w", err)
		}
		m.prob.AddRecorder(rec)
		logger.Info("Recording cases.", "file", path, "run", rec.Run().ID)
	}

	if err := m.prob.Setup(ctx); err != nil {
		return fmt.Errorf("failed to set up plant model: %w", err)
	}
	if err := m.prob.RunDriver(ctx); err != nil {
		return err
	}
	m.ran = true
	logger.Info("Plant model run finished.", "evaluations", m.prob.Iterations())
	return nil
}

// GetVal returns a variable by promoted name, optionally in other units.
func (m *Model) GetVal(name string, unit ...string) ([]float64, error) {
	return m.prob.GetVal(name, unit...)
}

// GetScalar returns the first element of a variable.
func (m *Model) GetScalar(name string, unit ...string) (float64, error) {
	return m.prob.GetScalar(name, unit...)
}

// Close releases the recorders.
func (m *Model) Close() error {
	return m.prob.Close()
}

// PostProcess lists every input and output with units to w, prints the
// levelized costs and writes the hourly outputs to a CSV file in the
// output directory. It returns the path of that file.
func (m *Model) PostProcess(ctx context.Context, w io.Writer) (string, error) {
	if !m.ran {
		return "", errNotRun
	}
	if err := m.prob.ListInputs(w); err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	if err := m.prob.ListOutputs(w); err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	if err := m.WriteSummary(w); err != nil {
		return "", err
	}

	dir := m.OutputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := "timeseries.csv"
	if m.Config.Name != "" {
		name = m.Config.Name + "_timeseries.csv"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create timeseries file: %w", err)
	}
	if err := m.WriteTimeseries(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Info("Wrote timeseries.", "file", path)
	return path, nil
}

// Prices returns every levelized cost by promoted name.
func (m *Model) Prices() (map[string]float64, error) {
	out := make(map[string]float64, len(m.pricers))
	for _, p := range m.pricers {
		v, err := m.prob.GetScalar(p.output())
		if err != nil {
			return nil, err
		}
		out[p.output()] = v
	}
	return out, nil
}

// WriteSummary prints each levelized cost with its price breakdown.
func (m *Model) WriteSummary(w io.Writer) error {
	printer := message.NewPrinter(language.English)
	for _, p := range m.pricers {
		v, err := m.prob.GetScalar(p.output())
		if err != nil {
			return err
		}
		units, err := m.prob.Units(p.output())
		if err != nil {
			return err
		}
		printer.Fprintf(w, "%s: %.4f %s\n", p.output(), v, units)

		a := p.comp.Last()
		if a == nil {
			continue
		}
		items, err := a.PriceBreakdown()
		if err != nil {
			return fmt.Errorf("%s: %w", p.output(), err)
		}
		for _, it := range items {
			printer.Fprintf(w, "  %-50s %12.4f\n", it.Label, it.Value)
		}
		if s, err := a.Summary(); err == nil && len(s.YearLabels) > 0 {
			printer.Fprintf(w, "  Operating years: %s-%s\n", s.YearLabels[0], s.YearLabels[len(s.YearLabels)-1])
		}
	}
	return nil
}

// WriteTimeseries writes every hourly output as one CSV column, headed by
// its promoted name and units.
func (m *Model) WriteTimeseries(w io.Writer) error {
	vars, err := m.prob.Variables()
	if err != nil {
		return err
	}
	var cols []om.VarInfo
	for _, v := range vars {
		if !v.IsInput && len(v.Value) == config.HoursPerYear {
			cols = append(cols, v)
		}
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Promoted
		if c.Units != "" {
			header[i] += " (" + c.Units + ")"
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for t := range config.HoursPerYear {
		for i, c := range cols {
			row[i] = strconv.FormatFloat(c.Value[t], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
