package h2i

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/optimize"
)

// createDriverModel configures the driver, design variables, objective
// and constraints when the driver configuration asks for more than a
// single run.
func (m *Model) createDriverModel(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	d := m.Config.Driver
	if !d.Active() {
		return nil
	}

	driver, err := optimize.NewDriver(d, m.Config.BaseDir)
	if err != nil {
		return err
	}
	m.prob.SetDriver(driver)

	for _, dv := range d.DesignVariables {
		if !dv.Flag {
			continue
		}
		if dv.Upper < dv.Lower {
			return fmt.Errorf("design variable '%s.%s': upper bound %g is below lower bound %g", dv.Tech, dv.Name, dv.Upper, dv.Lower)
		}
		m.prob.AddDesignVar(om.DesignVar{
			Name:  dv.Tech + "." + dv.Name,
			Lower: dv.Lower,
			Upper: dv.Upper,
			Units: dv.Units,
		})
	}
	if len(m.prob.DesignVars()) == 0 {
		return errors.New("driver: no design variables are enabled")
	}

	for _, c := range d.Constraints {
		if !c.Flag {
			continue
		}
		m.prob.AddConstraint(om.Constraint{
			Name:   c.Tech + "." + c.Name,
			Lower:  c.Lower,
			Upper:  c.Upper,
			Equals: c.Equals,
			Units:  c.Units,
		})
	}

	if d.Objective != nil && d.Objective.Name != "" {
		m.prob.SetObjective(om.Objective{Name: d.Objective.Name, Ref: d.Objective.Ref})
	} else if d.Optimization != nil && d.Optimization.Flag {
		return errors.New("driver: optimization requires an objective")
	}
	logger.Debug("Driver configured.", "design_variables", len(m.prob.DesignVars()), "constraints", len(m.prob.Constraints()))
	return nil
}
