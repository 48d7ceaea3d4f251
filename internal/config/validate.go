package config

import (
	"errors"
	"fmt"
	"strings"
)

// FormatFields renders connection fields the way they appear in error
// messages: ['a', 'b', 'c'].
func FormatFields(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "'" + f + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Validate checks the structural rules every loader must enforce. It
// returns all violations joined.
func (m *Model) Validate() error {
	var errs []error
	if m.Plant == nil {
		return errors.New("plant configuration is required")
	}
	if m.Plant.Life <= 0 {
		errs = append(errs, fmt.Errorf("plant_life must be positive, got %d", m.Plant.Life))
	}
	if m.Plant.Site == nil {
		errs = append(errs, errors.New("site configuration is required"))
	}

	seen := make(map[string]bool, len(m.Technologies))
	for _, t := range m.Technologies {
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("technology '%s' is defined more than once", t.Name))
		}
		seen[t.Name] = true
		if strings.Contains(t.Name, "feedstocks") {
			continue
		}
		if t.Performance == nil || t.Performance.Model == "" {
			errs = append(errs, fmt.Errorf("technology '%s': Model definition requires 'performance_model'.", t.Name))
		}
	}

	for _, c := range m.Plant.Interconnections {
		if c.Arity() != 3 && c.Arity() != 4 {
			errs = append(errs, fmt.Errorf("Invalid connection: %s", FormatFields(c.Fields)))
		}
	}
	for _, c := range m.Plant.ResourceConnections {
		if c.Arity() != 3 {
			errs = append(errs, fmt.Errorf("Invalid resource to tech connection: %s", FormatFields(c.Fields)))
		}
	}
	return errors.Join(errs...)
}
