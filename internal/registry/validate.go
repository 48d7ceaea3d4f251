package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
)

// Validate checks that every model the configuration names, including
// transport models of four field connections, is registered. It runs after
// custom models were collected.
func (r *Registry) Validate(ctx context.Context, m *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, tech := range m.Technologies {
		if strings.Contains(tech.Name, "feedstocks") {
			continue
		}
		for _, kind := range config.ModelKinds {
			ref := tech.ModelRef(kind)
			if ref == nil || ref.Model == "" {
				continue
			}
			if !r.Has(ref.Model) {
				errs = append(errs, fmt.Sprintf("technology '%s': %s_model '%s' is not a known model", tech.Name, kind, ref.Model))
			}
		}
	}

	if m.Plant != nil {
		for _, c := range m.Plant.Interconnections {
			if c.Arity() != 4 {
				continue
			}
			if !r.Has(c.Transport()) {
				errs = append(errs, fmt.Sprintf("connection %s: transport '%s' is not a known model", config.FormatFields(c.Fields), c.Transport()))
			}
		}
		if m.Plant.Site != nil {
			for _, res := range m.Plant.Site.Resources {
				if !r.Has(res.Name) {
					logger.Warn("Site resource has no registered model and is ignored.", "resource", res.Name)
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
