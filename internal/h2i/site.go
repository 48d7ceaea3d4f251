package h2i

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
)

// createSiteModel adds the site group, promoted into the model. It holds
// the location as independent outputs and one component per site resource
// that has a registered model.
func (m *Model) createSiteModel(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	site := m.Config.Plant.Site
	group := m.root.AddGroup("site", "*")

	ivc := om.NewIndepVarComp().
		Add("latitude", om.Val(site.Latitude), om.Units("deg")).
		Add("longitude", om.Val(site.Longitude), om.Units("deg")).
		Add("elevation_m", om.Val(site.Elevation), om.Units("m")).
		Add("time_zone", om.Val(site.TimeZone), om.Units("h"))
	for i, b := range site.Boundaries {
		if len(b.X) == 0 || len(b.Y) == 0 {
			logger.Warn("Skipping empty site boundary.", "boundary", i)
			continue
		}
		ivc.Add(fmt.Sprintf("boundary_%d_x", i), om.ArrayVal(b.X), om.Units("m"))
		ivc.Add(fmt.Sprintf("boundary_%d_y", i), om.ArrayVal(b.Y), om.Units("m"))
	}
	group.AddComponent("site_component", ivc, "*")

	for _, res := range site.Resources {
		if !m.registry.Has(res.Name) {
			continue
		}
		args := m.args(res.Name, "resource", nil)
		args.Filename = res.Filename
		comp, err := m.registry.Build(args)
		if err != nil {
			return fmt.Errorf("site resource '%s': %w", res.Name, err)
		}
		group.AddComponent(res.Name, comp)
		logger.Debug("Added site resource.", "resource", res.Name, "file", args.Filename)
	}
	return nil
}
