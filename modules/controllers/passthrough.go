package controllers

import (
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/modules/transport"
)

type resourceConfig struct {
	ResourceName  string `cty:"resource_name"`
	ResourceUnits string `cty:"resource_units"`
}

// newPassThrough hands <resource>_in on unchanged as <resource>_out.
func newPassThrough(args registry.Args) (om.Component, error) {
	var cfg resourceConfig
	if err := args.Decode("control", &cfg); err != nil {
		return nil, err
	}
	return transport.NewPassThrough(cfg.ResourceName, cfg.ResourceUnits), nil
}
