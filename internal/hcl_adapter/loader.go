package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every HCL file at path and merges them into one model. At
// most one plant and one driver block may appear across all files.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, baseDir, err := findHCLFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{
		BaseDir:       baseDir,
		TechConfigDir: baseDir,
		Driver:        &config.Driver{},
	}
	parser := hclparse.NewParser()
	var plantSeen, driverSeen bool

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Name != nil {
			model.Name = *root.Name
		}
		if root.SystemSummary != nil {
			model.SystemSummary = *root.SystemSummary
		}
		fileDir := filepath.Dir(file)

		for _, t := range root.Technologies {
			tech, err := translateTechnology(ctx, t, fileDir)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Technologies = append(model.Technologies, tech)
		}
		for _, p := range root.Plants {
			if plantSeen {
				return nil, fmt.Errorf("%s: only one plant block is allowed", file)
			}
			plantSeen = true
			plant, err := translatePlant(ctx, p, fileDir)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Plant = plant
		}
		for _, d := range root.Drivers {
			if driverSeen {
				return nil, fmt.Errorf("%s: only one driver block is allowed", file)
			}
			driverSeen = true
			model.Driver = translateDriver(d, fileDir)
		}
	}

	if !plantSeen {
		return nil, fmt.Errorf("%s: a plant block is required", path)
	}
	logger.Debug("HCL loading complete.", "technologies", len(model.Technologies), "driver", driverSeen)
	return model, nil
}

// findHCLFiles returns the .hcl files at path in a stable order, and the
// directory relative paths are resolved against.
func findHCLFiles(path string) ([]string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, "", fmt.Errorf("%s is not an .hcl file", path)
		}
		return []string{path}, filepath.Dir(path), nil
	}
	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no .hcl files found in %s", path)
	}
	return files, path, nil
}
