package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration rooted at path and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}

// ExtensionLoader dispatches to a Loader by file extension, such as
// ".yaml" or ".hcl".
type ExtensionLoader map[string]Loader

// Load implements Loader.
func (e ExtensionLoader) Load(ctx context.Context, path string) (*Model, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := e[ext]
	if !ok {
		return nil, fmt.Errorf("no configuration loader for '%s' files", ext)
	}
	return l.Load(ctx, path)
}
