package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
)

// CustomLoader turns the file at path into a factory for the model named
// className inside it.
type CustomLoader func(ctx context.Context, path, className string) (Factory, error)

// CollectCustomModels registers every custom model the technologies name.
// A model name that is not registered must come with model_class_name and
// model_location; a built-in name must come with neither.
func (r *Registry) CollectCustomModels(ctx context.Context, m *config.Model, load CustomLoader) error {
	logger := ctxlog.FromContext(ctx)

	for _, tech := range m.Technologies {
		for _, kind := range config.ModelKinds {
			ref := tech.ModelRef(kind)
			if ref == nil || ref.Model == "" {
				continue
			}
			modelType := kind + "_model"

			if r.IsBuiltin(ref.Model) {
				if ref.IsCustom() {
					return fmt.Errorf("Custom model_class_name or model_location specified for '%s', "+
						"but '%s' is a built-in H2Integrate model. Using built-in model instead is not allowed. "+
						"If you want to use a custom model, please rename it in your configuration.",
						ref.Model, ref.Model)
				}
				continue
			}
			if r.Has(ref.Model) {
				// Already collected for another technology.
				continue
			}

			if ref.ClassName == "" || ref.Location == "" {
				return fmt.Errorf("Custom %s for %s must specify 'model_class_name' and 'model_location'.",
					modelType, tech.Name)
			}
			path := ref.Location
			if !filepath.IsAbs(path) {
				path = filepath.Join(m.TechConfigDir, path)
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("Custom model location %s does not exist.", path)
			}

			factory, err := load(ctx, path, ref.ClassName)
			if err != nil {
				return fmt.Errorf("failed to load custom %s for %s: %w", modelType, tech.Name, err)
			}
			if err := r.RegisterCustom(ref.Model, factory); err != nil {
				return err
			}
			logger.Debug("Registered custom model.", "technology", tech.Name, "model", ref.Model, "class", ref.ClassName, "path", path)
		}
	}
	return nil
}
