package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// recipeExts are the file extensions LoadDir reads. JSON is valid YAML, so
// one decoder handles both.
var recipeExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// ParseRecipe decodes one recipe document. A missing ID is derived from
// name, the file name without its extension.
func ParseRecipe(data []byte, name string) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if r.ID == "" {
		r.ID = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if r.Name == "" {
		r.Name = r.ID
	}
	return &r, nil
}

// LoadDir reads every recipe file in dir (not recursive). Files that fail
// to parse are logged and skipped; the error is only non-nil when dir
// itself cannot be read.
func LoadDir(dir string, log *logger.Logger) ([]*domain.Recipe, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading recipe dir: %w", err)
	}

	var out []*domain.Recipe
	for _, e := range entries {
		if e.IsDir() || !recipeExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping recipe %s: %v", path, err)
			continue
		}
		r, err := ParseRecipe(data, e.Name())
		if err != nil {
			log.Warn("skipping recipe %s: %v", path, err)
			continue
		}
		out = append(out, r)
	}
	log.Info("loaded %d recipe files from %s", len(out), dir)
	return out, nil
}

// Import loads dir into src. Recipes whose ID is already present replace
// the existing one.
func Import(ctx context.Context, src *MemorySource, dir string, log *logger.Logger) (int, error) {
	recipes, err := LoadDir(dir, log)
	if err != nil {
		return 0, err
	}
	for _, r := range recipes {
		err := src.Add(ctx, r)
		if errors.Is(err, domain.ErrAlreadyExists) {
			err = src.Update(ctx, r)
		}
		if err != nil {
			return 0, fmt.Errorf("importing %s: %w", r.ID, err)
		}
	}
	return len(recipes), nil
}

// Marshal encodes a recipe as YAML, in the same shape ParseRecipe reads.
func Marshal(r *domain.Recipe) ([]byte, error) {
	return yaml.Marshal(r)
}
