package recipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

const yamlRecipe = `
id: origami-fast
name: Origami Fast
method: pourover
tags: [origami]
params:
  coffee: 15g
  water: 240g
  stages:
    - label: Bloom
      duration: 10
      water: 40g
      pourType: center
    - label: Rest
      duration: 30
      pourType: wait
    - label: Main
      duration: 30
      water: 200g
      pourType: circle
      valveStatus: open
`

const jsonRecipe = `{
  "name": "Legacy Chemex",
  "params": {
    "stages": [
      {"label": "Bloom", "time": 45, "pourTime": 15, "water": "60g"},
      {"label": "Fill", "time": 150, "water": "500g"}
    ]
  }
}`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(yamlRecipe), "origami.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.ID != "origami-fast" || r.Method != domain.MethodPourOver || len(r.Params.Stages) != 3 {
		t.Fatalf("unexpected recipe %+v", r)
	}
	main := r.Params.Stages[2]
	if main.Duration == nil || *main.Duration != 30 || main.Style != domain.StyleCircle || main.Valve != domain.ValveOpen {
		t.Fatalf("unexpected stage %+v", main)
	}
	if r.Params.Stages[1].Time != nil {
		t.Fatal("absent fields should stay nil")
	}

	r, err = ParseRecipe([]byte(jsonRecipe), "chemex.json")
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if r.ID != "chemex" || r.Name != "Legacy Chemex" {
		t.Fatalf("ID should come from the file name, got %+v", r)
	}
	if s := r.Params.Stages[0]; s.Time == nil || *s.Time != 45 || s.PourTime == nil || *s.PourTime != 15 {
		t.Fatalf("unexpected legacy stage %+v", s)
	}

	if _, err := ParseRecipe([]byte("params: [unclosed"), "bad.yaml"); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "origami.yaml", yamlRecipe)
	writeFile(t, dir, "chemex.JSON", jsonRecipe)
	writeFile(t, dir, "broken.yml", "stages: {")
	writeFile(t, dir, "notes.txt", "not a recipe")
	if err := os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	recipes, err := LoadDir(dir, logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}

	if _, err := LoadDir(filepath.Join(dir, "missing"), logger.New(logger.LevelOff, nil)); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestImportOverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mine.yaml", "id: v60-4-6\nname: My 4:6\nparams:\n  stages:\n    - duration: 60\n      water: 300g\n")
	writeFile(t, dir, "origami.yaml", yamlRecipe)

	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	n, err := Import(ctx, src, dir, log)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}

	r, err := src.Get(ctx, "v60-4-6")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Name != "My 4:6" || r.Version != 1 {
		t.Fatalf("file recipe should replace the built-in, got %+v", r)
	}
	if _, err := src.Get(ctx, "origami-fast"); err != nil {
		t.Fatalf("new recipe should be added: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	orig, _ := src.Get(context.Background(), "kalita-wave")

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseRecipe(data, "kalita.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.ID != orig.ID || len(back.Params.Stages) != len(orig.Params.Stages) {
		t.Fatalf("round trip lost data: %+v", back)
	}
	if *back.Params.Stages[2].Time != 110 || back.Params.Stages[3].PourTime != nil {
		t.Fatalf("stage fields changed: %+v", back.Params.Stages)
	}
}
