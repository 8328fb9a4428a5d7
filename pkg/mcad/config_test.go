package mcad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.MinThickness != pcb.ThicknessMin || c.DefaultThickness != pcb.ThicknessDefault {
		t.Errorf("thickness limits = %v, %v", c.MinThickness, c.DefaultThickness)
	}
	if c.Precision != outline.MinDistance2 {
		t.Errorf("Precision = %v, want %v", c.Precision, outline.MinDistance2)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero value is filled in", Config{}, false},
		{"negative standoff", Config{BoardStandoff: -1}, true},
		{"default below minimum", Config{MinThickness: 1, DefaultThickness: 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	var c Config
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.MeshCells == 0 || c.ArcSegments == 0 || c.Precision == 0 {
		t.Errorf("Validate() left zero fields: %+v", c)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadConfig(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig(missing) error = %v", err)
	}
	if c.DefaultThickness != pcb.ThicknessDefault {
		t.Errorf("DefaultThickness = %v", c.DefaultThickness)
	}

	path := filepath.Join(dir, "kicad2mcad.json")
	content := `{"thickness": 0.8, "model_search_paths": ["/opt/3d"], "skip_models": true}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Thickness != 0.8 || !c.SkipModels || len(c.ModelSearchPaths) != 1 {
		t.Errorf("LoadConfig() = %+v", c)
	}
	if c.MinThickness != pcb.ThicknessMin {
		t.Errorf("unset MinThickness = %v, want default", c.MinThickness)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted invalid JSON")
	}
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	c := DefaultConfig()
	c.ProjectDir = "/boards/demo"
	if err := SaveConfig(c, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.ProjectDir != c.ProjectDir {
		t.Errorf("ProjectDir = %q, want %q", loaded.ProjectDir, c.ProjectDir)
	}
}
