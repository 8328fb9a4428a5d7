package mcad

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kernel/sdfx"
	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

// Config controls board assembly.
type Config struct {
	// Board body
	Thickness        float64 `json:"thickness"`         // Overrides the board file when > 0
	MinThickness     float64 `json:"min_thickness"`     // Thinner boards are clamped (default: 0.002)
	DefaultThickness float64 `json:"default_thickness"` // Used for negative thickness (default: 1.6)

	// Geometry
	Precision     float64 `json:"precision"`      // Squared endpoint coincidence distance, mm^2 (default: 1e-4)
	BoardStandoff float64 `json:"board_standoff"` // Gap between board and models, mm (default: 0.05)
	MeshCells     int     `json:"mesh_cells"`     // Least marching cubes cells along the longest axis
	ArcSegments   int     `json:"arc_segments"`   // Chords per full turn when faceting arcs

	// Component models
	ModelSearchPaths []string `json:"model_search_paths"`
	ProjectDir       string   `json:"project_dir"` // Defaults to the board's directory
	SkipModels       bool     `json:"skip_models"`
}

// DefaultConfig returns a Config with the standard KiCad board defaults.
func DefaultConfig() *Config {
	return &Config{
		Thickness:        0,
		MinThickness:     pcb.ThicknessMin,
		DefaultThickness: pcb.ThicknessDefault,
		Precision:        outline.MinDistance2,
		BoardStandoff:    placement.BoardStandoff,
		MeshCells:        sdfx.DefaultMeshCells,
		ArcSegments:      sdfx.DefaultArcSegments,
	}
}

// Validate fills in unset values and rejects inconsistent ones.
func (c *Config) Validate() error {
	if c.MinThickness <= 0 {
		c.MinThickness = pcb.ThicknessMin
	}
	if c.DefaultThickness <= 0 {
		c.DefaultThickness = pcb.ThicknessDefault
	}
	if c.DefaultThickness < c.MinThickness {
		return fmt.Errorf("default thickness %g is below the minimum %g", c.DefaultThickness, c.MinThickness)
	}

	if c.Precision <= 0 {
		c.Precision = outline.MinDistance2
	}
	if c.BoardStandoff < 0 {
		return fmt.Errorf("board standoff must not be negative, got %g", c.BoardStandoff)
	}

	if c.MeshCells < 1 {
		c.MeshCells = sdfx.DefaultMeshCells
	}
	if c.ArcSegments < 3 {
		c.ArcSegments = sdfx.DefaultArcSegments
	}

	return nil
}

// LoadConfig reads a JSON config file over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes the config as indented JSON
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
