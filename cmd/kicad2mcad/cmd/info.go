package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/outline"
	"github.com/OpenTraceLab/kicad2mcad/pkg/placement"
)

var infoCmd = &cobra.Command{
	Use:   "info <board_file> [refdes]",
	Short: "Show board outline and footprint information",
	Long: `Parse a board and report its thickness, footprints, drill holes, model
references and how the Edge.Cuts segments stitch into loops. No solid is built.

Without refdes: shows the board summary
With refdes: shows the placement, holes and models of that footprint`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	board, err := pcb.LoadBoard(filename)
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	if len(args) >= 2 {
		m := board.FindModule(args[1])
		if m == nil {
			return fmt.Errorf("footprint %q not found in %s", args[1], filename)
		}
		showModule(m, board.Thickness, cfg.BoardStandoff)
		return nil
	}

	var top placement.Placement
	pool := top.Curves(board.Curves)
	sides := map[pcb.Layer]int{}
	for i := range board.Modules {
		m := &board.Modules[i]
		pool = append(pool, placement.ForModule(m).Curves(m.Curves)...)
		sides[m.Side]++
	}

	fmt.Printf("Board: %s\n", filename)
	fmt.Printf("  Version: %d\n", board.Version)
	fmt.Printf("  Generator: %s\n", board.Generator)
	fmt.Printf("  Thickness: %.3f mm\n", board.Thickness)
	fmt.Printf("  Footprints: %d (%d top, %d bottom)\n", len(board.Modules), sides[pcb.LayerTop], sides[pcb.LayerBottom])
	fmt.Printf("  Drill holes: %d\n", board.PadCount())
	fmt.Printf("  Model references: %d\n", board.ModelCount())
	fmt.Printf("  Outline segments: %d\n", board.EdgeCurveCount())

	bbox := board.OutlineBounds()
	if !bbox.IsEmpty() {
		fmt.Printf("  Outline extent: %.3f x %.3f mm\n", bbox.Width(), bbox.Height())
	}

	res := outline.Assemble(pool, cfg.Precision)
	fmt.Printf("\nLoops: %d\n", len(res.Loops))
	for i, loop := range res.Loops {
		fmt.Printf("  %d: %s, %d segment(s)\n", i+1, loop.Role, len(loop.Curves))
	}
	if len(res.Dropped) > 0 {
		fmt.Printf("Dropped: %d\n", len(res.Dropped))
		for _, d := range res.Dropped {
			fmt.Printf("  %s\n", d)
		}
	}
	if res.Outer() == nil {
		fmt.Println("No closed board outline")
	}

	if verbose {
		fmt.Println("\nFootprints:")
		for _, m := range board.Modules {
			fmt.Printf("  %-8s %-40s %s (%.3f, %.3f) %.1f°, %d hole(s), %d model(s)\n",
				m.RefDes, m.Name, m.Side, m.Position.X, m.Position.Y, m.Rotation.Degrees(), len(m.Pads), len(m.Models))
		}
	}

	return nil
}

func showModule(m *pcb.Module, thickness, standoff float64) {
	p := placement.ForModule(m)
	bb := m.ModuleBounds()

	fmt.Printf("Footprint: %s\n", m.RefDes)
	fmt.Printf("  Name: %s\n", m.Name)
	fmt.Printf("  Side: %s\n", m.Side)
	fmt.Printf("  Position: (%.3f, %.3f) %.1f°\n", m.Position.X, m.Position.Y, m.Rotation.Degrees())
	fmt.Printf("  Extent: %.3f x %.3f mm\n", bb.Width(), bb.Height())

	if len(m.Pads) > 0 {
		fmt.Printf("\nHoles (%d):\n", len(m.Pads))
		for _, pad := range m.Pads {
			h := p.Hole(pad)
			kind := "round"
			if h.Slot {
				kind = "slot"
			}
			fmt.Printf("  %-4s %-5s %.3f x %.3f at world (%.3f, %.3f)\n",
				pad.Number, kind, h.Size.Width, h.Size.Height, h.Center.X, h.Center.Y)
		}
	}

	if len(m.Models) > 0 {
		fmt.Printf("\nModels (%d):\n", len(m.Models))
		for _, model := range m.Models {
			f := placement.FrameOf(p.ModelTransform(model, thickness, standoff))
			hidden := ""
			if model.Hidden {
				hidden = " (hidden)"
			}
			fmt.Printf("  %s%s\n", model.Path, hidden)
			fmt.Printf("    origin (%.3f, %.3f, %.3f), up (%.3f, %.3f, %.3f)\n",
				f.Origin.X, f.Origin.Y, f.Origin.Z, f.ZAxis.X, f.ZAxis.Y, f.ZAxis.Z)
		}
	}
}
