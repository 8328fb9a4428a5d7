package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicad2mcad/pkg/export"
	"github.com/OpenTraceLab/kicad2mcad/pkg/mcad"
)

var (
	writeIGES  bool
	writeSTL   bool
	overwrite  bool
	outputFile string
	thickness  float64
	noModels   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <board_file>",
	Short: "Convert a board to STEP, IGES or STL",
	Long: `Build the board body and component placements and write them as a STEP
assembly (default), an IGES file or an STL mesh.

Without --output the board file name is used with the format's extension.
Component models are found through the project directory, KiCad's
3Dresolver.cfg aliases and the configured search paths; VRML references are
tried with .step, .stp, .igs, .iges and .stl extensions.

Examples:
  kicad2mcad convert board.kicad_pcb
  kicad2mcad convert --stl --no-models -o body.stl board.kicad_pcb
  kicad2mcad convert --thickness 0.8 -x board.kicad_pcb`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVarP(&writeIGES, "iges", "i", false, "write IGES instead of STEP")
	convertCmd.Flags().BoolVar(&writeSTL, "stl", false, "write an STL mesh instead of STEP")
	convertCmd.Flags().BoolVarP(&overwrite, "overwrite", "x", false, "replace an existing output file")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file")
	convertCmd.Flags().Float64Var(&thickness, "thickness", 0, "board thickness in mm, overriding the board file")
	convertCmd.Flags().BoolVar(&noModels, "no-models", false, "do not place component models")
	convertCmd.MarkFlagsMutuallyExclusive("iges", "stl")
}

func runConvert(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if thickness != 0 {
		cfg.Thickness = thickness
	}
	if noModels {
		cfg.SkipModels = true
	}

	format := export.FormatSTEP
	switch {
	case writeIGES:
		format = export.FormatIGES
	case writeSTL:
		format = export.FormatSTL
	}

	out := outputFile
	if out == "" {
		out = export.OutputPath(filename, format)
	}

	if verbose {
		fmt.Printf("Loading board: %s\n", filename)
	}

	asm, res, err := assemble(filename, cfg)
	if err != nil {
		return err
	}
	printWarnings(res)

	if res.Solid == nil {
		return fmt.Errorf("no board outline in %s", filename)
	}

	if err := asm.Export(format, out, overwrite); err != nil {
		if errors.Is(err, export.ErrExists) {
			return fmt.Errorf("%s exists; use --overwrite to replace it", out)
		}
		if errors.Is(err, mcad.ErrNotAssembled) {
			return fmt.Errorf("nothing to write for %s", filename)
		}
		return fmt.Errorf("error writing %s: %w", out, err)
	}

	fmt.Printf("Wrote %s (%s): thickness %.3f mm, %d cutout(s), %d hole(s), %d component(s)\n",
		out, format, res.Thickness, res.CutoutCount, len(res.Holes), len(res.Components))
	return nil
}
