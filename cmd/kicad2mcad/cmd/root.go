package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicad2mcad/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicad2mcad/pkg/mcad"
)

var (
	// Global flags
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "kicad2mcad",
	Short: "KiCad PCB to mechanical CAD converter",
	Long: `kicad2mcad builds a 3D model of a KiCad board: the Edge.Cuts outline is
extruded to the board thickness, cutouts and drill holes are removed, and the
footprints' 3D models are placed on the top and bottom sides.

Examples:
  kicad2mcad convert board.kicad_pcb                 # Write board.stp
  kicad2mcad convert -i -x board.kicad_pcb           # Write board.igs, replacing it
  kicad2mcad info board.kicad_pcb                    # Show outline and footprint summary
  kicad2mcad preview --format webp board.kicad_pcb   # Render a plan view`,
	Version: "0.9.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		mcad.SetLogging(verbose)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "JSON settings file")
}

// loadConfig reads --config, or the defaults when it is not given
func loadConfig() (*mcad.Config, error) {
	if configFile == "" {
		return mcad.DefaultConfig(), nil
	}
	cfg, err := mcad.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// assemble parses the board and runs it through a new assembler
func assemble(filename string, cfg *mcad.Config) (*mcad.Assembler, *mcad.AssemblyResult, error) {
	board, err := pcb.LoadBoard(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing board: %w", err)
	}

	asm, err := mcad.NewAssembler(cfg, nil, nil)
	if err != nil {
		return nil, nil, err
	}

	res, err := asm.Assemble(board)
	if err != nil {
		return nil, nil, fmt.Errorf("error building board: %w", err)
	}
	return asm, res, nil
}

func printWarnings(res *mcad.AssemblyResult) {
	if len(res.Warnings) == 0 {
		return
	}
	fmt.Printf("Warnings (%d):\n", len(res.Warnings))
	for _, w := range res.Warnings {
		fmt.Printf("  %s\n", w)
	}
}
