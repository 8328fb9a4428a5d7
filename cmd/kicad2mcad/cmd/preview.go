package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicad2mcad/pkg/preview"
)

var (
	imageFormat string
	imageWidth  int
	imageTheme  string
	viewBottom  bool
	imageFile   string
)

var previewCmd = &cobra.Command{
	Use:   "preview <board_file>",
	Short: "Render a plan view of the assembled board",
	Long: `Assemble the board and draw it from above (or below with --bottom): the
substrate with cutouts, drill holes and the outlines of the placed components on
the viewed side.

Examples:
  kicad2mcad preview board.kicad_pcb                       # board.png
  kicad2mcad preview --bottom --theme nord board.kicad_pcb
  kicad2mcad preview --format webp --width 2048 -o top.webp board.kicad_pcb`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&imageFormat, "format", "", "image format: png, webp or tga (default from --output, else png)")
	previewCmd.Flags().IntVar(&imageWidth, "width", preview.DefaultWidth, "image width in pixels")
	previewCmd.Flags().StringVar(&imageTheme, "theme", "classic", "color theme: classic, kicad2020, bluetone, eagle or nord")
	previewCmd.Flags().BoolVar(&viewBottom, "bottom", false, "view from below")
	previewCmd.Flags().StringVarP(&imageFile, "output", "o", "", "output image file")
}

func runPreview(cmd *cobra.Command, args []string) error {
	filename := args[0]

	theme, err := preview.ParseTheme(imageTheme)
	if err != nil {
		return err
	}

	format := preview.PNG
	switch {
	case imageFormat != "":
		if format, err = preview.ParseImageFormat(imageFormat); err != nil {
			return err
		}
	case imageFile != "":
		format = preview.FormatForPath(imageFile)
	}

	out := imageFile
	if out == "" {
		out = strings.TrimSuffix(filename, ".kicad_pcb") + format.Extension()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, res, err := assemble(filename, cfg)
	if err != nil {
		return err
	}
	printWarnings(res)

	opts := preview.DefaultOptions()
	opts.Width = imageWidth
	opts.Theme = theme
	opts.Bottom = viewBottom
	opts.ArcSegments = cfg.ArcSegments

	img, err := preview.Render(preview.FromResult(res, cfg.ArcSegments), opts)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	w := bufio.NewWriter(f)
	if err := preview.Encode(w, img, format); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	b := img.Bounds()
	fmt.Printf("Wrote %s (%dx%d %s)\n", out, b.Dx(), b.Dy(), format)
	return nil
}
