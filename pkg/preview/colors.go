package preview

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
)

// ColorTheme selects the preview palette
type ColorTheme int

const (
	ThemeClassic ColorTheme = iota
	ThemeKiCad2020
	ThemeBlueTone
	ThemeEagle
	ThemeNord
)

// ThemeNames maps theme enum to display name
var ThemeNames = map[ColorTheme]string{
	ThemeClassic:   "Classic",
	ThemeKiCad2020: "KiCad 2020",
	ThemeBlueTone:  "Blue Tone",
	ThemeEagle:     "Eagle",
	ThemeNord:      "Nord",
}

func (t ColorTheme) String() string {
	if name, ok := ThemeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColorTheme(%d)", int(t))
}

// ParseTheme accepts a display name ignoring case, spaces and dashes
func ParseTheme(name string) (ColorTheme, error) {
	key := themeKey(name)
	for theme, display := range ThemeNames {
		if themeKey(display) == key {
			return theme, nil
		}
	}
	return ThemeClassic, fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(themeList(), ", "))
}

func themeKey(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func themeList() []string {
	names := make([]string, 0, len(ThemeNames))
	for _, n := range ThemeNames {
		names = append(names, themeKey(n))
	}
	sort.Strings(names)
	return names
}

// Palette holds the colors used for one preview
type Palette struct {
	Background color.NRGBA
	Substrate  color.NRGBA
	Edge       color.NRGBA // Edge.Cuts
	Drill      color.NRGBA
	Component  color.NRGBA // F.Fab / B.Fab
}

var (
	ColorDrill      = color.NRGBA{R: 227, G: 183, B: 46, A: 255}
	ColorBackground = color.NRGBA{R: 0, G: 16, B: 35, A: 255}
)

// PaletteFor returns the colors of a theme; the bottom view uses the
// back fabrication color for components
func PaletteFor(theme ColorTheme, bottom bool) Palette {
	p := Palette{
		Background: ColorBackground,
		Drill:      ColorDrill,
	}

	switch theme {
	case ThemeKiCad2020:
		p.Substrate = color.NRGBA{R: 25, G: 95, B: 55, A: 255}
		p.Edge = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
		p.Component = pick(bottom, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, color.NRGBA{R: 64, G: 64, B: 128, A: 255})
	case ThemeBlueTone:
		p.Substrate = color.NRGBA{R: 20, G: 60, B: 90, A: 255}
		p.Edge = color.NRGBA{R: 208, G: 210, B: 255, A: 255}
		p.Component = pick(bottom, color.NRGBA{R: 175, G: 175, B: 200, A: 255}, color.NRGBA{R: 88, G: 93, B: 180, A: 255})
	case ThemeEagle:
		p.Substrate = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
		p.Edge = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
		p.Component = pick(bottom, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, color.NRGBA{R: 100, G: 100, B: 150, A: 255})
	case ThemeNord:
		p.Background = color.NRGBA{R: 59, G: 66, B: 82, A: 255} // Nord1
		p.Substrate = color.NRGBA{R: 46, G: 52, B: 64, A: 255}
		p.Edge = color.NRGBA{R: 229, G: 233, B: 240, A: 255}
		p.Drill = color.NRGBA{R: 235, G: 203, B: 139, A: 255} // Nord13
		p.Component = pick(bottom, color.NRGBA{R: 216, G: 222, B: 233, A: 255}, color.NRGBA{R: 143, G: 188, B: 187, A: 255})
	default:
		p.Substrate = color.NRGBA{R: 20, G: 90, B: 50, A: 255}
		p.Edge = color.NRGBA{R: 208, G: 210, B: 205, A: 255}
		p.Component = pick(bottom, color.NRGBA{R: 175, G: 175, B: 175, A: 255}, color.NRGBA{R: 88, G: 93, B: 132, A: 255})
	}
	return p
}

func pick(bottom bool, front, back color.NRGBA) color.NRGBA {
	if bottom {
		return back
	}
	return front
}
