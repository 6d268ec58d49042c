package viz

import (
	"image/color"
	"math"
	"sort"

	"github.com/crazy3lf/colorconv"
)

const paletteSize = 256

// Palette maps values in [0, 1] to colors through a precomputed table.
type Palette struct {
	Name  string
	table [paletteSize]color.RGBA
}

// hsvRamp builds a palette that walks hue from h0 to h1 degrees while
// brightness rises from v0 to 1.
func hsvRamp(name string, h0, h1, sat, v0 float64) *Palette {
	p := &Palette{Name: name}
	for i := range p.table {
		t := float64(i) / (paletteSize - 1)
		hue := math.Mod(h0+(h1-h0)*t+360, 360)
		r, g, b, _ := colorconv.HSVToRGB(hue, sat, v0+(1-v0)*t)
		p.table[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	// zero is always black so empty cells read as background
	p.table[0] = color.RGBA{A: 255}
	return p
}

var palettes = map[string]*Palette{
	"smoke":  hsvRamp("smoke", 0, 0, 0, 0),
	"fire":   hsvRamp("fire", 0, 60, 1, 0.2),
	"ice":    hsvRamp("ice", 230, 180, 0.8, 0.15),
	"plasma": hsvRamp("plasma", 280, 420, 0.9, 0.25),
}

// ObstacleColor is drawn over solid cells.
var ObstacleColor = color.RGBA{R: 90, G: 90, B: 110, A: 255}

// GetPalette returns the named palette, falling back to smoke.
func GetPalette(name string) *Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes["smoke"]
}

func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Color returns the color for v, clamped to [0, 1]. NaN maps to zero.
func (p *Palette) Color(v float64) color.RGBA {
	if !(v > 0) {
		return p.table[0]
	}
	if v >= 1 {
		return p.table[paletteSize-1]
	}
	return p.table[int(v*(paletteSize-1))]
}

// Hex is the color for v as #rrggbb, for terminal styling.
func (p *Palette) Hex(v float64) string {
	c := p.Color(v)
	return hexColor(c.R, c.G, c.B)
}
