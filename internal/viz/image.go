package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"math"
	"os"

	"github.com/san-kum/fluidsim/internal/field"
)

// Render draws v scaled by 1/max into an image, scale pixels per cell.
// Row 0 of the grid is the bottom of the image. Solid cells of mask, if
// given, are painted with ObstacleColor. A max of zero or less means the
// field's own maximum.
func Render(v field.View, mask *field.Mask, pal *Palette, scale int, max float64) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	g := v.Grid()
	px := Pixels(nil, v, mask, pal, max)

	img := image.NewRGBA(image.Rect(0, 0, g.Width*scale, g.Height*scale))
	for row := 0; row < g.Height; row++ {
		for x := 0; x < g.Width; x++ {
			c := px[row*g.Width+x]
			draw.Draw(img, image.Rect(x*scale, row*scale, (x+1)*scale, (row+1)*scale), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}
	return img
}

// Pixels colors one pixel per cell in image order (top row first), reusing
// dst when it is large enough.
func Pixels(dst []color.RGBA, v field.View, mask *field.Mask, pal *Palette, max float64) []color.RGBA {
	g := v.Grid()
	if len(dst) < g.Cells() {
		dst = make([]color.RGBA, g.Cells())
	}
	if max <= 0 {
		max = maxValue(v)
	}
	for y := 0; y < g.Height; y++ {
		row := g.Height - 1 - y
		for x := 0; x < g.Width; x++ {
			if mask != nil && mask.Solid(x, y) {
				dst[row*g.Width+x] = ObstacleColor
			} else {
				dst[row*g.Width+x] = pal.Color(cellValue(v, x, y) / max)
			}
		}
	}
	return dst[:g.Cells()]
}

// cellValue is the scalar value, or the magnitude for vector fields.
func cellValue(v field.View, x, y int) float64 {
	if v.Kind() == field.Vector {
		vx, vy := v.Vec(x, y)
		return math.Hypot(float64(vx), float64(vy))
	}
	return float64(v.At(x, y))
}

func maxValue(v field.View) float64 {
	g := v.Grid()
	m := 0.0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if c := cellValue(v, x, y); c > m {
				m = c
			}
		}
	}
	if m == 0 {
		return 1
	}
	return m
}

func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Recorder collects frames for an animated GIF.
type Recorder struct {
	frames []*image.Paletted
	delay  int
}

// NewRecorder returns a recorder; delay is per frame in 1/100 s.
func NewRecorder(delay int) *Recorder {
	return &Recorder{delay: delay}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Add quantizes img onto the palette's table and appends it.
func (r *Recorder) Add(img image.Image, pal *Palette) {
	cp := make(color.Palette, 0, paletteSize+1)
	for _, c := range pal.table {
		cp = append(cp, c)
	}
	cp = append(cp, ObstacleColor)

	p := image.NewPaletted(img.Bounds(), cp)
	draw.Draw(p, p.Bounds(), img, img.Bounds().Min, draw.Src)
	r.frames = append(r.frames, p)
}

func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

func (r *Recorder) Reset() { r.frames = nil }
