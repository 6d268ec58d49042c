package viz

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/sim"
)

func TestPaletteEndpoints(t *testing.T) {
	for _, name := range PaletteNames() {
		p := GetPalette(name)
		if c := p.Color(0); c.R != 0 || c.G != 0 || c.B != 0 {
			t.Errorf("%s: expected black at zero, got %v", name, c)
		}
		if p.Color(-3) != p.Color(0) {
			t.Errorf("%s: expected negative values to clamp", name)
		}
		if p.Color(7) != p.Color(1) {
			t.Errorf("%s: expected values above one to clamp", name)
		}
	}
}

func TestSmokePaletteMonotone(t *testing.T) {
	p := GetPalette("smoke")
	prev := -1
	for i := 0; i <= 10; i++ {
		c := p.Color(float64(i) / 10)
		if int(c.R) < prev {
			t.Fatalf("expected brightness to rise, dropped at %d", i)
		}
		prev = int(c.R)
	}
	if GetPalette("nope").Name != "smoke" {
		t.Error("expected fallback to smoke")
	}
	if hex := p.Hex(0); hex != "#000000" {
		t.Errorf("expected #000000, got %s", hex)
	}
}

func TestRenderFlipsRows(t *testing.T) {
	g := field.NewGrid(4, 3)
	d := field.NewBuffer(g, field.Scalar)
	d.Set(0, 0, 1)
	mask := field.NewMask(g)
	mask.Buffer().Set(3, 2, -1)

	img := Render(d, mask, GetPalette("smoke"), 2, 0)
	b := img.Bounds()
	if b.Dx() != 8 || b.Dy() != 6 {
		t.Fatalf("expected 8x6 image, got %dx%d", b.Dx(), b.Dy())
	}

	// grid (0,0) is the bottom-left corner
	if c := img.RGBAAt(0, 5); c.R == 0 {
		t.Errorf("expected bottom-left pixel lit, got %v", c)
	}
	if c := img.RGBAAt(0, 0); c.R != 0 {
		t.Errorf("expected top-left pixel dark, got %v", c)
	}
	if c := img.RGBAAt(7, 0); c != ObstacleColor {
		t.Errorf("expected obstacle color top-right, got %v", c)
	}
}

func TestSavePNG(t *testing.T) {
	g := field.NewGrid(5, 5)
	img := Render(field.NewBuffer(g, field.Scalar), nil, GetPalette("fire"), 3, 0)
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Width != 15 || cfg.Height != 15 {
		t.Errorf("expected 15x15, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(4)
	path := filepath.Join(t.TempDir(), "out.gif")
	if err := r.Save(path); err == nil {
		t.Error("expected error saving an empty recording")
	}

	g := field.NewGrid(4, 4)
	d := field.NewBuffer(g, field.Scalar)
	d.Fill(0.5)
	pal := GetPalette("ice")
	r.Add(Render(d, nil, pal, 1, 1), pal)
	r.Add(Render(d, nil, pal, 1, 1), pal)
	if r.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", r.Len())
	}
	if err := r.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestCanvasPlot(t *testing.T) {
	g := field.NewGrid(2, 4)
	d := field.NewBuffer(g, field.Scalar)
	d.Set(0, 0, 1)

	c := NewCanvas(1, 1)
	c.Plot(d, 0.5)
	// grid (0,0) maps to the bottom-left dot, braille dot 7
	if c.Grid[0][0] != brailleBlank+0x40 {
		t.Errorf("expected only the bottom-left dot, got %U", c.Grid[0][0])
	}
	if !strings.HasSuffix(c.String(), "\n") {
		t.Error("expected trailing newline")
	}
}

func TestSparkline(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("expected flat line, got %q", got)
	}
	if bar := ProgressBar(0.5, 10); strings.Count(bar, "█") != 5 {
		t.Errorf("expected half-filled bar, got %q", bar)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	p := sim.DefaultParams()
	s, err := sim.New(field.NewGrid(16, 16), p, compute.NewSerialBackend())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, "test")
}

func press(m Model, key tea.KeyMsg) Model {
	next, _ := m.Update(key)
	return next.(Model)
}

func TestModelMovesSource(t *testing.T) {
	m := newTestModel(t)
	x0 := m.sim.Params().Impulse.X

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	p := m.sim.Params()
	if p.Impulse.X <= x0 {
		t.Errorf("expected source to move right from %v, got %v", x0, p.Impulse.X)
	}
	if p.Version != 1 {
		t.Errorf("expected version 1, got %d", p.Version)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if y := m.sim.Params().Impulse.Y; y != 0 {
		t.Errorf("expected source y clamped at 0, got %v", y)
	}
}

func TestModelJacobiNeverNegative(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 20; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	}
	if n := m.sim.Params().Solver.JacobiIterations; n != 0 {
		t.Errorf("expected 0 iterations, got %d", n)
	}
}

func TestModelTickSteps(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("expected another tick to be scheduled")
	}
	if m.sim.FrameIndex() != 1 {
		t.Errorf("expected one frame, got %d", m.sim.FrameIndex())
	}
	if len(m.energyHistory) != 1 {
		t.Errorf("expected one history sample, got %d", len(m.energyHistory))
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if m.sim.FrameIndex() != 1 {
		t.Errorf("expected paused model not to step, got frame %d", m.sim.FrameIndex())
	}

	for mode := ViewDensity; mode <= ViewContour; mode++ {
		m.mode = mode
		if m.View() == "" {
			t.Errorf("empty view for %s", mode)
		}
	}
}

func TestPixelsReusesBuffer(t *testing.T) {
	g := field.NewGrid(3, 2)
	d := field.NewBuffer(g, field.Scalar)
	d.Set(2, 1, 2)

	buf := make([]color.RGBA, 10)
	px := Pixels(buf, d, nil, GetPalette("smoke"), 2)
	if len(px) != 6 {
		t.Fatalf("expected 6 pixels, got %d", len(px))
	}
	if &px[0] != &buf[0] {
		t.Error("expected the destination buffer to be reused")
	}
	// grid (2,1) is the top-right pixel
	if px[2] != GetPalette("smoke").Color(1) {
		t.Errorf("expected full brightness top-right, got %v", px[2])
	}
}
