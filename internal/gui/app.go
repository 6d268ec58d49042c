package gui

import (
	"fmt"
	"image/color"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/viz"
)

const (
	screenW    = 1280
	screenH    = 720
	panelW     = 360
	maxHistory = 240
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColSource  = rl.NewColor(255, 140, 0, 255)
)

// App is a window viewer. Left mouse places the smoke source, right
// mouse places the obstacle.
type App struct {
	Sim      *sim.Simulator
	Name     string
	Running  bool
	Palettes []string
	PalSel   int
	View     viz.ViewMode

	tex    rl.Texture2D
	pixels []color.RGBA
	energy *metrics.KineticEnergy
	total  *metrics.TotalDensity

	Telemetry []float64
	log       *slog.Logger
}

// initWindow opens a 1280×720 window at 60 FPS with the exit key disabled.
func initWindow(title string) {
	rl.InitWindow(screenW, screenH, title)
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func NewApp(s *sim.Simulator, name string, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		Sim:       s,
		Name:      name,
		Running:   true,
		Palettes:  viz.PaletteNames(),
		energy:    metrics.NewKineticEnergy(),
		total:     metrics.NewTotalDensity(),
		Telemetry: make([]float64, 0, maxHistory),
		log:       log,
	}
	s.AddMetric(a.energy)
	s.AddMetric(a.total)

	g := s.Grid()
	img := rl.GenImageColor(g.Width, g.Height, rl.Black)
	a.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(a.tex, rl.FilterBilinear)
	rl.UnloadImage(img)
	a.pixels = make([]color.RGBA, g.Cells())
	return a
}

// Run opens a window on s and blocks until it is closed.
func Run(s *sim.Simulator, name string, log *slog.Logger) {
	initWindow("fluidsim: " + name)
	defer rl.CloseWindow()
	app := NewApp(s, name, log)
	defer rl.UnloadTexture(app.tex)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// fieldRect is the square screen area the grid is drawn into.
func (a *App) fieldRect() rl.Rectangle {
	side := float32(min(screenW-panelW, screenH))
	return rl.Rectangle{X: 0, Y: (screenH - side) / 2, Width: side, Height: side}
}

// screenToGrid maps a screen point to normalized grid coordinates, with
// y growing upward. ok is false outside the field.
func screenToGrid(r rl.Rectangle, p rl.Vector2) (nx, ny float32, ok bool) {
	if p.X < r.X || p.Y < r.Y || p.X >= r.X+r.Width || p.Y >= r.Y+r.Height {
		return 0, 0, false
	}
	nx = (p.X - r.X) / r.Width
	ny = 1 - (p.Y-r.Y)/r.Height
	return nx, ny, true
}

// Update handles input and advances the simulation. It returns false when
// the user asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Sim.Reset()
		a.Telemetry = a.Telemetry[:0]
	}
	if rl.IsKeyPressed(rl.KeyP) {
		a.PalSel = (a.PalSel + 1) % len(a.Palettes)
	}
	if rl.IsKeyPressed(rl.KeyV) {
		a.View = (a.View + 1) % viz.ViewContour
	}
	if rl.IsKeyPressed(rl.KeyB) {
		a.adjust(func(p *sim.Params) { p.Obstacle.Border = !p.Obstacle.Border })
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		a.adjust(func(p *sim.Params) { p.Solver.JacobiIterations += 5 })
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		a.adjust(func(p *sim.Params) { p.Solver.JacobiIterations = max(0, p.Solver.JacobiIterations-5) })
	}

	if nx, ny, ok := screenToGrid(a.fieldRect(), rl.GetMousePosition()); ok {
		if rl.IsMouseButtonDown(rl.MouseLeftButton) {
			a.adjust(func(p *sim.Params) { p.Impulse.X, p.Impulse.Y = nx, ny })
		} else if rl.IsMouseButtonDown(rl.MouseRightButton) {
			a.adjust(func(p *sim.Params) { p.Obstacle.X, p.Obstacle.Y = nx, ny })
		}
	}

	if a.Running {
		if err := a.Sim.Step(); err != nil {
			a.log.Error("step failed", "err", err)
			a.Running = false
		}
		a.Telemetry = append(a.Telemetry, a.energy.Value())
		if len(a.Telemetry) > maxHistory {
			a.Telemetry = a.Telemetry[1:]
		}
	}
	return true
}

func (a *App) adjust(fn func(*sim.Params)) {
	p := a.Sim.Params()
	fn(&p)
	if err := a.Sim.SetParams(p); err != nil {
		a.log.Warn("rejected parameters", "err", err)
	}
}

func (a *App) fieldView() field.View {
	switch a.View {
	case viz.ViewTemperature:
		return a.Sim.Temperature()
	case viz.ViewSpeed:
		return a.Sim.Velocity()
	}
	return a.Sim.Density()
}

func (a *App) Draw() {
	pal := viz.GetPalette(a.Palettes[a.PalSel])
	a.pixels = viz.Pixels(a.pixels, a.fieldView(), a.Sim.Mask(), pal, 0)
	rl.UpdateTexture(a.tex, a.pixels)

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	g := a.Sim.Grid()
	dst := a.fieldRect()
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(g.Width), Height: float32(g.Height)}
	rl.DrawTexturePro(a.tex, src, dst, rl.Vector2{}, 0, rl.White)
	a.drawMarkers(dst)
	a.drawPanel(dst)

	rl.EndDrawing()
}

func (a *App) drawMarkers(r rl.Rectangle) {
	p := a.Sim.Params()
	toScreen := func(nx, ny float32) (int32, int32) {
		return int32(r.X + nx*r.Width), int32(r.Y + (1-ny)*r.Height)
	}
	x, y := toScreen(p.Impulse.X, p.Impulse.Y)
	rl.DrawCircleLines(x, y, p.Impulse.Radius*r.Width, ColSource)
	if p.Obstacle.Radius > 0 {
		x, y = toScreen(p.Obstacle.X, p.Obstacle.Y)
		rl.DrawCircleLines(x, y, p.Obstacle.Radius*r.Width, ColAccent)
	}
}

func (a *App) drawPanel(r rl.Rectangle) {
	p := a.Sim.Params()
	x := int32(r.X+r.Width) + 24
	y := int32(24)
	line := func(text string, col color.RGBA) {
		rl.DrawText(text, x, y, 20, col)
		y += 28
	}

	line(a.Name, ColAccent)
	status := "RUNNING"
	if !a.Running {
		status = "PAUSED"
	}
	line(status, ColText)
	y += 12
	line(fmt.Sprintf("frame     %d", a.Sim.FrameIndex()), ColText)
	line(fmt.Sprintf("grid      %s", a.Sim.Grid()), ColText)
	line(fmt.Sprintf("backend   %s", a.Sim.Backend().Name()), ColText)
	line(fmt.Sprintf("jacobi    %d", p.Solver.JacobiIterations), ColText)
	line(fmt.Sprintf("density   %.1f", a.total.Value()), ColText)
	line(fmt.Sprintf("energy    %.3f", a.energy.Value()), ColText)
	line(fmt.Sprintf("view      %s", a.View), ColText)
	line(fmt.Sprintf("palette   %s", a.Palettes[a.PalSel]), ColText)
	y += 12
	a.drawTelemetry(x, y, panelW-48, 100)
	y += 120
	line("LMB source  RMB obstacle", ColTextDim)
	line("SPC pause  R reset  Q quit", ColTextDim)
	line("V view  P palette  B border", ColTextDim)
	line("UP/DOWN jacobi", ColTextDim)
	rl.DrawFPS(screenW-100, screenH-30)
}

func (a *App) drawTelemetry(x, y, w, h int32) {
	rl.DrawRectangleLines(x, y, w, h, ColTextDim)
	n := len(a.Telemetry)
	if n < 2 {
		return
	}
	hi := a.Telemetry[0]
	for _, v := range a.Telemetry {
		hi = max(hi, v)
	}
	if hi <= 0 {
		return
	}
	px := func(i int) (int32, int32) {
		return x + int32(i)*w/int32(maxHistory), y + h - int32(a.Telemetry[i]/hi*float64(h))
	}
	for i := 1; i < n; i++ {
		x0, y0 := px(i - 1)
		x1, y1 := px(i)
		rl.DrawLine(x0, y0, x1, y1, ColAccent)
	}
}
