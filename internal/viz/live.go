package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	fieldCols       = 64
	fieldRows       = 24
	historyCapacity = 600
	moveStep        = 0.02
	iterationStep   = 5
)

type ViewMode int

const (
	ViewDensity ViewMode = iota
	ViewTemperature
	ViewSpeed
	ViewContour
)

func (v ViewMode) String() string {
	switch v {
	case ViewDensity:
		return "density"
	case ViewTemperature:
		return "temperature"
	case ViewSpeed:
		return "speed"
	case ViewContour:
		return "contour"
	}
	return "unknown"
}

var (
	fieldStyle  = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type TickMsg time.Time

// Model is a live terminal viewer. Each tick advances the simulator by
// one frame while running.
type Model struct {
	sim   *sim.Simulator
	name  string
	cols  int
	rows  int
	theme Theme
	mode  ViewMode

	energy     *metrics.KineticEnergy
	divergence *metrics.DivergenceResidual
	total      *metrics.TotalDensity

	energyHistory []float64
	divHistory    []float64

	running   bool
	showHelp  bool
	recording bool
	recorder  *Recorder
	gifPath   string
	lastErr   error
	frameTime time.Duration
}

// NewModel wraps s. The model registers its own metrics on s.
func NewModel(s *sim.Simulator, name string) Model {
	m := Model{
		sim:           s,
		name:          name,
		cols:          fieldCols,
		rows:          fieldRows,
		theme:         ThemeSmoke,
		energy:        metrics.NewKineticEnergy(),
		divergence:    metrics.NewDivergenceResidual(),
		total:         metrics.NewTotalDensity(),
		energyHistory: make([]float64, 0, historyCapacity),
		divHistory:    make([]float64, 0, historyCapacity),
		running:       true,
		recorder:      NewRecorder(4),
		gifPath:       "fluidsim.gif",
	}
	s.AddMetric(m.energy)
	s.AddMetric(m.divergence)
	s.AddMetric(m.total)
	return m
}

// WithTheme returns a copy of m using the named theme.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.cols = max(16, min(msg.Width-52, 160))
		m.rows = max(8, min(msg.Height-4, 60))
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case ".":
		if !m.running {
			m.step()
		}
	case "r":
		m.sim.Reset()
		m.energyHistory = m.energyHistory[:0]
		m.divHistory = m.divHistory[:0]
		m.lastErr = nil
	case "up":
		m.adjust(func(p *sim.Params) { p.Impulse.Y = clamp01(p.Impulse.Y + moveStep) })
	case "down":
		m.adjust(func(p *sim.Params) { p.Impulse.Y = clamp01(p.Impulse.Y - moveStep) })
	case "left":
		m.adjust(func(p *sim.Params) { p.Impulse.X = clamp01(p.Impulse.X - moveStep) })
	case "right":
		m.adjust(func(p *sim.Params) { p.Impulse.X = clamp01(p.Impulse.X + moveStep) })
	case "w":
		m.adjust(func(p *sim.Params) { p.Obstacle.Y = clamp01(p.Obstacle.Y + moveStep) })
	case "s":
		m.adjust(func(p *sim.Params) { p.Obstacle.Y = clamp01(p.Obstacle.Y - moveStep) })
	case "a":
		m.adjust(func(p *sim.Params) { p.Obstacle.X = clamp01(p.Obstacle.X - moveStep) })
	case "d":
		m.adjust(func(p *sim.Params) { p.Obstacle.X = clamp01(p.Obstacle.X + moveStep) })
	case "+", "=":
		m.adjust(func(p *sim.Params) { p.Solver.JacobiIterations += iterationStep })
	case "-", "_":
		m.adjust(func(p *sim.Params) { p.Solver.JacobiIterations = max(0, p.Solver.JacobiIterations-iterationStep) })
	case "b":
		m.adjust(func(p *sim.Params) { p.Obstacle.Border = !p.Obstacle.Border })
	case "v":
		m.mode = (m.mode + 1) % (ViewContour + 1)
	case "t":
		m.theme = NextTheme(m.theme.Name)
	case "g":
		m.toggleRecording()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func clamp01(v float32) float32 {
	return max(0, min(v, 1))
}

// adjust applies fn to a copy of the current parameters and hands them to
// the simulator, which bumps the version.
func (m *Model) adjust(fn func(*sim.Params)) {
	p := m.sim.Params()
	fn(&p)
	if err := m.sim.SetParams(p); err != nil {
		m.lastErr = err
	}
}

func (m *Model) step() {
	start := time.Now()
	if err := m.sim.Step(); err != nil {
		m.lastErr = err
		m.running = false
		return
	}
	m.frameTime = time.Since(start)

	m.energyHistory = appendCapped(m.energyHistory, m.energy.Value())
	m.divHistory = appendCapped(m.divHistory, m.divergence.Value())

	if m.recording {
		pal := GetPalette(m.theme.Palette)
		m.recorder.Add(Render(m.fieldView(), m.sim.Mask(), pal, 2, 0), pal)
	}
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.recorder.Reset()
		return
	}
	m.recording = false
	if err := m.recorder.Save(m.gifPath); err != nil {
		m.lastErr = err
	}
	m.recorder.Reset()
}

func (m Model) fieldView() field.View {
	switch m.mode {
	case ViewTemperature:
		return m.sim.Temperature()
	case ViewSpeed:
		return m.sim.Velocity()
	}
	return m.sim.Density()
}

// renderField draws two grid rows per terminal line using upper half
// blocks: the foreground is the upper cell, the background the lower.
func (m Model) renderField() string {
	if m.mode == ViewContour {
		c := NewCanvas(m.cols, m.rows)
		c.Plot(m.sim.Density(), 0.05)
		p := m.sim.Params()
		c.Circle(float64(p.Obstacle.X), float64(p.Obstacle.Y), float64(p.Obstacle.Radius))
		return c.String()
	}

	v := m.fieldView()
	g := v.Grid()
	pal := GetPalette(m.theme.Palette)
	scale := maxValue(v)
	mask := m.sim.Mask()
	obstacle := hexColor(ObstacleColor.R, ObstacleColor.G, ObstacleColor.B)

	colorAt := func(gx, gy int) lipgloss.Color {
		if mask.Solid(gx, gy) {
			return lipgloss.Color(obstacle)
		}
		return lipgloss.Color(pal.Hex(cellValue(v, gx, gy) / scale))
	}

	var b strings.Builder
	dots := m.rows * 2
	for r := 0; r < m.rows; r++ {
		top := g.Height - 1 - (2*r)*g.Height/dots
		bot := g.Height - 1 - (2*r+1)*g.Height/dots
		for c := 0; c < m.cols; c++ {
			gx := c * g.Width / m.cols
			st := lipgloss.NewStyle().Foreground(colorAt(gx, top)).Background(colorAt(gx, bot))
			b.WriteString(st.Render("▀"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func (m Model) status() string {
	switch {
	case m.recording:
		return StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	case m.lastErr != nil && !m.running:
		return StatusPaused.Render("HALTED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m Model) View() string {
	p := m.sim.Params()
	g := m.sim.Grid()

	var s strings.Builder
	title := lipgloss.NewStyle().Foreground(m.theme.Primary)
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", m.sim.FrameIndex()))
	row("Time", fmt.Sprintf("%.2f", m.sim.Time()))
	row("Grid", fmt.Sprintf("%s (%s)", g, m.sim.Backend().Name()))
	row("Frame time", m.frameTime.Round(time.Microsecond).String())
	row("Density", fmt.Sprintf("%.2f", m.total.Value()))
	row("Jacobi", fmt.Sprintf("%d", p.Solver.JacobiIterations))
	row("Source", fmt.Sprintf("(%.2f, %.2f)", p.Impulse.X, p.Impulse.Y))
	row("Obstacle", fmt.Sprintf("(%.2f, %.2f) r=%.2f", p.Obstacle.X, p.Obstacle.Y, p.Obstacle.Radius))
	row("Border", fmt.Sprintf("%v", p.Obstacle.Border))
	row("Params", fmt.Sprintf("v%d", p.Version))
	row("View", title.Render(m.mode.String()+" / "+m.theme.Name))

	s.WriteString("\n" + labelStyle.Render("∇·v") + SparklineChart(m.divHistory, 30) + "\n")
	if m.lastErr != nil {
		s.WriteString("\n" + errorStyle.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(KeyHint.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n←↑→↓:Source WASD:Obstacle\n+/-:Jacobi V:View T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, fieldStyle.Render(m.renderField()), statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Single step when paused  ║
║  R        - Reset fields             ║
║  Q        - Quit                     ║
║  Arrows   - Move smoke source        ║
║  WASD     - Move obstacle            ║
║  + / -    - Jacobi iterations        ║
║  B        - Toggle border walls      ║
║  V        - Cycle field view         ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// RunLive opens the viewer on the terminal's alternate screen.
func RunLive(s *sim.Simulator, name, theme string) error {
	_, err := tea.NewProgram(NewModel(s, name).WithTheme(theme), tea.WithAltScreen()).Run()
	return err
}
