package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidsim/internal/compute"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/sim"
)

var presetInfo = map[string]string{
	"smoke":  "hot plume around a disc",
	"plume":  "free rising plume",
	"still":  "8x8 sanity scene",
	"dense":  "heavy slow smoke",
	"street": "vortex shedding",
}

const (
	stateMenu = iota
	stateSim
)

// App lets the user pick a preset and then hands over to a live Model.
type App struct {
	state   int
	cursor  int
	presets []string
	theme   string
	opts    []sim.Option
	live    Model
	err     error
}

func NewApp(theme string, opts ...sim.Option) App {
	return App{presets: config.ListPresets(), theme: theme, opts: opts}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.start()
	}
	return a, nil
}

func (a App) start() (tea.Model, tea.Cmd) {
	name := a.presets[a.cursor]
	cfg := config.GetPreset(name)
	if cfg.Grid.Width > 96 {
		cfg.Grid = config.GridConfig{Width: 96, Height: 96}
	}
	params, err := cfg.SimParams()
	if err != nil {
		a.err = err
		return a, nil
	}
	be, err := compute.Lookup(cfg.Backend)
	if err != nil {
		a.err = err
		return a, nil
	}
	s, err := sim.New(cfg.GridSize(), params, be, a.opts...)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.live = NewModel(s, name).WithTheme(a.theme)
	a.state = stateSim
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}

	h := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	sel := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	off := lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("FLUIDSIM") + "\n    " + sub.Render("stable fluids smoke") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range a.presets {
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", h.Render("▸"), sel.Render(fmt.Sprintf("%-10s", name)), desc.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", off.Render(fmt.Sprintf("  %-10s", name)), off.Render(presetInfo[name])))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + errorStyle.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + off.Render(" navigate  ") + key.Render("enter") + off.Render(" start  ") + key.Render("q") + off.Render(" quit") + "\n")
	return b.String()
}

func RunInteractive(theme string, opts ...sim.Option) error {
	_, err := tea.NewProgram(NewApp(theme, opts...), tea.WithAltScreen()).Run()
	return err
}
