package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/segsim/internal/config"
)

var presetInfo = map[string]string{
	"classic":  "even split, 10% vacancy",
	"crowded":  "few empty cells",
	"sparse":   "lots of room to move",
	"lopsided": "large majority group",
	"tiny":     "10x10, slow enough to watch",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is an editable field of the config screen.
type param struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var params = []param{
	{"size", 1,
		func(c *config.Config) float64 { return float64(c.Size) },
		func(c *config.Config, v float64) { c.Size = int(v) }},
	{"blue_ratio", 0.05,
		func(c *config.Config) float64 { return c.BlueRatio },
		func(c *config.Config, v float64) { c.BlueRatio = v }},
	{"red_ratio", 0.05,
		func(c *config.Config) float64 { return c.RedRatio },
		func(c *config.Config, v float64) { c.RedRatio = v }},
	{"empty_ratio", 0.05,
		func(c *config.Config) float64 { return c.EmptyRatio },
		func(c *config.Config, v float64) { c.EmptyRatio = v }},
	{"max_steps", 1000,
		func(c *config.Config) float64 { return float64(c.MaxSteps) },
		func(c *config.Config, v float64) { c.MaxSteps = int(v) }},
	{"delay_ms", 1,
		func(c *config.Config) float64 { return float64(c.Delay) / float64(time.Millisecond) },
		func(c *config.Config, v float64) { c.Delay = time.Duration(v * float64(time.Millisecond)) }},
	{"seed", 1,
		func(c *config.Config) float64 { return float64(c.Seed) },
		func(c *config.Config, v float64) { c.Seed = int64(v) }},
}

type menu struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	liveModel     Model
}

// NewMenu lists the presets; base supplies the seed and theme.
func NewMenu(base *config.Config) *menu {
	return &menu{state: stateMenu, presets: config.ListPresets(), cfg: *base}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m menu) handleKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m menu) menuKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		preset := config.GetPreset(m.selected)
		preset.Seed, preset.Theme = m.cfg.Seed, m.cfg.Theme
		m.cfg = *preset
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m menu) configKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	p := params[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				p.set(&m.cfg, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, formatParam(p.get(&m.cfg))
	case "s":
		cmd := m.start()
		return m, cmd
	case "left", "h":
		p.set(&m.cfg, p.get(&m.cfg)-p.step)
	case "right", "l":
		p.set(&m.cfg, p.get(&m.cfg)+p.step)
	}
	return m, nil
}

func (m *menu) start() tea.Cmd {
	live, err := NewModel(&m.cfg)
	if err != nil {
		m.err = err
		return nil
	}
	m.liveModel, m.err = live, nil
	m.state = stateSim
	return m.liveModel.Init()
}

func formatParam(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func (m menu) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

func keyHints(pairs ...string) string {
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(key.Render(pairs[i]) + desc.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m menu) viewMenu() string {
	var b strings.Builder
	h, sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true), lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	b.WriteString("\n\n    " + h.Render("SEGSIM") + "\n    " + sub.Render("schelling segregation model") + "\n    " + sub.Render("───────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true).Render("▸"), lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Render(fmt.Sprintf("%-12s", name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#555566")).Render(fmt.Sprintf("  %-12s", name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#444455")).Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m menu) viewConfig() string {
	var b strings.Builder
	h, sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true), lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	b.WriteString("\n\n    " + h.Render(strings.ToUpper(m.selected)) + "\n    " + sub.Render(presetInfo[m.selected]) + "\n    " + sub.Render("───────────────────────────") + "\n\n")
	for i, p := range params {
		valStr := fmt.Sprintf("%8s", formatParam(p.get(&m.cfg)))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true).Render("▸"), lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Render(fmt.Sprintf("%-12s", p.name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#555566")).Render(fmt.Sprintf("  %-12s", p.name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#444455")).Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunMenu opens the preset picker.
func RunMenu(base *config.Config) error {
	_, err := tea.NewProgram(NewMenu(base), tea.WithAltScreen()).Run()
	return err
}
