package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/experiment"
	"github.com/san-kum/segsim/internal/metrics"
	"github.com/san-kum/segsim/internal/schelling"
)

const (
	historyCapacity = 600
	maxStepsPerTick = 1024
	frameInterval   = time.Second / 60
)

var (
	gridStyle  = lipgloss.NewStyle().Padding(1, 2)
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
)

type TickMsg time.Time

// Model drives a simulation session from Bubble Tea ticks.
type Model struct {
	cfg          config.Config
	seed         int64
	session      *schelling.Session
	similarity   *metrics.Similarity
	result       *schelling.Result
	err          error
	running      bool
	stepsPerTick int
	unhappy      []float64
	showHelp     bool
	recorder     *Recorder
	notice       string
	width        int
}

// NewModel populates a grid from cfg and starts a session on it.
func NewModel(cfg *config.Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}
	SetTheme(cfg.Theme)
	m := Model{
		cfg:          *cfg,
		seed:         cfg.Seed,
		running:      true,
		stepsPerTick: 1,
		width:        80,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) tickInterval() time.Duration {
	return max(m.cfg.Delay, frameInterval)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickInterval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.session != nil {
				m.session.Cancel()
				m.result = m.session.Finish()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			m.running = false
			m.advance(1)
		case "r":
			m.err = m.reset()
		case "s":
			m.seed++
			m.err = m.reset()
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			m.cfg.Theme = NextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerTick)
		}
		return m, m.tick()
	}
	return m, nil
}

// reset draws a fresh grid from the current seed and starts a new session.
func (m *Model) reset() error {
	rng := experiment.NewRand(m.seed)
	g, err := schelling.Populate(m.cfg.Size, m.cfg.Ratios(), rng)
	if err != nil {
		return err
	}

	m.similarity = metrics.NewSimilarity()
	sim := schelling.New()
	sim.AddMetric(m.similarity)

	ss, err := sim.Start(g, rng, m.cfg.SimConfig())
	if err != nil {
		return err
	}
	m.session = ss
	m.result = nil
	m.unhappy = m.unhappy[:0]
	m.record()
	return nil
}

// advance performs up to n steps, stopping early once the session is terminal.
func (m *Model) advance(n int) {
	if m.session == nil || m.result != nil {
		return
	}
	for i := 0; i < n && !m.session.Status().Terminal(); i++ {
		if _, err := m.session.Advance(); err != nil {
			m.err = err
			break
		}
	}
	m.record()
	if m.session.Status().Terminal() {
		m.result = m.session.Finish()
		m.running = false
	}
}

func (m *Model) record() {
	g := m.session.Grid()
	m.unhappy = append(m.unhappy, float64(len(schelling.UnhappyCells(g))))
	if len(m.unhappy) > historyCapacity {
		m.unhappy = m.unhappy[1:]
	}
	if m.recorder != nil {
		m.recorder.Capture(g, CurrentTheme)
	}
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder(4)
		m.recorder.Capture(m.session.Grid(), CurrentTheme)
		m.notice = "recording"
		return
	}
	path := fmt.Sprintf("segsim_%d.gif", m.seed)
	if err := m.recorder.Save(path); err != nil {
		m.err = err
	} else {
		m.notice = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), path)
	}
	m.recorder = nil
}

// Result returns the finished result, or nil while the session is running.
func (m Model) Result() *schelling.Result {
	return m.result
}

func (m Model) Steps() int { return m.session.Steps() }

func (m Model) Running() bool { return m.running }

func (m Model) StepsPerTick() int { return m.stepsPerTick }

func (m Model) status() string {
	switch {
	case m.result != nil:
		return StatusStopped.Render(strings.ToUpper(string(m.result.Status)))
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Model) renderGrid() string {
	th := CurrentTheme
	empty := lipgloss.NewStyle().Background(th.Empty)
	groupA := lipgloss.NewStyle().Background(th.GroupA)
	groupB := lipgloss.NewStyle().Background(th.GroupB)

	var b strings.Builder
	for _, row := range m.session.Grid().Rows() {
		for _, v := range row {
			switch v {
			case schelling.GroupA:
				b.WriteString(groupA.Render(" "))
			case schelling.GroupB:
				b.WriteString(groupB.Render(" "))
			default:
				b.WriteString(empty.Render(" "))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the grid next to the run statistics.
func (m Model) View() string {
	th := CurrentTheme
	header := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)

	var s strings.Builder
	s.WriteString(header.Render("SEGREGATION") + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.unhappy) > 1 {
		chart := asciigraph.Plot(m.unhappy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Unhappy agents"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(SparklineChart(m.unhappy, 30) + "\n\n")

	counts := m.session.Grid().Counts()
	s.WriteString(MetricLabel.Render("Step") + MetricValue.Render(fmt.Sprintf("%d", m.session.Steps())) + "\n")
	s.WriteString(MetricLabel.Render("Moves") + MetricValue.Render(fmt.Sprintf("%d", m.session.Moves())) + "\n")
	if len(m.unhappy) > 0 {
		s.WriteString(MetricLabel.Render("Unhappy") + MetricValue.Render(fmt.Sprintf("%.0f / %d", m.unhappy[len(m.unhappy)-1], counts.Agents())) + "\n")
	}
	s.WriteString(MetricLabel.Render("Similarity") + MetricValue.Render(fmt.Sprintf("%.3f", m.similarity.Value())) + "\n")
	s.WriteString(MetricLabel.Render("Speed") + MetricValue.Render(fmt.Sprintf("%d steps/tick", m.stepsPerTick)) + "\n")
	s.WriteString(MetricLabel.Render("Seed") + MetricValue.Render(fmt.Sprintf("%d", m.seed)) + "\n")
	s.WriteString(MetricLabel.Render("Theme") + MetricValue.Render(th.Name) + "\n\n")

	budget := float64(m.session.Steps()) / float64(m.cfg.MaxSteps)
	s.WriteString(MetricLabel.Render("Budget") + ProgressBar(budget, 20) + "\n")

	if m.result != nil {
		s.WriteString("\n" + m.result.Message() + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + Subtle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render("\n" + Separator(30) + "\nSP:Pause N:Step R:Reset S:Reseed\n+/-:Speed T:Theme G:Record ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, gridStyle.Render(m.renderGrid()), statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Single step (pauses)     ║
║  R        - Reset with the same seed ║
║  S        - Reset with the next seed ║
║  +/-      - Double/halve speed       ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

// RunLive opens the live view on cfg and returns the result once the user quits.
func RunLive(cfg *config.Config) (*schelling.Result, error) {
	m, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(Model).Result(), nil
}
