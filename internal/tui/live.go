package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/segsim/internal/schelling"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

var (
	emptyStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#ffffff"))
	groupAStyle = lipgloss.NewStyle().Background(lipgloss.Color("#1f4fd6"))
	groupBStyle = lipgloss.NewStyle().Background(lipgloss.Color("#d62828"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Renderer redraws the whole grid on every frame, clearing the terminal first.
// With plain set it draws ASCII glyphs instead of coloured blocks.
type Renderer struct {
	out       io.Writer
	frameRate int
	plain     bool
	lastFrame time.Time
}

// NewRenderer draws to out (stdout when nil). A frameRate of 0 draws every step.
func NewRenderer(out io.Writer, frameRate int, plain bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, frameRate: frameRate, plain: plain}
}

func (r *Renderer) OnStart(g *schelling.Grid) {
	r.lastFrame = time.Now()
	r.render(g, "Step 0", "")
}

func (r *Renderer) OnStep(step int, g *schelling.Grid, mv schelling.Move) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
	}
	r.lastFrame = time.Now()
	r.render(g, fmt.Sprintf("Step %d", step), fmt.Sprintf("moved %s %s -> %s", mv.Color, mv.From, mv.To))
}

func (r *Renderer) OnFinish(res *schelling.Result) {
	if res.Final == nil {
		return
	}
	r.render(res.Final, fmt.Sprintf("Step %d", res.Steps), res.Message())
}

func (r *Renderer) render(g *schelling.Grid, title, footer string) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString("  " + titleStyle.Render(title) + "\n")

	for _, row := range g.Rows() {
		b.WriteString("  ")
		for _, v := range row {
			b.WriteString(r.cell(v))
		}
		b.WriteString("\n")
	}

	if footer != "" {
		b.WriteString("  " + footer + "\n")
	}
	fmt.Fprint(r.out, b.String())
}

func (r *Renderer) cell(v schelling.Cell) string {
	if r.plain {
		switch v {
		case schelling.GroupA:
			return "x "
		case schelling.GroupB:
			return "o "
		default:
			return ". "
		}
	}
	switch v {
	case schelling.GroupA:
		return groupAStyle.Render("  ")
	case schelling.GroupB:
		return groupBStyle.Render("  ")
	default:
		return emptyStyle.Render("  ")
	}
}

func (r *Renderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *Renderer) Stop()  { fmt.Fprint(r.out, showCursor) }
