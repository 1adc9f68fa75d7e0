package metrics

import "github.com/san-kum/segsim/internal/schelling"

// Trace keeps the unhappy-agent count of the initial grid and of every step in
// memory, for plotting once the run ends. Every stride-th step is kept.
type Trace struct {
	stride int
	steps  []int
	counts []float64
}

func NewTrace(stride int) *Trace {
	if stride < 1 {
		stride = 1
	}
	return &Trace{stride: stride}
}

func (t *Trace) OnStart(g *schelling.Grid) {
	t.steps = t.steps[:0]
	t.counts = t.counts[:0]
	t.record(0, g)
}

func (t *Trace) OnStep(step int, g *schelling.Grid, mv schelling.Move) {
	if step%t.stride == 0 {
		t.record(step, g)
	}
}

// OnFinish records the final grid if the last step fell between strides.
func (t *Trace) OnFinish(r *schelling.Result) {
	if r.Final == nil || len(t.steps) == 0 {
		return
	}
	last := r.Steps
	if r.Status == schelling.StatusConverged {
		last = r.ConvergedAt
	}
	if t.steps[len(t.steps)-1] != last {
		t.record(last, r.Final)
	}
}

func (t *Trace) record(step int, g *schelling.Grid) {
	t.steps = append(t.steps, step)
	t.counts = append(t.counts, float64(len(schelling.UnhappyCells(g))))
}

func (t *Trace) Steps() []int { return t.steps }

func (t *Trace) Values() []float64 { return t.counts }
