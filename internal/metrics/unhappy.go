package metrics

import "github.com/san-kum/segsim/internal/schelling"

// UnhappyShare is the fraction of agents that were unhappy at the last sample.
type UnhappyShare struct {
	name  string
	value float64
}

func NewUnhappyShare() *UnhappyShare {
	return &UnhappyShare{name: "unhappy_share"}
}

func (u *UnhappyShare) Name() string { return u.name }

func (u *UnhappyShare) Observe(step int, g *schelling.Grid) {
	agents := g.Counts().Agents()
	if agents == 0 {
		u.value = 0
		return
	}
	u.value = float64(len(schelling.UnhappyCells(g))) / float64(agents)
}

func (u *UnhappyShare) Value() float64 { return u.value }

func (u *UnhappyShare) Reset() { u.value = 0 }

// Moves counts relocations, i.e. samples after the initial one.
type Moves struct {
	name  string
	count int
}

func NewMoves() *Moves {
	return &Moves{name: "moves"}
}

func (m *Moves) Name() string { return m.name }

func (m *Moves) Observe(step int, g *schelling.Grid) {
	if step > 0 {
		m.count++
	}
}

func (m *Moves) Value() float64 { return float64(m.count) }

func (m *Moves) Reset() { m.count = 0 }

func Default() []schelling.Metric {
	return []schelling.Metric{
		NewSimilarity(),
		NewUnhappyShare(),
		NewMoves(),
	}
}
