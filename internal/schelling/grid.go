package schelling

import (
	"fmt"
	"math"
)

// Ratios are the target population shares of an initial grid.
type Ratios struct {
	Blue  float64
	Red   float64
	Empty float64
}

func DefaultRatios() Ratios {
	return Ratios{Blue: 0.45, Red: 0.45, Empty: 0.1}
}

// Composition converts ratios into cell counts for an n×n grid. Each count is
// truncated; whatever the three counts leave uncovered is assigned to Empty.
func (r Ratios) Composition(n int) (Counts, error) {
	if n < 1 {
		return Counts{}, &ConfigError{Field: "size", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"blue_ratio", r.Blue}, {"red_ratio", r.Red}, {"empty_ratio", r.Empty}} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return Counts{}, &ConfigError{Field: f.name, Reason: fmt.Sprintf("must be in [0,1], got %v", f.v)}
		}
	}

	total := n * n
	c := Counts{
		GroupA: int(math.Floor(r.Blue * float64(total))),
		GroupB: int(math.Floor(r.Red * float64(total))),
		Empty:  int(math.Floor(r.Empty * float64(total))),
	}
	if c.Total() > total {
		return Counts{}, &ConfigError{
			Field:  "ratios",
			Reason: fmt.Sprintf("%d agents and %d empty cells do not fit in %d cells", c.Agents(), c.Empty, total),
		}
	}
	c.Empty = total - c.Agents()
	return c, nil
}

// Populate builds an n×n grid with the composition given by r, arranged by a
// single uniform shuffle drawn from rng.
//
// A grid without empty cells can never change, so it is rejected when it
// already holds an unhappy agent.
func Populate(n int, r Ratios, rng Rand) (*Grid, error) {
	counts, err := r.Composition(n)
	if err != nil {
		return nil, err
	}

	g := NewGrid(n)
	i := 0
	for ; i < counts.GroupA; i++ {
		g.cells[i] = GroupA
	}
	for ; i < counts.Agents(); i++ {
		g.cells[i] = GroupB
	}
	rng.Shuffle(len(g.cells), func(a, b int) {
		g.cells[a], g.cells[b] = g.cells[b], g.cells[a]
	})

	if counts.Empty == 0 {
		if unhappy := UnhappyCells(g); len(unhappy) > 0 {
			return nil, &ConfigError{
				Field:  "empty_ratio",
				Reason: fmt.Sprintf("grid has no empty cells but %d unhappy agents", len(unhappy)),
			}
		}
	}
	return g, nil
}
