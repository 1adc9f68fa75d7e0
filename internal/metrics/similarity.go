package metrics

import "github.com/san-kum/segsim/internal/schelling"

// Similarity is the mean share of same-coloured neighbours among the occupied
// Moore neighbours of each agent. Agents with no occupied neighbour are skipped.
type Similarity struct {
	name  string
	value float64
}

func NewSimilarity() *Similarity {
	return &Similarity{name: "similarity"}
}

func (s *Similarity) Name() string { return s.name }

func (s *Similarity) Observe(step int, g *schelling.Grid) {
	s.value = SimilarityIndex(g)
}

func (s *Similarity) Value() float64 { return s.value }

func (s *Similarity) Reset() { s.value = 0 }

func SimilarityIndex(g *schelling.Grid) float64 {
	n := g.Size()
	sum, agents := 0.0, 0
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			color := g.At(schelling.Coord{Row: r, Col: c})
			if color == schelling.Empty {
				continue
			}
			same, occupied := 0, 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nb := schelling.Coord{Row: r + dr, Col: c + dc}
					if (dr == 0 && dc == 0) || !g.InBounds(nb) {
						continue
					}
					v := g.At(nb)
					if v == schelling.Empty {
						continue
					}
					occupied++
					if v == color {
						same++
					}
				}
			}
			if occupied == 0 {
				continue
			}
			sum += float64(same) / float64(occupied)
			agents++
		}
	}
	if agents == 0 {
		return 0
	}
	return sum / float64(agents)
}
