package schelling_test

import (
	"github.com/san-kum/segsim/internal/schelling"
	"golang.org/x/exp/rand"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// scriptedRand replays fixed picks and counts draws.
type scriptedRand struct {
	picks []int
	draws int
}

func (r *scriptedRand) Intn(n int) int {
	p := 0
	if r.draws < len(r.picks) {
		p = r.picks[r.draws]
	}
	r.draws++
	return p % n
}

func (r *scriptedRand) Shuffle(n int, swap func(i, j int)) {}

func mustGrid(rows [][]schelling.Cell) *schelling.Grid {
	g, err := schelling.FromRows(rows)
	if err != nil {
		panic(err)
	}
	return g
}

const (
	E = schelling.Empty
	A = schelling.GroupA
	B = schelling.GroupB
)
