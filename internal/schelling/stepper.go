package schelling

// Step relocates at most one unhappy agent to an empty cell, both picked
// uniformly at random. It reports false, without touching rng, when every
// agent is already happy.
func Step(g *Grid, rng Rand) (Move, bool, error) {
	unhappy := UnhappyCells(g)
	if len(unhappy) == 0 {
		return Move{}, false, nil
	}

	from := unhappy[rng.Intn(len(unhappy))]
	empty := EmptyCells(g)
	if len(empty) == 0 {
		return Move{}, false, &StepError{Unhappy: len(unhappy), Wrapped: ErrInvalidState}
	}
	to := empty[rng.Intn(len(empty))]

	mv := Move{From: from, To: to, Color: g.At(from)}
	g.Set(to, mv.Color)
	g.Set(from, Empty)
	return mv, true, nil
}
