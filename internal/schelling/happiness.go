package schelling

// HappyThreshold is the number of same-coloured neighbours an agent needs.
// It does not shrink for edge and corner cells.
const HappyThreshold = 2

// SameColorNeighbors counts cells in the Moore window around c, clipped to the
// grid, that share c's value. The cell itself is not counted.
func SameColorNeighbors(g *Grid, c Coord) int {
	color := g.At(c)
	count := 0
	for r := max(0, c.Row-1); r <= min(g.n-1, c.Row+1); r++ {
		for col := max(0, c.Col-1); col <= min(g.n-1, c.Col+1); col++ {
			if r == c.Row && col == c.Col {
				continue
			}
			if g.cells[r*g.n+col] == color {
				count++
			}
		}
	}
	return count
}

// IsHappy reports whether the cell at c is satisfied. Empty cells always are.
func IsHappy(g *Grid, c Coord) bool {
	if g.At(c) == Empty {
		return true
	}
	return SameColorNeighbors(g, c) >= HappyThreshold
}

// UnhappyCells returns every unsatisfied agent in row-major order.
func UnhappyCells(g *Grid) []Coord {
	var out []Coord
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			at := Coord{Row: r, Col: c}
			if g.cells[r*g.n+c] != Empty && !IsHappy(g, at) {
				out = append(out, at)
			}
		}
	}
	return out
}

// EmptyCells returns every empty cell in row-major order.
func EmptyCells(g *Grid) []Coord {
	var out []Coord
	for i, v := range g.cells {
		if v == Empty {
			out = append(out, Coord{Row: i / g.n, Col: i % g.n})
		}
	}
	return out
}
