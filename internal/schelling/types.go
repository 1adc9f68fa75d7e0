package schelling

import (
	"fmt"
	"strings"
)

type Cell uint8

const (
	Empty Cell = iota
	GroupA
	GroupB
)

func (c Cell) Valid() bool {
	return c <= GroupB
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

type Coord struct {
	Row, Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Move records a single relocation.
type Move struct {
	From  Coord
	To    Coord
	Color Cell
}

// Rand is the random source consumed by initialization and stepping.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Counts is a census of the grid by cell value.
type Counts struct {
	Empty  int `json:"empty"`
	GroupA int `json:"group_a"`
	GroupB int `json:"group_b"`
}

func (c Counts) Agents() int {
	return c.GroupA + c.GroupB
}

func (c Counts) Total() int {
	return c.Empty + c.GroupA + c.GroupB
}

// Grid is a fixed-size n×n board stored in row-major order.
type Grid struct {
	n     int
	cells []Cell
}

func NewGrid(n int) *Grid {
	if n < 0 {
		n = 0
	}
	return &Grid{n: n, cells: make([]Cell, n*n)}
}

// FromRows builds a grid from a square matrix of cell values.
func FromRows(rows [][]Cell) (*Grid, error) {
	n := len(rows)
	g := NewGrid(n)
	for r, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidGrid, r, len(row), n)
		}
		for c, v := range row {
			if !v.Valid() {
				return nil, fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidGrid, v, r, c)
			}
			g.cells[r*n+c] = v
		}
	}
	return g, nil
}

func (g *Grid) Size() int { return g.n }

func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.n && c.Col >= 0 && c.Col < g.n
}

func (g *Grid) At(c Coord) Cell {
	return g.cells[c.Row*g.n+c.Col]
}

func (g *Grid) Set(c Coord, v Cell) {
	g.cells[c.Row*g.n+c.Col] = v
}

func (g *Grid) Clone() *Grid {
	c := &Grid{n: g.n, cells: make([]Cell, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Rows returns a copy of the grid as a 2D slice.
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.n)
	for r := range rows {
		rows[r] = make([]Cell, g.n)
		copy(rows[r], g.cells[r*g.n:(r+1)*g.n])
	}
	return rows
}

func (g *Grid) Counts() Counts {
	var c Counts
	for _, v := range g.cells {
		switch v {
		case GroupA:
			c.GroupA++
		case GroupB:
			c.GroupB++
		default:
			c.Empty++
		}
	}
	return c
}

func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.n != other.n {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

// String renders the grid as digits, one row per line.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			b.WriteByte('0' + byte(g.cells[r*g.n+c]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
