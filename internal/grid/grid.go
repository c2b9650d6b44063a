// Package grid generates stimulus grids and their single-cell mutations,
// and maps between grid cells and screen pixels.
package grid

import (
	"fmt"
	"math/rand/v2"
)

// Cell addresses one grid position.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Mutation replaces the category at Cell.
type Mutation struct {
	Cell
	Category int
}

// Grid is a square matrix of category indices in [0, Categories).
// The zero value is an empty grid; use Generate.
type Grid struct {
	size       int
	categories int
	cells      []int
}

// Generate fills a size×size grid with uniformly random categories.
func Generate(rng *rand.Rand, size, categories int) Grid {
	g := Grid{size: size, categories: categories, cells: make([]int, size*size)}
	for i := range g.cells {
		g.cells[i] = rng.IntN(categories)
	}
	return g
}

// FromRows builds a grid from explicit rows. It panics on a ragged or
// out-of-range input; it exists for fixtures and replays.
func FromRows(categories int, rows [][]int) Grid {
	g := Grid{size: len(rows), categories: categories, cells: make([]int, 0, len(rows)*len(rows))}
	for r, row := range rows {
		if len(row) != len(rows) {
			panic(fmt.Sprintf("grid: row %d has %d cells, want %d", r, len(row), len(rows)))
		}
		for c, v := range row {
			if v < 0 || v >= categories {
				panic(fmt.Sprintf("grid: cell (%d,%d)=%d outside [0,%d)", r, c, v, categories))
			}
		}
		g.cells = append(g.cells, row...)
	}
	return g
}

func (g Grid) Size() int       { return g.size }
func (g Grid) Categories() int { return g.categories }

// At returns the category at c.
func (g Grid) At(c Cell) int { return g.cells[c.Row*g.size+c.Col] }

// Cells lists every cell in row-major order.
func (g Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			out = append(out, Cell{Row: r, Col: c})
		}
	}
	return out
}

// Apply returns a copy of g with m applied. g is left untouched.
func (g Grid) Apply(m Mutation) Grid {
	out := Grid{size: g.size, categories: g.categories, cells: make([]int, len(g.cells))}
	copy(out.cells, g.cells)
	out.cells[m.Row*g.size+m.Col] = m.Category
	return out
}

// ChooseMutation picks a uniformly random cell and a category, uniformly
// among the categories other than the cell's current one.
func ChooseMutation(rng *rand.Rand, g Grid) Mutation {
	c := Cell{Row: rng.IntN(g.size), Col: rng.IntN(g.size)}
	cur := g.At(c)

	// Pick among categories-1 values and skip over the current one.
	next := rng.IntN(g.categories - 1)
	if next >= cur {
		next++
	}
	return Mutation{Cell: c, Category: next}
}

// Diff lists the cells whose category differs between a and b.
// Grids of different sizes differ everywhere.
func Diff(a, b Grid) []Cell {
	if a.size != b.size {
		if a.size > b.size {
			return a.Cells()
		}
		return b.Cells()
	}
	var out []Cell
	for i := range a.cells {
		if a.cells[i] != b.cells[i] {
			out = append(out, Cell{Row: i / a.size, Col: i % a.size})
		}
	}
	return out
}
