// Package cycle builds the deterministic Hamiltonian cycle the autopilot
// falls back to as a provably-safe baseline: a single closed tour visiting
// every cell of the grid exactly once. A cycle only exists when at least one
// grid dimension is even; on odd x odd grids Build returns a Cycle whose
// IsValid reports false, and callers degrade to policies that do not need it.
package cycle

import "github.com/corvid9/snakepilot/grid"

// Cycle is an immutable, ordered circular tour of a grid.Bounds, built once
// per game and never mutated afterward.
type Cycle struct {
	bounds  grid.Bounds
	order   []grid.Cell
	indexOf []int // keyed by bounds.Key(cell); -1 if cell not a cycle member (never happens when valid)
	valid   bool
}

// Build constructs the Hamiltonian cycle for bounds. If neither dimension is
// even, or the serpentine construction fails its own validation, the
// returned Cycle has IsValid() == false and every other query degrades
// gracefully (IndexOf returns -1, NextCell returns ok=false).
func Build(bounds grid.Bounds) Cycle {
	var order []grid.Cell
	switch {
	case bounds.Width()%2 == 0:
		order = serpentineEvenWidth(bounds)
	case bounds.Height()%2 == 0:
		order = serpentineEvenHeight(bounds)
	default:
		return Cycle{bounds: bounds, valid: false}
	}

	c := Cycle{bounds: bounds, order: order}
	c.indexOf = make([]int, bounds.CellCount())
	for i := range c.indexOf {
		c.indexOf[i] = -1
	}
	for i, cell := range order {
		c.indexOf[bounds.Key(cell)] = i
	}
	c.valid = validate(bounds, order)
	if !c.valid {
		c.order = nil
		c.indexOf = nil
	}
	return c
}

// serpentineEvenWidth builds the cycle for an even-width grid of any height:
// down column 0 fully, then weave through column pairs 1..width-2 (up one,
// across, down the next), then up the final column fully, then back along
// the top row to close the loop at the origin.
func serpentineEvenWidth(b grid.Bounds) []grid.Cell {
	order := make([]grid.Cell, 0, b.CellCount())
	for _, p := range buildSerpentine(b.Width(), b.Height()) {
		order = append(order, grid.Cell{X: b.MinX() + p[0], Z: b.MinZ() + p[1]})
	}
	return order
}

// serpentineEvenHeight mirrors serpentineEvenWidth with the axes swapped:
// the even dimension (height) plays the role of the "column" axis above, and
// X and Z are exchanged when mapping back to grid coordinates.
func serpentineEvenHeight(b grid.Bounds) []grid.Cell {
	order := make([]grid.Cell, 0, b.CellCount())
	for _, p := range buildSerpentine(b.Height(), b.Width()) {
		order = append(order, grid.Cell{X: b.MinX() + p[1], Z: b.MinZ() + p[0]})
	}
	return order
}

// buildSerpentine returns a Hamiltonian tour of an evenLen x otherLen grid as
// (col, row) pairs with col in [0, evenLen) and row in [0, otherLen), where
// evenLen must be even. The tour: descends column 0 fully, weaves through
// column pairs (1,2), (3,4), ... confined to rows [1, otherLen-1] so the
// weave never touches row 0, ascends the final column fully (reaching row
// 0), then returns along row 0 back to the origin.
func buildSerpentine(evenLen, otherLen int) [][2]int {
	pts := make([][2]int, 0, evenLen*otherLen)
	put := func(col, row int) { pts = append(pts, [2]int{col, row}) }

	for row := 0; row < otherLen; row++ {
		put(0, row)
	}

	col := 1
	for col+1 <= evenLen-2 {
		put(col, otherLen-1)
		for row := otherLen - 2; row >= 1; row-- {
			put(col, row)
		}
		put(col+1, 1)
		for row := 2; row <= otherLen-1; row++ {
			put(col+1, row)
		}
		col += 2
	}

	lastCol := evenLen - 1
	put(lastCol, otherLen-1)
	for row := otherLen - 2; row >= 0; row-- {
		put(lastCol, row)
	}
	for c := lastCol - 1; c >= 1; c-- {
		put(c, 0)
	}

	return pts
}

// validate checks that order visits every cell exactly once and that every
// consecutive pair, including the wrap from last to first, is
// Manhattan-adjacent.
func validate(b grid.Bounds, order []grid.Cell) bool {
	if len(order) != b.CellCount() {
		return false
	}
	seen := grid.NewCellSet(b)
	for _, c := range order {
		if !b.InBounds(c) || seen.Contains(c) {
			return false
		}
		seen.Add(c)
	}
	for i := range order {
		next := order[(i+1)%len(order)]
		if grid.ManhattanDistance(order[i], next) != 1 {
			return false
		}
	}
	return true
}

// IsValid reports whether this Cycle is a usable Hamiltonian tour. When
// false, the autopilot must skip the policies that depend on it.
func (c Cycle) IsValid() bool { return c.valid }

// Len returns the number of cells in the cycle (0 if invalid).
func (c Cycle) Len() int { return len(c.order) }

// IndexOf returns the position of cell in the cycle, or -1 if cell is not a
// member (including whenever the cycle is invalid).
func (c Cycle) IndexOf(cell grid.Cell) int {
	if !c.valid || !c.bounds.InBounds(cell) {
		return -1
	}
	return c.indexOf[c.bounds.Key(cell)]
}

// CellAt returns the cell at the given index, wrapping modularly; negative
// indices wrap backward from the end.
func (c Cycle) CellAt(index int) grid.Cell {
	n := len(c.order)
	if n == 0 {
		return grid.Cell{}
	}
	i := index % n
	if i < 0 {
		i += n
	}
	return c.order[i]
}

// NextCell returns the cycle successor of cell. ok is false if the cycle is
// invalid or cell is not a member.
func (c Cycle) NextCell(cell grid.Cell) (grid.Cell, bool) {
	idx := c.IndexOf(cell)
	if idx < 0 {
		return grid.Cell{}, false
	}
	return c.CellAt(idx + 1), true
}

// DistanceForward returns (toIdx - fromIdx) mod length, always non-negative.
// Returns 0 if the cycle is invalid (length 0 would otherwise divide by
// zero).
func (c Cycle) DistanceForward(fromIdx, toIdx int) int {
	n := len(c.order)
	if n == 0 {
		return 0
	}
	d := (toIdx - fromIdx) % n
	if d < 0 {
		d += n
	}
	return d
}
