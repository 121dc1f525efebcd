package cycle

import (
	"testing"

	"github.com/corvid9/snakepilot/grid"
)

func mustBounds(t *testing.T, w, h int) grid.Bounds {
	b, err := grid.New(w, h, 0, 0)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return b
}

func assertValidCycle(t *testing.T, b grid.Bounds, c Cycle) {
	t.Helper()
	if !c.IsValid() {
		t.Fatalf("expected valid cycle for %dx%d grid", b.Width(), b.Height())
	}
	if c.Len() != b.CellCount() {
		t.Fatalf("cycle length = %d, want %d", c.Len(), b.CellCount())
	}
	seen := make(map[grid.Cell]bool, c.Len())
	for i := 0; i < c.Len(); i++ {
		cell := c.CellAt(i)
		if !b.InBounds(cell) {
			t.Fatalf("cycle cell %v at index %d is out of bounds", cell, i)
		}
		if seen[cell] {
			t.Fatalf("cycle visits %v more than once", cell)
		}
		seen[cell] = true
	}
	if len(seen) != b.CellCount() {
		t.Fatalf("cycle covers %d distinct cells, want %d", len(seen), b.CellCount())
	}
	for i := 0; i < c.Len(); i++ {
		next := c.CellAt(i + 1)
		if grid.ManhattanDistance(c.CellAt(i), next) != 1 {
			t.Fatalf("cycle index %d -> %d not adjacent (%v -> %v)", i, (i+1)%c.Len(), c.CellAt(i), next)
		}
	}
}

func TestBuild2x2ProducesValidLength4Cycle(t *testing.T) {
	b := mustBounds(t, 2, 2)
	c := Build(b)
	assertValidCycle(t, b, c)
	if c.Len() != 4 {
		t.Fatalf("expected length 4, got %d", c.Len())
	}
}

func TestBuild3x3IsInvalid(t *testing.T) {
	b := mustBounds(t, 3, 3)
	c := Build(b)
	if c.IsValid() {
		t.Fatal("3x3 grid should not yield a valid Hamiltonian cycle")
	}
}

func TestBuildVariousEvenDimensions(t *testing.T) {
	sizes := [][2]int{
		{2, 2}, {2, 3}, {3, 2}, {4, 3}, {3, 4}, {4, 4}, {4, 5}, {5, 4},
		{6, 3}, {3, 6}, {20, 20}, {20, 19}, {19, 20}, {8, 7}, {7, 8}, {6, 7},
	}
	for _, sz := range sizes {
		b := mustBounds(t, sz[0], sz[1])
		c := Build(b)
		if sz[0]%2 != 0 && sz[1]%2 != 0 {
			if c.IsValid() {
				t.Errorf("%dx%d: both dimensions odd, expected invalid cycle", sz[0], sz[1])
			}
			continue
		}
		assertValidCycle(t, b, c)
	}
}

func TestIndexOfCellAtRoundTrip(t *testing.T) {
	b := mustBounds(t, 20, 20)
	c := Build(b)
	for i := 0; i < c.Len(); i++ {
		cell := c.CellAt(i)
		if got := c.IndexOf(cell); got != i {
			t.Fatalf("IndexOf(CellAt(%d)) = %d, want %d", i, got, i)
		}
	}
}

func TestCellAtWrapsModularly(t *testing.T) {
	b := mustBounds(t, 4, 4)
	c := Build(b)
	n := c.Len()
	if c.CellAt(n) != c.CellAt(0) {
		t.Error("CellAt(length) should wrap to CellAt(0)")
	}
	if c.CellAt(-1) != c.CellAt(n-1) {
		t.Error("CellAt(-1) should wrap to the last element")
	}
}

func TestDistanceForwardSelfIsZero(t *testing.T) {
	b := mustBounds(t, 6, 6)
	c := Build(b)
	for i := 0; i < c.Len(); i += 7 {
		if got := c.DistanceForward(i, i); got != 0 {
			t.Errorf("DistanceForward(%d, %d) = %d, want 0", i, i, got)
		}
	}
}

func TestDistanceForwardIsNonNegativeAndWraps(t *testing.T) {
	b := mustBounds(t, 4, 4)
	c := Build(b)
	n := c.Len()
	if got := c.DistanceForward(n-1, 0); got != 1 {
		t.Errorf("DistanceForward(last, first) = %d, want 1", got)
	}
	if got := c.DistanceForward(1, n-1); got < 0 {
		t.Errorf("DistanceForward must never be negative, got %d", got)
	}
}

func TestInvalidCycleDegradesGracefully(t *testing.T) {
	b := mustBounds(t, 5, 5)
	c := Build(b)
	if c.IndexOf(grid.Cell{X: 0, Z: 0}) != -1 {
		t.Error("IndexOf on an invalid cycle should return -1")
	}
	if _, ok := c.NextCell(grid.Cell{X: 0, Z: 0}); ok {
		t.Error("NextCell on an invalid cycle should return ok=false")
	}
	if got := c.CellAt(3); got != (grid.Cell{}) {
		t.Errorf("CellAt on an invalid (empty) cycle should be the zero cell, got %v", got)
	}
}

func TestNextCellMatchesCellAtSuccessor(t *testing.T) {
	b := mustBounds(t, 20, 20)
	c := Build(b)
	for i := 0; i < c.Len(); i += 13 {
		cell := c.CellAt(i)
		next, ok := c.NextCell(cell)
		if !ok {
			t.Fatalf("NextCell(%v) unexpectedly failed", cell)
		}
		if want := c.CellAt(i + 1); next != want {
			t.Errorf("NextCell(%v) = %v, want %v", cell, next, want)
		}
	}
}
