package pathfind

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

func TestFindPathSameCellReturnsEmptyPath(t *testing.T) {
	b := mustBounds(t, 5, 5)
	obstacles := grid.NewCellSet(b)
	path, ok := FindPath(b, grid.Cell{X: 2, Z: 2}, grid.Cell{X: 2, Z: 2}, obstacles)
	if !ok {
		t.Fatal("expected ok=true for start==end")
	}
	if len(path) != 0 {
		t.Fatalf("expected empty path, got %v", path)
	}
}

func TestFindPathStraightLine(t *testing.T) {
	b := mustBounds(t, 5, 5)
	obstacles := grid.NewCellSet(b)
	path, ok := FindPath(b, grid.Cell{X: 0, Z: 0}, grid.Cell{X: 3, Z: 0}, obstacles)
	if !ok {
		t.Fatal("expected path to be found")
	}
	if len(path) != 3 {
		t.Fatalf("expected path length 3, got %d (%v)", len(path), path)
	}
	if path[len(path)-1] != (grid.Cell{X: 3, Z: 0}) {
		t.Fatalf("path should end at destination, got %v", path)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	b := mustBounds(t, 3, 3)
	obstacles := grid.NewCellSet(b)
	// Wall off the destination entirely.
	obstacles.Add(grid.Cell{X: 1, Z: 0})
	obstacles.Add(grid.Cell{X: 0, Z: 1})
	obstacles.Add(grid.Cell{X: 2, Z: 1})
	obstacles.Add(grid.Cell{X: 1, Z: 2})
	_, ok := FindPath(b, grid.Cell{X: 0, Z: 0}, grid.Cell{X: 1, Z: 1}, obstacles)
	if ok {
		t.Fatal("expected unreachable destination")
	}
}

func TestFindPathNeverCrossesObstacle(t *testing.T) {
	b := mustBounds(t, 6, 3)
	obstacles := grid.NewCellSet(b)
	// A wall across the middle column with a single gap at z=2.
	obstacles.Add(grid.Cell{X: 3, Z: 0})
	obstacles.Add(grid.Cell{X: 3, Z: 1})

	path, ok := FindPath(b, grid.Cell{X: 0, Z: 0}, grid.Cell{X: 5, Z: 0}, obstacles)
	if !ok {
		t.Fatal("expected a path around the wall")
	}
	for _, c := range path {
		if obstacles.Contains(c) {
			t.Fatalf("path crosses obstacle at %v: %v", c, path)
		}
	}
}

func TestFindPathDestinationReachableEvenIfMarkedObstacle(t *testing.T) {
	b := mustBounds(t, 5, 5)
	obstacles := grid.NewCellSet(b)
	dest := grid.Cell{X: 3, Z: 3}
	obstacles.Add(dest)
	path, ok := FindPath(b, grid.Cell{X: 0, Z: 0}, dest, obstacles)
	if !ok {
		t.Fatal("destination marked as obstacle should still be reachable")
	}
	if path[len(path)-1] != dest {
		t.Fatalf("path should end at destination, got %v", path)
	}
}

func TestFindPathOutOfBounds(t *testing.T) {
	b := mustBounds(t, 5, 5)
	obstacles := grid.NewCellSet(b)
	if _, ok := FindPath(b, grid.Cell{X: -1, Z: 0}, grid.Cell{X: 2, Z: 2}, obstacles); ok {
		t.Fatal("expected failure for out-of-bounds start")
	}
	if _, ok := FindPath(b, grid.Cell{X: 0, Z: 0}, grid.Cell{X: 99, Z: 99}, obstacles); ok {
		t.Fatal("expected failure for out-of-bounds end")
	}
}

func TestFloodFillEmptyBoardEqualsCellCount(t *testing.T) {
	b := mustBounds(t, 6, 4)
	obstacles := grid.NewCellSet(b)
	for _, c := range []grid.Cell{{0, 0}, {5, 0}, {2, 3}} {
		if got := FloodFill(b, c, obstacles); got != b.CellCount() {
			t.Errorf("FloodFill(%v, empty) = %d, want %d", c, got, b.CellCount())
		}
	}
}

func TestFloodFillRespectsObstacles(t *testing.T) {
	b := mustBounds(t, 5, 2)
	obstacles := grid.NewCellSet(b)
	obstacles.Add(grid.Cell{X: 2, Z: 0})
	obstacles.Add(grid.Cell{X: 2, Z: 1})
	got := FloodFill(b, grid.Cell{X: 0, Z: 0}, obstacles)
	if got != 4 {
		t.Errorf("FloodFill should be trapped on the left side of the wall, got %d, want 4", got)
	}
}

func TestFloodFillStartItselfObstacleReturnsZero(t *testing.T) {
	b := mustBounds(t, 3, 3)
	obstacles := grid.NewCellSet(b)
	start := grid.Cell{X: 1, Z: 1}
	obstacles.Add(start)
	if got := FloodFill(b, start, obstacles); got != 0 {
		t.Errorf("FloodFill from an obstacle cell = %d, want 0", got)
	}
}

func TestOpenNeighborCount(t *testing.T) {
	b := mustBounds(t, 5, 5)
	obstacles := grid.NewCellSet(b)
	obstacles.Add(grid.Cell{X: 3, Z: 2})
	if got := OpenNeighborCount(b, grid.Cell{X: 2, Z: 2}, obstacles); got != 3 {
		t.Errorf("OpenNeighborCount = %d, want 3", got)
	}
	corner := grid.Cell{X: 0, Z: 0}
	if got := OpenNeighborCount(b, corner, grid.NewCellSet(b)); got != 2 {
		t.Errorf("OpenNeighborCount at corner = %d, want 2", got)
	}
}
