// Package pathfind implements A* search and flood-fill over a grid.Bounds
// against a per-call obstacle set. Neither function raises on failure; they
// return a "no result" sentinel (nil path / zero count) and leave the
// caller to interpret it.
package pathfind

import (
	"container/heap"

	"github.com/corvid9/snakepilot/grid"
)

// FindPath runs A* from start to end, 4-connected, bounds- and
// obstacle-checked, using Manhattan distance as the heuristic. The returned
// path excludes start and includes end, in step order. If start == end it
// returns an empty, non-nil path. It returns ok == false if end is
// unreachable.
func FindPath(bounds grid.Bounds, start, end grid.Cell, obstacles grid.CellSet) ([]grid.Cell, bool) {
	if start == end {
		return []grid.Cell{}, true
	}
	if !bounds.InBounds(start) || !bounds.InBounds(end) {
		return nil, false
	}

	n := bounds.CellCount()
	gScore := make([]int, n)
	visited := make([]bool, n)
	cameFrom := make([]grid.Cell, n)
	haveCameFrom := make([]bool, n)
	for i := range gScore {
		gScore[i] = -1
	}

	startKey := bounds.Key(start)
	gScore[startKey] = 0

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, openEntry{cell: start, f: grid.ManhattanDistance(start, end)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(openEntry).cell
		curKey := bounds.Key(cur)
		if visited[curKey] {
			continue
		}
		visited[curKey] = true

		if cur == end {
			return reconstructPath(bounds, cameFrom, haveCameFrom, start, end), true
		}

		for _, d := range grid.Directions {
			next := cur.Apply(d)
			if !bounds.InBounds(next) {
				continue
			}
			if next != end && obstacles.Contains(next) {
				continue
			}
			nextKey := bounds.Key(next)
			if visited[nextKey] {
				continue
			}
			tentative := gScore[curKey] + 1
			if gScore[nextKey] != -1 && tentative >= gScore[nextKey] {
				continue
			}
			gScore[nextKey] = tentative
			cameFrom[nextKey] = cur
			haveCameFrom[nextKey] = true
			f := tentative + grid.ManhattanDistance(next, end)
			heap.Push(open, openEntry{cell: next, f: f})
		}
	}

	return nil, false
}

func reconstructPath(bounds grid.Bounds, cameFrom []grid.Cell, have []bool, start, end grid.Cell) []grid.Cell {
	var reversed []grid.Cell
	cur := end
	for cur != start {
		reversed = append(reversed, cur)
		key := bounds.Key(cur)
		if !have[key] {
			break
		}
		cur = cameFrom[key]
	}
	path := make([]grid.Cell, len(reversed))
	for i, c := range reversed {
		path[len(reversed)-1-i] = c
	}
	return path
}

// openEntry is one A* frontier node.
type openEntry struct {
	cell grid.Cell
	f    int
}

// openSet is a binary min-heap over openEntry.f, implementing container/heap.
type openSet []openEntry

func (s openSet) Len() int            { return len(s) }
func (s openSet) Less(i, j int) bool  { return s[i].f < s[j].f }
func (s openSet) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x interface{}) { *s = append(*s, x.(openEntry)) }
func (s *openSet) Pop() interface{} {
	old := *s
	n := len(old)
	item := old[n-1]
	*s = old[:n-1]
	return item
}

// FloodFill returns the number of cells reachable from start via 4-connected
// BFS without crossing an obstacle, including start itself if it is legal
// (in bounds and not itself an obstacle). The search is bounded by
// bounds.CellCount() so it can never run away on malformed inputs.
func FloodFill(bounds grid.Bounds, start grid.Cell, obstacles grid.CellSet) int {
	if !bounds.InBounds(start) || obstacles.Contains(start) {
		return 0
	}

	visited := grid.NewCellSet(bounds)
	queue := make([]grid.Cell, 0, bounds.CellCount())
	queue = append(queue, start)
	visited.Add(start)
	count := 0

	for head := 0; head < len(queue) && count < bounds.CellCount(); head++ {
		cur := queue[head]
		count++
		for _, d := range grid.Directions {
			next := cur.Apply(d)
			if !bounds.InBounds(next) || obstacles.Contains(next) || visited.Contains(next) {
				continue
			}
			visited.Add(next)
			queue = append(queue, next)
		}
	}

	return count
}

// OpenNeighborCount returns how many of start's four orthogonal neighbors are
// in bounds and not present in obstacles. Used by the autopilot's survival
// score to favor cells with high immediate branching factor.
func OpenNeighborCount(bounds grid.Bounds, start grid.Cell, obstacles grid.CellSet) int {
	count := 0
	for _, d := range grid.Directions {
		next := start.Apply(d)
		if bounds.InBounds(next) && !obstacles.Contains(next) {
			count++
		}
	}
	return count
}
