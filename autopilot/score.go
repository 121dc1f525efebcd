package autopilot

import (
	"math"

	"github.com/corvid9/snakepilot/cycle"
	"github.com/corvid9/snakepilot/grid"
	"github.com/corvid9/snakepilot/pathfind"
)

// obstaclesInterior marks body[1:len-1] (everything strictly between head
// and tail) plus hazards. This is the obstacle set used for legal-move
// enumeration, survival scoring, and the escape-route check, everywhere the
// head and tail are endpoints rather than blockers.
func (ap *Autopilot) obstaclesInterior(body []grid.Cell) grid.CellSet {
	set := grid.NewCellSet(ap.bounds)
	if len(body) > 2 {
		for _, c := range body[1 : len(body)-1] {
			set.Add(c)
		}
	}
	ap.hazards.ForEach(func(c grid.Cell) { set.Add(c) })
	return set
}

// obstaclesAllExceptTail marks every body segment except the tail, plus
// hazards. This is the obstacle set used when A*-searching from the head
// toward a fruit: the head itself is a legitimate obstacle to avoid
// re-entering, but the tail will have vacated by the time a multi-step path
// reaches it.
func (ap *Autopilot) obstaclesAllExceptTail(body []grid.Cell) grid.CellSet {
	set := grid.NewCellSet(ap.bounds)
	if len(body) > 1 {
		for _, c := range body[:len(body)-1] {
			set.Add(c)
		}
	}
	ap.hazards.ForEach(func(c grid.Cell) { set.Add(c) })
	return set
}

// survivalScore rewards open flood-fill space, free neighbor cells around
// the head, a generous forward gap to the tail along the Hamiltonian cycle
// (when one exists), and a gentle pull toward the nearest fruit.
func (ap *Autopilot) survivalScore(body []grid.Cell, fruits []grid.Cell) int {
	if len(body) == 0 {
		return math.MinInt32
	}
	head := body[0]
	tail := body[len(body)-1]
	obstacles := ap.obstaclesInterior(body)

	openSpace := pathfind.FloodFill(ap.bounds, head, obstacles)
	openNeighbors := pathfind.OpenNeighborCount(ap.bounds, head, obstacles)

	tailBuffer := 0
	if ap.cyc.IsValid() {
		if headIdx, tailIdx := ap.cyc.IndexOf(head), ap.cyc.IndexOf(tail); headIdx >= 0 && tailIdx >= 0 {
			tailBuffer = ap.cyc.DistanceForward(headIdx, tailIdx)
		}
	}

	nearest := 0
	if len(fruits) > 0 {
		nearest = grid.ManhattanDistance(head, fruits[0])
		for _, f := range fruits[1:] {
			if d := grid.ManhattanDistance(head, f); d < nearest {
				nearest = d
			}
		}
	}

	return openSpace*6 + openNeighbors*55 + tailBuffer*4 - nearest*3
}

// tailBufferFor returns the cycle-forward distance from head to tail, or 0
// if the cycle is invalid or either cell is not a cycle member.
func (ap *Autopilot) tailBufferFor(body []grid.Cell) int {
	if !ap.cyc.IsValid() || len(body) == 0 {
		return 0
	}
	head, tail := body[0], body[len(body)-1]
	headIdx, tailIdx := ap.cyc.IndexOf(head), ap.cyc.IndexOf(tail)
	if headIdx < 0 || tailIdx < 0 {
		return 0
	}
	return ap.cyc.DistanceForward(headIdx, tailIdx)
}

// hasEscapeRoute reports whether, after a hypothetical move leaves the snake
// in the shape of body, an A* path still exists from the new head to the
// new tail through the interior of the body plus hazards. A single-segment
// body (head == tail) trivially has an escape route.
func (ap *Autopilot) hasEscapeRoute(body []grid.Cell) bool {
	if len(body) < 2 {
		return true
	}
	head, tail := body[0], body[len(body)-1]
	obstacles := ap.obstaclesInterior(body)
	_, ok := pathfind.FindPath(ap.bounds, head, tail, obstacles)
	return ok
}

// cycleOrderInvariant reports whether body's head-to-tail forward gap on the
// cycle exceeds the minimum required gap for a snake of this length. When
// the cycle is invalid the invariant is vacuously satisfied, so policy A
// still runs on such grids; policy D, its other caller, is skipped entirely
// in that case.
func cycleOrderInvariant(cyc cycle.Cycle, body []grid.Cell, grows bool) bool {
	if !cyc.IsValid() {
		return true
	}
	if len(body) == 0 {
		return false
	}
	head, tail := body[0], body[len(body)-1]
	headIdx, tailIdx := cyc.IndexOf(head), cyc.IndexOf(tail)
	if headIdx < 0 || tailIdx < 0 {
		return false
	}
	gap := cyc.DistanceForward(headIdx, tailIdx)

	base := 1
	if grows {
		base = 2
	}
	length := len(body)
	required := int(math.Floor(float64(length) * 0.08))
	if required < base {
		required = base
	}
	return gap > required
}
