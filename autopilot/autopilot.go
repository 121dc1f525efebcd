// Package autopilot implements the decision pipeline that picks the snake's
// next orthogonal move: a provably-safe Hamiltonian baseline, a validated
// shortcut planner that takes greedy detours to fruit, and a survival-first
// emergency fallback, all routed through simulate.Simulate as the single
// oracle for move legality. The Autopilot never raises on bad input; every
// public entry point degrades to a safe answer instead.
package autopilot

import (
	"log/slog"
	"sort"

	"github.com/corvid9/snakepilot/cycle"
	"github.com/corvid9/snakepilot/grid"
	"github.com/corvid9/snakepilot/pathfind"
	"github.com/corvid9/snakepilot/simulate"
)

// DebugStats is the diagnostics record exposed by DebugStats(). It is
// intended for tests and operational dashboards, not for decision logic.
type DebugStats struct {
	// Mode is "cycle" when a Hamiltonian cycle is available for this grid and
	// "fallback-only" when it isn't (odd cell count), regardless of which
	// policy actually fired on the last tick — see LastDecision for that.
	Mode               string `json:"mode"`
	CycleAvailable     bool   `json:"cycle_available"`
	ShortcutsAccepted  int    `json:"shortcuts_accepted"`
	ShortcutsRejected  int    `json:"shortcuts_rejected"`
	EmergencyCount     int    `json:"emergency_count"`
	FallbackCount      int    `json:"fallback_count"`
	LastDecision       string `json:"last_decision"`
	LastSurvivalBuffer int    `json:"last_survival_buffer"`
	Step               uint64 `json:"step"`
}

// Autopilot owns the immutable grid/cycle for one game plus the small amount
// of state that varies call to call: the step counter, the difficulty tag,
// the last-known hazard set, and debug counters. It is not safe for
// concurrent use by multiple goroutines — callers that need parallel games
// (the harness) construct one Autopilot per goroutine.
type Autopilot struct {
	bounds     grid.Bounds
	cyc        cycle.Cycle
	difficulty string

	hazardCells []grid.Cell
	hazards     grid.CellSet

	step   uint64
	stats  DebugStats
	logger *slog.Logger
}

// New constructs an Autopilot for the given grid and difficulty tag. The
// Hamiltonian cycle is built once here; if the grid has no even dimension
// the cycle is simply invalid and policies C and D degrade for the lifetime
// of this instance.
func New(bounds grid.Bounds, difficulty string) *Autopilot {
	ap := &Autopilot{
		bounds:     bounds,
		cyc:        cycle.Build(bounds),
		difficulty: difficulty,
		hazards:    grid.NewCellSet(bounds),
	}
	ap.stats.CycleAvailable = ap.cyc.IsValid()
	if ap.stats.CycleAvailable {
		ap.stats.Mode = "cycle"
	} else {
		ap.stats.Mode = "fallback-only"
	}
	return ap
}

// SetLogger attaches a logger used solely to report a recovered panic in
// NextDirection. The decision pipeline itself never logs; this is the one
// exceptional path where the "library is silent" rule yields, since an
// implementation bug surfacing here is worth a host's attention. A nil
// logger (the zero value) disables this reporting entirely.
func (ap *Autopilot) SetLogger(logger *slog.Logger) {
	ap.logger = logger
}

// SetDifficulty updates the opaque difficulty tag. The tag is stored only;
// the cadence and tolerance bands in band.go depend on snake length, not on
// the tag.
func (ap *Autopilot) SetDifficulty(tag string) {
	ap.difficulty = tag
}

// SetHazards replaces the last-known hazard set. Cells outside the grid are
// silently ignored.
func (ap *Autopilot) SetHazards(cells []grid.Cell) {
	ap.hazardCells = append(ap.hazardCells[:0], cells...)
	ap.hazards.Reset()
	for _, c := range cells {
		ap.hazards.Add(c)
	}
}

// ResetState clears the step counter and debug counters for a new game. The
// difficulty tag is left as-is since it is configuration, not game state;
// call SetDifficulty separately if it should change too.
func (ap *Autopilot) ResetState() {
	ap.step = 0
	mode := "fallback-only"
	if ap.cyc.IsValid() {
		mode = "cycle"
	}
	ap.stats = DebugStats{CycleAvailable: ap.cyc.IsValid(), Mode: mode}
	ap.hazardCells = nil
	ap.hazards.Reset()
}

// DebugStats returns a snapshot of the current diagnostics record.
func (ap *Autopilot) DebugStats() DebugStats {
	return ap.stats
}

// decision is the sole non-exported result type threaded through the policy
// pipeline: a direction, the cell it leads to, and the score used to
// arbitrate between competing candidates.
type decision struct {
	dir        grid.Direction
	cell       grid.Cell
	score      int
	tailBuffer int
	found      bool
}

// NextDirection is the autopilot's main entry point. It always returns a
// direction; on malformed input or an internal panic it degrades rather than
// propagating, per this package's no-raise contract.
func (ap *Autopilot) NextDirection(head grid.Cell, currentDir grid.Direction, body []grid.Cell, fruits []grid.Cell) (dir grid.Direction) {
	defer func() {
		if r := recover(); r != nil {
			ap.stats.LastDecision = "recovered-panic"
			if ap.logger != nil {
				ap.logger.Error("autopilot: recovered panic in decision pipeline",
					"panic", r, "step", ap.step)
			}
			dir = ap.minimalFallback(head, currentDir, body, fruits)
		}
	}()
	return ap.nextDirection(head, currentDir, body, fruits)
}

func (ap *Autopilot) nextDirection(head grid.Cell, currentDir grid.Direction, body []grid.Cell, fruits []grid.Cell) grid.Direction {
	ap.step++
	ap.stats.Step = ap.step
	if ap.cyc.IsValid() {
		ap.stats.Mode = "cycle"
	} else {
		ap.stats.Mode = "fallback-only"
	}

	if len(body) == 0 || !ap.bounds.InBounds(head) || head != body[0] {
		ap.stats.LastDecision = "no-legal-move"
		return currentDir
	}

	fruits = sanitizeFruits(ap.bounds, body, fruits)
	candidates := ap.legalMoves(head, currentDir, body)
	if len(candidates) == 0 {
		ap.stats.LastDecision = "no-legal-move"
		return currentDir
	}

	if d := ap.policyA(head, body, fruits, candidates); d.found {
		ap.stats.LastDecision = "direct-fruit"
		return d.dir
	}

	if len(body) <= 18 {
		if d := ap.policyB(head, body, fruits, candidates); d.found {
			ap.stats.LastDecision = "early-chase"
			return d.dir
		}
	}

	cycleDecision := ap.policyC(head, body, fruits, candidates)
	shortcut, shortcutFound := ap.policyD(head, body, fruits, candidates)

	if chosen, ok := ap.arbitrate(len(body), cycleDecision, shortcut, shortcutFound); ok {
		return chosen.dir
	}

	fallback := ap.policyE(head, body, fruits, candidates)
	if fallback.found {
		ap.stats.FallbackCount++
		ap.stats.LastDecision = "fallback"
		return fallback.dir
	}

	ap.stats.LastDecision = "no-legal-move"
	return currentDir
}

// EmergencyDirection returns the best fallback-policy move without running
// policies A-D, for a host that wants a same-tick retry after its own
// primary move collided. ok is false only when there are no legal moves at
// all.
func (ap *Autopilot) EmergencyDirection(head grid.Cell, currentDir grid.Direction, body []grid.Cell, fruits []grid.Cell) (grid.Direction, bool) {
	if len(body) == 0 || !ap.bounds.InBounds(head) {
		return grid.Direction{}, false
	}
	fruits = sanitizeFruits(ap.bounds, body, fruits)
	candidates := ap.legalMoves(head, currentDir, body)
	if len(candidates) == 0 {
		return grid.Direction{}, false
	}
	d := ap.policyE(head, body, fruits, candidates)
	if !d.found {
		return grid.Direction{}, false
	}
	ap.stats.EmergencyCount++
	ap.stats.LastDecision = "emergency"
	return d.dir, true
}

// HasReachableFood runs A* from head to each of the nearest up-to-6 fruits,
// using the whole body except the tail plus hazards as obstacles. It
// reports true if any fruit is reachable. Hosts use this to detect autopilot
// stalls and trigger a corrective fruit respawn.
func (ap *Autopilot) HasReachableFood(head grid.Cell, body []grid.Cell, fruits []grid.Cell) bool {
	if len(body) == 0 || !ap.bounds.InBounds(head) {
		return false
	}
	fruits = sanitizeFruits(ap.bounds, body, fruits)
	targets := nearestFruits(head, fruits, 6)
	if len(targets) == 0 {
		return false
	}
	obstacles := ap.obstaclesAllExceptTail(body)
	for _, f := range targets {
		if _, ok := pathfind.FindPath(ap.bounds, head, f, obstacles); ok {
			return true
		}
	}
	return false
}

// minimalFallback is the "never propagate to the host" safety net: pick any
// legal move that maximizes open flood-fill space, ignoring everything else.
// It is deliberately simpler than policyE so that it has the smallest
// possible surface for a second panic.
func (ap *Autopilot) minimalFallback(head grid.Cell, currentDir grid.Direction, body []grid.Cell, fruits []grid.Cell) grid.Direction {
	defer func() { recover() }()
	if len(body) == 0 || !ap.bounds.InBounds(head) {
		return currentDir
	}
	candidates := ap.legalMoves(head, currentDir, body)
	if len(candidates) == 0 {
		return currentDir
	}
	obstacles := ap.obstaclesInterior(body)
	best := candidates[0]
	bestScore := -1
	for _, c := range candidates {
		score := pathfind.FloodFill(ap.bounds, c.cell, obstacles)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best.dir
}

// moveCandidate is one legally enumerable next move.
type moveCandidate struct {
	dir  grid.Direction
	cell grid.Cell
}

// legalMoves enumerates up to four candidate next cells in the fixed
// (up, down, left, right) order, rejecting reversal, out-of-bounds cells,
// interior body collisions (everything strictly between index 1 and
// length-2 inclusive — head and tail are never blockers here), and hazard
// cells.
func (ap *Autopilot) legalMoves(head grid.Cell, currentDir grid.Direction, body []grid.Cell) []moveCandidate {
	reverse := currentDir.Reverse()
	blocked := ap.obstaclesInterior(body)

	out := make([]moveCandidate, 0, 4)
	for _, d := range grid.Directions {
		if !currentDir.IsZero() && d == reverse {
			continue
		}
		next := head.Apply(d)
		if !ap.bounds.InBounds(next) {
			continue
		}
		if blocked.Contains(next) {
			continue
		}
		out = append(out, moveCandidate{dir: d, cell: next})
	}
	return out
}

// sanitizeFruits drops out-of-bounds fruits, fruits coinciding with the
// body, and duplicates, per the input conventions in the external interface.
func sanitizeFruits(bounds grid.Bounds, body []grid.Cell, fruits []grid.Cell) []grid.Cell {
	onBody := grid.NewCellSet(bounds)
	for _, c := range body {
		onBody.Add(c)
	}
	seen := grid.NewCellSet(bounds)
	out := make([]grid.Cell, 0, len(fruits))
	for _, f := range fruits {
		if !bounds.InBounds(f) || onBody.Contains(f) || seen.Contains(f) {
			continue
		}
		seen.Add(f)
		out = append(out, f)
	}
	return out
}

// nearestFruits returns up to n fruits sorted by ascending Manhattan
// distance from head.
func nearestFruits(head grid.Cell, fruits []grid.Cell, n int) []grid.Cell {
	if len(fruits) == 0 {
		return nil
	}
	sorted := append([]grid.Cell(nil), fruits...)
	sort.Slice(sorted, func(i, j int) bool {
		return grid.ManhattanDistance(head, sorted[i]) < grid.ManhattanDistance(head, sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// simulateStep is a thin adapter over simulate.Simulate using the
// autopilot's own grid and last-known hazard set.
func (ap *Autopilot) simulateStep(body []grid.Cell, next grid.Cell, grows bool) ([]grid.Cell, bool) {
	return simulate.Simulate(ap.bounds, body, next, grows, ap.hazards)
}
