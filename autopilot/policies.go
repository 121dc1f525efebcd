package autopilot

import (
	"github.com/corvid9/snakepilot/grid"
	"github.com/corvid9/snakepilot/pathfind"
)

// findCandidate returns the legal-move candidate leading to cell, if any.
func findCandidate(candidates []moveCandidate, cell grid.Cell) (moveCandidate, bool) {
	for _, c := range candidates {
		if c.cell == cell {
			return c, true
		}
	}
	return moveCandidate{}, false
}

func containsCell(cells []grid.Cell, target grid.Cell) bool {
	for _, c := range cells {
		if c == target {
			return true
		}
	}
	return false
}

// policyA takes any legal move that lands directly on a fruit, provided the
// resulting body still satisfies the cycle-order invariant and retains an
// escape route to its own tail. Among qualifying moves it prefers the one
// with the highest survival score.
func (ap *Autopilot) policyA(head grid.Cell, body []grid.Cell, fruits []grid.Cell, candidates []moveCandidate) decision {
	best := decision{}
	for _, c := range candidates {
		if !containsCell(fruits, c.cell) {
			continue
		}
		newBody, ok := ap.simulateStep(body, c.cell, true)
		if !ok {
			continue
		}
		if !cycleOrderInvariant(ap.cyc, newBody, true) {
			continue
		}
		if !ap.hasEscapeRoute(newBody) {
			continue
		}
		score := ap.survivalScore(newBody, fruits)
		if !best.found || score > best.score {
			best = decision{dir: c.dir, cell: c.cell, score: score, tailBuffer: ap.tailBufferFor(newBody), found: true}
		}
	}
	return best
}

// policyB is the early-game fruit chase: while the snake is short it plans a
// full A* route to each of the nearest few fruits and takes the first step
// of whichever route yields the best-scoring, escape-route-validated
// result. It is only consulted by the pipeline while len(body) <= 18.
func (ap *Autopilot) policyB(head grid.Cell, body []grid.Cell, fruits []grid.Cell, candidates []moveCandidate) decision {
	targets := nearestFruits(head, fruits, 4)
	if len(targets) == 0 {
		return decision{}
	}
	obstacles := ap.obstaclesAllExceptTail(body)

	best := decision{}
	for _, fruit := range targets {
		path, ok := pathfind.FindPath(ap.bounds, head, fruit, obstacles)
		if !ok || len(path) == 0 {
			continue
		}
		firstStep := path[0]
		cand, ok := findCandidate(candidates, firstStep)
		if !ok {
			continue
		}
		grows := firstStep == fruit
		newBody, ok := ap.simulateStep(body, firstStep, grows)
		if !ok {
			continue
		}
		if !ap.hasEscapeRoute(newBody) {
			continue
		}
		score := ap.survivalScore(newBody, fruits) + 300
		if bonus := 14 - len(path); bonus > 0 {
			score += bonus * 22
		}
		if !best.found || score > best.score {
			best = decision{dir: cand.dir, cell: cand.cell, score: score, tailBuffer: ap.tailBufferFor(newBody), found: true}
		}
	}
	return best
}

// policyC follows the Hamiltonian cycle's successor cell unconditionally.
// The move is safe by construction whenever the cycle is valid and the head
// is actually a cycle member, so no escape-route check is needed.
func (ap *Autopilot) policyC(head grid.Cell, body []grid.Cell, fruits []grid.Cell, candidates []moveCandidate) decision {
	if !ap.cyc.IsValid() {
		return decision{}
	}
	next, ok := ap.cyc.NextCell(head)
	if !ok {
		return decision{}
	}
	cand, ok := findCandidate(candidates, next)
	if !ok {
		return decision{}
	}
	grows := containsCell(fruits, next)
	newBody, ok := ap.simulateStep(body, next, grows)
	if !ok {
		return decision{}
	}
	buffer := ap.tailBufferFor(newBody)
	score := 380 + (buffer*12)/10
	return decision{dir: cand.dir, cell: cand.cell, score: score, tailBuffer: buffer, found: true}
}

// shortcutPlan is the result of planning a multi-step detour off the cycle
// toward a fruit; only the first step is ever actually taken this tick.
type shortcutPlan struct {
	decision
	pathLen       int
	foodGain      int
	survivalGap   int
}

// policyD searches, at most once every cadenceForLength(len(body)) steps,
// for a short A* detour from the head to one of the nearest fruits that
// stays within this tick's dynamic path cap and keeps the cycle-order
// invariant satisfied at every intermediate step along the way. It returns
// only the candidate for the first step of the best such detour; arbitrate
// decides whether this pipeline actually takes it over the cycle baseline.
func (ap *Autopilot) policyD(head grid.Cell, body []grid.Cell, fruits []grid.Cell, candidates []moveCandidate) (shortcutPlan, bool) {
	if !ap.cyc.IsValid() {
		return shortcutPlan{}, false
	}
	if ap.step%cadenceForLength(len(body)) != 0 {
		return shortcutPlan{}, false
	}

	targets := nearestFruits(head, fruits, 4)
	if len(targets) == 0 {
		return shortcutPlan{}, false
	}
	obstacles := ap.obstaclesAllExceptTail(body)
	pathCap := dynamicPathCap(len(body))

	var best shortcutPlan
	for _, fruit := range targets {
		path, ok := pathfind.FindPath(ap.bounds, head, fruit, obstacles)
		if !ok || len(path) == 0 || len(path) > pathCap {
			continue
		}

		simBody := body
		valid := true
		for i, step := range path {
			grows := i == len(path)-1
			nb, ok := ap.simulateStep(simBody, step, grows)
			if !ok || !cycleOrderInvariant(ap.cyc, nb, grows) {
				valid = false
				break
			}
			simBody = nb
		}
		if !valid || !ap.hasEscapeRoute(simBody) {
			continue
		}

		cand, ok := findCandidate(candidates, path[0])
		if !ok {
			continue
		}

		cycleDist := 0
		if headIdx, fruitIdx := ap.cyc.IndexOf(head), ap.cyc.IndexOf(fruit); headIdx >= 0 && fruitIdx >= 0 {
			cycleDist = ap.cyc.DistanceForward(headIdx, fruitIdx)
		}
		foodGain := cycleDist - len(path)

		firstStepBody, _ := ap.simulateStep(body, path[0], path[0] == fruit)
		survivalGap := ap.tailBufferFor(firstStepBody)

		score := ap.survivalScore(simBody, fruits) + foodGain*34
		if bonus := 220 - len(path)*7; bonus > 0 {
			score += bonus
		}

		if !best.found || score > best.score {
			best = shortcutPlan{
				decision: decision{
					dir:        cand.dir,
					cell:       cand.cell,
					score:      score,
					tailBuffer: survivalGap,
					found:      true,
				},
				pathLen:     len(path),
				foodGain:    foodGain,
				survivalGap: survivalGap,
			}
		}
	}
	if !best.found {
		return shortcutPlan{}, false
	}
	return best, true
}

// arbitrate decides between the cycle baseline and a candidate shortcut. A
// shortcut is only taken when its post-move survival gap clears the
// required minimum, at least one of (short relative path / positive food
// gain / proactive interval) holds, and its score does not trail the cycle
// candidate's by more than this length's tolerance.
func (ap *Autopilot) arbitrate(length int, cycleCandidate decision, shortcut shortcutPlan, shortcutFound bool) (decision, bool) {
	if !shortcutFound {
		if cycleCandidate.found {
			ap.stats.LastDecision = "cycle"
			ap.stats.LastSurvivalBuffer = cycleCandidate.tailBuffer
			return cycleCandidate, true
		}
		return decision{}, false
	}

	minBuffer := length / 20
	if minBuffer < 3 {
		minBuffer = 3
	}
	bufferOK := shortcut.survivalGap > minBuffer
	shortPath := shortcut.pathLen <= shortcutPathLimit(length)
	foodGainOK := shortcut.foodGain >= 1
	proactive := ap.step%cadenceForLength(length) == 0

	qualifies := bufferOK && (shortPath || foodGainOK || proactive)
	if qualifies && cycleCandidate.found {
		qualifies = shortcut.score >= cycleCandidate.score-arbitrationTolerance(length)
	}

	if qualifies {
		ap.stats.ShortcutsAccepted++
		ap.stats.LastDecision = "shortcut"
		ap.stats.LastSurvivalBuffer = shortcut.survivalGap
		return shortcut.decision, true
	}

	ap.stats.ShortcutsRejected++
	if cycleCandidate.found {
		ap.stats.LastDecision = "cycle"
		ap.stats.LastSurvivalBuffer = cycleCandidate.tailBuffer
		return cycleCandidate, true
	}
	return decision{}, false
}

// policyE is the emergency fallback: it simulates every legal move and picks
// whichever maximizes survival score, breaking ties by the fixed
// enumeration order (up, down, left, right) so the outcome stays
// deterministic.
func (ap *Autopilot) policyE(head grid.Cell, body []grid.Cell, fruits []grid.Cell, candidates []moveCandidate) decision {
	best := decision{}
	for _, c := range candidates {
		grows := containsCell(fruits, c.cell)
		newBody, ok := ap.simulateStep(body, c.cell, grows)
		if !ok {
			continue
		}
		score := ap.survivalScore(newBody, fruits)
		if !best.found || score > best.score {
			best = decision{dir: c.dir, cell: c.cell, score: score, found: true}
		}
	}
	return best
}
