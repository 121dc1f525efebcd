// Package simulate is the sole oracle for "is this move legal?". Every
// policy in the autopilot routes its candidate moves through Simulate rather
// than re-deriving the rejection rules itself.
package simulate

import "github.com/corvid9/snakepilot/grid"

// Simulate applies a single step to body (head at index 0, tail at the last
// index) and returns the resulting body, or ok == false if the move is
// illegal.
//
// A move is rejected if next is out of bounds, lies in hazards, or collides
// with any body segment at index >= 1 — except the tail segment when
// grows == false, since the tail vacates on this step.
func Simulate(bounds grid.Bounds, body []grid.Cell, next grid.Cell, grows bool, hazards grid.CellSet) ([]grid.Cell, bool) {
	if len(body) == 0 {
		return nil, false
	}
	if !bounds.InBounds(next) || hazards.Contains(next) {
		return nil, false
	}

	tailIdx := len(body) - 1
	for i := 1; i < len(body); i++ {
		if body[i] != next {
			continue
		}
		if i == tailIdx && !grows {
			continue // tail vacates this step
		}
		return nil, false
	}

	newLen := len(body) + 1
	if !grows {
		newLen--
	}
	newBody := make([]grid.Cell, newLen)
	newBody[0] = next
	copyLen := newLen - 1
	copy(newBody[1:], body[:copyLen])

	return newBody, true
}
