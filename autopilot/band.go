package autopilot

// cadenceForLength returns how often (every k-th step) policy D re-evaluates
// a shortcut and the proactive-interval arbitration condition fires: every
// step while short, every 2nd step in the mid band, every 3rd once the snake
// is long, since a full A* re-scan against the whole body gets more
// expensive as the snake grows.
func cadenceForLength(length int) uint64 {
	switch {
	case length < 90:
		return 1
	case length < 180:
		return 2
	default:
		return 3
	}
}

// arbitrationTolerance returns how far below the cycle candidate's score a
// shortcut may still score and be preferred: 18 while short, 12 in the mid
// band, 8 once the snake is long, so the allowance shrinks as the snake
// grows.
func arbitrationTolerance(length int) int {
	switch {
	case length < 90:
		return 18
	case length < 180:
		return 12
	default:
		return 8
	}
}

// shortcutPathLimit returns the maximum A* path length, in steps, that
// policy D will accept as a "short relative detour" candidate for
// arbitration's path-length condition.
func shortcutPathLimit(length int) int {
	if length < 70 {
		return 8
	}
	return 6
}

// dynamicPathCap returns the hard ceiling on a shortcut's total path length
// policy D will even consider, scaling down as the snake grows so a long
// snake never commits to a detour that takes it far from the cycle.
func dynamicPathCap(length int) int {
	switch {
	case length < 80:
		return 34
	case length < 180:
		return 28
	default:
		return 22
	}
}
