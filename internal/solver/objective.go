package solver

import "math"

// worstMakespan is the score of an incomplete or failed schedule, so it loses
// every comparison against a real one.
const worstMakespan = math.MaxInt

// evaluate scores a schedule by its makespan: the latest finish time across
// all tasks. Schedules with any unassigned slot score worstMakespan.
func (s *Solver) evaluate(sched Schedule) int {
	if sched == nil {
		return worstMakespan
	}
	makespan := 0
	for i, start := range sched {
		if start == Unassigned {
			return worstMakespan
		}
		if end := start + s.tasks[i].Duration; end > makespan {
			makespan = end
		}
	}
	return makespan
}

// selectBetter returns the schedule with the strictly lower makespan. A nil
// argument is the no-solution sentinel and always loses. Ties keep a, so the
// first-found candidate wins and the search stays deterministic.
func (s *Solver) selectBetter(a, b Schedule) Schedule {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if s.evaluate(b) < s.evaluate(a) {
		return b
	}
	return a
}
