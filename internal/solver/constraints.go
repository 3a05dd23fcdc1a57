package solver

import "fmt"

// satisfied reports whether the (possibly partial) schedule violates any
// configured rule. Unassigned slots are ignored, and every check is monotonic:
// once a partial schedule fails, no further assignment can make it pass, so
// the search may prune the whole subtree. For the no-idle check this holds
// because a partial fails only when its idle units can no longer be covered
// by the tasks still unassigned (see noIdleOK).
//
// Checks run cheapest first and short-circuit on the first failure.
func (s *Solver) satisfied(sched Schedule) bool {
	if len(sched) != len(s.tasks) {
		panic(fmt.Sprintf("solver: schedule length %d does not match task count %d", len(sched), len(s.tasks)))
	}
	return s.precedenceOK(sched) &&
		s.pinsOK(sched) &&
		s.exclusivityOK(sched) &&
		s.noIdleOK(sched)
}

// precedenceOK enforces strict ordering: the dependent task may start only
// once its predecessor has finished.
func (s *Solver) precedenceOK(sched Schedule) bool {
	for _, p := range s.cons.Precedences {
		start, after := sched[p.Task], sched[p.After]
		if start == Unassigned || after == Unassigned {
			continue
		}
		if start < after+s.tasks[p.After].Duration {
			return false
		}
	}
	return true
}

func (s *Solver) pinsOK(sched Schedule) bool {
	for _, p := range s.cons.Pins {
		if start := sched[p.Task]; start != Unassigned && start != p.Start {
			return false
		}
	}
	return true
}

// exclusivityOK rejects time overlap between assigned tasks sharing a
// resource class. Intervals are half-open [start, start+duration), compared
// pairwise; O(n^2) is acceptable at the task counts this engine targets.
func (s *Solver) exclusivityOK(sched Schedule) bool {
	if !s.cons.ExclusivePerResource {
		return true
	}
	for i := range s.tasks {
		if sched[i] == Unassigned {
			continue
		}
		for j := i + 1; j < len(s.tasks); j++ {
			if sched[j] == Unassigned || s.tasks[i].Resource != s.tasks[j].Resource {
				continue
			}
			if sched[i] < sched[j]+s.tasks[j].Duration && sched[j] < sched[i]+s.tasks[i].Duration {
				return false
			}
		}
	}
	return true
}

// noIdleOK marks the occupied time units of all assigned tasks into the
// occupancy scratch buffer, then scans backward from the highest occupied
// unit toward 0, counting idle units. The final schedule must cover
// [0, makespan) without a gap, and every idle unit below the current highest
// occupied unit can only be filled by tasks not yet assigned, so a partial
// fails exactly when its idle units outnumber the remaining unassigned
// duration. Assigning a task of duration d shrinks both sides of that
// inequality by at most d, so a failed partial stays failed under any
// extension. For a complete schedule the remaining duration is zero and the
// check degenerates to: occupied intervals cover [0, makespan) exactly.
//
// The scratch buffer is reused across calls and must be all-clear on return;
// it is cleared in place rather than reallocated.
func (s *Solver) noIdleOK(sched Schedule) bool {
	if !s.cons.NoIdle {
		return true
	}

	top := -1
	remaining := 0
	for i, start := range sched {
		if start == Unassigned {
			remaining += s.tasks[i].Duration
			continue
		}
		end := start + s.tasks[i].Duration
		if start < 0 || end > len(s.occupancy) {
			panic(fmt.Sprintf("solver: task %d start %d outside occupancy bounds [0,%d)", i, start, len(s.occupancy)))
		}
		for t := start; t < end; t++ {
			s.occupancy[t] = true
		}
		if end-1 > top {
			top = end - 1
		}
	}

	idle := 0
	for t := top; t >= 0; t-- {
		if !s.occupancy[t] {
			idle++
		}
	}
	ok := idle <= remaining

	// Restore the all-clear invariant before returning.
	for i, start := range sched {
		if start == Unassigned {
			continue
		}
		for t := start; t < start+s.tasks[i].Duration; t++ {
			s.occupancy[t] = false
		}
	}
	return ok
}
