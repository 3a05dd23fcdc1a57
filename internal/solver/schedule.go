package solver

// Unassigned marks a schedule slot whose task has no start time yet.
const Unassigned = -1

// Schedule holds one start time per task, aligned to task index. Slots are
// Unassigned until the search binds them. A nil Schedule is the no-solution
// sentinel.
type Schedule []int

func newSchedule(n int) Schedule {
	s := make(Schedule, n)
	for i := range s {
		s[i] = Unassigned
	}
	return s
}

// clone returns an independent copy. The search branches on copies so sibling
// branches never alias each other's assignments.
func (s Schedule) clone() Schedule {
	cp := make(Schedule, len(s))
	copy(cp, s)
	return cp
}

func (s Schedule) complete() bool {
	for _, v := range s {
		if v == Unassigned {
			return false
		}
	}
	return true
}
