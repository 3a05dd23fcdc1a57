package solver

import (
	"errors"
	"fmt"
)

// ErrInvalidProblem wraps every configuration error reported by Validate, so
// callers can distinguish bad input from an infeasible (but well-formed) plan.
var ErrInvalidProblem = errors.New("invalid problem")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProblem, fmt.Sprintf(format, args...))
}

// Validate checks a problem before any search starts: task shape, constraint
// index bounds, precedence cycles, and pin reachability. A doomed search
// space is rejected here with a descriptive error instead of being searched.
func Validate(p Problem) error {
	if len(p.Tasks) == 0 {
		return invalidf("no tasks")
	}
	for i, t := range p.Tasks {
		if t.ID != i {
			return invalidf("task %d has ID %d; IDs must match task order", i, t.ID)
		}
		if t.Duration <= 0 {
			return invalidf("task %s: duration must be positive, got %d", t, t.Duration)
		}
		if t.Resource == "" {
			return invalidf("task %s: resource class is required", t)
		}
	}

	n := len(p.Tasks)
	for _, pr := range p.Constraints.Precedences {
		if pr.Task < 0 || pr.Task >= n || pr.After < 0 || pr.After >= n {
			return invalidf("precedence (%d after %d): task index out of range [0,%d)", pr.Task, pr.After, n)
		}
		if pr.Task == pr.After {
			return invalidf("precedence: task %d cannot come after itself", pr.Task)
		}
	}
	if cycle := findPrecedenceCycle(n, p.Constraints.Precedences); cycle != nil {
		return invalidf("precedence cycle: %v", cycle)
	}

	pinned := map[int]int{}
	total := totalDuration(p.Tasks)
	for _, pin := range p.Constraints.Pins {
		if pin.Task < 0 || pin.Task >= n {
			return invalidf("pin: task index %d out of range [0,%d)", pin.Task, n)
		}
		if pin.Start < 0 {
			return invalidf("pin: task %s start %d is negative", p.Tasks[pin.Task], pin.Start)
		}
		if pin.Start > total {
			return invalidf("pin: task %s start %d exceeds total duration %d", p.Tasks[pin.Task], pin.Start, total)
		}
		if prev, ok := pinned[pin.Task]; ok && prev != pin.Start {
			return invalidf("pin: task %s pinned at both %d and %d", p.Tasks[pin.Task], prev, pin.Start)
		}
		pinned[pin.Task] = pin.Start
		if !subsetSumReachable(p.Tasks, pin.Start) {
			return invalidf("pin: task %s start %d is not a subset sum of task durations; unreachable in the search domain", p.Tasks[pin.Task], pin.Start)
		}
	}
	return nil
}

// findPrecedenceCycle runs a DFS over the "runs after" edges and returns one
// cycle as a task index path, or nil when the graph is acyclic.
func findPrecedenceCycle(n int, precedences []Precedence) []int {
	next := make([][]int, n)
	for _, pr := range precedences {
		// Edge from predecessor to dependent.
		next[pr.After] = append(next[pr.After], pr.Task)
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make([]int, n)
	var path []int

	var visit func(v int) []int
	visit = func(v int) []int {
		color[v] = gray
		path = append(path, v)
		for _, w := range next[v] {
			switch color[w] {
			case gray:
				// Found the cycle; slice the path from w's first occurrence.
				for i, u := range path {
					if u == w {
						return append(append([]int{}, path[i:]...), w)
					}
				}
			case white:
				if c := visit(w); c != nil {
					return c
				}
			}
		}
		color[v] = black
		path = path[:len(path)-1]
		return nil
	}

	for v := 0; v < n; v++ {
		if color[v] == white {
			if c := visit(v); c != nil {
				return c
			}
		}
	}
	return nil
}

// subsetSumReachable reports whether target is a sum of some subset of task
// durations, i.e. whether it appears in the generated domain. Classic DP over
// reachable sums, cheaper than enumerating 2^N subsets.
func subsetSumReachable(tasks []Task, target int) bool {
	if target == 0 {
		return true
	}
	reach := make([]bool, target+1)
	reach[0] = true
	for _, t := range tasks {
		for v := target; v >= t.Duration; v-- {
			if reach[v-t.Duration] {
				reach[v] = true
			}
		}
	}
	return reach[target]
}
