package solver

import (
	"context"
	"time"
)

// Solver owns all state for one search invocation: the immutable problem, the
// shared read-only domain, the occupancy scratch buffer, and the leaf
// counter. It is not safe for concurrent use; parallel solves need one Solver
// each (the scratch buffer is reused in place between constraint checks).
type Solver struct {
	tasks  []Task
	cons   Constraints
	domain []int

	// occupancy is sized totalDuration+maxDuration: the largest candidate
	// start plus the longest task that could run from it.
	occupancy []bool

	leaves uint64
}

// Result is the outcome of one solve.
type Result struct {
	// Feasible is false when no assignment satisfies all constraints; Starts
	// is nil and Makespan is 0 in that case.
	Feasible bool

	// Starts holds one start time per task, aligned to task index.
	Starts []int

	// Makespan is the latest finish time across all tasks.
	Makespan int

	// Leaves counts fully-instantiated candidate schedules evaluated during
	// the search. Deterministic for identical input.
	Leaves uint64

	DomainSize int
	Elapsed    time.Duration
}

// New validates the problem and prepares a solver for it. Configuration
// errors (precedence cycles, unreachable pins, bad durations) are reported
// here, before any search starts.
func New(p Problem) (*Solver, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	domain := generateDomain(p.Tasks)
	return &Solver{
		tasks:     p.Tasks,
		cons:      p.Constraints,
		domain:    domain,
		occupancy: make([]bool, totalDuration(p.Tasks)+maxDuration(p.Tasks)),
	}, nil
}

// Domain exposes the candidate start times (read-only; do not mutate).
func (s *Solver) Domain() []int { return s.domain }

// Solve runs the full optimizing backtracking search and returns the best
// complete schedule found anywhere in the tree.
//
// When ctx is cancelled or its deadline passes, the search unwinds and Solve
// returns the best incumbent found so far together with ctx.Err(); the
// incumbent may not be optimal. With a background context the search runs to
// completion and the result is globally optimal.
func (s *Solver) Solve(ctx context.Context) (Result, error) {
	began := time.Now()
	s.leaves = 0

	best := s.search(ctx, newSchedule(len(s.tasks)), 0)

	res := Result{
		Leaves:     s.leaves,
		DomainSize: len(s.domain),
		Elapsed:    time.Since(began),
	}
	if best != nil {
		res.Feasible = true
		res.Starts = best
		res.Makespan = s.evaluate(best)
	}
	return res, ctx.Err()
}

// search assigns tasks in index order, one domain value at a time, pruning
// with the constraint evaluator and keeping the best schedule across all
// sibling branches. It returns the subtree's best complete schedule, or nil
// when none validated.
//
// This is an optimizing search, not a first-feasible one: every surviving
// branch under a node is explored, which guarantees global optimality at
// worst-case O(D^T) cost.
func (s *Solver) search(ctx context.Context, sched Schedule, next int) Schedule {
	if ctx.Err() != nil {
		return nil
	}

	if next == len(s.tasks) {
		s.leaves++
		if s.satisfied(sched) {
			return sched
		}
		return nil
	}

	var best Schedule
	for _, start := range s.domain {
		branch := sched.clone()
		branch[next] = start
		if !s.satisfied(branch) {
			continue
		}
		best = s.selectBetter(best, s.search(ctx, branch, next+1))
	}
	return best
}
