package solver

import (
	"context"
	"math"
	"testing"
)

// The reference deployment plan: six tasks over three resource classes, two
// precedence chains, one pinned task, per-resource exclusivity, no idle time.
func deployPlan() Problem {
	return Problem{
		Tasks: []Task{
			{ID: 0, Name: "schema-migrate", Resource: ResourceSQL, Duration: 23},
			{ID: 1, Name: "fetch-config", Resource: ResourceFile, Duration: 10},
			{ID: 2, Name: "push-images", Resource: ResourceNetwork, Duration: 45},
			{ID: 3, Name: "pull-artifacts", Resource: ResourceNetwork, Duration: 37},
			{ID: 4, Name: "reindex", Resource: ResourceSQL, Duration: 60},
			{ID: 5, Name: "rotate-logs", Resource: ResourceFile, Duration: 30},
		},
		Constraints: Constraints{
			Precedences: []Precedence{
				{Task: 1, After: 3},
				{Task: 2, After: 4},
			},
			Pins:                 []Pin{{Task: 5, Start: 70}},
			ExclusivePerResource: true,
			NoIdle:               true,
		},
	}
}

func solve(t *testing.T, p Problem) Result {
	t.Helper()
	s := mustSolver(t, p)
	res, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return res
}

func TestSingleTaskBoundary(t *testing.T) {
	t.Parallel()
	res := solve(t, Problem{
		Tasks:       []Task{{ID: 0, Name: "only", Resource: ResourceFile, Duration: 7}},
		Constraints: Constraints{ExclusivePerResource: true, NoIdle: true},
	})
	if !res.Feasible {
		t.Fatal("single unconstrained task must be feasible")
	}
	if res.Starts[0] != 0 {
		t.Fatalf("start = %d, want 0", res.Starts[0])
	}
	if res.Makespan != 7 {
		t.Fatalf("makespan = %d, want 7", res.Makespan)
	}
	// Domain is {0, 7}; the start-at-7 branch leaves 0..6 idle and is pruned
	// before the leaf, so exactly one candidate is evaluated.
	if res.Leaves != 1 {
		t.Fatalf("leaves = %d, want 1", res.Leaves)
	}
	if res.DomainSize != 2 {
		t.Fatalf("domain size = %d, want 2", res.DomainSize)
	}
}

func TestSerialPackingSameResource(t *testing.T) {
	t.Parallel()
	res := solve(t, Problem{
		Tasks: []Task{
			{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 2},
			{ID: 1, Name: "b", Resource: ResourceSQL, Duration: 3},
		},
		Constraints: Constraints{ExclusivePerResource: true, NoIdle: true},
	})
	if !res.Feasible || res.Makespan != 5 {
		t.Fatalf("result = %+v, want feasible makespan 5", res)
	}
	// Ascending domain order makes {0,2} the first-found optimum; ties never
	// replace it.
	if res.Starts[0] != 0 || res.Starts[1] != 2 {
		t.Fatalf("starts = %v, want [0 2]", res.Starts)
	}
}

func TestParallelPackingAcrossResources(t *testing.T) {
	t.Parallel()
	res := solve(t, Problem{
		Tasks: []Task{
			{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 2},
			{ID: 1, Name: "b", Resource: ResourceNetwork, Duration: 3},
		},
		Constraints: Constraints{ExclusivePerResource: true, NoIdle: true},
	})
	if !res.Feasible || res.Makespan != 3 {
		t.Fatalf("result = %+v, want feasible makespan 3", res)
	}
	if res.Starts[0] != 0 || res.Starts[1] != 0 {
		t.Fatalf("starts = %v, want [0 0]", res.Starts)
	}
}

func TestInfeasiblePlan(t *testing.T) {
	t.Parallel()
	res := solve(t, Problem{
		Tasks: []Task{
			{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 2},
			{ID: 1, Name: "b", Resource: ResourceSQL, Duration: 3},
		},
		Constraints: Constraints{
			// Both pinned at 0 but mutually exclusive.
			Pins:                 []Pin{{Task: 0, Start: 0}, {Task: 1, Start: 0}},
			ExclusivePerResource: true,
		},
	})
	if res.Feasible {
		t.Fatalf("result = %+v, want infeasible", res)
	}
	if res.Starts != nil {
		t.Fatalf("starts = %v, want nil for infeasible plan", res.Starts)
	}
}

// A precedence chain that runs against index order: in time, a runs first,
// then c, then b. The partial {a=0, b=6} leaves [3,6) idle until c is
// assigned, so the prune must tolerate gaps the remaining tasks can cover or
// this plan would be reported infeasible.
func TestLaterTaskFillsEarlierGap(t *testing.T) {
	t.Parallel()
	res := solve(t, Problem{
		Tasks: []Task{
			{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 3},
			{ID: 1, Name: "b", Resource: ResourceFile, Duration: 3},
			{ID: 2, Name: "c", Resource: ResourceNetwork, Duration: 3},
		},
		Constraints: Constraints{
			Precedences: []Precedence{
				{Task: 2, After: 0}, // c after a
				{Task: 1, After: 2}, // b after c
			},
			ExclusivePerResource: true,
			NoIdle:               true,
		},
	})
	if !res.Feasible {
		t.Fatal("chained plan must be feasible")
	}
	if res.Makespan != 9 {
		t.Fatalf("makespan = %d, want 9", res.Makespan)
	}
	if res.Starts[0] != 0 || res.Starts[1] != 6 || res.Starts[2] != 3 {
		t.Fatalf("starts = %v, want [0 6 3]", res.Starts)
	}
}

func TestDeployPlanRegression(t *testing.T) {
	t.Parallel()
	p := deployPlan()
	res := solve(t, p)
	if !res.Feasible {
		t.Fatal("deploy plan must be feasible")
	}
	// The reindex->push-images chain (60+45) is a hard lower bound, and a
	// gap-free packing hitting it exists, so the optimum is exactly 105.
	if res.Makespan != 105 {
		t.Fatalf("makespan = %d, want 105", res.Makespan)
	}
	if res.Starts[5] != 70 {
		t.Fatalf("pinned task start = %d, want 70", res.Starts[5])
	}
	assertScheduleInvariants(t, p, res)

	max := uint64(1)
	for range p.Tasks {
		max *= uint64(res.DomainSize)
	}
	if res.Leaves == 0 || res.Leaves > max {
		t.Fatalf("leaves = %d, want in [1, %d]", res.Leaves, max)
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()
	p := deployPlan()
	a := solve(t, p)
	b := solve(t, p)
	if a.Leaves != b.Leaves {
		t.Fatalf("leaf counts differ: %d vs %d", a.Leaves, b.Leaves)
	}
	if a.Makespan != b.Makespan {
		t.Fatalf("makespans differ: %d vs %d", a.Makespan, b.Makespan)
	}
	for i := range a.Starts {
		if a.Starts[i] != b.Starts[i] {
			t.Fatalf("starts differ at %d: %v vs %v", i, a.Starts, b.Starts)
		}
	}
}

func TestSolveCancelled(t *testing.T) {
	t.Parallel()
	s := mustSolver(t, deployPlan())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx)
	if err == nil {
		t.Fatal("expected context error from cancelled solve")
	}
	if res.Feasible {
		t.Fatalf("cancelled-before-start solve found a schedule: %+v", res)
	}
	if res.Leaves != 0 {
		t.Fatalf("leaves = %d, want 0 for cancelled-before-start solve", res.Leaves)
	}
}

// assertScheduleInvariants checks the winning schedule the way a reviewer
// would: every constraint holds and the timeline from 0 to the makespan has
// no idle unit.
func assertScheduleInvariants(t *testing.T, p Problem, res Result) {
	t.Helper()
	tasks := p.Tasks

	for _, pr := range p.Constraints.Precedences {
		if res.Starts[pr.Task] < res.Starts[pr.After]+tasks[pr.After].Duration {
			t.Fatalf("precedence violated: task %d starts at %d before task %d finishes", pr.Task, res.Starts[pr.Task], pr.After)
		}
	}
	for _, pin := range p.Constraints.Pins {
		if res.Starts[pin.Task] != pin.Start {
			t.Fatalf("pin violated: task %d at %d, want %d", pin.Task, res.Starts[pin.Task], pin.Start)
		}
	}
	if p.Constraints.ExclusivePerResource {
		for i := range tasks {
			for j := i + 1; j < len(tasks); j++ {
				if tasks[i].Resource != tasks[j].Resource {
					continue
				}
				si, sj := res.Starts[i], res.Starts[j]
				if si < sj+tasks[j].Duration && sj < si+tasks[i].Duration {
					t.Fatalf("exclusivity violated: tasks %d and %d overlap on %s", i, j, tasks[i].Resource)
				}
			}
		}
	}
	if p.Constraints.NoIdle {
		occupied := make([]bool, res.Makespan)
		for i, start := range res.Starts {
			for u := start; u < start+tasks[i].Duration; u++ {
				occupied[u] = true
			}
		}
		for u, v := range occupied {
			if !v {
				t.Fatalf("idle time unit %d inside [0,%d)", u, res.Makespan)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	s := mustSolver(t, pairProblem(Constraints{}))
	if got := s.evaluate(Schedule{0, 3}); got != 5 {
		t.Fatalf("evaluate = %d, want 5", got)
	}
	if got := s.evaluate(Schedule{0, Unassigned}); got != math.MaxInt {
		t.Fatalf("incomplete schedule must score worst, got %d", got)
	}
	if got := s.evaluate(nil); got != math.MaxInt {
		t.Fatalf("nil schedule must score worst, got %d", got)
	}
}

func TestSelectBetter(t *testing.T) {
	t.Parallel()
	s := mustSolver(t, pairProblem(Constraints{}))

	short := Schedule{0, 3}  // makespan 5
	long := Schedule{0, 10}  // makespan 12
	tied := Schedule{2, 0}   // makespan 5 as well

	if got := s.selectBetter(nil, short); &got[0] != &short[0] {
		t.Fatal("nil loses to any schedule")
	}
	if got := s.selectBetter(long, short); &got[0] != &short[0] {
		t.Fatal("lower makespan must win")
	}
	if got := s.selectBetter(short, tied); &got[0] != &short[0] {
		t.Fatal("ties must keep the first-found schedule")
	}
}
