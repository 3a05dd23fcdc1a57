// Package solver finds an optimal start-time assignment for a fixed set of
// interdependent, resource-typed tasks so that total completion time
// (makespan) is minimized.
//
// The engine is an optimizing backtracking search over a restricted domain of
// candidate start times: in an idle-free packing every task boundary lines up
// with the cumulative duration of some subset of the tasks that ran before it,
// so candidate starts are the subset sums of all task durations. The search
// explores every branch that survives constraint pruning and keeps the best
// complete schedule found anywhere in the tree, which makes it globally
// optimal at worst-case O(D^T) cost (D = domain size, T = task count). That
// tradeoff is intentional and only acceptable for small task counts.
//
// Known limitation: the subset-sum domain restriction is not proven complete
// for constraint sets that require deliberate idle time. Such plans are
// unsupported; the engine may report them infeasible.
package solver
