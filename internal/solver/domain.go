package solver

import "sort"

// generateDomain computes the candidate start times for every task: the
// subset sums of all task durations, deduplicated and sorted ascending.
//
// In an optimal idle-free packing every task boundary coincides with the
// cumulative duration of some subset of tasks scheduled before it, so
// restricting candidates to subset sums prunes the search without losing the
// optimum for this cost model. The result always contains 0 (empty subset)
// and the total duration (full subset). Enumeration is 2^N over the task
// count, which is fine for the small plans this engine targets.
//
// The sorted slice is shared read-only by the whole search; ascending order
// makes value iteration, and therefore tie-breaking, deterministic.
func generateDomain(tasks []Task) []int {
	seen := map[int]struct{}{0: {}}
	for mask := 1; mask < 1<<len(tasks); mask++ {
		sum := 0
		for i := range tasks {
			if mask&(1<<i) != 0 {
				sum += tasks[i].Duration
			}
		}
		seen[sum] = struct{}{}
	}

	domain := make([]int, 0, len(seen))
	for v := range seen {
		domain = append(domain, v)
	}
	sort.Ints(domain)
	return domain
}
