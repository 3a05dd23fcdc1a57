// Package render turns a solved schedule into console output: an ASCII Gantt
// timeline, a per-resource lane view, and a short summary block. It is a
// read-only consumer of the solver's result and never influences the search.
package render

import (
	"fmt"
	"sort"
	"strings"

	"optiplan/internal/solver"
)

// MaxBarWidth caps the timeline width; longer schedules are scaled down by an
// integer factor so bars stay aligned.
const MaxBarWidth = 120

// Gantt renders one row per task in plan order, bars positioned at task start
// offsets on a shared time axis.
func Gantt(tasks []solver.Task, res solver.Result) string {
	if !res.Feasible {
		return "no feasible schedule\n"
	}

	scale := 1
	for res.Makespan/scale > MaxBarWidth {
		scale++
	}
	width := res.Makespan / scale
	if res.Makespan%scale != 0 {
		width++
	}

	nameW, resW := 4, 8
	for _, t := range tasks {
		if len(t.Name) > nameW {
			nameW = len(t.Name)
		}
		if len(t.Resource) > resW {
			resW = len(t.Resource)
		}
	}

	var b strings.Builder
	for i, t := range tasks {
		start := res.Starts[i]
		lead := start / scale
		bar := (start + t.Duration) / scale
		if (start+t.Duration)%scale != 0 {
			bar++
		}
		bar -= lead
		if bar < 1 {
			bar = 1
		}
		fmt.Fprintf(&b, "%-*s  %-*s %4d  |%s%s%s|\n",
			nameW, t.Name,
			resW, t.Resource,
			t.Duration,
			strings.Repeat(" ", lead),
			strings.Repeat("#", bar),
			strings.Repeat(" ", max(0, width-lead-bar)),
		)
	}
	fmt.Fprintf(&b, "%-*s  %-*s %4s  %s\n", nameW, "", resW, "", "", axis(width, res.Makespan))
	return b.String()
}

// Lanes renders the same schedule grouped by resource class, tasks within a
// lane ordered by start time.
func Lanes(tasks []solver.Task, res solver.Result) string {
	if !res.Feasible {
		return "no feasible schedule\n"
	}

	byRes := map[solver.Resource][]solver.Task{}
	for _, t := range tasks {
		byRes[t.Resource] = append(byRes[t.Resource], t)
	}
	classes := make([]string, 0, len(byRes))
	for r := range byRes {
		classes = append(classes, string(r))
	}
	sort.Strings(classes)

	var b strings.Builder
	for _, class := range classes {
		lane := byRes[solver.Resource(class)]
		sort.Slice(lane, func(i, j int) bool {
			return res.Starts[lane[i].ID] < res.Starts[lane[j].ID]
		})
		fmt.Fprintf(&b, "%s:\n", class)
		for _, t := range lane {
			start := res.Starts[t.ID]
			fmt.Fprintf(&b, "  [%3d, %3d)  %s\n", start, start+t.Duration, t.Name)
		}
	}
	return b.String()
}

// Summary is the one-look result block printed after every solve.
func Summary(plan string, res solver.Result) string {
	var b strings.Builder
	if plan != "" {
		fmt.Fprintf(&b, "plan:      %s\n", plan)
	}
	if !res.Feasible {
		b.WriteString("result:    no feasible schedule\n")
	} else {
		fmt.Fprintf(&b, "makespan:  %d\n", res.Makespan)
	}
	fmt.Fprintf(&b, "leaves:    %d\n", res.Leaves)
	fmt.Fprintf(&b, "domain:    %d values\n", res.DomainSize)
	fmt.Fprintf(&b, "elapsed:   %s\n", res.Elapsed)
	return b.String()
}

// axis draws the time scale under the bars: a 0 anchor and the makespan at
// the right edge.
func axis(width, makespan int) string {
	label := fmt.Sprint(makespan)
	if width < len(label)+2 {
		return "|0 .. " + label + "|"
	}
	return "|0" + strings.Repeat(".", width-1-len(label)) + label + "|"
}
