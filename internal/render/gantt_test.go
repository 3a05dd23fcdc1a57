package render

import (
	"strings"
	"testing"
	"time"

	"optiplan/internal/solver"
)

func sampleResult() ([]solver.Task, solver.Result) {
	tasks := []solver.Task{
		{ID: 0, Name: "migrate", Resource: solver.ResourceSQL, Duration: 3},
		{ID: 1, Name: "upload", Resource: solver.ResourceNetwork, Duration: 5},
		{ID: 2, Name: "archive", Resource: solver.ResourceFile, Duration: 2},
	}
	res := solver.Result{
		Feasible:   true,
		Starts:     []int{0, 0, 3},
		Makespan:   5,
		Leaves:     7,
		DomainSize: 6,
		Elapsed:    3 * time.Millisecond,
	}
	return tasks, res
}

func TestGanttRowsAndAxis(t *testing.T) {
	t.Parallel()
	tasks, res := sampleResult()
	out := Gantt(tasks, res)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(tasks)+1 {
		t.Fatalf("got %d lines, want %d rows + axis:\n%s", len(lines), len(tasks)+1, out)
	}
	if !strings.Contains(lines[0], "|###  |") {
		t.Fatalf("migrate bar wrong: %q", lines[0])
	}
	if !strings.Contains(lines[1], "|#####|") {
		t.Fatalf("upload bar wrong: %q", lines[1])
	}
	if !strings.Contains(lines[2], "|   ##|") {
		t.Fatalf("archive bar wrong: %q", lines[2])
	}
	if !strings.Contains(lines[3], "0") || !strings.Contains(lines[3], "5") {
		t.Fatalf("axis missing endpoints: %q", lines[3])
	}
}

func TestGanttInfeasible(t *testing.T) {
	t.Parallel()
	tasks, _ := sampleResult()
	out := Gantt(tasks, solver.Result{})
	if !strings.Contains(out, "no feasible schedule") {
		t.Fatalf("output = %q", out)
	}
}

func TestGanttScalesLongSchedules(t *testing.T) {
	t.Parallel()
	tasks := []solver.Task{{ID: 0, Name: "bulk", Resource: solver.ResourceFile, Duration: 600}}
	res := solver.Result{Feasible: true, Starts: []int{0}, Makespan: 600}
	out := Gantt(tasks, res)
	for _, line := range strings.Split(out, "\n") {
		if len(line) > MaxBarWidth+40 {
			t.Fatalf("line exceeds scaled width: %d chars", len(line))
		}
	}
}

func TestLanesGroupsByResource(t *testing.T) {
	t.Parallel()
	tasks, res := sampleResult()
	out := Lanes(tasks, res)

	fileIdx := strings.Index(out, "file:")
	netIdx := strings.Index(out, "network:")
	sqlIdx := strings.Index(out, "sql:")
	if fileIdx < 0 || netIdx < 0 || sqlIdx < 0 {
		t.Fatalf("missing lanes:\n%s", out)
	}
	if !(fileIdx < netIdx && netIdx < sqlIdx) {
		t.Fatalf("lanes not sorted by class:\n%s", out)
	}
	if !strings.Contains(out, "[  3,   5)  archive") {
		t.Fatalf("archive interval missing:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	_, res := sampleResult()
	out := Summary("demo", res)
	for _, want := range []string{"plan:      demo", "makespan:  5", "leaves:    7", "domain:    6 values"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	out = Summary("", solver.Result{})
	if !strings.Contains(out, "no feasible schedule") {
		t.Fatalf("infeasible summary wrong:\n%s", out)
	}
	if strings.Contains(out, "plan:") {
		t.Fatalf("empty plan name must omit the plan line:\n%s", out)
	}
}
