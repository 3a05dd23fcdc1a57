package solver

import (
	"fmt"
	"strings"
)

// Resource classifies the contended capability a task occupies while it runs.
// Tasks sharing a resource class are mutually exclusive in time when
// Constraints.ExclusivePerResource is set.
type Resource string

// Well-known resource classes for build/deploy plans. Any non-empty class is
// accepted; these exist so configs and tests agree on spelling.
const (
	ResourceSQL     Resource = "sql"
	ResourceFile    Resource = "file"
	ResourceNetwork Resource = "network"
)

// Task is an immutable description of one unit of work. ID is the task's
// index in the plan and stays stable for the lifetime of a solve.
type Task struct {
	ID       int
	Name     string
	Resource Resource
	Duration int
}

func (t Task) String() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		name = fmt.Sprintf("T%d", t.ID)
	}
	return fmt.Sprintf("%s(%s,%d)", name, t.Resource, t.Duration)
}

// Precedence requires the task at index Task to start at or after the task at
// index After has finished.
type Precedence struct {
	Task  int
	After int
}

// Pin fixes the start of the task at index Task to exactly Start.
type Pin struct {
	Task  int
	Start int
}

// Constraints is the declarative rule set the evaluator enforces.
type Constraints struct {
	Precedences []Precedence
	Pins        []Pin

	// ExclusivePerResource forbids time overlap between tasks sharing a
	// resource class.
	ExclusivePerResource bool

	// NoIdle requires the occupied time units of a schedule to form a single
	// gap-free block starting at 0.
	NoIdle bool
}

// Problem is a complete, static solve input: the task set plus the rules.
type Problem struct {
	Tasks       []Task
	Constraints Constraints
}

// totalDuration is the sum of all task durations. It is both the largest
// candidate start time and the makespan of a perfect idle-free serial packing.
func totalDuration(tasks []Task) int {
	sum := 0
	for _, t := range tasks {
		sum += t.Duration
	}
	return sum
}

func maxDuration(tasks []Task) int {
	max := 0
	for _, t := range tasks {
		if t.Duration > max {
			max = t.Duration
		}
	}
	return max
}
