package solver

import (
	"errors"
	"testing"
)

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	base := func() Problem {
		return Problem{
			Tasks: []Task{
				{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 2},
				{ID: 1, Name: "b", Resource: ResourceFile, Duration: 3},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"no tasks", func(p *Problem) { p.Tasks = nil }},
		{"id mismatch", func(p *Problem) { p.Tasks[1].ID = 5 }},
		{"zero duration", func(p *Problem) { p.Tasks[0].Duration = 0 }},
		{"negative duration", func(p *Problem) { p.Tasks[0].Duration = -4 }},
		{"missing resource", func(p *Problem) { p.Tasks[0].Resource = "" }},
		{"precedence out of range", func(p *Problem) {
			p.Constraints.Precedences = []Precedence{{Task: 0, After: 9}}
		}},
		{"self precedence", func(p *Problem) {
			p.Constraints.Precedences = []Precedence{{Task: 1, After: 1}}
		}},
		{"precedence cycle", func(p *Problem) {
			p.Constraints.Precedences = []Precedence{{Task: 0, After: 1}, {Task: 1, After: 0}}
		}},
		{"pin out of range", func(p *Problem) {
			p.Constraints.Pins = []Pin{{Task: 7, Start: 0}}
		}},
		{"negative pin", func(p *Problem) {
			p.Constraints.Pins = []Pin{{Task: 0, Start: -1}}
		}},
		{"pin beyond total", func(p *Problem) {
			p.Constraints.Pins = []Pin{{Task: 0, Start: 6}}
		}},
		{"unreachable pin", func(p *Problem) {
			// Subset sums are 0, 2, 3, 5; 4 is not among them.
			p.Constraints.Pins = []Pin{{Task: 0, Start: 4}}
		}},
		{"conflicting pins", func(p *Problem) {
			p.Constraints.Pins = []Pin{{Task: 0, Start: 0}, {Task: 0, Start: 2}}
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := base()
			tt.mutate(&p)
			err := Validate(p)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidProblem) {
				t.Fatalf("error %v is not ErrInvalidProblem", err)
			}
		})
	}
}

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	t.Parallel()
	p := Problem{
		Tasks: []Task{
			{ID: 0, Name: "a", Resource: ResourceSQL, Duration: 2},
			{ID: 1, Name: "b", Resource: ResourceFile, Duration: 3},
			{ID: 2, Name: "c", Resource: ResourceFile, Duration: 4},
		},
		Constraints: Constraints{
			Precedences:          []Precedence{{Task: 2, After: 0}, {Task: 1, After: 0}},
			Pins:                 []Pin{{Task: 1, Start: 2}},
			ExclusivePerResource: true,
			NoIdle:               true,
		},
	}
	if err := Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFindPrecedenceCycle(t *testing.T) {
	t.Parallel()
	if c := findPrecedenceCycle(3, []Precedence{{Task: 1, After: 0}, {Task: 2, After: 1}}); c != nil {
		t.Fatalf("acyclic graph reported cycle %v", c)
	}
	c := findPrecedenceCycle(3, []Precedence{{Task: 1, After: 0}, {Task: 2, After: 1}, {Task: 0, After: 2}})
	if c == nil {
		t.Fatal("three-task cycle not detected")
	}
}
