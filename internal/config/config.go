package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"time"

	"optiplan/internal/solver"
)

const (
	DefaultSettle       = 250 * time.Millisecond
	DefaultMaxPerMinute = 12
)

// Load reads, decodes, and validates a plan file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw plan bytes. The path is only used to sniff the format
// from the extension.
func Parse(path string, raw []byte) (*Config, error) {
	jb, err := planToJSON(path, raw)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid plan file: trailing data")
		}
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("plan has no tasks")
	}
	seen := map[string]struct{}{}
	for i, t := range c.Tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("tasks[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("tasks[%d]: duplicate task name %q", i, name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(t.Resource) == "" {
			return fmt.Errorf("task %q: resource is required", name)
		}
		if t.Duration <= 0 {
			return fmt.Errorf("task %q: duration must be a positive integer, got %d", name, t.Duration)
		}
	}

	for i, a := range c.Constraints.After {
		if _, err := c.taskIndex(a.Task); err != nil {
			return fmt.Errorf("constraints.after[%d]: %w", i, err)
		}
		if _, err := c.taskIndex(a.After); err != nil {
			return fmt.Errorf("constraints.after[%d]: %w", i, err)
		}
	}
	for i, p := range c.Constraints.Pins {
		if _, err := c.taskIndex(p.Task); err != nil {
			return fmt.Errorf("constraints.pins[%d]: %w", i, err)
		}
	}

	if _, err := c.SolveTimeout(); err != nil {
		return err
	}
	if _, err := c.WatchSettle(); err != nil {
		return err
	}
	return nil
}

func (c *Config) taskIndex(name string) (int, error) {
	name = strings.TrimSpace(name)
	for i, t := range c.Tasks {
		if strings.TrimSpace(t.Name) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown task %q", name)
}

// Problem resolves task names and builds the solver input. Structural solver
// validation (cycles, pin reachability) happens in solver.New; this only
// translates the declarative config.
func (c *Config) Problem() (solver.Problem, error) {
	p := solver.Problem{
		Tasks: make([]solver.Task, len(c.Tasks)),
		Constraints: solver.Constraints{
			ExclusivePerResource: c.ExclusivePerResource(),
			NoIdle:               c.NoIdle(),
		},
	}
	for i, t := range c.Tasks {
		p.Tasks[i] = solver.Task{
			ID:       i,
			Name:     strings.TrimSpace(t.Name),
			Resource: solver.Resource(strings.ToLower(strings.TrimSpace(t.Resource))),
			Duration: t.Duration,
		}
	}
	for _, a := range c.Constraints.After {
		ti, err := c.taskIndex(a.Task)
		if err != nil {
			return solver.Problem{}, err
		}
		ai, err := c.taskIndex(a.After)
		if err != nil {
			return solver.Problem{}, err
		}
		p.Constraints.Precedences = append(p.Constraints.Precedences, solver.Precedence{Task: ti, After: ai})
	}
	for _, pin := range c.Constraints.Pins {
		ti, err := c.taskIndex(pin.Task)
		if err != nil {
			return solver.Problem{}, err
		}
		p.Constraints.Pins = append(p.Constraints.Pins, solver.Pin{Task: ti, Start: pin.Start})
	}
	return p, nil
}

// SolveTimeout returns the configured solve deadline, 0 when disabled.
func (c *Config) SolveTimeout() (time.Duration, error) {
	return parseDuration("solver.timeout", c.Solver.Timeout)
}

func (c *Config) WatchSettle() (time.Duration, error) {
	return parseDurationDefault("watch.settle", c.Watch.Settle, DefaultSettle)
}

func (c *Config) WatchMaxPerMinute() int {
	if c.Watch.MaxPerMinute <= 0 {
		return DefaultMaxPerMinute
	}
	return c.Watch.MaxPerMinute
}

// Hash fingerprints the decoded config so watch mode can skip re-solves when
// an editor rewrites the file without changing content.
func (c *Config) Hash() uint64 {
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
