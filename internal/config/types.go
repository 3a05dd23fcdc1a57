package config

// Config is the root of a plan file. Plan files are YAML or JSON; YAML is
// normalized to JSON bytes and both go through the same strict decoder, so
// unknown fields are rejected in either format.
type Config struct {
	// Plan names this plan in logs, render output, and run history.
	Plan string `json:"plan"`

	// Tasks in declaration order; the order defines task IDs.
	Tasks []TaskConfig `json:"tasks"`

	Constraints ConstraintsConfig `json:"constraints,omitempty"`
	Solver      SolverConfig      `json:"solver,omitempty"`
	Logging     LoggingConfig     `json:"logging,omitempty"`
	History     HistoryConfig     `json:"history,omitempty"`
	Watch       WatchConfig       `json:"watch,omitempty"`
}

type TaskConfig struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Duration int    `json:"duration"`
}

// ConstraintsConfig references tasks by name; names resolve to indices when
// the config is turned into a solver problem.
//
// ExclusivePerResource and NoIdle are pointers so "omitted" (default true)
// is distinguishable from an explicit false.
type ConstraintsConfig struct {
	After                []AfterConfig `json:"after,omitempty"`
	Pins                 []PinConfig   `json:"pins,omitempty"`
	ExclusivePerResource *bool         `json:"exclusive_per_resource,omitempty"`
	NoIdle               *bool         `json:"no_idle,omitempty"`
}

// AfterConfig declares strict precedence: Task may start only once After has
// finished.
type AfterConfig struct {
	Task  string `json:"task"`
	After string `json:"after"`
}

type PinConfig struct {
	Task  string `json:"task"`
	Start int    `json:"start"`
}

type SolverConfig struct {
	// Timeout is a Go duration string (e.g. "30s"). Empty or "0s" disables
	// the solve deadline.
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console *bool         `json:"console,omitempty"`
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// WatchConfig controls watch mode: re-solving when the plan file changes and,
// optionally, on a cron schedule.
type WatchConfig struct {
	Enabled bool `json:"enabled,omitempty"`

	// Resolve is an optional cron spec ("@hourly", "0 3 * * *") for periodic
	// re-solves independent of file changes.
	Resolve string `json:"resolve,omitempty"`

	// Settle is how long the file must stay quiet before a change triggers a
	// re-solve (defends against partial editor writes). Duration string;
	// default 250ms.
	Settle string `json:"settle,omitempty"`

	// MaxPerMinute bounds re-solve frequency. Default 12.
	MaxPerMinute int `json:"max_per_minute,omitempty"`
}

func (c *Config) ExclusivePerResource() bool {
	if c.Constraints.ExclusivePerResource == nil {
		return true
	}
	return *c.Constraints.ExclusivePerResource
}

func (c *Config) NoIdle() bool {
	if c.Constraints.NoIdle == nil {
		return true
	}
	return *c.Constraints.NoIdle
}

func (c *LoggingConfig) ConsoleEnabled() bool {
	return c.Console == nil || *c.Console
}
