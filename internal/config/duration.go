package config

import (
	"fmt"
	"strings"
	"time"
)

// parseDuration parses an optional Go duration from a plan field. An empty
// value means the feature is off (0); negative values are rejected. field
// names the plan key in errors.
func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %w", field, err)
	case d < 0:
		return 0, fmt.Errorf("%s: negative duration %q", field, raw)
	}
	return d, nil
}

// parseDurationDefault substitutes def when the field is omitted or zero.
func parseDurationDefault(field, raw string, def time.Duration) (time.Duration, error) {
	d, err := parseDuration(field, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
