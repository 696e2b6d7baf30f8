package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that YAML can populate either from a Go
// duration string ("1.5s", "200ms") or from a bare number of seconds.
type Duration struct {
	time.Duration
}

// DurationFrom wraps a time.Duration.
func DurationFrom(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText parses a Go duration string. Empty input leaves the
// duration at zero.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// UnmarshalYAML tries the numeric-seconds form first and falls back to
// the duration-string form.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var secs float64
	if err := unmarshal(&secs); err == nil {
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}

	var raw string
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("duration must be a number of seconds or a duration string")
	}
	return d.UnmarshalText([]byte(raw))
}

// IsZero reports whether no duration is set.
func (d Duration) IsZero() bool {
	return d.Duration == 0
}
