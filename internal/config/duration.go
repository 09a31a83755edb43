package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or from bare numbers interpreted as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if errStr := value.Decode(&raw); errStr == nil {
		parsed, errParse := time.ParseDuration(strings.TrimSpace(raw))
		if errParse != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, errParse)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if errInt := value.Decode(&seconds); errInt != nil {
		return fmt.Errorf("invalid duration: %s", value.Value)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
