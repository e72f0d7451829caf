package config

import "fmt"

// ConfigError is returned by Resolve when the configuration cannot produce a
// usable build plan. It aborts the build before any asset is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// MissingPassthroughPathError is a non-fatal warning: the passthrough path
// was skipped.
type MissingPassthroughPathError struct {
	Path string
}

func (e *MissingPassthroughPathError) Error() string {
	return fmt.Sprintf("passthrough path does not exist, skipping: %s", e.Path)
}
