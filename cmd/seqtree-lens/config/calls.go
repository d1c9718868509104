package config

import (
	"slices"
	"strings"
)

// Sub returns subsection of the Config by name.
//
// Returns empty subsection if it is missing.
func (x *Config) Sub(name string) *Config {
	return &Config{
		v:    x.v,
		path: append(slices.Clip(x.path), name),
	}
}

// Value returns configuration value by name.
//
// Result can be casted to a particular type
// via corresponding function (e.g. String).
// Note: casting via Go `.()` operator is not
// recommended.
func (x *Config) Value(name string) any {
	return x.v.Get(strings.Join(append(slices.Clip(x.path), name), separator))
}

// IsSet checks whether the value is set in the file or the environment.
func (x *Config) IsSet(name string) bool {
	return x.v.IsSet(strings.Join(append(slices.Clip(x.path), name), separator))
}
