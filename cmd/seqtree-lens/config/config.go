// Package config provides configuration of the lens application. Values are
// read from an optional YAML or JSON file and can be overridden with
// SEQTREE_<SECTION>_<NAME> environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/nspcc-dev/seqtree/cmd/internal/configvalidator"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/internal"
	"github.com/spf13/viper"
)

// Config represents a group of named values structured
// by tree type.
//
// Sub-trees are named configuration sub-sections,
// leaves are named configuration values.
// Names are of string type.
type Config struct {
	v *viper.Viper

	path []string
}

const separator = "."

// Option allows to set an optional parameter of the Config.
type Option func(*opts)

type opts struct {
	path string
}

// WithConfigFile returns an option to set the system path
// to the configuration file.
func WithConfigFile(path string) Option {
	return func(o *opts) {
		o.path = path
	}
}

// New creates a new Config instance.
//
// If file option is provided (WithConfigFile),
// configuration values are read from it and checked for
// unknown fields. Otherwise, Config is a degenerate tree.
func New(options ...Option) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(internal.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(separator, internal.EnvSeparator))

	var o opts
	for i := range options {
		options[i](&o)
	}

	if o.path != "" {
		v.SetConfigFile(o.path)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		err = configvalidator.CheckForUnknownFields(v.AllSettings(), schema{})
		if err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", o.path, err)
		}
	}

	return &Config{
		v: v,
	}, nil
}

// schema lists every known configuration value.
type schema struct {
	Logger struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"logger"`
	Store struct {
		Path      string `mapstructure:"path"`
		Range     uint64 `mapstructure:"range"`
		ReadCache int    `mapstructure:"read_cache"`
		Perm      string `mapstructure:"perm"`
		Workers   int    `mapstructure:"workers"`
	} `mapstructure:"store"`
	Metrics struct {
		Textfile string `mapstructure:"textfile"`
	} `mapstructure:"metrics"`
}
