// Package config loads the kerml engine configuration from kerml.toml
// files, environment variables, and defaults, in that precedence order.
package config

import (
	"github.com/kerml-go/kerml/build"
	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/stdlib"
)

// Config represents the engine configuration
type Config struct {
	Build    BuildConfig    `mapstructure:"build"`
	Stdlib   StdlibConfig   `mapstructure:"stdlib"`
	Implicit ImplicitConfig `mapstructure:"implicit"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
}

// BuildConfig configures the build pipeline
type BuildConfig struct {
	// Validations selects the validation checks to run: "all", "none",
	// or a comma-separated subset of cycles, multiplicity, implicit
	Validations string `mapstructure:"validations"`

	// Standalone restricts name resolution to each document's own scope
	Standalone bool `mapstructure:"standalone"`
}

// StdlibConfig configures the model library the engine loads
type StdlibConfig struct {
	Variant string `mapstructure:"variant"` // none, standard, local
	Dir     string `mapstructure:"dir"`     // library directory for the local variant
}

// ImplicitConfig configures implicit generalization
type ImplicitConfig struct {
	// EvenIfIndirect adds the default supertype even when the element
	// already reaches it through an explicit specialization chain
	EvenIfIndirect bool `mapstructure:"even_if_indirect"`
}

// LogConfig configures engine logging
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// OutputConfig configures diagnostic output of the CLI
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, json, yaml
	Color  bool   `mapstructure:"color"`
}

// Validate checks the configuration for values the engine cannot honor
func (c *Config) Validate() error {
	if _, err := stdlib.ParseVariant(c.Stdlib.Variant); err != nil {
		return err
	}
	if c.Stdlib.Variant == string(stdlib.VariantLocal) && c.Stdlib.Dir == "" {
		return errors.New("stdlib.dir is required for the local variant")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return errors.Newf("unknown log format %q", c.Log.Format)
	}
	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		return errors.Newf("unknown output format %q", c.Output.Format)
	}
	return nil
}

// BuildOptions maps the configuration onto workspace build options
func (c *Config) BuildOptions() (build.Options, error) {
	variant, err := stdlib.ParseVariant(c.Stdlib.Variant)
	if err != nil {
		return build.Options{}, err
	}
	return build.Options{
		Validations:            c.Build.Validations,
		StdlibVariant:          variant,
		StdlibDir:              c.Stdlib.Dir,
		Standalone:             c.Build.Standalone,
		ImplicitEvenIfIndirect: c.Implicit.EvenIfIndirect,
	}, nil
}
