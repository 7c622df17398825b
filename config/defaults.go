package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Build defaults
	v.SetDefault("build.validations", "all")
	v.SetDefault("build.standalone", false)

	// Library defaults
	v.SetDefault("stdlib.variant", "standard")
	v.SetDefault("stdlib.dir", "")

	// Implicit generalization defaults
	v.SetDefault("implicit.even_if_indirect", false)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// CLI output defaults
	v.SetDefault("output.format", "text")
	v.SetDefault("output.color", true)
}
