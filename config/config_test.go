package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerml-go/kerml/stdlib"
)

func freshViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWithViper(freshViper())
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Build.Validations)
	assert.False(t, cfg.Build.Standalone)
	assert.Equal(t, "standard", cfg.Stdlib.Variant)
	assert.False(t, cfg.Implicit.EvenIfIndirect)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kerml.toml")
	content := `
[build]
validations = "cycles,multiplicity"
standalone = true

[stdlib]
variant = "none"

[implicit]
even_if_indirect = true

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cycles,multiplicity", cfg.Build.Validations)
	assert.True(t, cfg.Build.Standalone)
	assert.Equal(t, "none", cfg.Stdlib.Variant)
	assert.True(t, cfg.Implicit.EvenIfIndirect)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown stdlib variant",
			mutate:  func(c *Config) { c.Stdlib.Variant = "minimal" },
			wantErr: "variant",
		},
		{
			name:    "local variant requires a directory",
			mutate:  func(c *Config) { c.Stdlib.Variant = "local" },
			wantErr: "stdlib.dir",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log format",
		},
		{
			name:    "unknown output format",
			mutate:  func(c *Config) { c.Output.Format = "csv" },
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithViper(freshViper())
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := LoadWithViper(freshViper())
	require.NoError(t, err)
	cfg.Build.Validations = "cycles"
	cfg.Stdlib.Variant = "none"
	cfg.Implicit.EvenIfIndirect = true

	opts, err := cfg.BuildOptions()
	require.NoError(t, err)
	assert.Equal(t, "cycles", opts.Validations)
	assert.Equal(t, stdlib.VariantNone, opts.StdlibVariant)
	assert.True(t, opts.ImplicitEvenIfIndirect)
}

func TestProjectConfigDiscovery(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "models", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kerml.toml"),
		[]byte("[build]\nvalidations = \"none\"\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	found := findProjectConfig()
	require.NotEmpty(t, found)
	assert.Equal(t, "kerml.toml", filepath.Base(found))
}
