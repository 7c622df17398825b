// Package commands implements the kerml CLI subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kerml-go/kerml/build"
	"github.com/kerml-go/kerml/config"
	"github.com/kerml-go/kerml/errors"
)

// LoadConfig returns the engine configuration, honoring the --config flag
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// workspaceOptions maps the configuration onto build options, then applies
// any command-line overrides
func workspaceOptions(cmd *cobra.Command, cfg *config.Config) (build.Options, error) {
	opts, err := cfg.BuildOptions()
	if err != nil {
		return build.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("validations") {
		opts.Validations, _ = flags.GetString("validations")
	}
	if flags.Changed("standalone") {
		opts.Standalone, _ = flags.GetBool("standalone")
	}
	return opts, nil
}

// loadDocuments reads each file argument into the workspace
func loadDocuments(w *build.Workspace, paths []string) error {
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		w.SetDocument(path, string(source))
	}
	return nil
}

// outputFormat resolves the output format from the --format flag, falling
// back to the configured default
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return format
	}
	if cfg.Output.Format != "" {
		return cfg.Output.Format
	}
	return "text"
}

// emit writes v to stdout as JSON or YAML
func emit(format string, v interface{}) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
		fmt.Println(string(out))
		return nil
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "encoding YAML")
		}
		fmt.Print(string(out))
		return nil
	default:
		return errors.Newf("unknown output format %q", format)
	}
}
