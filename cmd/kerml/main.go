package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kerml-go/kerml/cmd/kerml/commands"
	"github.com/kerml-go/kerml/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kerml",
	Short: "kerml - Model analysis engine for KerML documents",
	Long: `kerml - Analysis engine for KerML textual models.

kerml parses model documents, resolves names across them, applies
implicit library generalizations, validates the result, and evaluates
model-level expressions.

Available commands:
  check   - Parse, link and validate model documents
  eval    - Evaluate a model-level expression
  stdlib  - Inspect the bundled model library
  version - Show version information

Examples:
  kerml check model.kerml          # Validate one document
  kerml check src/*.kerml          # Validate a document set together
  kerml eval -e "1..10" model.kerml
  kerml stdlib ls                  # List bundled library packages`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := commands.LoadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.Log.Format == "json"); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a kerml.toml configuration file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity")

	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.StdlibCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
