package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kerml-go/kerml/build"
	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/syntax"
)

// CheckCmd represents the check command
var CheckCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Parse, link and validate model documents",
	Long: `Parse, link and validate a set of model documents together.

All files are loaded into one workspace, so names resolve across
documents. Diagnostics are reported per document with source positions.

Examples:
  kerml check model.kerml
  kerml check src/parts.kerml src/system.kerml
  kerml check --validations cycles,multiplicity model.kerml
  kerml check --format json model.kerml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckCommand,
}

func init() {
	CheckCmd.Flags().String("validations", "", "Validation checks to run (all, none, or a comma-separated subset)")
	CheckCmd.Flags().Bool("standalone", false, "Resolve names within each document only")
	CheckCmd.Flags().StringP("format", "f", "", "Output format (text/json/yaml)")
}

// checkReport is the machine-readable output of one check run
type checkReport struct {
	Documents []documentReport `json:"documents" yaml:"documents"`
	Errors    int              `json:"errors" yaml:"errors"`
	Warnings  int              `json:"warnings" yaml:"warnings"`
	ElapsedMS int64            `json:"elapsed_ms" yaml:"elapsed_ms"`
}

type documentReport struct {
	URI         string              `json:"uri" yaml:"uri"`
	Diagnostics []syntax.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	opts, err := workspaceOptions(cmd, cfg)
	if err != nil {
		return err
	}
	workspace, err := build.NewWorkspace(opts)
	if err != nil {
		return err
	}
	if err := loadDocuments(workspace, args); err != nil {
		return err
	}

	result, err := workspace.Build(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "build failed")
	}

	report := buildReport(result)
	if format := outputFormat(cmd, cfg); format != "text" {
		if err := emit(format, report); err != nil {
			return err
		}
	} else {
		displayReport(report, cfg.Output.Color)
	}

	if report.Errors > 0 {
		return errors.Newf("%d error(s) in %d document(s)", report.Errors, len(report.Documents))
	}
	return nil
}

func buildReport(result *build.Result) checkReport {
	report := checkReport{ElapsedMS: result.Elapsed.Milliseconds()}
	for _, doc := range result.Documents {
		report.Documents = append(report.Documents, documentReport{
			URI:         doc.URI,
			Diagnostics: doc.Diagnostics,
		})
		for _, d := range doc.Diagnostics {
			switch d.Severity {
			case syntax.SeverityError:
				report.Errors++
			case syntax.SeverityWarning:
				report.Warnings++
			}
		}
	}
	return report
}

func displayReport(report checkReport, color bool) {
	if !color {
		pterm.DisableColor()
	}

	for _, doc := range report.Documents {
		if len(doc.Diagnostics) == 0 {
			continue
		}
		pterm.DefaultSection.Println(doc.URI)
		for _, d := range doc.Diagnostics {
			line := d.String()
			switch d.Severity {
			case syntax.SeverityError:
				pterm.Error.Println(line)
			case syntax.SeverityWarning:
				pterm.Warning.Println(line)
			default:
				pterm.Info.Println(line)
			}
		}
	}

	summary := pterm.Sprintf("%d document(s), %d error(s), %d warning(s) in %dms",
		len(report.Documents), report.Errors, report.Warnings, report.ElapsedMS)
	if report.Errors > 0 {
		pterm.Error.Println(summary)
	} else if report.Warnings > 0 {
		pterm.Warning.Println(summary)
	} else {
		pterm.Success.Println(summary)
	}
}
