package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kerml-go/kerml/build"
	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/eval"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/syntax"
)

// evalScopeURI names the synthetic document holding the expression
const evalScopeURI = "kerml:eval"

var evalExpression string

// EvalCmd represents the eval command
var EvalCmd = &cobra.Command{
	Use:   "eval -e EXPRESSION [FILE...]",
	Short: "Evaluate a model-level expression",
	Long: `Evaluate an expression against a set of model documents.

The documents are built into a workspace first, so the expression can
reference any element they declare, as well as the bundled library.

Examples:
  kerml eval -e "2 ** 10"
  kerml eval -e "1..5"
  kerml eval -e "size(1..100)"
  kerml eval -e "Vehicle::mass + 10" model.kerml
  kerml eval --format json -e "ScalarFunctions::sum(1, 2, 3)"`,
	RunE: runEvalCommand,
}

func init() {
	EvalCmd.Flags().StringVarP(&evalExpression, "expr", "e", "", "Expression to evaluate (required)")
	EvalCmd.Flags().StringP("format", "f", "", "Output format (text/json/yaml)")
	_ = EvalCmd.MarkFlagRequired("expr")
}

func runEvalCommand(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	opts, err := cfg.BuildOptions()
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

	// the expression becomes the value of a feature in its own document,
	// giving it a resolution scope over the loaded documents
	wrapper := fmt.Sprintf("package EvalScope { feature result = %s; }", evalExpression)
	workspace.SetDocument(evalScopeURI, wrapper)

	result, err := workspace.Build(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "build failed")
	}
	if err := scopeErrors(result); err != nil {
		return err
	}

	target := findResultFeature(workspace.Document(evalScopeURI))
	if target == nil {
		return errors.AssertionFailedf("expression feature missing from eval scope")
	}

	seq, err := workspace.Evaluator().EvaluateFeature(target)
	if err != nil {
		return errors.Wrap(err, "evaluation failed")
	}
	values, err := eval.Materialize(seq)
	if err != nil {
		return errors.Wrap(err, "evaluation failed")
	}

	switch format := outputFormat(cmd, cfg); format {
	case "text":
		for _, v := range values {
			pterm.Println(v.String())
		}
		return nil
	default:
		serialized := make([]interface{}, len(values))
		for i, v := range values {
			serialized[i] = eval.Serialize(v)
		}
		if len(serialized) == 1 {
			return emit(format, serialized[0])
		}
		return emit(format, serialized)
	}
}

// scopeErrors surfaces diagnostics that would make the evaluation
// meaningless, syntax errors in the expression included
func scopeErrors(result *build.Result) error {
	var messages []string
	for _, doc := range result.Documents {
		for _, d := range doc.Diagnostics {
			if d.Severity != syntax.SeverityError {
				continue
			}
			if doc.URI == evalScopeURI {
				messages = append(messages, d.Message)
			} else {
				messages = append(messages, fmt.Sprintf("%s: %s", doc.URI, d.Message))
			}
		}
	}
	if len(messages) == 0 {
		return nil
	}
	err := errors.Newf("%s", messages[0])
	for _, m := range messages[1:] {
		err = errors.WithDetail(err, m)
	}
	return err
}

func findResultFeature(doc *meta.Document) *meta.Element {
	var found *meta.Element
	doc.Walk(func(e *meta.Element) {
		if found == nil && e.Name == "result" && e.Feature() != nil {
			found = e
		}
	})
	return found
}
