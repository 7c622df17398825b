package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/stdlib"
)

// StdlibCmd represents the stdlib command
var StdlibCmd = &cobra.Command{
	Use:   "stdlib",
	Short: "Inspect the bundled model library",
}

var stdlibLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List bundled library packages",
	RunE:  runStdlibLs,
}

var stdlibShowCmd = &cobra.Command{
	Use:   "show QUALIFIED_NAME",
	Short: "Show one library element and its supertypes",
	Args:  cobra.ExactArgs(1),
	RunE:  runStdlibShow,
}

func init() {
	StdlibCmd.AddCommand(stdlibLsCmd)
	StdlibCmd.AddCommand(stdlibShowCmd)
}

func loadLibrary(cmd *cobra.Command) (*stdlib.Library, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	variant, err := stdlib.ParseVariant(cfg.Stdlib.Variant)
	if err != nil {
		return nil, err
	}
	if variant == stdlib.VariantNone {
		variant = stdlib.VariantStandard
	}
	return stdlib.Load(variant, meta.NewIDAllocator(), cfg.Stdlib.Dir)
}

func runStdlibLs(cmd *cobra.Command, args []string) error {
	library, err := loadLibrary(cmd)
	if err != nil {
		return err
	}

	rows := pterm.TableData{{"Package", "URI", "Elements"}}
	for _, doc := range library.Documents() {
		name := ""
		for _, m := range doc.Root.Members() {
			if m.Name != "" {
				name = m.Name
				break
			}
		}
		rows = append(rows, []string{name, doc.URI, pterm.Sprintf("%d", elementCount(doc))})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runStdlibShow(cmd *cobra.Command, args []string) error {
	library, err := loadLibrary(cmd)
	if err != nil {
		return err
	}

	element := library.LibraryType(args[0], nil)
	if element == nil {
		return errors.Newf("no library element named %q", args[0])
	}

	pterm.DefaultSection.Println(element.QualifiedName())
	pterm.Info.Printfln("kind: %s", element.Kind)
	for _, super := range meta.AllSupertypes(element) {
		pterm.Printfln("  specializes %s", super.QualifiedName())
	}
	return nil
}

func elementCount(doc *meta.Document) int {
	count := 0
	doc.Walk(func(*meta.Element) { count++ })
	return count
}
