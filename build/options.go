package build

import (
	"strings"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/stdlib"
)

// Validation check names
const (
	CheckCycles       = "cycles"
	CheckMultiplicity = "multiplicity"
	CheckImplicit     = "implicit"
)

var allChecks = []string{CheckCycles, CheckMultiplicity, CheckImplicit}

// Options configure a workspace build.
type Options struct {
	// Validations selects which validation checks run: "all", "none", or a
	// comma-separated subset of check names.
	Validations string

	// StdlibVariant selects the standard library: none, standard, local.
	StdlibVariant stdlib.Variant
	// StdlibDir is the library directory for the local variant.
	StdlibDir string

	// Standalone skips workspace-wide indexing for single-file analysis.
	Standalone bool

	// ImplicitEvenIfIndirect keeps an implicit supertype even when an
	// explicit chain reaches its target indirectly.
	ImplicitEvenIfIndirect bool
}

// DefaultOptions runs every check against the embedded library.
func DefaultOptions() Options {
	return Options{
		Validations:   "all",
		StdlibVariant: stdlib.VariantStandard,
	}
}

// checkSet expands the Validations option into an enabled-check set
func (o Options) checkSet() (map[string]bool, error) {
	enabled := make(map[string]bool)
	switch strings.TrimSpace(o.Validations) {
	case "", "all":
		for _, name := range allChecks {
			enabled[name] = true
		}
		return enabled, nil
	case "none":
		return enabled, nil
	}
	for _, name := range strings.Split(o.Validations, ",") {
		name = strings.TrimSpace(name)
		valid := false
		for _, known := range allChecks {
			if name == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, errors.Newf("unknown validation check %q (known: %s)",
				name, strings.Join(allChecks, ", "))
		}
		enabled[name] = true
	}
	return enabled, nil
}
