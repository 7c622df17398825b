// Package implicit implements the implicit-generalization engine: for every
// element kind lacking an explicit supertype of the required relationship
// kind, a synthetic relationship to a designated standard-library element is
// inserted, chosen by element-specific decision rules.
package implicit

import (
	"go.uber.org/zap"

	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
)

// LibraryProvider looks up a standard-library element by qualified name.
// A nil result means the library is not loaded or the element is missing;
// the engine tolerates this by simply not adding the implicit relationship,
// which allows standalone analysis without the standard library.
type LibraryProvider interface {
	LibraryType(qualifiedName string, context *meta.Element) *meta.Element
}

// Selector is one default-supertype decision rule. Applies inspects the
// element's locally observable flags and surroundings; Target names the
// standard-library element to use as the implied supertype.
type Selector struct {
	Name    string
	Kind    meta.RelKind
	Applies func(e *meta.Element) bool
	Target  func(e *meta.Element) string
}

// Engine synthesizes implicit specializations over a linked document.
type Engine struct {
	ids *meta.IDAllocator
	lib LibraryProvider

	// evenIfIndirect keeps the implicit relationship even when an explicit
	// specialization chain already reaches the implicit target indirectly.
	// The default (false) suppresses it; see DESIGN.md for the rationale.
	evenIfIndirect bool

	log *zap.SugaredLogger
}

// NewEngine creates an implicit-generalization engine
func NewEngine(ids *meta.IDAllocator, lib LibraryProvider, evenIfIndirect bool) *Engine {
	return &Engine{
		ids:            ids,
		lib:            lib,
		evenIfIndirect: evenIfIndirect,
		log:            logger.ComponentLogger("implicit.engine"),
	}
}

// Apply runs the selector table over every type in the document. It must
// run after explicit relationships in the document and its imports are
// resolved: several selectors inspect owner and sibling structure that only
// exists post-linking, and the "has explicit supertype" check counts
// explicit relationships regardless of query order.
//
// Kind-specific selectors run before containment/composite-specific ones,
// each table in enumeration order, so multiple qualifying selectors append
// their relationships in a stable precedence order for diagnostics.
func (g *Engine) Apply(doc *meta.Document) {
	if g.lib == nil {
		return
	}
	added := 0
	doc.Walk(func(e *meta.Element) {
		if e.Type() == nil {
			return
		}
		for _, sel := range kindSelectors {
			if g.applySelector(e, sel) {
				added++
			}
		}
		for _, sel := range containmentSelectors {
			if g.applySelector(e, sel) {
				added++
			}
		}
	})
	g.log.Debugw("implicit generalization applied",
		logger.FieldDocument, doc.URI,
		logger.FieldCount, added)
}

// Finding reports an element whose explicit specializations suppressed the
// default supertype a selector would have chosen, without conforming to it.
type Finding struct {
	Element *meta.Element
	Target  *meta.Element
	Kind    meta.RelKind
}

// Inconsistencies scans a linked document for elements whose explicit
// supertypes of a selector's kind do not reach the selector's default
// target. These surface as suppressible validation diagnostics: a model
// deliberately built against a different library root is legitimate.
func (g *Engine) Inconsistencies(doc *meta.Document) []Finding {
	if g.lib == nil {
		return nil
	}
	var out []Finding
	doc.Walk(func(e *meta.Element) {
		if e.Type() == nil {
			return
		}
		for _, sel := range kindSelectors {
			if !sel.Applies(e) || !meta.HasExplicitSpecialization(e, sel.Kind) {
				continue
			}
			target := g.lib.LibraryType(sel.Target(e), e)
			if target == nil || target == e {
				continue
			}
			if !meta.Conforms(e, target) {
				out = append(out, Finding{Element: e, Target: target, Kind: sel.Kind})
			}
		}
	})
	return out
}

func (g *Engine) applySelector(e *meta.Element, sel Selector) bool {
	if !sel.Applies(e) {
		return false
	}
	if meta.HasExplicitSpecialization(e, sel.Kind) {
		return false
	}
	target := g.lib.LibraryType(sel.Target(e), e)
	if target == nil || target == e {
		return false
	}
	// the library's own root elements do not specialize themselves
	if target.IsAncestorOf(e) || e.IsAncestorOf(target) {
		return false
	}
	if !g.evenIfIndirect && meta.ReachesThroughExplicit(e, target) {
		return false
	}
	// an earlier selector may already have added the same target
	for _, rel := range meta.Specializations(e, sel.Kind) {
		if rel.Relationship().Target.Target() == target {
			return false
		}
	}
	meta.NewImpliedRelationship(g.ids, sel.Kind, e, target)
	return true
}

// library element qualified names used as implied supertypes
const (
	libAnything        = "Base::Anything"
	libThings          = "Base::things"
	libDataValue       = "Base::DataValue"
	libOccurrence      = "Occurrences::Occurrence"
	libObject          = "Objects::Object"
	libObjects         = "Objects::objects"
	libLink            = "Links::Link"
	libBinaryLink      = "Links::BinaryLink"
	libLinks           = "Links::links"
	libBinaryLinks     = "Links::binaryLinks"
	libPerformance     = "Performances::Performance"
	libSubperformances = "Performances::Performance::subperformances"
)

// kindSelectors pick a default supertype from the element kind alone.
// Table order is the precedence order for diagnostics.
var kindSelectors = []Selector{
	{
		Name: "classifier-anything",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindClassifier
		},
		Target: func(*meta.Element) string { return libAnything },
	},
	{
		Name: "datatype-datavalue",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindDataType
		},
		Target: func(*meta.Element) string { return libDataValue },
	},
	{
		Name: "class-occurrence",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindClass
		},
		Target: func(*meta.Element) string { return libOccurrence },
	},
	{
		Name: "struct-object",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindStruct
		},
		Target: func(*meta.Element) string { return libObject },
	},
	{
		Name: "assoc-link",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindAssoc
		},
		Target: func(e *meta.Element) string {
			// binary associations get the binary link supertype
			if len(e.Ends()) == 2 {
				return libBinaryLink
			}
			return libLink
		},
	},
	{
		Name: "behavior-performance",
		Kind: meta.RelSpecialization,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindBehavior || e.Kind == meta.KindFunction
		},
		Target: func(*meta.Element) string { return libPerformance },
	},
	{
		Name: "feature-things",
		Kind: meta.RelSubsetting,
		Applies: func(e *meta.Element) bool {
			return e.Feature() != nil && e.Kind != meta.KindConnector
		},
		Target: func(*meta.Element) string { return libThings },
	},
	{
		Name: "connector-links",
		Kind: meta.RelSubsetting,
		Applies: func(e *meta.Element) bool {
			return e.Kind == meta.KindConnector
		},
		Target: func(e *meta.Element) string {
			if len(e.Ends()) == 2 {
				return libBinaryLinks
			}
			return libLinks
		},
	},
}

// containmentSelectors pick additional supertypes from the element's
// position in its owner. They run after the kind-specific table.
var containmentSelectors = []Selector{
	{
		Name: "composite-of-object",
		Kind: meta.RelSubsetting,
		Applies: func(e *meta.Element) bool {
			return isCompositeOfKind(e, meta.KindStruct)
		},
		Target: func(*meta.Element) string { return libObjects },
	},
	{
		Name: "composite-of-behavior",
		Kind: meta.RelSubsetting,
		Applies: func(e *meta.Element) bool {
			return isCompositeOfKind(e, meta.KindBehavior) || isCompositeOfKind(e, meta.KindFunction)
		},
		Target: func(*meta.Element) string { return libSubperformances },
	},
	{
		Name: "end-of-binary",
		Kind: meta.RelSubsetting,
		Applies: func(e *meta.Element) bool {
			if e.Feature() == nil || !e.Feature().End {
				return false
			}
			owner := e.Owner()
			if owner == nil {
				return false
			}
			return (owner.Kind == meta.KindAssoc || owner.Kind == meta.KindConnector) &&
				len(owner.Ends()) == 2
		},
		Target: func(*meta.Element) string { return libBinaryLinks },
	},
}

// isCompositeOfKind reports whether e is a composite feature whose owner is
// of the given kind
func isCompositeOfKind(e *meta.Element, kind meta.ElementKind) bool {
	if e.Feature() == nil || !e.Feature().Composite {
		return false
	}
	owner := e.Owner()
	return owner != nil && owner.Kind == kind
}
