package build

import (
	"math/big"

	"github.com/kerml-go/kerml/eval"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/syntax"
)

// validateDocument runs the enabled validation checks over one linked
// document. All findings are diagnostics; validation never aborts a build.
func (w *Workspace) validateDocument(doc *meta.Document) {
	if w.checks[CheckImplicit] {
		for _, finding := range w.engine.Inconsistencies(doc) {
			doc.Report(syntax.Warningf(syntax.CodeImplicit, elementRange(finding.Element),
				"explicit %s of %q does not conform to its default supertype %q",
				finding.Kind, finding.Element.EffectiveName(), finding.Target.QualifiedName()))
		}
	}

	if !w.checks[CheckCycles] && !w.checks[CheckMultiplicity] {
		return
	}
	evaluator := w.Evaluator()
	doc.Walk(func(e *meta.Element) {
		if e.Type() == nil {
			return
		}
		if w.checks[CheckCycles] && meta.HasSpecializationCycle(e) {
			doc.Report(syntax.Errorf(syntax.CodeCycle, elementRange(e),
				"specialization cycle involving %q", e.EffectiveName()))
		}
		if w.checks[CheckMultiplicity] {
			w.checkMultiplicity(doc, e, evaluator)
		}
	})
}

// multiplicityBound is one evaluated bound: a non-negative integer or
// unbounded.
type multiplicityBound struct {
	value     *big.Int
	unbounded bool
}

// checkMultiplicity validates declared multiplicity bounds: integers,
// non-negative, lower not above upper, lower bound finite.
func (w *Workspace) checkMultiplicity(doc *meta.Document, e *meta.Element, evaluator *eval.Evaluator) {
	node := e.Type().MultiplicityNode
	if node == nil {
		return
	}

	report := func(format string, args ...any) {
		doc.Report(syntax.Errorf(syntax.CodeValidation, node.Range, format, args...))
	}

	// "lower..upper" is a bounds pair, anything else a single exact bound
	var boundNodes []*syntax.Node
	if node.Kind == syntax.NodeOperator && node.Text == ".." {
		boundNodes = node.Children
	} else {
		boundNodes = []*syntax.Node{node}
	}

	bounds := make([]multiplicityBound, 0, 2)
	for _, bn := range boundNodes {
		bound, ok := w.evalBound(doc, e, evaluator, bn)
		if !ok {
			return
		}
		bounds = append(bounds, bound)
	}

	for i, b := range bounds {
		if !b.unbounded && b.value.Sign() < 0 {
			report("multiplicity bound %s must not be negative", b.value)
			return
		}
		if b.unbounded && i == 0 && len(bounds) == 2 {
			report("multiplicity lower bound must be finite")
			return
		}
	}
	if len(bounds) == 2 && !bounds[1].unbounded && bounds[0].value.Cmp(bounds[1].value) > 0 {
		report("multiplicity lower bound %s exceeds upper bound %s", bounds[0].value, bounds[1].value)
	}
}

// evalBound evaluates one bound expression. Evaluation failures degrade to
// a warning: the bound may reference a broken portion of the model.
func (w *Workspace) evalBound(doc *meta.Document, e *meta.Element, evaluator *eval.Evaluator, node *syntax.Node) (multiplicityBound, bool) {
	seq, err := evaluator.Evaluate(node, e)
	var v eval.Value
	if err == nil {
		v, err = eval.Single(seq)
	}
	if err != nil {
		doc.Report(syntax.Warningf(syntax.CodeValidation, node.Range,
			"cannot evaluate multiplicity bound: %s", err))
		return multiplicityBound{}, false
	}

	switch val := v.(type) {
	case eval.Infinity:
		return multiplicityBound{unbounded: true}, true
	case eval.Number:
		if !val.IsInt() {
			doc.Report(syntax.Errorf(syntax.CodeValidation, node.Range,
				"multiplicity bound must be an integer, got %s", val))
			return multiplicityBound{}, false
		}
		return multiplicityBound{value: val.Rat.Num()}, true
	}
	doc.Report(syntax.Errorf(syntax.CodeValidation, node.Range,
		"multiplicity bound must be an integer, got %s", v))
	return multiplicityBound{}, false
}
