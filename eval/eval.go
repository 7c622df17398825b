package eval

import (
	"math/big"

	"go.uber.org/zap"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/syntax"
)

// Evaluator evaluates expression nodes against a resolved model. It holds
// no per-expression state; Evaluate is a pure function of (expression,
// context) over the already-linked model.
type Evaluator struct {
	resolver meta.Resolver
	log      *zap.SugaredLogger
}

// New creates an evaluator resolving names through the given resolver
func New(resolver meta.Resolver) *Evaluator {
	return &Evaluator{
		resolver: resolver,
		log:      logger.ComponentLogger("eval"),
	}
}

// Evaluate evaluates an expression in the scope of a context element,
// usually the feature whose value is being computed. The result is a lazy
// sequence; errors carry an element stack for diagnostics and satisfy
// errors.IsEvaluationError.
func (ev *Evaluator) Evaluate(node *syntax.Node, context *meta.Element) (Sequence, error) {
	f := &frame{
		ev:      ev,
		context: context,
		active:  make(map[meta.ElementID]bool),
	}
	seq, err := f.eval(node)
	if err != nil {
		return nil, withElement(err, context)
	}
	return seq, nil
}

// EvaluateFeature evaluates a feature's declared value expression
func (ev *Evaluator) EvaluateFeature(feature *meta.Element) (Sequence, error) {
	f := &frame{
		ev:      ev,
		context: feature,
		active:  make(map[meta.ElementID]bool),
	}
	return f.featureValue(feature)
}

// frame is the per-evaluation state: the scope context and the set of
// features whose values are currently being computed, guarding against
// circular feature values.
type frame struct {
	ev      *Evaluator
	context *meta.Element
	active  map[meta.ElementID]bool
}

// scoped returns a frame resolving names in a different context element,
// sharing the cycle guard.
func (f *frame) scoped(context *meta.Element) *frame {
	return &frame{ev: f.ev, context: context, active: f.active}
}

func (f *frame) eval(node *syntax.Node) (Sequence, error) {
	if node == nil {
		return nil, errors.NewEvaluationError("missing expression")
	}
	switch node.Kind {
	case syntax.NodeLiteralInt, syntax.NodeLiteralRational:
		rat, ok := new(big.Rat).SetString(node.Text)
		if !ok {
			return nil, errors.NewEvaluationError("malformed numeric literal %q", node.Text)
		}
		return SingleValue(NewNumber(rat)), nil

	case syntax.NodeLiteralString:
		return SingleValue(String{Val: node.Text}), nil

	case syntax.NodeLiteralBool:
		return SingleValue(Bool{Val: node.Text == "true"}), nil

	case syntax.NodeLiteralInfinity:
		return SingleValue(Infinity{}), nil

	case syntax.NodeNull:
		return Empty(), nil

	case syntax.NodeNameRef:
		return f.evalName(node.Text)

	case syntax.NodeFeatureChain:
		return f.evalChain(node)

	case syntax.NodeInvocation:
		return f.evalInvocation(node)

	case syntax.NodeOperator:
		handler, ok := operators[node.Text]
		if !ok {
			return nil, errors.NewEvaluationError("unsupported operator %q", node.Text)
		}
		// recovered syntax errors can leave an operator node short of
		// operands; that is an evaluation error, never a panic
		if len(node.Children) < operatorArity(node.Text) {
			return nil, errors.NewEvaluationError("operator %q is missing an operand", node.Text)
		}
		return handler(f, node)
	}
	return nil, errors.NewEvaluationError("cannot evaluate %s node", node.Kind)
}

// evalName resolves a possibly qualified name and yields its value: a
// feature's declared value expression, or a reference to the element.
func (f *frame) evalName(name string) (Sequence, error) {
	resolved, err := f.ev.resolver.ResolveName(name, f.context)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrEvaluation, "unresolved name %q", name)
	}
	return f.valueOf(resolved)
}

// valueOf yields the value a resolved element stands for in an expression
func (f *frame) valueOf(e *meta.Element) (Sequence, error) {
	if e.Feature() != nil {
		return f.featureValue(e)
	}
	return SingleValue(ElementValue{Element: e}), nil
}

// featureValue evaluates the feature's declared value expression, falling
// back to values declared on redefined or subsetted features, and finally
// to a reference to the feature itself.
func (f *frame) featureValue(feature *meta.Element) (Sequence, error) {
	if f.active[feature.ID] {
		return nil, withElement(
			errors.NewEvaluationError("circular value for %q", feature.QualifiedName()),
			feature)
	}

	valueNode := feature.Feature().ValueNode
	source := feature
	if valueNode == nil {
		for _, super := range meta.AllSupertypes(feature) {
			if cap := super.Feature(); cap != nil && cap.ValueNode != nil {
				valueNode = cap.ValueNode
				source = super
				break
			}
		}
	}
	if valueNode == nil {
		return SingleValue(ElementValue{Element: feature}), nil
	}

	f.active[feature.ID] = true
	defer delete(f.active, feature.ID)

	seq, err := f.scoped(source).eval(valueNode)
	if err != nil {
		return nil, withElement(err, feature)
	}
	// force the value now: laziness must not escape the cycle guard
	values, err := Materialize(seq)
	if err != nil {
		return nil, withElement(err, feature)
	}
	return FromValues(values...), nil
}

// evalChain navigates a dotted feature chain: each step looks up the named
// feature on the elements yielded by the previous step and takes its value.
func (f *frame) evalChain(node *syntax.Node) (Sequence, error) {
	if len(node.Children) == 0 {
		return nil, errors.NewEvaluationError("empty feature chain")
	}
	seq, err := f.eval(node.Children[0])
	if err != nil {
		return nil, err
	}
	for _, step := range node.Children[1:] {
		seq, err = f.chainStep(seq, step.Text)
		if err != nil {
			return nil, err
		}
	}
	return seq, nil
}

func (f *frame) chainStep(receivers Sequence, name string) (Sequence, error) {
	values, err := Materialize(receivers)
	if err != nil {
		return nil, err
	}
	var parts []Sequence
	for _, v := range values {
		ref, ok := v.(ElementValue)
		if !ok {
			return nil, errors.NewEvaluationError(
				"cannot navigate feature %q on non-element value %s", name, v)
		}
		feature := memberFeature(ref.Element, name)
		if feature == nil {
			return nil, withElement(
				errors.NewEvaluationError("no feature %q on %q", name, ref.Element.QualifiedName()),
				ref.Element)
		}
		part, err := f.featureValue(feature)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return Concat(parts...), nil
}

// memberFeature finds a feature named name on e: direct members first, then
// inherited ones through the specialization closure, most-derived first.
// The search also follows the feature's own typing, so navigating into a
// typed feature finds members of its type.
func memberFeature(e *meta.Element, name string) *meta.Element {
	if found := directMember(e, name); found != nil {
		return found
	}
	for _, super := range meta.AllSupertypes(e) {
		if found := directMember(super, name); found != nil {
			return found
		}
	}
	return nil
}

func directMember(e *meta.Element, name string) *meta.Element {
	for _, m := range e.Members() {
		if m.Feature() == nil {
			continue
		}
		if m.Name == name || (m.ShortName != "" && m.ShortName == name) {
			return m
		}
	}
	return nil
}

// evalInvocation dispatches a named function call. The callee resolves
// through normal scoping to a library function element and dispatches on
// its qualified name; an unresolvable bare name falls back to the builtin
// registry directly, so expressions work without explicit library imports.
func (f *frame) evalInvocation(node *syntax.Node) (Sequence, error) {
	if len(node.Children) == 0 || node.Children[0].Kind != syntax.NodeNameRef {
		return nil, errors.NewEvaluationError("malformed invocation")
	}
	callee := node.Children[0].Text

	key := ""
	if resolved, err := f.ev.resolver.ResolveName(callee, f.context); err == nil {
		if resolved.Kind != meta.KindFunction {
			return nil, errors.NewEvaluationError("%q is not a function", resolved.QualifiedName())
		}
		key = resolved.QualifiedName()
	} else if qualified, ok := bareBuiltins[callee]; ok {
		key = qualified
	} else {
		return nil, errors.Wrapf(errors.ErrEvaluation, "unresolved function %q", callee)
	}

	builtin, ok := builtins[key]
	if !ok {
		return nil, errors.NewEvaluationError("function %q has no builtin implementation", key)
	}

	args := make([]Sequence, 0, len(node.Children)-1)
	for _, argNode := range node.Children[1:] {
		arg, err := f.eval(argNode)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return builtin(f, args)
}

// singleOperand evaluates a node and requires exactly one value
func (f *frame) singleOperand(node *syntax.Node) (Value, error) {
	seq, err := f.eval(node)
	if err != nil {
		return nil, err
	}
	return Single(seq)
}
