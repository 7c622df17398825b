package eval

import (
	"math/big"
	"strings"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/syntax"
)

// operatorHandler evaluates one operator expression node
type operatorHandler func(f *frame, node *syntax.Node) (Sequence, error)

// operators is the dispatch table keyed by operator token. Populated in
// init so handlers may reference frame.eval without an initialization
// cycle.
var operators map[string]operatorHandler

func init() {
	operators = map[string]operatorHandler{
		"+":  evalArithmetic,
		"-":  evalMinus,
		"*":  evalArithmetic,
		"/":  evalArithmetic,
		"%":  evalArithmetic,
		"**": evalArithmetic,

		"<":  evalRelational,
		">":  evalRelational,
		"<=": evalRelational,
		">=": evalRelational,

		"==":  evalEquality,
		"!=":  evalEquality,
		"===": evalEquality,
		"!==": evalEquality,

		"and":     evalBoolean,
		"or":      evalBoolean,
		"xor":     evalBoolean,
		"implies": evalBoolean,
		"&":       evalBoolean,
		"|":       evalBoolean,
		"not":     evalNot,
		"~":       evalNot,

		"..": evalRange,
		",":  evalSequenceOp,
		"#":  evalIndex,

		"istype":  evalClassification,
		"hastype": evalClassification,
		"@":       evalClassification,
		"as":      evalClassification,
		"meta":    evalClassification,
		"@@":      evalClassification,
	}
}

// operatorArity returns the minimum operand count a handler may assume.
// Operators absent from the table are binary.
func operatorArity(op string) int {
	switch op {
	case "-", "not", "~", ",":
		return 1
	}
	return 2
}

// evalMinus handles both unary negation and binary subtraction
func evalMinus(f *frame, node *syntax.Node) (Sequence, error) {
	if len(node.Children) == 1 {
		v, err := f.singleOperand(node.Children[0])
		if err != nil {
			return nil, err
		}
		n, ok := v.(Number)
		if !ok {
			return nil, errors.NewEvaluationError("cannot negate %s", v)
		}
		return SingleValue(NewNumber(new(big.Rat).Neg(n.Rat))), nil
	}
	return evalArithmetic(f, node)
}

func evalArithmetic(f *frame, node *syntax.Node) (Sequence, error) {
	left, err := f.singleOperand(node.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := f.singleOperand(node.Children[1])
	if err != nil {
		return nil, err
	}

	// string concatenation shares the "+" token
	if node.Text == "+" {
		if ls, ok := left.(String); ok {
			rs, ok := right.(String)
			if !ok {
				return nil, errors.NewEvaluationError("cannot add %s to a string", right)
			}
			return SingleValue(String{Val: ls.Val + rs.Val}), nil
		}
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, errors.NewEvaluationError(
			"operator %q needs numeric operands, got %s and %s", node.Text, left, right)
	}

	out := new(big.Rat)
	switch node.Text {
	case "+":
		out.Add(ln.Rat, rn.Rat)
	case "-":
		out.Sub(ln.Rat, rn.Rat)
	case "*":
		out.Mul(ln.Rat, rn.Rat)
	case "/":
		if rn.Rat.Sign() == 0 {
			return nil, errors.NewEvaluationError("division by zero")
		}
		out.Quo(ln.Rat, rn.Rat)
	case "%":
		li, lIsInt := ln.Int()
		ri, rIsInt := rn.Int()
		if !lIsInt || !rIsInt {
			return nil, errors.NewEvaluationError("operator %% needs integer operands")
		}
		if ri == 0 {
			return nil, errors.NewEvaluationError("division by zero")
		}
		return SingleValue(NewInt(li % ri)), nil
	case "**":
		exp, isInt := rn.Int()
		if !isInt {
			return nil, errors.NewEvaluationError("exponent must be an integer, got %s", right)
		}
		out = ratPow(ln.Rat, exp)
		if out == nil {
			return nil, errors.NewEvaluationError("zero cannot be raised to a negative power")
		}
	}
	return SingleValue(NewNumber(out)), nil
}

// ratPow raises base to an integer power, nil when 0 is raised negatively
func ratPow(base *big.Rat, exp int64) *big.Rat {
	neg := exp < 0
	if neg {
		if base.Sign() == 0 {
			return nil
		}
		exp = -exp
	}
	num := new(big.Int).Exp(base.Num(), big.NewInt(exp), nil)
	den := new(big.Int).Exp(base.Denom(), big.NewInt(exp), nil)
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Inv(out)
	}
	return out
}

// evalRelational compares numbers or strings with the same handler,
// dispatching on runtime operand type. Infinity is above every number.
func evalRelational(f *frame, node *syntax.Node) (Sequence, error) {
	left, err := f.singleOperand(node.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := f.singleOperand(node.Children[1])
	if err != nil {
		return nil, err
	}

	cmp, err := compareValues(left, right)
	if err != nil {
		return nil, err
	}
	var result bool
	switch node.Text {
	case "<":
		result = cmp < 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	}
	return SingleValue(Bool{Val: result}), nil
}

func compareValues(left, right Value) (int, error) {
	switch lv := left.(type) {
	case Number:
		switch rv := right.(type) {
		case Number:
			return lv.Rat.Cmp(rv.Rat), nil
		case Infinity:
			return -1, nil
		}
	case String:
		if rv, ok := right.(String); ok {
			return strings.Compare(lv.Val, rv.Val), nil
		}
	case Infinity:
		switch right.(type) {
		case Number:
			return 1, nil
		case Infinity:
			return 0, nil
		}
	}
	return 0, errors.NewEvaluationError("cannot compare %s with %s", left, right)
}

// evalEquality computes == and ===; != and !== are their negations, not
// independent implementations.
func evalEquality(f *frame, node *syntax.Node) (Sequence, error) {
	left, err := f.singleOperand(node.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := f.singleOperand(node.Children[1])
	if err != nil {
		return nil, err
	}

	var result bool
	switch node.Text {
	case "==":
		result = Equals(left, right)
	case "!=":
		result = !Equals(left, right)
	case "===":
		result = Same(left, right)
	case "!==":
		result = !Same(left, right)
	}
	return SingleValue(Bool{Val: result}), nil
}

// evalBoolean handles the logical connectives. "and", "or" and "implies"
// short-circuit; "&" and "|" always evaluate both sides.
func evalBoolean(f *frame, node *syntax.Node) (Sequence, error) {
	left, err := f.boolOperand(node.Children[0])
	if err != nil {
		return nil, err
	}

	switch node.Text {
	case "and":
		if !left {
			return SingleValue(Bool{Val: false}), nil
		}
	case "or":
		if left {
			return SingleValue(Bool{Val: true}), nil
		}
	case "implies":
		if !left {
			return SingleValue(Bool{Val: true}), nil
		}
	}

	right, err := f.boolOperand(node.Children[1])
	if err != nil {
		return nil, err
	}

	var result bool
	switch node.Text {
	case "and", "&":
		result = left && right
	case "or", "|":
		result = left || right
	case "xor":
		result = left != right
	case "implies":
		result = right
	}
	return SingleValue(Bool{Val: result}), nil
}

func evalNot(f *frame, node *syntax.Node) (Sequence, error) {
	v, err := f.boolOperand(node.Children[0])
	if err != nil {
		return nil, err
	}
	return SingleValue(Bool{Val: !v}), nil
}

func (f *frame) boolOperand(node *syntax.Node) (bool, error) {
	v, err := f.singleOperand(node)
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		return false, errors.NewEvaluationError("expected a boolean, got %s", v)
	}
	return b.Val, nil
}

// evalRange builds a lazy integer range a..b. An infinity upper bound
// produces an unbounded sequence.
func evalRange(f *frame, node *syntax.Node) (Sequence, error) {
	left, err := f.singleOperand(node.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := f.singleOperand(node.Children[1])
	if err != nil {
		return nil, err
	}

	ln, ok := left.(Number)
	if !ok || !ln.IsInt() {
		return nil, errors.NewEvaluationError("range bounds must be integers, got %s", left)
	}
	lo := new(big.Int).Set(ln.Rat.Num())

	if _, isInf := right.(Infinity); isInf {
		return rangeSequence{lo: lo}, nil
	}
	rn, ok := right.(Number)
	if !ok || !rn.IsInt() {
		return nil, errors.NewEvaluationError("range bounds must be integers, got %s", right)
	}
	return rangeSequence{lo: lo, hi: new(big.Int).Set(rn.Rat.Num())}, nil
}

// evalSequenceOp concatenates the comma operands lazily
func evalSequenceOp(f *frame, node *syntax.Node) (Sequence, error) {
	parts := make([]Sequence, 0, len(node.Children))
	for _, child := range node.Children {
		part, err := f.eval(child)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return Concat(parts...), nil
}

// evalClassification handles istype/hastype/as/meta and their symbol
// aliases. The right operand names a type; classification inspects the
// model element on the left.
func evalClassification(f *frame, node *syntax.Node) (Sequence, error) {
	target, err := f.ev.resolver.ResolveName(node.Children[1].Text, f.context)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrEvaluation,
			"unresolved type %q in %s expression", node.Children[1].Text, node.Text)
	}

	seq, err := f.eval(node.Children[0])
	if err != nil {
		return nil, err
	}

	switch node.Text {
	case "as":
		// cast: keep the values conforming to the target type
		values, err := Materialize(seq)
		if err != nil {
			return nil, err
		}
		var kept []Value
		for _, v := range values {
			if ref, ok := v.(ElementValue); ok && meta.Conforms(ref.Element, target) {
				kept = append(kept, v)
			}
		}
		return FromValues(kept...), nil

	case "meta", "@@":
		v, err := Single(seq)
		if err != nil {
			return nil, err
		}
		ref, ok := v.(ElementValue)
		if !ok {
			return nil, errors.NewEvaluationError("operator %q needs a model element, got %s", node.Text, v)
		}
		return SingleValue(Bool{Val: kindConforms(ref.Element.Kind, target.Name)}), nil

	default: // istype, hastype, @
		v, err := Single(seq)
		if err != nil {
			return nil, err
		}
		ref, ok := v.(ElementValue)
		if !ok {
			return nil, errors.NewEvaluationError("operator %q needs a model element, got %s", node.Text, v)
		}
		if node.Text == "istype" {
			// exact classification, no specialization walk
			return SingleValue(Bool{Val: ref.Element.ID == target.ID || directlyTyped(ref.Element, target)}), nil
		}
		return SingleValue(Bool{Val: meta.Conforms(ref.Element, target)}), nil
	}
}

// directlyTyped reports whether e has target among its direct supertypes
func directlyTyped(e *meta.Element, target *meta.Element) bool {
	for _, super := range meta.DirectSupertypes(e) {
		if super.ID == target.ID {
			return true
		}
	}
	return false
}

// kindConforms matches an element's metamodel kind against a metaclass
// name, honoring the abstract metaclass groupings.
func kindConforms(kind meta.ElementKind, metaclass string) bool {
	switch metaclass {
	case "Element":
		return true
	case "Namespace":
		return kind.IsNamespace()
	case "Type":
		return kind.IsType()
	case "Classifier":
		return kind.IsType() && !kind.IsFeature()
	case "Feature":
		return kind.IsFeature()
	case "Relationship":
		return kind.IsRelationship()
	}
	return string(kind) == strings.ToLower(metaclass)
}

// evalIndex handles #(): flat 1-based sequence indexing, and
// multi-dimensional indexing into library Array values via row-major
// arithmetic over the dimensions feature.
func evalIndex(f *frame, node *syntax.Node) (Sequence, error) {
	receiver, err := f.eval(node.Children[0])
	if err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(node.Children)-1)
	for _, idxNode := range node.Children[1:] {
		v, err := f.singleOperand(idxNode)
		if err != nil {
			return nil, err
		}
		n, ok := v.(Number)
		if !ok {
			return nil, errors.NewEvaluationError("index must be an integer, got %s", v)
		}
		i, ok := n.Int()
		if !ok {
			return nil, errors.NewEvaluationError("index must be an integer, got %s", v)
		}
		indices = append(indices, int(i))
	}
	if len(indices) == 0 {
		return nil, errors.NewEvaluationError("indexing needs at least one index")
	}

	// an Array instance receiver enables multi-dimensional indexing
	if array := f.asArray(receiver); array != nil {
		return f.indexArray(array, indices)
	}

	if len(indices) != 1 {
		return nil, errors.NewEvaluationError(
			"multi-dimensional indexing needs an Array value, got a plain sequence")
	}
	v, err := nth(receiver, indices[0])
	if err != nil {
		return nil, err
	}
	return SingleValue(v), nil
}

// asArray returns the receiver's element when it is a single reference to
// a library Array instance, nil otherwise.
func (f *frame) asArray(receiver Sequence) *meta.Element {
	it := receiver.Iterate()
	v, ok, err := it()
	if err != nil || !ok {
		return nil
	}
	if _, more, _ := it(); more {
		return nil
	}
	ref, ok := v.(ElementValue)
	if !ok {
		return nil
	}
	for _, super := range meta.AllSupertypes(ref.Element) {
		if super.Name == "Array" && super.QualifiedName() == "Collections::Array" {
			return ref.Element
		}
	}
	return nil
}

// indexArray resolves an index tuple against the array's dimensions
// feature and picks the row-major flattened element.
func (f *frame) indexArray(array *meta.Element, indices []int) (Sequence, error) {
	dims, err := f.arrayIntFeature(array, "dimensions")
	if err != nil {
		return nil, err
	}
	if len(indices) != len(dims) {
		return nil, errors.NewEvaluationError(
			"array has %d dimensions, got %d indices", len(dims), len(indices))
	}

	offset := 0
	for axis, idx := range indices {
		if idx < 1 || idx > dims[axis] {
			return nil, withElement(errors.NewEvaluationError(
				"index %d out of bounds for dimension %d (size %d)", idx, axis+1, dims[axis]),
				array)
		}
		offset = offset*dims[axis] + (idx - 1)
	}

	elements := memberFeature(array, "elements")
	if elements == nil {
		return nil, errors.NewEvaluationError(
			"array %q has no elements feature", array.QualifiedName())
	}
	seq, err := f.featureValue(elements)
	if err != nil {
		return nil, err
	}
	v, err := nth(seq, offset+1)
	if err != nil {
		return nil, err
	}
	return SingleValue(v), nil
}

// arrayIntFeature materializes an integer-valued feature of an array
func (f *frame) arrayIntFeature(array *meta.Element, name string) ([]int, error) {
	feature := memberFeature(array, name)
	if feature == nil {
		return nil, errors.NewEvaluationError("array %q has no %s feature", array.QualifiedName(), name)
	}
	seq, err := f.featureValue(feature)
	if err != nil {
		return nil, err
	}
	values, err := Materialize(seq)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, ok := v.(Number)
		if !ok {
			return nil, errors.NewEvaluationError("%s must be integers, got %s", name, v)
		}
		i, ok := n.Int()
		if !ok || i < 1 {
			return nil, errors.NewEvaluationError("%s must be positive integers, got %s", name, v)
		}
		out = append(out, int(i))
	}
	return out, nil
}
