package eval

import (
	"math/big"

	"github.com/kerml-go/kerml/errors"
)

// builtinFunc implements one library function
type builtinFunc func(f *frame, args []Sequence) (Sequence, error)

// builtins maps qualified library function names to implementations
var builtins = map[string]builtinFunc{
	"BaseFunctions::isEqual":    builtinEquality(Equals, false),
	"BaseFunctions::isNotEqual": builtinEquality(Equals, true),
	"BaseFunctions::isSame":     builtinEquality(Same, false),
	"BaseFunctions::isNotSame":  builtinEquality(Same, true),

	"ScalarFunctions::sum":     builtinSum,
	"ScalarFunctions::product": builtinProduct,
	"ScalarFunctions::abs":     builtinAbs,
	"ScalarFunctions::max":     builtinMax,
	"ScalarFunctions::min":     builtinMin,

	"SequenceFunctions::size":     builtinSize,
	"SequenceFunctions::isEmpty":  builtinIsEmpty,
	"SequenceFunctions::notEmpty": builtinNotEmpty,
	"SequenceFunctions::includes": builtinIncludes,
	"SequenceFunctions::head":     builtinHead,
	"SequenceFunctions::last":     builtinLast,

	"StringFunctions::Length":    builtinLength,
	"StringFunctions::Substring": builtinSubstring,
}

// bareBuiltins resolves unqualified callee names when scoping cannot,
// so expressions evaluate without library imports in context.
var bareBuiltins = map[string]string{
	"isEqual":    "BaseFunctions::isEqual",
	"isNotEqual": "BaseFunctions::isNotEqual",
	"isSame":     "BaseFunctions::isSame",
	"isNotSame":  "BaseFunctions::isNotSame",
	"sum":        "ScalarFunctions::sum",
	"product":    "ScalarFunctions::product",
	"abs":        "ScalarFunctions::abs",
	"max":        "ScalarFunctions::max",
	"min":        "ScalarFunctions::min",
	"size":       "SequenceFunctions::size",
	"isEmpty":    "SequenceFunctions::isEmpty",
	"notEmpty":   "SequenceFunctions::notEmpty",
	"includes":   "SequenceFunctions::includes",
	"head":       "SequenceFunctions::head",
	"last":       "SequenceFunctions::last",
	"Length":     "StringFunctions::Length",
	"Substring":  "StringFunctions::Substring",
}

func argCount(args []Sequence, want int, name string) error {
	if len(args) != want {
		return errors.NewEvaluationError("%s takes %d arguments, got %d", name, want, len(args))
	}
	return nil
}

func builtinEquality(compare func(a, b Value) bool, negate bool) builtinFunc {
	return func(f *frame, args []Sequence) (Sequence, error) {
		if err := argCount(args, 2, "equality"); err != nil {
			return nil, err
		}
		a, err := Single(args[0])
		if err != nil {
			return nil, err
		}
		b, err := Single(args[1])
		if err != nil {
			return nil, err
		}
		return SingleValue(Bool{Val: compare(a, b) != negate}), nil
	}
}

// foldNumbers folds a numeric sequence without materializing it
func foldNumbers(seq Sequence, verb string, acc *big.Rat, op func(acc, v *big.Rat)) (Sequence, error) {
	if err := requireBounded(seq, verb); err != nil {
		return nil, err
	}
	it := seq.Iterate()
	for {
		v, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			return SingleValue(NewNumber(acc)), nil
		}
		n, isNum := v.(Number)
		if !isNum {
			return nil, errors.NewEvaluationError("expected a number, got %s", v)
		}
		op(acc, n.Rat)
	}
}

func builtinSum(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "sum"); err != nil {
		return nil, err
	}
	return foldNumbers(args[0], "sum", new(big.Rat), func(acc, v *big.Rat) { acc.Add(acc, v) })
}

func builtinProduct(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "product"); err != nil {
		return nil, err
	}
	return foldNumbers(args[0], "take the product of", new(big.Rat).SetInt64(1), func(acc, v *big.Rat) { acc.Mul(acc, v) })
}

func builtinAbs(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "abs"); err != nil {
		return nil, err
	}
	v, err := Single(args[0])
	if err != nil {
		return nil, err
	}
	n, ok := v.(Number)
	if !ok {
		return nil, errors.NewEvaluationError("abs needs a number, got %s", v)
	}
	return SingleValue(NewNumber(new(big.Rat).Abs(n.Rat))), nil
}

func builtinExtremum(name string, keepLeft func(cmp int) bool) builtinFunc {
	return func(f *frame, args []Sequence) (Sequence, error) {
		if err := argCount(args, 2, name); err != nil {
			return nil, err
		}
		a, err := Single(args[0])
		if err != nil {
			return nil, err
		}
		b, err := Single(args[1])
		if err != nil {
			return nil, err
		}
		cmp, err := compareValues(a, b)
		if err != nil {
			return nil, err
		}
		if keepLeft(cmp) {
			return SingleValue(a), nil
		}
		return SingleValue(b), nil
	}
}

var (
	builtinMax = builtinExtremum("max", func(cmp int) bool { return cmp >= 0 })
	builtinMin = builtinExtremum("min", func(cmp int) bool { return cmp <= 0 })
)

// builtinSize counts without materializing; a lazy range answers from its
// bounds.
func builtinSize(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "size"); err != nil {
		return nil, err
	}
	n, err := Count(args[0])
	if err != nil {
		return nil, err
	}
	return SingleValue(NewInt(int64(n))), nil
}

func builtinIsEmpty(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "isEmpty"); err != nil {
		return nil, err
	}
	_, ok, err := args[0].Iterate()()
	if err != nil {
		return nil, err
	}
	return SingleValue(Bool{Val: !ok}), nil
}

func builtinNotEmpty(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "notEmpty"); err != nil {
		return nil, err
	}
	_, ok, err := args[0].Iterate()()
	if err != nil {
		return nil, err
	}
	return SingleValue(Bool{Val: ok}), nil
}

func builtinIncludes(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 2, "includes"); err != nil {
		return nil, err
	}
	needle, err := Single(args[1])
	if err != nil {
		return nil, err
	}
	it := args[0].Iterate()
	for {
		v, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			return SingleValue(Bool{Val: false}), nil
		}
		if Equals(v, needle) {
			return SingleValue(Bool{Val: true}), nil
		}
	}
}

func builtinHead(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "head"); err != nil {
		return nil, err
	}
	v, ok, err := args[0].Iterate()()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	return SingleValue(v), nil
}

func builtinLast(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "last"); err != nil {
		return nil, err
	}
	if err := requireBounded(args[0], "take the last element of"); err != nil {
		return nil, err
	}
	var last Value
	it := args[0].Iterate()
	for {
		v, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		last = v
	}
	if last == nil {
		return Empty(), nil
	}
	return SingleValue(last), nil
}

func builtinLength(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 1, "Length"); err != nil {
		return nil, err
	}
	v, err := Single(args[0])
	if err != nil {
		return nil, err
	}
	s, ok := v.(String)
	if !ok {
		return nil, errors.NewEvaluationError("Length needs a string, got %s", v)
	}
	return SingleValue(NewInt(int64(len([]rune(s.Val))))), nil
}

// builtinSubstring slices with 1-based, inclusive positions
func builtinSubstring(f *frame, args []Sequence) (Sequence, error) {
	if err := argCount(args, 3, "Substring"); err != nil {
		return nil, err
	}
	v, err := Single(args[0])
	if err != nil {
		return nil, err
	}
	s, ok := v.(String)
	if !ok {
		return nil, errors.NewEvaluationError("Substring needs a string, got %s", v)
	}
	lo, err := intArg(args[1], "Substring lower bound")
	if err != nil {
		return nil, err
	}
	hi, err := intArg(args[2], "Substring upper bound")
	if err != nil {
		return nil, err
	}
	runes := []rune(s.Val)
	if lo < 1 || hi > int64(len(runes)) || lo > hi+1 {
		return nil, errors.NewEvaluationError(
			"Substring bounds %d..%d out of bounds for string of length %d", lo, hi, len(runes))
	}
	return SingleValue(String{Val: string(runes[lo-1 : hi])}), nil
}

func intArg(seq Sequence, what string) (int64, error) {
	v, err := Single(seq)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Number)
	if !ok {
		return 0, errors.NewEvaluationError("%s must be an integer, got %s", what, v)
	}
	i, ok := n.Int()
	if !ok {
		return 0, errors.NewEvaluationError("%s must be an integer, got %s", what, v)
	}
	return i, nil
}
