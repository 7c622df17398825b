// Package eval is the model-level expression interpreter: a tree walk over
// literal, operator, invocation and feature-chain nodes against an
// evaluation context element, producing lazy sequences of values.
package eval

import (
	"fmt"
	"math/big"

	"github.com/kerml-go/kerml/meta"
)

// Value is one element of an evaluation result sequence: a number, string,
// boolean, model-element reference, or the infinity marker.
type Value interface {
	isValue()
	String() string
}

// Number is an exact rational number. Integer arithmetic stays exact:
// 10 / 5 is the integer 2, not a float.
type Number struct {
	Rat *big.Rat
}

// NewInt builds an integer number value
func NewInt(i int64) Number {
	return Number{Rat: new(big.Rat).SetInt64(i)}
}

// NewNumber wraps a rational; the rational is not copied.
func NewNumber(r *big.Rat) Number {
	return Number{Rat: r}
}

// IsInt reports whether the number is integral
func (n Number) IsInt() bool {
	return n.Rat.IsInt()
}

// Int returns the integral value when it fits in an int64
func (n Number) Int() (int64, bool) {
	if !n.Rat.IsInt() || !n.Rat.Num().IsInt64() {
		return 0, false
	}
	return n.Rat.Num().Int64(), true
}

func (n Number) isValue() {}

func (n Number) String() string {
	if n.Rat.IsInt() {
		return n.Rat.Num().String()
	}
	return n.Rat.RatString()
}

// String is a string value
type String struct {
	Val string
}

func (s String) isValue()       {}
func (s String) String() string { return fmt.Sprintf("%q", s.Val) }

// Bool is a boolean value
type Bool struct {
	Val bool
}

func (b Bool) isValue() {}
func (b Bool) String() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// ElementValue references a resolved model element
type ElementValue struct {
	Element *meta.Element
}

func (e ElementValue) isValue() {}
func (e ElementValue) String() string {
	return "{" + e.Element.QualifiedName() + "}"
}

// Infinity is the distinguished unbounded-multiplicity marker
type Infinity struct{}

func (Infinity) isValue()       {}
func (Infinity) String() string { return "*" }

// Equals is plain value equality: numbers compare by value, elements by
// identity, no cross-type coercion.
func Equals(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.Rat.Cmp(bv.Rat) == 0
	case String:
		bv, ok := b.(String)
		return ok && av.Val == bv.Val
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Val == bv.Val
	case ElementValue:
		bv, ok := b.(ElementValue)
		return ok && av.Element.ID == bv.Element.ID
	case Infinity:
		_, ok := b.(Infinity)
		return ok
	}
	return false
}

// Same is strict ("same thing") equality: like Equals, but element
// references must be the identical element instance.
func Same(a, b Value) bool {
	if av, ok := a.(ElementValue); ok {
		bv, ok := b.(ElementValue)
		return ok && av.Element == bv.Element
	}
	return Equals(a, b)
}

// Serialize renders a value for test and debug output: numbers, strings and
// booleans as themselves, element references as qualified-name records, and
// infinity as a marker object.
func Serialize(v Value) any {
	switch val := v.(type) {
	case Number:
		if i, ok := val.Int(); ok {
			return i
		}
		f, _ := val.Rat.Float64()
		return f
	case String:
		return val.Val
	case Bool:
		return val.Val
	case ElementValue:
		return map[string]string{"qualifiedName": val.Element.QualifiedName()}
	case Infinity:
		return map[string]bool{"literalInfinity": true}
	}
	return nil
}
