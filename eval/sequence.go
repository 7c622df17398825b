package eval

import (
	"math/big"

	"github.com/kerml-go/kerml/errors"
)

// Sequence is a lazily generated, ordered sequence of values. Iterate
// returns a fresh iterator each call, so sequences are restartable.
type Sequence interface {
	Iterate() Iterator
}

// Iterator yields the next value until ok is false or err is set
type Iterator func() (v Value, ok bool, err error)

// counted is implemented by sequences that know their length without
// generating elements
type counted interface {
	Count() (int, error)
}

// unbounded is implemented by sequences with no finite length
type unbounded interface {
	Unbounded() bool
}

// requireBounded rejects sequences with no finite length before a consumer
// starts draining them
func requireBounded(seq Sequence, verb string) error {
	if u, ok := seq.(unbounded); ok && u.Unbounded() {
		return errors.NewEvaluationError("cannot %s an unbounded sequence", verb)
	}
	return nil
}

type listSequence struct {
	values []Value
}

func (s listSequence) Iterate() Iterator {
	i := 0
	return func() (Value, bool, error) {
		if i >= len(s.values) {
			return nil, false, nil
		}
		v := s.values[i]
		i++
		return v, true, nil
	}
}

func (s listSequence) Count() (int, error) { return len(s.values), nil }

// Empty returns the empty sequence (the null value)
func Empty() Sequence { return listSequence{} }

// FromValues returns an eager sequence over the given values
func FromValues(values ...Value) Sequence { return listSequence{values: values} }

// SingleValue returns a one-element sequence
func SingleValue(v Value) Sequence { return listSequence{values: []Value{v}} }

// rangeSequence generates lo..hi lazily. A nil hi is unbounded.
type rangeSequence struct {
	lo, hi *big.Int
}

func (s rangeSequence) Iterate() Iterator {
	cur := new(big.Int).Set(s.lo)
	return func() (Value, bool, error) {
		if s.hi != nil && cur.Cmp(s.hi) > 0 {
			return nil, false, nil
		}
		v := Number{Rat: new(big.Rat).SetInt(new(big.Int).Set(cur))}
		cur.Add(cur, big.NewInt(1))
		return v, true, nil
	}
}

func (s rangeSequence) Count() (int, error) {
	if s.hi == nil || s.hi.Cmp(s.lo) < 0 {
		return 0, nil
	}
	n := new(big.Int).Sub(s.hi, s.lo)
	n.Add(n, big.NewInt(1))
	if !n.IsInt64() || int64(int(n.Int64())) != n.Int64() {
		return 0, errors.NewEvaluationError("sequence of %s elements is too long to count", n)
	}
	return int(n.Int64()), nil
}

func (s rangeSequence) Unbounded() bool { return s.hi == nil }

// concatSequence chains sequences lazily
type concatSequence struct {
	parts []Sequence
}

func (s concatSequence) Iterate() Iterator {
	part := 0
	var it Iterator
	return func() (Value, bool, error) {
		for {
			if it == nil {
				if part >= len(s.parts) {
					return nil, false, nil
				}
				it = s.parts[part].Iterate()
				part++
			}
			v, ok, err := it()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return v, true, nil
			}
			it = nil
		}
	}
}

// Concat chains sequences without materializing them
func Concat(parts ...Sequence) Sequence {
	return concatSequence{parts: parts}
}

// Materialize drains a sequence into a slice
func Materialize(seq Sequence) ([]Value, error) {
	if err := requireBounded(seq, "materialize"); err != nil {
		return nil, err
	}
	var out []Value
	it := seq.Iterate()
	for {
		v, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Count returns the sequence length. Sequences that know their size answer
// without generating elements; others are drained and discarded.
func Count(seq Sequence) (int, error) {
	if c, ok := seq.(counted); ok {
		if u, isU := seq.(unbounded); !isU || !u.Unbounded() {
			return c.Count()
		}
	}
	if err := requireBounded(seq, "count"); err != nil {
		return 0, err
	}
	n := 0
	it := seq.Iterate()
	for {
		_, ok, err := it()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// Single returns the sole value of a one-element sequence
func Single(seq Sequence) (Value, error) {
	it := seq.Iterate()
	v, ok, err := it()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewEvaluationError("expected a value, got the empty sequence")
	}
	if _, more, err := it(); err != nil {
		return nil, err
	} else if more {
		return nil, errors.NewEvaluationError("expected a single value, got a longer sequence")
	}
	return v, nil
}

// nth returns the 1-based n-th value of a sequence
func nth(seq Sequence, n int) (Value, error) {
	if n < 1 {
		return nil, errors.NewEvaluationError("index %d out of bounds: indexing is 1-based", n)
	}
	it := seq.Iterate()
	for i := 1; ; i++ {
		v, ok, err := it()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewEvaluationError("index %d out of bounds for sequence of size %d", n, i-1)
		}
		if i == n {
			return v, nil
		}
	}
}
