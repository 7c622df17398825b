package eval

import (
	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/meta"
)

// elementTrace records which element was being evaluated when an error
// surfaced. Traces nest as the error propagates out of feature-value
// evaluation, forming the element stack shown in diagnostics.
type elementTrace struct {
	cause   error
	element *meta.Element
}

func (t *elementTrace) Error() string { return t.cause.Error() }
func (t *elementTrace) Unwrap() error { return t.cause }

// withElement attaches an element frame to an evaluation error
func withElement(err error, e *meta.Element) error {
	if err == nil || e == nil {
		return err
	}
	return &elementTrace{cause: err, element: e}
}

// ElementStack extracts the element stack from an evaluation error,
// innermost element first.
func ElementStack(err error) []*meta.Element {
	var stack []*meta.Element
	for err != nil {
		if t, ok := err.(*elementTrace); ok {
			stack = append(stack, t.element)
		}
		err = errors.UnwrapOnce(err)
	}
	return stack
}
