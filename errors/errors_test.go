package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrapPreservesSentinel(t *testing.T) {
	wrapped := Wrap(ErrLinking, "could not resolve 'Base::Anything'")

	assert.Contains(t, wrapped.Error(), "could not resolve")
	assert.True(t, Is(wrapped, ErrLinking))
	assert.False(t, Is(wrapped, ErrEvaluation))
}

func TestIsLinkingError(t *testing.T) {
	assert.False(t, IsLinkingError(nil))
	assert.False(t, IsLinkingError(New("plain")))
	assert.True(t, IsLinkingError(NewLinkingError("unresolved reference %q", "A::B")))
}

func TestIsEvaluationError(t *testing.T) {
	err := NewEvaluationError("index %d out of bounds", 4)
	assert.True(t, IsEvaluationError(err))
	assert.Contains(t, err.Error(), "index 4 out of bounds")
}

func TestIsNotFoundError(t *testing.T) {
	err := Wrap(ErrNotFound, "library type Base::Anything")
	assert.True(t, IsNotFoundError(err))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrLinking, ErrEvaluation, ErrCycle, ErrCanceled, ErrSyntax}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "sentinel %v should not match %v", a, b)
		}
	}
}
