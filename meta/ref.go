package meta

import (
	"github.com/kerml-go/kerml/errors"
)

// Resolver resolves a possibly qualified name against a context element.
// The scope package provides the production implementation; tests may supply
// table-backed fakes.
type Resolver interface {
	ResolveName(name string, context *Element) (*Element, error)
}

// Ref is an explicit two-state reference: an unresolved qualified name plus
// its resolution context, or a resolved element handle. Resolution happens
// through an explicit Resolve step so that timing and failure are visible to
// callers, never as a property-getter side effect.
type Ref struct {
	name    string
	context *Element

	resolved  *Element
	err       error
	done      bool
	resolving bool
}

// NewRef creates an unresolved reference to name, resolved relative to
// context when Resolve is called.
func NewRef(name string, context *Element) *Ref {
	return &Ref{name: name, context: context}
}

// ResolvedRef creates a reference that is already bound to target.
// Used for relationship sources, which are always the owning element.
func ResolvedRef(target *Element) *Ref {
	return &Ref{resolved: target, done: true}
}

// Name returns the referenced qualified name ("" for pre-bound refs)
func (r *Ref) Name() string { return r.name }

// Context returns the resolution context element
func (r *Ref) Context() *Element { return r.context }

// Resolve binds the reference using resolver, memoizing the outcome.
// Re-invocation returns the memoized result; Reset clears it.
func (r *Ref) Resolve(resolver Resolver) (*Element, error) {
	if r.done {
		return r.resolved, r.err
	}
	if r.resolving {
		// Resolution re-entered through the reference's own scope, which
		// happens when an import's target name is looked up past that very
		// import. The reference contributes nothing to its own resolution;
		// the outcome is not memoized so the outer call completes normally.
		return nil, errors.NewLinkingError("reference %q depends on its own resolution", r.name)
	}
	if resolver == nil {
		return nil, errors.AssertionFailedf("nil resolver for reference %q", r.name)
	}
	r.resolving = true
	target, err := resolver.ResolveName(r.name, r.context)
	r.resolving = false
	r.resolved = target
	r.err = err
	r.done = true
	return target, err
}

// Target returns the resolved element, or nil when unresolved or failed.
// Unresolved references behave as absent for downstream computations.
func (r *Ref) Target() *Element {
	if !r.done {
		return nil
	}
	return r.resolved
}

// Err returns the memoized resolution error, if any
func (r *Ref) Err() error {
	return r.err
}

// Resolved reports whether Resolve has completed (successfully or not)
func (r *Ref) Resolved() bool { return r.done }

// Reset returns the reference to the unresolved state, for rebuilds
func (r *Ref) Reset() {
	r.resolved = nil
	r.err = nil
	r.done = false
	r.resolving = false
}
