package meta

import (
	"strings"

	"github.com/kerml-go/kerml/syntax"
)

// Element is the universal metamodel entity. Every named or anonymous
// construct — namespace, type, feature, relationship, comment, expression —
// is an Element. Kind-specific behavior lives in capability structs wired
// together by the constructor (composition, not inheritance): a connector
// carries both type and feature capabilities plus an ends tracker.
type Element struct {
	ID         ElementID
	Kind       ElementKind
	Keyword    string // declaration keyword from source ("class", "part", ...)
	Name       string
	ShortName  string
	Visibility Visibility

	// Node is the concrete syntax node this element wraps, 1:1. Nil for
	// documents built programmatically (tests) and implied relationships.
	Node *syntax.Node

	// Document owning this element
	Document *Document

	owner *Element
	// owned children partitioned by syntactic role; insertion order within
	// a role is preserved independently of other roles
	owned map[Role][]*Element

	// Annotations are attached free-floating comments/docs with placement
	Annotations []Annotation

	// capabilities (nil when the kind does not carry them)
	typ   *TypeCap
	feat  *FeatureCap
	rel   *RelCap
	imp   *ImportCap
	alias *AliasCap

	qualifiedName Memo[string]
}

// Annotation is one attached text note with placement metadata
type Annotation struct {
	Kind  ElementKind // KindComment or KindDoc
	Text  string
	Range syntax.Range
	// Leading is true when the note preceded the element in source,
	// false when it trailed on the same line or was declared in the body
	Leading bool
}

// TypeCap carries type capabilities: abstractness, sufficiency, multiplicity
// bounds, and the memoized supertype closure.
type TypeCap struct {
	Abstract   bool
	Sufficient bool
	Variation  bool

	// MultiplicityNode is the declared bounds expression, nil when absent
	MultiplicityNode *syntax.Node

	allSupertypes Memo[[]*Element]
	cycleDetected Memo[bool]
}

// FeatureCap carries feature capabilities: direction, composite/end flags,
// and the declared value expression.
type FeatureCap struct {
	Direction string // "", "in", "out", "inout"
	Composite bool
	ReadOnly  bool
	End       bool

	// ValueNode is the declared value expression, nil when absent.
	// ValueIsDefault is true for ":=" (default) values.
	ValueNode      *syntax.Node
	ValueIsDefault bool
}

// RelCap carries relationship capabilities: directed source/target edge,
// subkind tag, and the implied marker for synthesized relationships.
type RelCap struct {
	RelKind   RelKind
	Source    *Ref
	Target    *Ref
	IsImplied bool
}

// ImportCap carries import capabilities. All is true for "Q::*" imports,
// Recursive for "Q::**".
type ImportCap struct {
	Target    *Ref
	All       bool
	Recursive bool
}

// AliasCap carries the alias target. Resolving through an alias yields the
// aliased element; the alias's own name stays separately resolvable.
type AliasCap struct {
	Target *Ref
}

// Owner returns the owning element, nil for a document root
func (e *Element) Owner() *Element { return e.owner }

// Owned returns the owned children for one role, in insertion order
func (e *Element) Owned(role Role) []*Element {
	if e.owned == nil {
		return nil
	}
	return e.owned[role]
}

// AllOwned returns owned children across all roles. Ordering is stable per
// role; roles are visited in a fixed order.
func (e *Element) AllOwned() []*Element {
	var out []*Element
	for _, role := range []Role{RoleHeritage, RoleImport, RoleMember, RoleValue, RoleMultiplicity, RoleAnnotation} {
		out = append(out, e.Owned(role)...)
	}
	return out
}

// AddOwned registers child under role, setting its back-reference. The
// ownership graph is a forest: a child has exactly one owner.
func (e *Element) AddOwned(role Role, child *Element) {
	if child == nil {
		return
	}
	if e.owned == nil {
		e.owned = make(map[Role][]*Element)
	}
	child.owner = e
	child.Document = e.Document
	e.owned[role] = append(e.owned[role], child)
}

// RemoveImplied drops implied relationship children, for rebuilds
func (e *Element) RemoveImplied(role Role) {
	if e.owned == nil {
		return
	}
	kept := e.owned[role][:0]
	for _, c := range e.owned[role] {
		if c.rel == nil || !c.rel.IsImplied {
			kept = append(kept, c)
		}
	}
	e.owned[role] = kept
}

// Type returns the type capability, nil for non-types
func (e *Element) Type() *TypeCap { return e.typ }

// Feature returns the feature capability, nil for non-features
func (e *Element) Feature() *FeatureCap { return e.feat }

// Relationship returns the relationship capability, nil for non-relationships
func (e *Element) Relationship() *RelCap { return e.rel }

// Import returns the import capability, nil for non-imports
func (e *Element) Import() *ImportCap { return e.imp }

// Alias returns the alias capability, nil for non-aliases
func (e *Element) Alias() *AliasCap { return e.alias }

// IsRoot reports whether the element is a document root namespace
func (e *Element) IsRoot() bool { return e.owner == nil }

// EffectiveName returns the declared name, falling back to the short name
func (e *Element) EffectiveName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ShortName
}

// QualifiedName returns the "::"-joined path of named ancestors down to this
// element. Anonymous elements contribute nothing to the path; an anonymous
// leaf yields "".
func (e *Element) QualifiedName() string {
	gen := uint64(0)
	if e.Document != nil {
		gen = e.Document.Generation
	}
	return e.qualifiedName.Get(gen, func() string {
		name := e.EffectiveName()
		if name == "" {
			return ""
		}
		var parts []string
		for cur := e; cur != nil; cur = cur.owner {
			if n := cur.EffectiveName(); n != "" {
				parts = append(parts, n)
			}
		}
		// reverse
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		return strings.Join(parts, "::")
	})
}

// Members returns the element's directly owned member elements (RoleMember),
// including aliases, in declaration order.
func (e *Element) Members() []*Element {
	return e.Owned(RoleMember)
}

// Heritage returns the owned relationship elements (RoleHeritage) in
// declaration order; implied relationships follow explicit ones.
func (e *Element) Heritage() []*Element {
	return e.Owned(RoleHeritage)
}

// Imports returns the owned import elements in declaration order
func (e *Element) Imports() []*Element {
	return e.Owned(RoleImport)
}

// Annotate attaches a comment/doc note to the element
func (e *Element) Annotate(a Annotation) {
	e.Annotations = append(e.Annotations, a)
}

// ResetDerived clears memoized derived state on this element. Called when
// the owning document is rebuilt; the next accessor recomputes.
func (e *Element) ResetDerived() {
	e.qualifiedName.Reset()
	if e.typ != nil {
		e.typ.allSupertypes.Reset()
		e.typ.cycleDetected.Reset()
	}
	if e.rel != nil && e.rel.Target != nil {
		e.rel.Target.Reset()
	}
	if e.imp != nil && e.imp.Target != nil {
		e.imp.Target.Reset()
	}
	if e.alias != nil && e.alias.Target != nil {
		e.alias.Target.Reset()
	}
}

// Ends returns the end features of an assoc or connector in declaration
// order. Non-end members are excluded.
func (e *Element) Ends() []*Element {
	var ends []*Element
	for _, m := range e.Members() {
		if m.feat != nil && m.feat.End {
			ends = append(ends, m)
		}
	}
	return ends
}

// Ancestors walks the ownership chain from the direct owner to the root
func (e *Element) Ancestors() []*Element {
	var out []*Element
	for cur := e.owner; cur != nil; cur = cur.owner {
		out = append(out, cur)
	}
	return out
}

// IsAncestorOf reports whether e owns other, transitively
func (e *Element) IsAncestorOf(other *Element) bool {
	for cur := other.owner; cur != nil; cur = cur.owner {
		if cur == e {
			return true
		}
	}
	return false
}
