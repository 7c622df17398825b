package scope

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/meta"
)

// ErrAmbiguous marks a reference matching two equally visible candidates.
// It wraps ErrLinking, so errors.IsLinkingError holds for it too.
var ErrAmbiguous = errors.Wrap(errors.ErrLinking, "ambiguous reference")

// Resolver resolves possibly qualified name references against a resolution
// context element. It implements meta.Resolver.
//
// Resolution order for the first segment:
//  1. direct children of the context (all visibilities; we are inside)
//  2. members inherited via specialization, with redefinition hiding
//  3. namespaces reachable via imports, walking owners outward
//  4. the workspace-global root index, as a fallback only
//
// Subsequent segments resolve as qualified access within the previous
// result, with visibility filtering relative to the original context.
// Aliases are transparent: resolving through an alias returns the aliased
// element.
type Resolver struct {
	index      *GlobalIndex
	standalone bool
	log        *zap.SugaredLogger
}

// NewResolver creates a resolver backed by the workspace index. In
// standalone mode (single-file analysis) the global fallback is skipped.
func NewResolver(index *GlobalIndex, standalone bool) *Resolver {
	return &Resolver{
		index:      index,
		standalone: standalone,
		log:        logger.ComponentLogger("scope.resolver"),
	}
}

// ResolveName resolves a "::"-qualified name from the given context
func (r *Resolver) ResolveName(name string, context *meta.Element) (*meta.Element, error) {
	segments := strings.Split(name, "::")

	current, err := r.resolveFirst(segments[0], context)
	if err != nil {
		return nil, err
	}

	for _, segment := range segments[1:] {
		current, err = r.resolveQualified(current, segment, context)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %q", name)
		}
	}
	return current, nil
}

// resolveFirst finds the first segment by walking the owner chain outward,
// then falling back to the global index.
func (r *Resolver) resolveFirst(name string, context *meta.Element) (*meta.Element, error) {
	for scope := context; scope != nil; scope = scope.Owner() {
		// own name of the enclosing scope is in scope
		if scope.Name == name || (scope.ShortName != "" && scope.ShortName == name) {
			return scope, nil
		}

		if found, err := r.pickCandidate(localCandidates(scope, name), name); found != nil || err != nil {
			return found, err
		}
		if found, err := r.pickCandidate(inheritedCandidates(scope, name), name); found != nil || err != nil {
			return found, err
		}
		visited := make(map[meta.ElementID]bool)
		if found, err := r.pickCandidate(r.importedCandidates(scope, name, false, visited), name); found != nil || err != nil {
			return found, err
		}
	}

	if !r.standalone && r.index != nil {
		if found, err := r.pickCandidate(r.index.Lookup(name), name); found != nil || err != nil {
			return found, err
		}
	}

	return nil, errors.NewLinkingError("unresolved reference %q", name)
}

// resolveQualified finds one segment inside ns, filtering by visibility
// relative to the original resolution context.
func (r *Resolver) resolveQualified(ns *meta.Element, name string, context *meta.Element) (*meta.Element, error) {
	if !ns.Kind.IsNamespace() {
		return nil, errors.NewLinkingError("%q is not a namespace", ns.EffectiveName())
	}

	var candidates []*meta.Element
	for _, m := range localCandidates(ns, name) {
		if visibleFrom(m, ns, context) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		for _, m := range inheritedCandidates(ns, name) {
			if visibleFrom(m, ns, context) {
				candidates = append(candidates, m)
			}
		}
	}
	if len(candidates) == 0 {
		visited := make(map[meta.ElementID]bool)
		publicOnly := !isNestedIn(context, ns)
		candidates = r.importedCandidates(ns, name, publicOnly, visited)
	}

	found, err := r.pickCandidate(candidates, name)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.NewLinkingError("%q has no visible member %q", ns.QualifiedName(), name)
	}
	return found, nil
}

// pickCandidate de-duplicates candidates (seeing through aliases first) and
// enforces unique resolution. Ambiguity is an error, not a silent pick.
func (r *Resolver) pickCandidate(candidates []*meta.Element, name string) (*meta.Element, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	unique := make([]*meta.Element, 0, len(candidates))
	seen := make(map[meta.ElementID]bool)
	for _, c := range candidates {
		target, err := r.seeThroughAlias(c, nil)
		if err != nil {
			return nil, err
		}
		if target == nil || seen[target.ID] {
			continue
		}
		seen[target.ID] = true
		unique = append(unique, target)
	}

	switch len(unique) {
	case 0:
		return nil, nil
	case 1:
		return unique[0], nil
	default:
		names := make([]string, len(unique))
		for i, c := range unique {
			names[i] = c.QualifiedName()
		}
		return nil, errors.Wrapf(ErrAmbiguous, "%q matches %s", name, strings.Join(names, " and "))
	}
}

// seeThroughAlias resolves alias elements to their targets, guarding
// against alias cycles.
func (r *Resolver) seeThroughAlias(e *meta.Element, visited map[meta.ElementID]bool) (*meta.Element, error) {
	if e == nil || e.Alias() == nil {
		return e, nil
	}
	if visited == nil {
		visited = make(map[meta.ElementID]bool)
	}
	if visited[e.ID] {
		return nil, errors.Wrapf(errors.ErrCycle, "alias cycle through %q", e.EffectiveName())
	}
	visited[e.ID] = true

	cap := e.Alias()
	if cap.Target == nil {
		return nil, nil
	}
	target, err := cap.Target.Resolve(r)
	if err != nil || target == nil {
		return nil, err
	}
	return r.seeThroughAlias(target, visited)
}

// visibleFrom reports whether member m of namespace ns is visible from the
// given context under qualified access:
//   - public members always
//   - private members only from strictly nested children of ns
//   - protected members from nested children or conforming specializations
func visibleFrom(m *meta.Element, ns *meta.Element, context *meta.Element) bool {
	switch m.Visibility {
	case meta.VisibilityPublic:
		return true
	case meta.VisibilityPrivate:
		return isNestedIn(context, ns)
	case meta.VisibilityProtected:
		if isNestedIn(context, ns) {
			return true
		}
		for scope := context; scope != nil; scope = scope.Owner() {
			if scope.Type() != nil && meta.Conforms(scope, ns) {
				return true
			}
		}
		return false
	}
	return false
}

// isNestedIn reports whether context is ns itself or strictly nested in it
func isNestedIn(context, ns *meta.Element) bool {
	for cur := context; cur != nil; cur = cur.Owner() {
		if cur == ns {
			return true
		}
	}
	return false
}
