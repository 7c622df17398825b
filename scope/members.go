package scope

import (
	"github.com/kerml-go/kerml/meta"
)

// Member enumeration: local, inherited (with redefinition hiding), and
// imported members of a namespace.

// localCandidates returns direct members of ns matching name, by declared
// name or short name. Alias elements match by their own name; the caller
// decides whether to see through them.
func localCandidates(ns *meta.Element, name string) []*meta.Element {
	var out []*meta.Element
	for _, m := range ns.Members() {
		if m.Name == name || (m.ShortName != "" && m.ShortName == name) {
			out = append(out, m)
		}
	}
	return out
}

// inheritedCandidates returns members named name inherited by a type through
// its specialization closure. A member redefined by a more-derived feature
// is hidden from the inherited set, and a supertype member whose name is
// shadowed by a direct member of ns does not surface.
func inheritedCandidates(ns *meta.Element, name string) []*meta.Element {
	if ns.Type() == nil {
		return nil
	}

	redefined := redefinedTargets(ns)
	shadowed := make(map[string]bool)
	for _, m := range ns.Members() {
		if n := m.EffectiveName(); n != "" {
			shadowed[n] = true
		}
	}

	var out []*meta.Element
	seen := make(map[meta.ElementID]bool)
	// closure order is most-derived first (BFS from ns), so more-derived
	// redefinitions hide before less-derived members are reached
	for _, super := range meta.AllSupertypes(ns) {
		for _, m := range super.Members() {
			if m.Visibility == meta.VisibilityPrivate {
				continue
			}
			memberName := m.EffectiveName()
			if memberName == "" || shadowed[memberName] {
				continue
			}
			if redefined[m.ID] || seen[m.ID] {
				continue
			}
			if m.Name == name || (m.ShortName != "" && m.ShortName == name) {
				seen[m.ID] = true
				out = append(out, m)
			}
		}
		// members redefined by this supertype are hidden from less-derived
		// supertypes processed after it
		for id := range redefinedTargets(super) {
			redefined[id] = true
		}
	}
	return out
}

// redefinedTargets collects the identities of features redefined by direct
// members of ns
func redefinedTargets(ns *meta.Element) map[meta.ElementID]bool {
	out := make(map[meta.ElementID]bool)
	for _, m := range ns.Members() {
		for _, rel := range meta.Specializations(m, meta.RelRedefinition) {
			if target := rel.Relationship().Target.Target(); target != nil {
				out[target.ID] = true
			}
		}
	}
	return out
}

// importedCandidates returns members named name reachable through the
// imports of ns. Wildcard imports expose the target namespace's public
// members; recursive imports descend through public members transitively.
// Visibility is respected transitively: only public imports re-export.
//
// publicOnly restricts to public imports; it is set for qualified access
// from outside the namespace, where private imports must not leak.
func (r *Resolver) importedCandidates(ns *meta.Element, name string, publicOnly bool, visited map[meta.ElementID]bool) []*meta.Element {
	var out []*meta.Element
	for _, imp := range ns.Imports() {
		cap := imp.Import()
		if cap == nil || cap.Target == nil {
			continue
		}
		if publicOnly && imp.Visibility != meta.VisibilityPublic {
			continue
		}
		target, err := cap.Target.Resolve(r)
		if err != nil || target == nil {
			continue
		}

		if !cap.All {
			// specific import: brings the imported element's own name
			if target.Name == name || (target.ShortName != "" && target.ShortName == name) {
				out = append(out, target)
			}
			continue
		}

		out = append(out, r.wildcardLookup(target, name, cap.Recursive, visited)...)
	}
	return out
}

// wildcardLookup finds name among the public members of ns, descending
// recursively when recursive is true. A visited set keeps import cycles
// from looping.
func (r *Resolver) wildcardLookup(ns *meta.Element, name string, recursive bool, visited map[meta.ElementID]bool) []*meta.Element {
	if visited[ns.ID] {
		return nil
	}
	visited[ns.ID] = true

	var out []*meta.Element
	for _, m := range ns.Members() {
		if m.Visibility != meta.VisibilityPublic {
			continue
		}
		if m.Name == name || (m.ShortName != "" && m.ShortName == name) {
			out = append(out, m)
		}
		if recursive && m.Kind.IsNamespace() {
			out = append(out, r.wildcardLookup(m, name, true, visited)...)
		}
	}

	// public imports re-export transitively
	for _, imp := range ns.Imports() {
		cap := imp.Import()
		if cap == nil || imp.Visibility != meta.VisibilityPublic || cap.Target == nil {
			continue
		}
		target, err := cap.Target.Resolve(r)
		if err != nil || target == nil {
			continue
		}
		if !cap.All {
			if target.Name == name || (target.ShortName != "" && target.ShortName == name) {
				out = append(out, target)
			}
			continue
		}
		out = append(out, r.wildcardLookup(target, name, cap.Recursive || recursive, visited)...)
	}
	return out
}
