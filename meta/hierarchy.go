package meta

// Specialization traversal. These accessors assume the linking pass has run:
// unresolved heritage targets behave as absent, so a type with a broken
// supertype reference simply has one fewer specialization.

// Specializations returns the type's direct specialization relationship
// elements, optionally filtered by relationship subkind ("" for all
// generalization subkinds). Explicit relationships precede implied ones.
func Specializations(e *Element, filter RelKind) []*Element {
	var out []*Element
	for _, rel := range e.Heritage() {
		cap := rel.Relationship()
		if cap == nil {
			continue
		}
		if filter == "" {
			if !cap.RelKind.IsGeneralization() {
				continue
			}
		} else if cap.RelKind != filter {
			continue
		}
		out = append(out, rel)
	}
	return out
}

// DirectSupertypes returns the resolved targets of the direct
// generalization relationships, de-duplicated by element identity.
func DirectSupertypes(e *Element) []*Element {
	var out []*Element
	seen := make(map[ElementID]bool)
	for _, rel := range Specializations(e, "") {
		target := rel.Relationship().Target.Target()
		if target == nil || seen[target.ID] {
			continue
		}
		seen[target.ID] = true
		out = append(out, target)
	}
	return out
}

// AllSupertypes returns the transitive supertype closure of e, excluding e
// itself, de-duplicated by element identity. Traversal tracks a visited set
// so cyclic specialization graphs terminate; a detected cycle is remembered
// and reported by HasSpecializationCycle as a validation condition, not a
// crash.
//
// The closure is memoized only once every heritage reference reached by the
// walk has been resolved. During linking the walk runs against partially
// resolved heritage, and caching that partial view would hide inherited
// members for the rest of the generation.
func AllSupertypes(e *Element) []*Element {
	if e.typ == nil {
		return nil
	}
	gen := generationOf(e)
	if e.typ.allSupertypes.Valid(gen) {
		return e.typ.allSupertypes.Get(gen, func() []*Element { return nil })
	}
	closure, cyclic, complete := supertypeClosure(e)
	if complete {
		e.typ.allSupertypes.Get(gen, func() []*Element { return closure })
		e.typ.cycleDetected.Get(gen, func() bool { return cyclic })
	}
	return closure
}

// HasSpecializationCycle reports whether the supertype walk from e revisited
// an element. Computing the closure populates the answer.
func HasSpecializationCycle(e *Element) bool {
	if e.typ == nil {
		return false
	}
	gen := generationOf(e)
	AllSupertypes(e) // populates the memo when the heritage is fully resolved
	if e.typ.cycleDetected.Valid(gen) {
		return e.typ.cycleDetected.Get(gen, func() bool { return false })
	}
	_, cyclic, _ := supertypeClosure(e)
	return cyclic
}

// supertypeClosure walks the generalization graph breadth-first. complete is
// false when the walk met a heritage reference that has not been resolved
// yet, in which case the closure is a best-effort partial view.
func supertypeClosure(e *Element) (closure []*Element, cyclic, complete bool) {
	complete = true
	visited := map[ElementID]bool{e.ID: true}

	var queue []*Element
	expand := func(cur *Element) {
		for _, rel := range Specializations(cur, "") {
			ref := rel.Relationship().Target
			if ref == nil {
				continue
			}
			if !ref.Resolved() {
				complete = false
				continue
			}
			if t := ref.Target(); t != nil {
				queue = append(queue, t)
			}
		}
	}

	expand(e)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.ID] {
			cyclic = cyclic || cur.ID == e.ID
			continue
		}
		visited[cur.ID] = true
		closure = append(closure, cur)
		expand(cur)
	}
	return closure, cyclic, complete
}

// Conforms reports whether sub conforms to super: they are the same element
// or super appears in sub's specialization closure. Used by multiplicity and
// type-conformance validation.
func Conforms(sub, super *Element) bool {
	if sub == nil || super == nil {
		return false
	}
	if sub.ID == super.ID {
		return true
	}
	for _, t := range AllSupertypes(sub) {
		if t.ID == super.ID {
			return true
		}
	}
	return false
}

// HasExplicitSpecialization reports whether e declares an explicit (textual)
// relationship of the given subkind. The implicit-generalization pass adds a
// default supertype only when this is false.
func HasExplicitSpecialization(e *Element, kind RelKind) bool {
	for _, rel := range Specializations(e, kind) {
		if !rel.Relationship().IsImplied {
			return true
		}
	}
	return false
}

// ReachesThroughExplicit reports whether target is reachable from e through
// explicit relationships only. Drives the (configurable) suppression of an
// implicit supertype that the explicit chain already reaches indirectly.
func ReachesThroughExplicit(e *Element, target *Element) bool {
	if target == nil {
		return false
	}
	visited := make(map[ElementID]bool)
	var walk func(cur *Element) bool
	walk = func(cur *Element) bool {
		if visited[cur.ID] {
			return false
		}
		visited[cur.ID] = true
		for _, rel := range Specializations(cur, "") {
			cap := rel.Relationship()
			if cap.IsImplied {
				continue
			}
			t := cap.Target.Target()
			if t == nil {
				continue
			}
			if t.ID == target.ID || walk(t) {
				return true
			}
		}
		return false
	}
	return walk(e)
}

// ResolveHeritage resolves every heritage and import target of the element
// through resolver, memoizing outcomes on the refs. Errors surface through
// each ref; traversal treats failed refs as absent.
func ResolveHeritage(e *Element, resolver Resolver) {
	for _, rel := range e.Heritage() {
		if cap := rel.Relationship(); cap != nil && cap.Target != nil {
			_, _ = cap.Target.Resolve(resolver)
		}
	}
}

func generationOf(e *Element) uint64 {
	if e.Document != nil {
		return e.Document.Generation
	}
	return 0
}
