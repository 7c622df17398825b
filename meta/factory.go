package meta

// Programmatic element construction, used by the implicit-generalization
// pass (implied relationships have no syntax node) and by tests that build
// models without source text.

// NewElement creates a detached element of the given kind, wiring the
// capability structs the kind calls for.
func NewElement(ids *IDAllocator, kind ElementKind, name string) *Element {
	e := &Element{ID: ids.Next(), Kind: kind, Name: name}
	if kind.IsType() {
		e.typ = &TypeCap{}
	}
	if kind.IsFeature() {
		e.feat = &FeatureCap{}
	}
	return e
}

// NewDocumentFor wraps a root element in a document. The root must be a
// namespace-kind element with no owner.
func NewDocumentFor(uri string, root *Element) *Document {
	doc := &Document{URI: uri, Generation: 1, Root: root}
	root.Document = doc
	propagateDocument(root, doc)
	return doc
}

func propagateDocument(e *Element, doc *Document) {
	e.Document = doc
	for _, child := range e.AllOwned() {
		propagateDocument(child, doc)
	}
}

// NewExplicitRelationship creates a textual relationship element from source
// to the named target and registers it under the source's heritage role.
func NewExplicitRelationship(ids *IDAllocator, kind RelKind, source *Element, targetName string) *Element {
	rel := &Element{ID: ids.Next(), Kind: elementKindForRel[kind]}
	rel.rel = &RelCap{
		RelKind: kind,
		Source:  ResolvedRef(source),
		Target:  NewRef(targetName, source),
	}
	source.AddOwned(RoleHeritage, rel)
	return rel
}

// NewImpliedRelationship creates a synthesized relationship element from
// source to an already-resolved library target and appends it after the
// source's explicit relationships. IsImplied is true on the result.
func NewImpliedRelationship(ids *IDAllocator, kind RelKind, source, target *Element) *Element {
	rel := &Element{ID: ids.Next(), Kind: elementKindForRel[kind]}
	rel.rel = &RelCap{
		RelKind:   kind,
		Source:    ResolvedRef(source),
		Target:    ResolvedRef(target),
		IsImplied: true,
	}
	source.AddOwned(RoleHeritage, rel)
	return rel
}
