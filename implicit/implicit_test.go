package implicit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerml-go/kerml/meta"
	"github.com/kerml-go/kerml/syntax"
)

// mapLibrary is a LibraryProvider backed by a plain map, standing in for
// the loaded standard library.
type mapLibrary struct {
	elements map[string]*meta.Element
}

func (m *mapLibrary) LibraryType(qualifiedName string, _ *meta.Element) *meta.Element {
	return m.elements[qualifiedName]
}

// newTestLibrary builds a minimal library with the elements the selector
// table points at.
func newTestLibrary(ids *meta.IDAllocator) *mapLibrary {
	lib := &mapLibrary{elements: make(map[string]*meta.Element)}
	add := func(pkg, name string, kind meta.ElementKind) *meta.Element {
		e := meta.NewElement(ids, kind, name)
		lib.elements[pkg+"::"+name] = e
		return e
	}
	add("Base", "Anything", meta.KindClassifier)
	add("Base", "things", meta.KindFeature)
	add("Base", "DataValue", meta.KindDataType)
	add("Occurrences", "Occurrence", meta.KindClass)
	add("Objects", "Object", meta.KindStruct)
	add("Objects", "objects", meta.KindFeature)
	add("Links", "Link", meta.KindAssoc)
	add("Links", "BinaryLink", meta.KindAssoc)
	add("Links", "links", meta.KindConnector)
	add("Links", "binaryLinks", meta.KindConnector)
	add("Performances", "Performance", meta.KindBehavior)
	lib.elements["Performances::Performance::subperformances"] =
		meta.NewElement(ids, meta.KindStep, "subperformances")
	return lib
}

// buildDoc parses and constructs a single document, without linking. The
// selector tests only need owner/end structure, not resolved references.
func buildDoc(t *testing.T, ids *meta.IDAllocator, source string) *meta.Document {
	t.Helper()
	root, diags := syntax.Parse(source)
	for _, d := range diags {
		require.NotEqual(t, syntax.SeverityError, d.Severity, "parse: %s", d.Message)
	}
	ctor := meta.NewConstructor(ids)
	doc := ctor.BuildDocument("mem://test.kerml", root, nil)
	return doc
}

func impliedTargets(e *meta.Element, kind meta.RelKind) []*meta.Element {
	var out []*meta.Element
	for _, rel := range meta.Specializations(e, kind) {
		cap := rel.Relationship()
		if cap.IsImplied {
			out = append(out, cap.Target.Target())
		}
	}
	return out
}

func findNamed(doc *meta.Document, name string) *meta.Element {
	var found *meta.Element
	doc.Walk(func(e *meta.Element) {
		if found == nil && e.Name == name {
			found = e
		}
	})
	return found
}

func TestKindSelectors(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P {
		classifier A;
		datatype D;
		class C;
		struct S;
		behavior B;
		feature f;
	}`)
	NewEngine(ids, lib, false).Apply(doc)

	cases := []struct {
		element string
		kind    meta.RelKind
		target  string
	}{
		{"A", meta.RelSpecialization, "Base::Anything"},
		{"D", meta.RelSpecialization, "Base::DataValue"},
		{"C", meta.RelSpecialization, "Occurrences::Occurrence"},
		{"S", meta.RelSpecialization, "Objects::Object"},
		{"B", meta.RelSpecialization, "Performances::Performance"},
		{"f", meta.RelSubsetting, "Base::things"},
	}
	for _, tc := range cases {
		e := findNamed(doc, tc.element)
		require.NotNil(t, e, tc.element)
		targets := impliedTargets(e, tc.kind)
		require.Len(t, targets, 1, "%s should get exactly one implied supertype", tc.element)
		assert.Same(t, lib.elements[tc.target], targets[0], tc.element)
	}
}

func TestAssocArity(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P {
		assoc Owns {
			end feature owner;
			end feature owned;
		}
		assoc Ternary {
			end feature a;
			end feature b;
			end feature c;
		}
	}`)
	NewEngine(ids, lib, false).Apply(doc)

	binary := impliedTargets(findNamed(doc, "Owns"), meta.RelSpecialization)
	require.Len(t, binary, 1)
	assert.Same(t, lib.elements["Links::BinaryLink"], binary[0])

	nary := impliedTargets(findNamed(doc, "Ternary"), meta.RelSpecialization)
	require.Len(t, nary, 1)
	assert.Same(t, lib.elements["Links::Link"], nary[0])
}

func TestEndOfBinarySubsetsBinaryLinks(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P {
		assoc Owns {
			end feature owner;
			end feature owned;
		}
	}`)
	NewEngine(ids, lib, false).Apply(doc)

	end := findNamed(doc, "owner")
	require.NotNil(t, end)
	targets := impliedTargets(end, meta.RelSubsetting)
	// kind selector (things) first, then the end-of-binary selector
	require.Len(t, targets, 2)
	assert.Same(t, lib.elements["Base::things"], targets[0])
	assert.Same(t, lib.elements["Links::binaryLinks"], targets[1])
}

func TestCompositeContainmentSelectors(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P {
		struct Car {
			composite feature wheel;
		}
		behavior Drive {
			composite step shift;
		}
	}`)
	NewEngine(ids, lib, false).Apply(doc)

	wheel := impliedTargets(findNamed(doc, "wheel"), meta.RelSubsetting)
	require.Len(t, wheel, 2)
	assert.Same(t, lib.elements["Base::things"], wheel[0])
	assert.Same(t, lib.elements["Objects::objects"], wheel[1])

	shift := impliedTargets(findNamed(doc, "shift"), meta.RelSubsetting)
	require.Len(t, shift, 2)
	assert.Same(t, lib.elements["Performances::Performance::subperformances"], shift[1])
}

func TestExplicitSuppressesImplicit(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P {
		classifier Base;
		classifier Derived specializes Base;
	}`)
	// resolve the explicit heritage against doc-local names
	byName := map[string]*meta.Element{}
	doc.Walk(func(e *meta.Element) { byName[e.Name] = e })
	doc.Walk(func(e *meta.Element) {
		meta.ResolveHeritage(e, resolverFunc(func(name string, _ *meta.Element) (*meta.Element, error) {
			if found := byName[name]; found != nil {
				return found, nil
			}
			return nil, assert.AnError
		}))
	})
	NewEngine(ids, lib, false).Apply(doc)

	derived := findNamed(doc, "Derived")
	assert.Empty(t, impliedTargets(derived, meta.RelSpecialization),
		"explicit specialization suppresses the implicit one")

	base := findNamed(doc, "Base")
	assert.Len(t, impliedTargets(base, meta.RelSpecialization), 1)
}

type resolverFunc func(name string, context *meta.Element) (*meta.Element, error)

func (f resolverFunc) ResolveName(name string, context *meta.Element) (*meta.Element, error) {
	return f(name, context)
}

func TestIndirectReachSuppression(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	things := lib.elements["Base::things"]

	// base explicitly subsets Base::things; leaf explicitly redefines base.
	// leaf has no explicit subsetting of its own, but its explicit chain
	// already reaches things through the redefinition.
	base := meta.NewElement(ids, meta.KindFeature, "base")
	leaf := meta.NewElement(ids, meta.KindFeature, "leaf")
	meta.NewExplicitRelationship(ids, meta.RelSubsetting, base, "things")
	meta.NewExplicitRelationship(ids, meta.RelRedefinition, leaf, "base")
	byName := map[string]*meta.Element{"things": things, "base": base}
	resolve := resolverFunc(func(name string, _ *meta.Element) (*meta.Element, error) {
		if found := byName[name]; found != nil {
			return found, nil
		}
		return nil, assert.AnError
	})
	meta.ResolveHeritage(base, resolve)
	meta.ResolveHeritage(leaf, resolve)

	thingsSelector := selectorNamed(t, kindSelectors, "feature-things")
	engine := NewEngine(ids, lib, false)
	assert.False(t, engine.applySelector(leaf, thingsSelector),
		"indirect explicit reach suppresses the implicit relationship")

	relaxed := NewEngine(ids, lib, true)
	assert.True(t, relaxed.applySelector(leaf, thingsSelector),
		"suppression is configurable")
	targets := impliedTargets(leaf, meta.RelSubsetting)
	require.Len(t, targets, 1)
	assert.Same(t, things, targets[0])
}

func selectorNamed(t *testing.T, table []Selector, name string) Selector {
	t.Helper()
	for _, sel := range table {
		if sel.Name == name {
			return sel
		}
	}
	t.Fatalf("no selector named %q", name)
	return Selector{}
}

func TestMissingLibraryTolerated(t *testing.T) {
	ids := meta.NewIDAllocator()
	doc := buildDoc(t, ids, `package P { classifier A; }`)

	empty := &mapLibrary{elements: map[string]*meta.Element{}}
	NewEngine(ids, empty, false).Apply(doc)
	assert.Empty(t, impliedTargets(findNamed(doc, "A"), meta.RelSpecialization))

	// nil provider is the standalone configuration
	NewEngine(ids, nil, false).Apply(doc)
	assert.Empty(t, impliedTargets(findNamed(doc, "A"), meta.RelSpecialization))
}

func TestImpliedFlaggedAndOrdered(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P { classifier A; }`)
	NewEngine(ids, lib, false).Apply(doc)

	a := findNamed(doc, "A")
	rels := meta.Specializations(a, meta.RelSpecialization)
	require.Len(t, rels, 1)
	assert.True(t, rels[0].Relationship().IsImplied)

	// rebuilding the document drops implied relationships
	doc.BeginRebuild()
	assert.Empty(t, meta.Specializations(a, meta.RelSpecialization))
}

func TestApplyIsIdempotent(t *testing.T) {
	ids := meta.NewIDAllocator()
	lib := newTestLibrary(ids)
	doc := buildDoc(t, ids, `package P { classifier A; feature f; }`)

	engine := NewEngine(ids, lib, false)
	engine.Apply(doc)
	engine.Apply(doc)

	assert.Len(t, impliedTargets(findNamed(doc, "A"), meta.RelSpecialization), 1)
	assert.Len(t, impliedTargets(findNamed(doc, "f"), meta.RelSubsetting), 1)
}
