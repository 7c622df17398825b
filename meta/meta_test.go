package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerml-go/kerml/errors"
	"github.com/kerml-go/kerml/syntax"
)

// tableResolver resolves simple names against a fixed table
type tableResolver map[string]*Element

func (r tableResolver) ResolveName(name string, _ *Element) (*Element, error) {
	if e, ok := r[name]; ok {
		return e, nil
	}
	return nil, errors.NewLinkingError("unresolved reference %q", name)
}

func TestIDAllocatorMonotonic(t *testing.T) {
	ids := NewIDAllocator()
	a := ids.Next()
	b := ids.Next()
	c := ids.Next()
	assert.Equal(t, ElementID(1), a)
	assert.Equal(t, ElementID(2), b)
	assert.Equal(t, ElementID(3), c)
	assert.Equal(t, uint64(3), ids.Allocated())
}

func TestMemoInvalidation(t *testing.T) {
	var cell Memo[int]
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, cell.Get(1, compute))
	assert.Equal(t, 1, cell.Get(1, compute), "same generation should hit the cache")
	assert.Equal(t, 2, cell.Get(2, compute), "new generation should recompute")

	cell.Reset()
	assert.Equal(t, 3, cell.Get(2, compute), "reset should force recompute")
}

func buildDoc(t *testing.T, src string) *Document {
	t.Helper()
	node, diags := syntax.Parse(src)
	require.Empty(t, diags)
	ctor := NewConstructor(NewIDAllocator())
	return ctor.BuildDocument("test.kerml", node, nil)
}

func TestConstructAttachesOneElementPerNode(t *testing.T) {
	doc := buildDoc(t, `
		package P {
			class A;
			class B specializes A;
		}
	`)

	require.NotNil(t, doc.Root)
	assert.Equal(t, KindNamespace, doc.Root.Kind)

	members := doc.Root.Members()
	require.Len(t, members, 1)
	pkg := members[0]
	assert.Equal(t, KindPackage, pkg.Kind)
	assert.Equal(t, "P", pkg.Name)
	assert.Same(t, doc.Root, pkg.Owner())

	classes := pkg.Members()
	require.Len(t, classes, 2)
	a, b := classes[0], classes[1]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "B", b.Name)
	assert.NotEqual(t, a.ID, b.ID)

	// syntax node and element are attached bidirectionally
	assert.Same(t, a, a.Node.Meta)

	heritage := b.Heritage()
	require.Len(t, heritage, 1)
	rel := heritage[0].Relationship()
	require.NotNil(t, rel)
	assert.Equal(t, RelSpecialization, rel.RelKind)
	assert.False(t, rel.IsImplied)
	assert.Equal(t, "A", rel.Target.Name())
}

func TestConstructIsIdempotent(t *testing.T) {
	node, diags := syntax.Parse("package P { class A; }")
	require.Empty(t, diags)

	ids := NewIDAllocator()
	ctor := NewConstructor(ids)
	doc := ctor.BuildDocument("test.kerml", node, nil)
	before := ids.Allocated()

	pkg := doc.Root.Members()[0]
	a := pkg.Members()[0]

	// rebuilding the same tree must reuse elements and leak no ids
	doc2 := ctor.BuildDocument("test.kerml", node, doc)
	assert.Same(t, doc, doc2)
	assert.Equal(t, before, ids.Allocated())
	assert.Same(t, pkg, doc.Root.Members()[0])
	assert.Same(t, a, doc.Root.Members()[0].Members()[0])
}

func TestQualifiedName(t *testing.T) {
	doc := buildDoc(t, `
		package A {
			package B {
				class C;
			}
		}
	`)
	a := doc.Root.Members()[0]
	b := a.Members()[0]
	c := b.Members()[0]
	assert.Equal(t, "A", a.QualifiedName())
	assert.Equal(t, "A::B", b.QualifiedName())
	assert.Equal(t, "A::B::C", c.QualifiedName())
}

func TestVisibilityParsing(t *testing.T) {
	doc := buildDoc(t, `
		package P {
			private class Hidden;
			protected class Guarded;
			class Open;
		}
	`)
	pkg := doc.Root.Members()[0]
	assert.Equal(t, VisibilityPrivate, pkg.Members()[0].Visibility)
	assert.Equal(t, VisibilityProtected, pkg.Members()[1].Visibility)
	assert.Equal(t, VisibilityPublic, pkg.Members()[2].Visibility)
}

func TestMoreRestrictive(t *testing.T) {
	assert.Equal(t, VisibilityPrivate, MoreRestrictive(VisibilityPublic, VisibilityPrivate))
	assert.Equal(t, VisibilityProtected, MoreRestrictive(VisibilityProtected, VisibilityPublic))
	assert.Equal(t, VisibilityPublic, MoreRestrictive(VisibilityPublic, VisibilityPublic))
}

func TestAllSupertypesClosure(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	b := NewElement(ids, KindClass, "B")
	c := NewElement(ids, KindClass, "C")
	root.AddOwned(RoleMember, a)
	root.AddOwned(RoleMember, b)
	root.AddOwned(RoleMember, c)
	NewDocumentFor("mem.kerml", root)

	NewExplicitRelationship(ids, RelSpecialization, a, "B")
	NewExplicitRelationship(ids, RelSpecialization, b, "C")

	resolver := tableResolver{"B": b, "C": c}
	ResolveHeritage(a, resolver)
	ResolveHeritage(b, resolver)

	closure := AllSupertypes(a)
	require.Len(t, closure, 2)
	assert.Same(t, b, closure[0])
	assert.Same(t, c, closure[1])
	assert.False(t, HasSpecializationCycle(a))

	assert.True(t, Conforms(a, c))
	assert.False(t, Conforms(c, a))
}

func TestAllSupertypesTerminatesOnCycle(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	b := NewElement(ids, KindClass, "B")
	root.AddOwned(RoleMember, a)
	root.AddOwned(RoleMember, b)
	NewDocumentFor("mem.kerml", root)

	NewExplicitRelationship(ids, RelSpecialization, a, "B")
	NewExplicitRelationship(ids, RelSpecialization, b, "A")

	resolver := tableResolver{"A": a, "B": b}
	ResolveHeritage(a, resolver)
	ResolveHeritage(b, resolver)

	closure := AllSupertypes(a)
	require.Len(t, closure, 1)
	assert.Same(t, b, closure[0])
	assert.True(t, HasSpecializationCycle(a))
}

func TestUnresolvedSupertypeBehavesAsAbsent(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	root.AddOwned(RoleMember, a)
	NewDocumentFor("mem.kerml", root)

	NewExplicitRelationship(ids, RelSpecialization, a, "Missing")
	ResolveHeritage(a, tableResolver{})

	assert.Empty(t, AllSupertypes(a))
	assert.False(t, HasSpecializationCycle(a))
}

func TestHasExplicitSpecialization(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	lib := NewElement(ids, KindClass, "Anything")
	root.AddOwned(RoleMember, a)
	root.AddOwned(RoleMember, lib)
	NewDocumentFor("mem.kerml", root)

	assert.False(t, HasExplicitSpecialization(a, RelSpecialization))

	NewImpliedRelationship(ids, RelSpecialization, a, lib)
	assert.False(t, HasExplicitSpecialization(a, RelSpecialization),
		"implied relationships do not count as explicit")

	NewExplicitRelationship(ids, RelSpecialization, a, "Anything")
	assert.True(t, HasExplicitSpecialization(a, RelSpecialization))
}

func TestReachesThroughExplicit(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	mid := NewElement(ids, KindClass, "Mid")
	lib := NewElement(ids, KindClass, "Anything")
	for _, e := range []*Element{a, mid, lib} {
		root.AddOwned(RoleMember, e)
	}
	NewDocumentFor("mem.kerml", root)

	NewExplicitRelationship(ids, RelSpecialization, a, "Mid")
	NewExplicitRelationship(ids, RelSpecialization, mid, "Anything")
	resolver := tableResolver{"Mid": mid, "Anything": lib}
	ResolveHeritage(a, resolver)
	ResolveHeritage(mid, resolver)

	assert.True(t, ReachesThroughExplicit(a, lib))
	assert.False(t, ReachesThroughExplicit(lib, a))
}

func TestBeginRebuildDropsImpliedAndBumpsGeneration(t *testing.T) {
	ids := NewIDAllocator()
	root := NewElement(ids, KindNamespace, "")
	a := NewElement(ids, KindClass, "A")
	lib := NewElement(ids, KindClass, "Anything")
	root.AddOwned(RoleMember, a)
	root.AddOwned(RoleMember, lib)
	doc := NewDocumentFor("mem.kerml", root)

	NewImpliedRelationship(ids, RelSpecialization, a, lib)
	require.Len(t, a.Heritage(), 1)

	gen := doc.Generation
	doc.BeginRebuild()
	assert.Equal(t, gen+1, doc.Generation)
	assert.Empty(t, a.Heritage(), "implied relationships are dropped on rebuild")
	assert.Empty(t, doc.Diagnostics)
}

func TestAttachComments(t *testing.T) {
	doc := buildDoc(t, `
		package P {
			/* leads A */
			class A;
			class B {
				comment /* trails inside B */
			}
		}
	`)
	doc.AttachComments()

	pkg := doc.Root.Members()[0]
	var a, b *Element
	for _, m := range pkg.Members() {
		switch m.Name {
		case "A":
			a = m
		case "B":
			b = m
		}
	}
	require.NotNil(t, a)
	require.NotNil(t, b)

	require.Len(t, a.Annotations, 1)
	assert.Equal(t, "leads A", a.Annotations[0].Text)
	assert.True(t, a.Annotations[0].Leading)

	require.Len(t, b.Annotations, 1)
	assert.Equal(t, "trails inside B", b.Annotations[0].Text)
	assert.False(t, b.Annotations[0].Leading)

	// idempotence: a second pass must not duplicate annotations
	doc.AttachComments()
	assert.Len(t, a.Annotations, 1)
}

func TestFeatureConstruction(t *testing.T) {
	doc := buildDoc(t, `
		class Wheel;
		class Vehicle {
			composite part wheels : Wheel [4] = 2 + 2;
			in feature speed;
			end feature axle;
		}
	`)
	var vehicle *Element
	for _, m := range doc.Root.Members() {
		if m.Name == "Vehicle" {
			vehicle = m
		}
	}
	require.NotNil(t, vehicle)

	members := vehicle.Members()
	require.Len(t, members, 3)

	wheels := members[0]
	assert.Equal(t, KindFeature, wheels.Kind)
	assert.Equal(t, "part", wheels.Keyword)
	assert.True(t, wheels.Feature().Composite)
	require.NotNil(t, wheels.Type().MultiplicityNode)
	require.NotNil(t, wheels.Feature().ValueNode)
	assert.False(t, wheels.Feature().ValueIsDefault)

	typing := Specializations(wheels, RelTyping)
	require.Len(t, typing, 1)
	assert.Equal(t, "Wheel", typing[0].Relationship().Target.Name())

	speed := members[1]
	assert.Equal(t, "in", speed.Feature().Direction)

	axle := members[2]
	assert.True(t, axle.Feature().End)
	assert.Equal(t, []*Element{axle}, vehicle.Ends())
}
