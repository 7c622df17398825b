package meta

import (
	"go.uber.org/zap"

	"github.com/kerml-go/kerml/logger"
	"github.com/kerml-go/kerml/syntax"
)

// Constructor maps concrete syntax nodes to metamodel elements, one element
// per node. Construction is idempotent: re-invoking on an already-built node
// reuses the attached element and mutates it in place, so element identity
// (and therefore caches and cross-references) survives incremental rebuilds.
type Constructor struct {
	ids *IDAllocator
	log *zap.SugaredLogger
}

// NewConstructor creates a constructor using the given ID allocator
func NewConstructor(ids *IDAllocator) *Constructor {
	return &Constructor{
		ids: ids,
		log: logger.ComponentLogger("meta.construct"),
	}
}

// BuildDocument builds (or rebuilds) the metamodel for a parsed document.
// When doc is non-nil, its element tree is updated in place.
func (c *Constructor) BuildDocument(uri string, root *syntax.Node, doc *Document) *Document {
	if doc == nil {
		doc = &Document{URI: uri, Generation: 1}
	}
	doc.Syntax = root

	rootElem := c.elementFor(root, KindNamespace)
	rootElem.owner = nil
	rootElem.Document = doc
	doc.Root = rootElem

	c.buildMembers(rootElem, root)

	c.log.Debugw("document constructed",
		logger.FieldDocument, uri,
		logger.FieldGeneration, doc.Generation)
	return doc
}

// elementFor returns the metamodel element attached to node, creating it on
// first construction. A fresh element id is assigned only on first creation.
func (c *Constructor) elementFor(node *syntax.Node, kind ElementKind) *Element {
	if e, ok := node.Meta.(*Element); ok {
		// reuse in place; children are re-wired by the caller
		e.Kind = kind
		e.owned = nil
		e.Annotations = nil
		return e
	}
	e := &Element{ID: c.ids.Next(), Kind: kind, Node: node}
	node.Meta = e
	return e
}

// buildMembers constructs all member children of a namespace-like node
func (c *Constructor) buildMembers(owner *Element, node *syntax.Node) {
	for _, child := range node.Children {
		switch child.Kind {
		case syntax.NodePackage:
			owner.AddOwned(RoleMember, c.buildPackage(child))
		case syntax.NodeClassifier:
			owner.AddOwned(RoleMember, c.buildClassifier(child))
		case syntax.NodeFeature:
			owner.AddOwned(RoleMember, c.buildFeature(child))
		case syntax.NodeImport:
			owner.AddOwned(RoleImport, c.buildImport(child, owner))
		case syntax.NodeAlias:
			owner.AddOwned(RoleMember, c.buildAlias(child, owner))
		case syntax.NodeComment:
			owner.AddOwned(RoleMember, c.buildAnnotationElement(child, KindComment))
		case syntax.NodeDoc:
			owner.AddOwned(RoleMember, c.buildAnnotationElement(child, KindDoc))
		}
	}
}

func (c *Constructor) buildPackage(node *syntax.Node) *Element {
	e := c.elementFor(node, KindPackage)
	c.applyDeclaration(e, node)
	c.buildMembers(e, node)
	return e
}

func (c *Constructor) buildClassifier(node *syntax.Node) *Element {
	kind, ok := classifierForKeyword[node.Keyword]
	if !ok {
		kind = KindClassifier
	}
	e := c.elementFor(node, kind)
	c.applyDeclaration(e, node)
	e.typ = &TypeCap{
		Abstract:  node.Flags.Abstract,
		Variation: node.Flags.Variation,
	}
	c.buildHeritage(e, node)
	c.buildMembers(e, node)
	return e
}

func (c *Constructor) buildFeature(node *syntax.Node) *Element {
	kind, ok := featureForKeyword[node.Keyword]
	if !ok {
		kind = KindFeature
	}
	e := c.elementFor(node, kind)
	c.applyDeclaration(e, node)
	e.typ = &TypeCap{Variation: node.Flags.Variation}
	e.feat = &FeatureCap{
		Direction: node.Flags.Direction,
		Composite: node.Flags.Composite,
		ReadOnly:  node.Flags.ReadOnly,
		End:       node.Flags.End,
	}
	if mult := node.FirstChild(syntax.NodeMultiplicity); mult != nil && len(mult.Children) > 0 {
		e.typ.MultiplicityNode = mult.Children[0]
	}
	if value := node.FirstChild(syntax.NodeFeatureValue); value != nil && len(value.Children) > 0 {
		e.feat.ValueNode = value.Children[0]
		e.feat.ValueIsDefault = value.Text == ":="
	}
	c.buildHeritage(e, node)
	c.buildMembers(e, node)
	return e
}

// buildHeritage constructs one owned relationship element per heritage
// clause target, in declaration order. Explicit relationships always precede
// implied ones, which are appended by the implicit-generalization pass.
func (c *Constructor) buildHeritage(e *Element, node *syntax.Node) {
	for _, h := range node.ChildrenOfKind(syntax.NodeHeritage) {
		relKind, ok := relKindForHeritage[h.Text]
		if !ok || len(h.Children) == 0 {
			continue
		}
		rel := c.elementFor(h, elementKindForRel[relKind])
		rel.rel = &RelCap{
			RelKind: relKind,
			Source:  ResolvedRef(e),
			Target:  NewRef(h.Children[0].Text, e),
		}
		e.AddOwned(RoleHeritage, rel)
	}
}

func (c *Constructor) buildImport(node *syntax.Node, owner *Element) *Element {
	e := c.elementFor(node, KindImport)
	e.Visibility = ParseVisibility(node.Flags.Visibility)
	e.rel = &RelCap{
		RelKind: RelImport,
		Source:  ResolvedRef(owner),
		Target:  NewRef(node.Text, owner),
	}
	e.imp = &ImportCap{
		Target:    e.rel.Target,
		All:       node.Flags.ImportAll,
		Recursive: node.Flags.ImportRecursive,
	}
	return e
}

func (c *Constructor) buildAlias(node *syntax.Node, owner *Element) *Element {
	e := c.elementFor(node, KindAlias)
	c.applyDeclaration(e, node)
	if target := node.FirstChild(syntax.NodeQualifiedName); target != nil {
		e.alias = &AliasCap{Target: NewRef(target.Text, owner)}
	} else {
		e.alias = &AliasCap{}
	}
	return e
}

func (c *Constructor) buildAnnotationElement(node *syntax.Node, kind ElementKind) *Element {
	return c.elementFor(node, kind)
}

// applyDeclaration copies declared name, short name, visibility and keyword
func (c *Constructor) applyDeclaration(e *Element, node *syntax.Node) {
	e.Keyword = node.Keyword
	e.Name = node.Text
	e.ShortName = node.ShortName
	e.Visibility = ParseVisibility(node.Flags.Visibility)
}
