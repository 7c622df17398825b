package syntax

// NodeKind tags a concrete syntax tree node with its grammar production
type NodeKind string

const (
	// Structure
	NodeDocument      NodeKind = "document"
	NodePackage       NodeKind = "package"
	NodeClassifier    NodeKind = "classifier"
	NodeFeature       NodeKind = "feature"
	NodeImport        NodeKind = "import"
	NodeAlias         NodeKind = "alias"
	NodeComment       NodeKind = "comment"
	NodeDoc           NodeKind = "doc"
	NodeHeritage      NodeKind = "heritage"
	NodeQualifiedName NodeKind = "qualified-name"
	NodeMultiplicity  NodeKind = "multiplicity"
	NodeFeatureValue  NodeKind = "feature-value"

	// Expressions
	NodeLiteralInt      NodeKind = "literal-int"
	NodeLiteralRational NodeKind = "literal-rational"
	NodeLiteralString   NodeKind = "literal-string"
	NodeLiteralBool     NodeKind = "literal-bool"
	NodeLiteralInfinity NodeKind = "literal-infinity"
	NodeNull            NodeKind = "null"
	NodeNameRef         NodeKind = "name-ref"
	NodeFeatureChain    NodeKind = "feature-chain"
	NodeInvocation      NodeKind = "invocation"
	NodeOperator        NodeKind = "operator"
)

// Heritage keywords carried in the Text of a NodeHeritage node
const (
	HeritageSpecializes = "specializes"
	HeritageSubsets     = "subsets"
	HeritageRedefines   = "redefines"
	HeritageTyping      = "typing"
	HeritageConjugates  = "conjugates"
	HeritageDisjoint    = "disjoint"
)

// Flags carries declaration modifiers parsed from the concrete syntax
type Flags struct {
	Visibility string // "", "public", "private", "protected"
	Abstract   bool
	Composite  bool
	ReadOnly   bool
	End        bool
	Variation  bool
	Direction  string // "", "in", "out", "inout"

	// Import modifiers: import Q::* (all) and import Q::** (recursive)
	ImportAll       bool
	ImportRecursive bool
}

// Node is one concrete syntax tree node. The grammar/parser layer produces
// these; the metamodel layer wraps each node 1:1 in a typed element.
//
// Field usage by kind:
//   - NodePackage, NodeClassifier, NodeFeature, NodeAlias: Text is the
//     declared name, Keyword the declaration keyword ("class", "part", ...).
//   - NodeQualifiedName, NodeNameRef, NodeImport: Text is the "::"-joined
//     qualified name.
//   - NodeOperator: Text is the operator token.
//   - Literals: Text is the raw token text.
//   - NodeHeritage: Text is the heritage keyword, single child is the
//     target qualified name.
type Node struct {
	Kind      NodeKind
	Keyword   string
	Text      string
	ShortName string
	Flags     Flags
	Range     Range
	Children  []*Node

	// Meta is the metamodel object attached to this node during
	// construction. Declared as any to keep the syntax layer free of a
	// dependency on the metamodel package.
	Meta any
}

// AddChild appends a child node preserving source order
func (n *Node) AddChild(c *Node) {
	if c != nil {
		n.Children = append(n.Children, c)
	}
}

// ChildrenOfKind returns all direct children with the given kind, in order
func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child with the given kind, or nil
func (n *Node) FirstChild(kind NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// IsExpression reports whether the node is an expression production
func (n *Node) IsExpression() bool {
	switch n.Kind {
	case NodeLiteralInt, NodeLiteralRational, NodeLiteralString, NodeLiteralBool,
		NodeLiteralInfinity, NodeNull, NodeNameRef, NodeFeatureChain,
		NodeInvocation, NodeOperator:
		return true
	}
	return false
}
