package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *Node {
	t.Helper()
	doc, diags := Parse(src)
	require.Empty(t, diags, "unexpected diagnostics for %q", src)
	require.NotNil(t, doc)
	return doc
}

func TestParsePackageWithMembers(t *testing.T) {
	doc := parseOK(t, `
		package Vehicles {
			abstract class Vehicle specializes Base::Anything {
				composite part wheels : Wheel [4];
			}
			class Wheel;
		}
	`)

	require.Len(t, doc.Children, 1)
	pkg := doc.Children[0]
	assert.Equal(t, NodePackage, pkg.Kind)
	assert.Equal(t, "Vehicles", pkg.Text)
	require.Len(t, pkg.Children, 2)

	vehicle := pkg.Children[0]
	assert.Equal(t, NodeClassifier, vehicle.Kind)
	assert.Equal(t, "class", vehicle.Keyword)
	assert.Equal(t, "Vehicle", vehicle.Text)
	assert.True(t, vehicle.Flags.Abstract)

	heritage := vehicle.ChildrenOfKind(NodeHeritage)
	require.Len(t, heritage, 1)
	assert.Equal(t, HeritageSpecializes, heritage[0].Text)
	assert.Equal(t, "Base::Anything", heritage[0].Children[0].Text)

	wheels := vehicle.FirstChild(NodeFeature)
	require.NotNil(t, wheels)
	assert.Equal(t, "wheels", wheels.Text)
	assert.True(t, wheels.Flags.Composite)

	typing := wheels.FirstChild(NodeHeritage)
	require.NotNil(t, typing)
	assert.Equal(t, HeritageTyping, typing.Text)
	assert.Equal(t, "Wheel", typing.Children[0].Text)

	mult := wheels.FirstChild(NodeMultiplicity)
	require.NotNil(t, mult)
	require.Len(t, mult.Children, 1)
	assert.Equal(t, NodeLiteralInt, mult.Children[0].Kind)
	assert.Equal(t, "4", mult.Children[0].Text)
}

func TestParseImportForms(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantText  string
		all       bool
		recursive bool
	}{
		{name: "plain", src: "import Base;", wantText: "Base"},
		{name: "wildcard", src: "private import Base::*;", wantText: "Base", all: true},
		{name: "recursive", src: "import Base::**;", wantText: "Base", all: true, recursive: true},
		{name: "nested", src: "import A::B::C;", wantText: "A::B::C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseOK(t, tt.src)
			require.Len(t, doc.Children, 1)
			imp := doc.Children[0]
			assert.Equal(t, NodeImport, imp.Kind)
			assert.Equal(t, tt.wantText, imp.Text)
			assert.Equal(t, tt.all, imp.Flags.ImportAll)
			assert.Equal(t, tt.recursive, imp.Flags.ImportRecursive)
		})
	}
}

func TestParseAlias(t *testing.T) {
	doc := parseOK(t, "alias Car for Vehicles::Vehicle;")
	alias := doc.Children[0]
	assert.Equal(t, NodeAlias, alias.Kind)
	assert.Equal(t, "Car", alias.Text)
	require.Len(t, alias.Children, 1)
	assert.Equal(t, "Vehicles::Vehicle", alias.Children[0].Text)
}

func TestParseVisibility(t *testing.T) {
	doc := parseOK(t, `
		package P {
			private class Hidden;
			protected class Guarded;
			class Open;
		}
	`)
	pkg := doc.Children[0]
	assert.Equal(t, "private", pkg.Children[0].Flags.Visibility)
	assert.Equal(t, "protected", pkg.Children[1].Flags.Visibility)
	assert.Equal(t, "", pkg.Children[2].Flags.Visibility)
}

func TestParseFeatureValue(t *testing.T) {
	doc := parseOK(t, "feature count : Natural = 2 + 3;")
	feat := doc.Children[0]
	value := feat.FirstChild(NodeFeatureValue)
	require.NotNil(t, value)
	assert.Equal(t, "=", value.Text)
	expr := value.Children[0]
	assert.Equal(t, NodeOperator, expr.Kind)
	assert.Equal(t, "+", expr.Text)
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name string
		src  string
		// preorder rendering of the expression tree
		want string
	}{
		{name: "mul binds tighter", src: "feature f = 1 + 2 * 3;", want: "(+ 1 (* 2 3))"},
		{name: "power right assoc", src: "feature f = 2 ** 3 ** 2;", want: "(** 2 (** 3 2))"},
		{name: "relational over range", src: "feature f = 1..3 < 5;", want: "(< (.. 1 3) 5)"},
		{name: "equality chain", src: "feature f = a == b != c;", want: "(!= (== a b) c)"},
		{name: "boolean tower", src: "feature f = a or b and c;", want: "(or a (and b c))"},
		{name: "implies loosest", src: "feature f = a and b implies c;", want: "(implies (and a b) c)"},
		{name: "unary minus", src: "feature f = -2 + 3;", want: "(+ (- 2) 3)"},
		{name: "strict equality", src: "feature f = a === b;", want: "(=== a b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseOK(t, tt.src)
			value := doc.Children[0].FirstChild(NodeFeatureValue)
			require.NotNil(t, value)
			assert.Equal(t, tt.want, renderExpr(value.Children[0]))
		})
	}
}

func TestParseFeatureChainAndIndex(t *testing.T) {
	doc := parseOK(t, "feature f = m.dimensions #(1, 2);")
	value := doc.Children[0].FirstChild(NodeFeatureValue)
	require.NotNil(t, value)

	index := value.Children[0]
	assert.Equal(t, NodeOperator, index.Kind)
	assert.Equal(t, "#", index.Text)
	require.Len(t, index.Children, 3)

	chain := index.Children[0]
	assert.Equal(t, NodeFeatureChain, chain.Kind)
	require.Len(t, chain.Children, 2)
	assert.Equal(t, "m", chain.Children[0].Text)
	assert.Equal(t, "dimensions", chain.Children[1].Text)
}

func TestParseInvocation(t *testing.T) {
	doc := parseOK(t, "feature f = sum(1, 2, 3);")
	value := doc.Children[0].FirstChild(NodeFeatureValue)
	inv := value.Children[0]
	assert.Equal(t, NodeInvocation, inv.Kind)
	require.Len(t, inv.Children, 4)
	assert.Equal(t, "sum", inv.Children[0].Text)
}

func TestParseDirectionOnlyParameters(t *testing.T) {
	doc := parseOK(t, `
		function Sum {
			in collection : Anything [0..*];
			out result : Anything [0..1];
		}
	`)
	fn := doc.Children[0]
	assert.Equal(t, "function", fn.Keyword)

	// a bare direction modifier declares a parameter feature
	params := fn.ChildrenOfKind(NodeFeature)
	require.Len(t, params, 2)
	assert.Equal(t, "collection", params[0].Text)
	assert.Equal(t, "in", params[0].Flags.Direction)
	typing := params[0].FirstChild(NodeHeritage)
	require.NotNil(t, typing)
	assert.Equal(t, "Anything", typing.Children[0].Text)

	assert.Equal(t, "result", params[1].Text)
	assert.Equal(t, "out", params[1].Flags.Direction)
}

func TestParseMultiplicityInfinity(t *testing.T) {
	doc := parseOK(t, "feature f [0..*];")
	mult := doc.Children[0].FirstChild(NodeMultiplicity)
	require.NotNil(t, mult)
	bounds := mult.Children[0]
	assert.Equal(t, "..", bounds.Text)
	assert.Equal(t, NodeLiteralInfinity, bounds.Children[1].Kind)
}

func TestParseRecoversAfterBadMember(t *testing.T) {
	doc, diags := Parse(`
		package P {
			$$$;
			class Good;
		}
	`)
	require.NotEmpty(t, diags)
	pkg := doc.Children[0]
	// the good member still parses
	var found bool
	for _, c := range pkg.Children {
		if c.Kind == NodeClassifier && c.Text == "Good" {
			found = true
		}
	}
	assert.True(t, found, "parser should recover and keep parsing")
}

func TestParseDocAnnotation(t *testing.T) {
	doc := parseOK(t, `
		package P {
			doc /* The package doc. */
			class C {
				comment /* attached note */
			}
		}
	`)
	pkg := doc.Children[0]
	d := pkg.FirstChild(NodeDoc)
	require.NotNil(t, d)
	assert.Equal(t, "The package doc.", d.Text)

	cls := pkg.FirstChild(NodeClassifier)
	note := cls.FirstChild(NodeComment)
	require.NotNil(t, note)
	assert.Equal(t, "attached note", note.Text)
}

// renderExpr renders an expression tree as a parenthesized preorder string
func renderExpr(n *Node) string {
	if n == nil {
		return "?"
	}
	switch n.Kind {
	case NodeOperator:
		out := "(" + n.Text
		for _, c := range n.Children {
			out += " " + renderExpr(c)
		}
		return out + ")"
	case NodeFeatureChain:
		out := "(."
		for _, c := range n.Children {
			out += " " + renderExpr(c)
		}
		return out + ")"
	case NodeInvocation:
		out := "(call"
		for _, c := range n.Children {
			out += " " + renderExpr(c)
		}
		return out + ")"
	default:
		return n.Text
	}
}
