package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTexts(tokens []Token) []string {
	var out []string
	for _, tok := range tokens {
		if tok.Kind == TokenEOF {
			break
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  []string
		kinds []TokenKind
	}{
		{
			name: "declaration",
			src:  "class Vehicle specializes Base::Anything;",
			want: []string{"class", "Vehicle", "specializes", "Base", "::", "Anything", ";"},
		},
		{
			name: "range stays two ints",
			src:  "0..3",
			want: []string{"0", "..", "3"},
			kinds: []TokenKind{
				TokenInt, TokenSymbol, TokenInt,
			},
		},
		{
			name: "decimal literal",
			src:  "3.14",
			want: []string{"3.14"},
			kinds: []TokenKind{
				TokenDecimal,
			},
		},
		{
			name: "strict equality longest match",
			src:  "a === b !== c",
			want: []string{"a", "===", "b", "!==", "c"},
		},
		{
			name: "power and multiply",
			src:  "2 ** 3 * 4",
			want: []string{"2", "**", "3", "*", "4"},
		},
		{
			name: "string with escapes",
			src:  `"a\"b"`,
			want: []string{`a"b`},
			kinds: []TokenKind{
				TokenString,
			},
		},
		{
			name: "line comment dropped",
			src:  "a // trailing\nb",
			want: []string{"a", "b"},
		},
		{
			name: "block comment kept",
			src:  "/* the body */",
			want: []string{"the body"},
			kinds: []TokenKind{
				TokenComment,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := NewLexer(tt.src).Tokenize()
			require.Empty(t, diags)
			assert.Equal(t, tt.want, tokenTexts(tokens))
			if tt.kinds != nil {
				for i, kind := range tt.kinds {
					assert.Equal(t, kind, tokens[i].Kind, "token %d", i)
				}
			}
		})
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, diags := NewLexer(`"abc`).Tokenize()
	require.Len(t, diags, 1)
	assert.Equal(t, CodeSyntax, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unterminated string")
}

func TestTokenizeBareExponent(t *testing.T) {
	tests := []string{"1.5e", "1.5e+", "2.0E-"}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			tokens, diags := NewLexer(src).Tokenize()
			require.Len(t, diags, 1)
			assert.Equal(t, CodeSyntax, diags[0].Code)
			assert.Contains(t, diags[0].Message, "exponent")
			// the malformed literal still occupies its full source range
			assert.Equal(t, TokenDecimal, tokens[0].Kind)
			assert.Equal(t, src, tokens[0].Text)
		})
	}
}

func TestTokenizeExponent(t *testing.T) {
	tokens, diags := NewLexer("1.5e3 2.5E+10 3.5e-2").Tokenize()
	require.Empty(t, diags)
	assert.Equal(t, []string{"1.5e3", "2.5E+10", "3.5e-2"}, tokenTexts(tokens))
	for i := 0; i < 3; i++ {
		assert.Equal(t, TokenDecimal, tokens[i].Kind)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, diags := NewLexer("a\n  bb").Tokenize()
	require.Empty(t, diags)
	require.GreaterOrEqual(t, len(tokens), 2)

	assert.Equal(t, 1, tokens[0].Range.Start.Line)
	assert.Equal(t, 0, tokens[0].Range.Start.Character)

	assert.Equal(t, 2, tokens[1].Range.Start.Line)
	assert.Equal(t, 2, tokens[1].Range.Start.Character)
	assert.Equal(t, 4, tokens[1].Range.Start.Offset)
	assert.Equal(t, 6, tokens[1].Range.End.Offset)
}
