package syntax

import (
	"strings"
)

// TokenKind classifies lexical tokens
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenInt
	TokenDecimal
	TokenString
	TokenSymbol
	TokenComment
)

// Token is one lexical token with its source range
type Token struct {
	Kind  TokenKind
	Text  string // token value; for strings, the unquoted content
	Raw   string // original source text including quotes
	Range Range
}

// multi-character symbols, longest first so the scanner is greedy
var symbols = []string{
	"===", "!==",
	"::", "**", "..", "<=", ">=", "==", "!=", ":=", "@@",
	"{", "}", "(", ")", "[", "]", ";", ",", ":", ".", "=",
	"+", "-", "*", "/", "%", "<", ">", "@", "#", "~", "&", "|", "?",
}

// Lexer tokenizes source text with position tracking
type Lexer struct {
	src     string
	tracker *PositionTracker
}

// NewLexer creates a lexer over the given source
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, tracker: NewPositionTracker(src)}
}

// Tokenize scans the whole source and returns the token stream.
// Block comments are kept as TokenComment (the metamodel attaches them to
// neighboring elements); line comments are dropped.
func (l *Lexer) Tokenize() ([]Token, []Diagnostic) {
	var tokens []Token
	var diags []Diagnostic

	for {
		l.skipSpace()
		start := l.tracker.Mark()
		if start.Offset >= len(l.src) {
			tokens = append(tokens, Token{Kind: TokenEOF, Range: RangeFromPositions(start, start)})
			return tokens, diags
		}

		ch := l.src[start.Offset]
		switch {
		case ch == '/' && l.peekAt(start.Offset+1) == '/':
			l.skipLineComment()

		case ch == '/' && l.peekAt(start.Offset+1) == '*':
			text, ok := l.scanBlockComment()
			end := l.tracker.Mark()
			if !ok {
				diags = append(diags, Errorf(CodeSyntax, RangeFromPositions(start, end), "unterminated comment"))
			}
			tokens = append(tokens, Token{
				Kind:  TokenComment,
				Text:  text,
				Raw:   l.src[start.Offset:end.Offset],
				Range: RangeFromPositions(start, end),
			})

		case ch == '"':
			text, ok := l.scanString()
			end := l.tracker.Mark()
			if !ok {
				diags = append(diags, Errorf(CodeSyntax, RangeFromPositions(start, end), "unterminated string literal"))
			}
			tokens = append(tokens, Token{
				Kind:  TokenString,
				Text:  text,
				Raw:   l.src[start.Offset:end.Offset],
				Range: RangeFromPositions(start, end),
			})

		case isDigit(ch):
			kind, text, ok := l.scanNumber()
			end := l.tracker.Mark()
			if !ok {
				diags = append(diags, Errorf(CodeSyntax, RangeFromPositions(start, end), "exponent in %q has no digits", text))
			}
			tokens = append(tokens, Token{Kind: kind, Text: text, Raw: text, Range: RangeFromPositions(start, end)})

		case isIdentStart(ch):
			text := l.scanIdent()
			end := l.tracker.Mark()
			tokens = append(tokens, Token{Kind: TokenIdent, Text: text, Raw: text, Range: RangeFromPositions(start, end)})

		default:
			sym := l.matchSymbol(start.Offset)
			if sym == "" {
				l.tracker.AdvanceBytes(1)
				end := l.tracker.Mark()
				diags = append(diags, Errorf(CodeSyntax, RangeFromPositions(start, end), "unexpected character %q", string(ch)))
				continue
			}
			l.tracker.AdvanceBytes(len(sym))
			end := l.tracker.Mark()
			tokens = append(tokens, Token{Kind: TokenSymbol, Text: sym, Raw: sym, Range: RangeFromPositions(start, end)})
		}
	}
}

func (l *Lexer) skipSpace() {
	for l.tracker.offset < len(l.src) {
		ch := l.src[l.tracker.offset]
		if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
			return
		}
		l.tracker.AdvanceBytes(1)
	}
}

func (l *Lexer) skipLineComment() {
	for l.tracker.offset < len(l.src) && l.src[l.tracker.offset] != '\n' {
		l.tracker.AdvanceBytes(1)
	}
}

// scanBlockComment consumes /* ... */ and returns the trimmed body.
// Reports ok=false when the comment never terminates.
func (l *Lexer) scanBlockComment() (string, bool) {
	l.tracker.AdvanceBytes(2) // consume /*
	bodyStart := l.tracker.offset
	for l.tracker.offset < len(l.src) {
		if l.src[l.tracker.offset] == '*' && l.peekAt(l.tracker.offset+1) == '/' {
			body := l.src[bodyStart:l.tracker.offset]
			l.tracker.AdvanceBytes(2)
			return strings.TrimSpace(body), true
		}
		l.tracker.AdvanceBytes(1)
	}
	return strings.TrimSpace(l.src[bodyStart:]), false
}

func (l *Lexer) scanString() (string, bool) {
	l.tracker.AdvanceBytes(1) // consume opening quote
	var sb strings.Builder
	for l.tracker.offset < len(l.src) {
		ch := l.src[l.tracker.offset]
		switch ch {
		case '"':
			l.tracker.AdvanceBytes(1)
			return sb.String(), true
		case '\\':
			next := l.peekAt(l.tracker.offset + 1)
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(next)
			default:
				sb.WriteByte(next)
			}
			l.tracker.AdvanceBytes(2)
		case '\n':
			// strings do not span lines
			return sb.String(), false
		default:
			sb.WriteByte(ch)
			l.tracker.AdvanceBytes(1)
		}
	}
	return sb.String(), false
}

// scanNumber consumes an integer or decimal literal. Reports ok=false when
// an exponent marker has no digits after it; the malformed tail stays in the
// token so downstream positions line up.
func (l *Lexer) scanNumber() (kind TokenKind, text string, ok bool) {
	start := l.tracker.offset
	for l.tracker.offset < len(l.src) && isDigit(l.src[l.tracker.offset]) {
		l.tracker.AdvanceBytes(1)
	}
	// decimal point only when followed by a digit, so "1..3" stays two ints
	if l.tracker.offset >= len(l.src) || l.src[l.tracker.offset] != '.' ||
		l.tracker.offset+1 >= len(l.src) || !isDigit(l.src[l.tracker.offset+1]) {
		return TokenInt, l.src[start:l.tracker.offset], true
	}
	l.tracker.AdvanceBytes(1)
	for l.tracker.offset < len(l.src) && isDigit(l.src[l.tracker.offset]) {
		l.tracker.AdvanceBytes(1)
	}
	ok = true
	// optional exponent
	if l.tracker.offset < len(l.src) && (l.src[l.tracker.offset] == 'e' || l.src[l.tracker.offset] == 'E') {
		l.tracker.AdvanceBytes(1)
		if l.tracker.offset < len(l.src) && (l.src[l.tracker.offset] == '+' || l.src[l.tracker.offset] == '-') {
			l.tracker.AdvanceBytes(1)
		}
		if l.tracker.offset < len(l.src) && isDigit(l.src[l.tracker.offset]) {
			for l.tracker.offset < len(l.src) && isDigit(l.src[l.tracker.offset]) {
				l.tracker.AdvanceBytes(1)
			}
		} else {
			ok = false
		}
	}
	return TokenDecimal, l.src[start:l.tracker.offset], ok
}

func (l *Lexer) scanIdent() string {
	start := l.tracker.offset
	for l.tracker.offset < len(l.src) && isIdentPart(l.src[l.tracker.offset]) {
		l.tracker.AdvanceBytes(1)
	}
	return l.src[start:l.tracker.offset]
}

func (l *Lexer) matchSymbol(at int) string {
	rest := l.src[at:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym) {
			return sym
		}
	}
	return ""
}

func (l *Lexer) peekAt(offset int) byte {
	if offset >= len(l.src) {
		return 0
	}
	return l.src[offset]
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
