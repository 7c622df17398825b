package syntax

// Parser builds a concrete syntax tree from the token stream.
// It performs best-effort recovery: a malformed member is reported as a
// diagnostic and parsing resumes at the next ';' or '}'.
type Parser struct {
	tokens []Token
	pos    int
	diags  []Diagnostic
}

// classifier declaration keywords
var classifierKeywords = map[string]bool{
	"classifier": true,
	"class":      true,
	"datatype":   true,
	"struct":     true,
	"assoc":      true,
	"behavior":   true,
	"function":   true,
}

// feature declaration keywords
var featureKeywords = map[string]bool{
	"feature":   true,
	"part":      true,
	"attribute": true,
	"item":      true,
	"port":      true,
	"action":    true,
	"step":      true,
	"connector": true,
	"expr":      true,
}

// Parse tokenizes and parses source text into a document node.
// The returned diagnostics include both lexical and syntactic findings.
func Parse(source string) (*Node, []Diagnostic) {
	lexer := NewLexer(source)
	tokens, diags := lexer.Tokenize()
	p := &Parser{tokens: tokens, diags: diags}
	doc := p.parseDocument()
	return doc, p.diags
}

func (p *Parser) parseDocument() *Node {
	doc := &Node{Kind: NodeDocument}
	if len(p.tokens) > 0 {
		doc.Range.Start = p.tokens[0].Range.Start
	}
	for !p.atEOF() {
		member := p.parseMember()
		if member == nil {
			p.recover()
			continue
		}
		doc.AddChild(member)
	}
	doc.Range.End = p.current().Range.End
	return doc
}

// parseMember parses one namespace member declaration, or nil on error
func (p *Parser) parseMember() *Node {
	// free-floating block comment
	if p.current().Kind == TokenComment {
		tok := p.advance()
		return &Node{Kind: NodeComment, Text: tok.Text, Range: tok.Range}
	}

	var flags Flags
	start := p.current().Range.Start

	// visibility prefix
	switch p.current().Text {
	case "public", "private", "protected":
		flags.Visibility = p.advance().Text
	}

	switch {
	case p.currentIs("import"):
		return p.parseImport(flags, start)
	case p.currentIs("alias"):
		return p.parseAlias(flags, start)
	case p.currentIs("package"):
		return p.parsePackage(flags, start)
	case p.currentIs("comment"):
		return p.parseAnnotation(NodeComment, start)
	case p.currentIs("doc"):
		return p.parseAnnotation(NodeDoc, start)
	}

	// declaration modifiers in any order before the keyword
	for {
		switch p.current().Text {
		case "abstract":
			flags.Abstract = true
			p.advance()
			continue
		case "variation":
			flags.Variation = true
			p.advance()
			continue
		case "composite":
			flags.Composite = true
			p.advance()
			continue
		case "readonly":
			flags.ReadOnly = true
			p.advance()
			continue
		case "end":
			flags.End = true
			p.advance()
			continue
		case "in", "out", "inout":
			// direction only when a feature keyword follows; "in" is also
			// a plausible identifier position otherwise
			if p.isDeclKeyword(p.peek(1).Text) || p.peek(1).Kind == TokenIdent {
				flags.Direction = p.advance().Text
				continue
			}
		}
		break
	}

	keyword := p.current().Text
	switch {
	case classifierKeywords[keyword]:
		p.advance()
		return p.parseClassifier(keyword, flags, start)
	case featureKeywords[keyword]:
		p.advance()
		return p.parseFeature(keyword, flags, start)
	case flags.End && p.current().Kind == TokenIdent:
		// "end x" without a feature keyword is still an end feature
		return p.parseFeature("feature", flags, start)
	case flags.Direction != "" && p.current().Kind == TokenIdent:
		// "in x : T" declares a parameter feature without a keyword
		return p.parseFeature("feature", flags, start)
	}

	p.errorf("unexpected token %q in member position", p.current().Text)
	return nil
}

func (p *Parser) parsePackage(flags Flags, start Position) *Node {
	p.advance() // package
	node := &Node{Kind: NodePackage, Keyword: "package", Flags: flags}
	node.Range.Start = start
	p.parseDeclaredName(node)
	p.parseBody(node)
	node.Range.End = p.previous().Range.End
	return node
}

func (p *Parser) parseClassifier(keyword string, flags Flags, start Position) *Node {
	node := &Node{Kind: NodeClassifier, Keyword: keyword, Flags: flags}
	node.Range.Start = start
	p.parseDeclaredName(node)
	p.parseHeritage(node)
	p.parseBodyOrSemicolon(node)
	node.Range.End = p.previous().Range.End
	return node
}

func (p *Parser) parseFeature(keyword string, flags Flags, start Position) *Node {
	node := &Node{Kind: NodeFeature, Keyword: keyword, Flags: flags}
	node.Range.Start = start
	p.parseDeclaredName(node)

	// typing: ": QualifiedName"
	if p.currentSymbol(":") {
		p.advance()
		target := p.parseQualifiedName()
		if target != nil {
			h := &Node{Kind: NodeHeritage, Text: HeritageTyping, Range: target.Range}
			h.AddChild(target)
			node.AddChild(h)
		}
	}

	p.parseHeritage(node)

	// multiplicity: "[" expr (".." expr)? "]"
	if p.currentSymbol("[") {
		node.AddChild(p.parseMultiplicity())
	}

	// feature value: "=" expr | ":=" expr
	if p.currentSymbol("=") || p.currentSymbol(":=") {
		op := p.advance().Text
		expr := p.ParseExpression()
		if expr != nil {
			v := &Node{Kind: NodeFeatureValue, Text: op, Range: expr.Range}
			v.AddChild(expr)
			node.AddChild(v)
		}
	}

	p.parseBodyOrSemicolon(node)
	node.Range.End = p.previous().Range.End
	return node
}

func (p *Parser) parseImport(flags Flags, start Position) *Node {
	p.advance() // import
	node := &Node{Kind: NodeImport, Keyword: "import", Flags: flags}
	node.Range.Start = start

	qn := p.parseQualifiedNameText()
	node.Text = qn

	// wildcard suffix: ::* or ::**
	if p.currentSymbol("::") {
		p.advance()
		switch {
		case p.currentSymbol("**"):
			p.advance()
			node.Flags.ImportAll = true
			node.Flags.ImportRecursive = true
		case p.currentSymbol("*"):
			p.advance()
			node.Flags.ImportAll = true
		default:
			p.errorf("expected '*' or '**' after '::' in import")
		}
	}

	p.expectSymbol(";")
	node.Range.End = p.previous().Range.End
	return node
}

func (p *Parser) parseAlias(flags Flags, start Position) *Node {
	p.advance() // alias
	node := &Node{Kind: NodeAlias, Keyword: "alias", Flags: flags}
	node.Range.Start = start

	if p.current().Kind == TokenIdent {
		node.Text = p.advance().Text
	} else {
		p.errorf("expected alias name, got %q", p.current().Text)
	}
	if p.currentIs("for") {
		p.advance()
		node.AddChild(p.parseQualifiedName())
	} else {
		p.errorf("expected 'for' in alias declaration")
	}
	p.expectSymbol(";")
	node.Range.End = p.previous().Range.End
	return node
}

// parseAnnotation parses "comment /* ... */" and "doc /* ... */"
func (p *Parser) parseAnnotation(kind NodeKind, start Position) *Node {
	p.advance() // comment | doc
	node := &Node{Kind: kind}
	node.Range.Start = start
	if p.current().Kind == TokenComment {
		tok := p.advance()
		node.Text = tok.Text
	} else {
		p.errorf("expected comment body")
	}
	node.Range.End = p.previous().Range.End
	return node
}

// parseDeclaredName parses an optional <shortName> followed by a name
func (p *Parser) parseDeclaredName(node *Node) {
	if p.currentSymbol("<") {
		p.advance()
		if p.current().Kind == TokenIdent {
			node.ShortName = p.advance().Text
		}
		p.expectSymbol(">")
	}
	if p.current().Kind == TokenIdent && !p.isDeclKeyword(p.current().Text) {
		node.Text = p.advance().Text
	}
}

// parseHeritage parses zero or more heritage clauses, each with one or more
// comma-separated targets. Each target becomes its own NodeHeritage child so
// declaration order is preserved.
func (p *Parser) parseHeritage(node *Node) {
	for {
		var kw string
		switch p.current().Text {
		case "specializes", "subsets", "redefines", "conjugates":
			kw = p.advance().Text
		case "disjoint":
			p.advance()
			if p.currentIs("from") {
				p.advance()
			}
			kw = HeritageDisjoint
		default:
			return
		}
		for {
			target := p.parseQualifiedName()
			if target == nil {
				return
			}
			h := &Node{Kind: NodeHeritage, Text: kw, Range: target.Range}
			h.AddChild(target)
			node.AddChild(h)
			if !p.currentSymbol(",") {
				break
			}
			p.advance()
		}
	}
}

func (p *Parser) parseMultiplicity() *Node {
	start := p.current().Range.Start
	p.advance() // [
	node := &Node{Kind: NodeMultiplicity}
	node.Range.Start = start

	// bounds are one expression; "lower..upper" arrives as a range operator
	node.AddChild(p.ParseExpression())
	p.expectSymbol("]")
	node.Range.End = p.previous().Range.End
	return node
}

func (p *Parser) parseBody(node *Node) {
	if !p.expectSymbol("{") {
		return
	}
	for !p.currentSymbol("}") && !p.atEOF() {
		member := p.parseMember()
		if member == nil {
			p.recover()
			continue
		}
		node.AddChild(member)
	}
	p.expectSymbol("}")
}

func (p *Parser) parseBodyOrSemicolon(node *Node) {
	if p.currentSymbol("{") {
		p.parseBody(node)
		return
	}
	p.expectSymbol(";")
}

func (p *Parser) parseQualifiedName() *Node {
	start := p.current().Range.Start
	text := p.parseQualifiedNameText()
	if text == "" {
		return nil
	}
	return &Node{
		Kind:  NodeQualifiedName,
		Text:  text,
		Range: RangeFromPositions(start, p.previous().Range.End),
	}
}

// parseQualifiedNameText consumes IDENT ("::" IDENT)* and returns the
// "::"-joined text. Stops before a trailing wildcard so imports can
// consume it.
func (p *Parser) parseQualifiedNameText() string {
	if p.current().Kind != TokenIdent {
		p.errorf("expected name, got %q", p.current().Text)
		return ""
	}
	text := p.advance().Text
	for p.currentSymbol("::") && p.peek(1).Kind == TokenIdent {
		p.advance()
		text += "::" + p.advance().Text
	}
	return text
}

// token stream helpers

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) previous() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	if p.pos > len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) atEOF() bool { return p.current().Kind == TokenEOF }

func (p *Parser) currentIs(keyword string) bool {
	return p.current().Kind == TokenIdent && p.current().Text == keyword
}

func (p *Parser) currentSymbol(sym string) bool {
	return p.current().Kind == TokenSymbol && p.current().Text == sym
}

func (p *Parser) isDeclKeyword(text string) bool {
	return classifierKeywords[text] || featureKeywords[text] || text == "package"
}

func (p *Parser) expectSymbol(sym string) bool {
	if p.currentSymbol(sym) {
		p.advance()
		return true
	}
	p.errorf("expected %q, got %q", sym, p.current().Text)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags = append(p.diags, Errorf(CodeSyntax, p.current().Range, format, args...))
}

// recover skips to the next ';' or '}' so parsing can continue after a
// malformed member
func (p *Parser) recover() {
	for !p.atEOF() {
		if p.currentSymbol(";") || p.currentSymbol("}") {
			p.advance()
			return
		}
		p.advance()
	}
}
