package syntax

// Expression parsing. Precedence, loosest first:
//
//	implies
//	or xor |
//	and &
//	not (prefix)
//	== != === !== istype hastype as meta @ @@
//	< > <= >=
//	..
//	+ -
//	* / %
//	** (right associative)
//	- ~ (prefix)
//	postfix: .chain  #(index)  (invocation)
//
// A parenthesized, comma-separated list is a sequence expression and is
// represented as an operator node with token ",".

// ParseExpression parses one expression at the loosest precedence level
func (p *Parser) ParseExpression() *Node {
	return p.parseImplies()
}

func (p *Parser) parseImplies() *Node {
	left := p.parseOr()
	for p.currentIs("implies") {
		tok := p.advance()
		right := p.parseOr()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseOr() *Node {
	left := p.parseAnd()
	for p.currentIs("or") || p.currentIs("xor") || p.currentSymbol("|") {
		tok := p.advance()
		right := p.parseAnd()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseAnd() *Node {
	left := p.parseNot()
	for p.currentIs("and") || p.currentSymbol("&") {
		tok := p.advance()
		right := p.parseNot()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseNot() *Node {
	if p.currentIs("not") {
		tok := p.advance()
		operand := p.parseNot()
		return unary(tok.Text, operand, tok.Range)
	}
	return p.parseEquality()
}

func (p *Parser) parseEquality() *Node {
	left := p.parseRelational()
	for {
		switch {
		case p.currentSymbol("==") || p.currentSymbol("!=") ||
			p.currentSymbol("===") || p.currentSymbol("!=="):
			tok := p.advance()
			right := p.parseRelational()
			left = binary(tok.Text, left, right)
		case p.currentIs("istype") || p.currentIs("hastype") ||
			p.currentIs("as") || p.currentIs("meta") ||
			p.currentSymbol("@") || p.currentSymbol("@@"):
			tok := p.advance()
			target := p.parseQualifiedName()
			if target == nil {
				return left
			}
			ref := &Node{Kind: NodeNameRef, Text: target.Text, Range: target.Range}
			left = binary(tok.Text, left, ref)
		default:
			return left
		}
	}
}

func (p *Parser) parseRelational() *Node {
	left := p.parseRange()
	for p.currentSymbol("<") || p.currentSymbol(">") ||
		p.currentSymbol("<=") || p.currentSymbol(">=") {
		tok := p.advance()
		right := p.parseRange()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseRange() *Node {
	left := p.parseAdditive()
	if p.currentSymbol("..") {
		tok := p.advance()
		right := p.parseAdditive()
		return binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() *Node {
	left := p.parseMultiplicative()
	for p.currentSymbol("+") || p.currentSymbol("-") {
		tok := p.advance()
		right := p.parseMultiplicative()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() *Node {
	left := p.parsePower()
	for p.currentSymbol("*") || p.currentSymbol("/") || p.currentSymbol("%") {
		// "*" in multiplicity upper-bound position is the infinity literal,
		// handled in parsePrimary; here it is always binary multiply
		tok := p.advance()
		right := p.parsePower()
		left = binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parsePower() *Node {
	left := p.parseUnary()
	if p.currentSymbol("**") {
		tok := p.advance()
		// right associative
		right := p.parsePower()
		return binary(tok.Text, left, right)
	}
	return left
}

func (p *Parser) parseUnary() *Node {
	if p.currentSymbol("-") || p.currentSymbol("~") {
		tok := p.advance()
		operand := p.parseUnary()
		return unary(tok.Text, operand, tok.Range)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *Node {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		switch {
		case p.currentSymbol("."):
			// feature chain: fold successive steps into one chain node
			p.advance()
			if p.current().Kind != TokenIdent {
				p.errorf("expected feature name after '.'")
				return expr
			}
			step := p.advance()
			ref := &Node{Kind: NodeNameRef, Text: step.Text, Range: step.Range}
			if expr.Kind == NodeFeatureChain {
				expr.AddChild(ref)
				expr.Range.End = step.Range.End
			} else {
				chain := &Node{Kind: NodeFeatureChain, Range: RangeFromPositions(expr.Range.Start, step.Range.End)}
				chain.AddChild(expr)
				chain.AddChild(ref)
				expr = chain
			}

		case p.currentSymbol("#"):
			p.advance()
			if !p.expectSymbol("(") {
				return expr
			}
			index := &Node{Kind: NodeOperator, Text: "#", Range: expr.Range}
			index.AddChild(expr)
			p.parseArguments(index)
			index.Range.End = p.previous().Range.End
			expr = index

		case p.currentSymbol("(") && expr.Kind == NodeNameRef:
			p.advance()
			inv := &Node{Kind: NodeInvocation, Range: expr.Range}
			inv.AddChild(expr)
			p.parseArguments(inv)
			inv.Range.End = p.previous().Range.End
			expr = inv

		default:
			return expr
		}
	}
}

// parseArguments parses a comma-separated argument list up to ')'
func (p *Parser) parseArguments(call *Node) {
	if p.currentSymbol(")") {
		p.advance()
		return
	}
	for {
		arg := p.ParseExpression()
		if arg == nil {
			break
		}
		call.AddChild(arg)
		if p.currentSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectSymbol(")")
}

func (p *Parser) parsePrimary() *Node {
	tok := p.current()
	switch tok.Kind {
	case TokenInt:
		p.advance()
		return &Node{Kind: NodeLiteralInt, Text: tok.Text, Range: tok.Range}
	case TokenDecimal:
		p.advance()
		return &Node{Kind: NodeLiteralRational, Text: tok.Text, Range: tok.Range}
	case TokenString:
		p.advance()
		return &Node{Kind: NodeLiteralString, Text: tok.Text, Range: tok.Range}
	case TokenIdent:
		switch tok.Text {
		case "true", "false":
			p.advance()
			return &Node{Kind: NodeLiteralBool, Text: tok.Text, Range: tok.Range}
		case "null":
			p.advance()
			return &Node{Kind: NodeNull, Range: tok.Range}
		}
		qn := p.parseQualifiedName()
		if qn == nil {
			return nil
		}
		return &Node{Kind: NodeNameRef, Text: qn.Text, Range: qn.Range}
	case TokenSymbol:
		switch tok.Text {
		case "*":
			p.advance()
			return &Node{Kind: NodeLiteralInfinity, Text: "*", Range: tok.Range}
		case "(":
			p.advance()
			if p.currentSymbol(")") {
				// "()" is the empty sequence
				end := p.advance()
				return &Node{Kind: NodeNull, Range: RangeFromPositions(tok.Range.Start, end.Range.End)}
			}
			expr := p.ParseExpression()
			if p.currentSymbol(",") {
				seq := &Node{Kind: NodeOperator, Text: ",", Range: tok.Range}
				seq.AddChild(expr)
				for p.currentSymbol(",") {
					p.advance()
					seq.AddChild(p.ParseExpression())
				}
				expr = seq
			}
			p.expectSymbol(")")
			if expr != nil {
				expr.Range = RangeFromPositions(tok.Range.Start, p.previous().Range.End)
			}
			return expr
		}
	}
	p.errorf("unexpected token %q in expression", tok.Text)
	return nil
}

func binary(op string, left, right *Node) *Node {
	node := &Node{Kind: NodeOperator, Text: op}
	if left != nil {
		node.Range.Start = left.Range.Start
	}
	if right != nil {
		node.Range.End = right.Range.End
	}
	node.AddChild(left)
	node.AddChild(right)
	return node
}

func unary(op string, operand *Node, opRange Range) *Node {
	node := &Node{Kind: NodeOperator, Text: op, Range: opRange}
	if operand != nil {
		node.Range.End = operand.Range.End
	}
	node.AddChild(operand)
	return node
}
