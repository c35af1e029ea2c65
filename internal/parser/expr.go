package parser

import (
	"strconv"
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/diag"
	"github.com/antonio-tresol/fangless-go/internal/semantic"
	"github.com/antonio-tresol/fangless-go/internal/token"
)

func stripUnderscores(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	v, err := strconv.ParseInt(stripUnderscores(tok.Literal), 10, 64)
	if err != nil {
		p.failAt(diag.Lex, tok.Pos, "malformed integer literal %q", tok.Literal)
		return ast.NewLiteral(tok.Pos, int64(0))
	}
	return ast.NewLiteral(tok.Pos, v)
}

func (p *Parser) parseFloatLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	v, err := strconv.ParseFloat(stripUnderscores(tok.Literal), 64)
	if err != nil {
		p.failAt(diag.Lex, tok.Pos, "malformed floating literal %q", tok.Literal)
		return ast.NewLiteral(tok.Pos, float64(0))
	}
	return ast.NewLiteral(tok.Pos, v)
}

func (p *Parser) parseRadixLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	text := stripUnderscores(tok.Literal)
	var base int
	switch tok.Kind {
	case token.BINARY_NUMBER:
		base = 2
	case token.OCTAL_NUMBER:
		base = 8
	case token.HEXADECIMAL_NUMBER:
		base = 16
	}
	// text is "0b101" / "0o17" / "0x1F" — strip the two-character prefix.
	digits := text
	if len(text) > 2 {
		digits = text[2:]
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		p.failAt(diag.Lex, tok.Pos, "malformed numeric literal %q", tok.Literal)
		return ast.NewLiteral(tok.Pos, int64(0))
	}
	return ast.NewLiteral(tok.Pos, v)
}

func (p *Parser) parseStringLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	return ast.NewLiteral(tok.Pos, tok.Literal)
}

func (p *Parser) parseBoolLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	return ast.NewLiteral(tok.Pos, tok.Kind == token.TRUE)
}

func (p *Parser) parseNoneLiteral() ast.Node {
	tok := p.cur()
	p.advance()
	return ast.NewLiteral(tok.Pos, nil)
}

func (p *Parser) parseName() ast.Node {
	tok := p.cur()
	p.advance()
	name := ast.NewName(tok.Pos, tok.Literal)
	if p.cur().Kind == token.L_PARENTHESIS {
		// About to become a call's callee; defer to the callee check in
		// parseCallOrMethodCall instead of the generic reference check.
		return name
	}
	p.checkReference(tok.Literal, tok.Pos)
	return name
}

// parseUnary handles prefix +, -, ~, and `not`. All four build an
// Operator with only CENTER set (the unary shape).
func (p *Parser) parseUnary() ast.Node {
	tok := p.cur()
	p.advance()

	var opPrecedence int
	var tag ast.OperatorTag
	switch tok.Kind {
	case token.MINUS:
		tag, opPrecedence = ast.OpSub, PREFIX
	case token.PLUS:
		tag, opPrecedence = ast.OpAdd, PREFIX
	case token.TILDE:
		tag, opPrecedence = ast.OpBitNot, PREFIX
	case token.NOT:
		tag, opPrecedence = ast.OpNot, NOT_PREC
	}

	operand := p.parseExpression(opPrecedence)
	node := ast.NewOperator(tok.Pos, tag)
	node.SetCenter(operand)
	return node
}

// parseBinary handles every left-associative binary operator: build the
// Operator at the operator's own precedence level, so a same-precedence
// chain (a - b - c) folds left: ((a - b) - c).
func (p *Parser) parseBinary(left ast.Node) ast.Node {
	tok := p.cur()
	precedence := p.curPrecedence()
	p.advance()
	right := p.parseExpression(precedence)
	node := ast.NewOperator(tok.Pos, ast.OperatorTag(tok.Literal))
	node.SetLeft(left)
	node.SetRight(right)
	return node
}

// parseBinaryRightAssoc is used for power (`**`): parsing the RHS at
// precedence-1 lets a following `**` fold in rather than stop, so
// a ** b ** c builds a ** (b ** c).
func (p *Parser) parseBinaryRightAssoc(left ast.Node) ast.Node {
	tok := p.cur()
	precedence := p.curPrecedence()
	p.advance()
	right := p.parseExpression(precedence - 1)
	node := ast.NewOperator(tok.Pos, ast.OpPow)
	node.SetLeft(left)
	node.SetRight(right)
	return node
}

func (p *Parser) parseIsOrIsNot(left ast.Node) ast.Node {
	tok := p.cur()
	p.advance() // consume IS
	tag := ast.OpIs
	if p.cur().Kind == token.NOT {
		p.advance()
		tag = ast.OpIsNot
	}
	right := p.parseExpression(COMPARISON)
	node := ast.NewOperator(tok.Pos, tag)
	node.SetLeft(left)
	node.SetRight(right)
	return node
}

func (p *Parser) parseNotIn(left ast.Node) ast.Node {
	tok := p.cur()
	if p.peekAt(1).Kind != token.IN {
		p.failParse(tok.Pos, "unexpected %s in expression", token.NOT)
		return left
	}
	p.advance() // consume NOT
	p.advance() // consume IN
	right := p.parseExpression(COMPARISON)
	node := ast.NewOperator(tok.Pos, ast.OpNotIn)
	node.SetLeft(left)
	node.SetRight(right)
	return node
}

// parseGroupedOrTuple handles a parenthesized expression or a
// parenthesized tuple literal: `(e)` sets parenthesized=true on e's own
// top Operator (law 3); `(e, ...)` or `()` builds a tuple LiteralNode.
func (p *Parser) parseGroupedOrTuple() ast.Node {
	startPos := p.cur().Pos
	p.advance() // consume '('

	if p.cur().Kind == token.R_PARENTHESIS {
		p.advance()
		return ast.NewLiteral(startPos, []ast.Node{})
	}

	first := p.parseExpression(LOWEST)

	if p.cur().Kind == token.COMMA {
		elements := []ast.Node{first}
		for p.cur().Kind == token.COMMA {
			p.advance()
			if p.cur().Kind == token.R_PARENTHESIS {
				break
			}
			elements = append(elements, p.parseExpression(LOWEST))
		}
		p.expect(token.R_PARENTHESIS)
		return ast.NewLiteral(startPos, elements)
	}

	p.expect(token.R_PARENTHESIS)
	if op, ok := first.(*ast.OperatorNode); ok {
		op.Parenthesized = true
	}
	return first
}

func (p *Parser) parseListLiteral() ast.Node {
	startPos := p.cur().Pos
	p.advance() // consume '['
	elements := p.parseExpressionSeries(token.R_BRACKET)
	p.expect(token.R_BRACKET)
	return ast.NewLiteral(startPos, elements)
}

// parseDictOrSetLiteral disambiguates `{}` (empty dict), `{k: v, ...}`
// (dict), and `{v, ...}` (set) by checking for a COLON after the first
// element.
func (p *Parser) parseDictOrSetLiteral() ast.Node {
	startPos := p.cur().Pos
	p.advance() // consume '{'

	if p.cur().Kind == token.R_CURLY_BRACE {
		p.advance()
		return ast.NewLiteral(startPos, map[ast.Node]ast.Node{})
	}

	first := p.parseExpression(LOWEST)
	if p.cur().Kind == token.COLON {
		p.advance()
		firstValue := p.parseExpression(LOWEST)
		entries := map[ast.Node]ast.Node{first: firstValue}
		for p.cur().Kind == token.COMMA {
			p.advance()
			if p.cur().Kind == token.R_CURLY_BRACE {
				break
			}
			key := p.parseExpression(LOWEST)
			p.expect(token.COLON)
			value := p.parseExpression(LOWEST)
			entries[key] = value
		}
		p.expect(token.R_CURLY_BRACE)
		return ast.NewLiteral(startPos, entries)
	}

	elements := []ast.Node{first}
	for p.cur().Kind == token.COMMA {
		p.advance()
		if p.cur().Kind == token.R_CURLY_BRACE {
			break
		}
		elements = append(elements, p.parseExpression(LOWEST))
	}
	p.expect(token.R_CURLY_BRACE)
	return ast.NewLiteral(startPos, elements)
}

// parseExpressionSeries parses a comma-separated, possibly empty,
// possibly trailing-comma series up to (not consuming) terminator.
func (p *Parser) parseExpressionSeries(terminator token.Kind) []ast.Node {
	if p.cur().Kind == terminator {
		return nil
	}
	elements := []ast.Node{p.parseExpression(LOWEST)}
	for p.cur().Kind == token.COMMA {
		p.advance()
		if p.cur().Kind == terminator {
			break
		}
		elements = append(elements, p.parseExpression(LOWEST))
	}
	return elements
}

// parseAttribute grows the right-leaning attribute-chain spine one link
// per `.NAME` suffix.
func (p *Parser) parseAttribute(left ast.Node) ast.Node {
	dotPos := p.cur().Pos
	p.advance() // consume '.'

	if p.cur().Kind != token.NAME {
		p.failParse(p.cur().Pos, "expected attribute name after '.', got %s", p.cur().Kind)
		return left
	}
	memberTok := p.cur()
	p.advance()
	member := ast.NewName(memberTok.Pos, memberTok.Literal)

	if chain, ok := left.(*ast.OperatorNode); ok && chain.Operator == ast.OpAttributeCall {
		next := ast.NewOperator(dotPos, ast.OpAttributeCall)
		next.SetLeft(chain.GetRightmost())
		next.SetRight(member)
		chain.SetRightmost(next)
		return chain
	}

	root := ast.NewOperator(dotPos, ast.OpAttributeCall)
	root.SetLeft(left)
	root.SetRight(member)
	return root
}

// parseCallOrMethodCall handles a `(` following an expression: either a
// direct call (callee is a bare Name) or a method call (callee is an
// attribute chain, whose rightmost Name is promoted out).
func (p *Parser) parseCallOrMethodCall(left ast.Node) ast.Node {
	pos := p.cur().Pos
	args := p.parseArguments()

	switch callee := left.(type) {
	case *ast.NameNode:
		if kind, ok := p.checker.Resolve(callee.ID); !ok || (kind != semantic.Function && kind != semantic.Class) {
			p.checker.MarkUndefinedFunction(callee.ID)
		}
		node := ast.NewOperator(pos, ast.OpFunctionCall)
		node.Set(ast.FUNCTION_NAME, callee)
		node.Set(ast.ARGUMENTS, args)
		return node

	case *ast.OperatorNode:
		if callee.Operator != ast.OpAttributeCall {
			p.failParse(pos, "call target must be a name or attribute chain")
			return callee
		}
		promoted, remainder, err := callee.PromoteRightmostSibling()
		if err != nil {
			p.failParse(pos, "%s", err.Error())
			return callee
		}
		name, ok := promoted.(*ast.NameNode)
		if !ok {
			p.failParse(pos, "method call target must be a name")
			return callee
		}
		fc := ast.NewOperator(pos, ast.OpFunctionCall)
		fc.Set(ast.FUNCTION_NAME, name)
		fc.Set(ast.ARGUMENTS, args)

		method := ast.NewOperator(pos, ast.OpMethodCall)
		method.Set(ast.INSTANCE, remainder)
		method.Set(ast.METHOD, fc)
		return method

	default:
		p.failParse(pos, "call target must be a name or attribute chain")
		return left
	}
}

func (p *Parser) parseArguments() []ast.Node {
	p.advance() // consume '('
	args := p.parseExpressionSeries(token.R_PARENTHESIS)
	p.expect(token.R_PARENTHESIS)
	return args
}

// parseIndexOrSlice implements the indexing-vs-slicing
// discrimination: the presence of a COLON inside `[...]` means slicing.
func (p *Parser) parseIndexOrSlice(left ast.Node) ast.Node {
	pos := p.cur().Pos
	p.advance() // consume '['

	var start ast.Node
	if p.cur().Kind != token.COLON {
		start = p.parseExpression(LOWEST)
	}

	if p.cur().Kind == token.COLON {
		p.advance()
		var end ast.Node
		if p.cur().Kind != token.R_BRACKET {
			end = p.parseExpression(LOWEST)
		}
		p.expect(token.R_BRACKET)

		node := ast.NewOperator(pos, ast.OpSlicing)
		node.Set(ast.INSTANCE, left)
		slice := map[ast.OperandTag]ast.Node{ast.END: end}
		if start != nil {
			slice[ast.START] = start
		}
		node.Set(ast.SLICE, slice)
		return node
	}

	p.expect(token.R_BRACKET)
	node := ast.NewOperator(pos, ast.OpIndexing)
	node.Set(ast.INSTANCE, left)
	node.Set(ast.INDEX, start)
	return node
}
