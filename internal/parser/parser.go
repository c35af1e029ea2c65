// Package parser implements the hand-written precedence-climbing grammar
// that turns a finalized token stream into an AST, invoking
// internal/semantic inline as grammar actions. It is "LALR-style" only in
// the sense that it is table-driven and mostly single-token-lookahead
// (assignment targets are recognised by scanning ahead over a `NAME (,
// NAME)* =` prefix); there is no generated parser table, just a
// hand-written dispatch-table grammar.
package parser

import (
	"fmt"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/diag"
	"github.com/antonio-tresol/fangless-go/internal/semantic"
	"github.com/antonio-tresol/fangless-go/internal/token"
)

// Precedence levels, lowest to highest, reproducing the source language's
// operator precedence (the same ladder Python itself uses): or, and, not,
// comparisons, bitwise |, bitwise ^, bitwise &, shifts, additive,
// multiplicative, unary +/-/~, power (right-assoc), then postfix
// call/index/attribute access.
const (
	_ int = iota
	LOWEST
	TERNARY_PREC
	OR_PREC
	AND_PREC
	NOT_PREC
	COMPARISON
	BOR
	BXOR
	BAND
	SHIFT
	ADD
	MUL
	PREFIX
	POWER
	POSTFIX
)

var precedences = map[token.Kind]int{
	token.OR:             OR_PREC,
	token.AND:            AND_PREC,
	token.EQUAL_EQUAL:    COMPARISON,
	token.NOT_EQUAL:      COMPARISON,
	token.LESS_THAN:      COMPARISON,
	token.LESS_EQUAL:     COMPARISON,
	token.GREATER_THAN:   COMPARISON,
	token.GREATER_EQUAL:  COMPARISON,
	token.IN:             COMPARISON,
	token.IS:             COMPARISON,
	token.NOT:            COMPARISON, // only valid as infix via "not in"
	token.BAR:            BOR,
	token.HAT:            BXOR,
	token.AMPERSAND:      BAND,
	token.LEFT_SHIFT:     SHIFT,
	token.RIGHT_SHIFT:    SHIFT,
	token.PLUS:           ADD,
	token.MINUS:          ADD,
	token.STAR:           MUL,
	token.SLASH:          MUL,
	token.DOUBLE_SLASH:   MUL,
	token.MOD:            MUL,
	token.DOUBLE_STAR:    POWER,
	token.L_PARENTHESIS:  POSTFIX,
	token.L_BRACKET:      POSTFIX,
	token.DOT:            POSTFIX,
}

type prefixParseFn func() ast.Node
type infixParseFn func(ast.Node) ast.Node

// Parser builds an AST from a finalized token slice (already wrapped with
// START_TOKEN/END_TOKEN by internal/tokstream), checking semantics inline
// via an internal/semantic.Checker and accumulating internal/diag
// diagnostics. The first fatal diagnostic halts parsing.
type Parser struct {
	tokens []token.Token
	pos    int
	source string

	checker *semantic.Checker
	errors  []diag.Diagnostic
	fatal   bool

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

// New creates a Parser over an already-finalized token slice. source is
// used only for diagnostic rendering (the source line under a caret); it
// may be empty.
func New(tokens []token.Token, source string) *Parser {
	p := &Parser{
		tokens:  tokens,
		source:  source,
		checker: semantic.New(),
	}

	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.NAME:               p.parseName,
		token.INTEGER_NUMBER:     p.parseIntegerLiteral,
		token.FLOATING_NUMBER:    p.parseFloatLiteral,
		token.BINARY_NUMBER:      p.parseRadixLiteral,
		token.OCTAL_NUMBER:       p.parseRadixLiteral,
		token.HEXADECIMAL_NUMBER: p.parseRadixLiteral,
		token.STRING:             p.parseStringLiteral,
		token.TRIPLE_STRING:      p.parseStringLiteral,
		token.RAW_STRING:         p.parseStringLiteral,
		token.UNICODE_STRING:     p.parseStringLiteral,
		token.TRUE:               p.parseBoolLiteral,
		token.FALSE:              p.parseBoolLiteral,
		token.NONE:               p.parseNoneLiteral,
		token.MINUS:              p.parseUnary,
		token.PLUS:               p.parseUnary,
		token.TILDE:              p.parseUnary,
		token.NOT:                p.parseUnary,
		token.L_PARENTHESIS:      p.parseGroupedOrTuple,
		token.L_BRACKET:          p.parseListLiteral,
		token.L_CURLY_BRACE:      p.parseDictOrSetLiteral,
	}

	p.infixParseFns = map[token.Kind]infixParseFn{
		token.PLUS:          p.parseBinary,
		token.MINUS:         p.parseBinary,
		token.STAR:          p.parseBinary,
		token.SLASH:         p.parseBinary,
		token.DOUBLE_SLASH:  p.parseBinary,
		token.MOD:           p.parseBinary,
		token.DOUBLE_STAR:   p.parseBinaryRightAssoc,
		token.AMPERSAND:     p.parseBinary,
		token.BAR:           p.parseBinary,
		token.HAT:           p.parseBinary,
		token.LEFT_SHIFT:    p.parseBinary,
		token.RIGHT_SHIFT:   p.parseBinary,
		token.EQUAL_EQUAL:   p.parseBinary,
		token.NOT_EQUAL:     p.parseBinary,
		token.LESS_THAN:     p.parseBinary,
		token.LESS_EQUAL:    p.parseBinary,
		token.GREATER_THAN:  p.parseBinary,
		token.GREATER_EQUAL: p.parseBinary,
		token.AND:           p.parseBinary,
		token.OR:            p.parseBinary,
		token.IN:            p.parseBinary,
		token.IS:            p.parseIsOrIsNot,
		token.NOT:           p.parseNotIn,
		token.L_PARENTHESIS: p.parseCallOrMethodCall,
		token.L_BRACKET:     p.parseIndexOrSlice,
		token.DOT:           p.parseAttribute,
	}

	return p
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur().Kind]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) failAt(category diag.Category, pos token.Position, format string, args ...any) {
	if p.fatal {
		return
	}
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, diag.New(category, msg, pos, p.source))
	p.fatal = true
}

func (p *Parser) failParse(pos token.Position, format string, args ...any) {
	p.failAt(diag.Parse, pos, format, args...)
}

func (p *Parser) failSemantic(pos token.Position, format string, args ...any) {
	p.failAt(diag.Semantic, pos, format, args...)
}

func (p *Parser) expect(kind token.Kind) bool {
	if p.cur().Kind == kind {
		p.advance()
		return true
	}
	p.failParse(p.cur().Pos, "expected %s, got %s", kind, p.cur().Kind)
	return false
}

// checkReference validates a plain NAME value reference against the
// symbol table, with the `self` exemption inside a class body.
func (p *Parser) checkReference(name string, pos token.Position) {
	if _, ok := p.checker.ResolveName(name); !ok {
		p.failSemantic(pos, "undefined name %q", name)
	}
}

// Parse runs the parser to completion, returning the top-level statements
// and any accumulated diagnostics. A non-nil diagnostics slice means
// parsing stopped at the first fatal condition.
func (p *Parser) Parse() ([]ast.Node, []diag.Diagnostic) {
	if !p.expect(token.START_TOKEN) {
		return nil, p.errors
	}

	stmts := p.parseStatementGroup(token.END_TOKEN)

	if !p.fatal {
		p.expect(token.END_TOKEN)
	}

	if !p.fatal {
		if undefined := p.checker.UndefinedNames(); len(undefined) > 0 {
			p.failSemantic(p.cur().Pos, "undefined callees or base classes remain at end of input: %v", undefined)
		}
	}

	return stmts, p.errors
}

// parseStatementGroup parses statements until terminator is reached (or a
// fatal error stops parsing). terminator is token.END_TOKEN at the top
// level and token.DEDENT for a nested suite.
func (p *Parser) parseStatementGroup(terminator token.Kind) []ast.Node {
	var stmts []ast.Node
	for !p.fatal && p.cur().Kind != terminator && p.cur().Kind != token.END_TOKEN {
		if p.cur().Kind == token.NEWLINE {
			p.advance()
			continue
		}
		stmt := p.parseStatement()
		if p.fatal {
			break
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.cur().Kind == token.NEWLINE {
			p.advance()
		}
	}
	return stmts
}

// parseBlock parses a `:` NEWLINE INDENT stmt* DEDENT suite. Entry:
// cur is COLON. Exit: cur is the token after the consumed DEDENT.
func (p *Parser) parseBlock() []ast.Node {
	if !p.expect(token.COLON) {
		return nil
	}
	if p.cur().Kind == token.NEWLINE {
		p.advance()
	}
	if p.cur().Kind != token.INDENT {
		p.failParse(p.cur().Pos, "expected an indented block, got %s", p.cur().Kind)
		return nil
	}
	p.advance()

	body := p.parseStatementGroup(token.DEDENT)

	if !p.fatal && p.cur().Kind == token.DEDENT {
		p.advance()
	}
	return body
}

// parseExpression is the Pratt entry point: parse a prefix expression,
// then repeatedly fold in infix operators whose precedence exceeds
// minPrecedence.
func (p *Parser) parseExpression(minPrecedence int) ast.Node {
	prefix, ok := p.prefixParseFns[p.cur().Kind]
	if !ok {
		p.failParse(p.cur().Pos, "unexpected token %s in expression", p.cur().Kind)
		return nil
	}
	left := prefix()

	for !p.fatal && minPrecedence < p.curPrecedence() {
		infix, ok := p.infixParseFns[p.cur().Kind]
		if !ok {
			return left
		}
		left = infix(left)
	}

	// Ternary binds looser than every binary operator: `a or b if c else d`
	// parses as (a or b) if c else d, so it's only folded in here, after
	// the ordinary infix loop has already consumed everything tighter.
	if !p.fatal && minPrecedence < TERNARY_PREC && p.cur().Kind == token.IF {
		left = p.parseTernary(left)
	}
	return left
}

// parseTernary builds the `value if condition else alternative` form.
// trueValue is whatever was already parsed to its left.
func (p *Parser) parseTernary(trueValue ast.Node) ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'if'
	condition := p.parseExpression(TERNARY_PREC)
	if !p.expect(token.ELSE) {
		return trueValue
	}
	falseValue := p.parseExpression(TERNARY_PREC)

	node := ast.NewOperator(pos, ast.OpTernary)
	node.Set(ast.CONDITION, condition)
	node.Set(ast.VALUES, map[string]ast.Node{"true": trueValue, "false": falseValue})
	return node
}
