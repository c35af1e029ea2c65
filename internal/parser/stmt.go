package parser

import (
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/semantic"
	"github.com/antonio-tresol/fangless-go/internal/token"
)

// compoundAssignOps maps a compound-assignment token to the OperatorTag it
// builds. Assignment itself is deliberately NOT part of the expression
// precedence table (precedences in parser.go): climbing it as if it were
// just another highest-precedence infix operator would parse `a = b + c`
// as `(a = b) + c`. Every assignment form is parsed here, at statement
// level, once the left-hand side has already been fully parsed as an
// ordinary expression.
var compoundAssignOps = map[token.Kind]ast.OperatorTag{
	token.PLUS_EQUAL:         ast.OpAddAssign,
	token.MINUS_EQUAL:        ast.OpSubAssign,
	token.STAR_EQUAL:         ast.OpMulAssign,
	token.SLASH_EQUAL:        ast.OpDivAssign,
	token.DOUBLE_SLASH_EQUAL: ast.OpFDivAssign,
	token.MOD_EQUAL:          ast.OpModAssign,
	token.DOUBLE_STAR_EQUAL:  ast.OpPowAssign,
	token.AMPERSAND_EQUAL:    ast.OpAndAssign,
	token.BAR_EQUAL:          ast.OpOrAssign,
	token.HAT_EQUAL:          ast.OpXorAssign,
	token.LEFT_SHIFT_EQUAL:   ast.OpShlAssign,
	token.RIGHT_SHIFT_EQUAL:  ast.OpShrAssign,
}

// parseStatement dispatches on the leading token of a statement.
func (p *Parser) parseStatement() ast.Node {
	switch p.cur().Kind {
	case token.DEF:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.IF:
		return p.parseConditionalNode(ast.OpIf)
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.PASS:
		return p.parsePassStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.DOT:
		return p.parseEllipsisBody()
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement covers assignment (simple, unpack, compound),
// annotated variable declarations, and bare expression statements (a
// standalone call, typically).
func (p *Parser) parseSimpleStatement() ast.Node {
	if p.cur().Kind == token.NAME {
		if node, ok := p.tryAnnotatedDeclaration(); ok {
			return node
		}
		if names, ok := p.matchNameAssignTargets(); ok {
			return p.buildAssignment(names)
		}
	}

	left := p.parseExpression(LOWEST)
	if p.fatal {
		return left
	}
	if p.cur().Kind == token.EQUAL || compoundAssignOps[p.cur().Kind] != "" {
		return p.parseAssignmentFrom(left)
	}
	return left
}

// matchNameAssignTargets looks ahead (without disturbing parser state
// unless the pattern matches) for a `NAME (, NAME)* =` prefix, the shape
// of a simple or unpack assignment target list. On match it consumes
// exactly that prefix, including the '=', and returns the target tokens.
func (p *Parser) matchNameAssignTargets() ([]token.Token, bool) {
	var names []token.Token
	offset := 0
	for {
		tok := p.peekAt(offset)
		if tok.Kind != token.NAME {
			return nil, false
		}
		names = append(names, tok)
		offset++
		sep := p.peekAt(offset)
		switch sep.Kind {
		case token.COMMA:
			offset++
			continue
		case token.EQUAL:
			for i := 0; i < offset; i++ {
				p.advance()
			}
			p.advance() // consume '='
			return names, true
		default:
			return nil, false
		}
	}
}

// tryAnnotatedDeclaration recognizes a `NAME : hint = value` prefix, the
// shape of an annotated variable declaration. A NAME immediately followed
// by COLON at statement level is unambiguous (no other statement shape
// starts this way), so this commits to the annotated-declaration path as
// soon as the COLON is seen rather than backtracking. Unpacking and type
// annotation don't combine in this grammar: only a single target is
// recognized here. The parsed hint is threaded onto the resulting
// var_declare/assign node's HINT slot, the same way parseParameterList
// threads one onto a parameter.
func (p *Parser) tryAnnotatedDeclaration() (ast.Node, bool) {
	if p.peekAt(1).Kind != token.COLON {
		return nil, false
	}
	tok := p.cur()
	p.advance() // consume NAME
	p.advance() // consume ':'
	hint := p.parseTypeHint()
	if !p.expect(token.EQUAL) {
		return nil, true
	}
	value := p.parseAssignmentValue()

	name := ast.NewName(tok.Pos, tok.Literal)
	tag := ast.OpVarDeclaration
	if p.checker.IsDefined(tok.Literal) {
		tag = ast.OpAssignation
	}
	p.checker.Define(tok.Literal, semantic.Variable)
	node := ast.NewOperator(tok.Pos, tag)
	node.SetLeft(name)
	node.SetRight(value)
	node.Set(ast.HINT, hint)
	return node, true
}

// buildAssignment builds a var_declare/assign node for a single target, or
// an unpack_assign node for multiple targets. Targets are never run
// through checkReference: they are binding occurrences, not references.
func (p *Parser) buildAssignment(targets []token.Token) ast.Node {
	value := p.parseAssignmentValue()

	if len(targets) == 1 {
		tok := targets[0]
		name := ast.NewName(tok.Pos, tok.Literal)
		tag := ast.OpVarDeclaration
		if p.checker.IsDefined(tok.Literal) {
			tag = ast.OpAssignation
		}
		p.checker.Define(tok.Literal, semantic.Variable)
		node := ast.NewOperator(tok.Pos, tag)
		node.SetLeft(name)
		node.SetRight(value)
		return node
	}

	names := make([]ast.Node, len(targets))
	for i, tok := range targets {
		names[i] = ast.NewName(tok.Pos, tok.Literal)
		p.checker.Define(tok.Literal, semantic.Variable)
	}
	node := ast.NewOperator(targets[0].Pos, ast.OpUnpackAssign)
	node.Set(ast.LEFT, names)
	node.SetRight(value)
	return node
}

// parseAssignmentValue parses the right-hand side of an assignment,
// recursing into another assignment when the value itself begins a
// `NAME (, NAME)* =` prefix, so `a = b = c` builds as a right-associative
// chain of var_declare/assign nodes rather than an expression. A bare
// comma-separated value (`a, b = 1, 2`) builds a tuple literal.
func (p *Parser) parseAssignmentValue() ast.Node {
	if p.cur().Kind == token.NAME {
		if names, ok := p.matchNameAssignTargets(); ok {
			return p.buildAssignment(names)
		}
	}
	first := p.parseExpression(LOWEST)
	if p.fatal || p.cur().Kind != token.COMMA {
		return first
	}
	elements := []ast.Node{first}
	for !p.fatal && p.cur().Kind == token.COMMA {
		p.advance()
		elements = append(elements, p.parseExpression(LOWEST))
	}
	return ast.NewLiteral(first.Pos(), elements)
}

// parseAssignmentFrom handles assignment whose target is not a bare name
// list — an attribute or index expression already parsed as left, e.g.
// `self.x = 1` or `counts[key] += 1`.
func (p *Parser) parseAssignmentFrom(left ast.Node) ast.Node {
	tok := p.cur()
	if tok.Kind == token.EQUAL {
		p.advance()
		value := p.parseAssignmentValue()
		node := ast.NewOperator(tok.Pos, ast.OpAssignation)
		node.SetLeft(left)
		node.SetRight(value)
		return node
	}
	tag, ok := compoundAssignOps[tok.Kind]
	if !ok {
		p.failParse(tok.Pos, "unexpected token %s after expression", tok.Kind)
		return left
	}
	p.advance()
	value := p.parseAssignmentValue()
	node := ast.NewOperator(tok.Pos, tag)
	node.SetLeft(left)
	node.SetRight(value)
	return node
}

// parseConditionalNode builds one link of an if/elif/else chain. tag is
// OpIf for the head call and OpElif for every recursive link; the chain
// is threaded through OperatorNode.AppendAlternative.
func (p *Parser) parseConditionalNode(tag ast.OperatorTag) ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'if' or 'elif'
	condition := p.parseExpression(LOWEST)

	node := ast.NewOperator(pos, tag)
	node.Set(ast.CONDITION, condition)

	p.checker.PushScope()
	body := p.parseBlock()
	p.checker.PopScope()
	node.Set(ast.BODY, body)

	switch p.cur().Kind {
	case token.ELIF:
		node.AppendAlternative(p.parseConditionalNode(ast.OpElif))
	case token.ELSE:
		p.advance()
		p.checker.PushScope()
		elseBody := p.parseBlock()
		p.checker.PopScope()
		node.AppendAlternative(elseBody)
	}
	return node
}

func (p *Parser) parseWhileStatement() ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'while'
	condition := p.parseExpression(LOWEST)

	node := ast.NewOperator(pos, ast.OpWhile)
	node.Set(ast.CONDITION, condition)

	p.checker.EnterLoop()
	p.checker.PushScope()
	body := p.parseBlock()
	p.checker.PopScope()
	p.checker.ExitLoop()
	node.Set(ast.BODY, body)

	if p.cur().Kind == token.ELSE {
		p.advance()
		p.checker.PushScope()
		elseBody := p.parseBlock()
		p.checker.PopScope()
		node.Set(ast.ALTERNATIVE, elseBody)
	}
	return node
}

// parseForStatement builds a `for` node with SYMBOLS holding one or more
// loop variables (unpacking is legal: `for k, v in items:`) and
// FOR_LITERAL holding the iterable expression.
func (p *Parser) parseForStatement() ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'for'

	var symbols []ast.Node
	for {
		if p.cur().Kind != token.NAME {
			p.failParse(p.cur().Pos, "expected a loop variable name, got %s", p.cur().Kind)
			return nil
		}
		tok := p.cur()
		p.advance()
		symbols = append(symbols, ast.NewName(tok.Pos, tok.Literal))
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if !p.expect(token.IN) {
		return nil
	}
	iterable := p.parseExpression(LOWEST)

	node := ast.NewOperator(pos, ast.OpFor)
	node.Set(ast.SYMBOLS, symbols)
	node.Set(ast.FOR_LITERAL, iterable)

	p.checker.EnterLoop()
	p.checker.PushScope()
	for _, s := range symbols {
		if name, ok := s.(*ast.NameNode); ok {
			p.checker.Define(name.ID, semantic.Variable)
		}
	}
	body := p.parseBlock()
	p.checker.PopScope()
	p.checker.ExitLoop()
	node.Set(ast.BODY, body)

	if p.cur().Kind == token.ELSE {
		p.advance()
		p.checker.PushScope()
		elseBody := p.parseBlock()
		p.checker.PopScope()
		node.Set(ast.ALTERNATIVE, elseBody)
	}
	return node
}

func (p *Parser) parseReturnStatement() ast.Node {
	pos := p.cur().Pos
	if err := p.checker.CheckReturn(); err != nil {
		p.failSemantic(pos, "%s", err.Error())
	}
	p.advance() // consume 'return'

	node := ast.NewOperator(pos, ast.OpReturn)
	switch p.cur().Kind {
	case token.NEWLINE, token.DEDENT, token.END_TOKEN:
		return node
	}
	values := []ast.Node{p.parseExpression(LOWEST)}
	for p.cur().Kind == token.COMMA {
		p.advance()
		values = append(values, p.parseExpression(LOWEST))
	}
	node.Set(ast.VALUES, values)
	return node
}

func (p *Parser) parsePassStatement() ast.Node {
	pos := p.cur().Pos
	if err := p.checker.CheckPass(); err != nil {
		p.failSemantic(pos, "%s", err.Error())
	}
	p.advance()
	return ast.NewOperator(pos, ast.OpPass)
}

func (p *Parser) parseBreakStatement() ast.Node {
	pos := p.cur().Pos
	if err := p.checker.CheckBreakOrContinue("break"); err != nil {
		p.failSemantic(pos, "%s", err.Error())
	}
	p.advance()
	return ast.NewOperator(pos, ast.OpBreak)
}

func (p *Parser) parseContinueStatement() ast.Node {
	pos := p.cur().Pos
	if err := p.checker.CheckBreakOrContinue("continue"); err != nil {
		p.failSemantic(pos, "%s", err.Error())
	}
	p.advance()
	return ast.NewOperator(pos, ast.OpContinue)
}

// parseEllipsisBody handles a `...` used as an entire function body (a
// stub/contract marker). There's no dedicated ELLIPSIS token kind, so this
// matches three consecutive DOT tokens directly.
func (p *Parser) parseEllipsisBody() ast.Node {
	pos := p.cur().Pos
	if err := p.checker.CheckEllipsisBody(); err != nil {
		p.failSemantic(pos, "%s", err.Error())
	}
	for i := 0; i < 3; i++ {
		if !p.expect(token.DOT) {
			return nil
		}
	}
	return ast.NewOperator(pos, ast.OpEllipsis)
}

// parseFunctionDeclaration builds a func_declare node: name, parameter
// list (with positional-before-defaulted ordering enforced in
// parseParameterList), an optional return type hint, and a body parsed
// with function depth incremented. The loop depth is left as it is, so a
// break inside a def nested in a loop passes the loop check.
func (p *Parser) parseFunctionDeclaration() ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'def'

	if p.cur().Kind != token.NAME {
		p.failParse(p.cur().Pos, "expected a function name, got %s", p.cur().Kind)
		return nil
	}
	nameTok := p.cur()
	p.advance()
	funcName := ast.NewName(nameTok.Pos, nameTok.Literal)
	p.checker.DeclareFunction(nameTok.Literal)

	if !p.expect(token.L_PARENTHESIS) {
		return nil
	}
	params := p.parseParameterList()
	p.expect(token.R_PARENTHESIS)

	node := ast.NewOperator(pos, ast.OpFuncDeclaration)
	node.Set(ast.FUNCTION_NAME, funcName)
	node.Set(ast.ARGUMENTS, params)

	if p.cur().Kind == token.ARROW {
		p.advance()
		node.Set(ast.HINT, p.parseTypeHint())
	}

	p.checker.EnterFunction()
	p.checker.PushScope()
	for _, param := range params {
		op, ok := param.(*ast.OperatorNode)
		if !ok {
			continue
		}
		if name, ok := op.Get(ast.ARGUMENT).(*ast.NameNode); ok {
			p.checker.Define(name.ID, semantic.Variable)
		}
	}
	body := p.parseBlock()
	p.checker.PopScope()
	p.checker.ExitFunction()
	node.Set(ast.BODY, body)
	return node
}

// parseClassDeclaration builds a class_declare node: name, an optional
// single parent class (multiple inheritance is not supported), and a body
// parsed with class depth incremented so `self` resolves without a prior
// definition.
func (p *Parser) parseClassDeclaration() ast.Node {
	pos := p.cur().Pos
	p.advance() // consume 'class'

	if p.cur().Kind != token.NAME {
		p.failParse(p.cur().Pos, "expected a class name, got %s", p.cur().Kind)
		return nil
	}
	nameTok := p.cur()
	p.advance()
	className := ast.NewName(nameTok.Pos, nameTok.Literal)

	var parentName *ast.NameNode
	if p.cur().Kind == token.L_PARENTHESIS {
		p.advance()
		if p.cur().Kind == token.NAME {
			parentTok := p.cur()
			p.advance()
			parentName = ast.NewName(parentTok.Pos, parentTok.Literal)
			if err := p.checker.CheckSelfInheritance(nameTok.Literal, parentTok.Literal); err != nil {
				p.failSemantic(parentTok.Pos, "%s", err.Error())
			}
			if kind, ok := p.checker.Resolve(parentTok.Literal); !ok || kind != semantic.Class {
				p.checker.MarkUndefinedClass(parentTok.Literal)
			}
		}
		p.expect(token.R_PARENTHESIS)
	}

	p.checker.DeclareClass(nameTok.Literal)

	node := ast.NewOperator(pos, ast.OpClassDeclaration)
	node.Set(ast.CLASS_NAME, className)
	if parentName != nil {
		node.Set(ast.PARENT_CLASS, parentName)
	}

	p.checker.EnterClass()
	p.checker.PushScope()
	body := p.parseBlock()
	p.checker.PopScope()
	p.checker.ExitClass()
	node.Set(ast.BODY, body)
	return node
}

// parseParameterList parses a comma-separated parameter list, each
// parameter an OpParameter node carrying ARGUMENT (the name), optionally
// HINT (a type annotation) and DEFAULT (a default value expression). A
// positional parameter may not follow a defaulted one.
func (p *Parser) parseParameterList() []ast.Node {
	var params []ast.Node
	seenDefault := false
	for p.cur().Kind != token.R_PARENTHESIS {
		if p.cur().Kind != token.NAME {
			p.failParse(p.cur().Pos, "expected a parameter name, got %s", p.cur().Kind)
			return params
		}
		nameTok := p.cur()
		p.advance()
		name := ast.NewName(nameTok.Pos, nameTok.Literal)

		param := ast.NewOperator(nameTok.Pos, ast.OpParameter)
		param.Set(ast.ARGUMENT, name)

		if p.cur().Kind == token.COLON {
			p.advance()
			param.Set(ast.HINT, p.parseTypeHint())
		}

		if p.cur().Kind == token.EQUAL {
			p.advance()
			seenDefault = true
			param.Set(ast.DEFAULT, p.parseExpression(LOWEST))
		} else if seenDefault {
			p.failParse(nameTok.Pos, "non-default argument %q follows a default argument", nameTok.Literal)
		}

		params = append(params, param)
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return params
}

// parseTypeHint parses NAME, NAME[hint, ...], hint | hint, or None,
// validating every base name against ast.BaseTypeNames. A container name
// (ast.ContainerTypeNames: list/set/tuple/dict) without a bracketed
// element series is a fatal semantic error, not an optional omission.
func (p *Parser) parseTypeHint() *ast.TypeHint {
	if p.cur().Kind == token.NONE {
		p.advance()
		return p.foldUnion(&ast.TypeHint{IsNone: true})
	}
	if p.cur().Kind != token.NAME {
		p.failParse(p.cur().Pos, "expected a type name, got %s", p.cur().Kind)
		return nil
	}
	nameTok := p.cur()
	p.advance()

	lower := strings.ToLower(nameTok.Literal)
	if !ast.BaseTypeNames[lower] {
		p.failParse(nameTok.Pos, "unknown type hint %q", nameTok.Literal)
		return nil
	}
	if ast.ContainerTypeNames[lower] && p.cur().Kind != token.L_BRACKET {
		p.failSemantic(nameTok.Pos, "container hint %q requires a bracketed element type list", nameTok.Literal)
		return nil
	}
	hint := &ast.TypeHint{Name: nameTok.Literal}

	if p.cur().Kind == token.L_BRACKET {
		p.advance()
		for {
			hint.Elements = append(hint.Elements, p.parseTypeHint())
			if p.cur().Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.R_BRACKET)
	}

	return p.foldUnion(hint)
}

// foldUnion folds a trailing `| hint` series into a single TypeHint whose
// Union slice holds every alternative, flattening a right-recursive parse
// of `a | b | c` into one flat Union rather than nested unions.
func (p *Parser) foldUnion(hint *ast.TypeHint) *ast.TypeHint {
	if p.cur().Kind != token.BAR {
		return hint
	}
	p.advance()
	rest := p.parseTypeHint()
	union := []*ast.TypeHint{hint}
	if rest != nil {
		if len(rest.Union) > 0 {
			union = append(union, rest.Union...)
		} else {
			union = append(union, rest)
		}
	}
	return &ast.TypeHint{Union: union}
}
