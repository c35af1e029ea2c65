package parser

import (
	"testing"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/indent"
	"github.com/antonio-tresol/fangless-go/internal/lexer"
	"github.com/antonio-tresol/fangless-go/internal/token"
	"github.com/antonio-tresol/fangless-go/internal/tokstream"
)

// parseSource runs source through the full front end up to the parser and
// fails the test on any lexing or indentation error, returning the parsed
// statements and whatever diagnostics the parser itself raised.
func parseSource(t *testing.T, source string) ([]ast.Node, []error) {
	t.Helper()

	l := lexer.New(source)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if errs := l.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}

	indented, err := indent.Process(toks)
	if err != nil {
		t.Fatalf("unexpected indentation error: %v", err)
	}

	finalized := tokstream.Finalize(indented)
	p := New(finalized, source)
	nodes, diags := p.Parse()

	errs := make([]error, len(diags))
	for i, d := range diags {
		errs[i] = d
	}
	return nodes, errs
}

func TestSimpleAssignmentBuildsVarDeclaration(t *testing.T) {
	nodes, errs := parseSource(t, "x = 1\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(nodes))
	}
	op, ok := nodes[0].(*ast.OperatorNode)
	if !ok || op.Operator != ast.OpVarDeclaration {
		t.Fatalf("expected var_declare, got %v", nodes[0])
	}
	if name, ok := op.GetLeftOperand().(*ast.NameNode); !ok || name.ID != "x" {
		t.Fatalf("expected LEFT to be Name(x), got %v", op.GetLeftOperand())
	}
}

func TestReassignmentOfDefinedNameBuildsAssignation(t *testing.T) {
	nodes, errs := parseSource(t, "x = 1\nx = 2\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(nodes))
	}
	second, ok := nodes[1].(*ast.OperatorNode)
	if !ok || second.Operator != ast.OpAssignation {
		t.Fatalf("expected the second `x = 2` to build an assignation, got %v", nodes[1])
	}
}

func TestUnpackAssignmentBuildsMultiTargetNode(t *testing.T) {
	nodes, errs := parseSource(t, "a, b = 1, 2\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	op, ok := nodes[0].(*ast.OperatorNode)
	if !ok || op.Operator != ast.OpUnpackAssign {
		t.Fatalf("expected unpack_assign, got %v", nodes[0])
	}
	left, ok := op.Get(ast.LEFT).([]ast.Node)
	if !ok || len(left) != 2 {
		t.Fatalf("expected LEFT to hold 2 target names, got %v", op.Get(ast.LEFT))
	}
}

func TestChainedAssignmentBuildsRightAssociativeNest(t *testing.T) {
	nodes, _ := parseSource(t, "a = b = 1\n")
	outer, ok := nodes[0].(*ast.OperatorNode)
	if !ok || outer.Operator != ast.OpVarDeclaration {
		t.Fatalf("expected outer var_declare for a, got %v", nodes[0])
	}
	inner, ok := outer.GetRightOperand().(*ast.OperatorNode)
	if !ok || inner.Operator != ast.OpVarDeclaration {
		t.Fatalf("expected a's RIGHT to be another var_declare for b, got %v", outer.GetRightOperand())
	}
}

func TestBinaryOperatorsFoldLeftAssociatively(t *testing.T) {
	nodes, errs := parseSource(t, "x = 1 - 2 - 3\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	assign := nodes[0].(*ast.OperatorNode)
	top := assign.GetRightOperand().(*ast.OperatorNode)
	if top.Operator != ast.OpSub {
		t.Fatalf("expected top operator to be -, got %s", top.Operator)
	}
	left, ok := top.GetLeftOperand().(*ast.OperatorNode)
	if !ok || left.Operator != ast.OpSub {
		t.Fatalf("expected (1 - 2) - 3 to fold left, got %v", top.GetLeftOperand())
	}
}

func TestPowerOperatorIsRightAssociative(t *testing.T) {
	nodes, _ := parseSource(t, "x = 2 ** 3 ** 2\n")
	assign := nodes[0].(*ast.OperatorNode)
	top := assign.GetRightOperand().(*ast.OperatorNode)
	if top.Operator != ast.OpPow {
		t.Fatalf("expected top operator to be **, got %s", top.Operator)
	}
	right, ok := top.GetRightOperand().(*ast.OperatorNode)
	if !ok || right.Operator != ast.OpPow {
		t.Fatalf("expected 2 ** (3 ** 2) to fold right, got %v", top.GetRightOperand())
	}
}

func TestTernaryBindsLooserThanBinaryOperators(t *testing.T) {
	nodes, errs := parseSource(t, "flag = true\nx = 1 + 2 if flag else 3\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	assign := nodes[1].(*ast.OperatorNode)
	ternary, ok := assign.GetRightOperand().(*ast.OperatorNode)
	if !ok || ternary.Operator != ast.OpTernary {
		t.Fatalf("expected a ternary node, got %v", assign.GetRightOperand())
	}
	values := ternary.Get(ast.VALUES).(map[string]ast.Node)
	trueVal, ok := values["true"].(*ast.OperatorNode)
	if !ok || trueVal.Operator != ast.OpAdd {
		t.Fatalf("expected the true branch to be the whole `1 + 2`, got %v", values["true"])
	}
}

func TestParenthesizedExpressionMarksItsTopNode(t *testing.T) {
	nodes, errs := parseSource(t, "x = (1 + 2)\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	assign := nodes[0].(*ast.OperatorNode)
	add, ok := assign.GetRightOperand().(*ast.OperatorNode)
	if !ok || !add.Parenthesized {
		t.Fatalf("expected the parenthesized `1 + 2` to carry Parenthesized=true, got %v", assign.GetRightOperand())
	}
}

func TestParenthesizedSingleElementIsNotATuple(t *testing.T) {
	nodes, _ := parseSource(t, "x = (1)\n")
	assign := nodes[0].(*ast.OperatorNode)
	lit, ok := assign.GetRightOperand().(*ast.LiteralNode)
	if !ok {
		t.Fatalf("expected `(1)` to stay a bare literal, got %v", assign.GetRightOperand())
	}
	if _, isTuple := lit.Value.([]ast.Node); isTuple {
		t.Fatalf("expected `(1)` to stay a bare literal, not a tuple, got %v", lit.Value)
	}
}

func TestTrailingCommaTupleBuildsListValuedLiteral(t *testing.T) {
	nodes, _ := parseSource(t, "x = (1,)\n")
	assign := nodes[0].(*ast.OperatorNode)
	lit, ok := assign.GetRightOperand().(*ast.LiteralNode)
	if !ok {
		t.Fatalf("expected a tuple literal, got %v", assign.GetRightOperand())
	}
	elements, ok := lit.Value.([]ast.Node)
	if !ok || len(elements) != 1 {
		t.Fatalf("expected a single-element tuple, got %v", lit.Value)
	}
}

func TestAttributeChainGrowsRightSpine(t *testing.T) {
	nodes, errs := parseSource(t, "x = 1\ny = x.a.b.c\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	assign := nodes[1].(*ast.OperatorNode)
	chain, ok := assign.GetRightOperand().(*ast.OperatorNode)
	if !ok || chain.Operator != ast.OpAttributeCall {
		t.Fatalf("expected an attribute_call chain, got %v", assign.GetRightOperand())
	}
	rightmost, ok := chain.GetRightmost().(*ast.NameNode)
	if !ok || rightmost.ID != "c" {
		t.Fatalf("expected rightmost leaf Name(c), got %v", chain.GetRightmost())
	}
}

func TestMethodCallPromotesCalleeNameFromAttributeChain(t *testing.T) {
	nodes, errs := parseSource(t, "x = 1\ny = x.a.b(1, 2)\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	assign := nodes[1].(*ast.OperatorNode)
	method, ok := assign.GetRightOperand().(*ast.OperatorNode)
	if !ok || method.Operator != ast.OpMethodCall {
		t.Fatalf("expected a method_call node, got %v", assign.GetRightOperand())
	}
	call, ok := method.Get(ast.METHOD).(*ast.OperatorNode)
	if !ok || call.Operator != ast.OpFunctionCall {
		t.Fatalf("expected METHOD to hold a function_call, got %v", method.Get(ast.METHOD))
	}
	name := call.Get(ast.FUNCTION_NAME).(*ast.NameNode)
	if name.ID != "b" {
		t.Fatalf("expected the promoted callee name to be b, got %s", name.ID)
	}
}

func TestIndexingVsSlicingDisambiguatedByColon(t *testing.T) {
	nodes, errs := parseSource(t, "xs = [1, 2, 3]\ny = xs[0]\nz = xs[0:2]\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	idx := nodes[1].(*ast.OperatorNode).GetRightOperand().(*ast.OperatorNode)
	if idx.Operator != ast.OpIndexing {
		t.Fatalf("expected xs[0] to build an indexing node, got %s", idx.Operator)
	}
	slice := nodes[2].(*ast.OperatorNode).GetRightOperand().(*ast.OperatorNode)
	if slice.Operator != ast.OpSlicing {
		t.Fatalf("expected xs[0:2] to build a slicing node, got %s", slice.Operator)
	}
}

func TestDictVsSetDisambiguatedByColon(t *testing.T) {
	nodes, errs := parseSource(t, "d = {1: 2}\ns = {1, 2}\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	dictLit := nodes[0].(*ast.OperatorNode).GetRightOperand().(*ast.LiteralNode)
	if _, ok := dictLit.Value.(map[ast.Node]ast.Node); !ok {
		t.Fatalf("expected {1: 2} to build a dict literal, got %T", dictLit.Value)
	}
	setLit := nodes[1].(*ast.OperatorNode).GetRightOperand().(*ast.LiteralNode)
	if _, ok := setLit.Value.([]ast.Node); !ok {
		t.Fatalf("expected {1, 2} to build a sequence-valued literal, got %T", setLit.Value)
	}
}

func TestIfElifElseChainThreadsThroughAlternative(t *testing.T) {
	source := "x = 1\nif x > 0:\n    y = 1\nelif x == 0:\n    y = 0\nelse:\n    y = -1\n"
	nodes, errs := parseSource(t, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	ifNode := nodes[1].(*ast.OperatorNode)
	if ifNode.Operator != ast.OpIf {
		t.Fatalf("expected an if node, got %s", ifNode.Operator)
	}
	elifNode, ok := ifNode.Get(ast.ALTERNATIVE).(*ast.OperatorNode)
	if !ok || elifNode.Operator != ast.OpElif {
		t.Fatalf("expected ALTERNATIVE to be an elif node, got %v", ifNode.Get(ast.ALTERNATIVE))
	}
	elseBody, ok := elifNode.Get(ast.ALTERNATIVE).([]ast.Node)
	if !ok || len(elseBody) != 1 {
		t.Fatalf("expected elif's ALTERNATIVE to be a 1-statement else body, got %v", elifNode.Get(ast.ALTERNATIVE))
	}
}

func TestForLoopWithMultipleSymbolsPopulatesSymbols(t *testing.T) {
	nodes, errs := parseSource(t, "items = [1, 2]\nfor k, v in items:\n    x = k\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	forNode := nodes[1].(*ast.OperatorNode)
	if forNode.Operator != ast.OpFor {
		t.Fatalf("expected a for node, got %s", forNode.Operator)
	}
	symbols, ok := forNode.Get(ast.SYMBOLS).([]ast.Node)
	if !ok || len(symbols) != 2 {
		t.Fatalf("expected 2 loop symbols, got %v", forNode.Get(ast.SYMBOLS))
	}
}

func TestBreakOutsideLoopIsSemanticError(t *testing.T) {
	_, errs := parseSource(t, "break\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for break outside a loop")
	}
}

func TestReturnOutsideFunctionIsSemanticError(t *testing.T) {
	_, errs := parseSource(t, "return 1\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for return outside a function")
	}
}

func TestReferenceToUndefinedNameIsSemanticError(t *testing.T) {
	_, errs := parseSource(t, "y = x + 1\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for referencing undefined name x")
	}
}

func TestFunctionDeclarationWithDefaultParameterAfterPositionalIsRejected(t *testing.T) {
	_, errs := parseSource(t, "def f(a=1, b):\n    return a\n")
	if len(errs) == 0 {
		t.Fatal("expected a parse error for a non-default parameter following a defaulted one")
	}
}

func TestFunctionDeclarationBuildsParameterAndReturnNode(t *testing.T) {
	nodes, errs := parseSource(t, "def add(a, b):\n    return a + b\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	fn := nodes[0].(*ast.OperatorNode)
	if fn.Operator != ast.OpFuncDeclaration {
		t.Fatalf("expected a func_declare node, got %s", fn.Operator)
	}
	params := fn.Get(ast.ARGUMENTS).([]ast.Node)
	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	body := fn.Get(ast.BODY).([]ast.Node)
	ret, ok := body[0].(*ast.OperatorNode)
	if !ok || ret.Operator != ast.OpReturn {
		t.Fatalf("expected the body's single statement to be a return, got %v", body[0])
	}
}

func TestClassDeclarationWithParentSetsParentClass(t *testing.T) {
	source := "class Animal:\n    legs = 4\nclass Dog(Animal):\n    sound = 1\n"
	nodes, errs := parseSource(t, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	dog := nodes[1].(*ast.OperatorNode)
	if dog.Operator != ast.OpClassDeclaration {
		t.Fatalf("expected a class_declare node, got %s", dog.Operator)
	}
	parent, ok := dog.Get(ast.PARENT_CLASS).(*ast.NameNode)
	if !ok || parent.ID != "Animal" {
		t.Fatalf("expected PARENT_CLASS to be Animal, got %v", dog.Get(ast.PARENT_CLASS))
	}
}

func TestSelfInheritanceIsRejectedDuringParsing(t *testing.T) {
	_, errs := parseSource(t, "class A(A):\n    pass\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for a class inheriting from itself")
	}
}

func TestSelfIsUsableInsideMethodWithoutPriorDefinition(t *testing.T) {
	source := "class Point:\n    def show(self):\n        return self.x\n"
	_, errs := parseSource(t, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
}

func TestAnnotatedVarDeclarationThreadsHintOntoNode(t *testing.T) {
	nodes, errs := parseSource(t, "x: int = 1\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	op, ok := nodes[0].(*ast.OperatorNode)
	if !ok || op.Operator != ast.OpVarDeclaration {
		t.Fatalf("expected var_declare, got %v", nodes[0])
	}
	if name, ok := op.GetLeftOperand().(*ast.NameNode); !ok || name.ID != "x" {
		t.Fatalf("expected LEFT to be Name(x), got %v", op.GetLeftOperand())
	}
	hint, ok := op.Get(ast.HINT).(*ast.TypeHint)
	if !ok || hint.Name != "int" {
		t.Fatalf("expected HINT to be the int type hint, got %v", op.Get(ast.HINT))
	}
}

func TestAnnotatedReassignmentOfDefinedNameBuildsAssignation(t *testing.T) {
	nodes, errs := parseSource(t, "x: int = 1\nx: int = 2\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	second, ok := nodes[1].(*ast.OperatorNode)
	if !ok || second.Operator != ast.OpAssignation {
		t.Fatalf("expected the second annotated `x` to build an assignation, got %v", nodes[1])
	}
}

func TestAnnotatedDeclarationWithContainerHintParsesBracketedElements(t *testing.T) {
	nodes, errs := parseSource(t, "xs: list[int] = [1, 2]\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	op := nodes[0].(*ast.OperatorNode)
	hint, ok := op.Get(ast.HINT).(*ast.TypeHint)
	if !ok || hint.Name != "list" || len(hint.Elements) != 1 || hint.Elements[0].Name != "int" {
		t.Fatalf("expected a list[int] hint, got %v", op.Get(ast.HINT))
	}
}

func TestUnbracketedContainerHintIsSemanticError(t *testing.T) {
	_, errs := parseSource(t, "xs: list = [1, 2]\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for an unbracketed container hint")
	}
}

func TestUnbracketedContainerHintOnParameterIsSemanticError(t *testing.T) {
	_, errs := parseSource(t, "def f(xs: dict):\n    return xs\n")
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for an unbracketed container hint on a parameter")
	}
}
