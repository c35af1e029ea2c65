// Package emitter walks a parsed AST and produces C++ source text targeting
// a runtime library of boxed value types: a dispatch table keyed on
// operator tag drives one handler per construct, filling in several
// constructs (method_call, attribute_call, return, while, for,
// func_declaration, class_declaration) from first principles where no
// reference implementation existed to follow.
package emitter

import (
	"fmt"
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/ast"
	"github.com/antonio-tresol/fangless-go/internal/semantic"
)

type emitHandler func(*Emitter, *ast.OperatorNode) string

// Emitter owns one code-generation pass: the operator dispatch table, the
// banner text (configurable via internal/config), and the small amount of
// generation-time state a tree walk can't carry through return values
// alone — the active loop-else flag and the active function's
// argument-refresh block.
type Emitter struct {
	handlers map[ast.OperatorTag]emitHandler
	banner   string

	loopFlagStack   []string
	flagCounter     int
	argRefreshStack []string
}

// New creates an Emitter. banner is prepended verbatim as the first line of
// generated output.
func New(banner string) *Emitter {
	e := &Emitter{banner: banner}
	e.handlers = map[ast.OperatorTag]emitHandler{
		ast.OpTernary:          (*Emitter).visitTernary,
		ast.OpIf:               (*Emitter).visitConditional,
		ast.OpElif:             (*Emitter).visitConditional,
		ast.OpFunctionCall:     (*Emitter).visitFunctionCall,
		ast.OpMethodCall:       (*Emitter).visitMethodCall,
		ast.OpAttributeCall:    (*Emitter).visitAttributeCall,
		ast.OpSlicing:          (*Emitter).visitSlicing,
		ast.OpIndexing:         (*Emitter).visitIndexing,
		ast.OpVarDeclaration:   (*Emitter).visitAssignation,
		ast.OpAssignation:      (*Emitter).visitAssignation,
		ast.OpUnpackAssign:     (*Emitter).visitUnpackAssignation,
		ast.OpReturn:           (*Emitter).visitReturn,
		ast.OpWhile:            (*Emitter).visitWhile,
		ast.OpFor:              (*Emitter).visitFor,
		ast.OpFuncDeclaration:  (*Emitter).visitFuncDeclarationStatement,
		ast.OpClassDeclaration: (*Emitter).visitClassDeclarationStatement,
		ast.OpPass:             (*Emitter).visitPass,
		ast.OpBreak:            (*Emitter).visitBreak,
		ast.OpContinue:         (*Emitter).visitContinue,
		ast.OpEllipsis:         (*Emitter).visitPass,

		ast.OpAdd: (*Emitter).visitUnaryOrBinary,
		ast.OpSub: (*Emitter).visitUnaryOrBinary,

		ast.OpMul:        (*Emitter).visitDirectBinary,
		ast.OpDiv:        (*Emitter).visitDirectBinary,
		ast.OpFloorDiv:   (*Emitter).visitDirectBinary,
		ast.OpMod:        (*Emitter).visitDirectBinary,
		ast.OpPow:        (*Emitter).visitDirectBinary,
		ast.OpBitAnd:     (*Emitter).visitDirectBinary,
		ast.OpBitOr:      (*Emitter).visitDirectBinary,
		ast.OpBitXor:     (*Emitter).visitDirectBinary,
		ast.OpShiftLeft:  (*Emitter).visitDirectBinary,
		ast.OpShiftRight: (*Emitter).visitDirectBinary,
		ast.OpEq:         (*Emitter).visitDirectBinary,
		ast.OpNotEq:      (*Emitter).visitDirectBinary,
		ast.OpLess:       (*Emitter).visitDirectBinary,
		ast.OpLessEq:     (*Emitter).visitDirectBinary,
		ast.OpGreater:    (*Emitter).visitDirectBinary,
		ast.OpGreaterEq:  (*Emitter).visitDirectBinary,
		ast.OpAnd:        (*Emitter).visitDirectBinary,
		ast.OpOr:         (*Emitter).visitDirectBinary,
		ast.OpIn:         (*Emitter).visitDirectBinary,
		ast.OpNotIn:      (*Emitter).visitDirectBinary,
		ast.OpIs:         (*Emitter).visitDirectBinary,
		ast.OpIsNot:      (*Emitter).visitDirectBinary,

		ast.OpNot:    (*Emitter).visitUnary,
		ast.OpBitNot: (*Emitter).visitUnary,

		ast.OpAddAssign:  (*Emitter).visitAssignation,
		ast.OpSubAssign:  (*Emitter).visitAssignation,
		ast.OpMulAssign:  (*Emitter).visitAssignation,
		ast.OpDivAssign:  (*Emitter).visitAssignation,
		ast.OpFDivAssign: (*Emitter).visitAssignation,
		ast.OpModAssign:  (*Emitter).visitAssignation,
		ast.OpPowAssign:  (*Emitter).visitAssignation,
		ast.OpAndAssign:  (*Emitter).visitAssignation,
		ast.OpOrAssign:   (*Emitter).visitAssignation,
		ast.OpXorAssign:  (*Emitter).visitAssignation,
		ast.OpShlAssign:  (*Emitter).visitAssignation,
		ast.OpShrAssign:  (*Emitter).visitAssignation,
	}
	return e
}

// Emit produces the full program text for a top-level statement list.
// Function and class declarations are hoisted out of line order: functions
// are reordered by a topological sort of the call graph so that every
// callee is emitted before its caller (a cycle is an error); everything
// else runs, in source order, inside a synthesized main.
func (e *Emitter) Emit(tree []ast.Node) (string, error) {
	var classDecls, funcDecls []*ast.OperatorNode
	var rest []ast.Node

	for _, n := range tree {
		op, ok := n.(*ast.OperatorNode)
		if !ok {
			rest = append(rest, n)
			continue
		}
		switch op.Operator {
		case ast.OpFuncDeclaration:
			funcDecls = append(funcDecls, op)
		case ast.OpClassDeclaration:
			classDecls = append(classDecls, op)
		default:
			rest = append(rest, n)
		}
	}

	ordered, err := topoSortFunctions(funcDecls)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(e.banner)
	sb.WriteString("\n#include \"runtime/BoxedValue.hpp\"\n")

	for _, c := range classDecls {
		sb.WriteString(e.visitClassDeclaration(c))
	}
	for _, f := range ordered {
		sb.WriteString(e.visitFuncDeclaration(f))
	}

	sb.WriteString("int main() {\n")
	sb.WriteString(e.visitTree(rest, true))
	sb.WriteString(" return 0;\n}")
	return sb.String(), nil
}

// visitTree renders a statement list. When isStandalone is true, every
// statement is terminated with ";\n" — the shape a block body needs, as
// opposed to a single nested expression.
func (e *Emitter) visitTree(nodes []ast.Node, isStandalone bool) string {
	var sb strings.Builder
	for _, n := range nodes {
		if op, ok := n.(*ast.OperatorNode); ok {
			handler, known := e.handlers[op.Operator]
			if !known {
				handler = (*Emitter).visitOtherOperator
			}
			sb.WriteString(handler(e, op))
			if isStandalone {
				sb.WriteString(";\n")
			}
			continue
		}
		if isStandalone {
			fmt.Fprintf(&sb, "// %s\n", e.visitInstance(n))
			continue
		}
		sb.WriteString(e.visitInstance(n))
	}
	return sb.String()
}

// nextFlagName allocates a fresh loop-else flag variable name, unique
// within one Emit pass.
func (e *Emitter) nextFlagName() string {
	e.flagCounter++
	return fmt.Sprintf("__loop_flag_%d", e.flagCounter)
}

func (e *Emitter) visitOtherOperator(tree *ast.OperatorNode) string {
	return fmt.Sprintf("/* unhandled operator %s */", tree.Operator)
}

// visitInstance renders a leaf value: a Name reference, a scalar literal,
// or a structured literal (list/dict/tuple/set).
func (e *Emitter) visitInstance(n ast.Node) string {
	switch v := n.(type) {
	case *ast.NameNode:
		return v.ID
	case *ast.LiteralNode:
		return e.visitLiteralValue(v.Value)
	case *ast.OperatorNode:
		handler, known := e.handlers[v.Operator]
		if !known {
			handler = (*Emitter).visitOtherOperator
		}
		return handler(e, v)
	default:
		return "None::spawn()"
	}
}

func (e *Emitter) visitLiteralValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "Bool::spawn(true)"
		}
		return "Bool::spawn(false)"
	case string:
		return fmt.Sprintf("String::spawn(%q)", v)
	case nil:
		return "None::spawn()"
	case int64:
		return fmt.Sprintf("Number::spawn(%d)", v)
	case float64:
		return fmt.Sprintf("Number::spawn(%v)", v)
	case []ast.Node:
		return e.visitSequence("List", v)
	case map[ast.Node]ast.Node:
		return e.visitMapping(v)
	default:
		return "None::spawn()"
	}
}

func (e *Emitter) visitSequence(kind string, elements []ast.Node) string {
	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = e.visitInstance(el)
	}
	return fmt.Sprintf("%s::spawn({%s})", kind, strings.Join(parts, ", "))
}

func (e *Emitter) visitMapping(entries map[ast.Node]ast.Node) string {
	parts := make([]string, 0, len(entries))
	for k, v := range entries {
		parts = append(parts, fmt.Sprintf("{ %s, %s }", e.visitInstance(k), e.visitInstance(v)))
	}
	return fmt.Sprintf("Dictionary::spawn({%s})", strings.Join(parts, ", "))
}

func (e *Emitter) visitTernary(tree *ast.OperatorNode) string {
	condition := e.visitInstance(tree.Node(ast.CONDITION))
	values, _ := tree.Get(ast.VALUES).(map[string]ast.Node)
	trueStr := e.visitInstance(values["true"])
	falseStr := e.visitInstance(values["false"])
	return fmt.Sprintf("(%s) ? %s : %s", condition, trueStr, falseStr)
}

func (e *Emitter) visitFunctionCall(tree *ast.OperatorNode) string {
	args, _ := tree.Get(ast.ARGUMENTS).([]ast.Node)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.visitInstance(a)
	}

	name := tree.Get(ast.FUNCTION_NAME).(*ast.NameNode).ID
	namespace := ""
	for _, builtin := range semantic.Builtins {
		if builtin == name {
			namespace = "BF::"
			break
		}
	}
	name = cppName(name)

	return fmt.Sprintf("%s%s(%s)", namespace, name, strings.Join(parts, ", "))
}

// visitMethodCall renders `instance.method(args)` as a qualified call on
// the boxed instance — method-call promotion already pulled the callee
// name out to FUNCTION_NAME inside METHOD, and the remainder back to
// INSTANCE, during parsing (ast.OperatorNode.PromoteRightmostSibling).
func (e *Emitter) visitMethodCall(tree *ast.OperatorNode) string {
	instance := e.visitInstance(tree.Node(ast.INSTANCE))
	method := tree.Get(ast.METHOD).(*ast.OperatorNode)
	call := e.visitFunctionCall(method)
	name := cppName(method.Get(ast.FUNCTION_NAME).(*ast.NameNode).ID)
	// call already has the form "[BF::]name(args)"; splice in the instance.
	argsOpen := strings.Index(call, "(")
	return fmt.Sprintf("(*%s)->%s%s", instance, name, call[argsOpen:])
}

// visitAttributeCall renders a plain (non-called) dotted attribute
// reference, `(*instance).member`. A method call never reaches this
// handler directly: the parser promotes the call-site attribute chain into
// a method_call node instead (see ast.OperatorNode.PromoteRightmostSibling).
func (e *Emitter) visitAttributeCall(tree *ast.OperatorNode) string {
	left := e.visitInstance(tree.GetLeftOperand())
	right := e.visitInstance(tree.GetRightOperand())
	return fmt.Sprintf("(*%s).%s", left, right)
}

func (e *Emitter) visitSlicing(tree *ast.OperatorNode) string {
	instance := e.visitInstance(tree.Node(ast.INSTANCE))
	sliceBounds, _ := tree.Get(ast.SLICE).(map[ast.OperandTag]ast.Node)
	end := e.visitInstance(sliceBounds[ast.END])
	if start, ok := sliceBounds[ast.START]; ok && start != nil {
		return fmt.Sprintf("(*%s)[Slice(%s, %s)]", instance, e.visitInstance(start), end)
	}
	return fmt.Sprintf("(*%s)[Slice(%s)]", instance, end)
}

func (e *Emitter) visitIndexing(tree *ast.OperatorNode) string {
	instance := e.visitInstance(tree.Node(ast.INSTANCE))
	index := e.visitInstance(tree.Node(ast.INDEX))
	return fmt.Sprintf("(*%s)[%s]", instance, index)
}

func (e *Emitter) visitAssignation(tree *ast.OperatorNode) string {
	left := e.visitInstance(tree.GetLeftOperand())
	right := e.visitInstance(tree.GetRightOperand())

	prefix := ""
	if tree.Operator == ast.OpVarDeclaration {
		prefix = "auto "
	}
	if tag, ok := compoundCppOperator[tree.Operator]; ok {
		return fmt.Sprintf("%s %s %s", left, tag, right)
	}
	return fmt.Sprintf("%s%s = %s", prefix, left, right)
}

var compoundCppOperator = map[ast.OperatorTag]string{
	ast.OpAddAssign:  "+=",
	ast.OpSubAssign:  "-=",
	ast.OpMulAssign:  "*=",
	ast.OpDivAssign:  "/=",
	ast.OpFDivAssign: "/=",
	ast.OpModAssign:  "%=",
	ast.OpPowAssign:  "**=",
	ast.OpAndAssign:  "&=",
	ast.OpOrAssign:   "|=",
	ast.OpXorAssign:  "^=",
	ast.OpShlAssign:  "<<=",
	ast.OpShrAssign:  ">>=",
}

// visitUnpackAssignation renders `a, b = value` as per-element bindings
// off a synthetic tuple temporary, the same "auto temp, then index" shape
// the for-loop multi-symbol unpacking uses in visitFor.
func (e *Emitter) visitUnpackAssignation(tree *ast.OperatorNode) string {
	names, _ := tree.Get(ast.LEFT).([]ast.Node)
	value := e.visitInstance(tree.Node(ast.RIGHT))

	var sb strings.Builder
	fmt.Fprintf(&sb, "auto __unpack = %s", value)
	for i, n := range names {
		name := n.(*ast.NameNode).ID
		fmt.Fprintf(&sb, ";\nauto %s = (*__unpack)[%d]", name, i)
	}
	return sb.String()
}

func (e *Emitter) visitPass(tree *ast.OperatorNode) string {
	_ = tree
	return "// There was a pass here"
}

func (e *Emitter) visitBreak(tree *ast.OperatorNode) string {
	_ = tree
	if n := len(e.loopFlagStack); n > 0 && e.loopFlagStack[n-1] != "" {
		return fmt.Sprintf("%s = false; break", e.loopFlagStack[n-1])
	}
	return "break"
}

func (e *Emitter) visitContinue(tree *ast.OperatorNode) string {
	_ = tree
	return "continue"
}

// visitUnaryOrBinary dispatches "+"/"-" to whichever shape the node
// actually carries: CENTER means unary, LEFT/RIGHT means binary. Every
// other operator token is binary-only — the grammar never builds, say, a
// unary "*".
func (e *Emitter) visitUnaryOrBinary(tree *ast.OperatorNode) string {
	if _, ok := tree.Adjacents[ast.CENTER]; ok {
		return e.visitUnary(tree)
	}
	return e.visitDirectBinary(tree)
}

var cppUnaryOperator = map[ast.OperatorTag]string{
	ast.OpNot: "!",
}

func (e *Emitter) visitUnary(tree *ast.OperatorNode) string {
	operand := e.visitInstance(tree.Node(ast.CENTER))
	op := string(tree.Operator)
	if cpp, ok := cppUnaryOperator[tree.Operator]; ok {
		op = cpp
	}
	if tree.Parenthesized {
		return fmt.Sprintf("(%s %s)", op, operand)
	}
	return fmt.Sprintf("%s %s", op, operand)
}

var cppBinaryOperator = map[ast.OperatorTag]string{
	ast.OpAnd: "&&",
	ast.OpOr:  "||",
}

func (e *Emitter) visitDirectBinary(tree *ast.OperatorNode) string {
	left := e.visitInstance(tree.GetLeftOperand())
	right := e.visitInstance(tree.GetRightOperand())
	op := string(tree.Operator)
	if cpp, ok := cppBinaryOperator[tree.Operator]; ok {
		op = cpp
	}
	if tree.Parenthesized {
		return fmt.Sprintf("(%s %s %s)", left, op, right)
	}
	return fmt.Sprintf("%s %s %s", left, op, right)
}
