package emitter

import (
	"fmt"
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/ast"
)

// visitConditional renders an if/elif/else chain. ALTERNATIVE holds either
// another OpElif node (recurse), a terminal []ast.Node else body, or
// nothing at all — mirroring how parser.parseConditionalNode threads the
// chain with AppendAlternative.
func (e *Emitter) visitConditional(tree *ast.OperatorNode) string {
	condition := e.visitInstance(tree.Node(ast.CONDITION))
	body, _ := tree.Get(ast.BODY).([]ast.Node)
	bodyStr := e.visitTree(body, true)

	keyword := "if"
	if tree.Operator == ast.OpElif {
		keyword = "else if"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) {\n%s}", keyword, condition, bodyStr)

	switch alt := tree.Get(ast.ALTERNATIVE).(type) {
	case *ast.OperatorNode:
		sb.WriteString(" ")
		sb.WriteString(e.visitConditional(alt))
	case []ast.Node:
		elseStr := e.visitTree(alt, true)
		fmt.Fprintf(&sb, " else {\n%s}", elseStr)
	}
	return sb.String()
}

// visitWhile renders a while loop. When the source carries a loop-else
// clause (ALTERNATIVE), a flag is introduced: true until any break inside
// the loop body clears it, checked after the loop exits — the "else"
// branch runs only when the loop ran to completion without a break.
func (e *Emitter) visitWhile(tree *ast.OperatorNode) string {
	condition := e.visitInstance(tree.Node(ast.CONDITION))
	elseBody, hasElse := tree.Get(ast.ALTERNATIVE).([]ast.Node)

	var sb strings.Builder
	flagName := ""
	if hasElse {
		flagName = e.nextFlagName()
		fmt.Fprintf(&sb, "bool %s = true;\n", flagName)
	}

	e.loopFlagStack = append(e.loopFlagStack, flagName)
	body, _ := tree.Get(ast.BODY).([]ast.Node)
	bodyStr := e.visitTree(body, true)
	e.loopFlagStack = e.loopFlagStack[:len(e.loopFlagStack)-1]

	fmt.Fprintf(&sb, "while (%s) {\n%s}\n", condition, bodyStr)
	if hasElse {
		fmt.Fprintf(&sb, "if (%s) {\n%s}\n", flagName, e.visitTree(elseBody, true))
	}
	return sb.String()
}

// visitFor renders a for loop over an iterable. A single loop symbol binds
// directly to the range variable; multiple symbols (tuple-unpacking for,
// `for k, v in items:`) bind through a synthetic per-iteration temporary,
// the same shape visitUnpackAssignation uses for unpack assignment.
func (e *Emitter) visitFor(tree *ast.OperatorNode) string {
	symbols, _ := tree.Get(ast.SYMBOLS).([]ast.Node)
	iterable := e.visitInstance(tree.Node(ast.FOR_LITERAL))
	elseBody, hasElse := tree.Get(ast.ALTERNATIVE).([]ast.Node)

	var sb strings.Builder
	flagName := ""
	if hasElse {
		flagName = e.nextFlagName()
		fmt.Fprintf(&sb, "bool %s = true;\n", flagName)
	}

	var header, unpackPrologue string
	if len(symbols) == 1 {
		name := symbols[0].(*ast.NameNode).ID
		header = fmt.Sprintf("for (auto %s : *%s)", name, iterable)
	} else {
		header = fmt.Sprintf("for (auto __unpack : *%s)", iterable)
		var up strings.Builder
		for i, s := range symbols {
			name := s.(*ast.NameNode).ID
			fmt.Fprintf(&up, "auto %s = (*__unpack)[%d];\n", name, i)
		}
		unpackPrologue = up.String()
	}

	e.loopFlagStack = append(e.loopFlagStack, flagName)
	body, _ := tree.Get(ast.BODY).([]ast.Node)
	bodyStr := unpackPrologue + e.visitTree(body, true)
	e.loopFlagStack = e.loopFlagStack[:len(e.loopFlagStack)-1]

	fmt.Fprintf(&sb, "%s {\n%s}\n", header, bodyStr)
	if hasElse {
		fmt.Fprintf(&sb, "if (%s) {\n%s}\n", flagName, e.visitTree(elseBody, true))
	}
	return sb.String()
}

// visitReturn emits the active function's argument-refresh block (if any)
// immediately ahead of the return: every
// return path refreshes the caller-visible argument pack before handing
// back a value, a bare return, or (absent any return at all) the synthetic
// `return None` visitFuncDeclaration appends to a fall-through body.
func (e *Emitter) visitReturn(tree *ast.OperatorNode) string {
	refresh := ""
	if n := len(e.argRefreshStack); n > 0 {
		refresh = e.argRefreshStack[n-1]
	}

	values, ok := tree.Get(ast.VALUES).([]ast.Node)
	if !ok || len(values) == 0 {
		return fmt.Sprintf("%sreturn None::spawn()", refresh)
	}
	if len(values) == 1 {
		return fmt.Sprintf("%sreturn %s", refresh, e.visitInstance(values[0]))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = e.visitInstance(v)
	}
	return fmt.Sprintf("%sreturn Tuple::spawn({%s})", refresh, strings.Join(parts, ", "))
}
