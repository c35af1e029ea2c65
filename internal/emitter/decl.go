package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/ast"
)

// reservedNames collide with C++ standard names the runtime headers bring
// into scope; emitted declarations and call sites for them get a trailing
// underscore.
var reservedNames = map[string]bool{"bool": true, "float": true, "int": true}

func cppName(name string) string {
	if reservedNames[name] {
		return name + "_"
	}
	return name
}

// visitFuncDeclarationStatement and visitClassDeclarationStatement back the
// operator dispatch table so a nested declaration (a method inside a
// class, a closure-like local def) still renders correctly even though the
// top-level Emit pass normally hoists and reorders file-scope declarations
// before reaching them via visitTree.
func (e *Emitter) visitFuncDeclarationStatement(tree *ast.OperatorNode) string {
	return e.visitFuncDeclaration(tree)
}

func (e *Emitter) visitClassDeclarationStatement(tree *ast.OperatorNode) string {
	return e.visitClassDeclaration(tree)
}

// visitFuncDeclaration renders one function. Every function body carries
// an argument-refresh block that every return statement inside it must
// emit ahead of its value; a body with no return on any path gets a
// synthetic `return None` appended.
func (e *Emitter) visitFuncDeclaration(tree *ast.OperatorNode) string {
	name := cppName(tree.Get(ast.FUNCTION_NAME).(*ast.NameNode).ID)
	params, _ := tree.Get(ast.ARGUMENTS).([]ast.Node)

	paramNames := make([]string, len(params))
	sigParts := make([]string, len(params))
	for i, p := range params {
		param := p.(*ast.OperatorNode)
		argName := param.Get(ast.ARGUMENT).(*ast.NameNode).ID
		paramNames[i] = argName
		sigParts[i] = fmt.Sprintf("BoxedValue %s", argName)
	}

	refreshBlock := ""
	if len(paramNames) > 0 {
		refreshBlock = fmt.Sprintf("__refresh_args(%s);\n", strings.Join(paramNames, ", "))
	}
	e.argRefreshStack = append(e.argRefreshStack, refreshBlock)

	body, _ := tree.Get(ast.BODY).([]ast.Node)
	bodyStr := e.visitTree(body, true)
	if !containsReturn(body) {
		bodyStr += refreshBlock + "return None::spawn();\n"
	}

	e.argRefreshStack = e.argRefreshStack[:len(e.argRefreshStack)-1]

	return fmt.Sprintf("BoxedValue %s(%s) {\n%s}\n", name, strings.Join(sigParts, ", "), bodyStr)
}

// visitClassDeclaration renders a class as a struct, its parent (if any)
// as a public base, and each method as a member function. Class-level
// non-method statements (field defaults) run inline ahead of the methods;
// handling a class body beyond this shape remains an open extension point.
func (e *Emitter) visitClassDeclaration(tree *ast.OperatorNode) string {
	name := tree.Get(ast.CLASS_NAME).(*ast.NameNode).ID
	parentSuffix := ""
	if parent, ok := tree.Get(ast.PARENT_CLASS).(*ast.NameNode); ok {
		parentSuffix = fmt.Sprintf(" : public %s", parent.ID)
	}

	body, _ := tree.Get(ast.BODY).([]ast.Node)
	var methods, fields strings.Builder
	for _, stmt := range body {
		op, ok := stmt.(*ast.OperatorNode)
		if ok && op.Operator == ast.OpFuncDeclaration {
			methods.WriteString(e.visitFuncDeclaration(op))
			continue
		}
		fields.WriteString(e.visitTree([]ast.Node{stmt}, true))
	}

	return fmt.Sprintf("struct %s%s {\n%s%s};\n", name, parentSuffix, fields.String(), methods.String())
}

// containsReturn reports whether a statement list contains a reachable
// return within the current function's own scope — it does not descend
// into a nested function or class declaration, since those open a new
// return scope of their own.
func containsReturn(stmts []ast.Node) bool {
	for _, s := range stmts {
		if hasReturn(s) {
			return true
		}
	}
	return false
}

func hasReturn(n ast.Node) bool {
	op, ok := n.(*ast.OperatorNode)
	if !ok {
		return false
	}
	switch op.Operator {
	case ast.OpReturn:
		return true
	case ast.OpFuncDeclaration, ast.OpClassDeclaration:
		return false
	}
	if body, ok := op.Get(ast.BODY).([]ast.Node); ok && containsReturn(body) {
		return true
	}
	switch alt := op.Get(ast.ALTERNATIVE).(type) {
	case *ast.OperatorNode:
		return hasReturn(alt)
	case []ast.Node:
		return containsReturn(alt)
	}
	return false
}

// topoSortFunctions orders top-level function declarations so every callee
// is emitted before its caller. A cycle between declared functions is
// reported as an error rather than silently broken (mutual recursion has
// no valid emission order under this scheme, since C++ forward
// declarations aren't modeled here).
func topoSortFunctions(decls []*ast.OperatorNode) ([]*ast.OperatorNode, error) {
	declared := make(map[string]bool, len(decls))
	byName := make(map[string]*ast.OperatorNode, len(decls))
	order := make([]string, 0, len(decls))
	for _, d := range decls {
		name := d.Get(ast.FUNCTION_NAME).(*ast.NameNode).ID
		declared[name] = true
		byName[name] = d
		order = append(order, name)
	}

	calls := make(map[string][]string, len(decls))
	for name, d := range byName {
		found := make(map[string]bool)
		if body, ok := d.Get(ast.BODY).([]ast.Node); ok {
			for _, stmt := range body {
				collectCalls(stmt, declared, found)
			}
		}
		delete(found, name)
		callees := make([]string, 0, len(found))
		for callee := range found {
			callees = append(callees, callee)
		}
		sort.Strings(callees)
		calls[name] = callees
	}

	const (
		white = iota
		gray
		black
	)
	state := make(map[string]int, len(decls))
	var result []*ast.OperatorNode

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("cyclic function call graph detected at %q", name)
		}
		state[name] = gray
		for _, callee := range calls[name] {
			if err := visit(callee); err != nil {
				return err
			}
		}
		state[name] = black
		result = append(result, byName[name])
		return nil
	}

	for _, name := range order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// collectCalls walks n (and every Node-shaped child reachable from it) for
// function_call nodes whose callee resolves to a name in declared, adding
// each one found to out. It does not descend into nested function or
// class declarations — a call inside a closure belongs to that closure's
// own call graph, not its enclosing function's.
func collectCalls(n ast.Node, declared map[string]bool, out map[string]bool) {
	op, ok := n.(*ast.OperatorNode)
	if !ok {
		return
	}
	if op.Operator == ast.OpFuncDeclaration || op.Operator == ast.OpClassDeclaration {
		return
	}
	if op.Operator == ast.OpFunctionCall {
		if fn, ok := op.Get(ast.FUNCTION_NAME).(*ast.NameNode); ok && declared[fn.ID] {
			out[fn.ID] = true
		}
	}
	for _, val := range op.Adjacents {
		walkCallValue(val, declared, out)
	}
}

func walkCallValue(val any, declared map[string]bool, out map[string]bool) {
	switch x := val.(type) {
	case ast.Node:
		collectCalls(x, declared, out)
	case []ast.Node:
		for _, e := range x {
			collectCalls(e, declared, out)
		}
	case map[ast.Node]ast.Node:
		for k, v := range x {
			collectCalls(k, declared, out)
			collectCalls(v, declared, out)
		}
	case map[ast.OperandTag]ast.Node:
		for _, e := range x {
			collectCalls(e, declared, out)
		}
	case map[string]ast.Node:
		for _, e := range x {
			collectCalls(e, declared, out)
		}
	}
}
