// Package semantic tracks the bookkeeping the grammar actions need while
// building the AST: a flat symbol table with an explicit scope stack,
// undefined-callee tracking, and the loop/function/class depth counters
// that gate context-sensitive keywords. It is consulted inline from
// internal/parser, not run as a separate pass over a finished tree.
package semantic

import "fmt"

// Kind classifies what a name was bound to. Unlike the source's defaulting
// map (which returned a zero value for missing keys), lookups here return
// an explicit ok bool — there is no "default" symbol kind.
type Kind int

const (
	Variable Kind = iota
	Function
	Class
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Function:
		return "function"
	case Class:
		return "class"
	default:
		return "unknown"
	}
}

// Builtins is the fixed set of identifiers pre-installed as Function at
// checker construction time.
var Builtins = []string{
	"abs", "all", "any", "len", "print", "range", "list", "dict", "set",
	"tuple", "str", "int", "float", "bool", "sorted", "reversed", "min",
	"max", "sum", "enumerate", "zip", "map", "filter", "open", "input",
	"iter", "next", "id", "ord", "chr", "pow", "round", "divmod",
}

// scopeEntry is one scope-stack slot: a defined name, or a sentinel
// marking where a nested suite (def/class body, or an if/elif/else/while/
// for body) began; PopScope pops names until it finds a sentinel.
type scopeEntry struct {
	name     string
	sentinel bool
}

// Checker owns one compilation's worth of semantic state: the flat symbol
// table, the scope stack, the undefined-name trackers, and the
// loop/function/class depth counters. One Checker serves one parse.
type Checker struct {
	symbols map[string]Kind
	scope   []scopeEntry

	undefinedFunctions map[string]struct{}
	undefinedClasses   map[string]struct{}

	loopDepth     int
	functionDepth int
	classDepth    int
}

// New creates a Checker with the builtin identifiers pre-installed as
// Function.
func New() *Checker {
	c := &Checker{
		symbols:            make(map[string]Kind),
		undefinedFunctions: make(map[string]struct{}),
		undefinedClasses:   make(map[string]struct{}),
	}
	for _, name := range Builtins {
		c.symbols[name] = Function
	}
	return c
}

// Define binds name to kind in the current scope and records it on the
// scope stack so PopScope can later remove it.
func (c *Checker) Define(name string, kind Kind) {
	c.symbols[name] = kind
	c.scope = append(c.scope, scopeEntry{name: name})
}

// Resolve looks up name's Kind. The flat table has no nested-scope
// shadowing: a name is visible everywhere from the point it was defined
// until its enclosing suite's PopScope removes it.
func (c *Checker) Resolve(name string) (Kind, bool) {
	kind, ok := c.symbols[name]
	return kind, ok
}

// IsDefined reports whether name is currently bound.
func (c *Checker) IsDefined(name string) bool {
	_, ok := c.symbols[name]
	return ok
}

// PushScope opens a new suite (the parser calls it for every def, class,
// if, elif, else, while and for body) by pushing a sentinel onto the scope
// stack.
func (c *Checker) PushScope() {
	c.scope = append(c.scope, scopeEntry{sentinel: true})
}

// PopScope closes the innermost open suite: every name defined since the
// matching PushScope is removed from the symbol table, and the sentinel
// itself is discarded.
func (c *Checker) PopScope() {
	for len(c.scope) > 0 {
		top := c.scope[len(c.scope)-1]
		c.scope = c.scope[:len(c.scope)-1]
		if top.sentinel {
			return
		}
		delete(c.symbols, top.name)
	}
}

// ResolveName checks whether a NAME reference is valid at this point:
// defined in the symbol table, or the `self` exemption inside a class
// body. It does not itself record undefined-callee diagnostics — see
// MarkUndefinedFunction/MarkUndefinedClass for that.
func (c *Checker) ResolveName(name string) (Kind, bool) {
	if kind, ok := c.symbols[name]; ok {
		return kind, true
	}
	if name == "self" && c.classDepth > 0 {
		return Variable, true
	}
	return 0, false
}

// MarkUndefinedFunction records name as an as-yet-undeclared callee unless
// it already resolves to Function or Class.
func (c *Checker) MarkUndefinedFunction(name string) {
	if kind, ok := c.symbols[name]; ok && (kind == Function || kind == Class) {
		return
	}
	c.undefinedFunctions[name] = struct{}{}
}

// DeclareFunction binds name as a Function and clears it from the
// undefined-callee set (it may have been forward-referenced by an earlier
// call).
func (c *Checker) DeclareFunction(name string) {
	c.symbols[name] = Function
	delete(c.undefinedFunctions, name)
}

// MarkUndefinedClass records name as an as-yet-undeclared base class unless
// it already resolves to Class.
func (c *Checker) MarkUndefinedClass(name string) {
	if kind, ok := c.symbols[name]; ok && kind == Class {
		return
	}
	c.undefinedClasses[name] = struct{}{}
}

// DeclareClass binds name as a Class and clears it from the
// undefined-base-class set.
func (c *Checker) DeclareClass(name string) {
	c.symbols[name] = Class
	delete(c.undefinedClasses, name)
}

// UndefinedNames reports every name still outstanding in either tracker.
// Called once at start-symbol completion; a non-empty result is fatal.
func (c *Checker) UndefinedNames() []string {
	names := make([]string, 0, len(c.undefinedFunctions)+len(c.undefinedClasses))
	for name := range c.undefinedFunctions {
		names = append(names, name)
	}
	for name := range c.undefinedClasses {
		names = append(names, name)
	}
	return names
}

// EnterLoop/ExitLoop, EnterFunction/ExitFunction, and EnterClass/ExitClass
// maintain the depth counters that gate break/continue/pass/return and the
// `self` exemption.

func (c *Checker) EnterLoop()     { c.loopDepth++ }
func (c *Checker) ExitLoop()      { c.loopDepth-- }
func (c *Checker) InLoop() bool   { return c.loopDepth > 0 }

func (c *Checker) EnterFunction()   { c.functionDepth++ }
func (c *Checker) ExitFunction()    { c.functionDepth-- }
func (c *Checker) InFunction() bool { return c.functionDepth > 0 }

func (c *Checker) EnterClass()   { c.classDepth++ }
func (c *Checker) ExitClass()    { c.classDepth-- }
func (c *Checker) InClass() bool { return c.classDepth > 0 }

// CheckBreakOrContinue validates the context rule for break/continue:
// legal only inside a loop.
func (c *Checker) CheckBreakOrContinue(keyword string) error {
	if !c.InLoop() {
		return fmt.Errorf("%q is only legal inside a loop", keyword)
	}
	return nil
}

// CheckPass validates the context rule for a bare `pass` statement: legal
// inside a loop or a function body.
func (c *Checker) CheckPass() error {
	if !c.InLoop() && !c.InFunction() {
		return fmt.Errorf("\"pass\" is only legal inside a loop or a function body")
	}
	return nil
}

// CheckEllipsisBody validates the context rule for a `...` function body:
// legal only inside a function.
func (c *Checker) CheckEllipsisBody() error {
	if !c.InFunction() {
		return fmt.Errorf("\"...\" body is only legal inside a function")
	}
	return nil
}

// CheckReturn validates the context rule for `return`: legal only inside a
// function.
func (c *Checker) CheckReturn() error {
	if !c.InFunction() {
		return fmt.Errorf("\"return\" is only legal inside a function")
	}
	return nil
}

// CheckSelfInheritance rejects `class A(A)`.
func (c *Checker) CheckSelfInheritance(className, parentName string) error {
	if className == parentName {
		return fmt.Errorf("class %q cannot inherit from itself", className)
	}
	return nil
}
