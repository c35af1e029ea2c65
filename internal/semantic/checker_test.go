package semantic

import "testing"

func TestBuiltinsArePreinstalledAsFunctions(t *testing.T) {
	c := New()
	for _, name := range []string{"len", "print", "range", "abs"} {
		kind, ok := c.Resolve(name)
		if !ok || kind != Function {
			t.Fatalf("expected builtin %q to resolve as Function, got kind=%v ok=%v", name, kind, ok)
		}
	}
}

func TestScopePushAndPopRemovesDefinedNames(t *testing.T) {
	c := New()
	c.Define("x", Variable)

	c.PushScope()
	c.Define("y", Variable)
	if !c.IsDefined("y") {
		t.Fatal("expected y to be defined inside the pushed scope")
	}
	c.PopScope()

	if c.IsDefined("y") {
		t.Fatal("expected y to be removed after PopScope")
	}
	if !c.IsDefined("x") {
		t.Fatal("expected x defined in the outer scope to survive PopScope")
	}
}

func TestSelfIsExemptOnlyInsideClassBody(t *testing.T) {
	c := New()
	if _, ok := c.ResolveName("self"); ok {
		t.Fatal("expected self to be undefined outside a class body")
	}

	c.EnterClass()
	if _, ok := c.ResolveName("self"); !ok {
		t.Fatal("expected self to resolve inside a class body")
	}
	c.ExitClass()

	if _, ok := c.ResolveName("self"); ok {
		t.Fatal("expected self to stop resolving after leaving the class body")
	}
}

func TestUndefinedFunctionClearsOnLaterDeclaration(t *testing.T) {
	c := New()
	c.MarkUndefinedFunction("helper")

	names := c.UndefinedNames()
	if len(names) != 1 || names[0] != "helper" {
		t.Fatalf("expected [helper] pending, got %v", names)
	}

	c.DeclareFunction("helper")
	if names := c.UndefinedNames(); len(names) != 0 {
		t.Fatalf("expected no undefined names after declaration, got %v", names)
	}
}

func TestUndefinedClassClearsOnLaterDeclaration(t *testing.T) {
	c := New()
	c.MarkUndefinedClass("Base")
	c.DeclareClass("Base")

	if names := c.UndefinedNames(); len(names) != 0 {
		t.Fatalf("expected no undefined names after class declaration, got %v", names)
	}
}

func TestBreakContinueRequireLoopDepth(t *testing.T) {
	c := New()
	if err := c.CheckBreakOrContinue("break"); err == nil {
		t.Fatal("expected error for break outside a loop")
	}

	c.EnterLoop()
	if err := c.CheckBreakOrContinue("continue"); err != nil {
		t.Fatalf("expected continue to be legal inside a loop, got %v", err)
	}
	c.ExitLoop()

	if err := c.CheckBreakOrContinue("break"); err == nil {
		t.Fatal("expected error for break after leaving the loop")
	}
}

func TestPassRequiresLoopOrFunctionDepth(t *testing.T) {
	c := New()
	if err := c.CheckPass(); err == nil {
		t.Fatal("expected error for pass outside loop and function")
	}

	c.EnterFunction()
	if err := c.CheckPass(); err != nil {
		t.Fatalf("expected pass to be legal inside a function, got %v", err)
	}
	c.ExitFunction()

	c.EnterLoop()
	if err := c.CheckPass(); err != nil {
		t.Fatalf("expected pass to be legal inside a loop, got %v", err)
	}
}

func TestEllipsisBodyRequiresFunctionDepth(t *testing.T) {
	c := New()
	if err := c.CheckEllipsisBody(); err == nil {
		t.Fatal("expected error for ... body outside a function")
	}
	c.EnterFunction()
	if err := c.CheckEllipsisBody(); err != nil {
		t.Fatalf("expected ... body to be legal inside a function, got %v", err)
	}
}

func TestReturnRequiresFunctionDepth(t *testing.T) {
	c := New()
	if err := c.CheckReturn(); err == nil {
		t.Fatal("expected error for return outside a function")
	}
	c.EnterFunction()
	if err := c.CheckReturn(); err != nil {
		t.Fatalf("expected return to be legal inside a function, got %v", err)
	}
}

func TestSelfInheritanceIsRejected(t *testing.T) {
	c := New()
	if err := c.CheckSelfInheritance("A", "A"); err == nil {
		t.Fatal("expected class A(A) to be rejected")
	}
	if err := c.CheckSelfInheritance("A", "B"); err != nil {
		t.Fatalf("expected class A(B) to be accepted, got %v", err)
	}
}
