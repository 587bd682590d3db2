package parser

import (
	"testing"

	"ember/ast"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return prog
}

func TestParseVarDeclaration(t *testing.T) {
	prog := parseOK(t, "let x = 1 + 2;")
	if len(prog.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VarDeclStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDeclStmt", prog.Body[0])
	}
	if decl.Kind != ast.VarDeclLet || len(decl.Declarations) != 1 || decl.Declarations[0].Name != "x" {
		t.Fatalf("unexpected decl: %+v", decl)
	}
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpr)
	if !ok || bin.Operator != "+" {
		t.Fatalf("got init %T, want BinaryExpr(+)", decl.Declarations[0].Init)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	prog := parseOK(t, `
		if (x < 10) { x = x + 1; } else { x = 0; }
		while (x > 0) { x = x - 1; }
	`)
	if len(prog.Body) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Body))
	}
	if _, ok := prog.Body[0].(*ast.IfStmt); !ok {
		t.Fatalf("got %T, want *ast.IfStmt", prog.Body[0])
	}
	if _, ok := prog.Body[1].(*ast.WhileStmt); !ok {
		t.Fatalf("got %T, want *ast.WhileStmt", prog.Body[1])
	}
}

func TestParseFunctionCallAndMember(t *testing.T) {
	prog := parseOK(t, `obj.method(1, 2)[0];`)
	stmt := prog.Body[0].(*ast.ExprStmt)
	member, ok := stmt.Expression.(*ast.MemberExpr)
	if !ok || !member.Computed {
		t.Fatalf("got %T, want computed MemberExpr", stmt.Expression)
	}
	call, ok := member.Object.(*ast.CallExpr)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("got %T, want CallExpr with 2 args", member.Object)
	}
	callee, ok := call.Callee.(*ast.MemberExpr)
	if !ok || callee.Computed {
		t.Fatalf("got %T, want dotted MemberExpr callee", call.Callee)
	}
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	prog := parseOK(t, `let a = [1, 2, "x"]; let b = {k: 1, "q": 2, [c]: 3};`)
	decl1 := prog.Body[0].(*ast.VarDeclStmt)
	arr, ok := decl1.Declarations[0].Init.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("got %T, want ArrayLiteral with 3 elements", decl1.Declarations[0].Init)
	}
	decl2 := prog.Body[1].(*ast.VarDeclStmt)
	obj, ok := decl2.Declarations[0].Init.(*ast.ObjectLiteral)
	if !ok || len(obj.Properties) != 3 {
		t.Fatalf("got %T, want ObjectLiteral with 3 properties", decl2.Declarations[0].Init)
	}
	if obj.Properties[2].Computed == nil {
		t.Fatalf("expected third property to have a computed key")
	}
}

func TestParseFunctionDeclarationAndReturn(t *testing.T) {
	prog := parseOK(t, `function add(a, b) { return a + b; }`)
	decl, ok := prog.Body[0].(*ast.FunctionDeclStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDeclStmt", prog.Body[0])
	}
	if decl.Fn.Name != "add" || len(decl.Fn.Params) != 2 {
		t.Fatalf("unexpected function: %+v", decl.Fn)
	}
	ret, ok := decl.Fn.Body.Body[0].(*ast.ReturnStmt)
	if !ok || ret.Argument == nil {
		t.Fatalf("got %T, want ReturnStmt with an argument", decl.Fn.Body.Body[0])
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parseOK(t, `try { throw 1; } catch (e) { x = e; } finally { y = 2; }`)
	stmt, ok := prog.Body[0].(*ast.TryStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.TryStmt", prog.Body[0])
	}
	if !stmt.HasCatch || stmt.CatchParam != "e" || stmt.Finalizer == nil {
		t.Fatalf("unexpected try statement: %+v", stmt)
	}
}

func TestParseNewAndInstanceof(t *testing.T) {
	prog := parseOK(t, `let x = new Point(1, 2); let ok = x instanceof Point;`)
	decl1 := prog.Body[0].(*ast.VarDeclStmt)
	if _, ok := decl1.Declarations[0].Init.(*ast.NewExpr); !ok {
		t.Fatalf("got %T, want *ast.NewExpr", decl1.Declarations[0].Init)
	}
	decl2 := prog.Body[1].(*ast.VarDeclStmt)
	if _, ok := decl2.Declarations[0].Init.(*ast.InstanceofExpr); !ok {
		t.Fatalf("got %T, want *ast.InstanceofExpr", decl2.Declarations[0].Init)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parseOK(t, `a = b = 1;`)
	stmt := prog.Body[0].(*ast.ExprStmt)
	outer, ok := stmt.Expression.(*ast.AssignExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.AssignExpr", stmt.Expression)
	}
	if _, ok := outer.Value.(*ast.AssignExpr); !ok {
		t.Fatalf("got %T, want nested AssignExpr on the right", outer.Value)
	}
}
