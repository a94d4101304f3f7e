package move

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func namedType(name string) ast.TypeExpr { return ast.NewNamedType(ident(name), sp()) }

func TestUseAfterMoveDetected(t *testing.T) {
	// fn f(v: Widget) { let w = v; println(v); }
	letStmt := ast.NewLetStmt(false, ident("w"), nil, ident("v"), sp())
	useAfter := ast.NewExprStmt(
		ast.NewCallExpr(ident("println"), []ast.Expr{ident("v")}, sp()),
		sp(),
	)
	body := ast.NewBlockExpr([]ast.Stmt{letStmt, useAfter}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil,
		[]*ast.Param{ast.NewParam(ident("v"), namedType("Widget"), sp())},
		nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags, nil)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a use-after-move diagnostic")
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diag.CodeUseAfterMove {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CodeUseAfterMove, got %+v", diags.Diagnostics())
	}
}

func TestCopyTypeNeverMoves(t *testing.T) {
	// fn f(n: i32) { let m = n; println(n); } -- i32 is Copy, no error.
	letStmt := ast.NewLetStmt(false, ident("m"), nil, ident("n"), sp())
	useAfter := ast.NewExprStmt(
		ast.NewCallExpr(ident("println"), []ast.Expr{ident("n")}, sp()),
		sp(),
	)
	body := ast.NewBlockExpr([]ast.Stmt{letStmt, useAfter}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil,
		[]*ast.Param{ast.NewParam(ident("n"), namedType("i32"), sp())},
		nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags, nil)
	c.checkFnDecl(fn)

	if diags.HasErrors() {
		t.Errorf("did not expect errors for copy-type reuse, got %+v", diags.Diagnostics())
	}
}

func TestRebindingRevalidatesShadowedName(t *testing.T) {
	// fn f(v: Widget) { consume(v); let v = Widget{}; use(v); }
	consume := ast.NewExprStmt(
		ast.NewCallExpr(ident("consume"), []ast.Expr{ident("v")}, sp()),
		sp(),
	)
	rebind := ast.NewLetStmt(false, ident("v"), namedType("Widget"),
		ast.NewStructLiteral(ident("Widget"), nil, sp()), sp())
	use := ast.NewExprStmt(
		ast.NewCallExpr(ident("use"), []ast.Expr{ident("v")}, sp()),
		sp(),
	)
	body := ast.NewBlockExpr([]ast.Stmt{consume, rebind, use}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil,
		[]*ast.Param{ast.NewParam(ident("v"), namedType("Widget"), sp())},
		nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags, func(typeName string) bool { return typeName == "Widget" })
	c.checkFnDecl(fn)

	if diags.HasErrors() {
		t.Errorf("re-binding should clear moved state, got %+v", diags.Diagnostics())
	}
}

func TestUseAfterMoveDetectedForUnannotatedStringLiteral(t *testing.T) {
	// fn f() { let s = "hi"; foo(s); log(s); } -- no explicit type
	// annotation on `s`; its move-type identity must come from the
	// string-literal initializer shape.
	letStmt := ast.NewLetStmt(false, ident("s"), nil, ast.NewStringLit("hi", sp()), sp())
	call := ast.NewExprStmt(ast.NewCallExpr(ident("foo"), []ast.Expr{ident("s")}, sp()), sp())
	useAfter := ast.NewExprStmt(ast.NewCallExpr(ident("log"), []ast.Expr{ident("s")}, sp()), sp())
	body := ast.NewBlockExpr([]ast.Stmt{letStmt, call, useAfter}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags, nil)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a use-after-move diagnostic for the unannotated string literal binding")
	}
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diag.CodeUseAfterMove {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CodeUseAfterMove, got %+v", diags.Diagnostics())
	}
}

func TestIsMoveTypeClassification(t *testing.T) {
	cases := map[string]bool{
		"i32":    false,
		"bool":   false,
		"string": true,
		"Widget": true,
		"Vec":    true,
		"&Widget": false,
		"*Widget": false,
	}
	for typeName, want := range cases {
		if got := IsMoveType(typeName); got != want {
			t.Errorf("IsMoveType(%q) = %v, want %v", typeName, got, want)
		}
	}
}
