package lifetime

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func TestUseOfUndeclaredNameReportsUseAfterScopeEnd(t *testing.T) {
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewExprStmt(ast.NewCallExpr(ident("println"), []ast.Expr{ident("mystery")}, sp()), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a use-after-scope-end diagnostic")
	}
	if diags.Diagnostics()[0].Code != diag.CodeUseAfterScopeEnd {
		t.Errorf("code = %v, want %v", diags.Diagnostics()[0].Code, diag.CodeUseAfterScopeEnd)
	}
}

func TestReassigningReferenceAcrossScopeBoundaryIsDangling(t *testing.T) {
	// fn f() { let mut r = &one; if cond { let local = 2; r = &local; } }
	outerLet := ast.NewLetStmt(true, ident("r"), nil,
		ast.NewPrefixExpr(lexer.AMPERSAND, ident("one"), sp()), sp())
	innerLet := ast.NewLetStmt(false, ident("local"), nil, ident("two"), sp())
	reassign := ast.NewExprStmt(
		ast.NewAssignExpr(ident("r"), ast.NewPrefixExpr(lexer.AMPERSAND, ident("local"), sp()), sp()),
		sp())
	innerBlock := ast.NewBlockExpr([]ast.Stmt{innerLet, reassign}, nil, sp())
	ifStmt := ast.NewIfStmt([]*ast.IfClause{
		ast.NewIfClause(ident("cond"), innerBlock, sp()),
	}, nil, sp())
	body := ast.NewBlockExpr([]ast.Stmt{outerLet, ifStmt}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil, []*ast.Param{ast.NewParam(ident("cond"), nil, sp()), ast.NewParam(ident("one"), nil, sp()), ast.NewParam(ident("two"), nil, sp())},
		nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a dangling-reference diagnostic for r = &local")
	}
	if diags.Diagnostics()[0].Code != diag.CodeDanglingReference {
		t.Errorf("code = %v, want %v", diags.Diagnostics()[0].Code, diag.CodeDanglingReference)
	}
}

func TestParamsAndLocalsAreInScope(t *testing.T) {
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("y"), nil, ident("x"), sp()),
		ast.NewExprStmt(ast.NewCallExpr(ident("println"), []ast.Expr{ident("y")}, sp()), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil, []*ast.Param{ast.NewParam(ident("x"), nil, sp())}, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if diags.HasErrors() {
		t.Errorf("did not expect errors, got %+v", diags.Diagnostics())
	}
}

func TestBlockScopedLocalGoesOutOfScopeAfterBlock(t *testing.T) {
	// if true { let inner = 1; } println(inner);
	innerBlock := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("inner"), nil, ident("one"), sp()),
	}, nil, sp())
	ifStmt := ast.NewIfStmt([]*ast.IfClause{
		ast.NewIfClause(ident("cond"), innerBlock, sp()),
	}, nil, sp())
	useAfter := ast.NewExprStmt(ast.NewCallExpr(ident("println"), []ast.Expr{ident("inner")}, sp()), sp())
	body := ast.NewBlockExpr([]ast.Stmt{ifStmt, useAfter}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"),
		nil, []*ast.Param{ast.NewParam(ident("cond"), nil, sp()), ast.NewParam(ident("one"), nil, sp())},
		nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected inner to be out of scope after its block ends")
	}
}

func TestTopLevelForwardReferenceAllowed(t *testing.T) {
	callerBody := ast.NewBlockExpr([]ast.Stmt{
		ast.NewExprStmt(ast.NewCallExpr(ident("callee"), nil, sp()), sp()),
	}, nil, sp())
	caller := ast.NewFnDecl(false, false, ident("caller"), nil, nil, nil, nil, nil, callerBody, sp())
	calleeBody := ast.NewBlockExpr(nil, nil, sp())
	callee := ast.NewFnDecl(false, false, ident("callee"), nil, nil, nil, nil, nil, calleeBody, sp())

	file := &ast.File{Decls: []ast.Decl{caller, callee}}

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.CheckFile(file)

	if diags.HasErrors() {
		t.Errorf("forward reference to a later top-level fn should be allowed, got %+v", diags.Diagnostics())
	}
}
