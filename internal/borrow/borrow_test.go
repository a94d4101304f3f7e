package borrow

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func refExpr(name string, mut bool) *ast.PrefixExpr {
	op := lexer.AMPERSAND
	if mut {
		op = lexer.REF_MUT
	}
	return ast.NewPrefixExpr(op, ident(name), sp())
}

func TestSharedBorrowsCoexist(t *testing.T) {
	// let a = &v; let b = &v;
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("a"), nil, refExpr("v", false), sp()),
		ast.NewLetStmt(false, ident("b"), nil, refExpr("v", false), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if diags.HasErrors() {
		t.Errorf("two shared borrows should coexist, got %+v", diags.Diagnostics())
	}
}

func TestMutableBorrowWhileSharedBorrowed(t *testing.T) {
	// let a = &v; let b = &mut v;
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("a"), nil, refExpr("v", false), sp()),
		ast.NewLetStmt(false, ident("b"), nil, refExpr("v", true), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a borrow-conflict diagnostic")
	}
	if diags.Diagnostics()[0].Code != diag.CodeImmutableBorrowWhileMutBorrowed {
		t.Errorf("code = %v, want %v", diags.Diagnostics()[0].Code, diag.CodeImmutableBorrowWhileMutBorrowed)
	}
}

func TestSecondMutableBorrowRejected(t *testing.T) {
	// let a = &mut v; let b = &mut v;
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("a"), nil, refExpr("v", true), sp()),
		ast.NewLetStmt(false, ident("b"), nil, refExpr("v", true), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a borrow-conflict diagnostic")
	}
	if diags.Diagnostics()[0].Code != diag.CodeMutableBorrowWhileBorrowed {
		t.Errorf("code = %v, want %v", diags.Diagnostics()[0].Code, diag.CodeMutableBorrowWhileBorrowed)
	}
}

func TestMutationWhileBorrowedRejected(t *testing.T) {
	// let a = &v; v = other;
	body := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("a"), nil, refExpr("v", false), sp()),
		ast.NewExprStmt(ast.NewAssignExpr(ident("v"), ident("other"), sp()), sp()),
	}, nil, sp())
	fn := ast.NewFnDecl(false, false, ident("f"), nil, nil, nil, nil, nil, body, sp())

	diags := diag.NewEngine()
	c := NewChecker(diags)
	c.checkFnDecl(fn)

	if !diags.HasErrors() {
		t.Fatal("expected a mutation-while-borrowed diagnostic")
	}
	if diags.Diagnostics()[0].Code != diag.CodeMutationWhileBorrowed {
		t.Errorf("code = %v, want %v", diags.Diagnostics()[0].Code, diag.CodeMutationWhileBorrowed)
	}
}

func TestBorrowsReleaseAtFunctionBoundary(t *testing.T) {
	diags := diag.NewEngine()
	c := NewChecker(diags)

	body1 := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("a"), nil, refExpr("v", true), sp()),
	}, nil, sp())
	fn1 := ast.NewFnDecl(false, false, ident("f1"), nil, nil, nil, nil, nil, body1, sp())
	c.checkFnDecl(fn1)

	body2 := ast.NewBlockExpr([]ast.Stmt{
		ast.NewLetStmt(false, ident("b"), nil, refExpr("v", true), sp()),
	}, nil, sp())
	fn2 := ast.NewFnDecl(false, false, ident("f2"), nil, nil, nil, nil, nil, body2, sp())
	c.checkFnDecl(fn2)

	if diags.HasErrors() {
		t.Errorf("borrow state must not leak across function boundaries, got %+v", diags.Diagnostics())
	}
}
