package session

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/resolve"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func namedTypeExpr(name string) ast.TypeExpr { return ast.NewNamedType(ident(name), sp()) }

func TestNewSessionAssignsID(t *testing.T) {
	s := New(nil)
	if s.ID == "" {
		t.Fatal("expected a non-empty session ID")
	}
	s2 := New(nil)
	if s.ID == s2.ID {
		t.Error("expected distinct sessions to get distinct IDs")
	}
}

func TestInstantiateFunctionThroughSession(t *testing.T) {
	decl := ast.NewFnDecl(false, false, ident("identity"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), nil, sp())},
		[]*ast.Param{ast.NewParam(ident("x"), namedTypeExpr("T"), sp())},
		namedTypeExpr("T"), nil, nil, ast.NewBlockExpr(nil, ident("x"), sp()), sp())

	s := New(nil)
	spec, err := s.InstantiateFunction(decl, []types.Type{types.TypeI64})
	if err != nil {
		t.Fatal(err)
	}
	if spec.ReturnType != types.TypeI64 {
		t.Errorf("got %v, want i64", spec.ReturnType)
	}
}

func TestLayoutOfAndFieldIndex(t *testing.T) {
	decl := ast.NewStructDecl(false, ident("Box"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), nil, sp())},
		nil,
		[]*ast.StructField{ast.NewStructField(ident("value"), namedTypeExpr("T"), sp())},
		sp())

	s := New(nil)
	layout, err := s.Instantiate.InstantiateStruct(decl, []types.Type{types.TypeI32})
	if err != nil {
		t.Fatal(err)
	}

	fields, ok := s.LayoutOf(layout.MangledName)
	if !ok || len(fields) != 1 || fields[0] != "value" {
		t.Errorf("got %v, %v", fields, ok)
	}

	idx, ok := s.FieldIndex(layout.MangledName, "value")
	if !ok || idx != 0 {
		t.Errorf("got %v, %v", idx, ok)
	}

	if _, ok := s.FieldIndex(layout.MangledName, "missing"); ok {
		t.Error("expected FieldIndex to fail for an unknown field")
	}
}

func TestResolveMethodModuleNamespace(t *testing.T) {
	s := New(nil)
	s.RegisterModule("io", []string{"print"})

	res, ok := s.ResolveMethod(resolve.Request{Receiver: "io", Method: "print", ArgCount: 1})
	if !ok {
		t.Fatal("expected module-namespace resolution to succeed")
	}
	if res.MangledName != "print" {
		t.Errorf("got %q", res.MangledName)
	}
}
