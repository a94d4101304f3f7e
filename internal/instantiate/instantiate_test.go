package instantiate

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func namedTypeExpr(name string) ast.TypeExpr { return ast.NewNamedType(ident(name), sp()) }

func simpleResolver(t *testing.T) func(ast.TypeExpr) types.Type {
	return func(te ast.TypeExpr) types.Type {
		nt, ok := te.(*ast.NamedType)
		if !ok {
			t.Fatalf("unexpected type expr %T", te)
		}
		if prim, ok := types.LookupPrimitive(nt.Name.Name); ok {
			return prim
		}
		return &types.Named{Name: nt.Name.Name}
	}
}

func TestInstantiateStructCachesByMangledName(t *testing.T) {
	decl := ast.NewStructDecl(false, ident("Box"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), nil, sp())},
		nil,
		[]*ast.StructField{ast.NewStructField(ident("value"), namedTypeExpr("T"), sp())},
		sp())

	in := New(simpleResolver(t), nil)
	a, err := in.InstantiateStruct(decl, []types.Type{types.TypeI32})
	if err != nil {
		t.Fatal(err)
	}
	b, err := in.InstantiateStruct(decl, []types.Type{types.TypeI32})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the same cached StructLayout pointer on repeat instantiation")
	}
	if a.MangledName != "Box_i32" {
		t.Errorf("mangled name = %q, want Box_i32", a.MangledName)
	}
	if a.FieldTypes[0] != types.TypeI32 {
		t.Errorf("field type = %v, want i32", a.FieldTypes[0])
	}
}

func TestInstantiateStructDistinctTypeArgsDontCollide(t *testing.T) {
	decl := ast.NewStructDecl(false, ident("Box"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), nil, sp())},
		nil,
		[]*ast.StructField{ast.NewStructField(ident("value"), namedTypeExpr("T"), sp())},
		sp())

	in := New(simpleResolver(t), nil)
	i32Layout, _ := in.InstantiateStruct(decl, []types.Type{types.TypeI32})
	boolLayout, _ := in.InstantiateStruct(decl, []types.Type{types.TypeBool})

	if i32Layout.MangledName == boolLayout.MangledName {
		t.Error("distinct type arguments must produce distinct mangled names")
	}
}

func TestInstantiateFunctionSubstitutesParamAndReturnTypes(t *testing.T) {
	decl := ast.NewFnDecl(false, false, ident("identity"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), nil, sp())},
		[]*ast.Param{ast.NewParam(ident("x"), namedTypeExpr("T"), sp())},
		namedTypeExpr("T"), nil, nil, ast.NewBlockExpr(nil, ident("x"), sp()), sp())

	in := New(simpleResolver(t), nil)
	spec, err := in.InstantiateFunction(decl, []types.Type{types.TypeI64})
	if err != nil {
		t.Fatal(err)
	}
	if spec.ParamTypes[0] != types.TypeI64 {
		t.Errorf("param type = %v, want i64", spec.ParamTypes[0])
	}
	if spec.ReturnType != types.TypeI64 {
		t.Errorf("return type = %v, want i64", spec.ReturnType)
	}
}

func TestTraitBoundViolationRejected(t *testing.T) {
	decl := ast.NewFnDecl(false, false, ident("show"),
		[]ast.GenericParam{ast.NewTypeParam(ident("T"), []ast.TypeExpr{namedTypeExpr("Show")}, sp())},
		[]*ast.Param{ast.NewParam(ident("x"), namedTypeExpr("T"), sp())},
		nil, nil, nil, ast.NewBlockExpr(nil, nil, sp()), sp())

	in := New(simpleResolver(t), func(concrete types.Type, bound string) bool {
		return false // nothing satisfies any bound in this test
	})
	_, err := in.InstantiateFunction(decl, []types.Type{types.TypeI32})
	if err == nil {
		t.Fatal("expected a trait bound error")
	}
	if _, ok := err.(*TraitBoundError); !ok {
		t.Errorf("expected *TraitBoundError, got %T", err)
	}
}
