package infer

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

func sp() lexer.Span { return lexer.Span{Filename: "t.mal", Line: 1, Column: 1} }

func ident(name string) *ast.Ident { return ast.NewIdent(name, sp()) }

func TestInferStructLiteralIdentity(t *testing.T) {
	widget := &types.Struct{Name: "Widget"}
	e := NewEngine(map[string]*types.Struct{"Widget": widget}, nil, nil, nil)

	lit := ast.NewStructLiteral(ident("Widget"), nil, sp())
	id := e.InferLet("w", lit)
	if id.Unknown {
		t.Fatal("expected a concrete identity for a struct literal")
	}
	if id.Type != widget {
		t.Errorf("got %v, want the Widget struct type", id.Type)
	}
}

func TestInferPrimitiveLiterals(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil)

	id := e.InferLet("n", ast.NewIntegerLit("42", sp()))
	if id.Unknown || id.Type != types.TypeI32 {
		t.Errorf("got %v, want i32", id.Type)
	}
}

func TestInferCopiesIdentityThroughIdentAlias(t *testing.T) {
	widget := &types.Struct{Name: "Widget"}
	e := NewEngine(map[string]*types.Struct{"Widget": widget}, nil, nil, nil)

	e.InferLet("a", ast.NewStructLiteral(ident("Widget"), nil, sp()))
	id := e.InferLet("b", ident("a"))
	if id.Unknown || id.Type != widget {
		t.Errorf("got %v, want the Widget struct type copied from a", id.Type)
	}
}

func TestInferMethodCallReturnType(t *testing.T) {
	widget := &types.Struct{Name: "Widget"}
	methodReturn := func(receiver types.Type, method string) (types.Type, bool) {
		if receiver == types.Type(widget) && method == "describe" {
			return types.TypeString, true
		}
		return nil, false
	}
	e := NewEngine(map[string]*types.Struct{"Widget": widget}, nil, methodReturn, nil)

	e.InferLet("w", ast.NewStructLiteral(ident("Widget"), nil, sp()))
	call := ast.NewCallExpr(&ast.FieldExpr{Target: ident("w"), Field: ident("describe")}, nil, sp())
	id := e.InferLet("s", call)
	if id.Unknown || id.Type != types.TypeString {
		t.Errorf("got %v, want string", id.Type)
	}
}

func TestInferOperatorMethodReturnType(t *testing.T) {
	operatorReturn := func(operand types.Type, op string) (types.Type, bool) {
		if operand == types.TypeI32 && op == "op+" {
			return types.TypeI32, true
		}
		return nil, false
	}
	e := NewEngine(nil, nil, nil, operatorReturn)

	e.InferLet("a", ast.NewIntegerLit("1", sp()))
	infix := ast.NewInfixExpr(lexer.PLUS, ident("a"), ast.NewIntegerLit("2", sp()), sp())
	id := e.InferLet("c", infix)
	if id.Unknown || id.Type != types.TypeI32 {
		t.Errorf("got %v, want i32", id.Type)
	}
}

func TestReferencePrefixPassesThroughIdentity(t *testing.T) {
	widget := &types.Struct{Name: "Widget"}
	e := NewEngine(map[string]*types.Struct{"Widget": widget}, nil, nil, nil)

	e.InferLet("w", ast.NewStructLiteral(ident("Widget"), nil, sp()))
	ref := &ast.PrefixExpr{Op: lexer.AMPERSAND, Expr: ident("w")}
	id := e.InferLet("r", ref)
	if id.Unknown || id.Type != widget {
		t.Errorf("got %v, want the Widget struct type passed through the reference", id.Type)
	}
}

func TestUnknownResolvedOnFirstConcreteUse(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil)

	e.Bindings["x"] = &Identity{Unknown: true}
	if got := e.Lookup("x"); !got.Unknown {
		t.Fatal("expected x to start Unknown")
	}

	e.ResolveUnknown("x", types.TypeI64)
	got := e.Lookup("x")
	if got.Unknown || got.Type != types.TypeI64 {
		t.Errorf("got %v, want resolved i64", got)
	}
}
