// Package infer implements the local type-inference engine (§4.I): tagging
// `let`-bindings with a concrete struct/enum identity by walking the shape
// of their initializer expression, so later passes (method resolution,
// mangling) have a concrete receiver type even where the source carries no
// annotation.
//
// Grounded on internal/types.Scope/Symbol (internal/types/scope.go)'s
// parent-linked symbol table, generalized with an extra per-symbol
// "Unknown, resolve on first concrete use" placeholder state described in
// §4.I, and on the shape-matching idiom of internal/types/checker_expr.go's
// expression-kind type checks.
package infer

import (
	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

// Identity is the inferred concrete type identity of a binding: either a
// resolved type, or Unknown pending a later concrete use.
type Identity struct {
	Type    types.Type
	Unknown bool
}

// MethodReturnLookup answers "what type does calling method on a value of
// type receiver return", used when an initializer is itself a method call
// (§4.I "method-call return types"). Supplied by the caller since the
// answer depends on struct/trait declarations this package doesn't own.
type MethodReturnLookup func(receiver types.Type, method string) (types.Type, bool)

// OperatorReturnLookup answers the same question for a binary/unary
// operator method (§4.I "binary/unary operator-method return types").
type OperatorReturnLookup func(operandType types.Type, op string) (types.Type, bool)

// Engine walks `let` initializers and tags each binding with its inferred
// identity, per the table in §4.I.
type Engine struct {
	// Bindings maps a binding name to its currently inferred identity.
	// A name re-bound later overwrites its prior entry, matching
	// shadowing semantics shared with internal/move.
	Bindings map[string]*Identity

	StructTypes map[string]*types.Struct
	EnumTypes   map[string]*types.Enum

	MethodReturn   MethodReturnLookup
	OperatorReturn OperatorReturnLookup
}

// NewEngine constructs an inference engine. lookups may be nil; when nil,
// the corresponding initializer shapes simply resolve to Unknown instead of
// a concrete type, rather than panicking.
func NewEngine(structTypes map[string]*types.Struct, enumTypes map[string]*types.Enum, methodReturn MethodReturnLookup, operatorReturn OperatorReturnLookup) *Engine {
	return &Engine{
		Bindings:       make(map[string]*Identity),
		StructTypes:    structTypes,
		EnumTypes:      enumTypes,
		MethodReturn:   methodReturn,
		OperatorReturn: operatorReturn,
	}
}

// InferLet infers the identity of a `let` binding's initializer and
// records it under name, per §4.I's table of initializer shapes.
func (e *Engine) InferLet(name string, init ast.Expr) Identity {
	id := e.infer(init)
	e.Bindings[name] = &id
	return id
}

// Lookup returns the currently recorded identity for name, or an Identity
// with Unknown set if nothing has been inferred for it yet.
func (e *Engine) Lookup(name string) Identity {
	if id, ok := e.Bindings[name]; ok {
		return *id
	}
	return Identity{Unknown: true}
}

// ResolveUnknown narrows a previously Unknown binding to concrete once a
// later use establishes its type (§4.I "Unknown placeholder resolution on
// first concrete use"): e.g. `let mut x; x = Widget{};` first records x as
// Unknown, then this call on the first assignment narrows it.
func (e *Engine) ResolveUnknown(name string, concrete types.Type) {
	if id, ok := e.Bindings[name]; ok && id.Unknown {
		id.Type = concrete
		id.Unknown = false
		return
	}
	e.Bindings[name] = &Identity{Type: concrete}
}

func (e *Engine) infer(init ast.Expr) Identity {
	if init == nil {
		return Identity{Unknown: true}
	}
	switch expr := init.(type) {
	case *ast.StructLiteral:
		return e.inferStructLiteral(expr)
	case *ast.CallExpr:
		return e.inferCall(expr)
	case *ast.InfixExpr:
		return e.inferInfix(expr)
	case *ast.PrefixExpr:
		return e.inferPrefix(expr)
	case *ast.Ident:
		// Copying an existing binding's identity (`let b = a;`).
		if id, ok := e.Bindings[expr.Name]; ok {
			return *id
		}
		return Identity{Unknown: true}
	case *ast.IntegerLit:
		return Identity{Type: types.TypeI32}
	case *ast.FloatLit:
		return Identity{Type: types.TypeF64}
	case *ast.BoolLit:
		return Identity{Type: types.TypeBool}
	case *ast.StringLit:
		return Identity{Type: types.TypeString}
	case *ast.TupleLiteral:
		elems := make([]types.Type, len(expr.Elements))
		for i, el := range expr.Elements {
			id := e.infer(el)
			if id.Unknown {
				return Identity{Unknown: true}
			}
			elems[i] = id.Type
		}
		return Identity{Type: &types.Tuple{Elems: elems}}
	case *ast.ArrayLiteral:
		if len(expr.Elements) == 0 {
			return Identity{Unknown: true}
		}
		elemID := e.infer(expr.Elements[0])
		if elemID.Unknown {
			return Identity{Unknown: true}
		}
		return Identity{Type: &types.Slice{Elem: elemID.Type}}
	default:
		return Identity{Unknown: true}
	}
}

// inferStructLiteral handles `let w = Widget{...}` — the struct literal's
// own name IS the type identity (§4.I "struct literals").
func (e *Engine) inferStructLiteral(lit *ast.StructLiteral) Identity {
	name, ok := structLiteralName(lit.Name)
	if !ok {
		return Identity{Unknown: true}
	}
	if st, ok := e.StructTypes[name]; ok {
		return Identity{Type: st}
	}
	return Identity{Type: &types.Named{Name: name}}
}

func structLiteralName(nameExpr ast.Expr) (string, bool) {
	switch n := nameExpr.(type) {
	case *ast.Ident:
		return n.Name, true
	case *ast.IndexExpr:
		return structLiteralName(n.Target)
	default:
		return "", false
	}
}

// inferCall handles three call shapes from §4.I: a method call (Callee is a
// FieldExpr), delegated to inferMethodCall; and a static-type constructor
// call whose Callee is an Ident naming a known struct or a known enum.
// Any other call is Unknown.
func (e *Engine) inferCall(call *ast.CallExpr) Identity {
	switch callee := call.Callee.(type) {
	case *ast.FieldExpr:
		return e.inferMethodCall(callee, call)
	case *ast.Ident:
		if st, ok := e.StructTypes[callee.Name]; ok {
			return Identity{Type: st}
		}
		if en, ok := e.EnumTypes[callee.Name]; ok {
			return Identity{Type: en}
		}
	}
	return Identity{Unknown: true}
}

// inferMethodCall handles `let r = v.method(...)` via the injected
// MethodReturnLookup, per §4.I "method-call return types".
func (e *Engine) inferMethodCall(field *ast.FieldExpr, call *ast.CallExpr) Identity {
	if e.MethodReturn == nil {
		return Identity{Unknown: true}
	}
	receiverID := e.infer(field.Target)
	if receiverID.Unknown || receiverID.Type == nil {
		return Identity{Unknown: true}
	}
	retType, ok := e.MethodReturn(receiverID.Type, field.Field.Name)
	if !ok {
		return Identity{Unknown: true}
	}
	return Identity{Type: retType}
}

// inferInfix handles `let c = a + b` via the injected
// OperatorReturnLookup, per §4.I "binary operator-method return types".
func (e *Engine) inferInfix(expr *ast.InfixExpr) Identity {
	if e.OperatorReturn == nil {
		return Identity{Unknown: true}
	}
	leftID := e.infer(expr.Left)
	if leftID.Unknown || leftID.Type == nil {
		return Identity{Unknown: true}
	}
	retType, ok := e.OperatorReturn(leftID.Type, "op"+string(expr.Op))
	if !ok {
		return Identity{Unknown: true}
	}
	return Identity{Type: retType}
}

// inferPrefix handles unary operator methods (`let n = -a;`) the same way
// as inferInfix, and passes references through to their operand's
// identity (`let r = &w;` has the same concrete identity as `w` for the
// purposes of method resolution on the referent).
func (e *Engine) inferPrefix(expr *ast.PrefixExpr) Identity {
	operandID := e.infer(expr.Expr)
	if isReferenceOp(expr.Op) {
		return operandID
	}
	if e.OperatorReturn == nil || operandID.Unknown || operandID.Type == nil {
		return Identity{Unknown: true}
	}
	retType, ok := e.OperatorReturn(operandID.Type, "op"+string(expr.Op))
	if !ok {
		return Identity{Unknown: true}
	}
	return Identity{Type: retType}
}

func isReferenceOp(op lexer.TokenType) bool {
	return op == lexer.AMPERSAND || op == lexer.REF_MUT
}
