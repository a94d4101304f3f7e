// Package instantiate implements the generic instantiator (§4.G): on-demand
// specialization of generic functions, structs, and methods for a concrete
// tuple of type arguments, memoized by mangled name in write-once
// registries.
//
// Grounded on internal/mir.Monomorphizer (internal/mir/monomorphize.go):
// its specialize/createSpecializedCopy/instantiations-map shape is kept,
// generalized from MIR-level Function/BasicBlock copying to AST-level
// FnDecl/StructDecl substitution driven by internal/mangle and
// internal/types.Substitute, since this package runs ahead of codegen
// lowering in the pipeline described by §6.
package instantiate

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/mangle"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

// StructLayout is the result of instantiating a generic struct: its
// mangled name, the concrete field types in declaration order, and the
// original declaration it was specialized from.
type StructLayout struct {
	MangledName string
	Source      *ast.StructDecl
	FieldNames  []string
	FieldTypes  []types.Type
}

// FunctionSpecialization is the result of instantiating a generic
// function or method.
type FunctionSpecialization struct {
	MangledName string
	Source      *ast.FnDecl
	ParamTypes  []types.Type
	ReturnType  types.Type
	Subst       map[string]types.Type
}

// TraitBoundError reports a type argument that does not satisfy a generic
// parameter's trait bound.
type TraitBoundError struct {
	Param string
	Type  types.Type
	Bound string
}

func (e *TraitBoundError) Error() string {
	return fmt.Sprintf("type %s does not satisfy bound %s required by %s", e.Type.String(), e.Bound, e.Param)
}

// BoundChecker reports whether concrete satisfies the named trait bound.
// Supplied by the caller (the resolver/session owns trait-impl knowledge);
// instantiate itself only enforces the contract, it doesn't discover impls.
type BoundChecker func(concrete types.Type, boundName string) bool

// Instantiator holds the write-once registries described in §4.G ("Struct
// layout registry" and "Function symbol registry") plus the type resolver
// used to turn an ast.TypeExpr parameter annotation into a types.Type
// before substitution.
type Instantiator struct {
	structs   map[string]*StructLayout
	functions map[string]*FunctionSpecialization
	resolve   func(ast.TypeExpr) types.Type
	checkBound BoundChecker
}

// New constructs an Instantiator. resolve turns a syntactic type annotation
// into a types.Type (grounded on the teacher's Checker.resolveType,
// generalized into an injected function so this package does not depend on
// internal/types.Checker directly). checkBound may be nil, in which case
// trait bounds are not enforced (callers that haven't wired trait
// resolution yet can still instantiate).
func New(resolve func(ast.TypeExpr) types.Type, checkBound BoundChecker) *Instantiator {
	return &Instantiator{
		structs:    make(map[string]*StructLayout),
		functions:  make(map[string]*FunctionSpecialization),
		resolve:    resolve,
		checkBound: checkBound,
	}
}

// InstantiateStruct returns the (possibly cached) layout for decl
// specialized with typeArgs, per §4.G "Struct instantiation": the registry
// is write-once -- once a mangled name is populated, the same
// StructLayout is returned on every subsequent call rather than
// recomputed.
func (in *Instantiator) InstantiateStruct(decl *ast.StructDecl, typeArgs []types.Type) (*StructLayout, error) {
	if err := in.validateBounds(decl.TypeParams, typeArgs); err != nil {
		return nil, err
	}

	mangled := mangle.MangleStructName(decl.Name.Name, typeArgs)
	if existing, ok := in.structs[mangled]; ok {
		return existing, nil
	}

	subst := substitutionMap(decl.TypeParams, typeArgs)

	layout := &StructLayout{
		MangledName: mangled,
		Source:      decl,
		FieldNames:  make([]string, len(decl.Fields)),
		FieldTypes:  make([]types.Type, len(decl.Fields)),
	}
	for i, f := range decl.Fields {
		layout.FieldNames[i] = f.Name.Name
		layout.FieldTypes[i] = mangle.Substitute(in.resolve(f.Type), subst)
	}

	in.structs[mangled] = layout
	return layout, nil
}

// InstantiateFunction returns the (possibly cached) specialization for a
// free generic function decl with typeArgs, per §4.G "Function
// instantiation".
func (in *Instantiator) InstantiateFunction(decl *ast.FnDecl, typeArgs []types.Type) (*FunctionSpecialization, error) {
	return in.instantiateFn("", decl, typeArgs)
}

// InstantiateMethod returns the (possibly cached) specialization for a
// method decl whose receiver struct is already mangled as structMangled
// (e.g. "Vec_i32"), per §4.G "Method instantiation": the mangled method
// name is namespaced under the receiver's mangled struct name so methods
// of distinct instantiations never collide (Property 5).
func (in *Instantiator) InstantiateMethod(structMangled string, decl *ast.FnDecl, typeArgs []types.Type) (*FunctionSpecialization, error) {
	return in.instantiateFn(structMangled, decl, typeArgs)
}

func (in *Instantiator) instantiateFn(structMangled string, decl *ast.FnDecl, typeArgs []types.Type) (*FunctionSpecialization, error) {
	if err := in.validateBounds(decl.TypeParams, typeArgs); err != nil {
		return nil, err
	}

	base := decl.Name.Name
	if structMangled != "" {
		base = structMangled + "_" + base
	}
	mangled := mangle.MangleStructName(base, typeArgs)
	if existing, ok := in.functions[mangled]; ok {
		return existing, nil
	}

	subst := substitutionMap(decl.TypeParams, typeArgs)

	spec := &FunctionSpecialization{
		MangledName: mangled,
		Source:      decl,
		ParamTypes:  make([]types.Type, len(decl.Params)),
		Subst:       subst,
	}
	for i, p := range decl.Params {
		spec.ParamTypes[i] = mangle.Substitute(in.resolve(p.Type), subst)
	}
	if decl.ReturnType != nil {
		spec.ReturnType = mangle.Substitute(in.resolve(decl.ReturnType), subst)
	} else {
		spec.ReturnType = types.TypeUnit
	}

	in.functions[mangled] = spec
	return spec, nil
}

// validateBounds enforces every type parameter's trait bounds against its
// corresponding concrete type argument, per §4.G "trait-bound validation".
// Unresolved ("Unknown") type arguments are accepted here and left for the
// caller to re-validate once local inference (internal/infer) has narrowed
// them -- §4.I's "Unknown-type inference-or-failure handling" is the
// authority on when Unknown must be rejected outright.
func (in *Instantiator) validateBounds(params []ast.GenericParam, typeArgs []types.Type) error {
	if in.checkBound == nil {
		return nil
	}
	for i, gp := range params {
		tp, ok := gp.(*ast.TypeParam)
		if !ok || i >= len(typeArgs) {
			continue
		}
		concrete := typeArgs[i]
		if types.IsUnknown(concrete) {
			continue
		}
		for _, boundExpr := range tp.Bounds {
			boundName := in.resolve(boundExpr).String()
			if !in.checkBound(concrete, boundName) {
				return &TraitBoundError{Param: tp.Name.Name, Type: concrete, Bound: boundName}
			}
		}
	}
	return nil
}

func substitutionMap(params []ast.GenericParam, typeArgs []types.Type) map[string]types.Type {
	subst := make(map[string]types.Type, len(params))
	for i, gp := range params {
		tp, ok := gp.(*ast.TypeParam)
		if !ok || i >= len(typeArgs) {
			continue
		}
		subst[tp.Name.Name] = typeArgs[i]
	}
	return subst
}

// Structs returns every struct layout instantiated so far, for diagnostics
// and codegen enumeration.
func (in *Instantiator) Structs() map[string]*StructLayout {
	return in.structs
}

// Functions returns every function specialization instantiated so far.
func (in *Instantiator) Functions() map[string]*FunctionSpecialization {
	return in.functions
}
