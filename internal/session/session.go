// Package session wires the C→D→E safety passes (internal/move,
// internal/borrow, internal/lifetime) together with the generic
// instantiator, method resolver, local inference engine, and diagnostic
// engine into the single per-compilation value described by spec §5
// ("Session encapsulation", no cross-session shared mutable state) and
// exposes the four output-contract queries from §6.
//
// Grounded on termfx-morfx's session/run-lifecycle conventions: a UUID
// identity per run (internal/db/api.go's `uuid.NewString()` pattern) and
// `log/slog` debug-level tracing at phase boundaries rather than the
// teacher's bare fmt.Printf diagnostics.
package session

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/borrow"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/infer"
	"github.com/malphas-lang/malphas-lang/internal/instantiate"
	"github.com/malphas-lang/malphas-lang/internal/lifetime"
	"github.com/malphas-lang/malphas-lang/internal/mangle"
	"github.com/malphas-lang/malphas-lang/internal/move"
	"github.com/malphas-lang/malphas-lang/internal/resolve"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

// Session is one compilation's worth of semantic-core state: a single
// diagnostic engine, a single instantiation cache, a single resolver, and
// the move/borrow/lifetime checkers that feed it, all scoped to one
// ast.File input. Sessions do not share state -- running two files
// concurrently means constructing two Sessions (§5 "no locking": the
// package assumes single-threaded use per Session, matching spec §5).
type Session struct {
	ID string

	Diags *diag.Engine

	Move     *move.Checker
	Borrow   *borrow.Checker
	Lifetime *lifetime.Checker

	Instantiate *instantiate.Instantiator
	Resolve     *resolve.Resolver
	Infer       *infer.Engine

	Types *types.Environment

	traitDefaults map[string]string // "concreteMangled|method" -> traitName

	log *slog.Logger
}

// New constructs a Session. logger may be nil, in which case phase-boundary
// tracing is silently dropped (observability only, never required for
// correctness, per §2.3).
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	diags := diag.NewEngine()
	env := types.NewEnvironment()

	s := &Session{
		ID:            uuid.NewString(),
		Diags:         diags,
		Move:          move.NewChecker(diags, move.DefaultClassifier),
		Borrow:        borrow.NewChecker(diags),
		Lifetime:      lifetime.NewChecker(diags),
		Types:         env,
		traitDefaults: make(map[string]string),
		log:           logger,
	}
	s.Instantiate = instantiate.New(s.resolveTypeExpr, s.checkBound)
	s.Resolve = resolve.NewResolver(symbolTableOf(s.Instantiate), traitImplsOf(s, env))
	s.Infer = infer.NewEngine(nil, nil, s.methodReturn, s.operatorReturn)
	return s
}

// RegisterTraitDefault records that concreteMangled's implementation of
// method falls through to traitName's default body, feeding
// resolve.TraitImpls.DefaultMethodOwner (§4.H phase 5).
func (s *Session) RegisterTraitDefault(concreteMangled, method, traitName string) {
	s.traitDefaults[concreteMangled+"|"+method] = traitName
}

// RegisterModule exposes resolve.Resolver.RegisterModule (§4.H phase 1)
// through the Session facade so callers don't need to reach into s.Resolve
// directly for the common case.
func (s *Session) RegisterModule(moduleName string, funcNames []string) {
	s.Resolve.RegisterModule(moduleName, funcNames)
}

// Check runs the C→D→E safety passes over file in order, logging a debug
// trace at each phase boundary per §2.3.
func (s *Session) Check(file *ast.File) {
	s.log.Debug("move check starting", "session", s.ID)
	s.Move.CheckFile(file)
	s.log.Debug("borrow check starting", "session", s.ID)
	s.Borrow.CheckFile(file)
	s.log.Debug("lifetime check starting", "session", s.ID)
	s.Lifetime.CheckFile(file)
	s.log.Debug("safety checks complete", "session", s.ID, "errors", len(s.Diags.Diagnostics()))
}

// ResolveMethod implements the §6 output-contract query
// `resolve_method(receiver_type, method, arg_types) -> symbol`.
func (s *Session) ResolveMethod(req resolve.Request) (resolve.Result, bool) {
	res, ok := s.Resolve.Resolve(req)
	s.log.Debug("resolve_method", "session", s.ID, "method", req.Method, "ok", ok)
	return res, ok
}

// InstantiateFunction implements the §6 output-contract query
// `instantiate_function(fn, type_args) -> symbol`.
func (s *Session) InstantiateFunction(decl *ast.FnDecl, typeArgs []types.Type) (*instantiate.FunctionSpecialization, error) {
	spec, err := s.Instantiate.InstantiateFunction(decl, typeArgs)
	s.log.Debug("instantiate_function", "session", s.ID, "fn", decl.Name.Name, "err", err)
	return spec, err
}

// LayoutOf implements the §6 output-contract query
// `layout_of(mangled_name) -> field list`.
func (s *Session) LayoutOf(mangledName string) ([]string, bool) {
	layout, ok := s.Instantiate.Structs()[mangledName]
	if !ok {
		return nil, false
	}
	return layout.FieldNames, true
}

// FieldIndex implements the §6 output-contract query
// `field_index(mangled_name, field) -> u32`.
func (s *Session) FieldIndex(mangledName, field string) (int, bool) {
	layout, ok := s.Instantiate.Structs()[mangledName]
	if !ok {
		return 0, false
	}
	for i, name := range layout.FieldNames {
		if name == field {
			return i, true
		}
	}
	return 0, false
}

// resolveTypeExpr is the internal/instantiate resolve callback. The kept
// teacher types.Checker machinery is deliberately NOT used here
// (internal/types.Checker carries the pre-existing duplicate-definition
// problem documented in DESIGN.md); Session instead resolves the narrow set
// of TypeExpr shapes instantiate/infer actually need.
func (s *Session) resolveTypeExpr(te ast.TypeExpr) types.Type {
	switch t := te.(type) {
	case *ast.NamedType:
		if prim, ok := types.LookupPrimitive(t.Name.Name); ok {
			return prim
		}
		return &types.Named{Name: t.Name.Name}
	case *ast.ReferenceType:
		return &types.Reference{Elem: s.resolveTypeExpr(t.Elem), Mut: t.Mutable}
	case *ast.PointerType:
		return &types.Pointer{Elem: s.resolveTypeExpr(t.Elem)}
	case *ast.SliceType:
		return &types.Slice{Elem: s.resolveTypeExpr(t.Elem)}
	default:
		return types.Unknown
	}
}

func (s *Session) checkBound(concrete types.Type, boundName string) bool {
	return s.Types.HasImpl(boundName, concrete)
}

func (s *Session) methodReturn(receiver types.Type, method string) (types.Type, bool) {
	mangled := mangle.TypeArgString(receiver)
	res, ok := s.Resolve.Resolve(resolve.Request{ReceiverMangled: mangled, Method: method})
	if !ok {
		return nil, false
	}
	spec, ok := s.Instantiate.Functions()[res.MangledName]
	if !ok {
		return nil, false
	}
	return spec.ReturnType, true
}

func (s *Session) operatorReturn(operandType types.Type, op string) (types.Type, bool) {
	return s.methodReturn(operandType, op)
}

// symbolTableOf adapts an Instantiator's function registry to
// resolve.SymbolTable.
func symbolTableOf(in *instantiate.Instantiator) resolve.SymbolTable {
	return instantiatorSymbols{in}
}

type instantiatorSymbols struct{ in *instantiate.Instantiator }

func (s instantiatorSymbols) Has(name string) bool {
	if _, ok := s.in.Functions()[name]; ok {
		return true
	}
	_, ok := s.in.Structs()[name]
	return ok
}

// traitImplsOf adapts a Session's trait bookkeeping (types.Environment plus
// the explicit default-method registry) to resolve.TraitImpls.
func traitImplsOf(s *Session, env *types.Environment) resolve.TraitImpls {
	return sessionTraitImpls{session: s, env: env}
}

type sessionTraitImpls struct {
	session *Session
	env     *types.Environment
}

// Implementor reports concreteMangled as its own implementor's mangled name
// when env confirms the impl exists: trait impls in this language are
// inherent on the concrete type rather than housed in a separately-mangled
// impl record, per original_source/vex-compiler's trait_methods.rs.
func (t sessionTraitImpls) Implementor(concreteMangled, traitName string) (string, bool) {
	if t.env.HasImpl(traitName, &types.Named{Name: concreteMangled}) {
		return concreteMangled, true
	}
	return "", false
}

func (t sessionTraitImpls) DefaultMethodOwner(concreteMangled, method string) (string, bool) {
	name, ok := t.session.traitDefaults[concreteMangled+"|"+method]
	return name, ok
}

// ImplementedTraits delegates to types.Environment's reverse index, letting
// resolve.Resolver's automatic phase-4 probe enumerate concreteMangled's
// traits without already knowing one by name.
func (t sessionTraitImpls) ImplementedTraits(concreteMangled string) []string {
	return t.env.ImplementedTraits(concreteMangled)
}
