// Package resolve implements the method resolver (§4.H): the 7-phase
// dispatch from a call-site (receiver, method name, args) to a concrete
// mangled symbol name.
//
// Grounded directly on original_source/vex-compiler's
// compile_method_call (codegen_ast/expressions/calls/method_calls.rs,
// phase ordering: builtin-contract -> module-namespace -> static-method ->
// instance dispatch) and resolve_method_name
// (codegen_ast/expressions/calls/trait_methods.rs, candidate precedence:
// inline-typed > inline-plain > external-typed > external-plain > legacy),
// re-expressed in the teacher's idiom (explicit Go functions returning
// (string, bool) / (string, error) rather than Result<String, String>) and
// using internal/mangle for the candidate-name machinery instead of
// reimplementing it.
package resolve

import (
	"github.com/malphas-lang/malphas-lang/internal/builtin"
	"github.com/malphas-lang/malphas-lang/internal/mangle"
)

// SymbolTable answers "does a function with this exact mangled name
// exist". The resolver is deliberately decoupled from how symbols are
// actually stored (MIR module, LLVM module, or a plain registry during
// testing) behind this one-method interface, grounded on the teacher's
// `self.functions.contains_key(...)` checks in trait_methods.rs.
type SymbolTable interface {
	Has(name string) bool
}

// MapSymbolTable is a SymbolTable backed by a plain set, used by tests and
// by callers that already enumerate their own symbol names.
type MapSymbolTable map[string]bool

func (m MapSymbolTable) Has(name string) bool { return m[name] }

// TraitImpls answers "does this concrete type implement this trait, and if
// so what mangled struct name backs its methods". Grounded on the
// teacher's trait-impl bookkeeping (internal/types/constraints.go's Trait/
// Method model), decoupled here to keep resolve free of a hard dependency
// on the types package's Environment.
type TraitImpls interface {
	// Implementor returns the mangled struct name implementing traitName
	// for concreteMangled, and whether one exists.
	Implementor(concreteMangled, traitName string) (string, bool)
	// DefaultMethodOwner returns the trait name that defines a default
	// implementation of method, and whether one exists, for traits
	// concreteMangled is known to implement.
	DefaultMethodOwner(concreteMangled, method string) (string, bool)
	// ImplementedTraits returns every trait name concreteMangled is known
	// to implement, so Resolve's automatic phase-4 probe can try each one
	// without the caller already knowing which trait the call goes
	// through (c.f. ResolveTraitMethod, which takes the trait name
	// explicitly for callers that already know it).
	ImplementedTraits(concreteMangled string) []string
}

// Request bundles a single method call-site's resolvable inputs.
type Request struct {
	// Receiver is the textual spelling of the call's receiver expression
	// when it is a bare identifier (module name, type name, or variable
	// name); empty for non-identifier receivers (the instance-dispatch
	// phases below only need the receiver's mangled struct name in that
	// case, passed via ReceiverMangled).
	Receiver string
	// ReceiverMangled is the receiver's concrete (mangled, if generic)
	// struct name, used once the phases below have ruled out module- and
	// static-method calls.
	ReceiverMangled string
	Method          string
	ArgCount        int
	// FirstArgTypeSuffix is "_" followed by TypeArgString of the first
	// argument's type, e.g. "_i32" (empty string if there are no args or
	// the type is unavailable),
	// used for overload resolution exactly as §4.F describes.
	FirstArgTypeSuffix string
}

// Result is what phase succeeded and the mangled symbol name to call.
type Result struct {
	MangledName string
	Phase       Phase
}

// Phase identifies which of the 7 dispatch phases produced a Result.
type Phase int

const (
	PhaseModuleNamespace Phase = iota + 1
	PhaseStaticMethod
	PhaseInstanceDispatch
	PhaseTraitImpl
	PhaseDefaultTraitMethod
	PhaseGenericFallback
	PhaseBuiltinContainer
)

// Resolver runs the 7-phase method dispatch described in §4.H.
type Resolver struct {
	Symbols SymbolTable
	Traits  TraitImpls
	// ModuleNamespaces maps a module identifier to the set of bare
	// function names it exports, per phase 1.
	ModuleNamespaces map[string]map[string]bool
	// KnownTypeNames is the set of PascalCase identifiers that name a
	// struct or enum, used by phase 2 to distinguish `Type.method()`
	// static calls from ordinary instance method calls on a
	// PascalCase-named variable.
	KnownTypeNames map[string]bool
}

// NewResolver constructs a Resolver. Traits may be nil if the caller has
// not wired trait-impl knowledge yet -- phases 4 and 5 are then simply
// skipped rather than treated as errors, leaving phase 6's generic
// fallback and phase 7's builtin-container fallback as the only remaining
// options.
func NewResolver(symbols SymbolTable, traits TraitImpls) *Resolver {
	return &Resolver{
		Symbols:          symbols,
		Traits:           traits,
		ModuleNamespaces: make(map[string]map[string]bool),
		KnownTypeNames:   make(map[string]bool),
	}
}

// RegisterModule records that moduleName exports funcNames as module-level
// functions callable as moduleName.funcName(...), per §4.H phase 1.
func (r *Resolver) RegisterModule(moduleName string, funcNames []string) {
	set := make(map[string]bool, len(funcNames))
	for _, n := range funcNames {
		set[n] = true
	}
	r.ModuleNamespaces[moduleName] = set
}

// Resolve runs the 7-phase dispatch and returns the first phase that
// yields a concrete mangled symbol.
func (r *Resolver) Resolve(req Request) (Result, bool) {
	if res, ok := r.resolveModuleNamespace(req); ok {
		return res, true
	}
	if res, ok := r.resolveStaticMethod(req); ok {
		return res, true
	}
	if res, ok := r.resolveInstanceDispatch(req); ok {
		return res, true
	}
	if res, ok := r.resolveTraitImpl(req); ok {
		return res, true
	}
	if res, ok := r.resolveDefaultTraitMethod(req); ok {
		return res, true
	}
	if res, ok := r.resolveGenericFallback(req); ok {
		return res, true
	}
	return r.resolveBuiltinContainer(req)
}

// resolveModuleNamespace implements §4.H phase 1: `module.func(...)` where
// Receiver names a registered module namespace exporting Method.
func (r *Resolver) resolveModuleNamespace(req Request) (Result, bool) {
	if req.Receiver == "" {
		return Result{}, false
	}
	funcs, ok := r.ModuleNamespaces[req.Receiver]
	if !ok || !funcs[req.Method] {
		return Result{}, false
	}
	return Result{MangledName: req.Method, Phase: PhaseModuleNamespace}, true
}

// resolveStaticMethod implements §4.H phase 2: `Type.method(...)` where
// Receiver is a known PascalCase type name (no receiver instance), looked
// up under the type name with the same candidate list as instance dispatch.
func (r *Resolver) resolveStaticMethod(req Request) (Result, bool) {
	if req.Receiver == "" || !r.KnownTypeNames[req.Receiver] {
		return Result{}, false
	}
	opts := mangle.MethodNameOptions{
		StructName: req.Receiver,
		Method:     req.Method,
		ArgCount:   req.ArgCount,
		TypeSuffix: req.FirstArgTypeSuffix,
	}
	// Every candidate is tried in Candidates() order, inline (argc+1)
	// arities included; the first name present in the symbol table wins.
	for _, name := range opts.Candidates() {
		if r.Symbols.Has(name) {
			return Result{MangledName: name, Phase: PhaseStaticMethod}, true
		}
	}
	return Result{}, false
}

// resolveInstanceDispatch implements §4.H phase 3: ordinary
// `receiver.method(...)` dispatch via the full mangled-name candidate
// list, in the precedence order established by internal/mangle
// (inline-typed > inline-plain > external-typed > external-plain > legacy
// untyped).
func (r *Resolver) resolveInstanceDispatch(req Request) (Result, bool) {
	if req.ReceiverMangled == "" {
		return Result{}, false
	}
	opts := mangle.MethodNameOptions{
		StructName: req.ReceiverMangled,
		Method:     req.Method,
		ArgCount:   req.ArgCount,
		TypeSuffix: req.FirstArgTypeSuffix,
	}
	for _, name := range opts.Candidates() {
		if r.Symbols.Has(name) {
			return Result{MangledName: name, Phase: PhaseInstanceDispatch}, true
		}
	}
	return Result{}, false
}

// resolveTraitImpl implements §4.H phase 4 within the automatic Resolve()
// chain: it enumerates every trait req.ReceiverMangled is known to
// implement (TraitImpls.ImplementedTraits) and tries each in turn through
// ResolveTraitMethod, succeeding on the first trait that provides Method --
// matching Property 7's required precedence of trait-impl dispatch before
// the default-trait-method phase.
func (r *Resolver) resolveTraitImpl(req Request) (Result, bool) {
	if r.Traits == nil || req.ReceiverMangled == "" {
		return Result{}, false
	}
	for _, traitName := range r.Traits.ImplementedTraits(req.ReceiverMangled) {
		if res, ok := r.ResolveTraitMethod(req, traitName); ok {
			return res, true
		}
	}
	return Result{}, false
}

// ResolveTraitMethod implements §4.H phase 4 for a caller (e.g. internal/
// types' trait-bound checking) that has already identified which trait a
// call goes through, bypassing the ImplementedTraits enumeration
// resolveTraitImpl performs for the automatic chain.
func (r *Resolver) ResolveTraitMethod(req Request, traitName string) (Result, bool) {
	if r.Traits == nil || req.ReceiverMangled == "" {
		return Result{}, false
	}
	implMangled, ok := r.Traits.Implementor(req.ReceiverMangled, traitName)
	if !ok {
		return Result{}, false
	}
	opts := mangle.MethodNameOptions{
		StructName: implMangled,
		Method:     req.Method,
		ArgCount:   req.ArgCount,
		TypeSuffix: req.FirstArgTypeSuffix,
	}
	for _, name := range opts.Candidates() {
		if r.Symbols.Has(name) {
			return Result{MangledName: name, Phase: PhaseTraitImpl}, true
		}
	}
	return Result{}, false
}

// resolveDefaultTraitMethod implements §4.H phase 5: the receiver's
// concrete type implements a trait that provides a default implementation
// of Method (never overridden), which must be monomorphized per
// implementing type the first time it's dispatched.
func (r *Resolver) resolveDefaultTraitMethod(req Request) (Result, bool) {
	if r.Traits == nil || req.ReceiverMangled == "" {
		return Result{}, false
	}
	traitName, ok := r.Traits.DefaultMethodOwner(req.ReceiverMangled, req.Method)
	if !ok {
		return Result{}, false
	}
	mangled := mangle.InlineMethodName(req.ReceiverMangled, req.Method, req.ArgCount+1, req.FirstArgTypeSuffix)
	return Result{MangledName: traitName + "$default$" + mangled, Phase: PhaseDefaultTraitMethod}, true
}

// resolveGenericFallback implements §4.H phase 6: it succeeds only when the
// bare StructName_method prefix (no type suffix, no arity) is already
// present in the symbol table, and returns that name. It does not
// instantiate anything and reports nothing for a symbol that is absent.
func (r *Resolver) resolveGenericFallback(req Request) (Result, bool) {
	if req.ReceiverMangled == "" {
		return Result{}, false
	}
	opts := mangle.MethodNameOptions{
		StructName: req.ReceiverMangled,
		Method:     req.Method,
		ArgCount:   req.ArgCount,
		TypeSuffix: req.FirstArgTypeSuffix,
	}
	prefix := opts.Prefix()
	if r.Symbols.Has(prefix) {
		return Result{MangledName: prefix, Phase: PhaseGenericFallback}, true
	}
	return Result{}, false
}

// resolveBuiltinContainer implements §4.H phase 7: Method is a built-in
// container operation (push, len, clone, ...) handled directly by the
// runtime/codegen layer rather than a user- or trait-defined symbol.
func (r *Resolver) resolveBuiltinContainer(req Request) (Result, bool) {
	if !builtin.IsBuiltin(req.Method) {
		return Result{}, false
	}
	return Result{MangledName: req.Method, Phase: PhaseBuiltinContainer}, true
}
