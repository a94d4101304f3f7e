// Package mangle implements the type substituter and name mangler (§4.F):
// deterministic mapping from (struct, type args, method, parameter types) to
// unique linker symbols, grounded on the teacher's
// internal/mir.Monomorphizer.mangleName and internal/codegen/llvm's
// substituteType, generalized to the full §3 Type sum.
package mangle

import (
	"strings"

	"github.com/malphas-lang/malphas-lang/internal/types"
)

// Substitute rewrites typ by replacing every type parameter named in subst
// with its concrete binding. This is a thin, named entry point over
// types.Substitute kept here so callers doing mangling and substitution
// together (the common case: instantiate then mangle) only need this
// package.
func Substitute(typ types.Type, subst map[string]types.Type) types.Type {
	return types.Substitute(typ, subst)
}

// operatorEncoding is the stable table from §4.F. Mapping is intentionally a
// plain literal switch-backed table (not computed) so the contract in §6
// ("stable contract; any tool reading symbol tables relies on it") is
// trivially auditable.
var operatorEncoding = map[string]string{
	"op+":  "opadd",
	"op-":  "opsub",
	"op*":  "opmul",
	"op/":  "opdiv",
	"op%":  "opmod",
	"op**": "oppow",
	"op==": "opeq",
	"op!=": "opne",
	"op<":  "oplt",
	"op<=": "ople",
	"op>":  "opgt",
	"op>=": "opge",
	"op&":  "opbitand",
	"op|":  "opbitor",
	"op^":  "opbitxor",
	"op<<": "opshl",
	"op>>": "opshr",
	"op!":  "opnot",
	"op~":  "opbitnot",
	"op++": "opinc",
	"op--": "opdec",
	"op[]": "opindex",
	"op[]=": "opindexset",
}

var operatorDecoding = func() map[string]string {
	m := make(map[string]string, len(operatorEncoding))
	for k, v := range operatorEncoding {
		m[v] = k
	}
	return m
}()

// EncodeMethodName maps a source method/operator name to its mangled-safe
// encoding. Plain (non-"op"-prefixed) method names pass through unchanged.
func EncodeMethodName(name string) string {
	if enc, ok := operatorEncoding[name]; ok {
		return enc
	}
	return name
}

// DecodeMethodName reverses EncodeMethodName for diagnostics/tooling that
// need to show the user the original operator spelling (§8 Property 8:
// "every operator method name can be encoded and decoded ... without
// collision").
func DecodeMethodName(encoded string) string {
	if dec, ok := operatorDecoding[encoded]; ok {
		return dec
	}
	return encoded
}

// IsOperatorName reports whether name is a source-level operator method
// name ("op+", "op==", ...).
func IsOperatorName(name string) bool {
	_, ok := operatorEncoding[name]
	return ok
}

// TypeArgString renders a single type argument to its canonical mangled
// string, per §4.F "Mangling — struct": primitives use their canonical
// short name, named types use their name, built-in generics use their base
// name, nested generics recurse.
func TypeArgString(t types.Type) string {
	switch t := t.(type) {
	case *types.Primitive:
		return string(t.Kind)
	case *types.Named:
		return t.Name
	case *types.Struct:
		return t.Name
	case *types.Enum:
		return t.Name
	case *types.GenericInstance:
		return MangleStructName(TypeArgString(t.Base), t.Args)
	case *types.Generic:
		return MangleStructName(t.Name, t.Args)
	case *types.BuiltinGeneric:
		return builtinGenericMangleBase(t)
	case *types.Reference:
		// Open Question 4 (§9): type-suffix formation for nested
		// references canonicalizes to the bare inner type.
		return TypeArgString(t.Elem)
	case *types.Pointer:
		return TypeArgString(t.Elem)
	case *types.Array:
		return TypeArgString(t.Elem)
	case *types.Slice:
		return "Slice_" + TypeArgString(t.Elem)
	case *types.Tuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = TypeArgString(e)
		}
		return "Tuple_" + strings.Join(parts, "_")
	case *types.Channel:
		return "Channel_" + TypeArgString(t.Elem)
	case *types.ProjectedType:
		return TypeArgString(t.Base) + "_" + t.AssocName
	case *types.Union:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = TypeArgString(m)
		}
		return strings.Join(parts, "_")
	case *types.Intersection:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = TypeArgString(m)
		}
		return strings.Join(parts, "_")
	case *types.UnknownType:
		return "Unknown"
	case nil:
		return ""
	default:
		return t.String()
	}
}

// builtinGenericMangleBase returns the mangled base for a built-in generic
// per §4.F: "Built-in generics use the base (Vec, Box, Option, Result_T_E,
// Slice, Map, Set, Channel)". Result is unique in carrying both type
// arguments in its base form.
func builtinGenericMangleBase(b *types.BuiltinGeneric) string {
	if b.Kind == types.BuiltinResult && len(b.Args) == 2 {
		return "Result_" + TypeArgString(b.Args[0]) + "_" + TypeArgString(b.Args[1])
	}
	return string(b.Kind)
}

// MangleStructName implements §4.F "Mangling — struct":
// BaseName + "_" + join("_", type_args_string).
func MangleStructName(baseName string, typeArgs []types.Type) string {
	if len(typeArgs) == 0 {
		return baseName
	}
	parts := make([]string, len(typeArgs))
	for i, a := range typeArgs {
		parts[i] = TypeArgString(a)
	}
	return baseName + "_" + strings.Join(parts, "_")
}

// MethodNameOptions bundles the inputs needed to form every candidate
// mangled method name in §4.H Phase 2 precedence order.
type MethodNameOptions struct {
	// StructName is the (already-mangled, if generic) receiver type name.
	StructName string
	// Method is the source-level method/operator name.
	Method string
	// ArgCount is len(args) at the call site (receiver excluded).
	ArgCount int
	// TypeSuffix is "_" followed by the canonical string for the first
	// argument's type (e.g. "_i32"), appended to the method name as is and
	// used for overload resolution; empty when there is no overload
	// candidate to distinguish (no args, or suffix unavailable).
	TypeSuffix string
}

// Candidates returns the ordered list of candidate mangled names for a
// method call, per §4.H Phase 2 step 4 (highest precedence first):
// inline-typed, inline-plain, external-typed, external-plain, and finally
// legacy untyped (the bare StructName_method string, the same string
// Prefix returns).
func (o MethodNameOptions) Candidates() []string {
	encoded := EncodeMethodName(o.Method)
	base := o.StructName + "_" + encoded
	inlineCount := o.ArgCount + 1 // receiver counts toward arity for inline methods
	externalCount := o.ArgCount   // external methods register arity without the receiver

	var out []string
	if o.TypeSuffix != "" {
		out = append(out, mangleArity(base+o.TypeSuffix, inlineCount))
	}
	out = append(out, mangleArity(base, inlineCount))
	if o.TypeSuffix != "" {
		out = append(out, mangleArity(base+o.TypeSuffix, externalCount))
	}
	out = append(out, mangleArity(base, externalCount))
	out = append(out, base) // legacy untyped
	return out
}

// Prefix returns the string every fallback pattern-match candidate (§4.H
// Phase 2 step 4, last bullet) must start with.
func (o MethodNameOptions) Prefix() string {
	return o.StructName + "_" + EncodeMethodName(o.Method)
}

func mangleArity(base string, arity int) string {
	return base + "_" + itoa(arity)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// InlineMethodName implements §4.F "Mangling — method" for inline (struct)
// methods: StructName_encoded(op|method)_(paramsCountInclReceiver), with an
// optional "_typeSuffix" inserted before the count for overloaded variants.
func InlineMethodName(structName, method string, paramsInclReceiver int, typeSuffix string) string {
	base := structName + "_" + EncodeMethodName(method)
	if typeSuffix != "" {
		base += typeSuffix
	}
	return mangleArity(base, paramsInclReceiver)
}

// ExternalMethodName implements §4.F "Mangling — method" for external
// (Go-style) methods registered at top level: the same scheme, but the
// parameter count excludes the receiver.
func ExternalMethodName(structName, method string, paramsExclReceiver int, typeSuffix string) string {
	base := structName + "_" + EncodeMethodName(method)
	if typeSuffix != "" {
		base += typeSuffix
	}
	return mangleArity(base, paramsExclReceiver)
}
