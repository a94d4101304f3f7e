package types

import "strings"

// Pointer represents a raw pointer type (*T or *mut T). Raw pointers are
// copy types (§4.C) and are only dereferenceable inside an unsafe block.
type Pointer struct {
	Elem Type
	Mut  bool
}

func (p *Pointer) String() string {
	if p.Mut {
		return "*mut " + p.Elem.String()
	}
	return "*const " + p.Elem.String()
}
func (p *Pointer) IsType() {}

// Reference represents a borrow type (&T or &mut T). References are copy
// types: passing one does not move the referent.
type Reference struct {
	Elem Type
	Mut  bool
}

func (r *Reference) String() string {
	if r.Mut {
		return "&mut " + r.Elem.String()
	}
	return "&" + r.Elem.String()
}
func (r *Reference) IsType() {}

// Array represents a fixed-size array type ([T; N]).
type Array struct {
	Elem Type
	Len  int
}

func (a *Array) String() string { return "[" + a.Elem.String() + "]" }
func (a *Array) IsType()        {}

// Slice represents a dynamically-sized view type.
type Slice struct {
	Elem Type
	Mut  bool
}

func (s *Slice) String() string {
	if s.Mut {
		return "[]mut " + s.Elem.String()
	}
	return "[]" + s.Elem.String()
}
func (s *Slice) IsType() {}

// Tuple represents an ordered, fixed-arity sequence of types.
type Tuple struct {
	Elems []Type
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *Tuple) IsType() {}

// GenericInstance is declared in generics.go; Generic below models a
// not-yet-resolved generic type reference (name + type-argument list) as it
// appears in signatures before substitution, per §3 "Generic (name + type
// arguments)".
type Generic struct {
	Name string
	Args []Type
}

func (g *Generic) String() string {
	parts := make([]string, len(g.Args))
	for i, a := range g.Args {
		parts[i] = a.String()
	}
	return g.Name + "<" + strings.Join(parts, ", ") + ">"
}
func (g *Generic) IsType() {}

// BuiltinGenericKind enumerates the compiler's built-in parametric container
// types (§3 "built-in generic").
type BuiltinGenericKind string

const (
	BuiltinVec     BuiltinGenericKind = "Vec"
	BuiltinBox     BuiltinGenericKind = "Box"
	BuiltinOption  BuiltinGenericKind = "Option"
	BuiltinResult  BuiltinGenericKind = "Result"
	BuiltinChannel BuiltinGenericKind = "Channel"
	BuiltinFuture  BuiltinGenericKind = "Future"
	BuiltinMap     BuiltinGenericKind = "Map"
	BuiltinSet     BuiltinGenericKind = "Set"
)

// BuiltinGeneric represents an instantiation of one of the compiler's
// built-in container types.
type BuiltinGeneric struct {
	Kind BuiltinGenericKind
	Args []Type // e.g. [K, V] for Map, [T] for Vec/Box/Option, [T, E] for Result
}

func (b *BuiltinGeneric) String() string {
	if len(b.Args) == 0 {
		return string(b.Kind)
	}
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.String()
	}
	return string(b.Kind) + "<" + strings.Join(parts, ", ") + ">"
}
func (b *BuiltinGeneric) IsType() {}

// Union represents an ordered set of alternative types (A | B | C).
type Union struct {
	Members []Type
}

func (u *Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (u *Union) IsType() {}

// Intersection represents a conjunction of type constraints (A & B).
type Intersection struct {
	Members []Type
}

func (i *Intersection) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (i *Intersection) IsType() {}

// Conditional represents a conditional type of the form
// `T extends U ? Then : Else`, with `infer` placeholders captured in Infers.
type Conditional struct {
	Check   Type
	Extends Type
	Then    Type
	Else    Type
	Infers  []string
}

func (c *Conditional) String() string {
	return c.Check.String() + " extends " + c.Extends.String() + " ? " + c.Then.String() + " : " + c.Else.String()
}
func (c *Conditional) IsType() {}

// UnknownType is the inference placeholder (§4.I, §9 "Unknown type
// placeholder"): it stands for a not-yet-fixed type argument, resolved on
// first use with concrete argument types.
type UnknownType struct{}

func (u *UnknownType) String() string { return "Unknown" }
func (u *UnknownType) IsType()        {}

// Unknown is the shared placeholder instance.
var Unknown Type = &UnknownType{}

// IsUnknown reports whether t is the Unknown placeholder.
func IsUnknown(t Type) bool {
	_, ok := t.(*UnknownType)
	return ok
}
