package types

import "strings"

// Type represents a type in the Malphas type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	Int    PrimitiveKind = "int"
	Float  PrimitiveKind = "float"
	Bool   PrimitiveKind = "bool"
	String PrimitiveKind = "string"
	Nil    PrimitiveKind = "nil"
	Void   PrimitiveKind = "void"

	// Widened integer/float kinds (§3 Type). Kept alongside the teacher's
	// loose Int/Float for source compatibility with the existing checker;
	// the ownership-aware core below always works in these widths.
	I8   PrimitiveKind = "i8"
	I16  PrimitiveKind = "i16"
	I32  PrimitiveKind = "i32"
	I64  PrimitiveKind = "i64"
	I128 PrimitiveKind = "i128"
	U8   PrimitiveKind = "u8"
	U16  PrimitiveKind = "u16"
	U32  PrimitiveKind = "u32"
	U64  PrimitiveKind = "u64"
	U128 PrimitiveKind = "u128"
	F16  PrimitiveKind = "f16"
	F32  PrimitiveKind = "f32"
	F64  PrimitiveKind = "f64"
	Byte PrimitiveKind = "byte"
	Err  PrimitiveKind = "error"
	Any  PrimitiveKind = "any"
	SelfK PrimitiveKind = "Self"
	Never PrimitiveKind = "never"
	Unit  PrimitiveKind = "unit"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances
var (
	TypeInt    = &Primitive{Kind: Int}
	TypeFloat  = &Primitive{Kind: Float}
	TypeBool   = &Primitive{Kind: Bool}
	TypeString = &Primitive{Kind: String}
	TypeNil    = &Primitive{Kind: Nil}
	TypeVoid   = &Primitive{Kind: Void}

	TypeI8    = &Primitive{Kind: I8}
	TypeI16   = &Primitive{Kind: I16}
	TypeI32   = &Primitive{Kind: I32}
	TypeI64   = &Primitive{Kind: I64}
	TypeI128  = &Primitive{Kind: I128}
	TypeU8    = &Primitive{Kind: U8}
	TypeU16   = &Primitive{Kind: U16}
	TypeU32   = &Primitive{Kind: U32}
	TypeU64   = &Primitive{Kind: U64}
	TypeU128  = &Primitive{Kind: U128}
	TypeF16   = &Primitive{Kind: F16}
	TypeF32   = &Primitive{Kind: F32}
	TypeF64   = &Primitive{Kind: F64}
	TypeByte  = &Primitive{Kind: Byte}
	TypeError = &Primitive{Kind: Err}
	TypeAny   = &Primitive{Kind: Any}
	TypeSelf  = &Primitive{Kind: SelfK}
	TypeNever = &Primitive{Kind: Never}
	TypeUnit  = &Primitive{Kind: Unit}
)

// primitiveNames maps every canonical short name to its singleton, used by
// the mangler (§4.F) to round-trip primitive type-argument strings.
var primitiveNames = map[string]*Primitive{
	"i8": TypeI8, "i16": TypeI16, "i32": TypeI32, "i64": TypeI64, "i128": TypeI128,
	"u8": TypeU8, "u16": TypeU16, "u32": TypeU32, "u64": TypeU64, "u128": TypeU128,
	"f16": TypeF16, "f32": TypeF32, "f64": TypeF64,
	"bool": TypeBool, "string": TypeString, "byte": TypeByte,
	"nil": TypeNil, "error": TypeError, "any": TypeAny,
	"Self": TypeSelf, "never": TypeNever, "unit": TypeUnit, "void": TypeVoid,
}

// LookupPrimitive returns the singleton primitive for a canonical short name.
func LookupPrimitive(name string) (*Primitive, bool) {
	p, ok := primitiveNames[name]
	return p, ok
}

// Struct represents a struct type.
type Struct struct {
	Name       string
	TypeParams []TypeParam
	Fields     []Field
}

type Field struct {
	Name string
	Type Type
}

func (s *Struct) String() string { return s.Name }
func (s *Struct) IsType()        {}

// Enum represents an enum type.
type Enum struct {
	Name       string
	TypeParams []TypeParam
	Variants   []Variant
}

type Variant struct {
	Name    string
	Payload []Type // Can be empty for unit variants
}

func (e *Enum) String() string { return e.Name }
func (e *Enum) IsType()        {}

// Function represents a function type.
type Function struct {
	TypeParams []TypeParam
	Params     []Type
	Return     Type
}

func (f *Function) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + ret
}
func (f *Function) IsType() {}

// Channel represents a channel type.
type Channel struct {
	Elem Type
	Dir  ChanDir
}

type ChanDir int

const (
	SendRecv ChanDir = iota
	SendOnly
	RecvOnly
)

func (c *Channel) String() string {
	switch c.Dir {
	case SendOnly:
		return "chan<- " + c.Elem.String()
	case RecvOnly:
		return "<-chan " + c.Elem.String()
	default:
		return "chan " + c.Elem.String()
	}
}
func (c *Channel) IsType() {}

// Named represents a reference to a named type (like a struct or enum)
// that hasn't been fully resolved or is just a reference.
type Named struct {
	Name string
	Ref  Type // The actual type it refers to, if resolved
}

func (n *Named) String() string { return n.Name }
func (n *Named) IsType()        {}
