// Package builtin holds the static table of built-in function names and
// their per-parameter effects (§4.B), grounded on the teacher's
// internal/types.Checker.NewChecker built-in-function bootstrapping
// (println et al. registered into GlobalScope) generalized into a
// standalone, query-only table the move/borrow checkers consult.
package builtin

// Effect describes how a built-in function treats one of its parameters,
// per §4.B.
type Effect int

const (
	// ReadOnly: the argument is read but never mutated, borrowed, or moved.
	ReadOnly Effect = iota
	// BorrowsImmut: the compiler takes a shared reference to the argument.
	BorrowsImmut
	// BorrowsMut: the compiler takes an exclusive reference to the argument.
	BorrowsMut
	// Mutates: the argument is mutated in place.
	Mutates
	// Moves: ownership of the argument is transferred into the built-in.
	Moves
)

func (e Effect) String() string {
	switch e {
	case ReadOnly:
		return "read-only"
	case BorrowsImmut:
		return "borrows-immut"
	case BorrowsMut:
		return "borrows-mut"
	case Mutates:
		return "mutates"
	case Moves:
		return "moves"
	default:
		return "unknown"
	}
}

// registry maps a built-in function name to its parameter effects in
// positional order. Variadic built-ins repeat the last listed effect for
// any argument beyond the table's length (see EffectAt).
var registry = map[string][]Effect{
	"println": {ReadOnly},
	"print":   {ReadOnly},
	"log":     {ReadOnly},
	"panic":   {ReadOnly},
	"assert":  {ReadOnly, ReadOnly},
	"len":     {BorrowsImmut},
	"cap":     {BorrowsImmut},
	"push":    {BorrowsMut, Moves},
	"pop":     {BorrowsMut},
	"append":  {Moves, Moves},
	"insert":  {BorrowsMut, ReadOnly, Moves},
	"remove":  {BorrowsMut, ReadOnly},
	"clear":   {BorrowsMut},
	"contains": {BorrowsImmut, BorrowsImmut},
	"get":     {BorrowsImmut, ReadOnly},
	"get_mut": {BorrowsMut, ReadOnly},
	"clone":   {BorrowsImmut},
	"drop":    {Moves},
	"swap":    {BorrowsMut, BorrowsMut},
	"send":    {BorrowsImmut, Moves},
	"recv":    {BorrowsMut},
	"new":     {ReadOnly},
	"make":    {ReadOnly},
}

// builtinTypeNames lists built-in type names (§4.B) the type checker should
// skip during user-defined name resolution.
var builtinTypeNames = map[string]bool{
	"Vec": true, "Box": true, "Map": true, "Set": true, "Channel": true,
	"String": true, "Option": true, "Result": true, "Slice": true,
	"Range": true, "Array": true, "RangeInclusive": true, "Future": true,
	"Pair": true, "Tuple": true,
}

// IsBuiltin reports whether name is a registered built-in function.
func IsBuiltin(name string) bool {
	_, ok := registry[name]
	return ok
}

// Get returns the effect list for a built-in function and whether it was
// found.
func Get(name string) ([]Effect, bool) {
	effects, ok := registry[name]
	return effects, ok
}

// EffectAt returns the effect for the argument at position i of a call to
// name. Positions beyond the table repeat the last entry (covers variadic
// built-ins like append); calling with an unknown name or an empty effect
// list returns ReadOnly as the conservative default for callers that have
// already checked IsBuiltin.
func EffectAt(name string, i int) Effect {
	effects, ok := registry[name]
	if !ok || len(effects) == 0 {
		return ReadOnly
	}
	if i < len(effects) {
		return effects[i]
	}
	return effects[len(effects)-1]
}

// IsBuiltinTypeName reports whether name is a reserved built-in type name
// that must not be shadowed by a user-defined value identifier (§6).
func IsBuiltinTypeName(name string) bool {
	return builtinTypeNames[name]
}

// Register adds or overrides a built-in function's effect table. Per §6
// "implementers extend it by adding entries, never by mutating existing
// [reserved] effects" — callers should treat this as additive
// configuration done once at session startup, not a runtime patch to
// language semantics.
func Register(name string, effects []Effect) {
	registry[name] = effects
}

// Names returns every registered built-in function name, for diagnostics'
// fuzzy "did you mean" candidate pool.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
