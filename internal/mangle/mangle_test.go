package mangle

import (
	"testing"

	"github.com/malphas-lang/malphas-lang/internal/types"
)

func TestMangleStructName(t *testing.T) {
	cases := []struct {
		name string
		base string
		args []types.Type
		want string
	}{
		{"no args", "Pair", nil, "Pair"},
		{"single primitive", "Vec", []types.Type{types.TypeI32}, "Vec_i32"},
		{"multiple args", "Pair", []types.Type{types.TypeI32, types.TypeBool}, "Pair_i32_bool"},
		{
			"nested generic",
			"Box",
			[]types.Type{&types.GenericInstance{Base: &types.Named{Name: "Box"}, Args: []types.Type{types.TypeI32}}},
			"Box_Box_i32",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MangleStructName(c.base, c.args)
			if got != c.want {
				t.Errorf("MangleStructName(%s, %v) = %q, want %q", c.base, c.args, got, c.want)
			}
		})
	}
}

func TestOperatorEncodingRoundTrip(t *testing.T) {
	// Property 8: every operator method name can be encoded and decoded
	// without collision.
	for source := range operatorEncoding {
		encoded := EncodeMethodName(source)
		decoded := DecodeMethodName(encoded)
		if decoded != source {
			t.Errorf("round-trip failed: %s -> %s -> %s", source, encoded, decoded)
		}
	}
}

func TestMethodNameOptionsCandidatesPrecedence(t *testing.T) {
	opts := MethodNameOptions{StructName: "Vec_i32", Method: "push", ArgCount: 1, TypeSuffix: "_i32"}
	got := opts.Candidates()
	want := []string{
		"Vec_i32_push_i32_2", // inline typed (argc+1)
		"Vec_i32_push_2",     // inline plain
		"Vec_i32_push_i32_1", // external typed (argc)
		"Vec_i32_push_1",     // external plain
		"Vec_i32_push",       // legacy untyped
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMangleInjectivity(t *testing.T) {
	// Property 5: distinct (base, args) tuples must not collide.
	a := MangleStructName("Vec", []types.Type{types.TypeI32})
	b := MangleStructName("Vec", []types.Type{types.TypeI64})
	c := MangleStructName("Vec", []types.Type{types.TypeI32, types.TypeBool})
	if a == b || a == c || b == c {
		t.Errorf("mangling collision: %q %q %q", a, b, c)
	}
}

func TestSubstituteSelfAndNamed(t *testing.T) {
	subst := map[string]types.Type{"Self": &types.Named{Name: "Widget"}, "T": types.TypeI32}
	got := Substitute(&types.Reference{Elem: types.TypeSelf, Mut: true}, subst)
	ref, ok := got.(*types.Reference)
	if !ok {
		t.Fatalf("expected *types.Reference, got %T", got)
	}
	if ref.Elem.String() != "Widget" {
		t.Errorf("Self substitution = %q, want Widget", ref.Elem.String())
	}
}
