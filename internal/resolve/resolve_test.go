package resolve

import (
	"strings"
	"testing"
)

func TestModuleNamespaceResolvesFirst(t *testing.T) {
	syms := MapSymbolTable{"print": true}
	r := NewResolver(syms, nil)
	r.RegisterModule("io", []string{"print"})

	got, ok := r.Resolve(Request{Receiver: "io", Method: "print", ArgCount: 1})
	if !ok {
		t.Fatal("expected module-namespace resolution to succeed")
	}
	if got.Phase != PhaseModuleNamespace || got.MangledName != "print" {
		t.Errorf("got %+v", got)
	}
}

func TestStaticMethodResolution(t *testing.T) {
	syms := MapSymbolTable{"Vec_new_0": true}
	r := NewResolver(syms, nil)
	r.KnownTypeNames["Vec"] = true

	got, ok := r.Resolve(Request{Receiver: "Vec", Method: "new", ArgCount: 0})
	if !ok {
		t.Fatal("expected static method resolution to succeed")
	}
	if got.Phase != PhaseStaticMethod {
		t.Errorf("phase = %v, want PhaseStaticMethod", got.Phase)
	}
}

func TestInstanceDispatchPrefersInlineOverExternal(t *testing.T) {
	syms := MapSymbolTable{
		"Vec_i32_push_2":   true, // inline
		"Vec_i32_push_1":   true, // external
	}
	r := NewResolver(syms, nil)

	got, ok := r.Resolve(Request{ReceiverMangled: "Vec_i32", Method: "push", ArgCount: 1})
	if !ok {
		t.Fatal("expected instance dispatch to succeed")
	}
	if got.MangledName != "Vec_i32_push_2" {
		t.Errorf("mangled name = %q, want inline candidate Vec_i32_push_2", got.MangledName)
	}
	if got.Phase != PhaseInstanceDispatch {
		t.Errorf("phase = %v, want PhaseInstanceDispatch", got.Phase)
	}
}

type fakeTraits struct {
	impl           map[string]string
	defaultMethods map[string]string
}

func (f fakeTraits) Implementor(concrete, trait string) (string, bool) {
	name, ok := f.impl[concrete+"|"+trait]
	return name, ok
}

func (f fakeTraits) DefaultMethodOwner(concrete, method string) (string, bool) {
	name, ok := f.defaultMethods[concrete+"|"+method]
	return name, ok
}

func (f fakeTraits) ImplementedTraits(concrete string) []string {
	var out []string
	for key := range f.impl {
		parts := strings.SplitN(key, "|", 2)
		if len(parts) == 2 && parts[0] == concrete {
			out = append(out, parts[1])
		}
	}
	return out
}

func TestDefaultTraitMethodFallback(t *testing.T) {
	syms := MapSymbolTable{}
	traits := fakeTraits{defaultMethods: map[string]string{"Widget|describe": "Describable"}}
	r := NewResolver(syms, traits)

	got, ok := r.Resolve(Request{ReceiverMangled: "Widget", Method: "describe", ArgCount: 0})
	if !ok {
		t.Fatal("expected default-trait-method fallback to succeed")
	}
	if got.Phase != PhaseDefaultTraitMethod {
		t.Errorf("phase = %v, want PhaseDefaultTraitMethod", got.Phase)
	}
}

func TestTraitImplResolvesAutomaticallyBeforeDefaultMethod(t *testing.T) {
	syms := MapSymbolTable{"Widget_Describable_describe_1": true}
	traits := fakeTraits{
		impl:           map[string]string{"Widget|Describable": "Widget_Describable"},
		defaultMethods: map[string]string{"Widget|describe": "Describable"},
	}
	r := NewResolver(syms, traits)

	got, ok := r.Resolve(Request{ReceiverMangled: "Widget", Method: "describe", ArgCount: 0})
	if !ok {
		t.Fatal("expected automatic trait-impl resolution to succeed")
	}
	if got.Phase != PhaseTraitImpl {
		t.Errorf("phase = %v, want PhaseTraitImpl (must win over PhaseDefaultTraitMethod)", got.Phase)
	}
}

func TestBuiltinContainerFallback(t *testing.T) {
	syms := MapSymbolTable{}
	r := NewResolver(syms, nil)

	got, ok := r.Resolve(Request{ReceiverMangled: "Vec_i32", Method: "push", ArgCount: 1})
	if !ok {
		t.Fatal("expected builtin-container fallback to succeed")
	}
	if got.Phase != PhaseBuiltinContainer {
		t.Errorf("phase = %v, want PhaseBuiltinContainer", got.Phase)
	}
}

func TestNoMatchReturnsFalse(t *testing.T) {
	syms := MapSymbolTable{}
	r := NewResolver(syms, nil)

	_, ok := r.Resolve(Request{ReceiverMangled: "Widget", Method: "frobnicate", ArgCount: 0})
	if ok {
		t.Error("expected no resolution for an unknown, non-builtin method")
	}
}
