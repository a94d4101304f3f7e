package diag

import "testing"

func TestEngineRecordsAndBandsStage(t *testing.T) {
	e := NewEngine()
	e.Error(CodeUseAfterMove, "use of moved value: `x`", Span{Line: 1, Column: 1})
	if !e.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}
	got := e.Diagnostics()
	if len(got) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(got))
	}
	if got[0].Stage != StageMove {
		t.Errorf("stage = %v, want %v", got[0].Stage, StageMove)
	}
}

func TestSuggestRanksByJaroWinklerAndCapsAtThree(t *testing.T) {
	candidates := []string{"length", "lenght", "size", "wombat", "lend"}
	got := Suggest("lengt", candidates, false)
	if len(got) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(got) > 3 {
		t.Fatalf("expected at most 3 suggestions, got %d", len(got))
	}
	if got[0] != "length" && got[0] != "lenght" {
		t.Errorf("expected closest candidate first, got %q", got[0])
	}
}

func TestSuggestExcludesExactMatch(t *testing.T) {
	got := Suggest("push", []string{"push", "pop"}, true)
	for _, c := range got {
		if c == "push" {
			t.Error("exact match should not be suggested against itself")
		}
	}
}
