package diag

import (
	"strings"
	"testing"
)

func TestRenderFixDiffProducesUnifiedDiff(t *testing.T) {
	fix := &Suggestion{Message: "use v2 instead", Replacement: "let w = v2;\n"}
	patch, err := RenderFixDiff("let w = v;\n", fix)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(patch, "-let w = v;") || !strings.Contains(patch, "+let w = v2;") {
		t.Errorf("patch missing expected +/- lines:\n%s", patch)
	}
}

func TestRenderFixDiffNilFix(t *testing.T) {
	patch, err := RenderFixDiff("anything", nil)
	if err != nil || patch != "" {
		t.Errorf("expected empty result for nil fix, got %q, %v", patch, err)
	}
}
