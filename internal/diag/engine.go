package diag

import (
	"encoding/json"
	"sort"

	"github.com/xrash/smetrics"
)

// Option customizes a Diagnostic at the point it's raised. Grounded on the
// functional-options idiom the teacher already uses for constructing
// multi-field values (see internal/ast's NewX constructors); kept here as
// the least surprising way to let move/borrow/lifetime/resolve attach
// optional notes, help text, and proof chains without every call site
// repeating the full Diagnostic literal.
type Option func(*Diagnostic)

// WithNotes attaches one or more "= note:" lines to a diagnostic.
func WithNotes(notes ...string) Option {
	return func(d *Diagnostic) { d.Notes = append(d.Notes, notes...) }
}

// WithHelp attaches a "help:" line.
func WithHelp(help string) Option {
	return func(d *Diagnostic) { d.Help = help }
}

// WithLabeledSpan attaches an additional labeled span (e.g. "moved here").
func WithLabeledSpan(span Span, label string, style SpanStyle) Option {
	return func(d *Diagnostic) {
		d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{Span: span, Label: label, Style: style})
	}
}

// WithProofStep appends one step to the diagnostic's reasoning chain.
func WithProofStep(message string, span Span) Option {
	return func(d *Diagnostic) {
		d.ProofChain = append(d.ProofChain, ProofStep{Message: message, Span: span})
	}
}

// WithFix attaches a machine-applicable suggestion.
func WithFix(message, replacement string) Option {
	return func(d *Diagnostic) {
		d.Fix = &Suggestion{Message: message, Replacement: replacement}
	}
}

// Engine accumulates diagnostics across a single compilation (owned by the
// Session per the Design Notes), grounded on the teacher's
// internal/types.Checker accumulating `errors []string` during a check pass,
// generalized into a typed, multi-stage accumulator with banded codes and
// fuzzy-match suggestion support.
type Engine struct {
	diagnostics []Diagnostic
	// candidates is the pool of known identifier names fed to fuzzy
	// "did you mean" suggestions (§4.J), refreshed per-scope by callers.
	candidates []string
}

// NewEngine constructs an empty diagnostic accumulator.
func NewEngine() *Engine {
	return &Engine{}
}

// Error records an error-severity diagnostic with code, message and span
// (its stage is derived from code), with any number of Options applied.
func (e *Engine) Error(code Code, message string, span Span, opts ...Option) {
	e.report(SeverityError, code, message, span, opts...)
}

// Warning records a warning-severity diagnostic.
func (e *Engine) Warning(code Code, message string, span Span, opts ...Option) {
	e.report(SeverityWarning, code, message, span, opts...)
}

// Info records an info-severity diagnostic.
func (e *Engine) Info(code Code, message string, span Span, opts ...Option) {
	e.report(SeverityInfo, code, message, span, opts...)
}

func (e *Engine) report(sev Severity, code Code, message string, span Span, opts ...Option) {
	d := Diagnostic{Severity: sev, Code: code, Message: message, Span: span, Stage: stageOf(code)}
	for _, opt := range opts {
		opt(&d)
	}
	e.diagnostics = append(e.diagnostics, d)
}

// stageOf derives the owning stage from a banded code so call sites don't
// need to repeat it.
func stageOf(code Code) Stage {
	switch {
	case code == CodeUseAfterMove:
		return StageMove
	case code == CodeMutableBorrowWhileBorrowed || code == CodeImmutableBorrowWhileMutBorrowed || code == CodeMutationWhileBorrowed || code == CodeMoveWhileBorrowed:
		return StageBorrow
	case code == CodeDanglingReference || code == CodeUseAfterScopeEnd || code == CodeReturnDanglingReference:
		return StageLifetime
	case code == CodeUnresolvedName || code == CodeUnresolvedMethod || code == CodeAmbiguousMethod || code == CodeDuplicateBinding:
		return StageResolve
	case code == CodeUnresolvedModule:
		return StageModules
	case code == CodeMissingTraitMethod || code == CodeUnsatisfiedTraitBound:
		return StageTraits
	case code == CodeLexerUnterminatedString || code == CodeLexerUnterminatedBlockComment || code == CodeLexerIllegalRune:
		return StageLexer
	default:
		return StageTypes
	}
}

// Diagnostics returns every diagnostic recorded so far, in emission order.
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diagnostics
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (e *Engine) HasErrors() bool {
	return e.ErrorCount() > 0
}

// ErrorCount returns the number of error-severity diagnostics recorded,
// per §4.J's error_count() accessor.
func (e *Engine) ErrorCount() int {
	n := 0
	for _, d := range e.diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity diagnostics recorded,
// per §4.J's warning_count() accessor.
func (e *Engine) WarningCount() int {
	n := 0
	for _, d := range e.diagnostics {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// SetCandidates refreshes the identifier pool used for fuzzy "did you mean"
// suggestions.
func (e *Engine) SetCandidates(names []string) {
	e.candidates = names
}

// Suggest returns up to three candidate names similar to name, ranked by
// Jaro-Winkler similarity, per §4.J ("Jaro-Winkler ... threshold 0.7, top
//3, prefix bonus for functions"). Grounded on github.com/xrash/smetrics
// (the Jaro-Winkler implementation used across the retrieval pack's
// spell-check-adjacent tooling).
func (e *Engine) Suggest(name string, isFunction bool) []string {
	return Suggest(name, e.candidates, isFunction)
}

// Suggest ranks candidates by Jaro-Winkler similarity to name and returns
// the top 3 at or above the 0.7 threshold. When isFunction is true, an
// exact-prefix match receives a similarity bonus (functions called with the
// wrong arity/suffix but the right prefix are the common case in this
// language's mangled namespace).
func Suggest(name string, candidates []string, isFunction bool) []string {
	type scored struct {
		name  string
		score float64
	}
	var ranked []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		score := smetrics.JaroWinkler(name, c, 0.7, 4)
		if isFunction && hasPrefix(c, name) {
			score += 0.05
		}
		if score >= 0.7 {
			ranked = append(ranked, scored{c, score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) == 0 || len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}

// jsonDiagnostic is the wire shape emitted for editor tooling (§4.J "JSON
// projection").
type jsonDiagnostic struct {
	Stage    string `json:"stage"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Notes    []string `json:"notes,omitempty"`
	Help     string   `json:"help,omitempty"`
}

// MarshalJSON renders the full diagnostic set as a JSON array for editor
// tooling that consumes structured output rather than the Rust-style
// terminal rendering in formatter.go.
func (e *Engine) MarshalJSON() ([]byte, error) {
	out := make([]jsonDiagnostic, len(e.diagnostics))
	for i, d := range e.diagnostics {
		out[i] = jsonDiagnostic{
			Stage:    string(d.Stage),
			Severity: string(d.Severity),
			Code:     string(d.Code),
			Message:  d.Message,
			File:     d.Span.Filename,
			Line:     d.Span.Line,
			Column:   d.Span.Column,
			Notes:    d.Notes,
			Help:     d.Help,
		}
	}
	return json.Marshal(out)
}
