package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageTypes    Stage = "types"
	StageResolve  Stage = "resolve"
	StageMove     Stage = "move"
	StageBorrow   Stage = "borrow"
	StageLifetime Stage = "lifetime"
	StageModules  Stage = "modules"
	StageTraits   Stage = "traits"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
	SeverityInfo    Severity = "info"
)

// Code is a stable identifier for a diagnostic, banded by category per §4.J:
// E0001-E0099 syntax, E0100-E0399 types, E0400-E0499 name resolution,
// E0500-E0599 borrow/move/lifetime, E0600-E0699 patterns, E0700-E0799
// modules, E0800-E0899 traits, W0001+ warnings, I0001+ info.
type Code string

const (
	CodeLexerUnterminatedString       Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedBlockComment Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerIllegalRune              Code = "LEXER_ILLEGAL_RUNE"

	// E0001-E0099: syntax.
	CodeSyntaxUnexpectedToken Code = "E0001"

	// E0100-E0399: types.
	CodeTypeMismatch       Code = "E0100"
	CodeUnknownType        Code = "E0101"
	CodeArityMismatch      Code = "E0102"
	CodeUnresolvedTypeParam Code = "E0103"

	// E0400-E0499: name resolution.
	CodeUnresolvedName   Code = "E0400"
	CodeUnresolvedMethod Code = "E0401"
	CodeAmbiguousMethod  Code = "E0402"
	CodeDuplicateBinding Code = "E0403"

	// E0500-E0599: borrow / move / lifetime.
	CodeUseAfterMove                     Code = "E0500"
	CodeMutableBorrowWhileBorrowed       Code = "E0501"
	CodeImmutableBorrowWhileMutBorrowed  Code = "E0502"
	CodeMutationWhileBorrowed            Code = "E0503"
	CodeMoveWhileBorrowed                Code = "E0504"
	CodeDanglingReference                Code = "E0510"
	CodeUseAfterScopeEnd                 Code = "E0511"
	CodeReturnDanglingReference          Code = "E0512"

	// E0600-E0699: patterns.
	CodeNonExhaustiveMatch Code = "E0600"
	CodeUnreachablePattern Code = "E0601"

	// E0700-E0799: modules.
	CodeUnresolvedModule Code = "E0700"

	// E0800-E0899: traits.
	CodeMissingTraitMethod  Code = "E0800"
	CodeUnsatisfiedTraitBound Code = "E0801"

	// W0001+: warnings.
	CodeUnusedBinding Code = "W0001"
	CodeUnusedImport  Code = "W0002"

	// I0001+: info.
	CodeInlineSpecialization Code = "I0001"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// IsValid reports whether the span carries real source position info.
func (s Span) IsValid() bool {
	return s.Line > 0
}

func (s Span) String() string {
	if s.Filename == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
}

// SpanStyle marks whether a labeled span is the primary culprit or
// supporting context.
type SpanStyle string

const (
	StylePrimary   SpanStyle = "primary"
	StyleSecondary SpanStyle = "secondary"
)

// LabeledSpan attaches a human-readable label to a span, e.g. "moved here"
// vs. "used here" on a single use-after-move diagnostic.
type LabeledSpan struct {
	Span  Span
	Label string
	Style SpanStyle
}

// ProofStep is one step of a reasoning chain explaining how a diagnostic was
// derived (used by borrow/move/lifetime to show the sequence of events that
// led to a conflict).
type ProofStep struct {
	Message string
	Span    Span
}

// Suggestion describes a machine-applicable fix rendered as a unified diff
// (§2.1: rendered with go-difflib).
type Suggestion struct {
	Message     string
	Replacement string
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage        Stage
	Severity     Severity
	Code         Code
	Message      string
	Span         Span
	LabeledSpans []LabeledSpan
	ProofChain   []ProofStep
	Notes        []string
	Help         string
	Suggestion   string
	Related      []Span
	Fix          *Suggestion
}
