// Package move implements the move checker (§4.C): flow-sensitive tracking
// of which bindings are moved vs. valid, rejecting uses of a binding after
// its value has moved.
//
// The walk shape (switch over ast.Stmt/ast.Expr, one method per case) is
// grounded on the teacher's internal/types.Checker.checkStmt/checkExpr
// (internal/types/checker_stmt.go, checker_expr.go); the moved/valid
// bookkeeping is grounded on internal/checker.Checker in
// yarlson/yarlang (checker/checker.go: `moved map[*types.Symbol]bool`),
// generalized from symbol-pointer identity to per-function name scoping
// because spec §4.C states state by binding name, re-validated on
// re-binding ("shadowing allowed").
package move

import (
	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/builtin"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

// Classifier decides whether a value of a given declared type annotation is
// a copy type or a move type, per §4.C. It is intentionally a function
// rather than a fixed table: local inference (internal/infer) and the type
// substituter feed it concrete types, but the move checker itself only
// needs a yes/no answer keyed by the textual type annotation available at
// the syntax-tree level (spec input contract §6: the core receives a fully
// typed tree, but the move checker's own job runs ahead of full type
// resolution within a single function body).
type Classifier func(typeName string) bool

// DefaultClassifier implements the copy/move classification table from
// §4.C using only the textual type name visible on `let` annotations and
// literal shapes; see IsMoveType: primitives, references, raw pointers and
// function types are Copy, and any other name, recognized or not, is Move,
// matching the closed/open classification described as
// "Move types: ... named (non-primitive) types, generic instantiations...".
func DefaultClassifier(typeName string) bool {
	return IsMoveType(typeName)
}

var copyPrimitives = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
	"f16": true, "f32": true, "f64": true,
	"int": true, "float": true,
	"bool": true, "byte": true, "nil": true, "unit": true, "void": true,
	"error": true, "Infer": true, "Unknown": true,
}

var moveBuiltins = map[string]bool{
	"Vec": true, "Box": true, "Option": true, "Result": true,
}

// IsMoveType reports whether a type spelled typeName is a move type under
// §4.C's classification. string and named (non-primitive) types, generic
// instantiations, arrays/slices, and the built-in generic containers are
// move types; everything else recognized here is copy.
func IsMoveType(typeName string) bool {
	if typeName == "" {
		return false
	}
	if typeName == "string" {
		return true
	}
	if copyPrimitives[typeName] {
		return false
	}
	// References ("&T", "&mut T") and raw pointers ("*T") are copy.
	if len(typeName) > 0 && (typeName[0] == '&' || typeName[0] == '*') {
		return false
	}
	// Function types are copy.
	if len(typeName) >= 2 && typeName[:2] == "fn" {
		return false
	}
	if moveBuiltins[typeName] {
		return true
	}
	// Named (non-primitive) types and generic instantiations are move.
	return true
}

// bindingState is one of Valid or Moved, per §3 "Move state".
type bindingState int

const (
	stateValid bindingState = iota
	stateMoved
)

// funcState is the per-function move-tracking state (§4.C "State").
type funcState struct {
	states map[string]bindingState
	// typeNames records the textual type annotation (when known) of each
	// binding, used to re-derive copy/move classification for the
	// identifier at the point it's referenced as a call argument.
	typeNames map[string]string
}

func newFuncState() *funcState {
	return &funcState{states: make(map[string]bindingState), typeNames: make(map[string]string)}
}

func (s *funcState) clone() *funcState {
	out := newFuncState()
	for k, v := range s.states {
		out.states[k] = v
	}
	for k, v := range s.typeNames {
		out.typeNames[k] = v
	}
	return out
}

// Checker runs the move-checking pass over a parsed file, per §4.C.
type Checker struct {
	Diags      *diag.Engine
	Classifier Classifier

	cur *funcState
}

// NewChecker constructs a move checker reporting into diags. If classifier
// is nil, DefaultClassifier is used.
func NewChecker(diags *diag.Engine, classifier Classifier) *Checker {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	return &Checker{Diags: diags, Classifier: classifier}
}

// CheckFile runs the move checker over every function declaration in file.
func (c *Checker) CheckFile(file *ast.File) {
	for _, decl := range file.Decls {
		c.checkDecl(decl)
	}
}

func (c *Checker) checkDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FnDecl:
		c.checkFnDecl(d)
	case *ast.ImplDecl:
		for _, m := range d.Methods {
			c.checkFnDecl(m)
		}
	}
}

// checkFnDecl saves/restores state around a function body so leaked state
// never crosses functions (§4.C "Block and branch scopes"). A method's
// receiver is simply its first parameter (conventionally named "self");
// the teacher's parser desugars `fn push(self, ...)` the same way as any
// other parameter, so no special-casing is needed here beyond treating it
// like any other initially-valid binding.
func (c *Checker) checkFnDecl(fn *ast.FnDecl) {
	saved := c.cur
	c.cur = newFuncState()

	for _, p := range fn.Params {
		if p.Name == nil {
			continue
		}
		c.cur.states[p.Name.Name] = stateValid
		if tn, ok := typeExprName(p.Type); ok {
			c.cur.typeNames[p.Name.Name] = tn
		}
	}

	if fn.Body != nil {
		c.checkBlock(fn.Body)
	}

	c.cur = saved
}

func (c *Checker) checkBlock(block *ast.BlockExpr) {
	for _, stmt := range block.Stmts {
		c.checkStmt(stmt)
	}
	if block.Tail != nil {
		c.checkExpr(block.Tail)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		c.checkExpr(s.Value)
		name := ""
		if s.Name != nil {
			name = s.Name.Name
		}
		if s.Value != nil {
			c.markMovedIfIdentMove(s.Value)
		}
		// Re-binding the name transitions it back to Valid, shadowing
		// whatever moved state it had before (§3 "Re-binding ... transitions
		// back to Valid").
		c.cur.states[name] = stateValid
		if tn, ok := typeExprName(s.Type); ok {
			c.cur.typeNames[name] = tn
		} else if tn, ok := c.inferTypeName(s.Value); ok {
			c.cur.typeNames[name] = tn
		} else {
			delete(c.cur.typeNames, name)
		}
	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
			c.markMovedIfIdentMove(s.Value)
		}
	case *ast.IfStmt:
		for _, clause := range s.Clauses {
			c.checkExpr(clause.Condition)
			c.checkBranch(clause.Body)
		}
		if s.Else != nil {
			c.checkBranch(s.Else)
		}
	case *ast.WhileStmt:
		c.checkExpr(s.Condition)
		c.checkBranch(s.Body)
	case *ast.ForStmt:
		c.checkExpr(s.Iterable)
		c.checkBranch(s.Body)
	case *ast.SpawnStmt:
		if s.Call != nil {
			c.checkExpr(s.Call)
		}
		if s.Block != nil {
			c.checkBranch(s.Block)
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
		// no expressions to check
	}
}

// checkBranch analyzes a branch body on the current state, with no
// snapshot or restore (§9, SPEC_FULL decision 1): branches are visited in
// program order, so a binding moved in any branch stays moved in the later
// branches and after the if/while/for, i.e. the resulting state is the
// union of the branches' moves.
func (c *Checker) checkBranch(block *ast.BlockExpr) {
	if block == nil {
		return
	}
	c.checkBlock(block)
}

func (c *Checker) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Ident:
		if c.cur.states[e.Name] == stateMoved {
			c.reportUseAfterMove(e.Name, e)
		}
	case *ast.CallExpr:
		c.checkExpr(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		for _, a := range e.Args {
			c.markMovedIfIdentMove(a)
		}
	case *ast.PrefixExpr:
		// References, derefs, and unary operators never move their operand.
		c.checkExpr(e.Expr)
	case *ast.InfixExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ast.AssignExpr:
		c.checkExpr(e.Value)
		if target, ok := e.Target.(*ast.Ident); ok {
			// Re-assignment reinitializes the binding (§4.C).
			c.cur.states[target.Name] = stateValid
		} else {
			c.checkExpr(e.Target)
		}
	case *ast.FieldExpr:
		c.checkExpr(e.Target)
	case *ast.IndexExpr:
		c.checkExpr(e.Target)
		for _, idx := range e.Indices {
			c.checkExpr(idx)
		}
	case *ast.IfExpr:
		for _, clause := range e.Clauses {
			c.checkExpr(clause.Condition)
			c.checkBranch(clause.Body)
		}
		if e.Else != nil {
			c.checkBranch(e.Else)
		}
	case *ast.MatchExpr:
		c.checkExpr(e.Subject)
		for _, arm := range e.Arms {
			c.checkBranch(arm.Body)
		}
	case *ast.BlockExpr:
		c.checkBlock(e)
	case *ast.UnsafeBlock:
		c.checkBlock(e.Block)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
	case *ast.TupleLiteral:
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
	case *ast.StructLiteral:
		for _, f := range e.Fields {
			c.checkExpr(f.Value)
			c.markMovedIfIdentMove(f.Value)
		}
	}
}

// markMovedIfIdentMove marks an identifier argument moved after the call/
// binding that consumed it completes, per §4.C "Call/MethodCall argument
// that is an identifier of move-type: mark that identifier moved after the
// call completes."
func (c *Checker) markMovedIfIdentMove(expr ast.Expr) {
	id, ok := expr.(*ast.Ident)
	if !ok {
		return
	}
	if builtin.IsBuiltin(id.Name) {
		return
	}
	typeName, known := c.cur.typeNames[id.Name]
	if !known {
		return
	}
	if c.Classifier(typeName) {
		c.cur.states[id.Name] = stateMoved
	}
}

func (c *Checker) reportUseAfterMove(name string, at ast.Expr) {
	c.Diags.Error(diag.CodeUseAfterMove, "use of moved value: `"+name+"`", spanOf(at),
		diag.WithNotes("`"+name+"` was moved earlier and cannot be used again without a new binding"))
}

func spanOf(n ast.Node) diag.Span {
	s := n.Span()
	return diag.Span{Filename: s.Filename, Line: s.Line, Column: s.Column, Start: s.Start, End: s.End}
}

// inferTypeName derives a move/copy classification key from a `let`
// initializer's shape when no explicit type annotation is present (spec §8
// scenario 4: `let s = "hi";` must still be trackable). Grounded on
// internal/infer's identity-by-initializer-shape walk, narrowed to just the
// textual key the move checker's Classifier needs.
func (c *Checker) inferTypeName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.StringLit:
		return "string", true
	case *ast.IntegerLit:
		return "i32", true
	case *ast.FloatLit:
		return "f64", true
	case *ast.BoolLit:
		return "bool", true
	case *ast.StructLiteral:
		if name, ok := structLiteralName(e.Name); ok {
			return name, true
		}
		return "Struct", true
	case *ast.ArrayLiteral:
		return "Array", true
	case *ast.TupleLiteral:
		return "Tuple", true
	case *ast.Ident:
		if tn, ok := c.cur.typeNames[e.Name]; ok {
			return tn, true
		}
	case *ast.CallExpr:
		if id, ok := e.Callee.(*ast.Ident); ok {
			return id.Name, true
		}
	case *ast.PrefixExpr:
		if e.Op == lexer.AMPERSAND || e.Op == lexer.REF_MUT {
			return "&", true
		}
	}
	return "", false
}

// structLiteralName extracts the struct name from a struct literal's Name
// expression, which is either a plain identifier or a generic instantiation
// (`Box<i32>{...}`, parsed as an IndexExpr).
func structLiteralName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, true
	case *ast.IndexExpr:
		return structLiteralName(e.Target)
	}
	return "", false
}

func typeExprName(t ast.TypeExpr) (string, bool) {
	if t == nil {
		return "", false
	}
	switch t := t.(type) {
	case *ast.NamedType:
		if t.Name != nil {
			return t.Name.Name, true
		}
	case *ast.ReferenceType:
		if inner, ok := typeExprName(t.Elem); ok {
			if t.Mutable {
				return "&mut " + inner, true
			}
			return "&" + inner, true
		}
		return "&", true
	case *ast.PointerType:
		return "*", true
	case *ast.GenericType:
		if name, ok := typeExprName(t.Base); ok {
			return name, true
		}
	case *ast.GenericTypeExpr:
		if name, ok := typeExprName(t.Base); ok {
			return name, true
		}
	case *ast.SliceType:
		return "Slice", true
	case *ast.ArrayType:
		return "Array", true
	case *ast.FunctionType:
		return "fn", true
	}
	return "", false
}
