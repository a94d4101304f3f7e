// Package borrow implements the borrow checker (§4.D): exclusivity of
// references within a single function body — any number of immutable
// borrows may coexist, but a mutable borrow must be exclusive.
//
// Grounded on other_examples' yarlson/yarlang checker
// (checker/checker.go: `borrows map[*types.Symbol]BorrowState` with states
// NotBorrowed/SharedBorrow/MutBorrow), adapted from symbol-pointer identity
// to binding-name identity, and on the function-boundary save/restore
// idiom already used by internal/types.Checker.checkFnDecl (scope push via
// NewScope, popped on return). The statement/expression walk shape mirrors
// internal/types/checker_stmt.go's checkStmt/checkExpr switches.
package borrow

import (
	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/builtin"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

// State is the borrow status of a single binding, per §3 "BorrowState".
type State int

const (
	NotBorrowed State = iota
	SharedBorrow
	MutBorrow
)

func (s State) String() string {
	switch s {
	case NotBorrowed:
		return "not-borrowed"
	case SharedBorrow:
		return "shared"
	case MutBorrow:
		return "mutable"
	default:
		return "unknown"
	}
}

// borrowRecord tracks a binding's current borrow state and, for shared
// borrows, how many are outstanding (multiple immutable borrows may
// coexist; a single count suffices for mutable, since only one can exist
// at a time).
type borrowRecord struct {
	state      State
	sharedRefs int
	borrowedAt diag.Span
}

type funcState struct {
	borrows map[string]*borrowRecord
}

func newFuncState() *funcState {
	return &funcState{borrows: make(map[string]*borrowRecord)}
}

func (s *funcState) clone() *funcState {
	out := newFuncState()
	for k, v := range s.borrows {
		cp := *v
		out.borrows[k] = &cp
	}
	return out
}

// Checker runs the borrow-checking pass over a parsed file, per §4.D.
type Checker struct {
	Diags *diag.Engine
	cur   *funcState
}

// NewChecker constructs a borrow checker reporting into diags.
func NewChecker(diags *diag.Engine) *Checker {
	return &Checker{Diags: diags}
}

// CheckFile runs the borrow checker over every function declaration.
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

// checkFnDecl saves/restores borrow state around a function body: per the
// Open Questions decision (SPEC_FULL §6 decision 2), borrows are only
// released at function boundaries, never automatically at block end.
func (c *Checker) checkFnDecl(fn *ast.FnDecl) {
	saved := c.cur
	c.cur = newFuncState()

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
	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
		}
	case *ast.IfStmt:
		for _, clause := range s.Clauses {
			c.checkExpr(clause.Condition)
			c.checkBlock(clause.Body)
		}
		if s.Else != nil {
			c.checkBlock(s.Else)
		}
	case *ast.WhileStmt:
		c.checkExpr(s.Condition)
		c.checkBlock(s.Body)
	case *ast.ForStmt:
		c.checkExpr(s.Iterable)
		c.checkBlock(s.Body)
	case *ast.SpawnStmt:
		if s.Call != nil {
			c.checkExpr(s.Call)
		}
		if s.Block != nil {
			c.checkBlock(s.Block)
		}
	}
}

func (c *Checker) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.PrefixExpr:
		if ref, target, mut, ok := asReference(e); ok {
			c.recordBorrow(target, mut, ref)
			return
		}
		c.checkExpr(e.Expr)
	case *ast.CallExpr:
		c.checkExpr(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		c.checkBuiltinCallEffects(e)
	case *ast.InfixExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ast.AssignExpr:
		c.checkExpr(e.Value)
		if target, ok := e.Target.(*ast.Ident); ok {
			c.checkMutation(target)
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
			c.checkBlock(clause.Body)
		}
		if e.Else != nil {
			c.checkBlock(e.Else)
		}
	case *ast.MatchExpr:
		c.checkExpr(e.Subject)
		for _, arm := range e.Arms {
			c.checkBlock(arm.Body)
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
		}
	}
}

// asReference recognizes a PrefixExpr as a reference expression (&x or
// &mut x), per the teacher's parser (internal/parser/expressions.go
// parsePrefixExpr), which rewrites the two-token `&mut` sequence into the
// synthesized lexer.REF_MUT token. It reports the referent's binding name
// when the operand is a bare identifier (the common, checkable case);
// field/index-projected referents are conservatively ignored since the
// checker tracks borrows at whole-binding granularity.
func asReference(e *ast.PrefixExpr) (ref *ast.PrefixExpr, target string, mut bool, ok bool) {
	switch e.Op {
	case lexer.AMPERSAND:
		mut = false
	case lexer.REF_MUT:
		mut = true
	default:
		return nil, "", false, false
	}
	id, isIdent := e.Expr.(*ast.Ident)
	if !isIdent {
		return nil, "", false, false
	}
	return e, id.Name, mut, true
}

// checkBuiltinCallEffects applies §4.D "Rules on built-in call": a built-in
// parameter effect of BorrowsMut/Mutates on a borrowed identifier argument
// reports MutationWhileBorrowed, and Moves reports MoveWhileBorrowed.
func (c *Checker) checkBuiltinCallEffects(call *ast.CallExpr) {
	calleeName, ok := calleeIdentName(call.Callee)
	if !ok || !builtin.IsBuiltin(calleeName) {
		return
	}
	for i, a := range call.Args {
		id, ok := a.(*ast.Ident)
		if !ok {
			continue
		}
		switch builtin.EffectAt(calleeName, i) {
		case builtin.BorrowsMut, builtin.Mutates:
			c.checkMutation(id)
		case builtin.Moves:
			c.CheckMove(id.Name, id)
		}
	}
}

// calleeIdentName reports the plain identifier name of a call's callee,
// when the callee is a bare identifier (not a method call via FieldExpr).
func calleeIdentName(expr ast.Expr) (string, bool) {
	id, ok := expr.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func (c *Checker) recordBorrow(name string, mut bool, at ast.Node) {
	rec, exists := c.cur.borrows[name]
	if !exists {
		rec = &borrowRecord{}
		c.cur.borrows[name] = rec
	}

	switch rec.state {
	case NotBorrowed:
		if mut {
			rec.state = MutBorrow
			rec.borrowedAt = spanOf(at)
		} else {
			rec.state = SharedBorrow
			rec.sharedRefs = 1
			rec.borrowedAt = spanOf(at)
		}
	case SharedBorrow:
		if mut {
			c.Diags.Error(diag.CodeImmutableBorrowWhileMutBorrowed,
				"cannot borrow `"+name+"` as mutable because it is already borrowed as immutable",
				spanOf(at),
				diag.WithLabeledSpan(rec.borrowedAt, "immutable borrow occurs here", diag.StyleSecondary))
			return
		}
		rec.sharedRefs++
	case MutBorrow:
		if mut {
			c.Diags.Error(diag.CodeMutableBorrowWhileBorrowed,
				"cannot borrow `"+name+"` as mutable more than once at a time",
				spanOf(at),
				diag.WithLabeledSpan(rec.borrowedAt, "first mutable borrow occurs here", diag.StyleSecondary))
			return
		}
		c.Diags.Error(diag.CodeImmutableBorrowWhileMutBorrowed,
			"cannot borrow `"+name+"` as immutable because it is already borrowed as mutable",
			spanOf(at),
			diag.WithLabeledSpan(rec.borrowedAt, "mutable borrow occurs here", diag.StyleSecondary))
	}
}

// checkMutation reports a direct mutation of a binding that is currently
// borrowed, per §4.D "MutationWhileBorrowed".
func (c *Checker) checkMutation(id *ast.Ident) {
	rec, exists := c.cur.borrows[id.Name]
	if !exists || rec.state == NotBorrowed {
		return
	}
	c.Diags.Error(diag.CodeMutationWhileBorrowed,
		"cannot assign to `"+id.Name+"` because it is borrowed",
		spanOf(id),
		diag.WithLabeledSpan(rec.borrowedAt, "borrow occurs here", diag.StyleSecondary))
}

// CheckMove reports a move of a binding that is currently borrowed, per
// §4.D "MoveWhileBorrowed". Exposed for internal/move (or a combined
// C→D→E driver) to call when it observes a move of a name this checker is
// simultaneously tracking; the two checkers consult the same AST but keep
// independent state per §4 Design Notes ("Session... owning both
// registries, logically global but scoped per compilation" extends to
// each checker owning its own per-function state).
func (c *Checker) CheckMove(name string, at ast.Node) {
	rec, exists := c.cur.borrows[name]
	if !exists || rec.state == NotBorrowed {
		return
	}
	c.Diags.Error(diag.CodeMoveWhileBorrowed,
		"cannot move out of `"+name+"` because it is borrowed",
		spanOf(at),
		diag.WithLabeledSpan(rec.borrowedAt, "borrow occurs here", diag.StyleSecondary))
}

func spanOf(n ast.Node) diag.Span {
	s := n.Span()
	return diag.Span{Filename: s.Filename, Line: s.Line, Column: s.Column, Start: s.Start, End: s.End}
}
