// Package lifetime implements the lifetime/scope checker (§4.E): a
// scope-depth stack tracking which bindings are currently in scope, used to
// reject references that would outlive the binding they point to.
//
// Grounded on internal/types.Scope's parent-linked scope chain
// (internal/types/scope.go) generalized into an explicit depth counter (so
// "does this reference outlive its referent" is a simple depth comparison
// rather than a chain walk), and on the statement/expression walk shape of
// internal/types/checker_stmt.go. Fuzzy "did you mean" candidate sourcing
// is grounded on internal/diag.Engine.Suggest (§4.J).
package lifetime

import (
	"github.com/malphas-lang/malphas-lang/internal/ast"
	"github.com/malphas-lang/malphas-lang/internal/builtin"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

// binding records the scope depth a name was declared at.
type binding struct {
	depth int
	span  diag.Span
}

// Checker runs the lifetime/scope-checking pass over a parsed file.
type Checker struct {
	Diags *diag.Engine

	depth      int
	inScope    map[string]*binding
	globalVars map[string]bool
	// references is the reference graph (§3 "references: Name -> Name"):
	// for a binding whose current value is a reference expression
	// (`&x`/`&mut x`), maps that binding's name to the name of the
	// referent it points to. Used to check `r = &local`-style
	// cross-scope-boundary reassignment (§4.E).
	references map[string]string
}

// NewChecker constructs a lifetime checker reporting into diags.
func NewChecker(diags *diag.Engine) *Checker {
	return &Checker{
		Diags:      diags,
		inScope:    make(map[string]*binding),
		globalVars: make(map[string]bool),
		references: make(map[string]string),
	}
}

// CheckFile runs a pre-pass registering every top-level name at scope 0 (so
// forward references between top-level items never trigger false
// positives), then checks every function body.
func (c *Checker) CheckFile(file *ast.File) {
	for _, decl := range file.Decls {
		c.registerTopLevel(decl)
	}
	names := make([]string, 0, len(c.globalVars))
	for name := range c.globalVars {
		names = append(names, name)
	}
	c.Diags.SetCandidates(names)

	for _, decl := range file.Decls {
		c.checkDecl(decl)
	}
}

func (c *Checker) registerTopLevel(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FnDecl:
		if d.Name != nil {
			c.globalVars[d.Name.Name] = true
		}
	case *ast.StructDecl:
		if d.Name != nil {
			c.globalVars[d.Name.Name] = true
		}
	case *ast.EnumDecl:
		if d.Name != nil {
			c.globalVars[d.Name.Name] = true
		}
	case *ast.ConstDecl:
		if d.Name != nil {
			c.globalVars[d.Name.Name] = true
		}
	case *ast.TraitDecl:
		if d.Name != nil {
			c.globalVars[d.Name.Name] = true
		}
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

// scopeSnapshot is the pre-block state pushScope saves and popScope
// restores: both the in-scope bindings and the reference graph are scoped
// to the block, so a reference recorded inside a block is forgotten once
// the block exits along with the binding it described.
type scopeSnapshot struct {
	inScope    map[string]*binding
	references map[string]string
}

// pushScope increments the depth counter and snapshots the bindings map and
// reference graph to their pre-block state; popScope restores both, so any
// name declared inside the block goes out of scope when it returns (§4.E
// "Block and branch scopes").
func (c *Checker) pushScope() scopeSnapshot {
	c.depth++
	snap := scopeSnapshot{
		inScope:    make(map[string]*binding, len(c.inScope)),
		references: make(map[string]string, len(c.references)),
	}
	for k, v := range c.inScope {
		snap.inScope[k] = v
	}
	for k, v := range c.references {
		snap.references[k] = v
	}
	return snap
}

func (c *Checker) popScope(snap scopeSnapshot) {
	c.depth--
	c.inScope = snap.inScope
	c.references = snap.references
}

func (c *Checker) checkFnDecl(fn *ast.FnDecl) {
	saved := c.pushScope()
	for _, p := range fn.Params {
		if p.Name != nil {
			c.declare(p.Name.Name, p.Name)
		}
	}
	if fn.Body != nil {
		c.checkBlock(fn.Body)
	}
	c.popScope(saved)
}

func (c *Checker) declare(name string, at ast.Node) {
	c.inScope[name] = &binding{depth: c.depth, span: spanOf(at)}
}

func (c *Checker) checkBlock(block *ast.BlockExpr) {
	saved := c.pushScope()
	for _, stmt := range block.Stmts {
		c.checkStmt(stmt)
	}
	if block.Tail != nil {
		c.checkExpr(block.Tail)
	}
	c.popScope(saved)
}

// checkBranch checks a branch body as an ordinary block: checkBlock gives it
// one scope level deeper than the enclosing code, and the branch's own
// declarations are removed when it ends.
func (c *Checker) checkBranch(block *ast.BlockExpr) {
	if block == nil {
		return
	}
	c.checkBlock(block)
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		c.checkExpr(s.Value)
		if s.Name != nil {
			c.declare(s.Name.Name, s.Name)
			c.recordReference(s.Name.Name, s.Value)
			c.checkReferenceAssignment(s.Name.Name, s.Name)
		}
	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkReturnValue(s.Value)
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
		saved := c.pushScope()
		if s.Iterator != nil {
			c.declare(s.Iterator.Name, s.Iterator)
		}
		for _, st := range s.Body.Stmts {
			c.checkStmt(st)
		}
		if s.Body.Tail != nil {
			c.checkExpr(s.Body.Tail)
		}
		c.popScope(saved)
	case *ast.SpawnStmt:
		if s.Call != nil {
			c.checkExpr(s.Call)
		}
		if s.Block != nil {
			c.checkBranch(s.Block)
		}
	}
}

func (c *Checker) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Ident:
		c.checkUse(e.Name, e)
	case *ast.PrefixExpr:
		c.checkExpr(e.Expr)
	case *ast.CallExpr:
		c.checkExpr(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a)
		}
	case *ast.InfixExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ast.AssignExpr:
		c.checkExpr(e.Target)
		c.checkExpr(e.Value)
		if target, ok := e.Target.(*ast.Ident); ok {
			c.recordReference(target.Name, e.Value)
			c.checkReferenceAssignment(target.Name, target)
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
			saved := c.pushScope()
			c.declarePatternBindings(arm.Pattern)
			for _, st := range arm.Body.Stmts {
				c.checkStmt(st)
			}
			if arm.Body.Tail != nil {
				c.checkExpr(arm.Body.Tail)
			}
			c.popScope(saved)
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

// declarePatternBindings introduces every name bound by a match arm's
// pattern into the arm's scope. MatchArm.Pattern is declared as a bare
// ast.Expr (a pre-existing transitional state of the pattern parser: the
// dedicated ast.Pattern sum type exists but is not yet wired into
// MatchArm), so this pragmatically recognizes the expression shapes that
// stand in for patterns today -- a bare identifier binds that name, a call
// expression (`Some(x)`-style tuple-enum pattern) binds each argument
// identifier -- while DeclarePattern below handles the fully general
// ast.Pattern sum for any call site that does have one.
func (c *Checker) declarePatternBindings(pat ast.Expr) {
	switch p := pat.(type) {
	case *ast.Ident:
		if p.Name != "_" {
			c.declare(p.Name, p)
		}
	case *ast.CallExpr:
		for _, arg := range p.Args {
			c.declarePatternBindings(arg)
		}
	case *ast.StructLiteral:
		for _, f := range p.Fields {
			c.declarePatternBindings(f.Value)
		}
	case *ast.TupleLiteral:
		for _, el := range p.Elements {
			c.declarePatternBindings(el)
		}
	}
}

// DeclarePattern introduces every name bound by a fully general
// ast.Pattern node. Exposed for call sites (e.g. let-pattern destructuring)
// that construct real ast.Pattern values rather than MatchArm's
// expression-based placeholders.
func (c *Checker) DeclarePattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.PatternIdent:
		if p.Name != nil {
			c.declare(p.Name.Name, p.Name)
		}
	case *ast.PatternBinding:
		if p.Name != nil {
			c.declare(p.Name.Name, p.Name)
		}
		if p.Pattern != nil {
			c.DeclarePattern(p.Pattern)
		}
	case *ast.PatternTuple:
		for _, el := range p.Elements {
			c.DeclarePattern(el)
		}
	case *ast.PatternTupleStruct:
		for _, el := range p.Elements {
			c.DeclarePattern(el)
		}
	case *ast.PatternStruct:
		for _, f := range p.Fields {
			if f.Pattern != nil {
				c.DeclarePattern(f.Pattern)
			} else if f.Name != nil {
				c.declare(f.Name.Name, f.Name)
			}
		}
	case *ast.PatternEnum:
		if p.Tuple != nil {
			c.DeclarePattern(p.Tuple)
		}
		if p.Struct != nil {
			c.DeclarePattern(p.Struct)
		}
	case *ast.PatternRest:
		if p.Binding != nil {
			c.DeclarePattern(p.Binding)
		}
	case *ast.PatternSlice:
		for _, el := range p.Elements {
			c.DeclarePattern(el)
		}
	case *ast.PatternReference:
		if p.Pattern != nil {
			c.DeclarePattern(p.Pattern)
		}
	case *ast.PatternBox:
		if p.Pattern != nil {
			c.DeclarePattern(p.Pattern)
		}
	case *ast.PatternOr:
		for _, alt := range p.Patterns {
			c.DeclarePattern(alt)
		}
	case *ast.PatternParen:
		if p.Pattern != nil {
			c.DeclarePattern(p.Pattern)
		}
	case *ast.PatternExprPlaceholder:
		c.declarePatternBindings(p.Expr)
	}
}

// checkUse reports a UseAfterScopeEnd if name is not currently in scope,
// per §4.E -- a plain identifier use of a binding that has already gone out
// of scope. This is distinct from CodeDanglingReference (§7), which is
// reserved for reference-creation/reassignment that would outlive its
// referent -- see checkReferenceAssignment. When the name resembles a known
// identifier the diagnostic includes a fuzzy "did you mean" suggestion.
func (c *Checker) checkUse(name string, at ast.Node) {
	if _, ok := c.inScope[name]; ok {
		return
	}
	if c.globalVars[name] {
		return
	}
	if builtin.IsBuiltin(name) || builtin.IsBuiltinTypeName(name) {
		return
	}
	c.reportOutOfScope(name, at)
}

func (c *Checker) reportOutOfScope(name string, at ast.Node) {
	names := make([]string, 0, len(c.inScope)+len(c.globalVars))
	for n := range c.inScope {
		names = append(names, n)
	}
	for n := range c.globalVars {
		names = append(names, n)
	}
	c.Diags.SetCandidates(names)
	opts := []diag.Option{}
	if suggestions := c.Diags.Suggest(name, false); len(suggestions) > 0 {
		opts = append(opts, diag.WithHelp("did you mean `"+suggestions[0]+"`?"))
	}
	c.Diags.Error(diag.CodeUseAfterScopeEnd,
		"cannot find `"+name+"` in this scope", spanOf(at), opts...)
}

// recordReference updates the reference graph (§3) for targetName: if value
// is a reference expression (`&x`/`&mut x`) naming a bare identifier
// referent, targetName is recorded as referencing it; any other initializer
// clears a prior entry, since targetName no longer holds a reference.
func (c *Checker) recordReference(targetName string, value ast.Expr) {
	ref, ok := value.(*ast.PrefixExpr)
	if !ok || (ref.Op != lexer.AMPERSAND && ref.Op != lexer.REF_MUT) {
		delete(c.references, targetName)
		return
	}
	id, ok := ref.Expr.(*ast.Ident)
	if !ok {
		delete(c.references, targetName)
		return
	}
	c.references[targetName] = id.Name
}

// checkReferenceAssignment reports a DanglingReference when targetName now
// holds a reference (per the reference graph) to a binding declared at a
// strictly deeper scope than targetName itself -- the `r = &local` case
// from §4.E, where r outlives local and would dangle once local's scope
// ends.
func (c *Checker) checkReferenceAssignment(targetName string, at ast.Node) {
	referent, ok := c.references[targetName]
	if !ok {
		return
	}
	targetBinding, ok := c.inScope[targetName]
	if !ok {
		return
	}
	referentBinding, ok := c.inScope[referent]
	if !ok {
		return
	}
	if referentBinding.depth <= targetBinding.depth {
		return
	}
	c.Diags.Error(diag.CodeDanglingReference,
		"`"+targetName+"` would outlive `"+referent+"`, which it references",
		spanOf(at),
		diag.WithLabeledSpan(referentBinding.span, "`"+referent+"` is declared here, in a narrower scope", diag.StyleSecondary),
		diag.WithNotes("`"+referent+"` is dropped when its scope ends, but `"+targetName+"` would continue to reference it"))
}

// checkReturnValue checks a returned expression for a direct reference to a
// binding that is local to the current function body -- returning
// `&local` where local does not outlive the call is the canonical
// ReturnDanglingReference case from §4.E.
func (c *Checker) checkReturnValue(expr ast.Expr) {
	c.checkExpr(expr)
	ref, ok := expr.(*ast.PrefixExpr)
	if !ok || (ref.Op != lexer.AMPERSAND && ref.Op != lexer.REF_MUT) {
		return
	}
	id, ok := ref.Expr.(*ast.Ident)
	if !ok {
		return
	}
	b, ok := c.inScope[id.Name]
	if !ok {
		return
	}
	if b.depth > 1 {
		c.Diags.Error(diag.CodeReturnDanglingReference,
			"cannot return reference to `"+id.Name+"`: it does not live long enough",
			spanOf(ref),
			diag.WithNotes("`"+id.Name+"` is dropped when the function returns, but the reference you're returning would outlive it"))
	}
}

func spanOf(n ast.Node) diag.Span {
	s := n.Span()
	return diag.Span{Filename: s.Filename, Line: s.Line, Column: s.Column, Start: s.Start, End: s.End}
}
