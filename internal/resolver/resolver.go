// Package resolver implements the optional static pre-evaluation pass
// SPEC_FULL.md's resolution of spec.md §9's Resolver open question commits
// to: a single walk over a parsed program that reports undefined-variable
// references and shadowed top-level names, surfaced by the CLI behind a
// `-warn` flag. It never blocks evaluation — warnings are advisory only.
package resolver

import (
	"fmt"

	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/token"
)

// Warning is one resolver finding.
type Warning struct {
	Message string
	Pos     token.Position
}

func (w Warning) String() string {
	return fmt.Sprintf("%d:%d: %s", w.Pos.Line, w.Pos.Column, w.Message)
}

// Resolver walks an ast.Program tracking a scope stack that mirrors the
// evaluator's actual visibility rule (internal/evaluator/calls.go's
// invokeMethod/invokeBlock): top-level locals behave like a global scope
// visible everywhere, while a function/method/class boundary can see only
// its own parameters/locals plus that global scope, never an intervening
// lexical scope. Lambda and block bodies are not boundaries and see every
// enclosing scope.
type Resolver struct {
	scopes   []map[string]bool
	boundary []bool
	warnings []Warning
}

// nativeFunctionNames mirrors the top-level functions
// internal/evaluator/natives.go's registerNativeFunctions installs on
// Evaluator.Global, so the resolver doesn't flag calls to them as
// undefined — the resolver has no Evaluator to consult, so this list must
// be kept in sync by hand.
var nativeFunctionNames = []string{"puts", "print", "p", "gets", "require_relative"}

// New returns a Resolver ready to check one program.
func New() *Resolver {
	r := &Resolver{
		scopes:   []map[string]bool{make(map[string]bool)},
		boundary: []bool{false},
	}
	for _, name := range nativeFunctionNames {
		r.declare(name)
	}
	return r
}

// Resolve walks prog and returns every warning found, in source order.
func Resolve(prog *ast.Program) []Warning {
	r := New()
	r.hoistTopLevel(prog.Statements)
	r.walkStmts(prog.Statements)
	return r.warnings
}

func (r *Resolver) warn(pos token.Position, format string, args ...interface{}) {
	r.warnings = append(r.warnings, Warning{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// hoistTopLevel pre-declares every top-level def's name before the body is
// walked, since Metorex (like Ruby) resolves calls to functions/classes
// defined later in the same file.
func (r *Resolver) hoistTopLevel(stmts []ast.Statement) {
	for _, s := range stmts {
		switch d := s.(type) {
		case *ast.FunctionDef:
			r.declare(d.Name)
		case *ast.ClassDef:
			r.declare(d.Name)
		}
	}
}

func (r *Resolver) pushScope(isBoundary bool) {
	r.scopes = append(r.scopes, make(map[string]bool))
	r.boundary = append(r.boundary, isBoundary)
}

func (r *Resolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
	r.boundary = r.boundary[:len(r.boundary)-1]
}

func (r *Resolver) declare(name string) {
	r.declareAt(name, token.Position{})
}

func (r *Resolver) declareAt(name string, pos token.Position) {
	top := len(r.scopes) - 1
	// Only a boundary scope (a function/method/class body's own locals) introduces a
	// genuinely distinct variable; a plain if/while/begin block shares the
	// enclosing scope's visibility, so reassigning a name already declared
	// there is just an update, not a shadow.
	if top != 0 && r.boundary[top] && r.scopes[0][name] {
		r.warn(pos, "'%s' shadows a top-level variable of the same name", name)
	}
	r.scopes[top][name] = true
}

func (r *Resolver) isDeclared(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
		if r.boundary[i] {
			return r.scopes[0][name]
		}
	}
	return false
}

func (r *Resolver) walkStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		r.walkStmt(s)
	}
}

func (r *Resolver) walkStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		r.walkExpr(n.Expr)
	case *ast.Assignment:
		r.walkExpr(n.Value)
		if ident, ok := n.Target.(*ast.Identifier); ok {
			if n.Operator != "=" && !r.isDeclared(ident.Name) {
				r.warn(n.Pos(), "'%s' is used before assignment", ident.Name)
			}
			r.declareAt(ident.Name, n.Pos())
		} else {
			r.walkExpr(n.Target)
		}
	case *ast.FunctionDef:
		r.pushScope(true)
		for _, p := range n.Parameters {
			r.declareParam(p)
		}
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.MethodDef:
		r.pushScope(true)
		for _, p := range n.Parameters {
			r.declareParam(p)
		}
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.ClassDef:
		r.pushScope(true)
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.IfStmt:
		r.walkExpr(n.Cond)
		r.pushScope(false)
		r.walkStmts(n.Then)
		r.popScope()
		for _, elsif := range n.Elsifs {
			r.walkExpr(elsif.Cond)
			r.pushScope(false)
			r.walkStmts(elsif.Body)
			r.popScope()
		}
		if n.Else != nil {
			r.pushScope(false)
			r.walkStmts(n.Else)
			r.popScope()
		}
	case *ast.UnlessStmt:
		r.walkExpr(n.Cond)
		r.pushScope(false)
		r.walkStmts(n.Then)
		r.popScope()
		if n.Else != nil {
			r.pushScope(false)
			r.walkStmts(n.Else)
			r.popScope()
		}
	case *ast.WhileStmt:
		r.walkExpr(n.Cond)
		r.pushScope(false)
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.ForStmt:
		r.walkExpr(n.Iterable)
		r.pushScope(false)
		r.declare(n.Var)
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.ReturnStmt:
		if n.Value != nil {
			r.walkExpr(n.Value)
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
		// nothing to resolve
	case *ast.BlockStmt:
		r.pushScope(false)
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.BeginStmt:
		r.pushScope(false)
		r.walkStmts(n.Body)
		r.popScope()
		for _, resc := range n.Rescues {
			r.pushScope(false)
			if resc.BoundVarName != "" {
				r.declare(resc.BoundVarName)
			}
			r.walkStmts(resc.Body)
			r.popScope()
		}
		if n.Else != nil {
			r.pushScope(false)
			r.walkStmts(n.Else)
			r.popScope()
		}
		if n.Ensure != nil {
			r.pushScope(false)
			r.walkStmts(n.Ensure)
			r.popScope()
		}
	case *ast.RaiseStmt:
		if n.Expr != nil {
			r.walkExpr(n.Expr)
		}
	case *ast.MatchStmt:
		r.walkExpr(n.Subject)
		for _, c := range n.Cases {
			r.pushScope(false)
			r.declarePatternNames(c.Pattern)
			if c.Guard != nil {
				r.walkExpr(c.Guard)
			}
			r.walkStmts(c.Body)
			r.popScope()
		}
	case *ast.AttrReaderStmt, *ast.AttrWriterStmt, *ast.AttrAccessorStmt:
		// synthesized accessor names live on the class, not as local variables
	}
}

// declarePatternNames registers the identifier-like bindings a match
// pattern introduces (spec.md §4.4's pattern grammar), so a case body can
// reference them without a spurious undefined-variable warning.
func (r *Resolver) declarePatternNames(p ast.MatchPattern) {
	switch pat := p.(type) {
	case ast.IdentifierPattern:
		r.declare(pat.Name)
	case ast.ArrayPattern:
		for _, el := range pat.Elements {
			r.declarePatternNames(el)
		}
	case ast.RestPattern:
		if pat.Name != "" {
			r.declare(pat.Name)
		}
	case ast.ObjectPattern:
		for _, f := range pat.Fields {
			r.declarePatternNames(f.Pattern)
		}
	}
}

func (r *Resolver) declareParam(p *ast.Parameter) {
	r.declare(p.Name)
}

func (r *Resolver) walkExpr(e ast.Expression) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Identifier:
		if !r.isDeclared(n.Name) {
			r.warn(n.Pos(), "'%s' is not defined in any enclosing scope", n.Name)
		}
	case *ast.InterpolatedString:
		for _, part := range n.Parts {
			if part.Expr != nil {
				r.walkExpr(part.Expr)
			}
		}
	case *ast.BinaryOp:
		r.walkExpr(n.Left)
		r.walkExpr(n.Right)
	case *ast.UnaryOp:
		r.walkExpr(n.Operand)
	case *ast.RangeExpr:
		r.walkExpr(n.Start)
		r.walkExpr(n.End)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			r.walkExpr(el)
		}
	case *ast.DictLiteral:
		for _, entry := range n.Entries {
			r.walkExpr(entry.Key)
			r.walkExpr(entry.Value)
		}
	case *ast.IndexExpr:
		r.walkExpr(n.Receiver)
		r.walkExpr(n.Index)
	case *ast.Call:
		r.walkExpr(n.Callee)
		for _, a := range n.Args {
			r.walkExpr(a)
		}
		if n.TrailingBlock != nil {
			r.walkExpr(n.TrailingBlock)
		}
	case *ast.MethodCall:
		r.walkExpr(n.Receiver)
		for _, a := range n.Args {
			r.walkExpr(a)
		}
		if n.TrailingBlock != nil {
			r.walkExpr(n.TrailingBlock)
		}
	case *ast.SuperExpr:
		for _, a := range n.Args {
			r.walkExpr(a)
		}
		if n.TrailingBlock != nil {
			r.walkExpr(n.TrailingBlock)
		}
	case *ast.Lambda:
		r.pushScope(false)
		for _, p := range n.Parameters {
			r.declareParam(p)
		}
		r.walkStmts(n.Body)
		r.popScope()
	case *ast.Grouped:
		r.walkExpr(n.Inner)
	}
}
