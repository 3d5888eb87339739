package transform

import (
	"sort"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/mangle"
	"github.com/tos-network/toyul/scope"
)

// materializeDependencies appends one FunctionDef per name a code scope's
// statements recorded via scope.DependsOn (spec §4.4 "Dependency
// materialisation"), in first-reference order, cloning and mangling each
// helper template against the names already declared in this scope so a
// materialised helper's locals never collide with caller-visible names
// (spec §9 "Shadowing restriction").
func (tr *Transformer) materializeDependencies(body *ast.Block, codeScope *scope.Scope) {
	if body == nil || len(codeScope.Depends) == 0 {
		return
	}
	order := firstReferenceOrder(body, codeScope.Depends)
	existing := ast.CallNames(body)

	seen := map[string]bool{}
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true
		tpl, ok := tr.lookupHelperTemplate(codeScope, name)
		if !ok {
			continue
		}
		fn := cloneAndMangleHelper(tpl, existing)
		body.Statements = append(body.Statements, fn)
		existing = append(existing, fn.Name)
	}
}

// firstReferenceOrder walks body's FunctionCall names in textual order,
// keeping only the ones recorded as dependencies, so materialised helpers
// come out in a stable, deterministic order (spec's "deterministic
// single-threaded pipeline" property). Dependencies the body never calls
// directly follow in name order.
func firstReferenceOrder(body *ast.Block, wanted map[string]bool) []string {
	var order []string
	seen := map[string]bool{}
	ast.Walk(body, func(n ast.Node) bool {
		if fc, ok := n.(*ast.FunctionCall); ok {
			if wanted[fc.Name] && !seen[fc.Name] {
				seen[fc.Name] = true
				order = append(order, fc.Name)
			}
		}
		return true
	})
	var rest []string
	for name := range wanted {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// lookupHelperTemplate resolves a dependency name to its template
// FunctionDef: first the transformer's synthesized helper pool (interface
// thunks, emit/throw encoders, require/assert/ecrecover/mcopy fallbacks),
// then the builtin library and user functions loaded into the nearest
// scopes.
func (tr *Transformer) lookupHelperTemplate(sc *scope.Scope, name string) (*ast.FunctionDef, bool) {
	if fn, ok := tr.helperPool[name]; ok {
		return fn, true
	}
	return sc.LookupFunc(name)
}

func cloneAndMangleHelper(tpl *ast.FunctionDef, existingNames []string) *ast.FunctionDef {
	locals := localNamesOf(tpl)
	renames := mangle.MangleSet(locals, existingNames)
	return renameFunctionDef(tpl, renames)
}

func localNamesOf(fn *ast.FunctionDef) []string {
	var names []string
	for _, p := range fn.Params {
		names = append(names, p.Name)
	}
	for _, r := range fn.Returns {
		names = append(names, r.Name)
	}
	ast.Walk(fn.Body, func(n ast.Node) bool {
		if vd, ok := n.(*ast.VariableDeclaration); ok {
			for _, nm := range vd.Names {
				names = append(names, nm.Name)
			}
		}
		return true
	})
	return names
}

// renameFunctionDef rewrites every Identifier/Assignment LHS/VariableDeclaration
// name in fn that appears in renames, leaving the function's own exported
// name untouched (materialised helpers keep their template name; only
// their locals are mangled).
func renameFunctionDef(fn *ast.FunctionDef, renames map[string]string) *ast.FunctionDef {
	rn := func(s string) string {
		if r, ok := renames[s]; ok {
			return r
		}
		return s
	}
	params := make([]ast.TypedIdent, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ast.TypedIdent{Name: rn(p.Name), Type: p.Type}
	}
	rets := make([]ast.TypedIdent, len(fn.Returns))
	for i, r := range fn.Returns {
		rets[i] = ast.TypedIdent{Name: rn(r.Name), Type: r.Type}
	}
	body := renameBlock(fn.Body, rn)
	return &ast.FunctionDef{Base: fn.Base, Name: fn.Name, Params: params, Returns: rets,
		NoInline: fn.NoInline, Builtin: fn.Builtin, Body: body}
}

func renameBlock(b *ast.Block, rn func(string) string) *ast.Block {
	if b == nil {
		return nil
	}
	out := &ast.Block{Base: b.Base}
	for _, s := range b.Statements {
		out.Statements = append(out.Statements, renameStmt(s, rn))
	}
	return out
}

func renameStmt(s ast.Stmt, rn func(string) string) ast.Stmt {
	switch n := s.(type) {
	case *ast.VariableDeclaration:
		names := make([]ast.TypedIdent, len(n.Names))
		for i, nm := range n.Names {
			names[i] = ast.TypedIdent{Name: rn(nm.Name), Type: nm.Type}
		}
		return &ast.VariableDeclaration{Base: n.Base, Names: names, Init: renameExprOrNil(n.Init, rn)}
	case *ast.Assignment:
		lhs := make([]string, len(n.LHS))
		for i, l := range n.LHS {
			lhs[i] = rn(l)
		}
		return &ast.Assignment{Base: n.Base, LHS: lhs, RHS: renameExprOrNil(n.RHS, rn)}
	case *ast.If:
		return &ast.If{Base: n.Base, Cond: renameExprOrNil(n.Cond, rn), Body: renameBlock(n.Body, rn)}
	case *ast.Switch:
		cases := make([]ast.Case, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = ast.Case{Base: c.Base, Value: c.Value, Body: renameBlock(c.Body, rn)}
		}
		return &ast.Switch{Base: n.Base, Expr: renameExprOrNil(n.Expr, rn), Cases: cases, Default: renameBlock(n.Default, rn)}
	case *ast.ForLoop:
		return &ast.ForLoop{Base: n.Base, Init: renameBlock(n.Init, rn), Cond: renameExprOrNil(n.Cond, rn),
			Post: renameBlock(n.Post, rn), Body: renameBlock(n.Body, rn)}
	case *ast.Block:
		return renameBlock(n, rn)
	case *ast.FunctionCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = renameExprOrNil(a, rn).(ast.Expr)
		}
		return &ast.FunctionCall{Base: n.Base, Name: n.Name, Args: args, File: n.File, Line: n.Line}
	default:
		return s
	}
}

func renameExprOrNil(e ast.Expr, rn func(string) string) ast.Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.Identifier:
		return &ast.Identifier{Base: n.Base, Value: rn(n.Value), Replaceable: n.Replaceable}
	case *ast.FunctionCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = renameExprOrNil(a, rn)
		}
		return &ast.FunctionCall{Base: n.Base, Name: n.Name, Args: args, File: n.File, Line: n.Line}
	default:
		return e
	}
}
