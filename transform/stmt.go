package transform

import (
	"strings"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// lowerStmt dispatches one statement-position node, returning zero or more
// plain-Yul statements (spec §4.4's per-kind lowering table). Preprocessor
// folds, includes, and declarations that only populate a scope table
// (struct/enum/macro/const) contribute nothing to the emitted block.
func (tr *Transformer) lowerStmt(s ast.Stmt, sc *scope.Scope) []ast.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ast.Pragma:
		tr.applyPragma(n, sc)
		return nil
	case *ast.Fold:
		return tr.lowerFoldStmt(n, sc)
	case *ast.IncludeCall:
		var out []ast.Stmt
		for _, tl := range tr.lowerInclude(n, sc) {
			if st, ok := tl.(ast.Stmt); ok {
				out = append(out, st)
			}
		}
		return out
	case *ast.Enum:
		tr.lowerEnum(n, sc)
		return nil
	case *ast.StructDefinition:
		if err := tr.registerStructDef(sc, n); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
		}
		return nil
	case *ast.MacroDefinition:
		sc.AddMacro(n)
		return nil
	case *ast.ConstDeclaration:
		tr.lowerConstDeclaration(n, sc)
		return nil
	case *ast.FunctionDef:
		if fd := tr.lowerFunctionDef(n, sc); fd != nil {
			return []ast.Stmt{fd}
		}
		return nil
	case *ast.VariableDeclaration:
		return []ast.Stmt{tr.lowerVariableDeclaration(n, sc)}
	case *ast.Assignment:
		return []ast.Stmt{&ast.Assignment{Base: n.Base, LHS: n.LHS, RHS: tr.foldExpr(tr.lowerExpr(n.RHS, sc), sc)}}
	case *ast.MemberAssignment:
		return []ast.Stmt{tr.lowerMemberAssignment(n, sc)}
	case *ast.If:
		return []ast.Stmt{&ast.If{Base: n.Base, Cond: tr.foldExpr(tr.lowerExpr(n.Cond, sc), sc), Body: tr.lowerBlock(n.Body, sc)}}
	case *ast.Switch:
		return []ast.Stmt{tr.lowerSwitch(n, sc)}
	case *ast.ForLoop:
		return []ast.Stmt{tr.lowerForLoop(n, sc)}
	case *ast.While:
		return []ast.Stmt{tr.lowerWhile(n, sc)}
	case *ast.DoWhile:
		return tr.lowerDoWhile(n, sc)
	case *ast.BreakContinue:
		return []ast.Stmt{n}
	case *ast.Leave:
		return []ast.Stmt{n}
	case *ast.Block:
		return []ast.Stmt{tr.lowerBlock(n, sc)}
	case *ast.Emit:
		return tr.lowerEmit(n, sc)
	case *ast.Throw:
		return tr.lowerThrow(n, sc)
	case *ast.InterfaceCall:
		return []ast.Stmt{tr.lowerInterfaceCall(n, sc).(*ast.FunctionCall)}
	case *ast.FunctionCall:
		switch {
		case n.Name == "returns":
			return tr.lowerReturns(tr.lowerArgs(n.Args, sc))
		case n.Name == "mstores":
			return tr.lowerMstores(tr.lowerArgs(n.Args, sc))
		case n.Name == "storeimmutable":
			return []ast.Stmt{tr.lowerStoreImmutable(n, tr.lowerArgs(n.Args, sc), sc)}
		case n.Name == "assert":
			return tr.lowerAssertStmt(n, tr.lowerArgs(n.Args, sc))
		case strings.HasPrefix(n.Name, "require."):
			return tr.lowerRequire(n, tr.lowerArgs(n.Args, sc), sc)
		}
		lowered := tr.lowerFunctionCallExpr(n, sc)
		if fc, ok := lowered.(*ast.FunctionCall); ok {
			return []ast.Stmt{fc}
		}
		// A builtin/macro expansion that folded to a bare literal in
		// statement position is dead code; `pop` keeps it well-formed Yul.
		return []ast.Stmt{&ast.FunctionCall{Name: "pop", Args: []ast.Expr{lowered}}}
	default:
		return nil
	}
}

// lowerArgs lowers each argument in place; used by statement-position
// builtins (returns, mstores, storeimmutable) that need their raw
// expressions rather than a synthesized FunctionCall of their own.
func (tr *Transformer) lowerArgs(args []ast.Expr, sc *scope.Scope) []ast.Expr {
	out := make([]ast.Expr, len(args))
	for i, a := range args {
		out[i] = tr.foldExpr(tr.lowerExpr(a, sc), sc)
	}
	return out
}

func (tr *Transformer) lowerFoldStmt(f *ast.Fold, sc *scope.Scope) []ast.Stmt {
	block := tr.selectFoldBranch(f, sc)
	if block == nil {
		return nil
	}
	var out []ast.Stmt
	for _, s := range block.Statements {
		out = append(out, tr.lowerStmt(s, sc)...)
	}
	return out
}

// lowerVariableDeclaration lowers `let name[, name...] := expr`, recording
// the declared struct type (from a `name: Type` annotation, or from a
// StructInitializer initialiser of a single name) so later `name->field`
// reads can resolve
// their layout without a full type system (spec §4.3 scope var tables).
func (tr *Transformer) lowerVariableDeclaration(n *ast.VariableDeclaration, sc *scope.Scope) ast.Stmt {
	init := tr.lowerExpr(n.Init, sc)
	if init != nil {
		init = tr.foldExpr(init, sc)
	}
	for _, nm := range n.Names {
		sc.AddVar(nm.Name, init)
		if nm.Type != "" {
			sc.SetVarType(nm.Name, nm.Type)
		} else if si, ok := n.Init.(*ast.StructInitializer); ok && len(n.Names) == 1 {
			sc.SetVarType(nm.Name, si.StructName)
		}
	}
	return &ast.VariableDeclaration{Base: n.Base, Names: n.Names, Init: init}
}

// lowerMemberAssignment rewrites `name->field := rhs` / `name->field |= rhs`
// into a read-modify-write (or OR-in) assignment against the holding local
// (spec §4.4 "MemberIdentifier / MemberAssignment").
func (tr *Transformer) lowerMemberAssignment(n *ast.MemberAssignment, sc *scope.Scope) ast.Stmt {
	_, member, ok := tr.resolveMember(n.Target.BaseName, n.Target.CastType, n.Target.Member, sc, n)
	rhs := tr.foldExpr(tr.lowerExpr(n.RHS, sc), sc)
	if !ok {
		return &ast.Assignment{Base: n.Base, LHS: []string{n.Target.BaseName}, RHS: rhs}
	}
	word := ast.Expr(&ast.Identifier{Value: n.Target.BaseName})
	var newWord ast.Expr
	if n.OrFlag {
		newWord = memberOrExpr(word, member, rhs)
	} else {
		newWord = memberWriteExpr(word, member, rhs)
	}
	return &ast.Assignment{Base: n.Base, LHS: []string{n.Target.BaseName}, RHS: tr.foldExpr(newWord, sc)}
}

func (tr *Transformer) lowerSwitch(n *ast.Switch, sc *scope.Scope) ast.Stmt {
	expr := tr.foldExpr(tr.lowerExpr(n.Expr, sc), sc)
	cases := make([]ast.Case, len(n.Cases))
	for i, c := range n.Cases {
		val := tr.foldExpr(tr.lowerExpr(c.Value, sc), sc)
		cases[i] = ast.Case{Base: c.Base, Value: val, Body: tr.lowerBlock(c.Body, sc)}
	}
	var def *ast.Block
	if n.Default != nil {
		def = tr.lowerBlock(n.Default, sc)
	}
	return &ast.Switch{Base: n.Base, Expr: expr, Cases: cases, Default: def}
}

func (tr *Transformer) lowerForLoop(n *ast.ForLoop, sc *scope.Scope) ast.Stmt {
	loopScope := sc.Push(scope.KindBlock)
	init := tr.lowerBlock(n.Init, loopScope)
	cond := tr.foldExpr(tr.lowerExpr(n.Cond, loopScope), loopScope)
	post := tr.lowerBlock(n.Post, loopScope)
	body := tr.lowerBlock(n.Body, loopScope)
	return &ast.ForLoop{Base: n.Base, Init: init, Cond: cond, Post: post, Body: body}
}

// lowerWhile desugars `while cond { body }` into a plain Yul `for` loop with
// empty init/post clauses (dialect sugar, spec §3 table).
func (tr *Transformer) lowerWhile(n *ast.While, sc *scope.Scope) ast.Stmt {
	loopScope := sc.Push(scope.KindBlock)
	cond := tr.foldExpr(tr.lowerExpr(n.Cond, loopScope), loopScope)
	body := tr.lowerBlock(n.Body, loopScope)
	return &ast.ForLoop{Base: n.Base, Init: &ast.Block{}, Cond: cond, Post: &ast.Block{}, Body: body}
}

// lowerDoWhile desugars `do { body } while cond` into the body followed by a
// `for {} cond {} { body }` loop, since Yul has no native do-while form.
func (tr *Transformer) lowerDoWhile(n *ast.DoWhile, sc *scope.Scope) []ast.Stmt {
	loopScope := sc.Push(scope.KindBlock)
	first := tr.lowerBlock(n.Body, loopScope)
	cond := tr.foldExpr(tr.lowerExpr(n.Cond, loopScope), loopScope)
	rest := tr.lowerBlock(n.Body, loopScope)
	loop := &ast.ForLoop{Base: n.Base, Init: &ast.Block{}, Cond: cond, Post: &ast.Block{}, Body: rest}
	return append(append([]ast.Stmt{}, first.Statements...), loop)
}
