package transform

import (
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// lowerMethodCall implements `method.call(name)` (spec §4.4): a direct call
// to the named external method's materialised `__method_<name>` function.
// buildDispatcher always emits that function regardless of whether anything
// references it this way, so no dependency bookkeeping is needed for the
// plain case. A `locked` target instead calls a small materialised wrapper
// reproducing the dispatcher's own `mutex.lock(); __method_<name>();
// mutex.unlock();` sequence (spec property 7), so reaching the method this
// way still honours the reentrancy guard.
func (tr *Transformer) lowerMethodCall(fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	if len(fc.Args) == 0 {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, fc, "method.call() requires a method name")
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	name := literalStringArg(fc.Args[0])
	m, ok := sc.LookupMethod(name)
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "method.call: undefined method %q", name)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	fnName := "__method_" + name
	if !m.Locked {
		return call(fnName)
	}
	return call(tr.ensureLockedMethodCallHelper(name, fnName, sc))
}

// ensureLockedMethodCallHelper registers the `__method_call_<name>` wrapper
// a locked `method.call(name)` site resolves to: the same
// mutex.lock/call/mutex.unlock sequence the dispatcher case for that method
// runs, materialised once per method name and shared across every call site.
func (tr *Transformer) ensureLockedMethodCallHelper(name, fnName string, sc *scope.Scope) string {
	lockName, unlockName := tr.ensureMutexHelpers(sc)
	wrapperName := "__method_call_" + name
	tr.registerHelperOnce(wrapperName, func() *ast.FunctionDef {
		return &ast.FunctionDef{Name: wrapperName, NoInline: true, Body: &ast.Block{Statements: []ast.Stmt{
			exprStmt(call(lockName)),
			exprStmt(call(fnName)),
			exprStmt(call(unlockName)),
		}}}
	})
	sc.DependsOn(wrapperName)
	return wrapperName
}

// lowerMethodCheck is a no-op alias: by the time execution reaches inside a
// `locked` method's body, the caller (the dispatcher case or
// __method_call_<name>) has already run mutex.lock, so there is nothing
// left for a separate in-body check to do (recorded as a design decision,
// not a gap).
func (tr *Transformer) lowerMethodCheck() ast.Expr {
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}
}

// lowerSizeFamily resolves the `*.size` intrinsics (spec §4.4 "Size
// queries"): the ABI head size in bytes of a named method's arguments,
// return values, event payload, error payload, or interface constructor
// arguments.
func (tr *Transformer) lowerSizeFamily(kind string, fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	switch kind {
	case "method.size":
		name := literalStringArg(fc.Args[0])
		m, ok := sc.LookupMethod(name)
		if !ok {
			tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "method.size: undefined method %q", name)
			return shiftLit(0)
		}
		return shiftLit(4 + 32*len(m.Params))
	case "returns.size":
		m, ok := sc.LookupCalldata()
		if !ok {
			tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "returns.size used outside a method body")
			return shiftLit(0)
		}
		return shiftLit(32 * len(m.Returns))
	case "event.size":
		name := literalStringArg(fc.Args[0])
		ev, ok := sc.LookupEvent(name)
		if !ok {
			tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "event.size: undefined event %q", name)
			return shiftLit(0)
		}
		n := 0
		for _, p := range ev.Params {
			if !p.Indexed {
				n++
			}
		}
		if ev.Packed {
			total := 0
			for _, p := range ev.Params {
				if !p.Indexed {
					total += memberBitWidth(p.Type) / 8
				}
			}
			return shiftLit(total)
		}
		return shiftLit(32 * n)
	case "error.size":
		name := literalStringArg(fc.Args[0])
		errd, ok := sc.LookupError(name)
		if !ok {
			tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "error.size: undefined error %q", name)
			return shiftLit(0)
		}
		return shiftLit(4 + 32*len(errd.Params))
	case "create.size", "create2.size":
		name := literalStringArg(fc.Args[0])
		iface, ok := sc.LookupInterface(name)
		if !ok || iface.Constructor == nil {
			return shiftLit(0)
		}
		return shiftLit(32 * len(iface.Constructor.Params))
	default:
		return shiftLit(0)
	}
}

// lowerReturns implements `returns(off, v1, v2, ...)` (spec §4.4): stores
// each value as a full 32-byte word starting at off, then returns the whole
// span. This mirrors the head-only ABI encoding lowerCalldataIdentifier
// assumes on the way in.
func (tr *Transformer) lowerReturns(args []ast.Expr) []ast.Stmt {
	if len(args) == 0 {
		return []ast.Stmt{exprStmt(call("return", shiftLit(0), shiftLit(0)))}
	}
	off, vals := args[0], args[1:]
	stmts, _ := wordEncode(off, vals)
	stmts = append(stmts, exprStmt(call("return", off, shiftLit(32*len(vals)))))
	return stmts
}

// lowerMstores implements `mstores(off, v1, v2, ...)`: sequential full-word
// stores starting at off, with no trailing return.
func (tr *Transformer) lowerMstores(args []ast.Expr) []ast.Stmt {
	if len(args) < 2 {
		return nil
	}
	off, vals := args[0], args[1:]
	stmts, _ := wordEncode(off, vals)
	return stmts
}

// lowerStoreImmutable implements `storeimmutable(name, value)`: records the
// (name, value) pair for the constructor's immutable release (spec §4.4
// "construct/storeimmutable") and lowers straight to the plain-Yul
// `setimmutable` builtin, which patches every `loadimmutable(name)`
// reference in the runtime object once the creation code finishes.
func (tr *Transformer) lowerStoreImmutable(fc *ast.FunctionCall, args []ast.Expr, sc *scope.Scope) ast.Stmt {
	if len(fc.Args) != 2 {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, fc, "storeimmutable(name, value) takes exactly two arguments")
		return exprStmt(call("pop", shiftLit(0)))
	}
	name := literalStringArg(fc.Args[0])
	sc.AddImmutable(name, args[1])
	return exprStmt(call("setimmutable", shiftLit(0), strLit(name), args[1]))
}
