package transform

import (
	"fmt"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// lowerEmit lowers `emit Name(args...)` (spec §4.4 "Emit"). Inline events
// synthesize their log0..log4 call directly in place; non-inline events
// materialize a `__emit_<Name>_<depth>` helper the same way library
// dependencies are flushed.
func (tr *Transformer) lowerEmit(n *ast.Emit, sc *scope.Scope) []ast.Stmt {
	ev, ok := sc.LookupEvent(n.Name)
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, n, "undefined event %q", n.Name)
		return nil
	}
	if len(n.Args) != len(ev.Params) {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, n, "event %q expects %d arguments, got %d", n.Name, len(ev.Params), len(n.Args))
	}
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = tr.foldExpr(tr.lowerExpr(a, sc), sc)
	}

	if !ev.Inline {
		name := fmt.Sprintf("__emit_%s_%d", n.Name, tr.depth)
		tr.ensureEmitHelper(name, ev)
		sc.DependsOn(name)
		return []ast.Stmt{exprStmt(call(name, args...))}
	}

	base := tr.lowerExpr(n.Offset, sc)
	if base == nil {
		base = shiftLit(0)
	}
	stmts, _ := tr.buildEmitBody(ev, args, base)
	return stmts
}

// ensureEmitHelper materializes the non-inline event encoder once per
// (name) — the depth suffix already makes name unique per emit site, so
// registerHelperOnce's identity cache is exactly the "exactly one function
// definition" guarantee (spec §8 property 6).
func (tr *Transformer) ensureEmitHelper(name string, ev *ast.EventDecl) {
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		params := make([]ast.TypedIdent, len(ev.Params))
		argExprs := make([]ast.Expr, len(ev.Params))
		for i := range ev.Params {
			pname := fmt.Sprintf("arg%d", i)
			params[i] = ast.TypedIdent{Name: pname}
			argExprs[i] = ident(pname)
		}
		body := &ast.Block{Statements: []ast.Stmt{
			letDecl("__ptr", call("mload", shiftLit(0x40))),
		}}
		stmts, _ := tr.buildEmitBody(ev, argExprs, ident("__ptr"))
		body.Statements = append(body.Statements, stmts...)
		return &ast.FunctionDef{Name: name, Params: params, NoInline: true, Body: body}
	})
}

// buildEmitBody constructs the topic list and non-indexed payload
// serialization shared by the inline and materialized-helper forms, and
// returns the log0..log4 statement plus the payload's byte size.
func (tr *Transformer) buildEmitBody(ev *ast.EventDecl, args []ast.Expr, base ast.Expr) ([]ast.Stmt, ast.Expr) {
	var topics []ast.Expr
	if !ev.Anonymous {
		abiParams := make([]abi.Param, len(ev.Params))
		for i, p := range ev.Params {
			abiParams[i] = abi.Param{Type: abi.CanonicalType(p.Type)}
		}
		topic0 := abi.Topic0(ev.Name, abiParams)
		topics = append(topics, &ast.Literal{Subtype: ast.LitHexNumber, Value: "0x" + fmt.Sprintf("%x", topic0)})
	}
	var nonIndexed []ast.Expr
	var nonIndexedTypes []ast.ABIType
	for i, p := range ev.Params {
		if p.Indexed {
			topics = append(topics, args[i])
		} else {
			nonIndexed = append(nonIndexed, args[i])
			nonIndexedTypes = append(nonIndexedTypes, p.Type)
		}
	}
	if len(topics) > 4 {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, ev, "event %q has too many indexed parameters for 4 log topics", ev.Name)
		topics = topics[:4]
	}

	var stmts []ast.Stmt
	var size ast.Expr
	if ev.Packed {
		stmts, size = packedEncode(base, nonIndexed, nonIndexedTypes)
	} else {
		stmts, size = wordEncode(base, nonIndexed)
	}

	logCall := call(fmt.Sprintf("log%d", len(topics)), append([]ast.Expr{base, size}, topics...)...)
	stmts = append(stmts, exprStmt(logCall))
	return stmts, size
}

// wordEncode lays out args as consecutive full 32-byte words (the default,
// non-packed event layout); each word is independent so forward order is
// safe.
func wordEncode(base ast.Expr, args []ast.Expr) ([]ast.Stmt, ast.Expr) {
	var stmts []ast.Stmt
	for i, a := range args {
		stmts = append(stmts, exprStmt(call("mstore", call("add", base, shiftLit(i*32)), a)))
	}
	return stmts, shiftLit(32 * len(args))
}

// packedEncode lays out args tightly, byte-width per member (spec's "packed
// layout omits the 32-byte padding"). Each mstore necessarily writes a full
// word, so a field's write zero-fills the higher-address bytes of the fields
// after it; emitting the writes from the first field to the last ensures
// every field's authoritative write happens after any spillover that would
// otherwise clobber it.
func packedEncode(base ast.Expr, args []ast.Expr, types []ast.ABIType) ([]ast.Stmt, ast.Expr) {
	byteWidths := make([]int, len(types))
	offsets := make([]int, len(types))
	total := 0
	for i, t := range types {
		w := (memberBitWidth(t) + 7) / 8
		byteWidths[i] = w
		offsets[i] = total
		total += w
	}
	stmts := make([]ast.Stmt, 0, len(args))
	for i := range args {
		w := byteWidths[i]
		shift := 8 * (32 - w)
		dst := call("add", base, shiftLit(offsets[i]))
		val := call("shl", shiftLit(shift), args[i])
		stmts = append(stmts, exprStmt(call("mstore", dst, val)))
	}
	return stmts, shiftLit(total)
}

// lowerThrow lowers `throw Name(args...)` (spec §4.4 "Throw"). The three
// well-known names short-circuit straight to their fixed helper family;
// every other name resolves against the enclosing scope's error table and
// materializes a `__throw_<Name>_<depth>` encoder.
func (tr *Transformer) lowerThrow(n *ast.Throw, sc *scope.Scope) []ast.Stmt {
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = tr.foldExpr(tr.lowerExpr(a, sc), sc)
	}
	switch n.Name {
	case "Error":
		return tr.lowerThrowError(n, args, sc)
	case "ErrorCode":
		tr.ensureRevertIntHelper(sc)
		sc.DependsOn("__revert_int")
		return []ast.Stmt{exprStmt(call("__revert_int", args...))}
	case "Panic":
		tr.ensurePanicHelper(sc)
		sc.DependsOn("__panic")
		return []ast.Stmt{exprStmt(call("__panic", args...))}
	default:
		return tr.lowerThrowCustom(n, args, sc)
	}
}

// lowerThrowError picks __revert32/64/_data by the literal message length,
// falling back to the general-purpose __revert_data helper when the
// message isn't a compile-time literal.
func (tr *Transformer) lowerThrowError(n *ast.Throw, args []ast.Expr, sc *scope.Scope) []ast.Stmt {
	if len(args) != 1 {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, n, "throw Error(...) takes exactly one message argument")
		return nil
	}
	return tr.revertWithMessage(args[0], sc)
}

// revertWithMessage picks the narrowest Error(string)-selector revert
// helper that fits a literal message (a single word up to 32 bytes, two
// words up to 64, else the generic single-dynamic-word form used for
// anything that isn't a compile-time-sized string literal).
func (tr *Transformer) revertWithMessage(msg ast.Expr, sc *scope.Scope) []ast.Stmt {
	if lit, ok := msg.(*ast.Literal); ok && lit.Subtype == ast.LitString {
		msgLen := len(lit.Value)
		switch {
		case msgLen <= 32:
			tr.ensureRevertFixedHelper(sc, 32)
			sc.DependsOn("__revert32")
			return []ast.Stmt{exprStmt(call("__revert32", msg, shiftLit(msgLen)))}
		case msgLen <= 64:
			tr.ensureRevertFixedHelper(sc, 64)
			sc.DependsOn("__revert64")
			return []ast.Stmt{exprStmt(call("__revert64", msg, shiftLit(msgLen)))}
		}
	}
	tr.ensureRevertDataHelper(sc)
	sc.DependsOn("__revert_data")
	return []ast.Stmt{exprStmt(call("__revert_data", msg))}
}

func (tr *Transformer) lowerThrowCustom(n *ast.Throw, args []ast.Expr, sc *scope.Scope) []ast.Stmt {
	errDecl, ok := sc.LookupError(n.Name)
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, n, "undefined error %q", n.Name)
		return nil
	}
	if len(args) != len(errDecl.Params) {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, n, "error %q expects %d arguments, got %d", n.Name, len(errDecl.Params), len(args))
	}
	name := fmt.Sprintf("__throw_%s_%d", n.Name, tr.depth)
	tr.ensureThrowHelper(name, errDecl)
	sc.DependsOn(name)
	return []ast.Stmt{exprStmt(call(name, args...))}
}

func (tr *Transformer) ensureThrowHelper(name string, errDecl *ast.ErrorDecl) {
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		abiParams := make([]abi.Param, len(errDecl.Params))
		for i, p := range errDecl.Params {
			abiParams[i] = abi.Param{Type: abi.CanonicalType(p.Type)}
		}
		sel := abi.Selector(errDecl.Name, abiParams)
		params := make([]ast.TypedIdent, len(errDecl.Params))
		body := &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("mstore", shiftLit(0), call("shl", shiftLit(224), hexLit(sel)))),
		}}
		for i := range errDecl.Params {
			pname := fmt.Sprintf("arg%d", i)
			params[i] = ast.TypedIdent{Name: pname}
			body.Statements = append(body.Statements,
				exprStmt(call("mstore", shiftLit(4+i*32), ident(pname))))
		}
		size := 4 + 32*len(errDecl.Params)
		body.Statements = append(body.Statements, exprStmt(call("revert", shiftLit(0), shiftLit(size))))
		return &ast.FunctionDef{Name: name, Params: params, NoInline: true, Body: body}
	})
}

func (tr *Transformer) ensureRevertFixedHelper(sc *scope.Scope, width int) {
	name := fmt.Sprintf("__revert%d", width)
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("mstore", shiftLit(0), call("shl", shiftLit(224), hexLit(errorStringSelector())))),
			exprStmt(call("mstore", shiftLit(4), shiftLit(32))),
			exprStmt(call("mstore", shiftLit(36), ident("len"))),
			exprStmt(call("mstore", shiftLit(68), ident("msg"))),
			exprStmt(call("revert", shiftLit(0), shiftLit(68+width))),
		}}
		return &ast.FunctionDef{Name: name,
			Params: []ast.TypedIdent{{Name: "msg"}, {Name: "len"}}, NoInline: true, Body: body}
	})
}

func (tr *Transformer) ensureRevertDataHelper(sc *scope.Scope) {
	tr.registerHelperOnce("__revert_data", func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("mstore", shiftLit(0), call("shl", shiftLit(224), hexLit(errorStringSelector())))),
			exprStmt(call("mstore", shiftLit(4), shiftLit(32))),
			exprStmt(call("mstore", shiftLit(36), ident("msg"))),
			exprStmt(call("revert", shiftLit(0), shiftLit(68))),
		}}
		return &ast.FunctionDef{Name: "__revert_data",
			Params: []ast.TypedIdent{{Name: "msg"}}, NoInline: true, Body: body}
	})
}

func (tr *Transformer) ensureRevertIntHelper(sc *scope.Scope) {
	tr.registerHelperOnce("__revert_int", func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("mstore", shiftLit(0), call("shl", shiftLit(224), hexLit(errorCodeSelector())))),
			exprStmt(call("mstore", shiftLit(4), ident("code"))),
			exprStmt(call("revert", shiftLit(0), shiftLit(36))),
		}}
		return &ast.FunctionDef{Name: "__revert_int",
			Params: []ast.TypedIdent{{Name: "code"}}, NoInline: true, Body: body}
	})
}

func (tr *Transformer) ensurePanicHelper(sc *scope.Scope) {
	tr.registerHelperOnce("__panic", func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("mstore", shiftLit(0), call("shl", shiftLit(224), hexLit(panicSelector())))),
			exprStmt(call("mstore", shiftLit(4), ident("code"))),
			exprStmt(call("revert", shiftLit(0), shiftLit(36))),
		}}
		return &ast.FunctionDef{Name: "__panic",
			Params: []ast.TypedIdent{{Name: "code"}}, NoInline: true, Body: body}
	})
}

// The three well-known selectors are fixed by spec §7: Error(string),
// ErrorCode(uint32), Panic(uint256).
func errorStringSelector() [4]byte { return [4]byte{0x08, 0xc3, 0x79, 0xa0} }
func errorCodeSelector() [4]byte   { return [4]byte{0xd7, 0xda, 0xd4, 0x25} }
func panicSelector() [4]byte       { return [4]byte{0x4e, 0x48, 0x7b, 0x71} }
