package transform

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/digest"
	"github.com/tos-network/toyul/evmversion"
	"github.com/tos-network/toyul/scope"
)

// lowerIntrinsic recognizes one of the spec's §4.4 "Built-in intrinsics"
// names and rewrites it into plain Yul. ok is false when name is not a
// recognized intrinsic, telling the caller to fall back to generic
// FunctionCall lowering (user function or a real Yul opcode).
func (tr *Transformer) lowerIntrinsic(fc *ast.FunctionCall, args []ast.Expr, sc *scope.Scope) (ast.Expr, bool) {
	switch fc.Name {
	case "sizeof":
		return tr.lowerSizeof(fc, sc), true
	case "bitsof":
		return tr.lowerBitsof(fc), true
	case "offsetof":
		return tr.lowerOffsetof(fc, sc), true
	case "bool":
		return call("iszero", call("iszero", args[0])), true
	case "notl":
		return call("iszero", call("iszero", call("iszero", args[0]))), true
	case "andl":
		return call("and", call("iszero", call("iszero", args[0])), call("iszero", call("iszero", args[1]))), true
	case "orl":
		return call("iszero", call("iszero", call("or", args[0], args[1]))), true
	case "defined":
		return tr.lowerDefined(fc, sc), true
	case "undefined":
		return call("iszero", tr.lowerDefined(fc, sc)), true
	case "undefine":
		if len(fc.Args) == 1 {
			if name := literalStringArg(fc.Args[0]); name != "" {
				sc.DeleteConst(name)
			}
		}
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, true
	case "ecrecover":
		return call(tr.ensureEcrecoverHelper(sc), args...), true
	case "ecverify":
		return call(tr.ensureEcverifyHelper(sc), args...), true
	case "eth.send":
		return call("call", call("gas"), args[0], args[1], shiftLit(0), shiftLit(0), shiftLit(0), shiftLit(0)), true
	case "eth.transfer":
		tr.ensureEthTransferHelper(sc)
		sc.DependsOn("__eth_transfer")
		return call("__eth_transfer", args...), true
	case "datareference":
		return call("dataoffset", strLit(literalStringArg(args[0]))), true
	case "construct":
		return args[0], true
	case "debug":
		return tr.lowerDebug(fc, args, sc), true
	case "mcopy":
		if evmversion.HasMcopy(tr.hardfork) {
			return call("mcopy", args...), true
		}
		tr.ensureMcopyEmulated(sc)
		sc.DependsOn("__mcopy_emulated")
		return call("__mcopy_emulated", args...), true
	case "log2":
		return call("log2", args...), true
	case "revert.static":
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "revert.static reached: this code path must never be lowered")
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, true
	case "assert.static":
		return tr.lowerAssertStatic(fc, args), true
	case "method.check":
		return tr.lowerMethodCheck(), true
	case "method.call":
		return tr.lowerMethodCall(fc, sc), true
	case "method.size", "returns.size", "event.size", "error.size", "create.size", "create2.size":
		return tr.lowerSizeFamily(fc.Name, fc, sc), true
	case "assert":
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "assert(...) is a statement, not an expression")
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, true
	default:
		if strings.HasPrefix(fc.Name, "require.") {
			tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "%s(...) is a statement, not an expression", fc.Name)
			return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}, true
		}
		if _, ok := digest.ByName(fc.Name, nil); ok {
			return tr.lowerLiteralHash(fc, args), true
		}
		return nil, false
	}
}

func literalStringArg(e ast.Expr) string {
	if lit, ok := e.(*ast.Literal); ok {
		return lit.Value
	}
	return ""
}

func bytesFromHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

// lowerLiteralHash implements the spec's compile-time hash folding rule: a
// hash builtin whose sole argument is a literal is evaluated at transform
// time instead of emitted as a runtime keccak256/sha256/... call, which
// would need a memory region rather than a bare value.
func (tr *Transformer) lowerLiteralHash(fc *ast.FunctionCall, args []ast.Expr) ast.Expr {
	fallback := &ast.FunctionCall{Base: fc.Base, Name: fc.Name, Args: args}
	if len(args) != 1 {
		return fallback
	}
	lit, ok := args[0].(*ast.Literal)
	if !ok {
		return fallback
	}
	var data []byte
	switch lit.Subtype {
	case ast.LitString:
		data = []byte(lit.Value)
	case ast.LitHex:
		b, err := bytesFromHex(lit.Value)
		if err != nil {
			return fallback
		}
		data = b
	default:
		return fallback
	}
	sum, _ := digest.ByName(fc.Name, data)
	return &ast.Literal{Subtype: ast.LitHexNumber, Value: "0x" + hexEncode(sum)}
}

// lowerSizeof resolves a type-name or struct-name argument to its packed
// byte size. Structs pack into one 256-bit word regardless of member
// count, so a struct's sizeof is always 32.
func (tr *Transformer) lowerSizeof(fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	name := literalStringArg(fc.Args[0])
	if _, ok := tr.structLayouts[name]; ok {
		return shiftLit(32)
	}
	if _, ok := sc.LookupStruct(name); ok {
		return shiftLit(32)
	}
	return shiftLit(memberBitWidth(abiTypeFromName(name)) / 8)
}

func (tr *Transformer) lowerBitsof(fc *ast.FunctionCall) ast.Expr {
	t := abiTypeFromName(literalStringArg(fc.Args[0]))
	return shiftLit(memberBitWidth(t))
}

func (tr *Transformer) lowerOffsetof(fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	if len(fc.Args) != 2 {
		return shiftLit(0)
	}
	structName := literalStringArg(fc.Args[0])
	member := literalStringArg(fc.Args[1])
	layout, ok := tr.structLayouts[structName]
	if !ok {
		if def, found := sc.LookupStruct(structName); found {
			layout = tr.layoutStruct(def, sc)
		}
	}
	if layout == nil {
		return shiftLit(0)
	}
	if ml, found := layout.find(member); found {
		return shiftLit((256 - ml.Shift - ml.Width) / 8)
	}
	return shiftLit(0)
}

// lowerDefined implements `defined(name)` (spec §4.4 "defined/undefined/
// undefine ... also aware of DEBUG, NDEBUG, EVM_VERSION"): true for a bound
// `const`/enum/macro name, and unconditionally true for the three ambient
// names regardless of any user declaration.
func (tr *Transformer) lowerDefined(fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	name := literalStringArg(fc.Args[0])
	_, isConst := sc.LookupConst(name)
	isAmbient := ambientIdentLit(name, tr.hardfork, tr.opts.Debug) != nil
	if isConst || isAmbient {
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}
	}
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
}

// debugSig is the fixed log1 topic tagging debug-only trace output, so a
// downstream indexer can filter it out of an ABI's real event stream.
var debugSig = digest.Keccak256([]byte("DEBUG"))

// lowerDebug is a no-op outside a debug build; inside one it materializes a
// `__debug_<argc>` helper (one per distinct arity actually used) that
// mstores every argument into a scratch word and emits it as a log1 tagged
// with debugSig (spec §4.4 "debug"). debug() is meant for statement
// position only, matching how the rest of the dialect's void builtins
// (eth.transfer, mcopy) are used.
func (tr *Transformer) lowerDebug(fc *ast.FunctionCall, args []ast.Expr, sc *scope.Scope) ast.Expr {
	if !tr.opts.Debug || len(args) == 0 {
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	name := fmt.Sprintf("__debug_%d", len(args))
	tr.ensureDebugHelper(name, len(args))
	sc.DependsOn(name)
	return &ast.FunctionCall{Base: fc.Base, Name: name, Args: args}
}

func (tr *Transformer) ensureDebugHelper(name string, argc int) {
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		params := make([]ast.TypedIdent, argc)
		body := &ast.Block{Statements: []ast.Stmt{
			letDecl("__ptr", call("mload", shiftLit(0x40))),
		}}
		for i := 0; i < argc; i++ {
			pname := fmt.Sprintf("arg%d", i)
			params[i] = ast.TypedIdent{Name: pname}
			body.Statements = append(body.Statements,
				exprStmt(call("mstore", call("add", ident("__ptr"), shiftLit(i*32)), ident(pname))))
		}
		body.Statements = append(body.Statements, exprStmt(call("log1", ident("__ptr"), shiftLit(32*argc),
			&ast.Literal{Subtype: ast.LitHexNumber, Value: "0x" + hexEncode(debugSig)})))
		return &ast.FunctionDef{Name: name, Params: params, NoInline: true, Body: body}
	})
}

// lowerAssertStmt implements `assert(cond)` (spec §4.4): a debug-only
// runtime check that a release build drops entirely rather than leaving a
// no-op condition evaluation behind.
func (tr *Transformer) lowerAssertStmt(fc *ast.FunctionCall, args []ast.Expr) []ast.Stmt {
	if !tr.opts.Debug || len(args) == 0 {
		return nil
	}
	return []ast.Stmt{&ast.If{Base: fc.Base, Cond: call("iszero", args[0]), Body: &ast.Block{
		Statements: []ast.Stmt{exprStmt(call("invalid"))},
	}}}
}

// lowerAssertStatic implements `assert.static(cond)` (spec §4.4): evaluated
// entirely at transform time against a folded literal operand, never
// emitted as runtime code. A non-literal operand or a false condition is
// reported as a static diagnostic.
func (tr *Transformer) lowerAssertStatic(fc *ast.FunctionCall, args []ast.Expr) ast.Expr {
	zero := &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	if len(args) == 0 {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "assert.static requires one argument")
		return zero
	}
	lit, ok := args[0].(*ast.Literal)
	if !ok {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "assert.static argument must fold to a compile-time constant")
		return zero
	}
	v, err := literalToBig(lit)
	if err != nil || v == nil || v.Sign() == 0 {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, fc, "assert.static failed")
	}
	return zero
}

func abiTypeFromName(name string) ast.ABIType {
	switch name {
	case "address":
		return ast.ABIType{Base: ast.ABIAddress}
	case "bool":
		return ast.ABIType{Base: ast.ABIBool}
	default:
		return ast.ABIType{Base: ast.ABIUint, Width: 256}
	}
}

func (tr *Transformer) ensureEcrecoverHelper(sc *scope.Scope) string {
	name := "__ecrecover"
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			letDecl("addr", &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}),
			letDecl("ptr", call("mload", shiftLit(0x40))),
			exprStmt(call("mstore", ident("ptr"), ident("hash"))),
			exprStmt(call("mstore", call("add", ident("ptr"), shiftLit(32)), ident("v"))),
			exprStmt(call("mstore", call("add", ident("ptr"), shiftLit(64)), ident("r"))),
			exprStmt(call("mstore", call("add", ident("ptr"), shiftLit(96)), ident("s"))),
			letDecl("ok", call("staticcall", call("gas"), shiftLit(1), ident("ptr"), shiftLit(128), ident("ptr"), shiftLit(32))),
			&ast.If{Cond: ident("ok"), Body: &ast.Block{Statements: []ast.Stmt{
				&ast.Assignment{LHS: []string{"addr"}, RHS: call("mload", ident("ptr"))},
			}}},
		}}
		return &ast.FunctionDef{Name: name,
			Params:  []ast.TypedIdent{{Name: "hash"}, {Name: "v"}, {Name: "r"}, {Name: "s"}},
			Returns: []ast.TypedIdent{{Name: "addr"}}, NoInline: true, Body: body}
	})
	sc.DependsOn(name)
	return name
}

func (tr *Transformer) ensureEcverifyHelper(sc *scope.Scope) string {
	rec := tr.ensureEcrecoverHelper(sc)
	name := "__ecverify"
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			letDecl("ok", &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}),
			letDecl("recovered", call(rec, ident("hash"), ident("v"), ident("r"), ident("s"))),
			&ast.Assignment{LHS: []string{"ok"}, RHS: call("eq", ident("recovered"), ident("expected"))},
		}}
		return &ast.FunctionDef{Name: name,
			Params:  []ast.TypedIdent{{Name: "hash"}, {Name: "v"}, {Name: "r"}, {Name: "s"}, {Name: "expected"}},
			Returns: []ast.TypedIdent{{Name: "ok"}}, NoInline: true, Body: body}
	})
	sc.DependsOn(name)
	return name
}

func (tr *Transformer) ensureEthTransferHelper(sc *scope.Scope) {
	tr.registerHelperOnce("__eth_transfer", func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			letDecl("ok", call("call", call("gas"), ident("to"), ident("amount"), shiftLit(0), shiftLit(0), shiftLit(0), shiftLit(0))),
			&ast.If{Cond: call("iszero", ident("ok")), Body: &ast.Block{
				Statements: []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))},
			}},
		}}
		return &ast.FunctionDef{Name: "__eth_transfer",
			Params: []ast.TypedIdent{{Name: "to"}, {Name: "amount"}}, NoInline: true, Body: body}
	})
}

func (tr *Transformer) ensureMcopyEmulated(sc *scope.Scope) {
	tr.registerHelperOnce("__mcopy_emulated", func() *ast.FunctionDef {
		body := &ast.Block{Statements: []ast.Stmt{
			&ast.ForLoop{
				Init: &ast.Block{Statements: []ast.Stmt{letDecl("i", &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"})}},
				Cond: call("lt", ident("i"), ident("length")),
				Post: &ast.Block{Statements: []ast.Stmt{&ast.Assignment{LHS: []string{"i"}, RHS: call("add", ident("i"), shiftLit(32))}}},
				Body: &ast.Block{Statements: []ast.Stmt{
					exprStmt(call("mstore", call("add", ident("dst"), ident("i")), call("mload", call("add", ident("src"), ident("i"))))),
				}},
			},
		}}
		return &ast.FunctionDef{Name: "__mcopy_emulated",
			Params: []ast.TypedIdent{{Name: "dst"}, {Name: "src"}, {Name: "length"}}, NoInline: true, Body: body}
	})
}

// registerMutexSlotHelper registers (idempotently) the non-inlinable
// zero-argument function returning the `lock` pragma's fixed storage-slot
// key (spec §4.4 "Pragma"), or 0x0 when a `locked` method is used without a
// preceding `lock` pragma. Called eagerly from the pragma handler and again,
// harmlessly, from ensureMutexHelpers for contracts with no lock pragma at
// all.
func (tr *Transformer) registerMutexSlotHelper() string {
	name := "__mutex_slot"
	slot := tr.mutexSlot
	if slot == "" {
		slot = "0x0"
	}
	tr.registerHelperOnce(name, func() *ast.FunctionDef {
		return &ast.FunctionDef{Name: name, NoInline: true,
			Returns: []ast.TypedIdent{{Name: "slot"}},
			Body: &ast.Block{Statements: []ast.Stmt{
				&ast.Assignment{LHS: []string{"slot"}, RHS: &ast.Literal{Subtype: ast.LitHexNumber, Value: slot}},
			}}}
	})
	return name
}

// ensureMutexHelpers registers the named mutex.lock/mutex.unlock helper
// functions a `locked` method's dispatch case wraps its call in (spec
// property 7: `mutex.lock(); __method_<name>(); mutex.unlock();`).
// mutex.lock reverts if the guard slot is already held, then sets it;
// mutex.unlock clears it. Both read the slot through __mutex_slot rather
// than an inlined literal, so every call site shares the one key.
func (tr *Transformer) ensureMutexHelpers(sc *scope.Scope) (lockName, unlockName string) {
	slotFn := tr.registerMutexSlotHelper()
	sc.DependsOn(slotFn)

	lockName = "mutex.lock"
	tr.registerHelperOnce(lockName, func() *ast.FunctionDef {
		return &ast.FunctionDef{Name: lockName, NoInline: true, Body: &ast.Block{Statements: []ast.Stmt{
			&ast.If{Cond: call("sload", call(slotFn)), Body: &ast.Block{
				Statements: []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))},
			}},
			exprStmt(call("sstore", call(slotFn), shiftLit(1))),
		}}}
	})
	sc.DependsOn(lockName)

	unlockName = "mutex.unlock"
	tr.registerHelperOnce(unlockName, func() *ast.FunctionDef {
		return &ast.FunctionDef{Name: unlockName, NoInline: true, Body: &ast.Block{Statements: []ast.Stmt{
			exprStmt(call("sstore", call(slotFn), shiftLit(0))),
		}}}
	})
	sc.DependsOn(unlockName)
	return lockName, unlockName
}

func (tr *Transformer) registerHelperOnce(name string, build func() *ast.FunctionDef) {
	if tr.helperPool == nil {
		tr.helperPool = map[string]*ast.FunctionDef{}
	}
	if _, ok := tr.helperPool[name]; ok {
		return
	}
	tr.helperPool[name] = build()
}
