package transform

import (
	"fmt"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// lowerInterface registers an interface declaration. Its thunks
// (__icreate_<I>, __icreate2_<I>, __icall_<I>_<M>, __itrycall_<I>_<M>) are
// synthesized lazily, only when an InterfaceCall expression actually uses
// them, via ensure*Thunk below and materialized through the same
// dependency machinery as built-in helpers (spec §4.4 "Interface calls").
func (tr *Transformer) lowerInterface(n *ast.Interface, sc *scope.Scope) {
	if tr.interfaceDecl == nil {
		tr.interfaceDecl = map[string]*ast.Interface{}
	}
	if err := sc.AddInterface(n); err != nil {
		tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
		return
	}
	tr.interfaceDecl[n.Name] = n
}

func ident(name string) ast.Expr { return &ast.Identifier{Value: name} }

func letDecl(name string, init ast.Expr) ast.Stmt {
	return &ast.VariableDeclaration{Names: []ast.TypedIdent{{Name: name}}, Init: init}
}

// exprStmt turns a FunctionCall built via call(...) into a statement; Yul
// allows a bare call in statement position when it has no return value.
func exprStmt(e ast.Expr) ast.Stmt { return e.(*ast.FunctionCall) }

// headEncode lays out params head-only (fixed-size words) starting at
// memory offset `base` plus baseOffset, returning the mstore statements
// (32 bytes per param; callers add the size themselves). Dynamic types are
// not supported by this encoder;
// a struct-typed parameter should be passed pre-packed as a single word.
func headEncode(params []ast.MethodParam, argNames []string, base ast.Expr, baseOffset int) []ast.Stmt {
	var stmts []ast.Stmt
	for i := range params {
		off := call("add", base, shiftLit(baseOffset+i*32))
		stmts = append(stmts, exprStmt(call("mstore", off, ident(argNames[i]))))
	}
	return stmts
}

func (tr *Transformer) ensureCreateThunk(ifaceName string, salted bool, sc *scope.Scope) string {
	name := "__icreate_" + ifaceName
	if salted {
		name = "__icreate2_" + ifaceName
	}
	if tr.helperPool == nil {
		tr.helperPool = map[string]*ast.FunctionDef{}
	}
	if _, ok := tr.helperPool[name]; ok {
		sc.DependsOn(name)
		return name
	}
	iface := tr.interfaceDecl[ifaceName]
	var ctorParams []ast.MethodParam
	if iface != nil && iface.Constructor != nil {
		ctorParams = iface.Constructor.Params
	}
	argNames := make([]string, len(ctorParams))
	params := []ast.TypedIdent{{Name: "initcodeOffset"}, {Name: "initcodeSize"}, {Name: "value"}}
	for i := range ctorParams {
		argNames[i] = fmt.Sprintf("arg%d", i)
		params = append(params, ast.TypedIdent{Name: argNames[i]})
	}
	if salted {
		params = append(params, ast.TypedIdent{Name: "salt"})
	}

	body := &ast.Block{}
	body.Statements = append(body.Statements,
		letDecl("size", ident("initcodeSize")),
		letDecl("ptr", call("mload", shiftLit(0x40))),
		exprStmt(call("mcopy", ident("ptr"), ident("initcodeOffset"), ident("size"))),
	)
	body.Statements = append(body.Statements, headEncode(ctorParams, argNames, ident("ptr"), 0)...)
	for range ctorParams {
		body.Statements = append(body.Statements, &ast.Assignment{LHS: []string{"size"}, RHS: call("add", ident("size"), shiftLit(32))})
	}
	var createCall ast.Expr
	if salted {
		createCall = call("create2", ident("value"), ident("ptr"), ident("size"), ident("salt"))
	} else {
		createCall = call("create", ident("value"), ident("ptr"), ident("size"))
	}
	body.Statements = append(body.Statements, &ast.Assignment{LHS: []string{"addr"}, RHS: createCall})

	fn := &ast.FunctionDef{Name: name, Params: params, Returns: []ast.TypedIdent{{Name: "addr"}}, NoInline: true, Body: body}
	fn.Body.Statements = append([]ast.Stmt{letDecl("addr", &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"})}, fn.Body.Statements...)
	tr.helperPool[name] = fn
	sc.DependsOn(name)
	return name
}

func (tr *Transformer) ensureCallThunk(ifaceName, method string, attempt bool, sc *scope.Scope) string {
	prefix := "__icall_"
	if attempt {
		prefix = "__itrycall_"
	}
	name := prefix + ifaceName + "_" + method
	if tr.helperPool == nil {
		tr.helperPool = map[string]*ast.FunctionDef{}
	}
	if _, ok := tr.helperPool[name]; ok {
		sc.DependsOn(name)
		return name
	}
	iface := tr.interfaceDecl[ifaceName]
	var m *ast.MethodDecl
	if iface != nil {
		for _, cand := range iface.Methods {
			if cand.Name == method {
				m = cand
				break
			}
		}
	}
	var params []ast.MethodParam
	var outs []ast.MethodParam
	if m != nil {
		params = m.Params
		outs = m.Returns
	}

	argNames := make([]string, len(params))
	fnParams := []ast.TypedIdent{{Name: "target"}, {Name: "value"}}
	for i := range params {
		argNames[i] = fmt.Sprintf("arg%d", i)
		fnParams = append(fnParams, ast.TypedIdent{Name: argNames[i]})
	}

	body := &ast.Block{}
	body.Statements = append(body.Statements,
		letDecl("ptr", call("mload", shiftLit(0x40))),
		exprStmt(call("mstore", ident("ptr"), shiftLit(0))),
	)
	abiIn := make([]abi.Param, len(params))
	for i, p := range params {
		abiIn[i] = abi.Param{Type: abi.CanonicalType(p.Type)}
	}
	sel := abi.Selector(method, abiIn)
	selLit := &ast.Literal{Subtype: ast.LitHexNumber, Value: fmt.Sprintf("0x%x", sel)}
	body.Statements = append(body.Statements, exprStmt(call("mstore", ident("ptr"),
		call("shl", shiftLit(224), selLit))))
	body.Statements = append(body.Statements, headEncode(params, argNames, ident("ptr"), 4)...)
	size := 4 + 32*len(params)

	// The attempt (trycall) form returns (success, result) for the caller
	// to branch on; the plain call form reverts on failure internally and
	// returns only the decoded result (or nothing), so it can be used
	// directly as a single-value expression.
	var returns []ast.TypedIdent
	if attempt {
		returns = append(returns, ast.TypedIdent{Name: "success"})
	} else {
		body.Statements = append(body.Statements, letDecl("success", &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}))
	}
	if len(outs) > 0 {
		returns = append(returns, ast.TypedIdent{Name: "result"})
	}

	// view/pure interface methods invoke staticcall, never call (spec §4.4
	// "Interface": "invoke call/staticcall (view/pure use staticcall)") —
	// staticcall has no value slot, so `value` goes unused on that path.
	isView := m != nil && (m.Mutability == ast.MutView || m.Mutability == ast.MutPure)
	var callExpr ast.Expr
	if isView {
		callExpr = call("staticcall", call("gas"), ident("target"),
			ident("ptr"), shiftLit(size), ident("ptr"), shiftLit(32))
	} else {
		callExpr = call("call", call("gas"), ident("target"), ident("value"),
			ident("ptr"), shiftLit(size), ident("ptr"), shiftLit(32))
	}
	body.Statements = append(body.Statements, &ast.Assignment{LHS: []string{"success"}, RHS: callExpr})
	if len(outs) > 0 {
		// A successful call that returns fewer than 32 bytes must not decode
		// `result` off of stale/uninitialized memory at ptr (spec §4.4
		// "Interface": "verify returndata size").
		body.Statements = append(body.Statements, &ast.If{
			Cond: call("and", ident("success"), call("gt", call("returndatasize"), shiftLit(31))),
			Body: &ast.Block{Statements: []ast.Stmt{
				&ast.Assignment{LHS: []string{"result"}, RHS: call("mload", ident("ptr"))},
			}},
		})
	}
	if !attempt {
		body.Statements = append(body.Statements, &ast.If{
			Cond: call("iszero", ident("success")),
			Body: &ast.Block{Statements: []ast.Stmt{
				exprStmt(call("returndatacopy", shiftLit(0), shiftLit(0), call("returndatasize"))),
				exprStmt(call("revert", shiftLit(0), call("returndatasize"))),
			}},
		})
	}
	fn := &ast.FunctionDef{Name: name, Params: fnParams, Returns: returns, NoInline: true, Body: body}
	tr.helperPool[name] = fn
	sc.DependsOn(name)
	return name
}
