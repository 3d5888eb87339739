package transform

import (
	"fmt"

	"github.com/tos-network/toyul/abi"
	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/codesize"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

func strLit(s string) ast.Expr { return &ast.Literal{Subtype: ast.LitString, Value: s} }

func hexLit(b [4]byte) ast.Expr {
	return &ast.Literal{Subtype: ast.LitHexNumber, Value: fmt.Sprintf("0x%x", b)}
}

func paramsToAbi(params []ast.MethodParam) []abi.Param {
	out := make([]abi.Param, len(params))
	for i, p := range params {
		out[i] = abi.Param{Name: p.Name, Type: abi.CanonicalType(p.Type)}
	}
	return out
}

// lowerContract desugars a Contract into its ObjectBlock pair (spec §4.4
// "Contract"): an outer creation object running the constructor and
// returning the runtime object's code, nesting a runtime object whose code
// block is the selector dispatcher plus every lowered method body.
func (tr *Transformer) lowerContract(n *ast.Contract, sc *scope.Scope) []ast.TopLevel {
	runtimeName := n.Name + "Runtime"
	if n.Optimize {
		runtimeName = n.Name + "Runtime_deployed"
	}

	collector := abi.NewCollector(n.Name)
	prevCollector, prevContract := tr.currentCollector, tr.currentContract
	tr.currentCollector, tr.currentContract = collector, n.Name
	defer func() { tr.currentCollector, tr.currentContract = prevCollector, prevContract }()

	contractScope := sc.Push(scope.KindBlock)
	for _, sdef := range n.Structs {
		if err := tr.registerStructDef(contractScope, sdef); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, sdef, "%v", err)
		}
	}
	for _, ev := range n.Events {
		contractScope.AddEvent(ev)
		if err := collector.Add(abi.ItemFromEvent(ev)); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, ev, "%v", err)
		}
	}
	for _, errd := range n.Errors {
		contractScope.AddError(errd)
		if err := collector.Add(abi.ItemFromError(errd)); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, errd, "%v", err)
		}
	}
	for _, m := range n.Methods {
		contractScope.AddMethod(m)
		if m.Visibility == ast.VisExternal || m.Visibility == ast.VisPublic {
			if err := collector.Add(abi.ItemFromMethod(m)); err != nil {
				tr.errorf(diag.KindResolution, diag.CodeResolutionDup, m, "%v", err)
			}
		}
	}
	if n.Constructor != nil {
		collector.Add(abi.ItemFromConstructor(n.Constructor))
	}

	creationScope := contractScope.Push(scope.KindObject)
	runtimeScope := creationScope.Push(scope.KindObject)

	runtimeCode := tr.buildDispatcher(n, runtimeScope)
	runtimeObj := &ast.ObjectBlock{Name: runtimeName, Body: []ast.Stmt{runtimeCode}}
	flushObjectData(runtimeObj, runtimeScope)

	ctorCode := tr.buildConstructor(n, creationScope, runtimeName)
	creationObj := &ast.ObjectBlock{Base: n.Base, Name: n.Name, Body: []ast.Stmt{ctorCode, runtimeObj}}
	flushObjectData(creationObj, creationScope)

	tr.collectors[n.Name] = collector
	return []ast.TopLevel{creationObj}
}

func flushObjectData(obj *ast.ObjectBlock, objScope *scope.Scope) {
	for _, d := range objScope.Data {
		obj.Body = append(obj.Body, &ast.DataValue{Name: d.Name, Value: d.Value, IsHex: d.IsHex})
	}
}

func (tr *Transformer) buildDispatcher(n *ast.Contract, runtimeScope *scope.Scope) *ast.CodeBlock {
	codeScope := runtimeScope.Push(scope.KindCode)
	block := &ast.Block{}

	var cases []ast.Case
	var receive, fallback *ast.MethodDecl
	var externalMethods []*ast.MethodDecl
	for _, m := range n.Methods {
		switch m.Name {
		case "receive":
			receive = m
			continue
		case "fallback":
			fallback = m
			continue
		}
		if m.Visibility == ast.VisExternal || m.Visibility == ast.VisPublic {
			externalMethods = append(externalMethods, m)
		}
	}

	// Every external method is materialised as its own `__method_<name>`
	// function (rather than inlined straight into the dispatch case) so the
	// `method.call(name)` intrinsic can reference it (spec §4.4
	// "method.call"). The reentrancy guard itself is not part of that
	// function: a `locked` method's dispatch case wraps the call in the
	// named mutex.lock/mutex.unlock helpers (spec property 7), and
	// method.call resolves to an equivalent wrapper for locked targets
	// (lowerMethodCall), so the guard runs no matter which call site is
	// used, without being duplicated into every __method_<name> body.
	for _, m := range externalMethods {
		methodScope := codeScope.Push(scope.KindMethod)
		methodScope.Calldata = m
		body := tr.buildMethodBody(m, methodScope)
		fnName := "__method_" + m.Name
		fn := &ast.FunctionDef{Name: fnName, NoInline: true, Body: body}
		if err := codeScope.AddFunc(fn); err != nil {
			tr.errorf(diag.KindResolution, diag.CodeResolutionDup, m, "%v", err)
		}
		block.Statements = append(block.Statements, fn)
		sel := abi.Selector(m.Name, paramsToAbi(m.Params))

		caseStmts := []ast.Stmt{exprStmt(call(fnName))}
		if m.Locked {
			lockName, unlockName := tr.ensureMutexHelpers(codeScope)
			caseStmts = []ast.Stmt{
				exprStmt(call(lockName)),
				exprStmt(call(fnName)),
				exprStmt(call(unlockName)),
			}
		}
		cases = append(cases, ast.Case{Value: hexLit(sel), Body: &ast.Block{Statements: caseStmts}})
	}

	// unmatchedStmts runs both when a call carries fewer than 4 bytes of
	// calldata and when a full call's selector matches no declared method
	// (spec §4.4 "Method dispatcher"): receive() fires only for a
	// value-carrying call, fallback() (or an empty revert) catches
	// everything else. The two ifs below are guarded by complementary
	// conditions rather than an if/else — this dialect's `If` node has no
	// else branch — so sharing this same slice as both bodies is safe:
	// exactly one of the two ever runs.
	var unmatchedStmts []ast.Stmt
	if receive != nil {
		recvScope := codeScope.Push(scope.KindMethod)
		recvBody := tr.lowerBlock(receive.Body, recvScope)
		if recvBody == nil {
			recvBody = &ast.Block{}
		}
		// A value-carrying call stops after receive() rather than falling
		// through into fallback() or the empty revert below.
		recvBody.Statements = append(recvBody.Statements, exprStmt(call("stop")))
		unmatchedStmts = append(unmatchedStmts, &ast.If{Cond: call("callvalue"), Body: recvBody})
	}
	if fallback != nil {
		fbScope := codeScope.Push(scope.KindMethod)
		fbBody := tr.lowerBlock(fallback.Body, fbScope)
		unmatchedStmts = append(unmatchedStmts, fbBody.Statements...)
	} else {
		unmatchedStmts = append(unmatchedStmts, exprStmt(call("revert", shiftLit(0), shiftLit(0))))
	}

	// Calls carrying fewer than 4 bytes of calldata never reach the
	// selector switch at all (spec §4.4 "Method dispatcher": "if
	// callDataSize < 4 -> either receive() ... or fallback()"); without
	// this gate, a 1-3 byte call whose bytes happen to zero-pad into a
	// declared method's selector would incorrectly dispatch to that
	// method.
	shortCalldata := call("lt", call("calldatasize"), shiftLit(4))
	block.Statements = append(block.Statements,
		&ast.If{Cond: shortCalldata, Body: &ast.Block{Statements: unmatchedStmts}})

	sw := &ast.Switch{Expr: ident("selector"), Cases: cases, Default: &ast.Block{Statements: unmatchedStmts}}
	longBody := &ast.Block{Statements: []ast.Stmt{
		letDecl("selector", call("shr", shiftLit(224), call("calldataload", shiftLit(0)))),
		sw,
	}}
	block.Statements = append(block.Statements,
		&ast.If{Cond: call("iszero", shortCalldata), Body: longBody})

	block.Statements = append(block.Statements, exprStmt(call("stop")))

	for _, m := range n.Methods {
		if m.Visibility == ast.VisInternal || m.Visibility == ast.VisPrivate {
			fnScope := codeScope.Push(scope.KindBlock)
			body := tr.lowerBlock(m.Body, fnScope)
			params := make([]ast.TypedIdent, len(m.Params))
			for i, p := range m.Params {
				params[i] = ast.TypedIdent{Name: p.Name}
			}
			rets := make([]ast.TypedIdent, len(m.Returns))
			for i, r := range m.Returns {
				name := r.Name
				if name == "" {
					name = fmt.Sprintf("ret%d", i)
				}
				rets[i] = ast.TypedIdent{Name: name}
			}
			block.Statements = append(block.Statements, &ast.FunctionDef{Name: m.Name, Params: params, Returns: rets, Body: body})
		}
	}

	tr.materializeDependencies(block, codeScope)
	return &ast.CodeBlock{Body: block}
}

// buildMethodBody assembles one external method's own function body: the
// non-payable guard, then the lowered user body. The `locked` reentrancy
// guard is not part of this body at all — it is applied by whichever call
// site reaches the method (the dispatcher case or method.call's wrapper),
// via the named mutex.lock/mutex.unlock helpers (spec property 7).
func (tr *Transformer) buildMethodBody(m *ast.MethodDecl, methodScope *scope.Scope) *ast.Block {
	var stmts []ast.Stmt
	if m.Mutability != ast.MutPayable {
		stmts = append(stmts, &ast.If{Cond: call("callvalue"), Body: &ast.Block{
			Statements: []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))},
		}})
	}
	body := tr.lowerBlock(m.Body, methodScope)
	if body != nil {
		stmts = append(stmts, body.Statements...)
	}
	return &ast.Block{Statements: stmts}
}

// buildConstructor lowers the optional constructor and appends the
// standard "copy runtime code out of the creation object's data section
// and return it" trailer (spec §4.4 "ConstructorDefinition").
func (tr *Transformer) buildConstructor(n *ast.Contract, creationScope *scope.Scope, runtimeName string) *ast.CodeBlock {
	codeScope := creationScope.Push(scope.KindConstructor)
	block := &ast.Block{}

	if n.Constructor != nil {
		ctor := n.Constructor
		ctorScope := codeScope.Push(scope.KindMethod)
		argsSize := 32 * len(ctor.Params)
		if argsSize > 0 {
			block.Statements = append(block.Statements, exprStmt(call("codecopy",
				shiftLit(0), call("sub", call("codesize"), shiftLit(argsSize)), shiftLit(argsSize))))
			for i, p := range ctor.Params {
				ctorScope.AddVar(p.Name, nil)
				block.Statements = append(block.Statements, letDecl(p.Name, call("mload", shiftLit(i*32))))
			}
		}
		if !ctor.Payable {
			block.Statements = append(block.Statements, &ast.If{Cond: call("callvalue"), Body: &ast.Block{
				Statements: []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))},
			}})
		}
		userBody := tr.lowerBlock(ctor.Body, ctorScope)
		if userBody != nil {
			block.Statements = append(block.Statements, userBody.Statements...)
		}
	}

	block.Statements = append(block.Statements,
		exprStmt(call("datacopy", shiftLit(0), call("dataoffset", strLit(runtimeName)), call("datasize", strLit(runtimeName)))),
		exprStmt(call("return", shiftLit(0), call("datasize", strLit(runtimeName)))),
	)
	tr.materializeDependencies(block, codeScope)
	return &ast.CodeBlock{Body: block}
}

// lowerFunctionDef lowers a file-scope function definition, padding its
// body when codesize.NeedsPadding reports it would otherwise be inlined
// away by the downstream optimiser (spec §4.4 "Inline-suppression
// padding").
func (tr *Transformer) lowerFunctionDef(n *ast.FunctionDef, sc *scope.Scope) *ast.FunctionDef {
	if err := sc.AddFunc(n); err != nil {
		tr.errorf(diag.KindResolution, diag.CodeResolutionDup, n, "%v", err)
	}
	fnScope := sc.Push(scope.KindBlock)
	body := tr.lowerBlock(n.Body, fnScope)
	if n.NoInline && codesize.NeedsPadding(body, len(n.Params)) {
		body.Statements = append(body.Statements, codesize.PaddingStatements(body, len(n.Params))...)
	}
	return &ast.FunctionDef{Base: n.Base, Name: n.Name, Params: n.Params, Returns: n.Returns,
		NoInline: n.NoInline, Builtin: n.Builtin, Body: body}
}

