package transform

import (
	"strconv"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// lowerExpr lowers one expression, dispatching dialect-only node kinds to
// their plain-Yul rendering and recursing into every FunctionCall's
// argument list (spec §4.4's per-kind lowering table).
func (tr *Transformer) lowerExpr(e ast.Expr, sc *scope.Scope) ast.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.Literal:
		return n
	case *ast.Identifier:
		return tr.lowerIdentifier(n, sc)
	case *ast.MemberIdentifier:
		return tr.lowerMemberIdentifier(n, sc)
	case *ast.CallDataIdentifier:
		return tr.lowerCalldataIdentifier(n, sc)
	case *ast.StructInitializer:
		return tr.lowerStructInitializer(n, sc)
	case *ast.InterfaceCall:
		return tr.lowerInterfaceCall(n, sc)
	case *ast.FunctionCall:
		return tr.lowerFunctionCallExpr(n, sc)
	case *ast.IdentifierList:
		return n
	default:
		return e
	}
}

// lowerIdentifier substitutes a bound `const` reference, and recognizes the
// three ambient names the preprocessor and `defined`/`undefined` intrinsics
// are aware of regardless of any user `const` declaration (spec §4.4
// "defined/undefined/undefine ... also aware of DEBUG, NDEBUG,
// EVM_VERSION"): EVM_VERSION resolves to the active hard-fork's ordinal
// (spec §6, "EVM_VERSION in source resolves to the active ordinal"), DEBUG
// and NDEBUG resolve to the transform run's debug flag and its negation.
func (tr *Transformer) lowerIdentifier(n *ast.Identifier, sc *scope.Scope) ast.Expr {
	if n.Replaceable {
		return n
	}
	if v, ok := sc.LookupConst(n.Value); ok {
		return tr.foldExpr(tr.lowerExpr(v, sc), sc)
	}
	if lit := ambientIdentLit(n.Value, tr.hardfork, tr.opts.Debug); lit != nil {
		return lit
	}
	return n
}

// ambientIdentLit resolves the three names EVM_VERSION/DEBUG/NDEBUG stay
// visible as regardless of any user `const` declaration, shared between
// general expression lowering (lowerIdentifier) and preprocessor fold
// condition evaluation (resolveConstRefs), which both need to see them.
func ambientIdentLit(name string, hardfork int, debug bool) *ast.Literal {
	switch name {
	case "EVM_VERSION":
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: strconv.Itoa(hardfork)}
	case "DEBUG":
		return boolLit(debug).(*ast.Literal)
	case "NDEBUG":
		return boolLit(!debug).(*ast.Literal)
	}
	return nil
}

func boolLit(b bool) ast.Expr {
	if b {
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "1"}
	}
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
}

// lowerMemberIdentifier reads a packed struct field out of its holding
// local (spec §4.4 "Struct packing"): `x->field` becomes
// `and(shr(shift, x), mask)`.
func (tr *Transformer) lowerMemberIdentifier(n *ast.MemberIdentifier, sc *scope.Scope) ast.Expr {
	layout, member, ok := tr.resolveMember(n.BaseName, n.CastType, n.Member, sc, n)
	if !ok {
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	_ = layout
	return memberReadExpr(&ast.Identifier{Base: n.Base, Value: n.BaseName}, member)
}

func (tr *Transformer) resolveMember(baseName, castType, member string, sc *scope.Scope, pos ast.Node) (*StructLayout, MemberLayout, bool) {
	structName := castType
	if structName == "" {
		structName, _ = sc.VarType(baseName)
	}
	if structName == "" {
		tr.errorf(diag.KindResolution, diag.CodeResolutionMember, pos, "cannot resolve struct type of %q", baseName)
		return nil, MemberLayout{}, false
	}
	layout, ok := tr.structLayouts[structName]
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, pos, "undefined struct %q", structName)
		return nil, MemberLayout{}, false
	}
	ml, ok := layout.find(member)
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionMember, pos, "struct %q has no member %q", structName, member)
		return nil, MemberLayout{}, false
	}
	return layout, ml, true
}

// lowerCalldataIdentifier resolves `calldata.x` / `&calldata.x` against the
// enclosing method's parameter list (spec §4.4 "Calldata accessors"). Each
// parameter occupies one fixed 32-byte calldata word following the 4-byte
// selector, consistent with the head-only ABI encoding used elsewhere in
// this pass.
func (tr *Transformer) lowerCalldataIdentifier(n *ast.CallDataIdentifier, sc *scope.Scope) ast.Expr {
	m, ok := sc.LookupCalldata()
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, n, "calldata.%s used outside a method body", n.Member)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	idx := -1
	for i, p := range m.Params {
		if p.Name == n.Member {
			idx = i
			break
		}
	}
	if idx < 0 {
		tr.errorf(diag.KindResolution, diag.CodeResolutionMember, n, "method %q has no parameter %q", m.Name, n.Member)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	offset := 4 + 32*idx
	if n.Ref {
		return shiftLit(offset)
	}
	raw := call("calldataload", shiftLit(offset))
	paramType := m.Params[idx].Type
	if paramType.Array {
		return call("add", raw, shiftLit(4))
	}
	width := memberBitWidth(paramType)
	if width >= 256 {
		return raw
	}
	return call("shr", shiftLit(256-width), raw)
}

// lowerFunctionCallExpr is the general FunctionCall dispatch hub: macro
// expansion, built-in intrinsics, then plain opcode/user-function calls
// with lowered arguments and dependency tracking.
func (tr *Transformer) lowerFunctionCallExpr(fc *ast.FunctionCall, sc *scope.Scope) ast.Expr {
	if macro, ok := sc.LookupMacro(fc.Name); ok {
		return tr.expandMacro(macro, fc.Args, sc)
	}

	args := make([]ast.Expr, len(fc.Args))
	for i, a := range fc.Args {
		args[i] = tr.lowerExpr(a, sc)
	}

	if lowered, ok := tr.lowerIntrinsic(fc, args, sc); ok {
		return tr.foldExpr(lowered, sc)
	}

	if _, ok := sc.LookupFunc(fc.Name); ok {
		sc.DependsOn(fc.Name)
	} else if _, ok := tr.helperPool[fc.Name]; ok {
		sc.DependsOn(fc.Name)
	}

	out := &ast.FunctionCall{Base: fc.Base, Name: fc.Name, Args: args, File: fc.File, Line: fc.Line}
	return tr.foldExpr(out, sc)
}

// expandMacro substitutes fc's arguments positionally for macro.Params
// inside macro.Body and re-lowers the result (spec §4.4 "Macro
// expansion"). Single-statement, single-expression macro bodies collapse
// to that expression; a multi-statement body is unsupported in expression
// position and reported as a static error.
func (tr *Transformer) expandMacro(macro *ast.MacroDefinition, args []ast.Expr, sc *scope.Scope) ast.Expr {
	subst := map[string]ast.Expr{}
	for i, p := range macro.Params {
		if i < len(args) {
			subst[p] = tr.lowerExpr(args[i], sc)
		}
	}
	if len(macro.Body.Statements) != 1 {
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, macro, "macro %q used in expression position must have exactly one statement", macro.Name)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
	switch s := macro.Body.Statements[0].(type) {
	case *ast.FunctionCall:
		return tr.lowerExpr(substituteMacroArgs(s, subst), sc)
	case *ast.Assignment:
		if len(s.LHS) == 1 {
			if v, ok := subst[s.LHS[0]]; ok {
				return v
			}
		}
		return tr.lowerExpr(substituteMacroArgs(s.RHS, subst), sc)
	default:
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, macro, "macro %q body is not a usable expression", macro.Name)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
}

func substituteMacroArgs(e ast.Expr, subst map[string]ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Identifier:
		if v, ok := subst[n.Value]; ok {
			return v
		}
		return n
	case *ast.FunctionCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteMacroArgs(a, subst)
		}
		return &ast.FunctionCall{Base: n.Base, Name: n.Name, Args: args, File: n.File, Line: n.Line}
	default:
		return e
	}
}

// lowerInterfaceCall lowers an InterfaceCall used in expression position:
// create/create2 forms yield an address, call/trycall forms yield the
// encoded return value (spec §4.4 "Interface calls").
func (tr *Transformer) lowerInterfaceCall(n *ast.InterfaceCall, sc *scope.Scope) ast.Expr {
	args := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = tr.lowerExpr(a, sc)
	}
	switch n.Kind {
	case ast.ICreate, ast.ICreate2:
		name := tr.ensureCreateThunk(n.Name, n.Kind == ast.ICreate2, sc)
		return call(name, args...)
	case ast.ICall:
		if n.Attempt {
			tr.errorf(diag.KindStatic, diag.CodeStaticAbort, n, "trycall %s.%s returns (success, result); bind it with a multi-name let", n.Name, n.Method)
			return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
		}
		name := tr.ensureCallThunk(n.Name, n.Method, false, sc)
		return call(name, args...)
	default:
		tr.errorf(diag.KindStatic, diag.CodeStaticAbort, n, "unknown interface call kind %q", n.Kind)
		return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: "0"}
	}
}
