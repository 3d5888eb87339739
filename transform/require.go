package transform

import (
	"fmt"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/diag"
	"github.com/tos-network/toyul/scope"
)

// requireOp describes one `require.<op>` variant: how many condition
// operands it consumes and how to turn those operands into the "this call
// must fail" test (spec §4.4 negates the intrinsic's own success condition
// to build the guard's `if` branch).
type requireOp struct {
	arity int
	fail  func(args []ast.Expr) ast.Expr
}

var requireOps = map[string]requireOp{
	"ok":     {1, func(a []ast.Expr) ast.Expr { return call("iszero", a[0]) }},
	"zero":   {1, func(a []ast.Expr) ast.Expr { return a[0] }},
	"before": {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("lt", a[0], a[1])) }},
	"after":  {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("gt", a[0], a[1])) }},
	"caller": {1, func(a []ast.Expr) ast.Expr { return call("iszero", call("eq", call("caller"), a[0])) }},
	"origin": {1, func(a []ast.Expr) ast.Expr { return call("iszero", call("eq", call("origin"), a[0])) }},
	// `owner` reads the same way as `caller` in this dialect: there is no
	// separate on-chain ownership record for the transform pass to consult,
	// so `require.owner(addr)` is the caller-identity check under another
	// name (documented decision, not an oversight).
	"owner": {1, func(a []ast.Expr) ast.Expr { return call("iszero", call("eq", call("caller"), a[0])) }},
	"eq":    {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("eq", a[0], a[1])) }},
	"neq":   {2, func(a []ast.Expr) ast.Expr { return call("eq", a[0], a[1]) }},
	"lt":    {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("lt", a[0], a[1])) }},
	"lte":   {2, func(a []ast.Expr) ast.Expr { return call("gt", a[0], a[1]) }},
	"gt":    {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("gt", a[0], a[1])) }},
	"gte":   {2, func(a []ast.Expr) ast.Expr { return call("lt", a[0], a[1]) }},
	"slt":   {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("slt", a[0], a[1])) }},
	"slte":  {2, func(a []ast.Expr) ast.Expr { return call("sgt", a[0], a[1]) }},
	"sgt":   {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("sgt", a[0], a[1])) }},
	"sgte":  {2, func(a []ast.Expr) ast.Expr { return call("slt", a[0], a[1]) }},
	// `width(x, bits)` requires x fit within the low `bits` bits.
	"width": {2, func(a []ast.Expr) ast.Expr { return call("iszero", call("iszero", call("shr", a[1], a[0]))) }},
}

// lowerRequire implements the `require.*` family (spec §4.4): rewrites to
// `if <fail-condition> { <revert-path> }`, where the revert path comes from
// an optional trailing argument beyond the op's own operands — a literal
// string message, a literal numeric error code, or (absent) a bare
// `revert(0, 0)`. In a debug build an omitted revert path is replaced with
// the call site's `file:line` as the revert message, so a failing require
// is traceable without instrumenting every call by hand.
func (tr *Transformer) lowerRequire(fc *ast.FunctionCall, args []ast.Expr, sc *scope.Scope) []ast.Stmt {
	op, ok := requireOps[fc.Name[len("require."):]]
	if !ok {
		tr.errorf(diag.KindResolution, diag.CodeResolutionUndefined, fc, "unknown require intrinsic %q", fc.Name)
		return nil
	}
	if len(args) < op.arity {
		tr.errorf(diag.KindResolution, diag.CodeResolutionArity, fc, "%s requires %d argument(s)", fc.Name, op.arity)
		return nil
	}
	cond, extra := args[:op.arity], args[op.arity:]
	failCond := op.fail(cond)

	var revertPath []ast.Stmt
	switch {
	case len(extra) > 0:
		revertPath = tr.revertPathFor(extra[0], sc)
	case tr.opts.Debug:
		loc := fmt.Sprintf("%s:%d", fc.File, fc.Line)
		revertPath = tr.revertWithMessage(&ast.Literal{Subtype: ast.LitString, Value: loc}, sc)
	default:
		revertPath = []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))}
	}
	return []ast.Stmt{&ast.If{Base: fc.Base, Cond: failCond, Body: &ast.Block{Statements: revertPath}}}
}

// revertPathFor dispatches the require.* trailing revert-path argument to a
// message revert (string literal) or an error-code revert (numeric
// literal); anything else falls back to a bare revert as an unsupported,
// non-literal revert path.
func (tr *Transformer) revertPathFor(path ast.Expr, sc *scope.Scope) []ast.Stmt {
	if lit, ok := path.(*ast.Literal); ok {
		switch lit.Subtype {
		case ast.LitString:
			return tr.revertWithMessage(lit, sc)
		case ast.LitDecimalNumber, ast.LitHexNumber:
			tr.ensureRevertIntHelper(sc)
			sc.DependsOn("__revert_int")
			return []ast.Stmt{exprStmt(call("__revert_int", lit))}
		}
	}
	return []ast.Stmt{exprStmt(call("revert", shiftLit(0), shiftLit(0)))}
}
