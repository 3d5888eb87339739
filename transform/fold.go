package transform

import (
	"math/big"

	"github.com/tos-network/toyul/ast"
	"github.com/tos-network/toyul/bigword"
	"github.com/tos-network/toyul/scope"
)

// unitFactor is the multiplier a numeric literal's optional unit suffix
// applies (spec §3 "Literal" — wei/gwei/ether for value amounts,
// seconds/minutes/hours/days/weeks for durations), evaluated once here at
// transform time so the serializer only ever sees a bare number.
var unitFactor = map[string]int64{
	"wei": 1, "gwei": 1_000_000_000, "ether": 1_000_000_000_000_000_000,
	"seconds": 1, "minutes": 60, "hours": 3600, "days": 86400, "weeks": 604800,
}

// literalToBig parses a Literal's text into its wrapped uint256 value,
// applying any unit suffix's multiplier.
func literalToBig(lit *ast.Literal) (*big.Int, error) {
	switch lit.Subtype {
	case ast.LitDecimalNumber, ast.LitHexNumber:
		v, err := bigword.ParseUnsigned(lit.Value)
		if err != nil || v == nil {
			return v, err
		}
		if f, ok := unitFactor[lit.Unit]; ok {
			v = bigword.Wrap(new(big.Int).Mul(v, big.NewInt(f)))
		}
		return v, nil
	case ast.LitBool:
		if lit.Value == "true" {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	default:
		return nil, nil
	}
}

func litFromBig(v *big.Int) *ast.Literal {
	return &ast.Literal{Subtype: ast.LitDecimalNumber, Value: v.String()}
}

// resolveConstRefs substitutes bare Identifier references to known consts
// with their bound expression, and the ambient EVM_VERSION/DEBUG/NDEBUG
// names with their literal value regardless of any `const` declaration
// (spec §4.4 "defined/undefined/undefine ... also aware of DEBUG, NDEBUG,
// EVM_VERSION"), recursively, so folding sees through names introduced by
// `const`/enum/macro-constant declarations as well as the ambient ones a
// preprocessor `@if` condition commonly gates on (spec §8(f)).
func (tr *Transformer) resolveConstRefs(e ast.Expr, sc interface {
	LookupConst(string) (ast.Expr, bool)
}) ast.Expr {
	switch n := e.(type) {
	case *ast.Identifier:
		if lit := ambientIdentLit(n.Value, tr.hardfork, tr.opts.Debug); lit != nil {
			return lit
		}
		if v, ok := sc.LookupConst(n.Value); ok {
			return tr.resolveConstRefs(v, sc)
		}
		return n
	case *ast.FunctionCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = tr.resolveConstRefs(a, sc)
		}
		return &ast.FunctionCall{Base: n.Base, Name: n.Name, Args: args, File: n.File, Line: n.Line}
	default:
		return e
	}
}

// opArity lists the known Yul opcode folding table (spec §4.4 "Constant
// folding").
var opArity = map[string]int{
	"add": 2, "sub": 2, "mul": 2, "div": 2, "sdiv": 2, "mod": 2, "smod": 2,
	"exp": 2, "addmod": 3, "mulmod": 3, "not": 1, "and": 2, "or": 2, "xor": 2,
	"shl": 2, "shr": 2, "sar": 2, "signextend": 2, "byte": 2, "iszero": 1,
	"eq": 2, "lt": 2, "slt": 2, "gt": 2, "sgt": 2,
}

func applyOp(name string, a []*big.Int) *big.Int {
	switch name {
	case "add":
		return bigword.Add(a[0], a[1])
	case "sub":
		return bigword.Sub(a[0], a[1])
	case "mul":
		return bigword.Mul(a[0], a[1])
	case "div":
		return bigword.Div(a[0], a[1])
	case "sdiv":
		return bigword.SDiv(a[0], a[1])
	case "mod":
		return bigword.Mod(a[0], a[1])
	case "smod":
		return bigword.SMod(a[0], a[1])
	case "exp":
		return bigword.Exp(a[0], a[1])
	case "addmod":
		return bigword.AddMod(a[0], a[1], a[2])
	case "mulmod":
		return bigword.MulMod(a[0], a[1], a[2])
	case "not":
		return bigword.Not(a[0])
	case "and":
		return bigword.And(a[0], a[1])
	case "or":
		return bigword.Or(a[0], a[1])
	case "xor":
		return bigword.Xor(a[0], a[1])
	case "shl":
		return bigword.Shl(a[0], a[1])
	case "shr":
		return bigword.Shr(a[0], a[1])
	case "sar":
		return bigword.Sar(a[0], a[1])
	case "signextend":
		return bigword.SignExtend(a[0], a[1])
	case "byte":
		return bigword.Byte(a[0], a[1])
	case "iszero":
		return bigword.IsZero(a[0])
	case "eq":
		return bigword.Eq(a[0], a[1])
	case "lt":
		return bigword.Lt(a[0], a[1])
	case "slt":
		return bigword.Slt(a[0], a[1])
	case "gt":
		return bigword.Gt(a[0], a[1])
	case "sgt":
		return bigword.Sgt(a[0], a[1])
	}
	return nil
}

// foldExpr recursively rewrites literal-only opcode calls to their computed
// result and applies the spec's identity laws and the iszero(lt)/
// iszero(gt)/iszero(iszero) rewrites. It never descends into non-literal
// subtrees beyond folding their own children first (bottom-up).
func (tr *Transformer) foldExpr(e ast.Expr, sc *scope.Scope) ast.Expr {
	// A unit-suffixed literal used bare (not as an opcode argument, which
	// resolves its unit through applyOp/litFromBig below) still has to lose
	// its unit before reaching the serializer: plain Yul has no unit
	// literal syntax at all.
	if lit, ok := e.(*ast.Literal); ok && lit.Unit != "" {
		if v, ferr := literalToBig(lit); ferr == nil && v != nil {
			return litFromBig(v)
		}
	}
	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return e
	}
	args := make([]ast.Expr, len(fc.Args))
	for i, a := range fc.Args {
		args[i] = tr.foldExpr(tr.resolveConstRefs(a, sc), sc)
	}
	folded := &ast.FunctionCall{Base: fc.Base, Name: fc.Name, Args: args, File: fc.File, Line: fc.Line}

	if rewritten := applyIdentityLaws(folded); rewritten != folded {
		return tr.foldExpr(rewritten, sc)
	}

	arity, known := opArity[fc.Name]
	if !known || len(args) != arity {
		return folded
	}
	vals := make([]*big.Int, len(args))
	for i, a := range args {
		lit, ok := a.(*ast.Literal)
		if !ok {
			return folded
		}
		v, err := literalToBig(lit)
		if err != nil || v == nil {
			return folded
		}
		vals[i] = v
	}
	return litFromBig(applyOp(fc.Name, vals))
}

// litValue returns e's numeric value when e is a literal, ok=false
// otherwise.
func litValue(e ast.Expr) (*big.Int, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return nil, false
	}
	v, err := literalToBig(lit)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func isLitEq(e ast.Expr, n int64) bool {
	v, ok := litValue(e)
	return ok && v.Cmp(big.NewInt(n)) == 0
}

// applyIdentityLaws implements the spec's named algebraic rewrites:
// iszero(lt(x,L)) -> gt(x,L-1), the mirror for gt, iszero(iszero(x)) -> x,
// and the zero/one/no-op identities named in spec §4.4 ("x+0, x*0, x*1,
// x<<0, etc."). Returns the input unchanged (same pointer) when no rule
// applies.
func applyIdentityLaws(fc *ast.FunctionCall) ast.Expr {
	if fc.Name == "iszero" && len(fc.Args) == 1 {
		inner, ok := fc.Args[0].(*ast.FunctionCall)
		if ok && inner.Name == "iszero" && len(inner.Args) == 1 {
			return inner.Args[0]
		}
		if ok && inner.Name == "lt" && len(inner.Args) == 2 {
			if v, isLit := litValue(inner.Args[1]); isLit && v.Sign() > 0 {
				return &ast.FunctionCall{Base: fc.Base, Name: "gt", Args: []ast.Expr{
					inner.Args[0], litFromBig(new(big.Int).Sub(v, big.NewInt(1))),
				}}
			}
		}
		if ok && inner.Name == "gt" && len(inner.Args) == 2 {
			if v, isLit := litValue(inner.Args[1]); isLit && v.Cmp(bigword.Max) < 0 {
				return &ast.FunctionCall{Base: fc.Base, Name: "lt", Args: []ast.Expr{
					inner.Args[0], litFromBig(bigword.Add(v, big.NewInt(1))),
				}}
			}
		}
		return fc
	}
	if len(fc.Args) != 2 {
		return fc
	}
	x, y := fc.Args[0], fc.Args[1]
	switch fc.Name {
	case "add", "or", "xor":
		if isLitEq(y, 0) {
			return x
		}
		if isLitEq(x, 0) {
			return y
		}
	case "sub":
		if isLitEq(y, 0) {
			return x
		}
	case "mul":
		if isLitEq(x, 0) || isLitEq(y, 0) {
			return litFromBig(big.NewInt(0))
		}
		if isLitEq(y, 1) {
			return x
		}
		if isLitEq(x, 1) {
			return y
		}
	case "div", "sdiv":
		if isLitEq(y, 1) {
			return x
		}
	case "and":
		if isLitEq(x, 0) || isLitEq(y, 0) {
			return litFromBig(big.NewInt(0))
		}
	case "shl", "shr", "sar":
		// shl/shr/sar take (shiftAmount, value); a zero shift is a no-op.
		if isLitEq(x, 0) {
			return y
		}
	}
	return fc
}
